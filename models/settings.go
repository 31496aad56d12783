package models

// Engine names accepted by the settings store.
const (
	EngineSystem = "system"
	EnginePiper  = "piper"
)

// EngineSettings holds the tunables for the configured speech engine.
type EngineSettings struct {
	Name    string  `json:"name"`
	Voice   string  `json:"voice"`
	Rate    float64 `json:"rate"`
	Command string  `json:"command"`
}

// AutoBanSettings holds the automatic strike-ban policy.
type AutoBanSettings struct {
	Enabled         bool `json:"enabled"`
	StrikeThreshold int  `json:"strikeThreshold"`
	BanMinutes      int  `json:"banMinutes"`
}

// Settings holds the structure for the settings.json file. A Settings value
// is an immutable snapshot: the store swaps whole snapshots atomically and
// never mutates one in place, so concurrent readers never see a
// half-updated configuration.
type Settings struct {
	FeedUsername      string          `json:"feedUsername"`
	TTSEnabled        bool            `json:"ttsEnabled"`
	MaxChars          int             `json:"maxChars"`
	MaxWords          int             `json:"maxWords"`
	MaxQueue          int             `json:"maxQueue"`
	HistorySize       int             `json:"historySize"`
	GlobalCooldownMs  int             `json:"globalCooldownMs"`
	PerUserCooldownMs int             `json:"perUserCooldownMs"`
	Engine            EngineSettings  `json:"engine"`
	AutoBan           AutoBanSettings `json:"autoBan"`
}

// SettingsPatch holds a partial settings update from the operator. Nil
// fields were not sent and keep their current values; unrecognized JSON
// fields are ignored by decoding, not rejected.
type SettingsPatch struct {
	FeedUsername      *string  `json:"feedUsername"`
	TTSEnabled        *bool    `json:"ttsEnabled"`
	MaxChars          *int     `json:"maxChars"`
	MaxWords          *int     `json:"maxWords"`
	MaxQueue          *int     `json:"maxQueue"`
	HistorySize       *int     `json:"historySize"`
	GlobalCooldownMs  *int     `json:"globalCooldownMs"`
	PerUserCooldownMs *int     `json:"perUserCooldownMs"`
	EngineName        *string  `json:"engineName"`
	EngineVoice       *string  `json:"engineVoice"`
	EngineRate        *float64 `json:"engineRate"`
	EngineCommand     *string  `json:"engineCommand"`
	AutoBanEnabled    *bool    `json:"autoBanEnabled"`
	StrikeThreshold   *int     `json:"strikeThreshold"`
	BanMinutes        *int     `json:"banMinutes"`
}
