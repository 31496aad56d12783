package models

// BanEntry holds the structure for a single banned sender in the ban ledger
// file. UntilMs of zero means the ban is permanent.
type BanEntry struct {
	Reason    string `json:"reason"`
	AddedAtMs int64  `json:"addedAtMs"`
	UntilMs   int64  `json:"untilMs"`
}

// BanList holds the structure for the banned_users.json file, keyed by
// sender id. One entry per sender, last write wins.
type BanList struct {
	Users map[string]BanEntry `json:"users"`
}

// NewBanList returns an empty ban list with the users map allocated.
func NewBanList() BanList {
	return BanList{Users: map[string]BanEntry{}}
}
