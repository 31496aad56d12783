package config

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the process-level config values. Domain settings (limits,
// cooldowns, engine tunables) live in the settings store under DataDir,
// not here.
type Config struct {
	Port          string
	DataDir       string
	PublicDir     string
	OperatorToken string
	JWTSecret     string
	FeedRelayURL  string
}

// New sets up all config related services
func New() *Config {

	// optional .env for local development
	_ = godotenv.Load()

	//setup zap logger and replace default logger
	logger, err := setLogger(os.Getenv("APP_ENV"))
	if err == nil {
		defer logger.Sync()
		_ = zap.ReplaceGlobals(logger)
	}

	return &Config{
		Port:          envOr("PORT", "8080"),
		DataDir:       envOr("DATA_DIR", "./data"),
		PublicDir:     envOr("PUBLIC_DIR", "./public"),
		OperatorToken: os.Getenv("OPERATOR_TOKEN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		FeedRelayURL:  os.Getenv("FEED_RELAY_URL"),
	}

}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
	return
}
