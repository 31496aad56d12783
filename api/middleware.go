package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tokenTTL bounds how long an issued operator token stays valid.
const tokenTTL = 12 * time.Hour

// Auth issues and validates operator tokens. The dashboard exchanges the
// shared operator token for a signed JWT once; every operator route and
// the websocket endpoint validate that JWT afterwards, so the shared
// secret itself crosses the wire a single time per session.
type Auth struct {
	operatorToken []byte
	jwtSecret     []byte
}

// NewAuth builds the auth layer from the configured secrets.
func NewAuth(operatorToken, jwtSecret string) *Auth {
	return &Auth{
		operatorToken: []byte(operatorToken),
		jwtSecret:     []byte(jwtSecret),
	}
}

// Middleware adds bearer token authentication around accessing the routes
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := a.Validate(bearerToken(r)); err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateToken exchanges the shared operator token for a signed JWT
func (a *Auth) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "failed to decode request body", http.StatusBadRequest)
		return
	}

	if len(a.operatorToken) == 0 {
		zap.S().Error("operator token is not configured")
		http.Error(w, "operator auth not configured", http.StatusServiceUnavailable)
		return
	}
	if subtle.ConstantTimeCompare([]byte(body.Token), a.operatorToken) != 1 {
		zap.S().Warnw("operator token mismatch", "remote", r.RemoteAddr)
		http.Error(w, "invalid operator token", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "operator",
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		http.Error(w, "failed to sign token", http.StatusInternalServerError)
		return
	}

	responseBody, err := json.Marshal(map[string]string{"token": signed})
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Write(responseBody)
}

// Validate checks a raw JWT string. The websocket endpoint calls this with
// the token query parameter because browsers cannot set headers on an
// upgrade request.
func (a *Auth) Validate(raw string) error {
	if raw == "" {
		return errors.New("missing token")
	}
	_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	return err
}

func bearerToken(r *http.Request) string {
	reqToken := r.Header.Get("Authorization")
	_, token, found := strings.Cut(reqToken, "Bearer ")
	if !found {
		return ""
	}
	return token
}
