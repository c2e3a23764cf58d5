package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"todoTracker/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errNoSubject    = errors.New("token has no subject")
)

// Authenticate resolves the acting user from an HMAC-signed bearer token.
// The token subject is the user id. Requests without a valid token get 401.
// When failures is set, every failed attempt spends a token of the client
// address, and an address out of tokens gets 429 until it refills.
func Authenticate(secret []byte, failures *Limiter) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (any, error) {
		return secret, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := subject(r, parser, keyFunc)
			if err != nil {
				ip := getIp(r)
				logger.Warn("HTTP: authentication failed",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("client_ip", ip),
					zap.Error(err))
				if failures != nil {
					if ok, wait := failures.Allow("ip:" + ip); !ok {
						tooManyRequests(w, r, "ip:"+ip, wait)
						return
					}
				}
				unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func subject(r *http.Request, parser *jwt.Parser, keyFunc jwt.Keyfunc) (string, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, keyFunc); err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errNoSubject
	}
	return claims.Subject, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="todo"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":      "UNAUTHORIZED",
		"message":    "a valid bearer token is required",
		"request_id": GetRequestID(r.Context()),
	})
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIdKey, userID)
}

// UserID returns the authenticated user, or "" outside Authenticate.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIdKey).(string); ok {
		return id
	}
	return ""
}
