// Package auth turns a bearer JWT into the policy.Actor every mutating
// operation requires. Token issuance lives elsewhere; this middleware only
// verifies and extracts.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"nonconf/internal/policy"
	id "nonconf/pkg/domain"
	"nonconf/pkg/requestcontext"
)

// Verifier validates a raw bearer token and extracts the actor it asserts.
type Verifier interface {
	Verify(token string) (policy.Actor, error)
}

// JWTVerifier verifies HMAC-signed tokens. The subject claim carries the user
// ID; the "capabilities" claim carries capability strings.
type JWTVerifier struct {
	key []byte
}

func NewJWTVerifier(signingKey string) *JWTVerifier {
	return &JWTVerifier{key: []byte(signingKey)}
}

func (v *JWTVerifier) Verify(token string) (policy.Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return policy.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return policy.Actor{}, fmt.Errorf("unexpected claims type")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return policy.Actor{}, fmt.Errorf("token has no subject")
	}
	userID, err := id.ParseUserID(subject)
	if err != nil {
		return policy.Actor{}, fmt.Errorf("malformed subject: %w", err)
	}

	actor := policy.Actor{ID: userID}
	if raw, ok := claims["capabilities"].([]any); ok {
		for _, entry := range raw {
			if s, ok := entry.(string); ok {
				actor.Capabilities = append(actor.Capabilities, policy.Capability(s))
			}
		}
	}
	return actor, nil
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"error_description":%q}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and injects the
// verified actor into the context for handlers and services.
func RequireAuth(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			actor, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(policy.WithActor(ctx, actor)))
		})
	}
}
