package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/domain/progress"
)

// AuthConfig configures bearer token checks. An empty Secret disables them.
type AuthConfig struct {
	Secret string
	Issuer string
}

// Enabled reports whether tokens are required.
func (c AuthConfig) Enabled() bool {
	return c.Secret != ""
}

// UserClaims is the token payload issued by the authentication service.
type UserClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for userID. The services only consume tokens; this
// exists for tests and operator tooling.
func (c AuthConfig) IssueToken(claims UserClaims) (string, error) {
	if claims.Issuer == "" {
		claims.Issuer = c.Issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.Secret))
}

// ParseToken validates a signed token and returns its claims.
func (c AuthConfig) ParseToken(raw string) (*UserClaims, error) {
	var claims UserClaims
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(c.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", progress.ErrNotAuthorized, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token carries no user_id", progress.ErrNotAuthorized)
	}
	return &claims, nil
}

// RequireUser rejects requests whose bearer token does not belong to the
// user named by the {param} path parameter.
func RequireUser(cfg AuthConfig, param string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, r, logger, fmt.Errorf("%w: bearer token required", progress.ErrNotAuthorized))
				return
			}
			claims, err := cfg.ParseToken(raw)
			if err != nil {
				writeError(w, r, logger, err)
				return
			}
			if claims.UserID != chi.URLParam(r, param) {
				writeError(w, r, logger, fmt.Errorf("%w: token belongs to another user", progress.ErrNotAuthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
