package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/models"
)

type ctxKey struct{}

// IdentityClaims are the session token claims issued by the identity
// provider.
type IdentityClaims struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	jwt.RegisteredClaims
}

// TokenVerifier checks identity provider session tokens. Either an HMAC
// secret or an RSA public key is used, never both.
type TokenVerifier struct {
	secret []byte
	key    *rsa.PublicKey
	issuer string
}

// NewTokenVerifier prefers publicKeyPEM when both are set.
func NewTokenVerifier(secret, publicKeyPEM, issuer string) (*TokenVerifier, error) {
	v := &TokenVerifier{issuer: issuer}
	switch {
	case publicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse identity provider public key: %w", err)
		}
		v.key = key
	case secret != "":
		v.secret = []byte(secret)
	default:
		return nil, errors.New("no identity provider key configured")
	}
	return v, nil
}

// Verify returns the principal carried by a valid token.
func (v *TokenVerifier) Verify(token string) (models.Principal, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.key != nil {
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))
	} else {
		opts = append(opts, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &IdentityClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		if v.key != nil {
			return v.key, nil
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return models.Principal{}, err
	}
	if claims.Subject == "" || claims.Email == "" {
		return models.Principal{}, errors.New("token lacks subject or email")
	}
	return models.Principal{
		ID:        claims.Subject,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}, nil
}

// Authenticate validates the bearer token and attaches the caller's
// principal to the request context.
func Authenticate(v *TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w)
				return
			}

			p, err := v.Verify(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				logger.Debug("rejected session token", zap.String("path", r.URL.Path), zap.Error(err))
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(models.Principal)
	return p, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}
