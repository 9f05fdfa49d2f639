// Package auth issues and validates the bearer tokens that identify
// the acting principal, and exposes role gates used by the handlers.
package auth

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// Role names carried in token claims.
const (
	RoleAdmin   = "ADMIN"
	RoleStore   = "STORE"
	RoleDriver  = "DRIVER"
	RoleKitchen = "KITCHEN"
)

// Principal is the authenticated actor for a request.
type Principal struct {
	ID      uuid.UUID
	Role    string
	StoreID *uuid.UUID // set for store-scoped users
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Claims is the JWT claim set carried by session tokens.
type Claims struct {
	Role    string `json:"role"`
	StoreID string `json:"store_id,omitempty"`
	jwt.StandardClaims
}

type ctxKey struct{}

func signingKey() []byte {
	if k := os.Getenv("JWT_SECRET"); k != "" {
		return []byte(k)
	}
	return []byte("your-secret-key")
}

// IssueToken signs a token for the principal, valid for ttl.
func IssueToken(p Principal, ttl time.Duration) (string, error) {
	claims := Claims{
		Role: p.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   p.ID.String(),
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
	}
	if p.StoreID != nil {
		claims.StoreID = p.StoreID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey())
}

// ParseToken validates a signed token and returns the principal it
// describes.
func ParseToken(tokenString string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return signingKey(), nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !token.Valid {
		return Principal{}, jwt.NewValidationError("invalid token", jwt.ValidationErrorSignatureInvalid)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, err
	}
	p := Principal{ID: id, Role: strings.ToUpper(claims.Role)}
	if claims.StoreID != "" {
		sid, err := uuid.Parse(claims.StoreID)
		if err == nil {
			p.StoreID = &sid
		}
	}
	return p, nil
}

// Middleware decodes the Authorization header and stores the principal
// in the request context. Requests without a valid token are rejected.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}
		p, err := ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// WithPrincipal returns a context carrying the principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal stored by Middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
