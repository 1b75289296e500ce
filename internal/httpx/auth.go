package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleAdmin  = "admin"
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

var errUnauthenticated = errors.New("unauthenticated")

type Identity struct {
	UserID int64
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

type identityKey struct{}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Authenticator validates HS256 bearer tokens carrying "sub" and "role".
type Authenticator struct {
	Secret []byte
}

func (a *Authenticator) Parse(tokenStr string) (Identity, error) {
	if len(a.Secret) == 0 {
		return Identity{}, fmt.Errorf("JWT secret not configured")
	}
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.Secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return Identity{}, fmt.Errorf("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	var id Identity
	switch sub := claims["sub"].(type) {
	case string:
		id.UserID, err = strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return Identity{}, fmt.Errorf("invalid subject")
		}
	case float64:
		id.UserID = int64(sub)
	default:
		return Identity{}, fmt.Errorf("missing subject")
	}
	if id.UserID <= 0 {
		return Identity{}, fmt.Errorf("invalid subject")
	}
	id.Role, _ = claims["role"].(string)
	if id.Role == "" {
		id.Role = RoleBuyer
	}
	return id, nil
}

// Middleware rejects requests without a valid bearer token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		tok, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || strings.TrimSpace(tok) == "" {
			writeError(w, newAppError(http.StatusUnauthorized, "Please login to continue", errUnauthenticated))
			return
		}
		id, err := a.Parse(strings.TrimSpace(tok))
		if err != nil {
			writeError(w, newAppError(http.StatusUnauthorized, "Please login to continue", err))
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			writeError(w, newAppError(http.StatusUnauthorized, "Please login to continue", errUnauthenticated))
			return
		}
		if !id.IsAdmin() {
			writeError(w, newAppError(http.StatusForbidden, "Admin access required", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}
