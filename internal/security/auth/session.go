// Package auth signs and verifies the session cookie. The cookie is a
// server-opaque HS256 JWT carrying only the user id; no session state is
// kept server-side, so its lifecycle is bound entirely to the cookie expiry.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the session cookie name.
const CookieName = "session"

// BearerKey extracts the opaque key from an Authorization header. The
// second return is false when the header is absent or not a bearer
// credential.
func BearerKey(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):]), true
	}
	return "", false
}

// SessionClaims are the signed contents of the session cookie.
type SessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies signed session cookies.
type SessionManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	secure bool
}

// NewSessionManager creates a session manager. secure controls the cookie's
// Secure attribute and should be true outside development.
func NewSessionManager(secret, issuer string, ttl time.Duration, secure bool) *SessionManager {
	if issuer == "" {
		issuer = "personnelapi"
	}
	return &SessionManager{secret: []byte(secret), issuer: issuer, ttl: ttl, secure: secure}
}

// Issue signs a session value for the given user.
func (sm *SessionManager) Issue(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id required")
	}
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl)),
			Issuer:    sm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(sm.secret)
}

// Verify parses and validates a session value. Callers treat any error as
// "no session"; an invalid signature is indistinguishable from an absent
// cookie on the wire.
func (sm *SessionManager) Verify(value string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(value, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return sm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session failed: %w", err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session claims")
	}
	return claims, nil
}

// Cookie wraps a signed session value in the HTTP cookie sent to clients.
func (sm *SessionManager) Cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(sm.ttl.Seconds()),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie returns a cookie that deletes the session client-side.
func (sm *SessionManager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
