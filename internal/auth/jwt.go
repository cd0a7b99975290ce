package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims we read from a session token
type TokenClaims struct {
	Subject   string
	UserID    string
	Username  string
	Email     string
	ExpiresAt int64
	IssuedAt  int64
}

// ParseToken extracts claims from a JWT without verifying its signature.
// The client never trusts these claims for authorization; the service
// verifies the token on every request.
func ParseToken(tokenString string) (*TokenClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	tc := &TokenClaims{}
	if sub, ok := claims["sub"].(string); ok {
		tc.Subject = sub
		tc.UserID = sub
	}
	// Express-style backends put the id under "id" or "userId".
	for _, key := range []string{"user_id", "userId", "id"} {
		if id, ok := claims[key].(string); ok && id != "" {
			tc.UserID = id
			break
		}
	}
	if username, ok := claims["username"].(string); ok {
		tc.Username = username
	}
	if email, ok := claims["email"].(string); ok {
		tc.Email = email
	}
	if exp, ok := claims["exp"].(float64); ok {
		tc.ExpiresAt = int64(exp)
	}
	if iat, ok := claims["iat"].(float64); ok {
		tc.IssuedAt = int64(iat)
	}

	return tc, nil
}

// NewSession builds a session from a login token. Opaque (non-JWT) tokens
// are accepted; the session then carries only the fallback identity.
func NewSession(token, username, email string) *Session {
	s := &Session{
		Token:     token,
		Username:  username,
		Email:     email,
		CreatedAt: time.Now(),
	}

	if strings.Count(token, ".") != 2 {
		return s
	}
	claims, err := ParseToken(token)
	if err != nil {
		return s
	}

	s.UserID = claims.UserID
	if claims.Username != "" {
		s.Username = claims.Username
	}
	if claims.Email != "" {
		s.Email = claims.Email
	}
	if claims.ExpiresAt > 0 {
		exp := time.Unix(claims.ExpiresAt, 0)
		s.ExpiresAt = &exp
	}
	return s
}
