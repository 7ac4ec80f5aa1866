package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "lend-and-learn"

// sessionLifetime bounds how long a login lasts before the user has to go
// through the OAuth flow again.
const sessionLifetime = 24 * time.Hour

// TokenService signs and validates the session JWTs stored in the login
// cookie. The same HMAC secret does both, so it must stay server-side.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the session JWT payload. Subject holds the username; the
// provider access token rides along so directory lookups on later requests
// can reuse the user's own OAuth credentials without a server-side session
// store.
type claims struct {
	ProviderToken string `json:"provider_token,omitempty"`
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given username.
func (s *TokenService) Generate(username, providerToken string) (string, error) {
	return s.generateWithDuration(username, providerToken, sessionLifetime)
}

func (s *TokenService) generateWithDuration(username, providerToken string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		ProviderToken: providerToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session token, returning the username and
// the embedded provider access token. WithValidMethods pins HS256 so a
// forged "alg" header cannot downgrade verification.
func (s *TokenService) Validate(tokenStr string) (username, providerToken string, err error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", fmt.Errorf("auth: token expired")
		}
		return "", "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, c.ProviderToken, nil
}
