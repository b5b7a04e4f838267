package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

const sessionLocalsKey = "session"

// Session is the authenticated user behind a request.
type Session struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
}

type sessionClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// IssueSession signs an HS256 session token for userID.
func IssueSession(secret []byte, s Session, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("session secret is empty")
	}
	now := time.Now()
	claims := sessionClaims{
		Name: s.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}
	return signed, nil
}

func parseSession(secret []byte, token string) (*Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("session has no subject")
	}
	return &Session{UserID: claims.Subject, Name: claims.Name}, nil
}

// newSessionMiddleware resolves the session cookie. Requests without a valid
// token proceed anonymously; nothing is rejected.
func newSessionMiddleware(secret []byte, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(secret) == 0 || isProbe(c.Path()) {
			return c.Next()
		}
		token := c.Cookies(SessionCookie)
		if token == "" {
			return c.Next()
		}
		s, err := parseSession(secret, token)
		if err != nil {
			logger.Debug().Err(err).Str("path", c.Path()).Msg("ignoring invalid session")
			return c.Next()
		}
		c.Locals(sessionLocalsKey, s)
		return c.Next()
	}
}

// SessionFrom returns the request's session, or nil for anonymous requests.
func SessionFrom(c *fiber.Ctx) *Session {
	s, _ := c.Locals(sessionLocalsKey).(*Session)
	return s
}
