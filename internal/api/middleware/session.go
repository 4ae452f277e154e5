/**
 * @description
 * Signed session cookies.
 * Every visitor gets a session id carried in an HS256-signed cookie keyed by SESSION_SECRET.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: HTTP Context
 * - github.com/golang-jwt/jwt/v5: Token signing and verification
 * - github.com/google/uuid: Session ids
 *
 * @notes
 * - The cookie only carries the id; no session data is stored server side.
 * - Tampered, expired or foreign-signed cookies are replaced with a fresh session.
 * - With an empty secret the middleware is a pass-through and no session exists.
 */

package middleware

import (
	"errors"
	"time"

	"github.com/earnings-navigator/backend/internal/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// SessionCookie is the name of the session cookie
	SessionCookie = "session"
	sessionTTL    = 7 * 24 * time.Hour
	sessionIssuer = "earnings-navigator"
	sessionLocal  = "session_id"
)

// Session attaches a session id to every request
func Session(secret string, secure bool) fiber.Handler {
	if secret == "" {
		logger.Warn("⚠️ SESSION_SECRET is empty. Sessions are disabled.")
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		if sid, err := parseSession(c.Cookies(SessionCookie), key); err == nil {
			c.Locals(sessionLocal, sid)
			return c.Next()
		}

		now := time.Now()
		sid := uuid.NewString()
		token, err := signSession(sid, now, key)
		if err != nil {
			logger.Error("Session: failed to sign session: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start session"})
		}

		c.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			Expires:  now.Add(sessionTTL),
			HTTPOnly: true,
			Secure:   secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		c.Locals(sessionLocal, sid)
		return c.Next()
	}
}

// GetSessionID returns the session id attached by Session
func GetSessionID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(sessionLocal).(string)
	if !ok || id == "" {
		return "", errors.New("session not found in context")
	}
	return id, nil
}

func signSession(sid string, now time.Time, key []byte) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sid,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func parseSession(raw string, key []byte) (string, error) {
	if raw == "" {
		return "", errors.New("no session cookie")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("session token missing id")
	}
	return claims.ID, nil
}
