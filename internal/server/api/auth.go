package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// adminTokenHeader carries the shared upload secret. The name is fixed for
// compatibility with existing clients.
const adminTokenHeader = "X-Admin-Token"

// TokenVerifier checks an admin credential presented by a client.
// Pluggable so stronger schemes can replace the shared secret without
// touching handler logic.
type TokenVerifier interface {
	Verify(token string) bool
}

// PlainVerifier compares the presented token against a configured secret
// in constant time.
type PlainVerifier struct {
	secret string
}

// NewPlainVerifier creates a constant-time equality verifier.
func NewPlainVerifier(secret string) *PlainVerifier {
	return &PlainVerifier{secret: secret}
}

func (v *PlainVerifier) Verify(token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(v.secret)) == 1
}

// BcryptVerifier compares the presented token against a bcrypt hash, so
// the plaintext secret never has to appear in the environment.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier creates a verifier over a bcrypt hash of the secret.
func NewBcryptVerifier(hash string) *BcryptVerifier {
	return &BcryptVerifier{hash: []byte(hash)}
}

func (v *BcryptVerifier) Verify(token string) bool {
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.hash, []byte(token)) == nil
}

// RequireAdminToken returns middleware that rejects requests whose
// X-Admin-Token header does not satisfy the verifier.
func RequireAdminToken(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(adminTokenHeader)
			if !verifier.Verify(token) {
				slog.Warn("rejected unauthorized upload", "ip", c.RealIP())
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
			}
			return next(c)
		}
	}
}
