package auth

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// AdminSecretHeader carries the static admin secret.
const AdminSecretHeader = "X-Admin-Secret"

// RequireAdmin admits callers presenting the admin secret, or a bearer token
// for an ADMIN user when no secret header is sent. An empty secretHash
// disables the secret path.
func (m *AuthMiddleware) RequireAdmin(secretHash []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret := c.Get(AdminSecretHeader); secret != "" {
			if !CheckAdminSecret(secretHash, secret) {
				return apperrors.NewUnauthorized("invalid admin secret")
			}
			return c.Next()
		}
		if err := m.authenticate(c); err != nil {
			return err
		}
		principal, _ := PrincipalFromContext(c)
		if principal.User.Role != domain.UserRoleAdmin {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}

// CheckAdminSecret compares secret against the configured bcrypt hash.
func CheckAdminSecret(secretHash []byte, secret string) bool {
	if len(secretHash) == 0 || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(secretHash, []byte(secret)) == nil
}
