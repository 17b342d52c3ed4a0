package auth

import (
	"bitbites-backend/internal/config"
	"bitbites-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CookieName = "bitbites_token"

	CtxUserIDKey    = "user_id"
	CtxUserEmailKey = "user_email"
	CtxUserNameKey  = "user_name"
	CtxUserRoleKey  = "user_role"
)

// LoadUser parses the auth cookie when present and populates the request
// locals. It never rejects: public pages use the same locals to adapt what
// they show.
func LoadUser(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Cookies(CookieName)
		if tokenStr == "" {
			return c.Next()
		}

		claims, err := ParseToken(cfg.JWTSecret, tokenStr)
		if err != nil {
			// expired or tampered cookie, drop it
			c.ClearCookie(CookieName)
			return c.Next()
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserEmailKey, claims.Email)
		c.Locals(CtxUserNameKey, claims.Name)
		c.Locals(CtxUserRoleKey, claims.Role)
		return c.Next()
	}
}

// RequireAuth redirects anonymous visitors to the login page.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(CtxUserIDKey).(uint); !ok {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// RequireRole gates a route to the given roles. Everyone else is sent home
// without an error message.
func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return c.Redirect("/", fiber.StatusSeeOther)
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// CurrentUserID returns the signed-in user's id. The zero value means the
// request is anonymous; routes behind RequireAuth never see that.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(CtxUserIDKey).(uint)
	return id
}

func CurrentRole(c *fiber.Ctx) models.UserRole {
	role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)
	return role
}
