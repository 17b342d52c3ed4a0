package auth

import (
	"strings"

	"bitbites-backend/internal/config"
	"bitbites-backend/internal/database"
	"bitbites-backend/internal/flash"
	"bitbites-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type LoginRequest struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type RegisterRequest struct {
	FirstName string `form:"first_name" validate:"required,max=100"`
	LastName  string `form:"last_name" validate:"max=100"`
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required,min=8"`
}

// GET /
// Anonymous visitors get the public landing page; signed-in users land on
// their role's panel.
func HomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch CurrentRole(c) {
		case models.RoleAdmin:
			return flash.Render(c, "dashboard_admin", nil)
		case models.RoleCashier:
			return c.Redirect("/cashier", fiber.StatusSeeOther)
		case models.RoleWarehouse:
			return c.Redirect("/warehouse", fiber.StatusSeeOther)
		case models.RoleClient:
			return c.Redirect("/catalog", fiber.StatusSeeOther)
		default:
			return flash.Render(c, "home_public", nil)
		}
	}
}

// GET /login
func LoginPageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUserID(c) != 0 {
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		return flash.Render(c, "login", nil)
	}
}

// POST /login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			flash.Error(c, "Invalid login form")
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if err := validate.Struct(body); err != nil {
			flash.Error(c, "Email and password are required")
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			flash.Error(c, "Wrong email or password")
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			flash.Error(c, "Wrong email or password")
			return c.Redirect("/login", fiber.StatusSeeOther)
		}

		if err := signIn(c, cfg, &user); err != nil {
			zap.S().Errorw("sign in failed", "user_id", user.ID, "error", err)
			flash.Error(c, "Could not sign you in, try again")
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// GET /register
func RegisterPageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUserID(c) != 0 {
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		return flash.Render(c, "register", nil)
	}
}

// POST /register
// Self-registration always creates a client account; staff roles are handed
// out by an admin.
func RegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			flash.Error(c, "Invalid registration form")
			return c.Redirect("/register", fiber.StatusSeeOther)
		}
		body.FirstName = strings.TrimSpace(body.FirstName)
		body.LastName = strings.TrimSpace(body.LastName)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if err := validate.Struct(body); err != nil {
			flash.Error(c, "Check the form: a valid email and a password of at least 8 characters are required")
			return c.Redirect("/register", fiber.StatusSeeOther)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			zap.S().Errorw("password hash failed", "error", err)
			flash.Error(c, "Could not create your account, try again")
			return c.Redirect("/register", fiber.StatusSeeOther)
		}

		user := models.User{
			FirstName:    body.FirstName,
			LastName:     body.LastName,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleClient,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			flash.Error(c, "That email is already registered")
			return c.Redirect("/register", fiber.StatusSeeOther)
		}

		if err := signIn(c, cfg, &user); err != nil {
			zap.S().Errorw("sign in failed", "user_id", user.ID, "error", err)
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		flash.Success(c, "Welcome to BitBites!")
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// POST /logout
func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     CookieName,
			Value:    "",
			MaxAge:   -1,
			HTTPOnly: true,
			Path:     "/",
		})
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

func signIn(c *fiber.Ctx, cfg *config.Config, user *models.User) error {
	token, err := GenerateToken(cfg.JWTSecret, user)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		MaxAge:   24 * 60 * 60,
		HTTPOnly: true,
		Secure:   cfg.SessionSecure,
		SameSite: "Lax",
		Path:     "/",
	})
	return nil
}
