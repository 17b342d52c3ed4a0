package admin

import (
	"strings"

	"bitbites-backend/internal/database"
	"bitbites-backend/internal/flash"
	"bitbites-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type CreateStaffRequest struct {
	FirstName string `form:"first_name" validate:"required,max=100"`
	LastName  string `form:"last_name" validate:"max=100"`
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required,min=8"`
	Role      string `form:"role" validate:"required,oneof=cashier warehouse admin"`
}

// GET /staff/new
func StaffFormHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return flash.Render(c, "staff_new", nil)
	}
}

// POST /staff/new
// Admin-only; this is the sole way a cashier, warehouse or admin account
// comes into existence.
func CreateStaffHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStaffRequest
		if err := c.BodyParser(&body); err != nil {
			flash.Error(c, "Invalid staff form")
			return c.Redirect("/staff/new", fiber.StatusSeeOther)
		}
		body.FirstName = strings.TrimSpace(body.FirstName)
		body.LastName = strings.TrimSpace(body.LastName)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		if err := validate.Struct(body); err != nil {
			flash.Error(c, "Check the form: name, a valid email, a password of at least 8 characters and a staff role are required")
			return c.Redirect("/staff/new", fiber.StatusSeeOther)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			zap.S().Errorw("password hash failed", "error", err)
			flash.Error(c, "Could not create the account")
			return c.Redirect("/staff/new", fiber.StatusSeeOther)
		}

		user := models.User{
			FirstName:    body.FirstName,
			LastName:     body.LastName,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.UserRole(body.Role),
		}
		if err := database.DB.Create(&user).Error; err != nil {
			flash.Error(c, "That email is already registered")
			return c.Redirect("/staff/new", fiber.StatusSeeOther)
		}

		flash.Success(c, "Employee account created")
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// GET /history
// Every placed order in the store, newest first.
func HistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := placedOrders(0)
		if err != nil {
			zap.S().Errorw("list order history failed", "error", err)
			return fiber.ErrInternalServerError
		}
		return flash.Render(c, "history", fiber.Map{"Orders": orders})
	}
}

// GET /customers
func CustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customers []models.User
		err := database.DB.Where("role = ?", models.RoleClient).Order("first_name asc").Find(&customers).Error
		if err != nil {
			zap.S().Errorw("list customers failed", "error", err)
			return fiber.ErrInternalServerError
		}
		return flash.Render(c, "customers", fiber.Map{"Customers": customers})
	}
}

// GET /customers/:id/history
func CustomerHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		customerID, err := c.ParamsInt("id")
		if err != nil || customerID <= 0 {
			return fiber.ErrNotFound
		}

		var customer models.User
		if err := database.DB.First(&customer, customerID).Error; err != nil {
			return fiber.ErrNotFound
		}

		orders, err := placedOrders(customer.ID)
		if err != nil {
			zap.S().Errorw("list customer history failed", "customer_id", customerID, "error", err)
			return fiber.ErrInternalServerError
		}
		return flash.Render(c, "customer_history", fiber.Map{
			"Customer": &customer,
			"Orders":   orders,
		})
	}
}

// placedOrders returns non-cart orders newest first, optionally limited to
// one user.
func placedOrders(userID uint) ([]models.Order, error) {
	q := database.DB.Preload("User").Preload("Cashier").Preload("Lines.Product").
		Where("status <> ?", models.StatusCart).
		Order("created_at desc")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
