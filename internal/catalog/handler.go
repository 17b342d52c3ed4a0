package catalog

import (
	"strings"

	"bitbites-backend/internal/database"
	"bitbites-backend/internal/flash"
	"bitbites-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var validate = validator.New()

type CreateProductRequest struct {
	CategoryID  uint   `form:"category_id" validate:"required"`
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description"`
	Price       string `form:"price" validate:"required"`
	Stock       int    `form:"stock" validate:"gte=0"`
}

type CreateCategoryRequest struct {
	Name string `form:"name" validate:"required,max=100"`
}

// GET /catalog
func CatalogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		err := database.DB.
			Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("products.name asc") }).
			Order("name asc").
			Find(&categories).Error
		if err != nil {
			zap.S().Errorw("list catalog failed", "error", err)
			return fiber.ErrInternalServerError
		}
		return flash.Render(c, "catalog", fiber.Map{"Categories": categories})
	}
}

// GET /products/new (admin)
func ProductFormHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := database.DB.Order("name asc").Find(&categories).Error; err != nil {
			zap.S().Errorw("list categories failed", "error", err)
			return fiber.ErrInternalServerError
		}
		return flash.Render(c, "product_new", fiber.Map{"Categories": categories})
	}
}

// POST /products/new (admin)
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			flash.Error(c, "Invalid product form")
			return c.Redirect("/products/new", fiber.StatusSeeOther)
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Description = strings.TrimSpace(body.Description)

		if err := validate.Struct(body); err != nil {
			flash.Error(c, "Name, category and price are required; stock cannot be negative")
			return c.Redirect("/products/new", fiber.StatusSeeOther)
		}

		price, err := decimal.NewFromString(body.Price)
		if err != nil || price.IsNegative() {
			flash.Error(c, "Price must be a non-negative number")
			return c.Redirect("/products/new", fiber.StatusSeeOther)
		}

		var category models.Category
		if err := database.DB.First(&category, body.CategoryID).Error; err != nil {
			flash.Error(c, "Unknown category")
			return c.Redirect("/products/new", fiber.StatusSeeOther)
		}

		product := models.Product{
			CategoryID:  category.ID,
			Name:        body.Name,
			Description: body.Description,
			Price:       price,
			Stock:       body.Stock,
		}
		if err := database.DB.Create(&product).Error; err != nil {
			zap.S().Errorw("create product failed", "error", err)
			flash.Error(c, "Could not create the product")
			return c.Redirect("/products/new", fiber.StatusSeeOther)
		}

		flash.Success(c, "Product added to the catalog")
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// GET /categories/new (admin)
func CategoryFormHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return flash.Render(c, "category_new", nil)
	}
}

// POST /categories/new (admin)
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			flash.Error(c, "Invalid category form")
			return c.Redirect("/categories/new", fiber.StatusSeeOther)
		}
		body.Name = strings.TrimSpace(body.Name)

		if err := validate.Struct(body); err != nil {
			flash.Error(c, "Category name is required")
			return c.Redirect("/categories/new", fiber.StatusSeeOther)
		}

		category := models.Category{Name: body.Name}
		if err := database.DB.Create(&category).Error; err != nil {
			flash.Error(c, "That category already exists")
			return c.Redirect("/categories/new", fiber.StatusSeeOther)
		}

		flash.Success(c, "Category created")
		return c.Redirect("/products/new", fiber.StatusSeeOther)
	}
}
