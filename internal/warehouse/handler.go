package warehouse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bitbites-backend/internal/cart"
	"bitbites-backend/internal/database"
	"bitbites-backend/internal/flash"
	"bitbites-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GET /warehouse
// Lowest stock first so the next thing to restock is at the top.
func PanelHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Preload("Category").Order("stock asc").Find(&products).Error; err != nil {
			zap.S().Errorw("list products failed", "error", err)
			return fiber.ErrInternalServerError
		}
		return flash.Render(c, "warehouse_panel", fiber.Map{"Products": products})
	}
}

// POST /products/:id/stock
// A missing or non-numeric stock value is a silent no-op: the panel reloads
// unchanged rather than erroring on a half-filled form.
func UpdateStockHandler(svc *cart.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := c.ParamsInt("id")
		if err != nil || productID <= 0 {
			return fiber.ErrNotFound
		}

		raw := strings.TrimSpace(c.FormValue("stock"))
		if raw == "" {
			return c.Redirect("/warehouse", fiber.StatusSeeOther)
		}
		newStock, err := strconv.Atoi(raw)
		if err != nil {
			return c.Redirect("/warehouse", fiber.StatusSeeOther)
		}

		product, err := svc.AdjustStock(uint(productID), newStock)
		switch {
		case errors.Is(err, cart.ErrNotFound):
			return fiber.ErrNotFound
		case errors.Is(err, cart.ErrInvalidStock):
			return c.Redirect("/warehouse", fiber.StatusSeeOther)
		case err != nil:
			zap.S().Errorw("adjust stock failed", "product_id", productID, "error", err)
			flash.Error(c, "Could not update the stock")
			return c.Redirect("/warehouse", fiber.StatusSeeOther)
		}

		flash.Success(c, fmt.Sprintf("Stock of %s set to %d", product.Name, product.Stock))
		return c.Redirect("/warehouse", fiber.StatusSeeOther)
	}
}

// POST /products/:id/delete
// Removal goes through the cart service so lines referencing the product are
// cleaned out of open carts in the same transaction.
func DeleteProductHandler(svc *cart.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := c.ParamsInt("id")
		if err != nil || productID <= 0 {
			return fiber.ErrNotFound
		}

		product, err := svc.DeleteProduct(uint(productID))
		switch {
		case errors.Is(err, cart.ErrNotFound):
			return fiber.ErrNotFound
		case err != nil:
			zap.S().Errorw("delete product failed", "product_id", productID, "error", err)
			flash.Error(c, "Could not delete the product")
			return c.Redirect("/warehouse", fiber.StatusSeeOther)
		}

		flash.Success(c, fmt.Sprintf("Product %q deleted", product.Name))
		return c.Redirect("/warehouse", fiber.StatusSeeOther)
	}
}
