package orders

import (
	"errors"
	"fmt"

	"bitbites-backend/internal/auth"
	"bitbites-backend/internal/cart"
	"bitbites-backend/internal/database"
	"bitbites-backend/internal/flash"
	"bitbites-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GET /orders
// The customer's placed orders, newest first. The live cart is not an order
// yet and stays out of this list.
func MyOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var list []models.Order
		err := database.DB.Preload("Lines.Product").
			Where("user_id = ? AND status <> ?", auth.CurrentUserID(c), models.StatusCart).
			Order("created_at desc").
			Find(&list).Error
		if err != nil {
			zap.S().Errorw("list orders failed", "error", err)
			return fiber.ErrInternalServerError
		}
		return flash.Render(c, "my_orders", fiber.Map{"Orders": list})
	}
}

// GET /cashier
func CashierPanelHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pending []models.Order
		err := database.DB.Preload("User").Preload("Lines.Product").
			Where("status = ?", models.StatusPending).
			Order("created_at desc").
			Find(&pending).Error
		if err != nil {
			zap.S().Errorw("list pending orders failed", "error", err)
			return fiber.ErrInternalServerError
		}
		return flash.Render(c, "cashier_panel", fiber.Map{"Orders": pending})
	}
}

// POST /orders/:id/dispatch
func DispatchHandler(svc *cart.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, err := c.ParamsInt("id")
		if err != nil || orderID <= 0 {
			return fiber.ErrNotFound
		}

		order, err := svc.Dispatch(uint(orderID), auth.CurrentUserID(c))
		switch {
		case errors.Is(err, cart.ErrNotFound):
			return fiber.ErrNotFound
		case errors.Is(err, cart.ErrNotPending):
			flash.Warning(c, "That order has already been handled.")
			return c.Redirect("/cashier", fiber.StatusSeeOther)
		case err != nil:
			zap.S().Errorw("dispatch failed", "order_id", orderID, "error", err)
			flash.Error(c, "Could not dispatch the order.")
			return c.Redirect("/cashier", fiber.StatusSeeOther)
		}

		flash.Success(c, fmt.Sprintf("Order #%d delivered.", order.ID))
		return c.Redirect("/cashier", fiber.StatusSeeOther)
	}
}
