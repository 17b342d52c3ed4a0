package invoice

import (
	"fmt"

	"bitbites-backend/internal/auth"
	"bitbites-backend/internal/database"
	"bitbites-backend/internal/flash"
	"bitbites-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GET /orders/:id/invoice
// Customers can only pull invoices for their own orders, and only once the
// order has actually been delivered.
func DownloadHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		orderID, err := c.ParamsInt("id")
		if err != nil || orderID <= 0 {
			return fiber.ErrNotFound
		}

		var order models.Order
		err = database.DB.Preload("User").Preload("Lines.Product").
			Where("id = ? AND user_id = ?", orderID, auth.CurrentUserID(c)).
			First(&order).Error
		if err != nil {
			return fiber.ErrNotFound
		}

		if order.Status != models.StatusDelivered {
			flash.Error(c, "The invoice is only available once the order has been delivered.")
			return c.Redirect("/orders", fiber.StatusSeeOther)
		}

		doc, err := Render(&order)
		if err != nil {
			zap.S().Errorw("invoice render failed", "order_id", order.ID, "error", err)
			return fiber.ErrInternalServerError
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("Invoice_BitBites_%d.pdf", order.ID)))
		return c.Send(doc)
	}
}
