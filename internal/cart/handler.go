package cart

import (
	"errors"
	"fmt"

	"bitbites-backend/internal/auth"
	"bitbites-backend/internal/flash"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// POST /cart/add/:productID
func AddHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := c.ParamsInt("productID")
		if err != nil || productID <= 0 {
			return fiber.ErrNotFound
		}

		product, err := svc.AddToCart(auth.CurrentUserID(c), uint(productID))
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.ErrNotFound
		case errors.Is(err, ErrOutOfStock):
			flash.Error(c, "Sorry, this product is out of stock.")
			return c.Redirect("/catalog", fiber.StatusSeeOther)
		case err != nil:
			zap.S().Errorw("add to cart failed", "product_id", productID, "error", err)
			flash.Error(c, "Could not add the product to your cart.")
			return c.Redirect("/catalog", fiber.StatusSeeOther)
		}

		flash.Success(c, fmt.Sprintf("%s added to your cart. %d left in stock.", product.Name, product.Stock))
		return c.Redirect("/catalog", fiber.StatusSeeOther)
	}
}

// GET /cart
func ViewHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		order, err := svc.CartOrder(auth.CurrentUserID(c))
		if err != nil {
			zap.S().Errorw("load cart failed", "error", err)
			return fiber.ErrInternalServerError
		}
		return flash.Render(c, "cart", fiber.Map{"Order": order})
	}
}

// POST /cart/remove/:lineID
func RemoveHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lineID, err := c.ParamsInt("lineID")
		if err != nil || lineID <= 0 {
			return fiber.ErrNotFound
		}

		product, err := svc.RemoveOne(auth.CurrentUserID(c), uint(lineID))
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.ErrNotFound
		case err != nil:
			zap.S().Errorw("remove from cart failed", "line_id", lineID, "error", err)
			flash.Error(c, "Could not update your cart.")
			return c.Redirect("/cart", fiber.StatusSeeOther)
		}

		flash.Success(c, fmt.Sprintf("Removed one %s from your cart.", product.Name))
		return c.Redirect("/cart", fiber.StatusSeeOther)
	}
}

// POST /checkout
func CheckoutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := svc.Checkout(auth.CurrentUserID(c))
		switch {
		case errors.Is(err, ErrEmptyCart):
			flash.Warning(c, "Your cart is empty.")
			return c.Redirect("/", fiber.StatusSeeOther)
		case err != nil:
			zap.S().Errorw("checkout failed", "error", err)
			flash.Error(c, "Could not place your order.")
			return c.Redirect("/cart", fiber.StatusSeeOther)
		}

		flash.Success(c, "Order placed! Pick up your snacks at the register.")
		return c.Redirect("/orders", fiber.StatusSeeOther)
	}
}
