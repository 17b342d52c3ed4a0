// Package cart implements the order lifecycle: the per-user cart order, its
// lines, the stock bookkeeping tied to them, and the status transitions
// cart -> pending -> delivered.
package cart

import (
	"errors"
	"fmt"

	"bitbites-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOutOfStock   = errors.New("product is out of stock")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrNotFound     = errors.New("not found")
	ErrNotPending   = errors.New("order is not pending")
	ErrInvalidStock = errors.New("invalid stock value")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// AddToCart puts one unit of the product into the user's cart. Stock is
// debited at add time, so cart contents immediately reduce catalog
// availability for everyone. Returns the product as it looks after the
// debit.
func (s *Service) AddToCart(userID, productID uint) (*models.Product, error) {
	var product models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if product.Stock <= 0 {
			return ErrOutOfStock
		}

		order, err := findOrCreateCartOrder(tx, userID)
		if err != nil {
			return err
		}

		line, created, err := findOrCreateLine(tx, order.ID, &product)
		if err != nil {
			return err
		}

		// Guarded in-place decrement: two concurrent adds cannot both read
		// the same pre-decrement value, and the guard catches the race where
		// the last unit was taken after the read above.
		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock > 0", product.ID).
			UpdateColumn("stock", gorm.Expr("stock - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOutOfStock
		}
		product.Stock--

		if !created {
			line.Quantity++
			if err := tx.Save(line).Error; err != nil {
				return err
			}
		}

		return recalcTotal(tx, order.ID)
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// RemoveOne takes a single unit off a cart line and credits the product's
// stock back. When the last unit of a line goes, the line goes; when the
// last line of the cart goes, the cart order goes with it.
func (s *Service) RemoveOne(userID, lineID uint) (*models.Product, error) {
	var product models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var line models.OrderLine
		if err := tx.First(&line, lineID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var order models.Order
		if err := tx.First(&order, line.OrderID).Error; err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		// lines of someone else's cart, or of an already placed order, are
		// out of reach
		if order.UserID != userID || order.Status != models.StatusCart {
			return ErrNotFound
		}

		// the stock credit happens exactly once per call, whichever branch
		// below runs; this mirrors the debit in AddToCart
		if err := tx.Model(&models.Product{}).
			Where("id = ?", line.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + 1")).Error; err != nil {
			return err
		}

		if line.Quantity > 1 {
			line.Quantity--
			if err := tx.Save(&line).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Delete(&line).Error; err != nil {
				return err
			}
		}

		// a line can outlive its product only when rows were deleted behind
		// the service's back; the removal must still go through
		if err := tx.First(&product, line.ProductID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load product: %w", err)
		}

		var remaining int64
		if err := tx.Model(&models.OrderLine{}).Where("order_id = ?", order.ID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			// an empty cart order must not persist
			return tx.Delete(&order).Error
		}

		return recalcTotal(tx, order.ID)
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Checkout turns the user's cart into a pending order. The total is already
// current because every line mutation recomputes it.
func (s *Service) Checkout(userID uint) (*models.Order, error) {
	var order models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND status = ?", userID, models.StatusCart).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}

		var lines int64
		if err := tx.Model(&models.OrderLine{}).Where("order_id = ?", order.ID).Count(&lines).Error; err != nil {
			return err
		}
		if lines == 0 {
			return ErrEmptyCart
		}

		order.Status = models.StatusPending
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Dispatch hands a pending order over to the customer and stamps the cashier
// who did it. Anything but a pending order is rejected, so a second dispatch
// of the same order fails instead of silently re-stamping the cashier.
func (s *Service) Dispatch(orderID, cashierID uint) (*models.Order, error) {
	var order models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if order.Status != models.StatusPending {
			return ErrNotPending
		}

		order.Status = models.StatusDelivered
		order.CashierID = &cashierID
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AdjustStock overwrites a product's stock count. This is the warehouse
// correction path: it deliberately does not reconcile against units sitting
// in open carts, a known limitation of the stock model.
func (s *Service) AdjustStock(productID uint, newStock int) (*models.Product, error) {
	if newStock < 0 {
		return nil, ErrInvalidStock
	}

	var product models.Product
	if err := s.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	product.Stock = newStock
	if err := s.db.Save(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product from the catalog together with every order
// line that references it, so no cart is left holding a line without a
// product behind it. Open carts that held the product get their totals
// recomputed, and a cart emptied by the removal is dropped. Lines of placed
// orders go too, but their stored totals stay untouched.
func (s *Service) DeleteProduct(productID uint) (*models.Product, error) {
	var product models.Product

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		// carts holding this product, collected before their lines go
		var cartIDs []uint
		if err := tx.Model(&models.OrderLine{}).
			Joins("JOIN orders ON orders.id = order_lines.order_id").
			Where("order_lines.product_id = ? AND orders.status = ?", productID, models.StatusCart).
			Pluck("order_lines.order_id", &cartIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("product_id = ?", productID).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}

		for _, orderID := range cartIDs {
			var remaining int64
			if err := tx.Model(&models.OrderLine{}).Where("order_id = ?", orderID).Count(&remaining).Error; err != nil {
				return err
			}
			if remaining == 0 {
				if err := tx.Delete(&models.Order{}, orderID).Error; err != nil {
					return err
				}
				continue
			}
			if err := recalcTotal(tx, orderID); err != nil {
				return err
			}
		}

		return tx.Delete(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CartOrder loads the user's current cart with lines and products, or nil
// when there is none.
func (s *Service) CartOrder(userID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Lines.Product").
		Where("user_id = ? AND status = ?", userID, models.StatusCart).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// findOrCreateCartOrder is an explicit find-then-create so the creation
// branch stays separate from the mutation path.
func findOrCreateCartOrder(tx *gorm.DB, userID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Where("user_id = ? AND status = ?", userID, models.StatusCart).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		order = models.Order{UserID: userID, Status: models.StatusCart, Total: decimal.Zero}
		if err := tx.Create(&order).Error; err != nil {
			return nil, fmt.Errorf("create cart order: %w", err)
		}
		return &order, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// findOrCreateLine seeds the price snapshot only on the create branch; an
// existing line keeps the price it was opened with.
func findOrCreateLine(tx *gorm.DB, orderID uint, product *models.Product) (*models.OrderLine, bool, error) {
	var line models.OrderLine
	err := tx.Where("order_id = ? AND product_id = ?", orderID, product.ID).First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		line = models.OrderLine{
			OrderID:   orderID,
			ProductID: product.ID,
			Quantity:  1,
			UnitPrice: product.Price,
		}
		if err := tx.Create(&line).Error; err != nil {
			return nil, false, fmt.Errorf("create order line: %w", err)
		}
		return &line, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &line, false, nil
}

func recalcTotal(tx *gorm.DB, orderID uint) error {
	var lines []models.OrderLine
	if err := tx.Where("order_id = ?", orderID).Find(&lines).Error; err != nil {
		return err
	}

	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].Subtotal())
	}

	return tx.Model(&models.Order{}).Where("id = ?", orderID).Update("total", total).Error
}
