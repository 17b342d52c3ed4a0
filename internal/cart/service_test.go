package cart

import (
	"fmt"
	"testing"

	"bitbites-backend/internal/database"
	"bitbites-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		FirstName:    "Test",
		LastName:     string(role),
		Email:        email,
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price string, stock int) *models.Product {
	t.Helper()

	category := &models.Category{Name: "Snacks " + name}
	require.NoError(t, db.Create(category).Error)

	product := &models.Product{
		Name:       name,
		CategoryID: category.ID,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) *models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return &p
}

func cartLines(t *testing.T, db *gorm.DB, orderID uint) []models.OrderLine {
	t.Helper()
	var lines []models.OrderLine
	require.NoError(t, db.Where("order_id = ?", orderID).Find(&lines).Error)
	return lines
}

func TestAddToCartCreatesOrderAndLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	product := seedProduct(t, db, "Chips", "2.50", 5)

	got, err := svc.AddToCart(user.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock)

	assert.Equal(t, 4, reloadProduct(t, db, product.ID).Stock)

	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, models.StatusCart, order.Status)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 1, order.Lines[0].Quantity)
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("2.50")))
	assert.True(t, order.Total.Equal(decimal.RequireFromString("2.50")), "total %s", order.Total)
}

func TestAddToCartIncrementsExistingLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	product := seedProduct(t, db, "Cola", "1.25", 10)

	_, err := svc.AddToCart(user.ID, product.ID)
	require.NoError(t, err)
	_, err = svc.AddToCart(user.ID, product.ID)
	require.NoError(t, err)

	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 2, order.Lines[0].Quantity)
	assert.Equal(t, 8, reloadProduct(t, db, product.ID).Stock)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("2.50")))
}

func TestAddToCartOutOfStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	product := seedProduct(t, db, "Rare", "9.99", 0)

	_, err := svc.AddToCart(user.ID, product.ID)
	require.ErrorIs(t, err, ErrOutOfStock)

	assert.Equal(t, 0, reloadProduct(t, db, product.ID).Stock)

	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	assert.Nil(t, order, "a failed add must not leave a cart behind")
}

func TestAddToCartUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)

	_, err := svc.AddToCart(user.ID, 12345)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPriceSnapshotSurvivesCatalogChange(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	product := seedProduct(t, db, "Candy", "1.00", 10)

	_, err := svc.AddToCart(user.ID, product.ID)
	require.NoError(t, err)

	// catalog price doubles after the line was opened
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", decimal.RequireFromString("2.00")).Error)

	_, err = svc.AddToCart(user.ID, product.ID)
	require.NoError(t, err)

	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.RequireFromString("1.00")),
		"unit price must stay at the add-time snapshot")
	assert.True(t, order.Total.Equal(decimal.RequireFromString("2.00")))
}

func TestStockRunsOutExactly(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	product := seedProduct(t, db, "Cookies", "3.00", 3)

	for i := 0; i < 3; i++ {
		_, err := svc.AddToCart(user.ID, product.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, 0, reloadProduct(t, db, product.ID).Stock)

	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 3, order.Lines[0].Quantity)

	// the fourth add fails and changes nothing
	_, err = svc.AddToCart(user.ID, product.ID)
	require.ErrorIs(t, err, ErrOutOfStock)

	order, err = svc.CartOrder(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, order.Lines[0].Quantity)
	assert.Equal(t, 0, reloadProduct(t, db, product.ID).Stock)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("9.00")))
}

func TestRemoveOneDecrementsQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	product := seedProduct(t, db, "Chips", "2.00", 5)

	_, err := svc.AddToCart(user.ID, product.ID)
	require.NoError(t, err)
	_, err = svc.AddToCart(user.ID, product.ID)
	require.NoError(t, err)

	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	lineID := order.Lines[0].ID

	got, err := svc.RemoveOne(user.ID, lineID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Stock, "stock credited exactly once")

	order, err = svc.CartOrder(user.ID)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, 1, order.Lines[0].Quantity)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("2.00")))
}

func TestRemoveLastUnitDeletesLineAndOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	product := seedProduct(t, db, "Chips", "2.00", 5)

	_, err := svc.AddToCart(user.ID, product.ID)
	require.NoError(t, err)

	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	orderID := order.ID
	lineID := order.Lines[0].ID

	got, err := svc.RemoveOne(user.ID, lineID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock, "stock credited on the delete branch too")

	assert.Empty(t, cartLines(t, db, orderID))

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error)
	assert.Zero(t, count, "an empty cart order must not persist")
}

func TestRemoveOneRejectsForeignLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	owner := seedUser(t, db, "owner@test", models.RoleClient)
	intruder := seedUser(t, db, "intruder@test", models.RoleClient)
	product := seedProduct(t, db, "Chips", "2.00", 5)

	_, err := svc.AddToCart(owner.ID, product.ID)
	require.NoError(t, err)

	order, err := svc.CartOrder(owner.ID)
	require.NoError(t, err)
	lineID := order.Lines[0].ID

	_, err = svc.RemoveOne(intruder.ID, lineID)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 4, reloadProduct(t, db, product.ID).Stock, "no stock credit on a rejected call")
}

func TestRemoveOneRejectsPlacedOrders(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	product := seedProduct(t, db, "Chips", "2.00", 5)

	_, err := svc.AddToCart(user.ID, product.ID)
	require.NoError(t, err)

	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	lineID := order.Lines[0].ID

	_, err = svc.Checkout(user.ID)
	require.NoError(t, err)

	_, err = svc.RemoveOne(user.ID, lineID)
	require.ErrorIs(t, err, ErrNotFound, "lines of a placed order are immutable")
}

func TestTotalTracksLineMutations(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	chips := seedProduct(t, db, "Chips", "2.50", 10)
	cola := seedProduct(t, db, "Cola", "1.25", 10)

	for i := 0; i < 2; i++ {
		_, err := svc.AddToCart(user.ID, chips.ID)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := svc.AddToCart(user.ID, cola.ID)
		require.NoError(t, err)
	}

	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)

	expected := decimal.Zero
	for i := range order.Lines {
		expected = expected.Add(order.Lines[i].Subtotal())
	}
	assert.True(t, order.Total.Equal(expected), "total %s, lines sum %s", order.Total, expected)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("8.75")))

	var colaLine models.OrderLine
	require.NoError(t, db.Where("order_id = ? AND product_id = ?", order.ID, cola.ID).First(&colaLine).Error)
	_, err = svc.RemoveOne(user.ID, colaLine.ID)
	require.NoError(t, err)

	order, err = svc.CartOrder(user.ID)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("7.50")))
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)

	_, err := svc.Checkout(user.ID)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutTransitionsToPending(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	product := seedProduct(t, db, "Chips", "2.00", 5)

	_, err := svc.AddToCart(user.ID, product.ID)
	require.NoError(t, err)

	order, err := svc.Checkout(user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, order.Status)

	// the cart slot is free again
	cartOrder, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	assert.Nil(t, cartOrder)

	// and there is no path back to cart
	_, err = svc.Checkout(user.ID)
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestDispatchStampsCashier(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	client := seedUser(t, db, "client@test", models.RoleClient)
	cashier := seedUser(t, db, "cashier@test", models.RoleCashier)
	product := seedProduct(t, db, "Chips", "2.00", 5)

	_, err := svc.AddToCart(client.ID, product.ID)
	require.NoError(t, err)
	placed, err := svc.Checkout(client.ID)
	require.NoError(t, err)

	delivered, err := svc.Dispatch(placed.ID, cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.CashierID)
	assert.Equal(t, cashier.ID, *delivered.CashierID)
}

func TestDispatchRejectsNonPending(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	client := seedUser(t, db, "client@test", models.RoleClient)
	cashier := seedUser(t, db, "cashier@test", models.RoleCashier)
	other := seedUser(t, db, "cashier2@test", models.RoleCashier)
	product := seedProduct(t, db, "Chips", "2.00", 5)

	_, err := svc.AddToCart(client.ID, product.ID)
	require.NoError(t, err)

	// still a cart: not dispatchable
	cartOrder, err := svc.CartOrder(client.ID)
	require.NoError(t, err)
	_, err = svc.Dispatch(cartOrder.ID, cashier.ID)
	require.ErrorIs(t, err, ErrNotPending)

	placed, err := svc.Checkout(client.ID)
	require.NoError(t, err)
	_, err = svc.Dispatch(placed.ID, cashier.ID)
	require.NoError(t, err)

	// a second dispatch must not re-stamp the cashier
	_, err = svc.Dispatch(placed.ID, other.ID)
	require.ErrorIs(t, err, ErrNotPending)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, placed.ID).Error)
	require.NotNil(t, reloaded.CashierID)
	assert.Equal(t, cashier.ID, *reloaded.CashierID)
}

func TestDispatchUnknownOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	cashier := seedUser(t, db, "cashier@test", models.RoleCashier)

	_, err := svc.Dispatch(999, cashier.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdjustStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	product := seedProduct(t, db, "Chips", "2.00", 5)

	got, err := svc.AdjustStock(product.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Stock)
	assert.Equal(t, 42, reloadProduct(t, db, product.ID).Stock)

	_, err = svc.AdjustStock(product.ID, -1)
	require.ErrorIs(t, err, ErrInvalidStock)
	assert.Equal(t, 42, reloadProduct(t, db, product.ID).Stock)

	_, err = svc.AdjustStock(999, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStockConservation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	alice := seedUser(t, db, "alice@test", models.RoleClient)
	bob := seedUser(t, db, "bob@test", models.RoleClient)
	product := seedProduct(t, db, "Chips", "2.00", 10)

	for i := 0; i < 3; i++ {
		_, err := svc.AddToCart(alice.ID, product.ID)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := svc.AddToCart(bob.ID, product.ID)
		require.NoError(t, err)
	}

	aliceOrder, err := svc.CartOrder(alice.ID)
	require.NoError(t, err)
	_, err = svc.RemoveOne(alice.ID, aliceOrder.Lines[0].ID)
	require.NoError(t, err)

	// stock + everything reserved across open carts equals the starting count
	stock := reloadProduct(t, db, product.ID).Stock
	var reserved int64
	require.NoError(t, db.Model(&models.OrderLine{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ?", product.ID).
		Scan(&reserved).Error)
	assert.Equal(t, 10, stock+int(reserved))
}

func TestDeleteProductCleansOpenCarts(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	chips := seedProduct(t, db, "Chips", "2.00", 5)
	cola := seedProduct(t, db, "Cola", "1.25", 5)

	_, err := svc.AddToCart(user.ID, chips.ID)
	require.NoError(t, err)
	_, err = svc.AddToCart(user.ID, chips.ID)
	require.NoError(t, err)
	_, err = svc.AddToCart(user.ID, cola.ID)
	require.NoError(t, err)

	_, err = svc.DeleteProduct(chips.ID)
	require.NoError(t, err)

	require.ErrorIs(t, db.First(&models.Product{}, chips.ID).Error, gorm.ErrRecordNotFound)

	// the cart keeps only the surviving product, with a matching total
	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, cola.ID, order.Lines[0].ProductID)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("1.25")), "total %s", order.Total)
}

func TestDeleteProductDropsEmptiedCart(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	chips := seedProduct(t, db, "Chips", "2.00", 5)

	_, err := svc.AddToCart(user.ID, chips.ID)
	require.NoError(t, err)

	_, err = svc.DeleteProduct(chips.ID)
	require.NoError(t, err)

	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)
	assert.Nil(t, order, "a cart emptied by the removal must not persist")

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Where("user_id = ?", user.ID).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestDeleteProductKeepsPlacedOrderTotal(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	chips := seedProduct(t, db, "Chips", "2.00", 5)

	_, err := svc.AddToCart(user.ID, chips.ID)
	require.NoError(t, err)
	placed, err := svc.Checkout(user.ID)
	require.NoError(t, err)

	_, err = svc.DeleteProduct(chips.ID)
	require.NoError(t, err)

	// the placed order survives with its stored total untouched
	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, placed.ID).Error)
	assert.Equal(t, models.StatusPending, reloaded.Status)
	assert.True(t, reloaded.Total.Equal(decimal.RequireFromString("2.00")), "total %s", reloaded.Total)
}

func TestDeleteProductUnknown(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.DeleteProduct(999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveOneSurvivesMissingProductRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	user := seedUser(t, db, "client@test", models.RoleClient)
	chips := seedProduct(t, db, "Chips", "2.00", 5)

	_, err := svc.AddToCart(user.ID, chips.ID)
	require.NoError(t, err)
	order, err := svc.CartOrder(user.ID)
	require.NoError(t, err)

	// the product row vanishes behind the service's back
	require.NoError(t, db.Delete(&models.Product{}, chips.ID).Error)

	_, err = svc.RemoveOne(user.ID, order.Lines[0].ID)
	require.NoError(t, err)

	order, err = svc.CartOrder(user.ID)
	require.NoError(t, err)
	assert.Nil(t, order, "the stranded line and its cart must be removable")
}
