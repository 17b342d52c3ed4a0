package main

import (
	"bitbites-backend/internal/admin"
	"bitbites-backend/internal/auth"
	"bitbites-backend/internal/cart"
	"bitbites-backend/internal/catalog"
	"bitbites-backend/internal/config"
	"bitbites-backend/internal/database"
	"bitbites-backend/internal/flash"
	"bitbites-backend/internal/invoice"
	"bitbites-backend/internal/models"
	"bitbites-backend/internal/orders"
	"bitbites-backend/internal/warehouse"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err)
	}

	if err := database.Init(cfg); err != nil {
		sugar.Fatalw("database initialization error", "error", err)
	}

	engine := html.New(cfg.TemplateDir, ".html")

	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layouts/main",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				sugar.Errorw("unexpected error", "path", c.Path(), "error", err)
			}
			message := "Something went wrong."
			if code == fiber.StatusNotFound {
				message = "Page not found."
			}
			return c.Status(code).Render("error", fiber.Map{"Message": message})
		},
	})

	store := session.New(session.Config{
		CookieHTTPOnly: true,
		CookieSecure:   cfg.SessionSecure,
		CookieSameSite: "Lax",
	})
	flash.Init(store, auth.CtxUserNameKey, auth.CtxUserRoleKey)

	cartSvc := cart.NewService(database.DB)

	app.Use(auth.LoadUser(cfg))

	// public pages
	app.Get("/", auth.HomeHandler())
	app.Get("/login", auth.LoginPageHandler())
	app.Post("/login", auth.LoginHandler(cfg))
	app.Get("/register", auth.RegisterPageHandler())
	app.Post("/register", auth.RegisterHandler(cfg))
	app.Post("/logout", auth.LogoutHandler())

	private := app.Group("", auth.RequireAuth())

	// customer pages
	private.Get("/catalog", catalog.CatalogHandler())
	private.Post("/cart/add/:productID", cart.AddHandler(cartSvc))
	private.Get("/cart", cart.ViewHandler(cartSvc))
	private.Post("/cart/remove/:lineID", cart.RemoveHandler(cartSvc))
	private.Post("/checkout", cart.CheckoutHandler(cartSvc))
	private.Get("/orders", orders.MyOrdersHandler())
	private.Get("/orders/:id/invoice", invoice.DownloadHandler())

	// cashier pages
	cashierRoutes := private.Group("", auth.RequireRole(models.RoleCashier, models.RoleAdmin))
	cashierRoutes.Get("/cashier", orders.CashierPanelHandler())
	cashierRoutes.Post("/orders/:id/dispatch", orders.DispatchHandler(cartSvc))

	// warehouse pages
	warehouseRoutes := private.Group("", auth.RequireRole(models.RoleWarehouse, models.RoleAdmin))
	warehouseRoutes.Get("/warehouse", warehouse.PanelHandler())
	warehouseRoutes.Post("/products/:id/stock", warehouse.UpdateStockHandler(cartSvc))
	warehouseRoutes.Post("/products/:id/delete", warehouse.DeleteProductHandler(cartSvc))

	// admin pages
	adminRoutes := private.Group("", auth.RequireRole(models.RoleAdmin))
	adminRoutes.Get("/staff/new", admin.StaffFormHandler())
	adminRoutes.Post("/staff/new", admin.CreateStaffHandler())
	adminRoutes.Get("/products/new", catalog.ProductFormHandler())
	adminRoutes.Post("/products/new", catalog.CreateProductHandler())
	adminRoutes.Get("/categories/new", catalog.CategoryFormHandler())
	adminRoutes.Post("/categories/new", catalog.CreateCategoryHandler())
	adminRoutes.Get("/history", admin.HistoryHandler())
	adminRoutes.Get("/history/export", admin.ExportHistoryHandler())
	adminRoutes.Get("/customers", admin.CustomersHandler())
	adminRoutes.Get("/customers/:id/history", admin.CustomerHistoryHandler())

	sugar.Infow("starting server", "port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		sugar.Fatalw("server error", "error", err)
	}
}
