package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"billing-backend/config"
	"billing-backend/controllers"
	"billing-backend/middlewares"
)

// New builds the Fiber app with the global middleware stack and all routes.
func New(cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(recover.New())
	app.Use(middlewares.RequestID())
	app.Use(middlewares.RequestLog())

	// ---- CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, " + middlewares.IdempotencyHeader + ", " + middlewares.RequestIDHeader,
		ExposeHeaders: controllers.TotalCountHeader + ", " + middlewares.RequestIDHeader,
	}))

	// ---- Global rate limiter (client IP keyed)
	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow,
		}))
	}

	Register(app)
	return app
}

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", controllers.Health)

	// Idempotency guard FIRST (not tied to request TX)
	api.Use(middlewares.Idempotency())

	// Then the per-request transaction (commits/rolls back)
	api.Use(middlewares.Tx())

	// Customers
	api.Get("/customers", controllers.GetCustomers)
	api.Get("/customers/:id", controllers.GetCustomer)
	api.Post("/customers", controllers.CreateCustomer)
	api.Put("/customers/:id", controllers.UpdateCustomer)
	api.Delete("/customers/:id", controllers.DeleteCustomer)

	// Products
	api.Get("/products", controllers.GetProducts)
	api.Get("/products/:id", controllers.GetProduct)
	api.Post("/products", controllers.CreateProduct)
	api.Put("/products/:id", controllers.UpdateProduct)
	api.Delete("/products/:id", controllers.DeleteProduct)

	// Invoices
	api.Get("/invoices", controllers.GetInvoices)
	api.Get("/invoices/:id", controllers.GetInvoice)
	api.Post("/invoices", controllers.CreateInvoice)
	api.Put("/invoices/:id", controllers.UpdateInvoice)
	api.Patch("/invoices/:id/mark-paid", controllers.MarkInvoicePaid)
	api.Get("/invoices/:id/pdf", controllers.GetInvoicePDF)
	api.Delete("/invoices/:id", controllers.DeleteInvoice)

	// Payments
	api.Get("/payments", controllers.GetPayments)
	api.Get("/payments/invoice/:invoiceId", controllers.GetInvoicePayments)
	api.Get("/payments/:id", controllers.GetPayment)
	api.Post("/payments", controllers.CreatePayment)
	api.Delete("/payments/:id", controllers.DeletePayment)
}
