package api

import (
	"os"
	"path/filepath"
	"time"

	"te-chatbot/docs"
	"te-chatbot/internal/api/handlers"
	"te-chatbot/pkg/auth"
	"te-chatbot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Chat     *handlers.ChatHandler
	Ticket   *handlers.TicketHandler
	Document *handlers.DocumentHandler
	Feedback *handlers.FeedbackHandler
	Admin    *handlers.AdminHandler
}

func SetupRouter(h Handlers, jwtManager *auth.JWTManager, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Importing docs registers the swagger spec through init().
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Static files (web interface)
	webStaticPath := findWebStaticPath(appLogger)
	if webStaticPath != "" {
		appLogger.Info("Serving static files", zap.String("path", webStaticPath))
		app.Static("/static", webStaticPath)
	} else {
		appLogger.Warn("Web static directory not found, static files will not be served")
	}

	app.Get("/", func(c *fiber.Ctx) error {
		if webStaticPath != "" {
			indexPath := filepath.Join(webStaticPath, "index.html")
			if fileExists(indexPath) {
				return c.SendFile(indexPath)
			}
		}
		return c.Redirect("/swagger/index.html")
	})

	// Public auth routes
	app.Post("/api/login", h.Auth.Login)
	app.Post("/api/logout", h.Auth.Logout)

	// Session-protected routes
	api := app.Group("/api", middleware.Session(jwtManager, appLogger))
	api.Post("/chat", h.Chat.Chat)
	api.Post("/analyze-ticket", h.Ticket.AnalyzeTicket)
	api.Post("/analyze-multiple-tickets", h.Ticket.AnalyzeMultipleTickets)
	api.Post("/ticket-preview", h.Ticket.TicketPreview)
	api.Get("/analysis-history", h.Ticket.AnalysisHistory)
	api.Post("/feedback", h.Feedback.Submit)
	api.Get("/te-status", h.Document.Status)
	api.Post("/load-te-documents", h.Document.LoadDocuments)
	api.Get("/view-excel-rules", h.Document.ExcelRules)
	api.Get("/view-word-policies", h.Document.WordPolicies)

	// Admin-only routes
	admin := api.Group("", middleware.AdminOnly())
	admin.Get("/logs", h.Admin.Logs)
	admin.Get("/logs-stats", h.Admin.LogsStats)
	admin.Get("/users", h.Admin.Users)
	admin.Get("/feedback-stats", h.Admin.FeedbackStats)

	return app
}

// findWebStaticPath locates the web/static directory relative to the
// working directory.
func findWebStaticPath(logger *zap.Logger) string {
	paths := []string{
		"./web/static",
		"web/static",
		"../web/static",
		"../../web/static",
	}

	for _, path := range paths {
		if fileExists(filepath.Join(path, "index.html")) {
			logger.Info("Found web static path", zap.String("path", path))
			return path
		}
	}

	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
