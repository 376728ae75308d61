package router

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"zipline_manager/constants"
	"zipline_manager/handler"
	"zipline_manager/middleware"
	"zipline_manager/validate"
)

func SetupRoutes(app *fiber.App) {
	app.Get("/health", handler.Health)

	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1")

	v1.Get("/season", handler.GetToday)
	v1.Get("/calendar", validate.Month(), handler.GetCalendar)
	v1.Get("/calendar/:date", validate.Date(), handler.GetCalendarDay)
	v1.Get("/closures", handler.GetClosures)
	v1.Get("/prices", handler.GetProducts)
	v1.Post("/checkout", validate.Checkout(), handler.CreateCheckout)
	v1.Post("/stripe/webhook", handler.StripeWebhook)
	v1.Post("/contact", validate.Contact(), handler.SendContact)

	tickets := v1.Group("/tickets")
	tickets.Get("/session/:sessionId", handler.GetSessionTickets)
	tickets.Get("/session/:sessionId/pdf", handler.GetSessionTicketsPDF)
	tickets.Get("/:ticketId/qr", validate.TicketId(), handler.GetTicketQR)

	auth := v1.Group("/auth")
	auth.Post("/login", validate.Login(), handler.Login)
	auth.Post("/logout", handler.Logout)
	auth.Get("/me", middleware.Protected(), handler.Me)

	staff := v1.Group("/staff", middleware.Protected(), middleware.RequireRole(constants.ROLE_STAFF, constants.ROLE_ADMIN))
	staff.Get("/tickets/:ticketId", validate.TicketId(), handler.GetTicket)
	staff.Post("/tickets/:ticketId/validate", validate.TicketId(), handler.ValidateTicket)

	admin := v1.Group("/admin", middleware.Protected(), middleware.RequireRole(constants.ROLE_ADMIN))
	admin.Get("/tickets", validate.FilterTickets(), handler.GetTickets)
	admin.Get("/tickets/stats", handler.GetTicketStats)
	admin.Post("/tickets/gift", validate.CreateGiftTickets(), handler.CreateGiftTickets)
	admin.Get("/tickets/:ticketId/pdf", validate.TicketId(), handler.GetTicketPDF)
	admin.Get("/closures", handler.GetAdminClosures)
	admin.Put("/closures", validate.PublishClosures(), handler.PublishClosures)
	admin.Post("/closures/toggle", validate.ToggleClosure(), handler.ToggleClosure)
	admin.Use("/scans/ws", handler.UpgradeScanFeed)
	admin.Get("/scans/ws", websocket.New(handler.ScanFeedConnection))
}
