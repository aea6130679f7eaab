package rest

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// NewApp создаёт fiber-приложение со всеми маршрутами
func NewApp(h *Handler, jwtSecret string, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "advisor-scheduler",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				reason := ReasonInternal
				if fe.Code == fiber.StatusNotFound {
					reason = ReasonNotFound
				} else if fe.Code < fiber.StatusInternalServerError {
					reason = ReasonInvalidInput
				}
				return Error(c, fe.Code, reason, fe.Message)
			}
			logger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
			return Error(c, fiber.StatusInternalServerError, ReasonInternal, "Internal server error")
		},
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return Success(c, "ok", nil)
	})

	api := app.Group("/api")

	schedule := api.Group("/schedule")
	schedule.Get("/:slug", h.GetAvailability)
	schedule.Post("/:slug", h.BookMeeting)

	auth := h.JWTMiddleware(jwtSecret)

	windows := api.Group("/windows", auth)
	windows.Get("/", h.ListWindows)
	windows.Post("/", h.CreateWindow)
	windows.Get("/:id", h.GetWindow)
	windows.Patch("/:id", h.UpdateWindow)
	windows.Delete("/:id", h.DeleteWindow)

	links := api.Group("/links", auth)
	links.Get("/", h.ListLinks)
	links.Post("/", h.CreateLink)
	links.Get("/:id", h.GetLink)
	links.Patch("/:id", h.UpdateLink)
	links.Delete("/:id", h.DeleteLink)

	meetings := api.Group("/meetings", auth)
	meetings.Get("/upcoming", h.UpcomingMeetings)
	meetings.Get("/past", h.PastMeetings)
	meetings.Get("/:id", h.GetMeeting)
	meetings.Post("/:id/cancel", h.CancelMeeting)

	api.Put("/advisor/telegram", auth, h.BindTelegram)
	api.Get("/dashboard/stats", auth, h.DashboardStats)
	api.Get("/calendar/accounts", auth, h.CalendarAccounts)

	return app
}
