package rest

import (
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (h *Handler) idParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, service.ErrNotFound
	}
	return id, nil
}

// ListWindows GET /api/windows
func (h *Handler) ListWindows(c *fiber.Ctx) error {
	windows, err := h.windows.List(c.UserContext(), advisorID(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Scheduling windows", windows)
}

// CreateWindow POST /api/windows
func (h *Handler) CreateWindow(c *fiber.Ctx) error {
	var req windowRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, ReasonInvalidInput, "Invalid window data: "+err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return ValidationError(c, err)
	}

	window, err := h.windows.Create(c.UserContext(), advisorID(c), req.toService())
	if err != nil {
		return h.handleError(c, err)
	}
	return SuccessWithCode(c, fiber.StatusCreated, "Scheduling window created", window)
}

// GetWindow GET /api/windows/:id
func (h *Handler) GetWindow(c *fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.handleError(c, err)
	}
	window, err := h.windows.Get(c.UserContext(), advisorID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Scheduling window", window)
}

// UpdateWindow PATCH /api/windows/:id
func (h *Handler) UpdateWindow(c *fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	var req windowRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, ReasonInvalidInput, "Invalid window data: "+err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return ValidationError(c, err)
	}

	window, err := h.windows.Update(c.UserContext(), advisorID(c), id, req.toService())
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Scheduling window updated", window)
}

// DeleteWindow DELETE /api/windows/:id
func (h *Handler) DeleteWindow(c *fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.handleError(c, err)
	}
	if err := h.windows.Delete(c.UserContext(), advisorID(c), id); err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Scheduling window deleted", nil)
}

// ListLinks GET /api/links
func (h *Handler) ListLinks(c *fiber.Ctx) error {
	links, err := h.links.List(c.UserContext(), advisorID(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Scheduling links", links)
}

// CreateLink POST /api/links
func (h *Handler) CreateLink(c *fiber.Ctx) error {
	var req linkRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, ReasonInvalidInput, "Invalid link data")
	}
	if err := h.validate.Struct(req); err != nil {
		return ValidationError(c, err)
	}

	link, err := h.links.Create(c.UserContext(), advisorID(c), req.toService())
	if err != nil {
		return h.handleError(c, err)
	}
	return SuccessWithCode(c, fiber.StatusCreated, "Scheduling link created", link)
}

// GetLink GET /api/links/:id
func (h *Handler) GetLink(c *fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.handleError(c, err)
	}
	link, err := h.links.Get(c.UserContext(), advisorID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Scheduling link", link)
}

// UpdateLink PATCH /api/links/:id
func (h *Handler) UpdateLink(c *fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.handleError(c, err)
	}

	var req linkRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, ReasonInvalidInput, "Invalid link data")
	}
	if err := h.validate.Struct(req); err != nil {
		return ValidationError(c, err)
	}

	link, err := h.links.Update(c.UserContext(), advisorID(c), id, req.toService())
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Scheduling link updated", link)
}

// DeleteLink DELETE /api/links/:id
func (h *Handler) DeleteLink(c *fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.handleError(c, err)
	}
	deactivated, err := h.links.Delete(c.UserContext(), advisorID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	if deactivated {
		return Success(c, "Scheduling link has meetings and was deactivated", fiber.Map{"deactivated": true})
	}
	return Success(c, "Scheduling link deleted", fiber.Map{"deactivated": false})
}

// UpcomingMeetings GET /api/meetings/upcoming
func (h *Handler) UpcomingMeetings(c *fiber.Ctx) error {
	meetings, err := h.meetings.Upcoming(c.UserContext(), advisorID(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Upcoming meetings", meetings)
}

// PastMeetings GET /api/meetings/past
func (h *Handler) PastMeetings(c *fiber.Ctx) error {
	meetings, err := h.meetings.Past(c.UserContext(), advisorID(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Past meetings", meetings)
}

// GetMeeting GET /api/meetings/:id
func (h *Handler) GetMeeting(c *fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.handleError(c, err)
	}
	meeting, err := h.meetings.Get(c.UserContext(), advisorID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Meeting", meeting)
}

// CancelMeeting POST /api/meetings/:id/cancel
func (h *Handler) CancelMeeting(c *fiber.Ctx) error {
	id, err := h.idParam(c)
	if err != nil {
		return h.handleError(c, err)
	}
	meeting, err := h.meetings.Cancel(c.UserContext(), advisorID(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Meeting cancelled", meeting)
}

// BindTelegram PUT /api/advisor/telegram
func (h *Handler) BindTelegram(c *fiber.Ctx) error {
	var req telegramRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, ReasonInvalidInput, "Invalid telegram data")
	}
	if err := h.advisors.BindTelegram(c.UserContext(), advisorID(c), req.ChatID); err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Telegram chat updated", fiber.Map{"chatId": req.ChatID})
}

// DashboardStats GET /api/dashboard/stats
func (h *Handler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.dashboard.Stats(c.UserContext(), advisorID(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Dashboard stats", stats)
}

// CalendarAccounts GET /api/calendar/accounts
func (h *Handler) CalendarAccounts(c *fiber.Ctx) error {
	accounts, err := h.dashboard.CalendarAccounts(c.UserContext(), advisorID(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return Success(c, "Calendar accounts", fiber.Map{"accounts": accounts})
}
