package rest

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// parseRangeBound принимает YYYY-MM-DD или RFC 3339. Дата без времени как конец
// диапазона означает конец этого дня.
func parseRangeBound(value string, end bool) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}

// GetAvailability GET /api/schedule/:slug?startDate=&endDate=
func (h *Handler) GetAvailability(c *fiber.Ctx) error {
	slug := c.Params("slug")

	start, okStart := parseRangeBound(c.Query("startDate"), false)
	end, okEnd := parseRangeBound(c.Query("endDate"), true)
	if !okStart || !okEnd {
		return ErrorWithDetails(c, fiber.StatusBadRequest, ReasonInvalidInput, "Invalid date range", map[string]string{
			"startDate": "YYYY-MM-DD or RFC 3339",
			"endDate":   "YYYY-MM-DD or RFC 3339",
		})
	}

	res, err := h.schedule.Availability(c.UserContext(), slug, start, end)
	if err != nil {
		return h.handleError(c, err)
	}

	return Success(c, "Available time slots", newAvailabilityResponse(res))
}

// BookMeeting POST /api/schedule/:slug
func (h *Handler) BookMeeting(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var req bookingRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, ReasonInvalidInput, "Invalid booking data")
	}
	if err := h.validate.Struct(req); err != nil {
		return ValidationError(c, err)
	}

	meeting, err := h.schedule.Book(c.UserContext(), req.toService(slug))
	if err != nil {
		return h.handleError(c, err)
	}

	h.logger.Info("Booking request completed",
		zap.String("slug", slug),
		zap.String("meeting_id", meeting.ID.String()))

	return SuccessWithCode(c, fiber.StatusCreated, "Meeting booked", bookingResponse{
		MeetingID: meeting.ID,
		StartTime: meeting.StartTime,
		EndTime:   meeting.EndTime,
	})
}
