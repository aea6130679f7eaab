package rest

import (
	"errors"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Машиночитаемые причины ошибок
const (
	ReasonInvalidInput        = "invalid-input"
	ReasonNotFound            = "not-found"
	ReasonInactive            = "inactive"
	ReasonExpired             = "expired"
	ReasonUsageLimitReached   = "usage-limit-reached"
	ReasonSlotUnavailable     = "slot-unavailable"
	ReasonSlugTaken           = "slug-taken"
	ReasonInvalidTransition   = "invalid-transition"
	ReasonCalendarUnavailable = "calendar-unavailable"
	ReasonUnauthorized        = "unauthorized"
	ReasonInternal            = "internal-failure"
)

// Envelope единый формат ответа API
type Envelope struct {
	Status  string            `json:"status"`
	Reason  string            `json:"reason,omitempty"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Success ответ 200
func Success(c *fiber.Ctx, message string, data any) error {
	return SuccessWithCode(c, fiber.StatusOK, message, data)
}

// SuccessWithCode успешный ответ с произвольным кодом
func SuccessWithCode(c *fiber.Ctx, code int, message string, data any) error {
	return c.Status(code).JSON(Envelope{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// Error ответ об ошибке с причиной
func Error(c *fiber.Ctx, code int, reason, message string) error {
	return c.Status(code).JSON(Envelope{
		Status:  "error",
		Reason:  reason,
		Message: message,
	})
}

// ErrorWithDetails ошибка с ошибками по полям
func ErrorWithDetails(c *fiber.Ctx, code int, reason, message string, fields map[string]string) error {
	return c.Status(code).JSON(Envelope{
		Status:  "error",
		Reason:  reason,
		Message: message,
		Errors:  fields,
	})
}

// ValidationError ошибки validator.v10 в ответ 400
func ValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return Error(c, fiber.StatusBadRequest, ReasonInvalidInput, "Invalid input")
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return ErrorWithDetails(c, fiber.StatusBadRequest, ReasonInvalidInput, "Validation failed", fields)
}

// handleError переводит ошибку сервиса в HTTP-статус и причину
func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	var (
		validation *service.ValidationError
		linkErr    *service.LinkInvalidError
	)

	switch {
	case errors.As(err, &validation):
		return ErrorWithDetails(c, fiber.StatusBadRequest, ReasonInvalidInput, "Validation failed", validation.FieldErrors)
	case errors.As(err, &linkErr):
		switch linkErr.Reason {
		case model.LinkNotFound:
			return Error(c, fiber.StatusNotFound, ReasonNotFound, "Scheduling link not found")
		case model.LinkInactive:
			return Error(c, fiber.StatusGone, ReasonInactive, "Scheduling link is inactive")
		case model.LinkExpired:
			return Error(c, fiber.StatusGone, ReasonExpired, "Scheduling link has expired")
		case model.LinkUsageLimitReached:
			return Error(c, fiber.StatusConflict, ReasonUsageLimitReached, "Scheduling link usage limit reached")
		}
	case errors.Is(err, service.ErrNotFound):
		return Error(c, fiber.StatusNotFound, ReasonNotFound, "Not found")
	case errors.Is(err, service.ErrSlotUnavailable):
		return Error(c, fiber.StatusConflict, ReasonSlotUnavailable, "The selected time slot is no longer available")
	case errors.Is(err, service.ErrSlugTaken):
		return Error(c, fiber.StatusConflict, ReasonSlugTaken, "Slug is already taken")
	case errors.Is(err, service.ErrInvalidTransition):
		return Error(c, fiber.StatusConflict, ReasonInvalidTransition, "Meeting is not scheduled")
	case errors.Is(err, service.ErrBusyProvider):
		h.logger.Error("Calendar provider unavailable",
			zap.String("path", c.Path()),
			zap.Error(err))
		return Error(c, fiber.StatusServiceUnavailable, ReasonCalendarUnavailable, "Calendar is temporarily unavailable")
	}

	h.logger.Error("Request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return Error(c, fiber.StatusInternalServerError, ReasonInternal, "Internal server error")
}
