package rest

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleUsecase публичные операции по ссылке
type ScheduleUsecase interface {
	Availability(ctx context.Context, slug string, rangeStart, rangeEnd time.Time) (*service.AvailabilityResult, error)
	Book(ctx context.Context, req service.BookingRequest) (*model.Meeting, error)
}

// WindowUsecase управление окнами расписания
type WindowUsecase interface {
	Create(ctx context.Context, advisorID uuid.UUID, in service.WindowInput) (*model.SchedulingWindow, error)
	List(ctx context.Context, advisorID uuid.UUID) ([]*model.SchedulingWindow, error)
	Get(ctx context.Context, advisorID, windowID uuid.UUID) (*model.SchedulingWindow, error)
	Update(ctx context.Context, advisorID, windowID uuid.UUID, in service.WindowInput) (*model.SchedulingWindow, error)
	Delete(ctx context.Context, advisorID, windowID uuid.UUID) error
}

// LinkUsecase управление ссылками
type LinkUsecase interface {
	Create(ctx context.Context, advisorID uuid.UUID, in service.LinkInput) (*model.SchedulingLink, error)
	List(ctx context.Context, advisorID uuid.UUID) ([]*model.SchedulingLink, error)
	Get(ctx context.Context, advisorID, linkID uuid.UUID) (*model.SchedulingLink, error)
	Update(ctx context.Context, advisorID, linkID uuid.UUID, in service.LinkInput) (*model.SchedulingLink, error)
	Delete(ctx context.Context, advisorID, linkID uuid.UUID) (bool, error)
}

// MeetingUsecase просмотр и отмена встреч
type MeetingUsecase interface {
	Upcoming(ctx context.Context, advisorID uuid.UUID) ([]*model.Meeting, error)
	Past(ctx context.Context, advisorID uuid.UUID) ([]*model.Meeting, error)
	Get(ctx context.Context, advisorID, meetingID uuid.UUID) (*model.Meeting, error)
	Cancel(ctx context.Context, advisorID, meetingID uuid.UUID) (*model.Meeting, error)
}

// AdvisorUsecase консультант из токена
type AdvisorUsecase interface {
	Ensure(ctx context.Context, id uuid.UUID, email, name string) (*model.Advisor, error)
	BindTelegram(ctx context.Context, advisorID uuid.UUID, chatID *int64) error
}

// DashboardUsecase сводка кабинета и подключённые календари
type DashboardUsecase interface {
	Stats(ctx context.Context, advisorID uuid.UUID) (*model.DashboardStats, error)
	CalendarAccounts(ctx context.Context, advisorID uuid.UUID) ([]*model.CalendarAccount, error)
}

// Handler обработчики HTTP API
type Handler struct {
	schedule  ScheduleUsecase
	windows   WindowUsecase
	links     LinkUsecase
	meetings  MeetingUsecase
	advisors  AdvisorUsecase
	dashboard DashboardUsecase
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	schedule ScheduleUsecase,
	windows WindowUsecase,
	links LinkUsecase,
	meetings MeetingUsecase,
	advisors AdvisorUsecase,
	dashboard DashboardUsecase,
	logger *zap.Logger,
) *Handler {
	v := validator.New()
	// в ошибках валидации поля называются как в JSON
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		schedule:  schedule,
		windows:   windows,
		links:     links,
		meetings:  meetings,
		advisors:  advisors,
		dashboard: dashboard,
		validate:  v,
		logger:    logger,
	}
}
