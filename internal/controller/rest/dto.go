package rest

import (
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/google/uuid"
)

type answerRequest struct {
	QuestionID uuid.UUID `json:"questionId" validate:"required"`
	Text       string    `json:"text" validate:"max=5000"`
}

type bookingRequest struct {
	StartTime      time.Time       `json:"startTime" validate:"required"`
	ClientEmail    string          `json:"clientEmail" validate:"required,email"`
	ClientLinkedIn *string         `json:"clientLinkedIn" validate:"omitempty,max=500"`
	Answers        []answerRequest `json:"answers" validate:"dive"`
}

func (r bookingRequest) toService(slug string) service.BookingRequest {
	answers := make([]service.AnswerInput, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, service.AnswerInput{QuestionID: a.QuestionID, Text: a.Text})
	}
	return service.BookingRequest{
		Slug:           slug,
		StartTime:      r.StartTime,
		ClientEmail:    r.ClientEmail,
		ClientLinkedIn: r.ClientLinkedIn,
		Answers:        answers,
	}
}

type linkSummary struct {
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

type questionResponse struct {
	ID    uuid.UUID `json:"id"`
	Text  string    `json:"text"`
	Order int       `json:"order"`
}

type availabilityResponse struct {
	Link      linkSummary        `json:"link"`
	Slots     []model.Interval   `json:"slots"`
	Questions []questionResponse `json:"questions"`
}

func newAvailabilityResponse(res *service.AvailabilityResult) availabilityResponse {
	questions := make([]questionResponse, 0, len(res.Questions))
	for _, q := range res.Questions {
		questions = append(questions, questionResponse{ID: q.ID, Text: q.Text, Order: q.DisplayOrder})
	}
	return availabilityResponse{
		Link:      linkSummary{Name: res.Link.Name, Duration: res.Link.DurationMinutes},
		Slots:     res.Slots,
		Questions: questions,
	}
}

type bookingResponse struct {
	MeetingID uuid.UUID `json:"meetingId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type slotRequest struct {
	DayOfWeek model.Weekday   `json:"day_of_week"`
	StartTime model.TimeOfDay `json:"start_time"`
	EndTime   model.TimeOfDay `json:"end_time"`
}

type windowRequest struct {
	Name      string        `json:"name" validate:"required,max=200"`
	IsActive  *bool         `json:"is_active"`
	TimeSlots []slotRequest `json:"timeSlots" validate:"max=100"`
}

func (r windowRequest) toService() service.WindowInput {
	in := service.WindowInput{Name: r.Name, IsActive: r.IsActive == nil || *r.IsActive}
	for _, s := range r.TimeSlots {
		in.Slots = append(in.Slots, model.WeeklySlot{
			DayOfWeek: s.DayOfWeek,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		})
	}
	return in
}

type questionRequest struct {
	ID   *uuid.UUID `json:"id"`
	Text string     `json:"text" validate:"required,max=1000"`
}

type linkRequest struct {
	Name             string            `json:"name" validate:"required,max=200"`
	Slug             string            `json:"slug" validate:"required,max=64"`
	IsActive         *bool             `json:"is_active"`
	Duration         int               `json:"duration" validate:"required,min=5,max=480"`
	MaxDaysInAdvance int               `json:"max_days_in_advance" validate:"required,min=1,max=365"`
	UsageLimit       *int              `json:"usage_limit" validate:"omitempty,min=1"`
	ExpirationDate   *time.Time        `json:"expiration_date"`
	WindowIDs        []uuid.UUID       `json:"window_ids"`
	Questions        []questionRequest `json:"questions" validate:"max=20,dive"`
}

func (r linkRequest) toService() service.LinkInput {
	in := service.LinkInput{
		Name:             r.Name,
		Slug:             r.Slug,
		IsActive:         r.IsActive == nil || *r.IsActive,
		DurationMinutes:  r.Duration,
		MaxDaysInAdvance: r.MaxDaysInAdvance,
		UsageLimit:       r.UsageLimit,
		ExpirationDate:   r.ExpirationDate,
		WindowIDs:        r.WindowIDs,
	}
	for _, q := range r.Questions {
		in.Questions = append(in.Questions, service.QuestionInput{ID: q.ID, Text: q.Text})
	}
	return in
}

type telegramRequest struct {
	ChatID *int64 `json:"chatId"`
}
