package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"go.uber.org/zap"
)

// SideEffects побочные эффекты после бронирования: обогащение ответов,
// событие в календаре, уведомления. Каждый шаг best-effort.
type SideEffects struct {
	advisors   AdvisorStore
	enricher   Enricher
	enrichment EnrichmentWriter
	events     EventPublisher
	notifier   Notifier
	defaultLoc *time.Location
	timeout    time.Duration
	logger     *zap.Logger
}

func NewSideEffects(
	advisors AdvisorStore,
	enricher Enricher,
	enrichment EnrichmentWriter,
	events EventPublisher,
	notifier Notifier,
	defaultLoc *time.Location,
	timeout time.Duration,
	logger *zap.Logger,
) *SideEffects {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SideEffects{
		advisors:   advisors,
		enricher:   enricher,
		enrichment: enrichment,
		events:     events,
		notifier:   notifier,
		defaultLoc: defaultLoc,
		timeout:    timeout,
		logger:     logger,
	}
}

// Dispatch запускает побочные эффекты в фоне на контексте, отвязанном от запроса.
// Возвращаемый канал закрывается по завершении.
func (e *SideEffects) Dispatch(ctx context.Context, meeting *model.Meeting, link *model.SchedulingLink) <-chan struct{} {
	done := make(chan struct{})

	m := *meeting
	m.Answers = append([]model.Answer(nil), meeting.Answers...)

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	go func() {
		defer close(done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("Side effects panicked",
					zap.String("meeting_id", m.ID.String()),
					zap.Any("panic", r))
			}
		}()
		e.run(runCtx, &m, link)
	}()

	return done
}

func (e *SideEffects) run(ctx context.Context, meeting *model.Meeting, link *model.SchedulingLink) {
	e.enrich(ctx, meeting)

	advisor, err := e.advisors.GetByID(ctx, meeting.AdvisorID)
	if err != nil {
		e.logger.Warn("Failed to load advisor for side effects",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err))
	}

	e.createEvent(ctx, meeting, link, advisor)
	e.notify(ctx, meeting, link, advisor)
}

// enrich дополняет ответы контекстом; при ошибке остаётся исходный текст ответа
func (e *SideEffects) enrich(ctx context.Context, meeting *model.Meeting) {
	if e.enricher == nil {
		return
	}

	var contextData string
	if meeting.ClientLinkedIn != nil {
		summary, err := e.enricher.SummarizeProfile(ctx, meeting.ClientEmail, *meeting.ClientLinkedIn)
		if err != nil {
			e.logger.Warn("Failed to summarize client profile",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err))
		} else if summary != "" {
			contextData = summary
			meeting.EnrichmentSummary = &summary
			if e.enrichment != nil {
				if err := e.enrichment.SetEnrichmentSummary(ctx, meeting.ID, summary); err != nil {
					e.logger.Warn("Failed to save enrichment summary",
						zap.String("meeting_id", meeting.ID.String()),
						zap.Error(err))
				}
			}
		}
	}

	for i := range meeting.Answers {
		answer := &meeting.Answers[i]

		note, err := e.enricher.Augment(ctx, answer.QuestionText, answer.Text, contextData)
		if err != nil || strings.TrimSpace(note) == "" {
			if err != nil {
				e.logger.Warn("Failed to augment answer, using original text",
					zap.String("answer_id", answer.ID.String()),
					zap.Error(err))
			}
			note = answer.Text
		}
		answer.AugmentedNote = &note

		if e.enrichment != nil {
			if err := e.enrichment.SetAugmentedNote(ctx, answer.ID, note); err != nil {
				e.logger.Warn("Failed to save augmented note",
					zap.String("answer_id", answer.ID.String()),
					zap.Error(err))
			}
		}
	}
}

func (e *SideEffects) createEvent(ctx context.Context, meeting *model.Meeting, link *model.SchedulingLink, advisor *model.Advisor) {
	if e.events == nil {
		return
	}

	attendees := []string{meeting.ClientEmail}
	if advisor != nil && advisor.Email != "" {
		attendees = append(attendees, advisor.Email)
	}

	eventID, err := e.events.CreateEvent(ctx, meeting.AdvisorID, EventDetails{
		Summary:     fmt.Sprintf("%s with %s", link.Name, meeting.ClientEmail),
		Description: describeMeeting(meeting),
		Start:       meeting.StartTime,
		End:         meeting.EndTime,
		Attendees:   attendees,
	})
	if err != nil {
		e.logger.Warn("Failed to create calendar event",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err))
		return
	}

	e.logger.Info("Calendar event created",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("event_id", eventID))
}

func (e *SideEffects) notify(ctx context.Context, meeting *model.Meeting, link *model.SchedulingLink, advisor *model.Advisor) {
	if e.notifier == nil {
		return
	}

	data := NotificationData{
		MeetingID:   meeting.ID,
		MeetingName: link.Name,
		ClientEmail: meeting.ClientEmail,
		Start:       meeting.StartTime,
		End:         meeting.EndTime,
		Location:    advisor.Location(e.defaultLoc),
	}
	if meeting.ClientLinkedIn != nil {
		data.ClientLinkedIn = *meeting.ClientLinkedIn
	}
	for _, a := range meeting.Answers {
		qa := QuestionAnswer{Question: a.QuestionText, Answer: a.Text}
		if a.AugmentedNote != nil && *a.AugmentedNote != a.Text {
			qa.Augmented = *a.AugmentedNote
		}
		data.Answers = append(data.Answers, qa)
	}

	if advisor != nil {
		data.AdvisorName = advisor.Name
		data.AdvisorEmail = advisor.Email

		to := Recipient{Role: RecipientAdvisor, Email: advisor.Email, AdvisorID: advisor.ID}
		if err := e.notifier.Notify(ctx, to, data); err != nil {
			e.logger.Warn("Failed to notify advisor",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err))
		}
	}

	to := Recipient{Role: RecipientClient, Email: meeting.ClientEmail, AdvisorID: meeting.AdvisorID}
	if err := e.notifier.Notify(ctx, to, data); err != nil {
		e.logger.Warn("Failed to notify client",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err))
	}
}

func describeMeeting(meeting *model.Meeting) string {
	var b strings.Builder
	b.WriteString("Client: " + meeting.ClientEmail + "\n")
	if meeting.ClientLinkedIn != nil {
		b.WriteString("LinkedIn: " + *meeting.ClientLinkedIn + "\n")
	}
	for _, a := range meeting.Answers {
		b.WriteString("\nQ: " + a.QuestionText + "\nA: " + a.Text + "\n")
		if a.AugmentedNote != nil && *a.AugmentedNote != a.Text {
			b.WriteString("Context: " + *a.AugmentedNote + "\n")
		}
	}
	return b.String()
}
