package model

import (
	"time"

	"github.com/google/uuid"
)

type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// CanTransitionTo проверяет допустимость смены статуса
func (s MeetingStatus) CanTransitionTo(next MeetingStatus) bool {
	return s == MeetingStatusScheduled && (next == MeetingStatusCompleted || next == MeetingStatusCancelled)
}

type Meeting struct {
	ID                uuid.UUID     `json:"id"`
	AdvisorID         uuid.UUID     `json:"advisor_id"`
	LinkID            uuid.UUID     `json:"scheduling_link_id"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           time.Time     `json:"end_time"`
	ClientEmail       string        `json:"client_email"`
	ClientLinkedIn    *string       `json:"client_linkedin"`
	Status            MeetingStatus `json:"status"`
	EnrichmentSummary *string       `json:"enrichment_summary"`
	CreatedAt         time.Time     `json:"created_at"`

	// Дополнительные поля для удобства (не из БД)
	Answers  []Answer `json:"answers,omitempty"`
	LinkName string   `json:"link_name,omitempty"`
}

// Interval возвращает интервал, занятый встречей
func (m *Meeting) Interval() Interval {
	return Interval{Start: m.StartTime, End: m.EndTime}
}

type Answer struct {
	ID            uuid.UUID `json:"id"`
	MeetingID     uuid.UUID `json:"meeting_id"`
	QuestionID    uuid.UUID `json:"question_id"`
	Text          string    `json:"text"`
	AugmentedNote *string   `json:"augmented_note"`

	// Дополнительные поля для удобства (не из БД)
	QuestionText string `json:"question,omitempty"`
}
