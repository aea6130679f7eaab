package model

import (
	"time"

	"github.com/google/uuid"
)

// LinkInvalidReason причина, по которой ссылку нельзя использовать
type LinkInvalidReason string

const (
	LinkNotFound          LinkInvalidReason = "not-found"
	LinkInactive          LinkInvalidReason = "inactive"
	LinkUsageLimitReached LinkInvalidReason = "usage-limit-reached"
	LinkExpired           LinkInvalidReason = "expired"
)

// SchedulingLink публичная ссылка для записи на встречу
type SchedulingLink struct {
	ID               uuid.UUID   `json:"id"`
	AdvisorID        uuid.UUID   `json:"advisor_id"`
	Name             string      `json:"name"`
	Slug             string      `json:"slug"`
	DurationMinutes  int         `json:"duration"`
	MaxDaysInAdvance int         `json:"max_days_in_advance"`
	IsActive         bool        `json:"is_active"`
	UsageLimit       *int        `json:"usage_limit"` // nil - без ограничения
	UsageCount       int         `json:"usage_count"`
	ExpirationDate   *time.Time  `json:"expiration_date"`
	WindowIDs        []uuid.UUID `json:"window_ids"` // пусто - все активные окна консультанта
	Questions        []Question  `json:"questions"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	MeetingCount int `json:"meeting_count,omitempty"`
}

// Duration возвращает длительность встречи
func (l *SchedulingLink) Duration() time.Duration {
	return time.Duration(l.DurationMinutes) * time.Minute
}

// Check проверяет возможность использования ссылки в момент now.
// Порядок проверок: активность, лимит использований, срок действия.
func (l *SchedulingLink) Check(now time.Time) (LinkInvalidReason, bool) {
	if l == nil {
		return LinkNotFound, false
	}
	if !l.IsActive {
		return LinkInactive, false
	}
	if l.UsageLimit != nil && l.UsageCount >= *l.UsageLimit {
		return LinkUsageLimitReached, false
	}
	if l.ExpirationDate != nil && !now.Before(*l.ExpirationDate) {
		return LinkExpired, false
	}
	return "", true
}

// HasQuestion проверяет принадлежность вопроса ссылке
func (l *SchedulingLink) HasQuestion(id uuid.UUID) (Question, bool) {
	for _, q := range l.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Question вопрос, который клиент заполняет при записи
type Question struct {
	ID           uuid.UUID `json:"id"`
	LinkID       uuid.UUID `json:"link_id"`
	Text         string    `json:"text"`
	DisplayOrder int       `json:"order"`
}
