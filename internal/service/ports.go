package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
)

// Clock источник текущего времени
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// AdvisorStore чтение консультантов
type AdvisorStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Advisor, error)
}

// WindowStore хранилище окон расписания (Recurrence Store)
type WindowStore interface {
	// ListActiveWindows возвращает активные окна консультанта со слотами.
	// Пустой windowIDs означает все активные окна.
	ListActiveWindows(ctx context.Context, advisorID uuid.UUID, windowIDs []uuid.UUID) ([]*model.SchedulingWindow, error)
}

// BusyIntervalProvider занятость консультанта по всем подключённым календарям.
// Ошибка провайдера никогда не означает "ничего не занято".
type BusyIntervalProvider interface {
	GetBusyIntervals(ctx context.Context, advisorID uuid.UUID, rangeStart, rangeEnd time.Time) ([]model.Interval, error)
}

// MeetingReader чтение уже запланированных встреч
type MeetingReader interface {
	ListScheduledBetween(ctx context.Context, advisorID uuid.UUID, from, to time.Time) ([]*model.Meeting, error)
}

// LinkReader чтение ссылок по slug
type LinkReader interface {
	GetBySlug(ctx context.Context, slug string) (*model.SchedulingLink, error)
}

// BookingStore единица работы бронирования
type BookingStore interface {
	// InTx выполняет fn в одной транзакции: commit при nil, rollback при ошибке
	InTx(ctx context.Context, fn func(ctx context.Context, tx BookingTx) error) error
}

// BookingTx операции внутри транзакции бронирования
type BookingTx interface {
	// LockLinkBySlug читает ссылку с вопросами и блокирует строку до конца транзакции
	LockLinkBySlug(ctx context.Context, slug string) (*model.SchedulingLink, error)
	// LockAdvisor берёт эксклюзивную блокировку консультанта до конца транзакции
	LockAdvisor(ctx context.Context, advisorID uuid.UUID) error
	HasOverlappingMeeting(ctx context.Context, advisorID uuid.UUID, iv model.Interval) (bool, error)
	CreateMeeting(ctx context.Context, meeting *model.Meeting) error
	CreateAnswers(ctx context.Context, answers []model.Answer) error
	// IncrementUsage увеличивает usage_count на 1, false если лимит исчерпан
	IncrementUsage(ctx context.Context, linkID uuid.UUID) (bool, error)
}

// EventDetails данные события в календаре консультанта
type EventDetails struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// EventPublisher создание события в календаре консультанта
type EventPublisher interface {
	CreateEvent(ctx context.Context, advisorID uuid.UUID, event EventDetails) (string, error)
}

type RecipientRole string

const (
	RecipientAdvisor RecipientRole = "advisor"
	RecipientClient  RecipientRole = "client"
)

// Recipient адресат уведомления
type Recipient struct {
	Role      RecipientRole
	Email     string
	AdvisorID uuid.UUID
}

// QuestionAnswer вопрос с ответом клиента для уведомления
type QuestionAnswer struct {
	Question  string
	Answer    string
	Augmented string
}

// NotificationData данные шаблона уведомления о встрече
type NotificationData struct {
	MeetingID      uuid.UUID
	MeetingName    string
	AdvisorName    string
	AdvisorEmail   string
	ClientEmail    string
	ClientLinkedIn string
	Start          time.Time
	End            time.Time
	Location       *time.Location
	Answers        []QuestionAnswer
}

// Notifier отправка уведомлений, best-effort
type Notifier interface {
	Notify(ctx context.Context, to Recipient, data NotificationData) error
}

// Enricher сервис дополнения ответов клиента контекстом
type Enricher interface {
	Augment(ctx context.Context, question, answer string, contextData string) (string, error)
	SummarizeProfile(ctx context.Context, clientEmail, linkedInURL string) (string, error)
}

// EnrichmentWriter сохранение результатов обогащения
type EnrichmentWriter interface {
	SetEnrichmentSummary(ctx context.Context, meetingID uuid.UUID, summary string) error
	SetAugmentedNote(ctx context.Context, answerID uuid.UUID, note string) error
}
