package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBaseURL адрес Google Calendar API v3
const DefaultBaseURL = "https://www.googleapis.com/calendar/v3"

var (
	// ErrNoCalendar у консультанта нет подключённых календарей
	ErrNoCalendar = errors.New("advisor has no connected calendar")
	// ErrTokenExpired токен доступа календаря истёк
	ErrTokenExpired = errors.New("calendar access token expired")
)

// AccountStore подключённые календари консультанта
type AccountStore interface {
	ListAccounts(ctx context.Context, advisorID uuid.UUID) ([]*model.CalendarAccount, error)
}

// EventRecorder локальная копия созданных событий
type EventRecorder interface {
	SaveEvent(ctx context.Context, accountID uuid.UUID, eventID, title string, start, end time.Time) error
}

// Client клиент Google Calendar: создание событий и free/busy по всем календарям консультанта
type Client struct {
	http     *resty.Client
	accounts AccountStore
	recorder EventRecorder
	now      func() time.Time
	logger   *zap.Logger
}

func NewClient(baseURL string, accounts AccountStore, recorder EventRecorder, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(15*time.Second).
			SetHeader("Accept", "application/json"),
		accounts: accounts,
		recorder: recorder,
		now:      time.Now,
		logger:   logger,
	}
}

var (
	_ service.EventPublisher       = (*Client)(nil)
	_ service.BusyIntervalProvider = (*Client)(nil)
)

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type attendee struct {
	Email string `json:"email"`
}

type eventRequest struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Start       eventTime  `json:"start"`
	End         eventTime  `json:"end"`
	Attendees   []attendee `json:"attendees"`
}

type eventResponse struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateEvent создаёт событие в первом подключённом календаре консультанта
func (c *Client) CreateEvent(ctx context.Context, advisorID uuid.UUID, event service.EventDetails) (string, error) {
	accounts, err := c.accounts.ListAccounts(ctx, advisorID)
	if err != nil {
		return "", fmt.Errorf("list calendar accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", ErrNoCalendar
	}
	account := accounts[0]
	if err := c.checkToken(account); err != nil {
		return "", err
	}

	body := eventRequest{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       eventTime{DateTime: event.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         eventTime{DateTime: event.End.UTC().Format(time.RFC3339), TimeZone: "UTC"},
	}
	for _, email := range event.Attendees {
		body.Attendees = append(body.Attendees, attendee{Email: email})
	}

	var result eventResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(account.AccessToken).
		SetPathParam("calendarId", account.CalendarID).
		SetQueryParam("sendUpdates", "all").
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/calendars/{calendarId}/events")
	if err != nil {
		return "", fmt.Errorf("create calendar event: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("create calendar event: status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}

	if c.recorder != nil {
		if err := c.recorder.SaveEvent(ctx, account.ID, result.ID, event.Summary, event.Start, event.End); err != nil {
			c.logger.Warn("Failed to record created calendar event",
				zap.String("event_id", result.ID),
				zap.Error(err))
		}
	}

	return result.ID, nil
}

type freeBusyItem struct {
	ID string `json:"id"`
}

type freeBusyRequest struct {
	TimeMin string         `json:"timeMin"`
	TimeMax string         `json:"timeMax"`
	Items   []freeBusyItem `json:"items"`
}

type freeBusyResponse struct {
	Calendars map[string]struct {
		Busy []struct {
			Start time.Time `json:"start"`
			End   time.Time `json:"end"`
		} `json:"busy"`
		Errors []struct {
			Domain string `json:"domain"`
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"calendars"`
}

// GetBusyIntervals объединяет free/busy всех календарей консультанта.
// Ошибка любого календаря делает результат неизвестным и возвращается вызывающему.
func (c *Client) GetBusyIntervals(ctx context.Context, advisorID uuid.UUID, rangeStart, rangeEnd time.Time) ([]model.Interval, error) {
	accounts, err := c.accounts.ListAccounts(ctx, advisorID)
	if err != nil {
		return nil, fmt.Errorf("list calendar accounts: %w", err)
	}

	var busy []model.Interval
	for _, account := range accounts {
		intervals, err := c.freeBusy(ctx, account, rangeStart, rangeEnd)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", account.CalendarID, err)
		}
		busy = append(busy, intervals...)
	}

	return model.MergeIntervals(busy), nil
}

func (c *Client) freeBusy(ctx context.Context, account *model.CalendarAccount, rangeStart, rangeEnd time.Time) ([]model.Interval, error) {
	if err := c.checkToken(account); err != nil {
		return nil, err
	}

	var result freeBusyResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(account.AccessToken).
		SetBody(freeBusyRequest{
			TimeMin: rangeStart.UTC().Format(time.RFC3339),
			TimeMax: rangeEnd.UTC().Format(time.RFC3339),
			Items:   []freeBusyItem{{ID: account.CalendarID}},
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/freeBusy")
	if err != nil {
		return nil, fmt.Errorf("query free/busy: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("query free/busy: status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}

	cal, ok := result.Calendars[account.CalendarID]
	if !ok {
		return nil, fmt.Errorf("query free/busy: calendar missing from response")
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("query free/busy: %s/%s", cal.Errors[0].Domain, cal.Errors[0].Reason)
	}

	intervals := make([]model.Interval, 0, len(cal.Busy))
	for _, b := range cal.Busy {
		intervals = append(intervals, model.Interval{Start: b.Start, End: b.End})
	}
	return intervals, nil
}

func (c *Client) checkToken(account *model.CalendarAccount) error {
	if !account.ExpiresAt.IsZero() && !c.now().Before(account.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}
