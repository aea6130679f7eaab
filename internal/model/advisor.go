package model

import (
	"time"

	"github.com/google/uuid"
)

// Advisor консультант, публикующий окна и ссылки
type Advisor struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Timezone       string    `json:"timezone"`
	TelegramChatID *int64    `json:"telegram_chat_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Location возвращает часовой пояс консультанта, fallback если не задан или неизвестен
func (a *Advisor) Location(fallback *time.Location) *time.Location {
	if a == nil || a.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// CalendarAccount подключённый календарь консультанта
type CalendarAccount struct {
	ID          uuid.UUID `json:"id"`
	AdvisorID   uuid.UUID `json:"advisor_id"`
	Provider    string    `json:"provider"`
	CalendarID  string    `json:"calendar_id"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DashboardStats сводка по кабинету консультанта
type DashboardStats struct {
	TotalMeetings      int `json:"totalMeetings"`
	ActiveLinks        int `json:"activeLinks"`
	ConnectedCalendars int `json:"connectedCalendars"`
	ActiveWindows      int `json:"schedulingWindows"`
}
