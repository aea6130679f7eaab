package controller

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
)

var weekdayShortNames = []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}

// FormatDateTime форматирует дату и время с днём недели
func FormatDateTime(t time.Time) string {
	return fmt.Sprintf("%s %s", weekdayShortNames[t.Weekday()], t.Format("02.01.2006 15:04"))
}

// FormatTimeRange форматирует диапазон времени
func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// PluralizeMeetings возвращает правильное склонение слова "встреча"
func PluralizeMeetings(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "встреча"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "встречи"
	}
	return "встреч"
}

func statusEmoji(status model.MeetingStatus) string {
	switch status {
	case model.MeetingStatusScheduled:
		return "🟢"
	case model.MeetingStatusCompleted:
		return "✅"
	case model.MeetingStatusCancelled:
		return "❌"
	default:
		return "❔"
	}
}

// meetingsText список встреч в часовом поясе консультанта
func meetingsText(title string, meetings []*model.Meeting, loc *time.Location) string {
	if len(meetings) == 0 {
		return title + "\n\nВстреч нет."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%d %s\n", title, len(meetings), PluralizeMeetings(len(meetings)))
	for _, m := range meetings {
		start := m.StartTime.In(loc)
		end := m.EndTime.In(loc)
		fmt.Fprintf(&b, "\n%s %s, %s\n", statusEmoji(m.Status), FormatDateTime(start), FormatTimeRange(start, end))
		if m.LinkName != "" {
			fmt.Fprintf(&b, "📌 %s\n", m.LinkName)
		}
		fmt.Fprintf(&b, "👤 %s\n", m.ClientEmail)
	}
	return b.String()
}

// linksText список ссылок; baseURL пустой - выводится только путь
func linksText(links []*model.SchedulingLink, baseURL string) string {
	if len(links) == 0 {
		return "🔗 Ссылки для записи\n\nСсылок пока нет."
	}

	baseURL = strings.TrimRight(baseURL, "/")

	var b strings.Builder
	b.WriteString("🔗 Ссылки для записи\n")
	for _, l := range links {
		state := "🟢"
		if !l.IsActive {
			state = "⏸"
		}
		fmt.Fprintf(&b, "\n%s %s (%s)\n", state, l.Name, FormatDuration(l.DurationMinutes))
		fmt.Fprintf(&b, "%s/schedule/%s\n", baseURL, l.Slug)

		usage := fmt.Sprintf("%d", l.UsageCount)
		if l.UsageLimit != nil {
			usage = fmt.Sprintf("%d/%d", l.UsageCount, *l.UsageLimit)
		}
		fmt.Fprintf(&b, "Записей: %s\n", usage)
		if l.ExpirationDate != nil {
			fmt.Fprintf(&b, "Действует до: %s\n", l.ExpirationDate.Format("02.01.2006"))
		}
	}
	return b.String()
}
