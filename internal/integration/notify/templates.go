package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/Freeeeeet/advisor_scheduler/internal/service"
)

const timeLayout = "Mon, 02 Jan 2006 15:04 MST"

var emailTemplate = template.Must(template.New("meeting").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1f2937;">
	<h2>{{.Title}}</h2>
	<p>{{.Intro}}</p>
	<table cellpadding="4">
		<tr><td><b>Meeting</b></td><td>{{.Data.MeetingName}}</td></tr>
		<tr><td><b>When</b></td><td>{{.When}}</td></tr>
		{{- if .Data.AdvisorName}}
		<tr><td><b>Advisor</b></td><td>{{.Data.AdvisorName}}</td></tr>
		{{- end}}
		<tr><td><b>Client</b></td><td>{{.Data.ClientEmail}}</td></tr>
		{{- if .Data.ClientLinkedIn}}
		<tr><td><b>LinkedIn</b></td><td>{{.Data.ClientLinkedIn}}</td></tr>
		{{- end}}
	</table>
	{{- if .Data.Answers}}
	<h3>Answers</h3>
	{{- range .Data.Answers}}
	<p><b>{{.Question}}</b><br>{{.Answer}}
	{{- if .Augmented}}<br><i>Context: {{.Augmented}}</i>{{end}}</p>
	{{- end}}
	{{- end}}
</body>
</html>
`))

type emailView struct {
	Title string
	Intro string
	When  string
	Data  service.NotificationData
}

// subjectFor тема письма для адресата
func subjectFor(role service.RecipientRole, data service.NotificationData) string {
	if role == service.RecipientAdvisor {
		return fmt.Sprintf("New meeting booked: %s with %s", data.MeetingName, data.ClientEmail)
	}
	return fmt.Sprintf("Your meeting is confirmed: %s", data.MeetingName)
}

// formatWhen время встречи в часовом поясе консультанта
func formatWhen(data service.NotificationData) string {
	start, end := data.Start, data.End
	if data.Location != nil {
		start, end = start.In(data.Location), end.In(data.Location)
	}
	return start.Format(timeLayout) + " - " + end.Format("15:04")
}

// forRole клиент не видит заметок, подготовленных для консультанта
func forRole(role service.RecipientRole, data service.NotificationData) service.NotificationData {
	if role == service.RecipientAdvisor || len(data.Answers) == 0 {
		return data
	}
	answers := make([]service.QuestionAnswer, len(data.Answers))
	for i, qa := range data.Answers {
		answers[i] = service.QuestionAnswer{Question: qa.Question, Answer: qa.Answer}
	}
	data.Answers = answers
	return data
}

// renderHTML html-версия письма
func renderHTML(role service.RecipientRole, data service.NotificationData) (string, error) {
	data = forRole(role, data)
	view := emailView{Data: data, When: formatWhen(data)}
	if role == service.RecipientAdvisor {
		view.Title = "New meeting booked"
		view.Intro = data.ClientEmail + " booked a meeting with you."
	} else {
		view.Title = "Meeting confirmed"
		view.Intro = "Your meeting has been scheduled. A calendar invitation will follow."
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

// renderText текстовая версия, используется в письме и в Telegram
func renderText(role service.RecipientRole, data service.NotificationData) string {
	data = forRole(role, data)
	var b strings.Builder
	if role == service.RecipientAdvisor {
		b.WriteString("📅 New meeting booked\n\n")
	} else {
		b.WriteString("📅 Meeting confirmed\n\n")
	}
	b.WriteString("Meeting: " + data.MeetingName + "\n")
	b.WriteString("When: " + formatWhen(data) + "\n")
	if data.AdvisorName != "" {
		b.WriteString("Advisor: " + data.AdvisorName + "\n")
	}
	b.WriteString("Client: " + data.ClientEmail + "\n")
	if data.ClientLinkedIn != "" {
		b.WriteString("LinkedIn: " + data.ClientLinkedIn + "\n")
	}
	for _, qa := range data.Answers {
		b.WriteString("\n❓ " + qa.Question + "\n" + qa.Answer + "\n")
		if qa.Augmented != "" {
			b.WriteString("💡 " + qa.Augmented + "\n")
		}
	}
	return b.String()
}
