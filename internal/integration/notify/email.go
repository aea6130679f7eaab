package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// DefaultSendGridHost адрес SendGrid API
const DefaultSendGridHost = "https://api.sendgrid.com"

// ErrNoAddress у адресата нет email
var ErrNoAddress = errors.New("recipient has no email address")

// EmailNotifier отправляет письма о встрече через SendGrid
type EmailNotifier struct {
	apiKey string
	host   string
	from   *mail.Email
	logger *zap.Logger
}

var _ service.Notifier = (*EmailNotifier)(nil)

func NewEmailNotifier(apiKey, host, fromEmail, fromName string, logger *zap.Logger) *EmailNotifier {
	if host == "" {
		host = DefaultSendGridHost
	}
	return &EmailNotifier{
		apiKey: apiKey,
		host:   host,
		from:   mail.NewEmail(fromName, fromEmail),
		logger: logger,
	}
}

// Notify отправляет письмо консультанту или клиенту
func (n *EmailNotifier) Notify(ctx context.Context, to service.Recipient, data service.NotificationData) error {
	if to.Email == "" {
		return ErrNoAddress
	}

	html, err := renderHTML(to.Role, data)
	if err != nil {
		return err
	}

	name := ""
	if to.Role == service.RecipientAdvisor {
		name = data.AdvisorName
	}

	message := mail.NewSingleEmail(
		n.from,
		subjectFor(to.Role, data),
		mail.NewEmail(name, to.Email),
		renderText(to.Role, data),
		html,
	)

	// sendgrid.Client держит тело запроса в себе, один клиент на письмо
	request := sendgrid.GetRequest(n.apiKey, "/v3/mail/send", n.host)
	request.Method = "POST"
	client := &sendgrid.Client{Request: request}

	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send email: status %d: %s", resp.StatusCode, resp.Body)
	}

	n.logger.Info("Meeting email sent",
		zap.String("meeting_id", data.MeetingID.String()),
		zap.String("role", string(to.Role)),
	)
	return nil
}
