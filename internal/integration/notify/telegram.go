package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageSender отправка сообщений в Telegram, реализуется *bot.Bot
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// AdvisorLookup поиск консультанта для получения чата
type AdvisorLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Advisor, error)
}

// TelegramNotifier уведомляет консультанта в привязанный чат Telegram.
// Клиентам не пишет: у клиента нет чата.
type TelegramNotifier struct {
	sender   MessageSender
	advisors AdvisorLookup
	logger   *zap.Logger
}

var _ service.Notifier = (*TelegramNotifier)(nil)

func NewTelegramNotifier(sender MessageSender, advisors AdvisorLookup, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, advisors: advisors, logger: logger}
}

// Notify отправляет сообщение о встрече, если у консультанта привязан чат
func (n *TelegramNotifier) Notify(ctx context.Context, to service.Recipient, data service.NotificationData) error {
	if to.Role != service.RecipientAdvisor {
		return nil
	}

	advisor, err := n.advisors.GetByID(ctx, to.AdvisorID)
	if err != nil {
		return fmt.Errorf("get advisor: %w", err)
	}
	if advisor == nil || advisor.TelegramChatID == nil {
		n.logger.Debug("Advisor has no telegram chat, skipping",
			zap.String("advisor_id", to.AdvisorID.String()))
		return nil
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *advisor.TelegramChatID,
		Text:   renderText(to.Role, data),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	n.logger.Info("Meeting telegram notification sent",
		zap.String("meeting_id", data.MeetingID.String()),
		zap.Int64("chat_id", *advisor.TelegramChatID),
	)
	return nil
}
