package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdvisorFinder поиск консультанта по чату Telegram
type AdvisorFinder interface {
	GetByTelegramChat(ctx context.Context, chatID int64) (*model.Advisor, error)
}

// MeetingLister встречи консультанта
type MeetingLister interface {
	Upcoming(ctx context.Context, advisorID uuid.UUID) ([]*model.Meeting, error)
	Past(ctx context.Context, advisorID uuid.UUID) ([]*model.Meeting, error)
}

// LinkLister ссылки консультанта
type LinkLister interface {
	List(ctx context.Context, advisorID uuid.UUID) ([]*model.SchedulingLink, error)
}

// BotController бот консультанта: просмотр встреч и ссылок
type BotController struct {
	bot        *bot.Bot
	advisors   AdvisorFinder
	meetings   MeetingLister
	links      LinkLister
	defaultLoc *time.Location
	baseURL    string
	logger     *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	advisors AdvisorFinder,
	meetings MeetingLister,
	links LinkLister,
	defaultLoc *time.Location,
	baseURL string,
	logger *zap.Logger,
) *BotController {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &BotController{
		bot:        botInstance,
		advisors:   advisors,
		meetings:   meetings,
		links:      links,
		defaultLoc: defaultLoc,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/upcoming", bot.MatchTypeExact, c.HandleUpcoming)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/past", bot.MatchTypeExact, c.HandlePast)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/links", bot.MatchTypeExact, c.HandleLinks)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Привязка чата и справка"},
		{Command: "upcoming", Description: "📅 Встречи на 7 дней"},
		{Command: "past", Description: "🗂 Прошедшие встречи"},
		{Command: "links", Description: "🔗 Мои ссылки для записи"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота, блокирует до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}

// HandleStart обрабатывает /start и /help
func (c *BotController) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	advisor, err := c.advisors.GetByTelegramChat(ctx, chatID)
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		c.logger.Error("Failed to get advisor by chat", zap.Int64("chat_id", chatID), zap.Error(err))
		c.send(ctx, b, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	if advisor == nil {
		c.send(ctx, b, chatID, fmt.Sprintf(
			"👋 Здравствуйте!\n\n"+
				"Этот чат пока не привязан к кабинету консультанта.\n\n"+
				"ID чата: %d\n\n"+
				"Укажите его в кабинете (PUT /api/advisor/telegram), чтобы получать уведомления о новых встречах.",
			chatID))
		return
	}

	name := advisor.Name
	if name == "" {
		name = advisor.Email
	}
	c.send(ctx, b, chatID, fmt.Sprintf(
		"👋 %s, чат привязан.\n\n"+
			"Сюда приходят уведомления о новых встречах.\n\n"+
			"/upcoming - встречи на 7 дней\n"+
			"/past - прошедшие встречи\n"+
			"/links - ссылки для записи",
		name))
}

// HandleUpcoming обрабатывает /upcoming
func (c *BotController) HandleUpcoming(ctx context.Context, b *bot.Bot, update *models.Update) {
	advisor, ok := c.requireAdvisor(ctx, b, update)
	if !ok {
		return
	}

	meetings, err := c.meetings.Upcoming(ctx, advisor.ID)
	if err != nil {
		c.logger.Error("Failed to list upcoming meetings", zap.String("advisor_id", advisor.ID.String()), zap.Error(err))
		c.send(ctx, b, update.Message.Chat.ID, "❌ Не удалось загрузить встречи.")
		return
	}

	c.send(ctx, b, update.Message.Chat.ID, meetingsText("📅 Встречи на 7 дней", meetings, advisor.Location(c.defaultLoc)))
}

// HandlePast обрабатывает /past
func (c *BotController) HandlePast(ctx context.Context, b *bot.Bot, update *models.Update) {
	advisor, ok := c.requireAdvisor(ctx, b, update)
	if !ok {
		return
	}

	meetings, err := c.meetings.Past(ctx, advisor.ID)
	if err != nil {
		c.logger.Error("Failed to list past meetings", zap.String("advisor_id", advisor.ID.String()), zap.Error(err))
		c.send(ctx, b, update.Message.Chat.ID, "❌ Не удалось загрузить встречи.")
		return
	}

	if len(meetings) > 10 {
		meetings = meetings[:10]
	}
	c.send(ctx, b, update.Message.Chat.ID, meetingsText("🗂 Прошедшие встречи", meetings, advisor.Location(c.defaultLoc)))
}

// HandleLinks обрабатывает /links
func (c *BotController) HandleLinks(ctx context.Context, b *bot.Bot, update *models.Update) {
	advisor, ok := c.requireAdvisor(ctx, b, update)
	if !ok {
		return
	}

	links, err := c.links.List(ctx, advisor.ID)
	if err != nil {
		c.logger.Error("Failed to list links", zap.String("advisor_id", advisor.ID.String()), zap.Error(err))
		c.send(ctx, b, update.Message.Chat.ID, "❌ Не удалось загрузить ссылки.")
		return
	}

	c.send(ctx, b, update.Message.Chat.ID, linksText(links, c.baseURL))
}

// requireAdvisor находит консультанта, привязанного к чату
func (c *BotController) requireAdvisor(ctx context.Context, b *bot.Bot, update *models.Update) (*model.Advisor, bool) {
	if update.Message == nil {
		return nil, false
	}
	chatID := update.Message.Chat.ID

	advisor, err := c.advisors.GetByTelegramChat(ctx, chatID)
	if errors.Is(err, service.ErrNotFound) {
		c.send(ctx, b, chatID, "❌ Чат не привязан к консультанту. Используйте /start.")
		return nil, false
	}
	if err != nil {
		c.logger.Error("Failed to get advisor by chat", zap.Int64("chat_id", chatID), zap.Error(err))
		c.send(ctx, b, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return nil, false
	}

	return advisor, true
}

// send отправляет сообщение и логирует если не удалось
func (c *BotController) send(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		c.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
