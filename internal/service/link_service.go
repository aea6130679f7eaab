package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// LinkRepository хранилище ссылок и их вопросов
type LinkRepository interface {
	Create(ctx context.Context, link *model.SchedulingLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SchedulingLink, error)
	ListByAdvisor(ctx context.Context, advisorID uuid.UUID) ([]*model.SchedulingLink, error)
	Update(ctx context.Context, link *model.SchedulingLink) error
	Delete(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	CountMeetings(ctx context.Context, id uuid.UUID) (int, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
}

// QuestionInput вопрос ссылки; ID задан для существующего вопроса
type QuestionInput struct {
	ID   *uuid.UUID
	Text string
}

// LinkInput данные для создания и редактирования ссылки
type LinkInput struct {
	Name             string
	Slug             string
	IsActive         bool
	DurationMinutes  int
	MaxDaysInAdvance int
	UsageLimit       *int
	ExpirationDate   *time.Time
	WindowIDs        []uuid.UUID
	Questions        []QuestionInput
}

func (in *LinkInput) validate() error {
	v := &ValidationError{}
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if in.Name == "" {
		v.Add("name", "is required")
	}
	if !slugPattern.MatchString(in.Slug) {
		v.Add("slug", "must be 1-64 lowercase letters, digits or hyphens")
	}
	if in.DurationMinutes <= 0 {
		v.Add("duration", "must be positive")
	}
	if in.MaxDaysInAdvance <= 0 {
		v.Add("maxDaysInAdvance", "must be positive")
	}
	if in.UsageLimit != nil && *in.UsageLimit <= 0 {
		v.Add("usageLimit", "must be positive")
	}
	for i := range in.Questions {
		in.Questions[i].Text = strings.TrimSpace(in.Questions[i].Text)
		if in.Questions[i].Text == "" {
			v.Add(fmt.Sprintf("questions[%d]", i), "text is required")
		}
	}
	return v.OrNil()
}

// LinkService управление ссылками для записи
type LinkService struct {
	links   LinkRepository
	windows WindowRepository
	logger  *zap.Logger
}

func NewLinkService(links LinkRepository, windows WindowRepository, logger *zap.Logger) *LinkService {
	return &LinkService{links: links, windows: windows, logger: logger}
}

// Create создаёт ссылку с вопросами
func (s *LinkService) Create(ctx context.Context, advisorID uuid.UUID, in LinkInput) (*model.SchedulingLink, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.checkWindows(ctx, advisorID, in.WindowIDs); err != nil {
		return nil, err
	}

	exists, err := s.links.SlugExists(ctx, in.Slug, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if exists {
		return nil, ErrSlugTaken
	}

	link := &model.SchedulingLink{AdvisorID: advisorID}
	applyLinkInput(link, in)

	if err := s.links.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	s.logger.Info("Scheduling link created",
		zap.String("link_id", link.ID.String()),
		zap.String("advisor_id", advisorID.String()),
		zap.String("slug", link.Slug),
	)

	return link, nil
}

// List возвращает ссылки консультанта с количеством встреч
func (s *LinkService) List(ctx context.Context, advisorID uuid.UUID) ([]*model.SchedulingLink, error) {
	return s.links.ListByAdvisor(ctx, advisorID)
}

// Get возвращает ссылку консультанта
func (s *LinkService) Get(ctx context.Context, advisorID, linkID uuid.UUID) (*model.SchedulingLink, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	if link == nil || link.AdvisorID != advisorID {
		return nil, ErrNotFound
	}
	return link, nil
}

// Update обновляет ссылку. Вопросы с известным ID сохраняются, отсутствующие
// удаляются, новые создаются; порядок задаётся позицией во входном списке.
func (s *LinkService) Update(ctx context.Context, advisorID, linkID uuid.UUID, in LinkInput) (*model.SchedulingLink, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	link, err := s.Get(ctx, advisorID, linkID)
	if err != nil {
		return nil, err
	}
	if err := s.checkWindows(ctx, advisorID, in.WindowIDs); err != nil {
		return nil, err
	}

	if in.Slug != link.Slug {
		exists, err := s.links.SlugExists(ctx, in.Slug, link.ID)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if exists {
			return nil, ErrSlugTaken
		}
	}

	known := make(map[uuid.UUID]bool, len(link.Questions))
	for _, q := range link.Questions {
		known[q.ID] = true
	}
	for i := range in.Questions {
		if id := in.Questions[i].ID; id != nil && !known[*id] {
			in.Questions[i].ID = nil
		}
	}

	applyLinkInput(link, in)

	if err := s.links.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}

	s.logger.Info("Scheduling link updated",
		zap.String("link_id", linkID.String()),
		zap.String("slug", link.Slug),
		zap.Bool("is_active", link.IsActive),
	)

	return link, nil
}

// Delete удаляет ссылку, а если к ней привязаны встречи - только деактивирует.
// Возвращает true если ссылка была деактивирована вместо удаления.
func (s *LinkService) Delete(ctx context.Context, advisorID, linkID uuid.UUID) (bool, error) {
	if _, err := s.Get(ctx, advisorID, linkID); err != nil {
		return false, err
	}

	count, err := s.links.CountMeetings(ctx, linkID)
	if err != nil {
		return false, fmt.Errorf("count meetings: %w", err)
	}

	if count > 0 {
		if err := s.links.Deactivate(ctx, linkID); err != nil {
			return false, fmt.Errorf("deactivate link: %w", err)
		}
		s.logger.Info("Scheduling link deactivated (has meetings)",
			zap.String("link_id", linkID.String()),
			zap.Int("meetings", count),
		)
		return true, nil
	}

	if err := s.links.Delete(ctx, linkID); err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}

	s.logger.Info("Scheduling link deleted", zap.String("link_id", linkID.String()))
	return false, nil
}

// checkWindows проверяет что все окна принадлежат консультанту
func (s *LinkService) checkWindows(ctx context.Context, advisorID uuid.UUID, windowIDs []uuid.UUID) error {
	if len(windowIDs) == 0 {
		return nil
	}

	owned, err := s.windows.ListByAdvisor(ctx, advisorID)
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	ids := make(map[uuid.UUID]bool, len(owned))
	for _, w := range owned {
		ids[w.ID] = true
	}
	for _, id := range windowIDs {
		if !ids[id] {
			return invalidField("windowIds", "unknown window "+id.String())
		}
	}
	return nil
}

func applyLinkInput(link *model.SchedulingLink, in LinkInput) {
	link.Name = in.Name
	link.Slug = in.Slug
	link.IsActive = in.IsActive
	link.DurationMinutes = in.DurationMinutes
	link.MaxDaysInAdvance = in.MaxDaysInAdvance
	link.UsageLimit = in.UsageLimit
	link.ExpirationDate = in.ExpirationDate
	link.WindowIDs = in.WindowIDs

	questions := make([]model.Question, 0, len(in.Questions))
	for i, q := range in.Questions {
		question := model.Question{LinkID: link.ID, Text: q.Text, DisplayOrder: i}
		if q.ID != nil {
			question.ID = *q.ID
		}
		questions = append(questions, question)
	}
	link.Questions = questions
}
