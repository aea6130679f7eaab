package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/repository/base"
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// BookingStore транзакционная запись встречи: блокировка ссылки и консультанта,
// проверка пересечений, вставка встречи и ответов, инкремент счётчика ссылки
type BookingStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewBookingStore(pool *pgxpool.Pool, logger *zap.Logger) *BookingStore {
	return &BookingStore{pool: pool, logger: logger}
}

// InTx выполняет fn в транзакции: commit если fn вернула nil, иначе rollback.
// Нарушение уникальности запланированной встречи превращается в ErrSlotUnavailable.
func (s *BookingStore) InTx(ctx context.Context, fn func(ctx context.Context, tx service.BookingTx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &bookingTx{tx: tx}); err != nil {
		if base.IsUniqueViolation(err) {
			s.logger.Info("Concurrent booking hit unique constraint", zap.Error(err))
			return service.ErrSlotUnavailable
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if base.IsUniqueViolation(err) {
			return service.ErrSlotUnavailable
		}
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type bookingTx struct {
	tx pgx.Tx
}

func (t *bookingTx) LockLinkBySlug(ctx context.Context, slug string) (*model.SchedulingLink, error) {
	return getLink(ctx, t.tx, "slug", slug, true)
}

// LockAdvisor сериализует бронирования одного консультанта до конца транзакции
func (t *bookingTx) LockAdvisor(ctx context.Context, advisorID uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, advisorID.String())
	if err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}

func (t *bookingTx) HasOverlappingMeeting(ctx context.Context, advisorID uuid.UUID, iv model.Interval) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM meetings
			WHERE advisor_id = $1
			  AND status = 'scheduled'
			  AND start_time < $3
			  AND end_time > $2
		)
	`
	var exists bool
	if err := t.tx.QueryRow(ctx, query, advisorID, iv.Start, iv.End).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlapping meetings: %w", err)
	}
	return exists, nil
}

func (t *bookingTx) CreateMeeting(ctx context.Context, meeting *model.Meeting) error {
	return insertMeeting(ctx, t.tx, meeting)
}

func (t *bookingTx) CreateAnswers(ctx context.Context, answers []model.Answer) error {
	return insertAnswers(ctx, t.tx, answers)
}

// IncrementUsage условный инкремент: не проходит, если лимит уже исчерпан
func (t *bookingTx) IncrementUsage(ctx context.Context, linkID uuid.UUID) (bool, error) {
	query := `
		UPDATE scheduling_links
		SET usage_count = usage_count + 1, updated_at = now()
		WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)
	`
	tag, err := t.tx.Exec(ctx, query, linkID)
	if err != nil {
		return false, fmt.Errorf("increment usage: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
