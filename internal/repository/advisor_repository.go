package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdvisorRepository struct {
	*base.Repository
}

func NewAdvisorRepository(pool *pgxpool.Pool) *AdvisorRepository {
	return &AdvisorRepository{Repository: base.NewRepository(pool)}
}

const advisorColumns = `id, email, name, timezone, telegram_chat_id, created_at`

func scanAdvisor(row interface{ Scan(dest ...any) error }) (*model.Advisor, error) {
	var a model.Advisor
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.Timezone, &a.TelegramChatID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert создаёт консультанта или обновляет email и имя существующего
func (r *AdvisorRepository) Upsert(ctx context.Context, advisor *model.Advisor) error {
	query := `
		INSERT INTO advisors (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = CASE WHEN EXCLUDED.name = '' THEN advisors.name ELSE EXCLUDED.name END
		RETURNING ` + advisorColumns

	a, err := scanAdvisor(r.QueryRow(ctx, query, advisor.ID, advisor.Email, advisor.Name))
	if err != nil {
		return fmt.Errorf("upsert advisor: %w", err)
	}
	*advisor = *a
	return nil
}

// GetByID получает консультанта по ID
func (r *AdvisorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Advisor, error) {
	query := `SELECT ` + advisorColumns + ` FROM advisors WHERE id = $1`

	advisor, err := scanAdvisor(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get advisor by id: %w", err)
	}
	return advisor, nil
}

// GetByTelegramChatID получает консультанта по привязанному чату
func (r *AdvisorRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Advisor, error) {
	query := `SELECT ` + advisorColumns + ` FROM advisors WHERE telegram_chat_id = $1`

	advisor, err := scanAdvisor(r.QueryRow(ctx, query, chatID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get advisor by telegram chat: %w", err)
	}
	return advisor, nil
}

// SetTelegramChatID привязывает или отвязывает чат Telegram
func (r *AdvisorRepository) SetTelegramChatID(ctx context.Context, advisorID uuid.UUID, chatID *int64) error {
	query := `UPDATE advisors SET telegram_chat_id = $2 WHERE id = $1`

	affected, err := r.ExecAffected(ctx, query, advisorID, chatID)
	if err != nil {
		return fmt.Errorf("set telegram chat id: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("advisor not found: %s", advisorID)
	}
	return nil
}
