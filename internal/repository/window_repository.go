package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WindowRepository окна расписания и их еженедельные слоты
type WindowRepository struct {
	*base.Repository
}

func NewWindowRepository(pool *pgxpool.Pool) *WindowRepository {
	return &WindowRepository{Repository: base.NewRepository(pool)}
}

const windowColumns = `id, advisor_id, name, is_active, created_at, updated_at`

// Create создаёт окно и его слоты в одной транзакции
func (r *WindowRepository) Create(ctx context.Context, window *model.SchedulingWindow) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO scheduling_windows (advisor_id, name, is_active)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query, window.AdvisorID, window.Name, window.IsActive).
			Scan(&window.ID, &window.CreatedAt, &window.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert window: %w", err)
		}

		return insertSlots(ctx, tx, window)
	})
}

// GetByID получает окно со слотами
func (r *WindowRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SchedulingWindow, error) {
	query := `SELECT ` + windowColumns + ` FROM scheduling_windows WHERE id = $1`

	var w model.SchedulingWindow
	err := r.QueryRow(ctx, query, id).Scan(&w.ID, &w.AdvisorID, &w.Name, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get window by id: %w", err)
	}

	windows := []*model.SchedulingWindow{&w}
	if err := r.loadSlots(ctx, windows); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListByAdvisor получает все окна консультанта
func (r *WindowRepository) ListByAdvisor(ctx context.Context, advisorID uuid.UUID) ([]*model.SchedulingWindow, error) {
	query := `
		SELECT ` + windowColumns + `
		FROM scheduling_windows
		WHERE advisor_id = $1
		ORDER BY created_at
	`
	return r.list(ctx, query, advisorID)
}

// ListActiveWindows получает активные окна консультанта; пустой windowIDs означает все
func (r *WindowRepository) ListActiveWindows(ctx context.Context, advisorID uuid.UUID, windowIDs []uuid.UUID) ([]*model.SchedulingWindow, error) {
	if len(windowIDs) == 0 {
		query := `
			SELECT ` + windowColumns + `
			FROM scheduling_windows
			WHERE advisor_id = $1 AND is_active = true
			ORDER BY created_at
		`
		return r.list(ctx, query, advisorID)
	}

	query := `
		SELECT ` + windowColumns + `
		FROM scheduling_windows
		WHERE advisor_id = $1 AND is_active = true AND id = ANY($2)
		ORDER BY created_at
	`
	return r.list(ctx, query, advisorID, windowIDs)
}

// Update обновляет окно и полностью заменяет его слоты
func (r *WindowRepository) Update(ctx context.Context, window *model.SchedulingWindow) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE scheduling_windows
			SET name = $2, is_active = $3, updated_at = now()
			WHERE id = $1
			RETURNING updated_at
		`
		if err := tx.QueryRow(ctx, query, window.ID, window.Name, window.IsActive).Scan(&window.UpdatedAt); err != nil {
			return fmt.Errorf("update window: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM weekly_slots WHERE window_id = $1`, window.ID); err != nil {
			return fmt.Errorf("delete window slots: %w", err)
		}

		return insertSlots(ctx, tx, window)
	})
}

// Delete удаляет окно, слоты и привязки к ссылкам удаляются каскадом
func (r *WindowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM scheduling_windows WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete window: %w", err)
	}
	return nil
}

func (r *WindowRepository) list(ctx context.Context, query string, args ...any) ([]*model.SchedulingWindow, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query windows: %w", err)
	}
	defer rows.Close()

	var windows []*model.SchedulingWindow
	for rows.Next() {
		var w model.SchedulingWindow
		if err := rows.Scan(&w.ID, &w.AdvisorID, &w.Name, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		windows = append(windows, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate windows: %w", err)
	}

	if err := r.loadSlots(ctx, windows); err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *WindowRepository) loadSlots(ctx context.Context, windows []*model.SchedulingWindow) error {
	if len(windows) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*model.SchedulingWindow, len(windows))
	ids := make([]uuid.UUID, 0, len(windows))
	for _, w := range windows {
		byID[w.ID] = w
		w.Slots = []model.WeeklySlot{}
		ids = append(ids, w.ID)
	}

	query := `
		SELECT id, window_id, weekday, start_hour, start_minute, end_hour, end_minute
		FROM weekly_slots
		WHERE window_id = ANY($1)
		ORDER BY weekday, start_hour, start_minute
	`
	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query weekly slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			slot                    model.WeeklySlot
			weekday, sh, sm, eh, em int
		)
		if err := rows.Scan(&slot.ID, &slot.WindowID, &weekday, &sh, &sm, &eh, &em); err != nil {
			return fmt.Errorf("scan weekly slot: %w", err)
		}
		slot.DayOfWeek = model.Weekday(weekday)
		slot.StartTime = model.TimeOfDay{Hour: sh, Minute: sm}
		slot.EndTime = model.TimeOfDay{Hour: eh, Minute: em}

		if w, ok := byID[slot.WindowID]; ok {
			w.Slots = append(w.Slots, slot)
		}
	}
	return rows.Err()
}

func insertSlots(ctx context.Context, tx pgx.Tx, window *model.SchedulingWindow) error {
	query := `
		INSERT INTO weekly_slots (window_id, weekday, start_hour, start_minute, end_hour, end_minute)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	for i := range window.Slots {
		slot := &window.Slots[i]
		slot.WindowID = window.ID
		err := tx.QueryRow(ctx, query,
			window.ID,
			int(slot.DayOfWeek),
			slot.StartTime.Hour,
			slot.StartTime.Minute,
			slot.EndTime.Hour,
			slot.EndTime.Minute,
		).Scan(&slot.ID)
		if err != nil {
			return fmt.Errorf("insert weekly slot: %w", err)
		}
	}
	return nil
}
