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
)

// LinkRepository ссылки для записи, их вопросы и привязка к окнам
type LinkRepository struct {
	*base.Repository
}

func NewLinkRepository(pool *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{Repository: base.NewRepository(pool)}
}

const linkColumns = `id, advisor_id, name, slug, duration_minutes, max_days_in_advance,
	is_active, usage_limit, usage_count, expiration_date, created_at, updated_at`

func scanLink(row interface{ Scan(dest ...any) error }) (*model.SchedulingLink, error) {
	var l model.SchedulingLink
	err := row.Scan(
		&l.ID,
		&l.AdvisorID,
		&l.Name,
		&l.Slug,
		&l.DurationMinutes,
		&l.MaxDaysInAdvance,
		&l.IsActive,
		&l.UsageLimit,
		&l.UsageCount,
		&l.ExpirationDate,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// getLink читает одну ссылку с вопросами и окнами; forUpdate блокирует строку
func getLink(ctx context.Context, db base.Querier, column string, arg any, forUpdate bool) (*model.SchedulingLink, error) {
	query := `SELECT ` + linkColumns + ` FROM scheduling_links WHERE ` + column + ` = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	link, err := scanLink(db.QueryRow(ctx, query, arg))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get link by %s: %w", column, err)
	}

	if err := loadLinkDetails(ctx, db, []*model.SchedulingLink{link}); err != nil {
		return nil, err
	}
	return link, nil
}

// Create создаёт ссылку, её вопросы и привязку к окнам
func (r *LinkRepository) Create(ctx context.Context, link *model.SchedulingLink) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO scheduling_links
				(advisor_id, name, slug, duration_minutes, max_days_in_advance, is_active, usage_limit, expiration_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, usage_count, created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			link.AdvisorID,
			link.Name,
			link.Slug,
			link.DurationMinutes,
			link.MaxDaysInAdvance,
			link.IsActive,
			link.UsageLimit,
			link.ExpirationDate,
		).Scan(&link.ID, &link.UsageCount, &link.CreatedAt, &link.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert link: %w", err)
		}

		for i := range link.Questions {
			link.Questions[i].ID = uuid.Nil
		}
		if err := saveQuestions(ctx, tx, link); err != nil {
			return err
		}
		return replaceLinkWindows(ctx, tx, link)
	})
	if base.IsUniqueViolation(err) {
		return service.ErrSlugTaken
	}
	return err
}

// GetByID получает ссылку по ID
func (r *LinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SchedulingLink, error) {
	return getLink(ctx, r.DB(), "id", id, false)
}

// GetBySlug получает ссылку по slug
func (r *LinkRepository) GetBySlug(ctx context.Context, slug string) (*model.SchedulingLink, error) {
	return getLink(ctx, r.DB(), "slug", slug, false)
}

// ListByAdvisor получает ссылки консультанта с количеством встреч
func (r *LinkRepository) ListByAdvisor(ctx context.Context, advisorID uuid.UUID) ([]*model.SchedulingLink, error) {
	query := `
		SELECT ` + linkColumns + `,
			(SELECT count(*) FROM meetings m WHERE m.link_id = scheduling_links.id) AS meeting_count
		FROM scheduling_links
		WHERE advisor_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, advisorID)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var links []*model.SchedulingLink
	for rows.Next() {
		var l model.SchedulingLink
		err := rows.Scan(
			&l.ID,
			&l.AdvisorID,
			&l.Name,
			&l.Slug,
			&l.DurationMinutes,
			&l.MaxDaysInAdvance,
			&l.IsActive,
			&l.UsageLimit,
			&l.UsageCount,
			&l.ExpirationDate,
			&l.CreatedAt,
			&l.UpdatedAt,
			&l.MeetingCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}

	if err := loadLinkDetails(ctx, r.DB(), links); err != nil {
		return nil, err
	}
	return links, nil
}

// Update обновляет ссылку, синхронизирует вопросы и окна
func (r *LinkRepository) Update(ctx context.Context, link *model.SchedulingLink) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE scheduling_links
			SET name = $2, slug = $3, duration_minutes = $4, max_days_in_advance = $5,
			    is_active = $6, usage_limit = $7, expiration_date = $8, updated_at = now()
			WHERE id = $1
			RETURNING usage_count, updated_at
		`
		err := tx.QueryRow(ctx, query,
			link.ID,
			link.Name,
			link.Slug,
			link.DurationMinutes,
			link.MaxDaysInAdvance,
			link.IsActive,
			link.UsageLimit,
			link.ExpirationDate,
		).Scan(&link.UsageCount, &link.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update link: %w", err)
		}

		keep := make([]uuid.UUID, 0, len(link.Questions))
		for _, q := range link.Questions {
			if q.ID != uuid.Nil {
				keep = append(keep, q.ID)
			}
		}
		_, err = tx.Exec(ctx, `DELETE FROM questions WHERE link_id = $1 AND NOT (id = ANY($2))`, link.ID, keep)
		if err != nil {
			return fmt.Errorf("delete removed questions: %w", err)
		}

		if err := saveQuestions(ctx, tx, link); err != nil {
			return err
		}
		return replaceLinkWindows(ctx, tx, link)
	})
	if base.IsUniqueViolation(err) {
		return service.ErrSlugTaken
	}
	return err
}

// Delete удаляет ссылку без встреч
func (r *LinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM scheduling_links WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

// Deactivate выключает ссылку
func (r *LinkRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE scheduling_links SET is_active = false, updated_at = now() WHERE id = $1`
	if _, err := r.ExecAffected(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate link: %w", err)
	}
	return nil
}

// CountMeetings количество встреч по ссылке в любом статусе
func (r *LinkRepository) CountMeetings(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	if err := r.QueryRow(ctx, `SELECT count(*) FROM meetings WHERE link_id = $1`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count link meetings: %w", err)
	}
	return count, nil
}

// SlugExists проверяет занятость slug другой ссылкой
func (r *LinkRepository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM scheduling_links WHERE slug = $1 AND id <> $2)`
	if err := r.QueryRow(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func saveQuestions(ctx context.Context, tx pgx.Tx, link *model.SchedulingLink) error {
	insert := `INSERT INTO questions (link_id, text, display_order) VALUES ($1, $2, $3) RETURNING id`
	update := `UPDATE questions SET text = $3, display_order = $4 WHERE id = $1 AND link_id = $2`

	for i := range link.Questions {
		q := &link.Questions[i]
		q.LinkID = link.ID
		q.DisplayOrder = i

		if q.ID == uuid.Nil {
			if err := tx.QueryRow(ctx, insert, link.ID, q.Text, q.DisplayOrder).Scan(&q.ID); err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
			continue
		}
		if _, err := tx.Exec(ctx, update, q.ID, link.ID, q.Text, q.DisplayOrder); err != nil {
			return fmt.Errorf("update question: %w", err)
		}
	}
	return nil
}

func replaceLinkWindows(ctx context.Context, tx pgx.Tx, link *model.SchedulingLink) error {
	if _, err := tx.Exec(ctx, `DELETE FROM scheduling_link_windows WHERE link_id = $1`, link.ID); err != nil {
		return fmt.Errorf("delete link windows: %w", err)
	}
	if len(link.WindowIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO scheduling_link_windows (link_id, window_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.Exec(ctx, query, link.ID, link.WindowIDs); err != nil {
		return fmt.Errorf("insert link windows: %w", err)
	}
	return nil
}

// loadLinkDetails подгружает вопросы и окна для набора ссылок
func loadLinkDetails(ctx context.Context, db base.Querier, links []*model.SchedulingLink) error {
	if len(links) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*model.SchedulingLink, len(links))
	ids := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		byID[l.ID] = l
		l.Questions = []model.Question{}
		l.WindowIDs = []uuid.UUID{}
		ids = append(ids, l.ID)
	}

	rows, err := db.Query(ctx, `
		SELECT id, link_id, text, display_order
		FROM questions
		WHERE link_id = ANY($1)
		ORDER BY display_order, id
	`, ids)
	if err != nil {
		return fmt.Errorf("query questions: %w", err)
	}
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.LinkID, &q.Text, &q.DisplayOrder); err != nil {
			rows.Close()
			return fmt.Errorf("scan question: %w", err)
		}
		if l, ok := byID[q.LinkID]; ok {
			l.Questions = append(l.Questions, q)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate questions: %w", err)
	}

	rows, err = db.Query(ctx, `
		SELECT link_id, window_id
		FROM scheduling_link_windows
		WHERE link_id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("query link windows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var linkID, windowID uuid.UUID
		if err := rows.Scan(&linkID, &windowID); err != nil {
			return fmt.Errorf("scan link window: %w", err)
		}
		if l, ok := byID[linkID]; ok {
			l.WindowIDs = append(l.WindowIDs, windowID)
		}
	}
	return rows.Err()
}
