package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MeetingRepository встречи и ответы клиентов
type MeetingRepository struct {
	*base.Repository
}

func NewMeetingRepository(pool *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{Repository: base.NewRepository(pool)}
}

const meetingColumns = `m.id, m.advisor_id, m.link_id, m.start_time, m.end_time, m.client_email,
	m.client_linkedin, m.status, m.enrichment_summary, m.created_at, l.name`

func scanMeeting(row interface{ Scan(dest ...any) error }) (*model.Meeting, error) {
	var m model.Meeting
	err := row.Scan(
		&m.ID,
		&m.AdvisorID,
		&m.LinkID,
		&m.StartTime,
		&m.EndTime,
		&m.ClientEmail,
		&m.ClientLinkedIn,
		&m.Status,
		&m.EnrichmentSummary,
		&m.CreatedAt,
		&m.LinkName,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID получает встречу вместе с ответами
func (r *MeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings m
		JOIN scheduling_links l ON l.id = m.link_id
		WHERE m.id = $1
	`

	meeting, err := scanMeeting(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get meeting by id: %w", err)
	}

	answers, err := r.listAnswers(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	meeting.Answers = answers

	return meeting, nil
}

// ListScheduledBetween запланированные встречи, пересекающие [from, to)
func (r *MeetingRepository) ListScheduledBetween(ctx context.Context, advisorID uuid.UUID, from, to time.Time) ([]*model.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings m
		JOIN scheduling_links l ON l.id = m.link_id
		WHERE m.advisor_id = $1
		  AND m.status = 'scheduled'
		  AND m.start_time < $3
		  AND m.end_time > $2
		ORDER BY m.start_time
	`
	return r.list(ctx, query, advisorID, from, to)
}

// ListByAdvisorBetween встречи со статусом status, начинающиеся в [from, to)
func (r *MeetingRepository) ListByAdvisorBetween(ctx context.Context, advisorID uuid.UUID, from, to time.Time, status model.MeetingStatus) ([]*model.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings m
		JOIN scheduling_links l ON l.id = m.link_id
		WHERE m.advisor_id = $1
		  AND m.start_time >= $2
		  AND m.start_time < $3
		  AND m.status = $4
		ORDER BY m.start_time
	`
	return r.list(ctx, query, advisorID, from, to, status)
}

// ListPast встречи, начавшиеся до before, от новых к старым
func (r *MeetingRepository) ListPast(ctx context.Context, advisorID uuid.UUID, before time.Time, limit int) ([]*model.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings m
		JOIN scheduling_links l ON l.id = m.link_id
		WHERE m.advisor_id = $1
		  AND m.start_time < $2
		ORDER BY m.start_time DESC
		LIMIT $3
	`
	return r.list(ctx, query, advisorID, before, limit)
}

// UpdateStatus меняет статус только если текущий равен from
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.MeetingStatus) (bool, error) {
	query := `UPDATE meetings SET status = $3 WHERE id = $1 AND status = $2`

	affected, err := r.ExecAffected(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("update meeting status: %w", err)
	}
	return affected > 0, nil
}

// CompleteEnded переводит в completed все запланированные встречи, закончившиеся к now
func (r *MeetingRepository) CompleteEnded(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE meetings SET status = 'completed' WHERE status = 'scheduled' AND end_time <= $1`

	affected, err := r.ExecAffected(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("complete ended meetings: %w", err)
	}
	return affected, nil
}

// SetEnrichmentSummary сохраняет сводку профиля клиента
func (r *MeetingRepository) SetEnrichmentSummary(ctx context.Context, meetingID uuid.UUID, summary string) error {
	if _, err := r.ExecAffected(ctx, `UPDATE meetings SET enrichment_summary = $2 WHERE id = $1`, meetingID, summary); err != nil {
		return fmt.Errorf("set enrichment summary: %w", err)
	}
	return nil
}

// SetAugmentedNote сохраняет дополненный ответ
func (r *MeetingRepository) SetAugmentedNote(ctx context.Context, answerID uuid.UUID, note string) error {
	if _, err := r.ExecAffected(ctx, `UPDATE answers SET augmented_note = $2 WHERE id = $1`, answerID, note); err != nil {
		return fmt.Errorf("set augmented note: %w", err)
	}
	return nil
}

func (r *MeetingRepository) list(ctx context.Context, query string, args ...any) ([]*model.Meeting, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query meetings: %w", err)
	}
	defer rows.Close()

	meetings := []*model.Meeting{}
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}
	return meetings, nil
}

func (r *MeetingRepository) listAnswers(ctx context.Context, meetingID uuid.UUID) ([]model.Answer, error) {
	query := `
		SELECT a.id, a.meeting_id, a.question_id, a.question_text, a.text, a.augmented_note
		FROM answers a
		LEFT JOIN questions q ON q.id = a.question_id
		WHERE a.meeting_id = $1
		ORDER BY q.display_order NULLS LAST, a.id
	`

	rows, err := r.Query(ctx, query, meetingID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	answers := []model.Answer{}
	for rows.Next() {
		var (
			a          model.Answer
			questionID *uuid.UUID
		)
		if err := rows.Scan(&a.ID, &a.MeetingID, &questionID, &a.QuestionText, &a.Text, &a.AugmentedNote); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if questionID != nil {
			a.QuestionID = *questionID
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// insertMeeting создаёт встречу в рамках транзакции
func insertMeeting(ctx context.Context, tx pgx.Tx, m *model.Meeting) error {
	query := `
		INSERT INTO meetings (advisor_id, link_id, start_time, end_time, client_email, client_linkedin, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return tx.QueryRow(ctx, query,
		m.AdvisorID,
		m.LinkID,
		m.StartTime,
		m.EndTime,
		m.ClientEmail,
		m.ClientLinkedIn,
		m.Status,
	).Scan(&m.ID, &m.CreatedAt)
}

// insertAnswers создаёт ответы в рамках транзакции, заполняя их ID
func insertAnswers(ctx context.Context, tx pgx.Tx, answers []model.Answer) error {
	query := `
		INSERT INTO answers (meeting_id, question_id, question_text, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range answers {
		a := &answers[i]
		if err := tx.QueryRow(ctx, query, a.MeetingID, a.QuestionID, a.QuestionText, a.Text).Scan(&a.ID); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}
	return nil
}
