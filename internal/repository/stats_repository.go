package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository агрегаты для кабинета консультанта
type StatsRepository struct {
	*base.Repository
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{Repository: base.NewRepository(pool)}
}

// GetDashboardStats считает встречи, активные ссылки, календари и активные окна одним запросом
func (r *StatsRepository) GetDashboardStats(ctx context.Context, advisorID uuid.UUID) (*model.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM meetings WHERE advisor_id = $1),
			(SELECT COUNT(*) FROM scheduling_links WHERE advisor_id = $1 AND is_active),
			(SELECT COUNT(*) FROM calendar_accounts WHERE advisor_id = $1),
			(SELECT COUNT(*) FROM scheduling_windows WHERE advisor_id = $1 AND is_active)
	`

	var stats model.DashboardStats
	err := r.QueryRow(ctx, query, advisorID).Scan(
		&stats.TotalMeetings,
		&stats.ActiveLinks,
		&stats.ConnectedCalendars,
		&stats.ActiveWindows,
	)
	if err != nil {
		return nil, fmt.Errorf("query dashboard stats: %w", err)
	}
	return &stats, nil
}
