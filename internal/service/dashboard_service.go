package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
)

// StatsRepository агрегаты кабинета
type StatsRepository interface {
	GetDashboardStats(ctx context.Context, advisorID uuid.UUID) (*model.DashboardStats, error)
}

// CalendarAccountLister подключённые календари консультанта
type CalendarAccountLister interface {
	ListAccounts(ctx context.Context, advisorID uuid.UUID) ([]*model.CalendarAccount, error)
}

// DashboardService сводка и подключённые календари для кабинета консультанта
type DashboardService struct {
	stats    StatsRepository
	accounts CalendarAccountLister
}

func NewDashboardService(stats StatsRepository, accounts CalendarAccountLister) *DashboardService {
	return &DashboardService{stats: stats, accounts: accounts}
}

// Stats возвращает счётчики кабинета
func (s *DashboardService) Stats(ctx context.Context, advisorID uuid.UUID) (*model.DashboardStats, error) {
	stats, err := s.stats.GetDashboardStats(ctx, advisorID)
	if err != nil {
		return nil, fmt.Errorf("get dashboard stats: %w", err)
	}
	return stats, nil
}

// CalendarAccounts возвращает подключённые календари; пустой список если их нет
func (s *DashboardService) CalendarAccounts(ctx context.Context, advisorID uuid.UUID) ([]*model.CalendarAccount, error) {
	accounts, err := s.accounts.ListAccounts(ctx, advisorID)
	if err != nil {
		return nil, fmt.Errorf("list calendar accounts: %w", err)
	}
	if accounts == nil {
		accounts = []*model.CalendarAccount{}
	}
	return accounts, nil
}
