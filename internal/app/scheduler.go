package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MeetingCompleter переводит завершившиеся встречи в статус completed
type MeetingCompleter interface {
	CompleteEnded(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	cron       *cron.Cron
	meetings   MeetingCompleter
	jobTimeout time.Duration
	logger     *zap.Logger
}

// NewScheduler создаёт планировщик; schedule - cron-выражение задачи завершения встреч
func NewScheduler(schedule string, meetings MeetingCompleter, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		meetings:   meetings,
		jobTimeout: time.Minute,
		logger:     logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.completeMeetings); err != nil {
		return nil, fmt.Errorf("schedule meeting completion %q: %w", schedule, err)
	}

	return s, nil
}

// Start запускает фоновые задачи
func (s *Scheduler) Start() {
	s.logger.Info("Starting background scheduler")

	// Первый запуск сразу при старте
	go s.completeMeetings()

	s.cron.Start()
}

// Stop останавливает планировщик и ждёт завершения текущей задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	<-s.cron.Stop().Done()
}

// completeMeetings помечает прошедшие встречи завершёнными
func (s *Scheduler) completeMeetings() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	count, err := s.meetings.CompleteEnded(ctx)
	if err != nil {
		s.logger.Error("Failed to complete ended meetings", zap.Error(err))
		return
	}

	if count > 0 {
		s.logger.Info("Ended meetings marked completed", zap.Int64("count", count))
	}
}
