package notify

import (
	"context"
	"errors"

	"github.com/Freeeeeet/advisor_scheduler/internal/service"
)

// Fanout отправляет уведомление через все каналы; ошибка одного канала не
// мешает остальным, ошибки объединяются
type Fanout []service.Notifier

func (f Fanout) Notify(ctx context.Context, to service.Recipient, data service.NotificationData) error {
	var errs []error
	for _, n := range f {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, to, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
