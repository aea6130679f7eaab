package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
)

// Verdict результат проверки ссылки
type Verdict struct {
	Link   *model.SchedulingLink
	Valid  bool
	Reason model.LinkInvalidReason
}

// Err возвращает *LinkInvalidError для невалидного вердикта
func (v Verdict) Err() error {
	if v.Valid {
		return nil
	}
	return &LinkInvalidError{Reason: v.Reason}
}

// ValidateLink чистая проверка снимка ссылки на момент now
func ValidateLink(link *model.SchedulingLink, now time.Time) Verdict {
	reason, ok := link.Check(now)
	if !ok {
		return Verdict{Link: link, Reason: reason}
	}
	return Verdict{Link: link, Valid: true}
}

// LinkValidator решает, можно ли сейчас использовать ссылку
type LinkValidator struct {
	links LinkReader
	clock Clock
}

func NewLinkValidator(links LinkReader, clock Clock) *LinkValidator {
	return &LinkValidator{links: links, clock: clock}
}

// Validate проверяет ссылку по slug: существование, активность, лимит, срок действия.
// При бронировании проверка обязательно повторяется внутри транзакции.
func (v *LinkValidator) Validate(ctx context.Context, slug string) (Verdict, error) {
	link, err := v.links.GetBySlug(ctx, slug)
	if err != nil {
		return Verdict{}, fmt.Errorf("get link by slug: %w", err)
	}
	return ValidateLink(link, v.clock.now()), nil
}
