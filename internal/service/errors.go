package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
)

var (
	// ErrNotFound сущность не найдена или принадлежит другому консультанту
	ErrNotFound = errors.New("not found")
	// ErrSlotUnavailable выбранное время больше недоступно
	ErrSlotUnavailable = errors.New("slot no longer available")
	// ErrSlugTaken slug ссылки уже занят
	ErrSlugTaken = errors.New("slug is already taken")
	// ErrBusyProvider не удалось получить занятость из календарей
	ErrBusyProvider = errors.New("busy interval provider unavailable")
	// ErrInvalidTransition недопустимая смена статуса встречи
	ErrInvalidTransition = errors.New("invalid meeting status transition")
)

// LinkInvalidError ссылку нельзя использовать по указанной причине
type LinkInvalidError struct {
	Reason model.LinkInvalidReason
}

func (e *LinkInvalidError) Error() string {
	return fmt.Sprintf("scheduling link is not usable: %s", e.Reason)
}

// ValidationError ошибки входных данных по полям
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.FieldErrors[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add добавляет ошибку поля
func (e *ValidationError) Add(field, message string) {
	if e.FieldErrors == nil {
		e.FieldErrors = make(map[string]string)
	}
	e.FieldErrors[field] = message
}

// HasErrors сообщает о наличии ошибок
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.FieldErrors) > 0
}

// OrNil возвращает nil если ошибок нет
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func invalidField(field, message string) error {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}
