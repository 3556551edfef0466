// Package availability manages the slots developers publish. Weekly slots are
// replaced in bulk per weekday (the publish flow deletes the day's slots and
// inserts the new set); date ranges are appended individually.
package availability

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"devbook/backend/internal/domain"
	"devbook/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	store store.AvailabilityStore
}

func NewService(st store.AvailabilityStore) *Service {
	return &Service{store: st}
}

type Window struct {
	StartMinute int16
	EndMinute   int16
}

func (s *Service) ReplaceWeekday(ctx context.Context, developerID uuid.UUID, weekday int16, windows []Window) ([]domain.AvailabilitySlot, error) {
	if developerID == uuid.Nil {
		return nil, validationError("developer_id is required")
	}
	if weekday < 0 || weekday > 6 {
		return nil, validationError("weekday must be between 0 and 6")
	}

	slots := make([]domain.AvailabilitySlot, 0, len(windows))
	for _, w := range windows {
		slot := domain.AvailabilitySlot{
			DeveloperID: developerID,
			Kind:        domain.SlotKindRecurringWeekly,
			Weekday:     weekday,
			StartMinute: w.StartMinute,
			EndMinute:   w.EndMinute,
			IsAvailable: true,
		}
		if err := slot.Validate(); err != nil {
			return nil, validationError(err.Error())
		}
		slots = append(slots, slot)
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].StartMinute < slots[j].StartMinute })
	for i := 1; i < len(slots); i++ {
		if slots[i].StartMinute < slots[i-1].EndMinute {
			return nil, validationError("windows must not overlap")
		}
	}

	return s.store.ReplaceWeekday(ctx, developerID, weekday, slots)
}

func (s *Service) AddDateRange(ctx context.Context, developerID uuid.UUID, startDate, endDate time.Time) (domain.AvailabilitySlot, error) {
	if developerID == uuid.Nil {
		return domain.AvailabilitySlot{}, validationError("developer_id is required")
	}

	slot := domain.AvailabilitySlot{
		DeveloperID: developerID,
		Kind:        domain.SlotKindDateRange,
		StartDate:   startDate,
		EndDate:     endDate,
		IsAvailable: true,
	}
	if err := slot.Validate(); err != nil {
		return domain.AvailabilitySlot{}, validationError(err.Error())
	}

	return s.store.CreateDateRange(ctx, slot)
}

func (s *Service) List(ctx context.Context, developerID uuid.UUID) ([]domain.AvailabilitySlot, error) {
	if developerID == uuid.Nil {
		return nil, validationError("developer_id is required")
	}
	return s.store.ListByDeveloper(ctx, developerID)
}

func (s *Service) Remove(ctx context.Context, developerID, slotID uuid.UUID) error {
	if developerID == uuid.Nil {
		return validationError("developer_id is required")
	}
	if slotID == uuid.Nil {
		return validationError("slot_id is required")
	}
	return s.store.Delete(ctx, developerID, slotID)
}
