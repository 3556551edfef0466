package store

import (
	"context"

	"github.com/google/uuid"

	"devbook/backend/internal/domain"
)

// AvailabilityStore persists declared developer availability. ReplaceWeekday
// implements the bulk publish flow: all of the developer's recurring slots for
// the weekday are deleted and the given ones inserted in one transaction.
type AvailabilityStore interface {
	ReplaceWeekday(ctx context.Context, developerID uuid.UUID, weekday int16, slots []domain.AvailabilitySlot) ([]domain.AvailabilitySlot, error)
	CreateDateRange(ctx context.Context, slot domain.AvailabilitySlot) (domain.AvailabilitySlot, error)
	ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]domain.AvailabilitySlot, error)
	Delete(ctx context.Context, developerID, slotID uuid.UUID) error
}
