package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"devbook/backend/internal/domain"
)

// ReservationTx is the set of write-lock guarded primitives available inside a
// reservation transaction. SlotForUpdate and BookingForUpdate must hold the
// returned row locked until the transaction ends, so a fetch-check-mutate
// sequence over them is not interleavable with a concurrent caller.
type ReservationTx interface {
	SlotForUpdate(ctx context.Context, slotID uuid.UUID) (domain.AvailabilitySlot, error)
	UpdateSlotAvailability(ctx context.Context, slotID uuid.UUID, available bool) error
	InsertBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	BookingForUpdate(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, status domain.BookingStatus) error
	DeleteBooking(ctx context.Context, bookingID uuid.UUID) error
}

// ReservationStore persists bookings. InTx runs fn inside a single atomic
// unit; fn either fully commits or leaves no visible state behind.
type ReservationStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx ReservationTx) error) error

	ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Booking, error)
	ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]domain.Booking, error)
	CompletePastConfirmed(ctx context.Context, now time.Time) (int64, error)
}
