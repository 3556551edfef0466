// Package reservations owns slot-to-booking state transitions. Every
// transition runs inside a single store transaction so that concurrent
// reservers of one slot serialize on its row lock: exactly one caller observes
// the slot available, the rest fail with store.ErrSlotUnavailable.
package reservations

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"devbook/backend/internal/domain"
	"devbook/backend/internal/notify"
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
	store    store.ReservationStore
	users    store.UserStore
	notifier notify.Notifier
	loc      *time.Location
	log      *slog.Logger
	now      func() time.Time
}

func NewService(st store.ReservationStore, users store.UserStore, notifier notify.Notifier, loc *time.Location, log *slog.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:    st,
		users:    users,
		notifier: notifier,
		loc:      loc,
		log:      log.With(slog.String("component", "reservations")),
		now:      time.Now,
	}
}

type ReserveInput struct {
	ClientID    uuid.UUID
	DeveloperID uuid.UUID
	SlotID      uuid.UUID
	Notes       string
}

// Reserve books the slot for the client: within one atomic unit the slot row
// is locked, checked, a confirmed booking inserted and the slot flipped
// unavailable. A developer mismatch reports store.ErrSlotNotFound so the
// existence of other developers' slots does not leak.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (domain.Booking, error) {
	if in.ClientID == uuid.Nil {
		return domain.Booking{}, validationError("client_id is required")
	}
	if in.DeveloperID == uuid.Nil {
		return domain.Booking{}, validationError("developer_id is required")
	}
	if in.SlotID == uuid.Nil {
		return domain.Booking{}, validationError("slot_id is required")
	}

	var booking domain.Booking
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.ReservationTx) error {
		slot, err := tx.SlotForUpdate(ctx, in.SlotID)
		if err != nil {
			return err
		}
		if slot.DeveloperID != in.DeveloperID {
			return store.ErrSlotNotFound
		}
		if !slot.IsAvailable {
			return store.ErrSlotUnavailable
		}

		start, end, err := slot.NextOccurrence(s.now(), s.loc)
		if err != nil {
			if errors.Is(err, domain.ErrNoUpcomingOccurrence) {
				return store.ErrSlotUnavailable
			}
			return err
		}

		b, err := tx.InsertBooking(ctx, domain.Booking{
			ClientID:    in.ClientID,
			DeveloperID: in.DeveloperID,
			SlotID:      slot.ID,
			StartTime:   start,
			EndTime:     end,
			Status:      domain.BookingStatusConfirmed,
			Notes:       strings.TrimSpace(in.Notes),
		})
		if err != nil {
			return err
		}
		if err := tx.UpdateSlotAvailability(ctx, slot.ID, false); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}

	s.log.Info(
		"booking confirmed",
		slog.String("booking_id", booking.ID.String()),
		slog.String("slot_id", booking.SlotID.String()),
		slog.String("client_id", booking.ClientID.String()),
		slog.Time("start_time", booking.StartTime),
	)
	s.dispatchNotification(ctx, booking)
	return booking, nil
}

// Release cancels the booking and reactivates its slot. Calling it twice is
// safe; the second call reports store.ErrAlreadyCancelled instead of silently
// succeeding. A slot deleted by developer management in the meantime is
// logged and otherwise ignored.
func (s *Service) Release(ctx context.Context, bookingID, clientID uuid.UUID) (domain.Booking, error) {
	if bookingID == uuid.Nil {
		return domain.Booking{}, validationError("booking_id is required")
	}
	if clientID == uuid.Nil {
		return domain.Booking{}, validationError("client_id is required")
	}

	var booking domain.Booking
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.ReservationTx) error {
		b, err := tx.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.ClientID != clientID {
			return store.ErrNotBookingOwner
		}
		if b.Status == domain.BookingStatusCancelled {
			return store.ErrAlreadyCancelled
		}

		if err := tx.UpdateBookingStatus(ctx, b.ID, domain.BookingStatusCancelled); err != nil {
			return err
		}
		if err := tx.UpdateSlotAvailability(ctx, b.SlotID, true); err != nil {
			if !errors.Is(err, store.ErrSlotNotFound) {
				return err
			}
			s.log.Warn(
				"slot missing on release, booking cancelled anyway",
				slog.String("booking_id", b.ID.String()),
				slog.String("slot_id", b.SlotID.String()),
			)
		}
		b.Status = domain.BookingStatusCancelled
		booking = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}

	s.log.Info(
		"booking cancelled",
		slog.String("booking_id", booking.ID.String()),
		slog.String("slot_id", booking.SlotID.String()),
	)
	s.dispatchNotification(ctx, booking)
	return booking, nil
}

// Delete removes a cancelled booking owned by the client. The slot was
// already reactivated when the booking was cancelled, so this is pure row
// removal.
func (s *Service) Delete(ctx context.Context, bookingID, clientID uuid.UUID) error {
	if bookingID == uuid.Nil {
		return validationError("booking_id is required")
	}
	if clientID == uuid.Nil {
		return validationError("client_id is required")
	}

	return s.store.InTx(ctx, func(ctx context.Context, tx store.ReservationTx) error {
		b, err := tx.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.ClientID != clientID {
			return store.ErrNotBookingOwner
		}
		if b.Status != domain.BookingStatusCancelled {
			return store.ErrBookingNotCancelled
		}
		return tx.DeleteBooking(ctx, b.ID)
	})
}

func (s *Service) ListForClient(ctx context.Context, clientID uuid.UUID) ([]domain.Booking, error) {
	if clientID == uuid.Nil {
		return nil, validationError("client_id is required")
	}
	return s.store.ListByClient(ctx, clientID)
}

func (s *Service) ListForDeveloper(ctx context.Context, developerID uuid.UUID) ([]domain.Booking, error) {
	if developerID == uuid.Nil {
		return nil, validationError("developer_id is required")
	}
	return s.store.ListByDeveloper(ctx, developerID)
}

// dispatchNotification resolves both parties and hands off to the notifier.
// It runs after the transaction committed; any failure here is logged and
// never affects the reservation result.
func (s *Service) dispatchNotification(ctx context.Context, booking domain.Booking) {
	client, err := s.users.GetByID(ctx, booking.ClientID)
	if err != nil {
		s.log.Warn("notification skipped: client lookup failed", slog.String("booking_id", booking.ID.String()), slog.Any("err", err))
		return
	}
	developer, err := s.users.GetByID(ctx, booking.DeveloperID)
	if err != nil {
		s.log.Warn("notification skipped: developer lookup failed", slog.String("booking_id", booking.ID.String()), slog.Any("err", err))
		return
	}
	if booking.Status == domain.BookingStatusCancelled {
		s.notifier.BookingCancelled(booking, client, developer)
		return
	}
	s.notifier.BookingConfirmed(booking, client, developer)
}
