package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"devbook/backend/internal/domain"
	"devbook/backend/internal/store"
)

type ReservationRepo struct {
	db *bun.DB
}

func NewReservationRepo(db *bun.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

type reservationTx struct {
	tx bun.Tx
}

// InTx runs fn in a single database transaction. Row locks taken through the
// ReservationTx primitives are held until commit or rollback.
func (r *ReservationRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx store.ReservationTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, reservationTx{tx: tx})
	})
}

func (r *ReservationRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("client_id = ?", clientID).
		OrderExpr("start_time DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("developer_id = ?", developerID).
		OrderExpr("start_time DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReservationRepo) CompletePastConfirmed(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*domain.Booking)(nil)).
		Set("status = ?", domain.BookingStatusCompleted).
		Set("updated_at = ?", now.UTC()).
		Where("status = ?", domain.BookingStatusConfirmed).
		Where("end_time <= ?", now.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t reservationTx) SlotForUpdate(ctx context.Context, slotID uuid.UUID) (domain.AvailabilitySlot, error) {
	var slot domain.AvailabilitySlot
	err := t.tx.NewSelect().
		Model(&slot).
		Where("id = ?", slotID).
		For("UPDATE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AvailabilitySlot{}, store.ErrSlotNotFound
		}
		return domain.AvailabilitySlot{}, err
	}
	return slot, nil
}

func (t reservationTx) UpdateSlotAvailability(ctx context.Context, slotID uuid.UUID, available bool) error {
	res, err := t.tx.NewUpdate().
		Model((*domain.AvailabilitySlot)(nil)).
		Set("is_available = ?", available).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", slotID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrSlotNotFound
	}
	return nil
}

func (t reservationTx) InsertBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	m := booking
	if _, err := t.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Booking{}, err
	}
	return m, nil
}

func (t reservationTx) BookingForUpdate(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error) {
	var booking domain.Booking
	err := t.tx.NewSelect().
		Model(&booking).
		Where("id = ?", bookingID).
		For("UPDATE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, store.ErrBookingNotFound
		}
		return domain.Booking{}, err
	}
	return booking, nil
}

func (t reservationTx) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, status domain.BookingStatus) error {
	res, err := t.tx.NewUpdate().
		Model((*domain.Booking)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", bookingID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrBookingNotFound
	}
	return nil
}

func (t reservationTx) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.Booking)(nil)).
		Where("id = ?", bookingID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrBookingNotFound
	}
	return nil
}
