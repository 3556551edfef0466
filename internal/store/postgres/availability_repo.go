package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"devbook/backend/internal/domain"
	"devbook/backend/internal/store"
)

type AvailabilityRepo struct {
	db *bun.DB
}

func NewAvailabilityRepo(db *bun.DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

// ReplaceWeekday deletes every recurring slot the developer has on the weekday
// and inserts the given ones, all in one transaction. Slots currently held by
// a confirmed booking are deleted with the rest; the booking flow tolerates a
// missing slot on cancellation.
func (r *AvailabilityRepo) ReplaceWeekday(ctx context.Context, developerID uuid.UUID, weekday int16, slots []domain.AvailabilitySlot) ([]domain.AvailabilitySlot, error) {
	out := make([]domain.AvailabilitySlot, len(slots))
	copy(out, slots)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*domain.AvailabilitySlot)(nil)).
			Where("developer_id = ?", developerID).
			Where("kind = ?", domain.SlotKindRecurringWeekly).
			Where("weekday = ?", weekday).
			Exec(ctx)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}
		_, err = tx.NewInsert().Model(&out).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AvailabilityRepo) CreateDateRange(ctx context.Context, slot domain.AvailabilitySlot) (domain.AvailabilitySlot, error) {
	m := slot
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.AvailabilitySlot{}, err
	}
	return m, nil
}

func (r *AvailabilityRepo) ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]domain.AvailabilitySlot, error) {
	var rows []domain.AvailabilitySlot
	err := r.db.NewSelect().
		Model(&rows).
		Where("developer_id = ?", developerID).
		OrderExpr("kind ASC, weekday ASC, start_minute ASC, start_date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AvailabilityRepo) Delete(ctx context.Context, developerID, slotID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.AvailabilitySlot)(nil)).
		Where("developer_id = ?", developerID).
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
