package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusRejected  BookingStatus = "rejected"
)

// Booking links one client, one developer and one availability slot to an
// absolute time window. While a booking is confirmed its slot stays
// unavailable; cancelling reactivates the slot.
type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID          uuid.UUID     `bun:"id,pk,type:uuid"`
	ClientID    uuid.UUID     `bun:"client_id,notnull,type:uuid"`
	DeveloperID uuid.UUID     `bun:"developer_id,notnull,type:uuid"`
	SlotID      uuid.UUID     `bun:"slot_id,notnull,type:uuid"`
	StartTime   time.Time     `bun:"start_time,notnull"`
	EndTime     time.Time     `bun:"end_time,notnull"`
	Status      BookingStatus `bun:"status,notnull"`
	Notes       string        `bun:"notes"`
	CreatedAt   time.Time     `bun:"created_at,notnull"`
	UpdatedAt   time.Time     `bun:"updated_at,notnull"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}
