package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SlotKind string

const (
	SlotKindRecurringWeekly SlotKind = "recurring_weekly"
	SlotKindDateRange       SlotKind = "date_range"
)

// ErrNoUpcomingOccurrence is returned when a slot has no occurrence that can
// still be booked (a date range whose end has already passed).
var ErrNoUpcomingOccurrence = errors.New("no upcoming occurrence")

// AvailabilitySlot is a unit of declared developer availability: either a
// weekly recurring window (weekday + wall-clock minutes) or an inclusive date
// range. IsAvailable is the field the reservation engine contends over; it is
// flipped false by a successful reservation and true again by a cancellation.
type AvailabilitySlot struct {
	bun.BaseModel `bun:"table:availability_slots"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	DeveloperID uuid.UUID `bun:"developer_id,notnull,type:uuid"`
	Kind        SlotKind  `bun:"kind,notnull"`
	Weekday     int16     `bun:"weekday"`      // 0 (Sunday) through 6, recurring_weekly only
	StartMinute int16     `bun:"start_minute"` // minutes after local midnight
	EndMinute   int16     `bun:"end_minute"`
	StartDate   time.Time `bun:"start_date,nullzero"` // date_range only, inclusive
	EndDate     time.Time `bun:"end_date,nullzero"`   // date_range only, inclusive
	IsAvailable bool      `bun:"is_available,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func (s *AvailabilitySlot) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}

func (s AvailabilitySlot) Validate() error {
	switch s.Kind {
	case SlotKindRecurringWeekly:
		if s.Weekday < 0 || s.Weekday > 6 {
			return errors.New("weekday must be between 0 and 6")
		}
		if s.StartMinute < 0 || s.EndMinute > 24*60 {
			return errors.New("window must fall within a single day")
		}
		if s.StartMinute >= s.EndMinute {
			return errors.New("start time must be before end time")
		}
	case SlotKindDateRange:
		if s.StartDate.IsZero() || s.EndDate.IsZero() {
			return errors.New("start date and end date are required")
		}
		if dateOnly(s.EndDate).Before(dateOnly(s.StartDate)) {
			return errors.New("start date must not be after end date")
		}
	default:
		return errors.New("unknown slot kind")
	}
	return nil
}

// NextOccurrence resolves a slot to the absolute window a booking made at
// `now` covers, in loc as the reference timezone.
//
// For recurring_weekly slots it is the earliest occurrence of the slot's
// weekday at its start wall-clock time that begins strictly after now; a
// window later today counts as today's occurrence. For date_range slots the
// occurrence is the whole declared range, midnight of the start date through
// midnight after the end date, and it remains bookable until the range ends.
func (s AvailabilitySlot) NextOccurrence(now time.Time, loc *time.Location) (start, end time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}

	switch s.Kind {
	case SlotKindRecurringWeekly:
		local := now.In(loc)
		for dayOffset := 0; dayOffset <= 7; dayOffset++ {
			day := local.AddDate(0, 0, dayOffset)
			if int16(day.Weekday()) != s.Weekday {
				continue
			}
			occStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc).
				Add(time.Duration(s.StartMinute) * time.Minute)
			if !occStart.After(now) {
				continue
			}
			occEnd := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc).
				Add(time.Duration(s.EndMinute) * time.Minute)
			return occStart.UTC(), occEnd.UTC(), nil
		}
		return time.Time{}, time.Time{}, ErrNoUpcomingOccurrence

	case SlotKindDateRange:
		sd := dateOnly(s.StartDate)
		ed := dateOnly(s.EndDate)
		occStart := time.Date(sd.Year(), sd.Month(), sd.Day(), 0, 0, 0, 0, loc)
		occEnd := time.Date(ed.Year(), ed.Month(), ed.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		if !occEnd.After(now) {
			return time.Time{}, time.Time{}, ErrNoUpcomingOccurrence
		}
		return occStart.UTC(), occEnd.UTC(), nil
	}

	return time.Time{}, time.Time{}, errors.New("unknown slot kind")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
