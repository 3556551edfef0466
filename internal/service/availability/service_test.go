package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"devbook/backend/internal/domain"
)

type fakeStore struct {
	replaceWeekdayFn  func(ctx context.Context, developerID uuid.UUID, weekday int16, slots []domain.AvailabilitySlot) ([]domain.AvailabilitySlot, error)
	createDateRangeFn func(ctx context.Context, slot domain.AvailabilitySlot) (domain.AvailabilitySlot, error)
	listFn            func(ctx context.Context, developerID uuid.UUID) ([]domain.AvailabilitySlot, error)
	deleteFn          func(ctx context.Context, developerID, slotID uuid.UUID) error
}

func (f *fakeStore) ReplaceWeekday(ctx context.Context, developerID uuid.UUID, weekday int16, slots []domain.AvailabilitySlot) ([]domain.AvailabilitySlot, error) {
	if f.replaceWeekdayFn == nil {
		panic("ReplaceWeekday not configured")
	}
	return f.replaceWeekdayFn(ctx, developerID, weekday, slots)
}

func (f *fakeStore) CreateDateRange(ctx context.Context, slot domain.AvailabilitySlot) (domain.AvailabilitySlot, error) {
	if f.createDateRangeFn == nil {
		panic("CreateDateRange not configured")
	}
	return f.createDateRangeFn(ctx, slot)
}

func (f *fakeStore) ListByDeveloper(ctx context.Context, developerID uuid.UUID) ([]domain.AvailabilitySlot, error) {
	if f.listFn == nil {
		panic("ListByDeveloper not configured")
	}
	return f.listFn(ctx, developerID)
}

func (f *fakeStore) Delete(ctx context.Context, developerID, slotID uuid.UUID) error {
	if f.deleteFn == nil {
		panic("Delete not configured")
	}
	return f.deleteFn(ctx, developerID, slotID)
}

var developerID = uuid.MustParse("00000000-0000-0000-0000-0000000000d1")

func TestReplaceWeekday_BuildsActiveSlots(t *testing.T) {
	var got []domain.AvailabilitySlot
	svc := NewService(&fakeStore{
		replaceWeekdayFn: func(ctx context.Context, devID uuid.UUID, weekday int16, slots []domain.AvailabilitySlot) ([]domain.AvailabilitySlot, error) {
			got = slots
			return slots, nil
		},
	})

	_, err := svc.ReplaceWeekday(context.Background(), developerID, 2, []Window{
		{StartMinute: 14 * 60, EndMinute: 15 * 60},
		{StartMinute: 10 * 60, EndMinute: 11 * 60},
	})
	if err != nil {
		t.Fatalf("ReplaceWeekday error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("slots = %d, want 2", len(got))
	}
	for _, slot := range got {
		if slot.Kind != domain.SlotKindRecurringWeekly || slot.Weekday != 2 {
			t.Fatalf("unexpected slot shape: %+v", slot)
		}
		if !slot.IsAvailable {
			t.Fatalf("published slots must start available")
		}
	}
	if got[0].StartMinute != 10*60 {
		t.Fatalf("slots should be sorted by start, got %d first", got[0].StartMinute)
	}
}

func TestReplaceWeekday_EmptyClearsDay(t *testing.T) {
	called := false
	svc := NewService(&fakeStore{
		replaceWeekdayFn: func(ctx context.Context, devID uuid.UUID, weekday int16, slots []domain.AvailabilitySlot) ([]domain.AvailabilitySlot, error) {
			called = true
			if len(slots) != 0 {
				t.Fatalf("slots = %d, want 0", len(slots))
			}
			return slots, nil
		},
	})

	if _, err := svc.ReplaceWeekday(context.Background(), developerID, 3, nil); err != nil {
		t.Fatalf("ReplaceWeekday error: %v", err)
	}
	if !called {
		t.Fatalf("store not called")
	}
}

func TestReplaceWeekday_Validation(t *testing.T) {
	svc := NewService(&fakeStore{
		replaceWeekdayFn: func(ctx context.Context, devID uuid.UUID, weekday int16, slots []domain.AvailabilitySlot) ([]domain.AvailabilitySlot, error) {
			return slots, nil
		},
	})

	cases := []struct {
		name    string
		weekday int16
		windows []Window
	}{
		{"weekday out of range", 7, []Window{{StartMinute: 600, EndMinute: 660}}},
		{"start after end", 2, []Window{{StartMinute: 660, EndMinute: 600}}},
		{"overlapping windows", 2, []Window{
			{StartMinute: 600, EndMinute: 720},
			{StartMinute: 660, EndMinute: 780},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ReplaceWeekday(context.Background(), developerID, tc.weekday, tc.windows)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
		})
	}
}

func TestAddDateRange_Validation(t *testing.T) {
	svc := NewService(&fakeStore{
		createDateRangeFn: func(ctx context.Context, slot domain.AvailabilitySlot) (domain.AvailabilitySlot, error) {
			return slot, nil
		},
	})

	start := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.AddDateRange(context.Background(), developerID, start, end)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}

	slot, err := svc.AddDateRange(context.Background(), developerID, end, start)
	if err != nil {
		t.Fatalf("AddDateRange error: %v", err)
	}
	if slot.Kind != domain.SlotKindDateRange || !slot.IsAvailable {
		t.Fatalf("unexpected slot shape: %+v", slot)
	}
}
