package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"devbook/backend/internal/domain"
	"devbook/backend/internal/store"
)

func TestPostgresIntegration_ReserveReleasePrimitives(t *testing.T) {
	databaseURL := strings.TrimSpace(os.Getenv("DEVBOOK_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("DEVBOOK_TEST_DATABASE_URL not set")
	}

	db, err := Open(databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})

	schema := "devbook_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema).Exec(ctx); err != nil {
			return err
		}
		if err := applyMigrations(ctx, tx); err != nil {
			return err
		}

		client := domain.User{
			ID:           uuid.MustParse("00000000-0000-0000-0000-000000000c01"),
			Email:        "client@example.com",
			Name:         "Client",
			PasswordHash: "x",
			Role:         domain.UserRoleClient,
		}
		developer := domain.User{
			ID:           uuid.MustParse("00000000-0000-0000-0000-000000000d01"),
			Email:        "dev@example.com",
			Name:         "Dev",
			PasswordHash: "x",
			Role:         domain.UserRoleDeveloper,
		}
		if _, err := tx.NewInsert().Model(&client).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(&developer).Exec(ctx); err != nil {
			return err
		}

		slot := domain.AvailabilitySlot{
			ID:          uuid.MustParse("00000000-0000-0000-0000-000000000a01"),
			DeveloperID: developer.ID,
			Kind:        domain.SlotKindRecurringWeekly,
			Weekday:     2,
			StartMinute: 10 * 60,
			EndMinute:   11 * 60,
			IsAvailable: true,
		}
		if _, err := tx.NewInsert().Model(&slot).Exec(ctx); err != nil {
			return err
		}

		rtx := reservationTx{tx: tx}

		got, err := rtx.SlotForUpdate(ctx, slot.ID)
		if err != nil {
			return err
		}
		if !got.IsAvailable {
			return fmt.Errorf("fresh slot should be available")
		}

		start := time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)
		booking, err := rtx.InsertBooking(ctx, domain.Booking{
			ClientID:    client.ID,
			DeveloperID: developer.ID,
			SlotID:      slot.ID,
			StartTime:   start,
			EndTime:     start.Add(time.Hour),
			Status:      domain.BookingStatusConfirmed,
		})
		if err != nil {
			return err
		}
		if booking.ID == uuid.Nil {
			return fmt.Errorf("expected assigned booking id")
		}
		if err := rtx.UpdateSlotAvailability(ctx, slot.ID, false); err != nil {
			return err
		}

		got, err = rtx.SlotForUpdate(ctx, slot.ID)
		if err != nil {
			return err
		}
		if got.IsAvailable {
			return fmt.Errorf("reserved slot should be unavailable")
		}

		// The partial unique index rejects a second confirmed booking even if
		// the availability check were bypassed. A savepoint keeps the
		// expected failure from aborting the outer transaction.
		if _, err := tx.NewRaw("SAVEPOINT duplicate_confirmed").Exec(ctx); err != nil {
			return err
		}
		_, err = rtx.InsertBooking(ctx, domain.Booking{
			ClientID:    client.ID,
			DeveloperID: developer.ID,
			SlotID:      slot.ID,
			StartTime:   start,
			EndTime:     start.Add(time.Hour),
			Status:      domain.BookingStatusConfirmed,
		})
		if err == nil {
			return fmt.Errorf("expected unique violation for second confirmed booking")
		}
		if _, err := tx.NewRaw("ROLLBACK TO SAVEPOINT duplicate_confirmed").Exec(ctx); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}

	schema2 := "devbook_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = db.NewRaw("DROP SCHEMA IF EXISTS " + schema2 + " CASCADE").Exec(ctx)
	})

	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema2).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema2).Exec(ctx); err != nil {
			return err
		}
		if err := applyMigrations(ctx, tx); err != nil {
			return err
		}

		client := domain.User{
			Email:        "client2@example.com",
			Name:         "Client",
			PasswordHash: "x",
			Role:         domain.UserRoleClient,
		}
		developer := domain.User{
			Email:        "dev2@example.com",
			Name:         "Dev",
			PasswordHash: "x",
			Role:         domain.UserRoleDeveloper,
		}
		if _, err := tx.NewInsert().Model(&client).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(&developer).Exec(ctx); err != nil {
			return err
		}

		slot := domain.AvailabilitySlot{
			DeveloperID: developer.ID,
			Kind:        domain.SlotKindRecurringWeekly,
			Weekday:     2,
			StartMinute: 10 * 60,
			EndMinute:   11 * 60,
			IsAvailable: false,
		}
		if _, err := tx.NewInsert().Model(&slot).Exec(ctx); err != nil {
			return err
		}

		start := time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)
		rtx := reservationTx{tx: tx}
		booking, err := rtx.InsertBooking(ctx, domain.Booking{
			ClientID:    client.ID,
			DeveloperID: developer.ID,
			SlotID:      slot.ID,
			StartTime:   start,
			EndTime:     start.Add(time.Hour),
			Status:      domain.BookingStatusConfirmed,
		})
		if err != nil {
			return err
		}

		locked, err := rtx.BookingForUpdate(ctx, booking.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.BookingStatusConfirmed {
			return fmt.Errorf("status = %s, want confirmed", locked.Status)
		}

		if err := rtx.UpdateBookingStatus(ctx, booking.ID, domain.BookingStatusCancelled); err != nil {
			return err
		}
		if err := rtx.UpdateSlotAvailability(ctx, slot.ID, true); err != nil {
			return err
		}

		reread, err := rtx.BookingForUpdate(ctx, booking.ID)
		if err != nil {
			return err
		}
		if reread.Status != domain.BookingStatusCancelled {
			return fmt.Errorf("status = %s, want cancelled", reread.Status)
		}
		reslot, err := rtx.SlotForUpdate(ctx, slot.ID)
		if err != nil {
			return err
		}
		if !reslot.IsAvailable {
			return fmt.Errorf("released slot should be available")
		}

		if _, err := rtx.SlotForUpdate(ctx, uuid.MustParse("00000000-0000-0000-0000-00000000ffff")); err != store.ErrSlotNotFound {
			return fmt.Errorf("missing slot err = %v, want %v", err, store.ErrSlotNotFound)
		}
		if _, err := rtx.BookingForUpdate(ctx, uuid.MustParse("00000000-0000-0000-0000-00000000fffe")); err != store.ErrBookingNotFound {
			return fmt.Errorf("missing booking err = %v, want %v", err, store.ErrBookingNotFound)
		}

		if err := rtx.DeleteBooking(ctx, booking.ID); err != nil {
			return err
		}
		if _, err := rtx.BookingForUpdate(ctx, booking.ID); err != store.ErrBookingNotFound {
			return fmt.Errorf("deleted booking err = %v, want %v", err, store.ErrBookingNotFound)
		}

		return nil
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}

type rawExecutor interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

func applyMigrations(ctx context.Context, exec rawExecutor) error {
	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type mig struct {
		name string
		path string
	}
	migs := make([]mig, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		migs = append(migs, mig{name: e.Name(), path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].name < migs[j].name })

	for _, m := range migs {
		b, err := os.ReadFile(m.path)
		if err != nil {
			return err
		}
		upSQL, err := extractGooseUp(string(b))
		if err != nil {
			return err
		}
		for _, stmt := range splitSQLStatements(upSQL) {
			if _, err := exec.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

func migrationsDir() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("runtime.Caller failed")
	}
	base := filepath.Dir(file)
	return filepath.Clean(filepath.Join(base, "..", "..", "..", "migrations")), nil
}

func extractGooseUp(sql string) (string, error) {
	upMarker := "-- +goose Up"
	downMarker := "-- +goose Down"

	upIdx := strings.Index(sql, upMarker)
	if upIdx < 0 {
		return "", fmt.Errorf("missing goose up marker")
	}
	afterUp := sql[upIdx+len(upMarker):]
	afterUp = strings.TrimLeft(afterUp, "\r\n")

	downIdx := strings.Index(afterUp, downMarker)
	if downIdx < 0 {
		return strings.TrimSpace(afterUp), nil
	}
	return strings.TrimSpace(afterUp[:downIdx]), nil
}

func splitSQLStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
