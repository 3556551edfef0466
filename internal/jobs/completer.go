// Package jobs holds the scheduled maintenance tasks the server runs in the
// background.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// CompletionStore is the slice of the reservation store the completer needs.
type CompletionStore interface {
	CompletePastConfirmed(ctx context.Context, now time.Time) (int64, error)
}

// Completer marks confirmed bookings whose end time has passed as completed.
// It implements cron.Job so it can be registered on the server's scheduler.
type Completer struct {
	store   CompletionStore
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

var _ cron.Job = (*Completer)(nil)

func NewCompleter(store CompletionStore, log *slog.Logger) *Completer {
	if log == nil {
		log = slog.Default()
	}
	return &Completer{
		store:   store,
		log:     log.With(slog.String("component", "jobs.completer")),
		timeout: 30 * time.Second,
		now:     time.Now,
	}
}

func (c *Completer) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	n, err := c.store.CompletePastConfirmed(ctx, c.now().UTC())
	if err != nil {
		c.log.Error("completing past bookings failed", slog.Any("err", err))
		return
	}
	if n > 0 {
		c.log.Info("bookings completed", slog.Int64("count", n))
	}
}
