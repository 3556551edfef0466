// Package notify delivers booking emails out of band. Delivery is
// best-effort: failures are logged and never surfaced to the booking flow.
package notify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"devbook/backend/internal/domain"
)

// Notifier is invoked by the reservation engine after a transaction commits.
// Implementations must not block the caller on network delivery.
type Notifier interface {
	BookingConfirmed(booking domain.Booking, client, developer domain.User)
	BookingCancelled(booking domain.Booking, client, developer domain.User)
}

// Nop discards all notifications. Used in tests and when no sendgrid key is
// configured.
type Nop struct{}

func (Nop) BookingConfirmed(domain.Booking, domain.User, domain.User) {}
func (Nop) BookingCancelled(domain.Booking, domain.User, domain.User) {}

type EmailConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	Location  *time.Location
}

type EmailNotifier struct {
	cfg  EmailConfig
	log  *slog.Logger
	send func(*mail.SGMailV3) error
}

func NewEmailNotifier(cfg EmailConfig, log *slog.Logger) *EmailNotifier {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.FromName == "" {
		cfg.FromName = "Devbook"
	}
	client := sendgrid.NewSendClient(cfg.APIKey)
	return &EmailNotifier{
		cfg: cfg,
		log: log.With(slog.String("component", "notify.email")),
		send: func(m *mail.SGMailV3) error {
			resp, err := client.Send(m)
			if err != nil {
				return err
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
			}
			return nil
		},
	}
}

func (n *EmailNotifier) BookingConfirmed(booking domain.Booking, client, developer domain.User) {
	n.dispatch("confirmed", booking, client, developer)
}

func (n *EmailNotifier) BookingCancelled(booking domain.Booking, client, developer domain.User) {
	n.dispatch("cancelled", booking, client, developer)
}

func (n *EmailNotifier) dispatch(status string, booking domain.Booking, client, developer domain.User) {
	start := booking.StartTime.In(n.cfg.Location).Format("02 Jan 2006 15:04 MST")
	end := booking.EndTime.In(n.cfg.Location).Format("02 Jan 2006 15:04 MST")
	from := mail.NewEmail(n.cfg.FromName, n.cfg.FromEmail)
	subject := fmt.Sprintf("Your Devbook session is %s", status)

	messages := []*mail.SGMailV3{
		mail.NewSingleEmail(
			from, subject, mail.NewEmail(client.Name, client.Email),
			fmt.Sprintf(
				"Hello %s,\n\nYour session with %s is %s.\n\nStart: %s\nEnd: %s\n\nThank you for using Devbook.",
				client.Name, developer.Name, status, start, end,
			),
			"",
		),
		mail.NewSingleEmail(
			from, subject, mail.NewEmail(developer.Name, developer.Email),
			fmt.Sprintf(
				"Hello %s,\n\nYour session with %s is %s.\n\nStart: %s\nEnd: %s\n\nThank you for using Devbook.",
				developer.Name, client.Name, status, start, end,
			),
			"",
		),
	}

	go func() {
		for _, m := range messages {
			if err := n.send(m); err != nil {
				n.log.Warn(
					"booking email delivery failed",
					slog.String("booking_id", booking.ID.String()),
					slog.String("status", status),
					slog.Any("err", err),
				)
			}
		}
	}()
}
