// Package notify fans a completed upload out to the intake mailbox, the
// applicant and the admin channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Mailer sends the two intake emails over the configured SMTP account.
type Mailer interface {
	SendResume(ctx context.Context, applicantEmail, filePath string) error
	SendConfirmation(ctx context.Context, applicantEmail string) error
}

// AdminMessenger posts to the operational admin channel.
type AdminMessenger interface {
	SendAdminMessage(ctx context.Context, text string) error
}

// Dispatcher drives the three outbound notifications of an upload. Only the
// resume forward can fail the upload; the other two are best-effort.
type Dispatcher struct {
	mailer Mailer
	admin  AdminMessenger
}

func NewDispatcher(mailer Mailer, admin AdminMessenger) (*Dispatcher, error) {
	if mailer == nil {
		return nil, errors.New("notify: mailer must not be nil")
	}
	if admin == nil {
		return nil, errors.New("notify: admin messenger must not be nil")
	}
	return &Dispatcher{mailer: mailer, admin: admin}, nil
}

// ForwardResume emails the staged resume to the intake mailbox. Failure here
// is the terminal failure of the upload step.
func (d *Dispatcher) ForwardResume(ctx context.Context, applicantEmail, filePath string) error {
	if err := d.mailer.SendResume(ctx, applicantEmail, filePath); err != nil {
		return fmt.Errorf("notify: forward resume for %s: %w", applicantEmail, err)
	}
	return nil
}

// ConfirmToApplicant emails a receipt to the applicant. Failures are logged
// and never surface to the conversation.
func (d *Dispatcher) ConfirmToApplicant(ctx context.Context, applicantEmail string) {
	if err := d.mailer.SendConfirmation(ctx, applicantEmail); err != nil {
		slog.Error("confirmation email failed", "email", applicantEmail, "err", err)
	}
}

// NotifyAdmin posts the submission to the admin channel and returns the
// human-readable outcome recorded in the ledger. Failure is captured in the
// outcome string, not propagated.
func (d *Dispatcher) NotifyAdmin(ctx context.Context, applicantEmail, fileName string) string {
	text := fmt.Sprintf("New resume submitted by %s. Filename: %s", applicantEmail, fileName)
	if err := d.admin.SendAdminMessage(ctx, text); err != nil {
		slog.Error("admin notification failed", "email", applicantEmail, "err", err)
		return fmt.Sprintf("Admin notification failed: %v", err)
	}
	return "Admin notified"
}
