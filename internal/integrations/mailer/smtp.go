// Package mailer sends the intake emails through one authenticated SMTP
// account: the resume forward to the fixed intake mailbox and the receipt to
// the applicant.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

// Options configures the SMTP account and the fixed addresses.
type Options struct {
	Host          string
	Port          int
	SenderAddress string
	SenderSecret  string
	IntakeAddress string

	ConfirmationSubject string
	ConfirmationBody    string
}

// SMTP is the mail transport. One Client is reused across sends.
type SMTP struct {
	client *mail.Client
	opts   Options
}

func New(opts Options) (*SMTP, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, errors.New("mailer: host must not be empty")
	}
	if strings.TrimSpace(opts.SenderAddress) == "" || opts.SenderSecret == "" {
		return nil, errors.New("mailer: sender credentials required")
	}
	if strings.TrimSpace(opts.IntakeAddress) == "" {
		return nil, errors.New("mailer: intake address must not be empty")
	}
	client, err := mail.NewClient(opts.Host,
		mail.WithPort(opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(opts.SenderAddress),
		mail.WithPassword(opts.SenderSecret),
	)
	if err != nil {
		return nil, fmt.Errorf("mailer: create client: %w", err)
	}
	return &SMTP{client: client, opts: opts}, nil
}

// SendResume emails the staged file to the intake mailbox, with the applicant
// set as reply-to so recruiters can answer directly.
func (s *SMTP) SendResume(ctx context.Context, applicantEmail, filePath string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.opts.SenderAddress); err != nil {
		return fmt.Errorf("mailer: set from: %w", err)
	}
	if err := msg.To(s.opts.IntakeAddress); err != nil {
		return fmt.Errorf("mailer: set to: %w", err)
	}
	if err := msg.ReplyTo(applicantEmail); err != nil {
		return fmt.Errorf("mailer: set reply-to: %w", err)
	}
	msg.Subject("New Resume Received")
	msg.SetBodyString(mail.TypeTextPlain,
		fmt.Sprintf("We have received a new resume from %s. Please find the attached file.", applicantEmail))
	msg.AttachFile(filePath)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send resume: %w", err)
	}
	return nil
}

// SendConfirmation emails the receipt to the applicant.
func (s *SMTP) SendConfirmation(ctx context.Context, applicantEmail string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.opts.SenderAddress); err != nil {
		return fmt.Errorf("mailer: set from: %w", err)
	}
	if err := msg.To(applicantEmail); err != nil {
		return fmt.Errorf("mailer: set to: %w", err)
	}
	msg.Subject(s.opts.ConfirmationSubject)
	msg.SetBodyString(mail.TypeTextPlain, s.opts.ConfirmationBody)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send confirmation: %w", err)
	}
	return nil
}
