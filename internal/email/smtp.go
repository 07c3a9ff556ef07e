package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/hospitalops/etrack-api/internal/config"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPService returns a gomail-backed sender.
func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *smtpService) SendRequestAssigned(ctx context.Context, to, assigneeName, requestID string) error {
	subject := "E-Track: new request assigned"
	body := fmt.Sprintf("Hello %s,\n\nA new request (%s) has been assigned to you.\nPlease open the dashboard to accept it.", assigneeName, requestID)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendRequestStatusChanged(ctx context.Context, to, requestID, status string) error {
	subject := fmt.Sprintf("E-Track: request %s", status)
	body := fmt.Sprintf("Request %s is now %s.", requestID, status)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.send(ctx, to, subject, content)
}
