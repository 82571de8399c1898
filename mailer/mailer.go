// Package mailer delivers messages over SMTP and classifies delivery
// failures so the email service can decide what to retry.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"
)

// sendTimeout bounds one SMTP dial+send attempt. Outbound calls fail closed.
const sendTimeout = 5 * time.Second

// Message is one rendered email ready for delivery
type Message struct {
	To          string
	Subject     string
	Body        string
	FromAddress string
	FromName    string
}

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the decrypted connection settings for the SMTP sender
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
}

// SMTPSender implements Sender using gomail
type SMTPSender struct {
	dialer *gomail.Dialer
}

// NewSMTPSender creates a sender for the given SMTP settings
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}
	return &SMTPSender{dialer: d}
}

// Send delivers one message, bounded by sendTimeout
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	if msg.FromName != "" {
		m.SetAddressHeader("From", msg.FromAddress, msg.FromName)
	} else {
		m.SetHeader("From", msg.FromAddress)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp send timed out: %w", ctx.Err())
	}
}

// TestConnection dials the server and closes the connection without sending.
// Used only by the explicit settings test endpoint.
func (s *SMTPSender) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		closer, err := s.dialer.Dial()
		if err == nil {
			closer.Close()
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp connection test timed out: %w", ctx.Err())
	}
}
