package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"logistiko-backend/mailer"
	"logistiko-backend/models"
	"logistiko-backend/repository"
	"logistiko-backend/secrets"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// maxSendRetries bounds retries of transient failures. Together with the
// initial attempt a message is tried at most three times.
const maxSendRetries = 2

// EmailStore is the email persistence used by the dispatcher
type EmailStore interface {
	CreateLog(ctx context.Context, l *models.EmailLog) error
	UpdateLogOutcome(ctx context.Context, id uuid.UUID, status models.EmailStatus, errorMessage *string, retryCount int, sentAt *time.Time) error
	GetTemplateByID(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error)
	GetSettings(ctx context.Context) (*models.EmailSettings, error)
	RecordTestResult(ctx context.Context, id uuid.UUID, ok bool, testError *string, at time.Time) error
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.EmailLog, error)
	ListLogs(ctx context.Context, filter repository.EmailLogFilter, limit, offset int) ([]*models.EmailLog, error)
}

// EmailClientStore loads the client and obligation type referenced by a
// notification
type EmailClientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

// EmailTypeStore loads obligation types for template resolution
type EmailTypeStore interface {
	GetTypeByID(ctx context.Context, id uuid.UUID) (*models.ObligationType, error)
}

// smtpClient is what the dispatcher needs from a configured SMTP connection
type smtpClient interface {
	Send(ctx context.Context, msg mailer.Message) error
	TestConnection(ctx context.Context) error
}

// SenderFactory builds an SMTP client from decrypted settings. Replaced in
// tests.
type SenderFactory func(cfg mailer.SMTPConfig) smtpClient

// EmailService renders, rate-limits and delivers messages, recording one
// EmailLog row per logical send.
//
// The rate limiter is per process. Under a multi-process deployment each
// process holds its own bucket, so the global rate is approximate.
type EmailService struct {
	store   EmailStore
	clients EmailClientStore
	types   EmailTypeStore
	box     *secrets.Box
	factory SenderFactory
	backoff time.Duration

	mu           sync.Mutex
	limiter      *rate.Limiter
	limiterRate  float64
	limiterBurst int
}

// EmailServiceOption is a functional option for EmailService
type EmailServiceOption func(*EmailService)

// WithEmailStore sets the email persistence
func WithEmailStore(s EmailStore) EmailServiceOption {
	return func(svc *EmailService) {
		svc.store = s
	}
}

// WithEmailClientStore sets the client store used for rendering
func WithEmailClientStore(s EmailClientStore) EmailServiceOption {
	return func(svc *EmailService) {
		svc.clients = s
	}
}

// WithEmailTypeStore sets the obligation type store used for template resolution
func WithEmailTypeStore(s EmailTypeStore) EmailServiceOption {
	return func(svc *EmailService) {
		svc.types = s
	}
}

// WithSecretsBox sets the box used to decrypt the stored SMTP password
func WithSecretsBox(b *secrets.Box) EmailServiceOption {
	return func(svc *EmailService) {
		svc.box = b
	}
}

// WithSenderFactory overrides how SMTP clients are built
func WithSenderFactory(f SenderFactory) EmailServiceOption {
	return func(svc *EmailService) {
		svc.factory = f
	}
}

// WithBackoffBase overrides the first retry delay. Tests shrink it.
func WithBackoffBase(d time.Duration) EmailServiceOption {
	return func(svc *EmailService) {
		svc.backoff = d
	}
}

// NewEmailService creates a new email service
func NewEmailService(opts ...EmailServiceOption) *EmailService {
	svc := &EmailService{
		factory: func(cfg mailer.SMTPConfig) smtpClient {
			return mailer.NewSMTPSender(cfg)
		},
		backoff: time.Second,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// RenderTemplate substitutes {placeholder} tokens in a template string
func RenderTemplate(text string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// SendRequest represents one message to deliver
type SendRequest struct {
	Recipient    string
	Subject      string
	Body         string
	ClientID     *uuid.UUID
	ObligationID *uuid.UUID
	TemplateID   *uuid.UUID
	SenderID     *uuid.UUID
	ScheduledAt  *time.Time // future time defers the send to the scheduler
}

// Send delivers a message now, or queues it when ScheduledAt lies in the
// future. Exactly one EmailLog row records the outcome; transient failures
// are retried against the same row.
func (s *EmailService) Send(ctx context.Context, req SendRequest) (*models.EmailLog, error) {
	if s.store == nil {
		return nil, errors.New("email store not set")
	}
	if req.Recipient == "" {
		return nil, &ValidationError{Field: "recipient", Message: "is required"}
	}

	emailLog := &models.EmailLog{
		ClientID:     req.ClientID,
		ObligationID: req.ObligationID,
		TemplateID:   req.TemplateID,
		SenderID:     req.SenderID,
		Recipient:    req.Recipient,
		Subject:      req.Subject,
		Body:         req.Body,
		Status:       models.EmailPending,
		ScheduledAt:  req.ScheduledAt,
	}

	if req.ScheduledAt != nil && req.ScheduledAt.After(time.Now()) {
		emailLog.Status = models.EmailQueued
		if err := s.store.CreateLog(ctx, emailLog); err != nil {
			return nil, fmt.Errorf("failed to queue email: %w", err)
		}
		return emailLog, nil
	}

	if err := s.store.CreateLog(ctx, emailLog); err != nil {
		return nil, fmt.Errorf("failed to create email log: %w", err)
	}

	return emailLog, s.deliver(ctx, emailLog)
}

// Dispatch delivers an already-queued log row. Used by the scheduler for due
// scheduled sends.
func (s *EmailService) Dispatch(ctx context.Context, emailLog *models.EmailLog) error {
	return s.deliver(ctx, emailLog)
}

// deliver runs the rate-limited, retried send and records the outcome on the
// log row
func (s *EmailService) deliver(ctx context.Context, emailLog *models.EmailLog) error {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load smtp settings: %w", err)
	}
	if settings == nil {
		s.finish(ctx, emailLog, models.EmailFailed, ErrSMTPNotConfigured.Error(), 0, nil)
		return ErrSMTPNotConfigured
	}

	password := ""
	if len(settings.PasswordCipher) > 0 && s.box != nil {
		plain, err := s.box.Decrypt(settings.PasswordCipher, settings.PasswordNonce)
		if err != nil {
			s.finish(ctx, emailLog, models.EmailFailed, "failed to decrypt smtp password", 0, nil)
			return fmt.Errorf("failed to decrypt smtp password: %w", err)
		}
		password = string(plain)
	}

	sender := s.factory(mailer.SMTPConfig{
		Host:     settings.Host,
		Port:     settings.Port,
		Username: settings.Username,
		Password: password,
		UseTLS:   settings.UseTLS,
	})

	msg := mailer.Message{
		To:          emailLog.Recipient,
		Subject:     emailLog.Subject,
		Body:        emailLog.Body,
		FromAddress: settings.FromAddress,
		FromName:    settings.FromName,
	}

	limiter := s.limiterFor(settings)

	attempts := 0
	backoff := retry.WithMaxRetries(maxSendRetries, retry.NewExponential(s.backoff))
	sendErr := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		attempts++
		err := sender.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if mailer.Classify(err) == mailer.ClassTransient {
			return retry.RetryableError(err)
		}
		return err
	})

	retries := attempts - 1
	if retries < 0 {
		retries = 0
	}

	if sendErr != nil {
		s.finish(ctx, emailLog, models.EmailFailed, sendErr.Error(), retries, nil)
		return fmt.Errorf("failed to send email to %s: %w", emailLog.Recipient, sendErr)
	}

	now := time.Now()
	s.finish(ctx, emailLog, models.EmailSent, "", retries, &now)
	return nil
}

func (s *EmailService) finish(ctx context.Context, emailLog *models.EmailLog, status models.EmailStatus, errMsg string, retries int, sentAt *time.Time) {
	emailLog.Status = status
	emailLog.RetryCount = retries
	emailLog.SentAt = sentAt
	var msgPtr *string
	if errMsg != "" {
		msgPtr = &errMsg
		emailLog.ErrorMessage = msgPtr
	}
	if err := s.store.UpdateLogOutcome(ctx, emailLog.ID, status, msgPtr, retries, sentAt); err != nil {
		log.Printf("Failed to record email outcome for log %s: %v", emailLog.ID, err)
	}
}

// limiterFor returns the shared limiter, rebuilding it when the configured
// rate changed
func (s *EmailService) limiterFor(settings *models.EmailSettings) *rate.Limiter {
	perSecond := settings.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := settings.Burst
	if burst <= 0 {
		burst = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limiter == nil || s.limiterRate != perSecond || s.limiterBurst != burst {
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		s.limiterRate = perSecond
		s.limiterBurst = burst
	}
	return s.limiter
}

// NoticeRequest asks for a completion notification for an obligation
type NoticeRequest struct {
	Obligation *models.MonthlyObligation
	TemplateID *uuid.UUID
	SenderID   *uuid.UUID
}

// SendObligationNotice resolves the template (explicit, else the obligation
// type's default), renders it from client and obligation fields and sends it
// to the client.
func (s *EmailService) SendObligationNotice(ctx context.Context, req NoticeRequest) (*models.EmailLog, error) {
	if s.clients == nil || s.types == nil {
		return nil, errors.New("email service is not fully configured")
	}

	client, err := s.clients.GetByID(ctx, req.Obligation.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if client.Email == "" {
		return nil, &ValidationError{Field: "client.email", Message: "client has no email address"}
	}

	obType, err := s.types.GetTypeByID(ctx, req.Obligation.ObligationTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load obligation type: %w", err)
	}

	templateID := req.TemplateID
	if templateID == nil {
		templateID = obType.DefaultTemplateID
	}
	if templateID == nil {
		return nil, &ValidationError{Field: "template_id", Message: "no template given and obligation type has no default"}
	}

	template, err := s.store.GetTemplateByID(ctx, *templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	data := map[string]string{
		"client_name":     client.Name,
		"client_afm":      client.AFM,
		"obligation_type": obType.Name,
		"year":            fmt.Sprintf("%04d", req.Obligation.Year),
		"month":           fmt.Sprintf("%02d", req.Obligation.Month),
		"deadline":        req.Obligation.Deadline.Format("02/01/2006"),
	}

	return s.Send(ctx, SendRequest{
		Recipient:    client.Email,
		Subject:      RenderTemplate(template.Subject, data),
		Body:         RenderTemplate(template.Body, data),
		ClientID:     &client.ID,
		ObligationID: &req.Obligation.ID,
		TemplateID:   templateID,
		SenderID:     req.SenderID,
	})
}

// TestSettings dials the configured server and records the outcome on the
// settings row. This is the only path that touches last_test_*.
func (s *EmailService) TestSettings(ctx context.Context) error {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load smtp settings: %w", err)
	}
	if settings == nil {
		return ErrSMTPNotConfigured
	}

	password := ""
	if len(settings.PasswordCipher) > 0 && s.box != nil {
		plain, err := s.box.Decrypt(settings.PasswordCipher, settings.PasswordNonce)
		if err != nil {
			return fmt.Errorf("failed to decrypt smtp password: %w", err)
		}
		password = string(plain)
	}

	sender := s.factory(mailer.SMTPConfig{
		Host:     settings.Host,
		Port:     settings.Port,
		Username: settings.Username,
		Password: password,
		UseTLS:   settings.UseTLS,
	})

	testErr := sender.TestConnection(ctx)
	now := time.Now()
	var errMsg *string
	if testErr != nil {
		msg := testErr.Error()
		errMsg = &msg
	}
	if err := s.store.RecordTestResult(ctx, settings.ID, testErr == nil, errMsg, now); err != nil {
		return fmt.Errorf("failed to record test result: %w", err)
	}

	return testErr
}

// DispatchDueScheduled sends queued messages whose scheduled time passed.
// Called by the scheduler. Returns how many were attempted.
func (s *EmailService) DispatchDueScheduled(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListDueScheduled(ctx, now, 50)
	if err != nil {
		return 0, fmt.Errorf("failed to list due emails: %w", err)
	}

	for _, emailLog := range due {
		if err := s.deliver(ctx, emailLog); err != nil {
			log.Printf("Scheduled email %s failed: %v", emailLog.ID, err)
		}
	}

	return len(due), nil
}
