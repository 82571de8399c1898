package service

import (
	"context"
	"errors"
	"net/textproto"
	"testing"
	"time"

	"logistiko-backend/mailer"
	"logistiko-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings() *models.EmailSettings {
	return &models.EmailSettings{
		ID:            uuid.New(),
		Host:          "smtp.example.gr",
		Port:          587,
		Username:      "office",
		FromAddress:   "office@example.gr",
		FromName:      "Logistiko",
		UseTLS:        true,
		RatePerSecond: 1000,
		Burst:         100,
	}
}

func newTestEmailService(store *fakeEmailStore, sender *fakeSender, opts ...EmailServiceOption) *EmailService {
	base := []EmailServiceOption{
		WithEmailStore(store),
		WithSenderFactory(func(cfg mailer.SMTPConfig) smtpClient { return sender }),
		WithBackoffBase(time.Millisecond),
	}
	return NewEmailService(append(base, opts...)...)
}

func TestSendSuccess(t *testing.T) {
	store := newFakeEmailStore(testSettings())
	sender := &fakeSender{}
	svc := newTestEmailService(store, sender)

	emailLog, err := svc.Send(context.Background(), SendRequest{
		Recipient: "client@example.gr",
		Subject:   "March VAT",
		Body:      "Your VAT return is due.",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, models.EmailSent, emailLog.Status)
	assert.Equal(t, 0, emailLog.RetryCount)
	assert.NotNil(t, emailLog.SentAt)

	require.Equal(t, 1, store.logCount())
	stored := store.onlyLog()
	assert.Equal(t, models.EmailSent, stored.Status)
	assert.Nil(t, stored.ErrorMessage)
}

func TestSendPermanentFailureNotRetried(t *testing.T) {
	store := newFakeEmailStore(testSettings())
	sender := &fakeSender{errs: []error{
		&textproto.Error{Code: 535, Msg: "authentication credentials invalid"},
	}}
	svc := newTestEmailService(store, sender)

	_, err := svc.Send(context.Background(), SendRequest{Recipient: "client@example.gr", Subject: "x", Body: "y"})
	require.Error(t, err)
	assert.Equal(t, 1, sender.calls)

	require.Equal(t, 1, store.logCount())
	stored := store.onlyLog()
	assert.Equal(t, models.EmailFailed, stored.Status)
	assert.Equal(t, 0, stored.RetryCount)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "authentication")
}

func TestSendTransientFailuresRetried(t *testing.T) {
	store := newFakeEmailStore(testSettings())
	sender := &fakeSender{errs: []error{
		errors.New("dial tcp 10.0.0.1:587: connection refused"),
		errors.New("dial tcp 10.0.0.1:587: connection refused"),
		nil,
	}}
	svc := newTestEmailService(store, sender)

	emailLog, err := svc.Send(context.Background(), SendRequest{Recipient: "client@example.gr", Subject: "x", Body: "y"})
	require.NoError(t, err)
	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, models.EmailSent, emailLog.Status)
	assert.Equal(t, 2, emailLog.RetryCount)

	// one row per logical send, retries included
	assert.Equal(t, 1, store.logCount())
}

func TestSendExhaustsRetries(t *testing.T) {
	store := newFakeEmailStore(testSettings())
	refused := errors.New("dial tcp 10.0.0.1:587: connection refused")
	sender := &fakeSender{errs: []error{refused, refused, refused}}
	svc := newTestEmailService(store, sender)

	_, err := svc.Send(context.Background(), SendRequest{Recipient: "client@example.gr", Subject: "x", Body: "y"})
	require.Error(t, err)
	assert.Equal(t, 3, sender.calls)

	stored := store.onlyLog()
	assert.Equal(t, models.EmailFailed, stored.Status)
	assert.Equal(t, 2, stored.RetryCount)
}

func TestSendWithoutSettings(t *testing.T) {
	store := newFakeEmailStore(nil)
	sender := &fakeSender{}
	svc := newTestEmailService(store, sender)

	_, err := svc.Send(context.Background(), SendRequest{Recipient: "client@example.gr", Subject: "x", Body: "y"})
	assert.ErrorIs(t, err, ErrSMTPNotConfigured)
	assert.Equal(t, 0, sender.calls)

	stored := store.onlyLog()
	require.NotNil(t, stored)
	assert.Equal(t, models.EmailFailed, stored.Status)
}

func TestSendScheduledIsQueued(t *testing.T) {
	store := newFakeEmailStore(testSettings())
	sender := &fakeSender{}
	svc := newTestEmailService(store, sender)

	later := time.Now().Add(time.Hour)
	emailLog, err := svc.Send(context.Background(), SendRequest{
		Recipient:   "client@example.gr",
		Subject:     "x",
		Body:        "y",
		ScheduledAt: &later,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EmailQueued, emailLog.Status)
	assert.Equal(t, 0, sender.calls)
}

func TestDispatchDueScheduled(t *testing.T) {
	store := newFakeEmailStore(testSettings())
	sender := &fakeSender{}
	svc := newTestEmailService(store, sender)

	past := time.Now().Add(-time.Minute)
	due := &models.EmailLog{Recipient: "client@example.gr", Status: models.EmailQueued, ScheduledAt: &past}
	require.NoError(t, store.CreateLog(context.Background(), due))

	future := time.Now().Add(time.Hour)
	notYet := &models.EmailLog{Recipient: "other@example.gr", Status: models.EmailQueued, ScheduledAt: &future}
	require.NoError(t, store.CreateLog(context.Background(), notYet))

	n, err := svc.DispatchDueScheduled(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, sender.calls)
}

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate("Dear {client_name}, your {obligation_type} is due {deadline}.", map[string]string{
		"client_name":     "Alpha EE",
		"obligation_type": "VAT return",
		"deadline":        "20/03/2025",
	})
	assert.Equal(t, "Dear Alpha EE, your VAT return is due 20/03/2025.", out)
}

func TestRenderTemplateLeavesUnknownPlaceholders(t *testing.T) {
	out := RenderTemplate("Hello {client_name} {unknown}", map[string]string{"client_name": "Alpha"})
	assert.Equal(t, "Hello Alpha {unknown}", out)
}

func TestSendObligationNotice(t *testing.T) {
	store := newFakeEmailStore(testSettings())
	sender := &fakeSender{}

	template := &models.EmailTemplate{
		ID:      uuid.New(),
		Subject: "{obligation_type} {month}/{year}",
		Body:    "Dear {client_name} (AFM {client_afm}), deadline {deadline}.",
	}
	store.templates[template.ID] = template

	types := newFakeObligationStore()
	obType := &models.ObligationType{ID: uuid.New(), Name: "VAT return", DefaultTemplateID: &template.ID}
	types.types[obType.ID] = obType

	client := &models.Client{ID: uuid.New(), Name: "Alpha EE", AFM: "123456789", Email: "alpha@example.gr"}

	svc := newTestEmailService(store, sender,
		WithEmailClientStore(newFakeClientStore(client)),
		WithEmailTypeStore(types),
	)

	obligation := &models.MonthlyObligation{
		ID:               uuid.New(),
		ClientID:         client.ID,
		ObligationTypeID: obType.ID,
		Year:             2025,
		Month:            3,
		Deadline:         time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
	}

	emailLog, err := svc.SendObligationNotice(context.Background(), NoticeRequest{Obligation: obligation})
	require.NoError(t, err)
	assert.Equal(t, "alpha@example.gr", emailLog.Recipient)
	assert.Equal(t, "VAT return 03/2025", emailLog.Subject)
	assert.Equal(t, "Dear Alpha EE (AFM 123456789), deadline 20/03/2025.", emailLog.Body)
	assert.Equal(t, models.EmailSent, emailLog.Status)
}

func TestSendObligationNoticeNoTemplate(t *testing.T) {
	store := newFakeEmailStore(testSettings())
	types := newFakeObligationStore()
	obType := &models.ObligationType{ID: uuid.New(), Name: "VAT return"}
	types.types[obType.ID] = obType

	client := &models.Client{ID: uuid.New(), Name: "Alpha EE", Email: "alpha@example.gr"}

	svc := newTestEmailService(store, &fakeSender{},
		WithEmailClientStore(newFakeClientStore(client)),
		WithEmailTypeStore(types),
	)

	obligation := &models.MonthlyObligation{ClientID: client.ID, ObligationTypeID: obType.ID}
	_, err := svc.SendObligationNotice(context.Background(), NoticeRequest{Obligation: obligation})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "template_id", vErr.Field)
}

func TestTestSettingsRecordsOutcome(t *testing.T) {
	store := newFakeEmailStore(testSettings())
	sender := &fakeSender{}
	svc := newTestEmailService(store, sender)

	require.NoError(t, svc.TestSettings(context.Background()))
	assert.True(t, store.testRecorded)
	assert.True(t, store.testOK)

	store.testRecorded = false
	sender.testErr = errors.New("dial tcp: i/o timeout")
	err := svc.TestSettings(context.Background())
	assert.Error(t, err)
	assert.True(t, store.testRecorded)
	assert.False(t, store.testOK)
}
