package service

import (
	"context"
	"testing"
	"time"

	"logistiko-backend/models"
	"logistiko-backend/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile(t *testing.T, store *fakeObligationStore, items ...models.ProfileItem) *models.ObligationProfile {
	t.Helper()
	profile := &models.ObligationProfile{
		ID:     uuid.New(),
		Name:   "Standard bookkeeping",
		Active: true,
		Items:  items,
	}
	store.profiles[profile.ID] = profile
	return profile
}

func TestGenerateMonthlyDeadlines(t *testing.T) {
	obligations := newFakeObligationStore()

	vat := &models.ObligationType{ID: uuid.New(), Name: "VAT return"}
	payroll := &models.ObligationType{ID: uuid.New(), Name: "Payroll declaration"}
	obligations.types[vat.ID] = vat
	obligations.types[payroll.ID] = payroll

	profile := testProfile(t, obligations,
		models.ProfileItem{ObligationTypeID: vat.ID, DeadlineDay: 20},
		models.ProfileItem{ObligationTypeID: payroll.ID, DeadlineDay: 25},
	)

	client := &models.Client{ID: uuid.New(), Name: "Alpha EE", AFM: "123456789", Active: true, ProfileID: &profile.ID}
	clients := newFakeClientStore(client)

	svc := NewObligationService(
		WithClientStore(clients),
		WithObligationStore(obligations),
	)

	result, err := svc.GenerateMonthly(context.Background(), GenerateRequest{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Skipped)

	byType := make(map[uuid.UUID]*models.MonthlyObligation)
	for _, o := range obligations.obligations {
		byType[o.ObligationTypeID] = o
		assert.Equal(t, models.ObligationPending, o.Status)
	}
	require.Len(t, byType, 2)
	assert.Equal(t, time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC), byType[vat.ID].Deadline)
	assert.Equal(t, time.Date(2025, time.March, 25, 0, 0, 0, 0, time.UTC), byType[payroll.ID].Deadline)
}

func TestGenerateMonthlyIdempotent(t *testing.T) {
	obligations := newFakeObligationStore()
	vat := &models.ObligationType{ID: uuid.New(), Name: "VAT return"}
	obligations.types[vat.ID] = vat

	profile := testProfile(t, obligations, models.ProfileItem{ObligationTypeID: vat.ID, DeadlineDay: 20})
	client := &models.Client{ID: uuid.New(), Name: "Alpha EE", Active: true, ProfileID: &profile.ID}

	svc := NewObligationService(
		WithClientStore(newFakeClientStore(client)),
		WithObligationStore(obligations),
	)

	first, err := svc.GenerateMonthly(context.Background(), GenerateRequest{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)

	second, err := svc.GenerateMonthly(context.Background(), GenerateRequest{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, obligations.obligations, 1)
}

func TestGenerateMonthlySkipsInactive(t *testing.T) {
	obligations := newFakeObligationStore()
	vat := &models.ObligationType{ID: uuid.New(), Name: "VAT return"}
	obligations.types[vat.ID] = vat
	profile := testProfile(t, obligations, models.ProfileItem{ObligationTypeID: vat.ID, DeadlineDay: 20})

	inactive := &models.Client{ID: uuid.New(), Name: "Closed OE", Active: false, ProfileID: &profile.ID}
	unprofiled := &models.Client{ID: uuid.New(), Name: "New client", Active: true}

	svc := NewObligationService(
		WithClientStore(newFakeClientStore(inactive, unprofiled)),
		WithObligationStore(obligations),
	)

	result, err := svc.GenerateMonthly(context.Background(), GenerateRequest{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Empty(t, obligations.obligations)
}

func TestGenerateMonthlyValidation(t *testing.T) {
	svc := NewObligationService(
		WithClientStore(newFakeClientStore()),
		WithObligationStore(newFakeObligationStore()),
	)

	_, err := svc.GenerateMonthly(context.Background(), GenerateRequest{Year: 2025, Month: 13})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "month", vErr.Field)

	_, err = svc.GenerateMonthly(context.Background(), GenerateRequest{Year: 1990, Month: 1})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "year", vErr.Field)
}

func TestCompleteMarksObligation(t *testing.T) {
	obligations := newFakeObligationStore()
	obligation := &models.MonthlyObligation{
		ID:       uuid.New(),
		ClientID: uuid.New(),
		Year:     2025,
		Month:    3,
		Status:   models.ObligationPending,
	}
	obligations.obligations[obligation.ID] = obligation

	svc := NewObligationService(WithObligationStore(obligations))

	userID := uuid.New()
	result, err := svc.Complete(context.Background(), CompleteRequest{ObligationID: obligation.ID, UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, models.ObligationCompleted, result.Obligation.Status)
	require.NotNil(t, result.Obligation.CompletedBy)
	assert.Equal(t, userID, *result.Obligation.CompletedBy)
	assert.NotNil(t, result.Obligation.CompletedAt)

	stored := obligations.obligations[obligation.ID]
	assert.Equal(t, models.ObligationCompleted, stored.Status)
}

func TestCompleteAlreadyCompleted(t *testing.T) {
	obligations := newFakeObligationStore()
	obligation := &models.MonthlyObligation{ID: uuid.New(), Status: models.ObligationCompleted}
	obligations.obligations[obligation.ID] = obligation

	svc := NewObligationService(WithObligationStore(obligations))

	_, err := svc.Complete(context.Background(), CompleteRequest{ObligationID: obligation.ID, UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

type failingNotifier struct {
	err    error
	called bool
}

func (n *failingNotifier) SendObligationNotice(ctx context.Context, req NoticeRequest) (*models.EmailLog, error) {
	n.called = true
	return nil, n.err
}

func TestCompleteSurvivesNotifyFailure(t *testing.T) {
	obligations := newFakeObligationStore()
	obligation := &models.MonthlyObligation{ID: uuid.New(), ClientID: uuid.New(), Status: models.ObligationPending}
	obligations.obligations[obligation.ID] = obligation

	notifier := &failingNotifier{err: ErrSMTPNotConfigured}
	svc := NewObligationService(
		WithObligationStore(obligations),
		WithNotifier(notifier),
	)

	result, err := svc.Complete(context.Background(), CompleteRequest{
		ObligationID: obligation.ID,
		UserID:       uuid.New(),
		Notify:       true,
	})
	require.NoError(t, err)
	assert.True(t, notifier.called)
	assert.ErrorIs(t, result.NotifyError, ErrSMTPNotConfigured)

	// the completion stands even though the notification failed
	assert.Equal(t, models.ObligationCompleted, obligations.obligations[obligation.ID].Status)
}

func TestCompleteBulkCounts(t *testing.T) {
	obligations := newFakeObligationStore()
	pending := &models.MonthlyObligation{ID: uuid.New(), Status: models.ObligationPending}
	done := &models.MonthlyObligation{ID: uuid.New(), Status: models.ObligationCompleted}
	obligations.obligations[pending.ID] = pending
	obligations.obligations[done.ID] = done

	svc := NewObligationService(WithObligationStore(obligations))

	missing := uuid.New()
	result, err := svc.CompleteBulk(context.Background(), []uuid.UUID{pending.ID, done.ID, missing}, uuid.New(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, result.Errors, 1)
}

func TestMarkOverdue(t *testing.T) {
	obligations := newFakeObligationStore()
	now := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	past := &models.MonthlyObligation{ID: uuid.New(), Status: models.ObligationPending, Deadline: now.AddDate(0, 0, -5)}
	future := &models.MonthlyObligation{ID: uuid.New(), Status: models.ObligationPending, Deadline: now.AddDate(0, 0, 5)}
	completed := &models.MonthlyObligation{ID: uuid.New(), Status: models.ObligationCompleted, Deadline: now.AddDate(0, 0, -5)}
	obligations.obligations[past.ID] = past
	obligations.obligations[future.ID] = future
	obligations.obligations[completed.ID] = completed

	svc := NewObligationService(WithObligationStore(obligations))

	n, err := svc.MarkOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, models.ObligationOverdue, past.Status)
	assert.Equal(t, models.ObligationPending, future.Status)
	assert.Equal(t, models.ObligationCompleted, completed.Status)
}

func TestListRequiresStore(t *testing.T) {
	svc := NewObligationService()
	_, err := svc.List(context.Background(), repository.ObligationFilter{}, 50, 0)
	assert.Error(t, err)
}
