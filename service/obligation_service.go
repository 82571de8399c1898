package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"logistiko-backend/models"
	"logistiko-backend/repository"

	"github.com/google/uuid"
)

// ObligationClientStore is the slice of client persistence the obligation
// service needs
type ObligationClientStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListActiveWithProfile(ctx context.Context) ([]*models.Client, error)
}

// ObligationStore is the obligation persistence used by the service
type ObligationStore interface {
	CreateIfAbsent(ctx context.Context, o *models.MonthlyObligation) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.MonthlyObligation, error)
	GetTypeByID(ctx context.Context, id uuid.UUID) (*models.ObligationType, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*models.ObligationProfile, error)
	Update(ctx context.Context, o *models.MonthlyObligation) error
	List(ctx context.Context, filter repository.ObligationFilter, limit, offset int) ([]*models.MonthlyObligation, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// ObligationNotifier dispatches a completion notification for an obligation
type ObligationNotifier interface {
	SendObligationNotice(ctx context.Context, req NoticeRequest) (*models.EmailLog, error)
}

// ObligationUploader archives a completed obligation's file
type ObligationUploader interface {
	Upload(ctx context.Context, req UploadRequest) (*models.ClientDocument, error)
}

// ObligationService handles business logic for the obligation lifecycle
type ObligationService struct {
	clients     ObligationClientStore
	obligations ObligationStore
	notifier    ObligationNotifier
	uploader    ObligationUploader
}

// ObligationServiceOption is a functional option for ObligationService
type ObligationServiceOption func(*ObligationService)

// WithClientStore sets the client store
func WithClientStore(s ObligationClientStore) ObligationServiceOption {
	return func(svc *ObligationService) {
		svc.clients = s
	}
}

// WithObligationStore sets the obligation store
func WithObligationStore(s ObligationStore) ObligationServiceOption {
	return func(svc *ObligationService) {
		svc.obligations = s
	}
}

// WithNotifier sets the notifier used on completion
func WithNotifier(n ObligationNotifier) ObligationServiceOption {
	return func(svc *ObligationService) {
		svc.notifier = n
	}
}

// WithUploader sets the document uploader used on completion
func WithUploader(u ObligationUploader) ObligationServiceOption {
	return func(svc *ObligationService) {
		svc.uploader = u
	}
}

// NewObligationService creates a new obligation service
func NewObligationService(opts ...ObligationServiceOption) *ObligationService {
	svc := &ObligationService{}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// GenerateRequest represents a request to generate a period's obligations
type GenerateRequest struct {
	Year     int
	Month    int
	ClientID *uuid.UUID // nil generates for every active client with a profile
}

// GenerateResult reports how many obligations were created and how many
// already existed
type GenerateResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// GenerateMonthly creates the period's obligations for all matching clients.
// Existing (client, type, period) rows are skipped, so reruns are idempotent.
func (s *ObligationService) GenerateMonthly(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if s.clients == nil || s.obligations == nil {
		return nil, errors.New("obligation service is not fully configured")
	}
	if req.Month < 1 || req.Month > 12 {
		return nil, &ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	if req.Year < 2000 || req.Year > 2100 {
		return nil, &ValidationError{Field: "year", Message: "is out of range"}
	}

	var clients []*models.Client
	if req.ClientID != nil {
		client, err := s.clients.GetByID(ctx, *req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("failed to load client: %w", err)
		}
		clients = append(clients, client)
	} else {
		var err error
		clients, err = s.clients.ListActiveWithProfile(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list clients: %w", err)
		}
	}

	result := &GenerateResult{}
	for _, client := range clients {
		if !client.Active || client.ProfileID == nil {
			continue
		}

		profile, err := s.obligations.GetProfileByID(ctx, *client.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile for client %s: %w", client.ID, err)
		}
		if !profile.Active {
			continue
		}

		for _, item := range profile.Items {
			obligation := &models.MonthlyObligation{
				ClientID:         client.ID,
				ObligationTypeID: item.ObligationTypeID,
				Year:             req.Year,
				Month:            req.Month,
				Deadline:         time.Date(req.Year, time.Month(req.Month), item.DeadlineDay, 0, 0, 0, 0, time.UTC),
				Status:           models.ObligationPending,
			}

			created, err := s.obligations.CreateIfAbsent(ctx, obligation)
			if err != nil {
				return nil, fmt.Errorf("failed to create obligation for client %s: %w", client.ID, err)
			}
			if created {
				result.Created++
			} else {
				result.Skipped++
			}
		}
	}

	log.Printf("Obligation generation for %04d-%02d: %d created, %d skipped", req.Year, req.Month, result.Created, result.Skipped)
	return result, nil
}

// CompleteUpload describes an optional file attached at completion time
type CompleteUpload struct {
	Category string
	Filename string
	MimeType string
	Size     int64
	Data     io.Reader
}

// CompleteRequest represents a request to mark an obligation completed
type CompleteRequest struct {
	ObligationID uuid.UUID
	UserID       uuid.UUID
	Upload       *CompleteUpload
	Notify       bool
	TemplateID   *uuid.UUID // overrides the obligation type's default template
}

// CompleteResult reports the updated obligation and, when a notification was
// requested, the outcome of the send. A failed send never rolls back the
// completion; NotifyError carries the failure instead.
type CompleteResult struct {
	Obligation  *models.MonthlyObligation
	Document    *models.ClientDocument
	EmailLog    *models.EmailLog
	NotifyError error
}

// Complete marks one obligation completed
func (s *ObligationService) Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error) {
	if s.obligations == nil {
		return nil, errors.New("obligation store not set")
	}

	obligation, err := s.obligations.GetByID(ctx, req.ObligationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load obligation: %w", err)
	}
	if obligation.Status == models.ObligationCompleted {
		return nil, ErrAlreadyCompleted
	}

	result := &CompleteResult{Obligation: obligation}

	if req.Upload != nil {
		if s.uploader == nil {
			return nil, errors.New("document uploader not set")
		}
		category := req.Upload.Category
		if category == "" {
			category = "obligations"
		}
		doc, err := s.uploader.Upload(ctx, UploadRequest{
			ClientID:     obligation.ClientID,
			ObligationID: &obligation.ID,
			Category:     category,
			Year:         obligation.Year,
			Month:        obligation.Month,
			Filename:     req.Upload.Filename,
			MimeType:     req.Upload.MimeType,
			Size:         req.Upload.Size,
			Data:         req.Upload.Data,
			UploadedBy:   &req.UserID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to archive document: %w", err)
		}
		obligation.DocumentID = &doc.ID
		result.Document = doc
	}

	now := time.Now()
	obligation.Status = models.ObligationCompleted
	obligation.CompletedBy = &req.UserID
	obligation.CompletedAt = &now

	if err := s.obligations.Update(ctx, obligation); err != nil {
		return nil, fmt.Errorf("failed to update obligation: %w", err)
	}

	// Email dispatch happens after the completion committed. A send failure
	// is reported, not rolled back.
	if req.Notify && s.notifier != nil {
		emailLog, notifyErr := s.notifier.SendObligationNotice(ctx, NoticeRequest{
			Obligation: obligation,
			TemplateID: req.TemplateID,
			SenderID:   &req.UserID,
		})
		result.EmailLog = emailLog
		result.NotifyError = notifyErr
		if notifyErr != nil {
			log.Printf("Completion notification for obligation %s failed: %v", obligation.ID, notifyErr)
		}
	}

	return result, nil
}

// BulkCompleteResult aggregates a bulk completion run
type BulkCompleteResult struct {
	Completed int      `json:"completed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// CompleteBulk marks many obligations completed. Already-completed ones are
// skipped; individual failures do not abort the rest.
func (s *ObligationService) CompleteBulk(ctx context.Context, ids []uuid.UUID, userID uuid.UUID, notify bool) (*BulkCompleteResult, error) {
	result := &BulkCompleteResult{}
	for _, id := range ids {
		_, err := s.Complete(ctx, CompleteRequest{
			ObligationID: id,
			UserID:       userID,
			Notify:       notify,
		})
		switch {
		case err == nil:
			result.Completed++
		case errors.Is(err, ErrAlreadyCompleted):
			result.Skipped++
		default:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
		}
	}
	return result, nil
}

// MarkOverdue flips pending obligations past their deadline to overdue
func (s *ObligationService) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	if s.obligations == nil {
		return 0, errors.New("obligation store not set")
	}
	return s.obligations.MarkOverdue(ctx, now)
}

// List proxies filtered obligation listing
func (s *ObligationService) List(ctx context.Context, filter repository.ObligationFilter, limit, offset int) ([]*models.MonthlyObligation, error) {
	if s.obligations == nil {
		return nil, errors.New("obligation store not set")
	}
	return s.obligations.List(ctx, filter, limit, offset)
}
