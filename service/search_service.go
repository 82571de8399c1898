package service

import (
	"context"
	"errors"

	"logistiko-backend/models"
)

// SearchClientStore finds clients matching a term
type SearchClientStore interface {
	Search(ctx context.Context, term string, limit int) ([]*models.Client, error)
}

// SearchObligationStore finds obligations matching a term
type SearchObligationStore interface {
	SearchByNotes(ctx context.Context, term string, limit int) ([]*models.MonthlyObligation, error)
}

// SearchDocumentStore finds documents matching a term
type SearchDocumentStore interface {
	SearchByFilename(ctx context.Context, term string, limit int) ([]*models.ClientDocument, error)
}

// SearchTicketStore finds tickets matching a term
type SearchTicketStore interface {
	Search(ctx context.Context, term string, limit int) ([]*models.Ticket, error)
}

// SearchService runs the global search across entity kinds
type SearchService struct {
	clients     SearchClientStore
	obligations SearchObligationStore
	documents   SearchDocumentStore
	tickets     SearchTicketStore
}

// NewSearchService creates a new search service
func NewSearchService(clients SearchClientStore, obligations SearchObligationStore, documents SearchDocumentStore, tickets SearchTicketStore) *SearchService {
	return &SearchService{
		clients:     clients,
		obligations: obligations,
		documents:   documents,
		tickets:     tickets,
	}
}

// SearchResult groups matches by entity kind
type SearchResult struct {
	Clients     []*models.Client            `json:"clients"`
	Obligations []*models.MonthlyObligation `json:"obligations"`
	Documents   []*models.ClientDocument    `json:"documents"`
	Tickets     []*models.Ticket            `json:"tickets"`
}

// Search looks a term up across clients, obligations, documents and tickets
func (s *SearchService) Search(ctx context.Context, term string, limit int) (*SearchResult, error) {
	if term == "" {
		return nil, &ValidationError{Field: "q", Message: "is required"}
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	result := &SearchResult{}
	var firstErr error

	if s.clients != nil {
		clients, err := s.clients.Search(ctx, term, limit)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		result.Clients = clients
	}
	if s.obligations != nil {
		obligations, err := s.obligations.SearchByNotes(ctx, term, limit)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		result.Obligations = obligations
	}
	if s.documents != nil {
		documents, err := s.documents.SearchByFilename(ctx, term, limit)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		result.Documents = documents
	}
	if s.tickets != nil {
		tickets, err := s.tickets.Search(ctx, term, limit)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		result.Tickets = tickets
	}

	if firstErr != nil && len(result.Clients) == 0 && len(result.Obligations) == 0 &&
		len(result.Documents) == 0 && len(result.Tickets) == 0 {
		return nil, errors.Join(errors.New("search failed"), firstErr)
	}

	return result, nil
}
