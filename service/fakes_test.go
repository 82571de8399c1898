package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"logistiko-backend/mailer"
	"logistiko-backend/models"
	"logistiko-backend/repository"

	"github.com/google/uuid"
)

// --- clients ---

type fakeClientStore struct {
	clients map[uuid.UUID]*models.Client
}

func newFakeClientStore(clients ...*models.Client) *fakeClientStore {
	s := &fakeClientStore{clients: make(map[uuid.UUID]*models.Client)}
	for _, c := range clients {
		s.clients[c.ID] = c
	}
	return s
}

func (s *fakeClientStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return nil, fmt.Errorf("client %s not found", id)
	}
	return c, nil
}

func (s *fakeClientStore) ListActiveWithProfile(ctx context.Context) ([]*models.Client, error) {
	var out []*models.Client
	for _, c := range s.clients {
		if c.Active && c.ProfileID != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- obligations ---

type periodKey struct {
	client uuid.UUID
	typ    uuid.UUID
	year   int
	month  int
}

type fakeObligationStore struct {
	obligations map[uuid.UUID]*models.MonthlyObligation
	byPeriod    map[periodKey]uuid.UUID
	types       map[uuid.UUID]*models.ObligationType
	profiles    map[uuid.UUID]*models.ObligationProfile
}

func newFakeObligationStore() *fakeObligationStore {
	return &fakeObligationStore{
		obligations: make(map[uuid.UUID]*models.MonthlyObligation),
		byPeriod:    make(map[periodKey]uuid.UUID),
		types:       make(map[uuid.UUID]*models.ObligationType),
		profiles:    make(map[uuid.UUID]*models.ObligationProfile),
	}
}

func (s *fakeObligationStore) CreateIfAbsent(ctx context.Context, o *models.MonthlyObligation) (bool, error) {
	key := periodKey{o.ClientID, o.ObligationTypeID, o.Year, o.Month}
	if _, exists := s.byPeriod[key]; exists {
		return false, nil
	}
	o.ID = uuid.New()
	s.obligations[o.ID] = o
	s.byPeriod[key] = o.ID
	return true, nil
}

func (s *fakeObligationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.MonthlyObligation, error) {
	o, ok := s.obligations[id]
	if !ok {
		return nil, fmt.Errorf("obligation %s not found", id)
	}
	copied := *o
	return &copied, nil
}

func (s *fakeObligationStore) GetTypeByID(ctx context.Context, id uuid.UUID) (*models.ObligationType, error) {
	t, ok := s.types[id]
	if !ok {
		return nil, fmt.Errorf("obligation type %s not found", id)
	}
	return t, nil
}

func (s *fakeObligationStore) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.ObligationProfile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s not found", id)
	}
	return p, nil
}

func (s *fakeObligationStore) Update(ctx context.Context, o *models.MonthlyObligation) error {
	if _, ok := s.obligations[o.ID]; !ok {
		return fmt.Errorf("obligation %s not found", o.ID)
	}
	copied := *o
	s.obligations[o.ID] = &copied
	return nil
}

func (s *fakeObligationStore) List(ctx context.Context, filter repository.ObligationFilter, limit, offset int) ([]*models.MonthlyObligation, error) {
	var out []*models.MonthlyObligation
	for _, o := range s.obligations {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *fakeObligationStore) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, o := range s.obligations {
		if o.Status == models.ObligationPending && o.Deadline.Before(now) {
			o.Status = models.ObligationOverdue
			n++
		}
	}
	return n, nil
}

// --- email ---

type fakeEmailStore struct {
	mu        sync.Mutex
	logs      map[uuid.UUID]*models.EmailLog
	templates map[uuid.UUID]*models.EmailTemplate
	settings  *models.EmailSettings

	testRecorded bool
	testOK       bool
}

func newFakeEmailStore(settings *models.EmailSettings) *fakeEmailStore {
	return &fakeEmailStore{
		logs:      make(map[uuid.UUID]*models.EmailLog),
		templates: make(map[uuid.UUID]*models.EmailTemplate),
		settings:  settings,
	}
}

func (s *fakeEmailStore) CreateLog(ctx context.Context, l *models.EmailLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	copied := *l
	s.logs[l.ID] = &copied
	return nil
}

func (s *fakeEmailStore) UpdateLogOutcome(ctx context.Context, id uuid.UUID, status models.EmailStatus, errorMessage *string, retryCount int, sentAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[id]
	if !ok {
		return fmt.Errorf("log %s not found", id)
	}
	l.Status = status
	l.ErrorMessage = errorMessage
	l.RetryCount = retryCount
	l.SentAt = sentAt
	return nil
}

func (s *fakeEmailStore) GetTemplateByID(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error) {
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s not found", id)
	}
	return t, nil
}

func (s *fakeEmailStore) GetSettings(ctx context.Context) (*models.EmailSettings, error) {
	return s.settings, nil
}

func (s *fakeEmailStore) RecordTestResult(ctx context.Context, id uuid.UUID, ok bool, testError *string, at time.Time) error {
	s.testRecorded = true
	s.testOK = ok
	return nil
}

func (s *fakeEmailStore) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.EmailLog, error) {
	var out []*models.EmailLog
	for _, l := range s.logs {
		if l.Status == models.EmailQueued && l.ScheduledAt != nil && !l.ScheduledAt.After(now) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeEmailStore) ListLogs(ctx context.Context, filter repository.EmailLogFilter, limit, offset int) ([]*models.EmailLog, error) {
	var out []*models.EmailLog
	for _, l := range s.logs {
		out = append(out, l)
	}
	return out, nil
}

func (s *fakeEmailStore) logCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

func (s *fakeEmailStore) onlyLog() *models.EmailLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.logs {
		return l
	}
	return nil
}

// fakeSender replays a scripted sequence of send outcomes
type fakeSender struct {
	mu      sync.Mutex
	errs    []error
	calls   int
	testErr error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if f.calls < len(f.errs) {
		err = f.errs[f.calls]
	}
	f.calls++
	return err
}

func (f *fakeSender) TestConnection(ctx context.Context) error {
	return f.testErr
}

// --- documents ---

type fakeDocumentStore struct {
	docs map[uuid.UUID]*models.ClientDocument
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: make(map[uuid.UUID]*models.ClientDocument)}
}

func (s *fakeDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ClientDocument, error) {
	d, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s not found", id)
	}
	return d, nil
}

func (s *fakeDocumentStore) GetCurrent(ctx context.Context, clientID uuid.UUID, category string, year, month int) (*models.ClientDocument, error) {
	for _, d := range s.docs {
		if d.ClientID == clientID && d.Category == category && d.Year == year && d.Month == month && d.IsCurrent {
			return d, nil
		}
	}
	return nil, nil
}

func (s *fakeDocumentStore) InsertVersion(ctx context.Context, doc *models.ClientDocument, previous *models.ClientDocument) error {
	if previous != nil {
		old, ok := s.docs[previous.ID]
		if !ok || !old.IsCurrent {
			return fmt.Errorf("document %s is no longer current", previous.ID)
		}
		old.IsCurrent = false
		doc.PreviousVersionID = &previous.ID
		doc.Version = previous.Version + 1
	} else {
		doc.Version = 1
	}
	doc.IsCurrent = true
	doc.ID = uuid.New()
	doc.CreatedAt = time.Now()
	s.docs[doc.ID] = doc
	return nil
}

func (s *fakeDocumentStore) List(ctx context.Context, filter repository.DocumentFilter, limit, offset int) ([]*models.ClientDocument, error) {
	var out []*models.ClientDocument
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeDocumentStore) ListVersions(ctx context.Context, clientID uuid.UUID, category string, year, month int) ([]*models.ClientDocument, error) {
	var out []*models.ClientDocument
	for _, d := range s.docs {
		if d.ClientID == clientID && d.Category == category && d.Year == year && d.Month == month {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeDocumentStore) DeleteLineage(ctx context.Context, clientID uuid.UUID, category string, year, month int) ([]string, error) {
	var paths []string
	for id, d := range s.docs {
		if d.ClientID == clientID && d.Category == category && d.Year == year && d.Month == month {
			paths = append(paths, d.StoragePath)
			delete(s.docs, id)
		}
	}
	return paths, nil
}

type fakeLinkStore struct {
	links map[string]*models.SharedLink
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{links: make(map[string]*models.SharedLink)}
}

func (s *fakeLinkStore) CreateLink(ctx context.Context, link *models.SharedLink) error {
	link.ID = uuid.New()
	link.CreatedAt = time.Now()
	s.links[link.Token] = link
	return nil
}

func (s *fakeLinkStore) GetLinkByToken(ctx context.Context, token string) (*models.SharedLink, error) {
	link, ok := s.links[token]
	if !ok {
		return nil, fmt.Errorf("link not found")
	}
	copied := *link
	return &copied, nil
}

func (s *fakeLinkStore) ConsumeDownload(ctx context.Context, id uuid.UUID) (bool, error) {
	for _, link := range s.links {
		if link.ID == id {
			if link.MaxDownloads != nil && link.DownloadCount >= *link.MaxDownloads {
				return false, nil
			}
			link.DownloadCount++
			return true, nil
		}
	}
	return false, fmt.Errorf("link %s not found", id)
}

type fakeArchiveSettings struct {
	settings *models.ArchiveSettings
}

func (s *fakeArchiveSettings) GetArchiveSettings(ctx context.Context) (*models.ArchiveSettings, error) {
	return s.settings, nil
}

// memStorage keeps uploaded files in a map
type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (m *memStorage) Upload(ctx context.Context, storagePath string, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[storagePath] = content
	return nil
}

func (m *memStorage) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[storagePath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", storagePath)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (m *memStorage) Delete(ctx context.Context, storagePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, storagePath)
	return nil
}
