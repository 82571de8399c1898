package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"logistiko-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocumentService(t *testing.T) (*DocumentService, *fakeDocumentStore, *fakeLinkStore, *memStorage, *models.Client) {
	t.Helper()
	docs := newFakeDocumentStore()
	links := newFakeLinkStore()
	store := newMemStorage()
	client := &models.Client{ID: uuid.New(), Name: "Alpha EE", AFM: "123456789", Active: true}

	settings := &fakeArchiveSettings{settings: &models.ArchiveSettings{
		Layout:      models.LayoutStandard,
		AllowedExts: models.StringList{".pdf", ".xlsx"},
		MaxFileSize: 1 << 20,
	}}

	svc := NewDocumentService(
		WithDocumentStore(docs),
		WithLinkStore(links),
		WithArchiveSettingsStore(settings),
		WithDocumentClientStore(newFakeClientStore(client)),
		WithStorage(store),
	)
	return svc, docs, links, store, client
}

func uploadReq(client *models.Client, filename string) UploadRequest {
	return UploadRequest{
		ClientID: client.ID,
		Category: "invoices",
		Year:     2025,
		Month:    3,
		Filename: filename,
		MimeType: "application/pdf",
		Size:     1024,
		Data:     strings.NewReader("file contents"),
	}
}

func TestUploadFirstVersion(t *testing.T) {
	svc, _, _, store, client := newTestDocumentService(t)

	doc, err := svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	assert.True(t, doc.IsCurrent)
	assert.Nil(t, doc.PreviousVersionID)
	assert.Equal(t, "123456789/2025/03/invoices/invoice.pdf", doc.StoragePath)

	_, ok := store.files[doc.StoragePath]
	assert.True(t, ok)
}

func TestUploadNewVersionFlipsCurrent(t *testing.T) {
	svc, docs, _, _, client := newTestDocumentService(t)

	first, err := svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)

	second, err := svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.True(t, second.IsCurrent)
	require.NotNil(t, second.PreviousVersionID)
	assert.Equal(t, first.ID, *second.PreviousVersionID)
	assert.Equal(t, "123456789/2025/03/invoices/invoice_v2.pdf", second.StoragePath)

	// exactly one current version in the lineage
	current := 0
	for _, d := range docs.docs {
		if d.IsCurrent {
			current++
		}
	}
	assert.Equal(t, 1, current)
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	svc, _, _, store, client := newTestDocumentService(t)

	_, err := svc.Upload(context.Background(), uploadReq(client, "malware.exe"))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "filename", vErr.Field)
	assert.Empty(t, store.files)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc, _, _, _, client := newTestDocumentService(t)

	req := uploadReq(client, "invoice.pdf")
	req.Size = 2 << 20
	_, err := svc.Upload(context.Background(), req)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "file", vErr.Field)
}

func TestUploadValidation(t *testing.T) {
	svc, _, _, _, client := newTestDocumentService(t)

	req := uploadReq(client, "invoice.pdf")
	req.Month = 0
	_, err := svc.Upload(context.Background(), req)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "month", vErr.Field)

	req = uploadReq(client, "")
	_, err = svc.Upload(context.Background(), req)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "filename", vErr.Field)
}

func TestOpenReturnsContent(t *testing.T) {
	svc, _, _, _, client := newTestDocumentService(t)

	doc, err := svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)

	got, reader, err := svc.Open(context.Background(), doc.ID)
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(content))
	assert.Equal(t, doc.ID, got.ID)
}

func TestDeleteLineageRemovesFiles(t *testing.T) {
	svc, docs, _, store, client := newTestDocumentService(t)

	_, err := svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)
	_, err = svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)
	require.Len(t, store.files, 2)

	require.NoError(t, svc.DeleteLineage(context.Background(), client.ID, "invoices", 2025, 3))
	assert.Empty(t, docs.docs)
	assert.Empty(t, store.files)
}

func TestSharedLinkRoundTrip(t *testing.T) {
	svc, _, _, _, client := newTestDocumentService(t)

	doc, err := svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)

	link, err := svc.CreateSharedLink(context.Background(), doc.ID, nil, nil, uuid.New())
	require.NoError(t, err)
	assert.Len(t, link.Token, 32) // 16 random bytes hex encoded

	got, reader, err := svc.RedeemSharedLink(context.Background(), link.Token)
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, doc.ID, got.ID)
}

func TestSharedLinkDownloadLimit(t *testing.T) {
	svc, _, links, _, client := newTestDocumentService(t)

	doc, err := svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)

	max := 3
	link, err := svc.CreateSharedLink(context.Background(), doc.ID, nil, &max, uuid.New())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, reader, err := svc.RedeemSharedLink(context.Background(), link.Token)
		require.NoError(t, err)
		reader.Close()
	}

	_, _, err = svc.RedeemSharedLink(context.Background(), link.Token)
	assert.ErrorIs(t, err, ErrLinkExhausted)
	assert.Equal(t, 3, links.links[link.Token].DownloadCount)
}

func TestSharedLinkExpiry(t *testing.T) {
	svc, _, _, _, client := newTestDocumentService(t)

	doc, err := svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	link, err := svc.CreateSharedLink(context.Background(), doc.ID, &past, nil, uuid.New())
	require.NoError(t, err)

	_, _, err = svc.RedeemSharedLink(context.Background(), link.Token)
	assert.ErrorIs(t, err, ErrLinkExpired)
}

func TestSharedLinkExhaustionBeatsExpiry(t *testing.T) {
	svc, _, links, _, client := newTestDocumentService(t)

	doc, err := svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	max := 1
	link, err := svc.CreateSharedLink(context.Background(), doc.ID, &past, &max, uuid.New())
	require.NoError(t, err)
	links.links[link.Token].DownloadCount = 1

	_, _, err = svc.RedeemSharedLink(context.Background(), link.Token)
	assert.ErrorIs(t, err, ErrLinkExhausted)
}

func TestCreateSharedLinkValidatesMaxDownloads(t *testing.T) {
	svc, _, _, _, client := newTestDocumentService(t)

	doc, err := svc.Upload(context.Background(), uploadReq(client, "invoice.pdf"))
	require.NoError(t, err)

	zero := 0
	_, err = svc.CreateSharedLink(context.Background(), doc.ID, nil, &zero, uuid.New())
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "max_downloads", vErr.Field)
}
