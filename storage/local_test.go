package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	err = s.Upload(ctx, "123456789/2025/03/invoices/invoice.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)

	rc, err := s.Download(ctx, "123456789/2025/03/invoices/invoice.pdf")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))

	require.NoError(t, s.Delete(ctx, "123456789/2025/03/invoices/invoice.pdf"))
	_, err = s.Download(ctx, "123456789/2025/03/invoices/invoice.pdf")
	assert.Error(t, err)
}

func TestLocalStorageDeleteMissingIsNoop(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, s.Delete(context.Background(), "does/not/exist.pdf"))
}
