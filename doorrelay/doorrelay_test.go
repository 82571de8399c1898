package doorrelay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSendsCommandPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	require.NoError(t, client.Execute(context.Background(), "open"))
	assert.Equal(t, "/open", gotPath)
}

func TestExecuteRejectsEmptyCommand(t *testing.T) {
	client := NewClient("http://relay.local")
	err := client.Execute(context.Background(), "")
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestExecuteNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Execute(context.Background(), "open")
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestExecuteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	err := client.Execute(context.Background(), "open")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestExecuteConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close() // nothing listens anymore

	client := NewClient(baseURL)
	err := client.Execute(context.Background(), "open")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestNewClientFromEnvUnset(t *testing.T) {
	t.Setenv("DOOR_RELAY_URL", "")
	assert.Nil(t, NewClientFromEnv())
}
