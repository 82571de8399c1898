package doorrelay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// commandTimeout bounds one relay call. The relay is on the office LAN, so
// anything slower than this means the device is unreachable.
const commandTimeout = 3 * time.Second

var (
	// ErrTimeout is returned when the relay did not answer in time
	ErrTimeout = errors.New("door relay timed out")

	// ErrUnreachable is returned when the relay refused the connection
	ErrUnreachable = errors.New("door relay is unreachable")

	// ErrCommandFailed is returned on any other relay failure
	ErrCommandFailed = errors.New("door relay command failed")
)

// Client talks to the office door relay over its plain HTTP interface. The
// relay executes commands via GET <base>/<command>.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for relay calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a door relay client for the given base URL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: commandTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromEnv creates a client from the DOOR_RELAY_URL environment
// variable. Returns nil when unset, which disables the door endpoint.
func NewClientFromEnv() *Client {
	baseURL := os.Getenv("DOOR_RELAY_URL")
	if baseURL == "" {
		return nil
	}
	return NewClient(baseURL)
}

// Execute sends one command to the relay and classifies failures so the
// operator gets a usable message instead of a raw transport error.
func (c *Client) Execute(ctx context.Context, command string) error {
	if command == "" {
		return fmt.Errorf("%w: empty command", ErrCommandFailed)
	}

	endpoint := c.baseURL + "/" + url.PathEscape(command)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := classify(err)
		log.Printf("Door relay command %q failed after %s: %v", command, time.Since(start).Round(time.Millisecond), err)
		return classified
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		log.Printf("Door relay command %q rejected with status %d", command, resp.StatusCode)
		return fmt.Errorf("%w: relay returned status %d", ErrCommandFailed, resp.StatusCode)
	}

	log.Printf("Door relay command %q executed in %s", command, time.Since(start).Round(time.Millisecond))
	return nil
}

func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if strings.Contains(err.Error(), "connection refused") {
		return ErrUnreachable
	}
	return fmt.Errorf("%w: %v", ErrCommandFailed, err)
}
