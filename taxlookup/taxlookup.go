package taxlookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// lookupTimeout bounds one registry query. The upstream service is slow on
// bad days, so this is looser than the door relay's timeout.
const lookupTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when the registry did not answer in time
	ErrTimeout = errors.New("tax registry lookup timed out")

	// ErrUnreachable is returned when the registry refused the connection
	ErrUnreachable = errors.New("tax registry is unreachable")

	// ErrNotFound is returned when no company matches the AFM
	ErrNotFound = errors.New("no company registered under this AFM")

	// ErrLookupFailed is returned on any other registry failure
	ErrLookupFailed = errors.New("tax registry lookup failed")
)

// CompanyInfo is what the registry returns for an AFM
type CompanyInfo struct {
	AFM      string `json:"afm"`
	Name     string `json:"name"`
	DOY      string `json:"doy"`
	Address  string `json:"address,omitempty"`
	Activity string `json:"activity,omitempty"`
}

// Client queries the tax-authority company registry by AFM. Used to prefill
// client records during onboarding.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for lookups
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a registry client for the given base URL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: lookupTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromEnv creates a client from the TAXLOOKUP_URL environment
// variable. Returns nil when unset, which disables the lookup endpoint.
func NewClientFromEnv() *Client {
	baseURL := os.Getenv("TAXLOOKUP_URL")
	if baseURL == "" {
		return nil
	}
	return NewClient(baseURL)
}

// Lookup fetches company details for an AFM
func (c *Client) Lookup(ctx context.Context, afm string) (*CompanyInfo, error) {
	afm = strings.TrimSpace(afm)
	if len(afm) != 9 {
		return nil, fmt.Errorf("%w: AFM must be 9 digits", ErrLookupFailed)
	}

	endpoint := c.baseURL + "/companies/" + url.PathEscape(afm)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: registry returned status %d", ErrLookupFailed, resp.StatusCode)
	}

	var info CompanyInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: invalid response: %v", ErrLookupFailed, err)
	}

	return &info, nil
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
	return fmt.Errorf("%w: %v", ErrLookupFailed, err)
}
