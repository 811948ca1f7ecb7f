package doi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the CrossRef works endpoint.
	BaseURL = "https://api.crossref.org/works"

	// RateLimit keeps the client inside CrossRef's polite-pool budget.
	RateLimit = 5.0

	// DefaultTimeout bounds a single lookup request.
	DefaultTimeout = 30 * time.Second
)

// Outcome classifies a lookup result. Transient failures are skipped and
// not cached; definite misses are cached as negatives.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeSkipped
)

// Client is a rate-limited CrossRef query client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithMailto attaches a contact address, which CrossRef asks of polite
// clients.
func WithMailto(addr string) ClientOption {
	return func(c *Client) { c.mailto = addr }
}

// NewClient creates a CrossRef client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type worksResponse struct {
	Message struct {
		Items []struct {
			DOI string `json:"DOI"`
		} `json:"items"`
	} `json:"message"`
}

// Lookup queries CrossRef for the best bibliographic match of terms.
func (c *Client) Lookup(ctx context.Context, terms string) (string, Outcome) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", OutcomeSkipped
	}

	q := url.Values{}
	q.Set("query.bibliographic", terms)
	q.Set("rows", "1")
	q.Set("select", "DOI")
	if c.mailto != "" {
		q.Set("mailto", c.mailto)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", OutcomeSkipped
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", OutcomeSkipped
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", OutcomeSkipped
	case resp.StatusCode != http.StatusOK:
		return "", OutcomeNotFound
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", OutcomeSkipped
	}
	var parsed worksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", OutcomeNotFound
	}
	if len(parsed.Message.Items) == 0 || parsed.Message.Items[0].DOI == "" {
		return "", OutcomeNotFound
	}
	return parsed.Message.Items[0].DOI, OutcomeFound
}

// String implements fmt.Stringer for diagnostics.
func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not-found"
	default:
		return "skipped"
	}
}

var _ fmt.Stringer = OutcomeFound
