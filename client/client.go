package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultUserAgent = "wbconstraints/1.0"
	maxFailCount     = 5
	failureWindow    = time.Minute
)

var (
	// ErrQueryTimeout is returned when the endpoint gave up on the query.
	ErrQueryTimeout = errors.New("sparql query timed out")
	// ErrUnavailable is returned without contacting the endpoint after too
	// many consecutive failures.
	ErrUnavailable = errors.New("sparql endpoint temporarily unavailable")
)

// Client talks to a SPARQL endpoint.
type Client struct {
	client    *http.Client
	transport http.RoundTripper
	failures  *cache.Cache
	endpoint  string
	userAgent string
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

func New(endpoint string, opts ...Option) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    &httpClient,
		transport: http.DefaultTransport,
		failures:  cache.New(failureWindow, 2*failureWindow),
		endpoint:  endpoint,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	httpClient.Transport = c
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return c.transport.RoundTrip(req)
}

// Binding is one variable binding of a result row.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
}

// Results is the application/sparql-results+json document.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Boolean *bool `json:"boolean,omitempty"`
	Results struct {
		Bindings []map[string]Binding `json:"bindings"`
	} `json:"results"`
}

// Query runs query and decodes the JSON results.
func (c *Client) Query(ctx context.Context, query string) (*Results, error) {
	if count, found := c.failures.Get(c.endpoint); found && count.(int) >= maxFailCount {
		return nil, ErrUnavailable
	}

	results, err := c.do(ctx, query)
	if err != nil {
		if ctx.Err() == nil {
			c.recordFailure()
		}
		return nil, err
	}
	c.failures.Delete(c.endpoint)
	return results, nil
}

// Ask runs an ASK query.
func (c *Client) Ask(ctx context.Context, query string) (bool, error) {
	results, err := c.Query(ctx, query)
	if err != nil {
		return false, err
	}
	if results.Boolean == nil {
		return false, errors.New("sparql response has no boolean result")
	}
	return *results.Boolean, nil
}

func (c *Client) do(ctx context.Context, query string) (*Results, error) {
	form := url.Values{}
	form.Set("query", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to perform request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if strings.Contains(string(body), "java.util.concurrent.TimeoutException") {
			return nil, ErrQueryTimeout
		}
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var results Results
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}
	return &results, nil
}

func (c *Client) recordFailure() {
	if _, err := c.failures.IncrementInt(c.endpoint, 1); err != nil {
		c.failures.SetDefault(c.endpoint, 1)
	}
}

// Literal renders s as a quoted SPARQL string literal.
func Literal(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
