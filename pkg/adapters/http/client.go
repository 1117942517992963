package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// DefaultTimeout bounds every request made by the Client.
const DefaultTimeout = 10 * time.Second

// Client implements ports.RecordStore and ports.ConversationReader against
// the question REST API. baseURL is the API root, e.g. http://localhost:5000/api.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The client is used as
// is and never modified; nil keeps the default.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-request timeout. Zero or less disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches the tenant's questions.
func (c *Client) List(ctx context.Context, tenant string) ([]domain.Record, error) {
	var out []domain.Record
	if err := c.do(ctx, http.MethodGet, "/questions", tenant, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a new question.
func (c *Client) Create(ctx context.Context, tenant string, rec domain.Record) (domain.Record, error) {
	rec.TenantID = tenant
	var out domain.Record
	if err := c.do(ctx, http.MethodPost, "/questions", tenant, rec, &out); err != nil {
		return domain.Record{}, err
	}
	return out, nil
}

// Update sends a partial update of question id.
func (c *Client) Update(ctx context.Context, tenant, id string, patch domain.RecordPatch) (domain.Record, error) {
	var out domain.Record
	if err := c.do(ctx, http.MethodPut, "/questions/"+url.PathEscape(id), tenant, patch, &out); err != nil {
		return domain.Record{}, err
	}
	return out, nil
}

// Delete removes question id.
func (c *Client) Delete(ctx context.Context, tenant, id string) error {
	return c.do(ctx, http.MethodDelete, "/questions/"+url.PathEscape(id), tenant, nil, nil)
}

// ListConversations fetches the tenant's conversations.
func (c *Client) ListConversations(ctx context.Context, tenant string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", tenant, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, tenant string, body, out any) error {
	u := c.baseURL + path + "?" + url.Values{TenantParam: {tenant}}.Encode()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrRecordNotFound
	}
	if resp.StatusCode == http.StatusNotImplemented {
		return domain.ErrUnsupported
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
