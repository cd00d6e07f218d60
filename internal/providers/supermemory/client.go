package supermemory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/retry"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.supermemory.ai"

	defaultTimeout  = 30 * time.Second
	maxResponseSize = 4 << 20
)

// Client talks to the hosted Supermemory API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	retrier *retry.Retrier
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithRetryConfig(cfg *retry.Config) Option {
	return func(c *Client) { c.retrier = retry.NewRetrier(cfg) }
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = newLimiter(rps) }
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		limiter: newLimiter(0),
		retrier: retry.NewRetrier(retry.NewBackendConfig()),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func NewFromConfig(cfg core.BackendConfig) *Client {
	return New(cfg.GetAPIKey(),
		WithBaseURL(cfg.GetBaseURL()),
		WithRateLimit(cfg.GetRequestsPerSecond()),
	)
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), int(math.Max(1, math.Ceil(rps))))
}

func (c *Client) Profile(ctx context.Context, containerTag, query string) (*core.ProfileResponse, error) {
	tag, err := sanitize(containerTag)
	if err != nil {
		return nil, err
	}

	payload := profileRequest{ContainerTag: tag, Query: query}
	var out profileResponse
	if err := c.post(ctx, "/v4/profile", payload, &out); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return out.toCore(), nil
}

func (c *Client) Add(ctx context.Context, content, containerTag string, metadata map[string]any) (*core.AddResponse, error) {
	tag, err := sanitize(containerTag)
	if err != nil {
		return nil, err
	}

	payload := addRequest{Content: content, ContainerTag: tag, Metadata: metadata}
	var out core.AddResponse
	if err := c.postOnce(ctx, "/v3/documents", payload, &out); err != nil {
		return nil, fmt.Errorf("add document: %w", err)
	}
	return &out, nil
}

func (c *Client) SearchMemories(ctx context.Context, req core.MemorySearch) (*core.SearchResults, error) {
	tag, err := sanitize(req.ContainerTag)
	if err != nil {
		return nil, err
	}

	payload := memorySearchRequest{
		Query:        req.Query,
		ContainerTag: tag,
		Threshold:    req.Threshold,
		Limit:        req.Limit,
	}
	var out searchResponse
	if err := c.post(ctx, "/v4/search", payload, &out); err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	return out.toCore(), nil
}

func (c *Client) SearchDocuments(ctx context.Context, query string, containerTags []string, limit int) (*core.DocumentResults, error) {
	payload := documentSearchRequest{
		Query:         query,
		ContainerTags: core.SanitizeContainerTags(containerTags),
		Limit:         limit,
	}
	var out documentSearchResponse
	if err := c.post(ctx, "/v3/search", payload, &out); err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	return out.toCore(), nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	return c.send(ctx, path, payload, out, true)
}

// postOnce never retries. A write whose response was lost may still have
// been applied, and the API does not deduplicate documents.
func (c *Client) postOnce(ctx context.Context, path string, payload, out any) error {
	return c.send(ctx, path, payload, out, false)
}

func (c *Client) send(ctx context.Context, path string, payload, out any, retryable bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	return c.retrier.Do(ctx, func() error {
		err := c.attempt(ctx, path, body, out)
		var perm *retry.PermanentError
		if !retryable && !errors.As(err, &perm) {
			return retry.Permanent(err)
		}
		return err
	})
}

func (c *Client) attempt(ctx context.Context, path string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return retry.Permanent(fmt.Errorf("rate limit wait: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", core.TuskUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Permanent(ctx.Err())
		}
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		if apiErr.Temporary() {
			return apiErr
		}
		return retry.Permanent(apiErr)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return retry.Permanent(fmt.Errorf("decode: %w", err))
	}
	return nil
}

var ErrEmptyContainerTag = errors.New("container tag is empty after sanitizing")

func sanitize(tag string) (string, error) {
	s := core.SanitizeContainerTag(tag)
	if s == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyContainerTag, tag)
	}
	return s, nil
}

var _ core.MemoryBackend = (*Client)(nil)
