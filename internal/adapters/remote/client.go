package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/philly/arch-blog/reader/internal/platform/apperror"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
	"github.com/philly/arch-blog/reader/internal/platform/metrics"
	"github.com/philly/arch-blog/reader/internal/posts/domain"
	"github.com/philly/arch-blog/reader/internal/posts/ports"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is where the content service listens in local setups.
const DefaultBaseURL = "http://localhost:3002"

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

// Options configures a Client. Zero values are usable except BaseURL.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// Limiter throttles outgoing requests; nil disables throttling.
	Limiter *rate.Limiter
	Logger  logger.Logger
	Metrics *metrics.Collector
}

// Client talks to the remote content service over its /blogs JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        logger.Logger
	metrics    *metrics.Collector
}

var _ ports.PostsClient = (*Client)(nil)

// NewClient creates a Client. The base URL must be absolute.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("remote: invalid base URL %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	var log logger.Logger = logger.Nop{}
	if opts.Logger != nil {
		log = opts.Logger
	}

	return &Client{
		baseURL:    strings.TrimRight(base.String(), "/"),
		httpClient: httpClient,
		limiter:    opts.Limiter,
		log:        log,
		metrics:    opts.Metrics,
	}, nil
}

// ListPosts issues GET /blogs.
func (c *Client) ListPosts(ctx context.Context) ([]domain.Post, error) {
	const op = "list_posts"

	body, status, err := c.do(ctx, op, http.MethodGet, "/blogs", nil)
	if err != nil {
		return nil, remoteFailure(err, op, apperror.BusinessCodeListPostsFailed, "failed to fetch blogs")
	}
	if !isSuccess(status) {
		return nil, statusFailure(status, body, apperror.BusinessCodeListPostsFailed, "failed to fetch blogs")
	}

	var posts []domain.Post
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, malformed(err, status, "response body is not a list of posts", nil)
	}
	if posts == nil {
		return nil, malformed(nil, status, "response body is not a list of posts", nil)
	}
	for i := range posts {
		if fields, err := posts[i].Validate(); err != nil {
			return nil, malformed(err, status, fmt.Sprintf("post at index %d is invalid", i), fields)
		}
	}

	return posts, nil
}

// GetPost issues GET /blogs/{id}. A 404 is reported as ports.ErrPostNotFound.
func (c *Client) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	const op = "get_post"

	if id == "" {
		return nil, ports.ErrMissingPostID
	}

	body, status, err := c.do(ctx, op, http.MethodGet, "/blogs/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, remoteFailure(err, op, apperror.BusinessCodeGetPostFailed, "failed to fetch blog")
	}
	if status == http.StatusNotFound {
		return nil, apperror.New(apperror.CodeNotFound, apperror.BusinessCodePostNotFound,
			messageFrom(body, "post not found"), status)
	}
	if !isSuccess(status) {
		return nil, statusFailure(status, body, apperror.BusinessCodeGetPostFailed, "failed to fetch blog")
	}

	return decodePost(body, status)
}

// CreatePost issues POST /blogs with the draft as JSON body.
func (c *Client) CreatePost(ctx context.Context, draft domain.Draft) (*domain.Post, error) {
	const op = "create_post"

	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeValidationFailed, apperror.BusinessCodeInvalidDraft,
			"draft cannot be encoded", 0)
	}

	body, status, err := c.do(ctx, op, http.MethodPost, "/blogs", payload)
	if err != nil {
		return nil, remoteFailure(err, op, apperror.BusinessCodeCreatePostFailed, "failed to create blog")
	}
	if !isSuccess(status) {
		return nil, statusFailure(status, body, apperror.BusinessCodeCreatePostFailed, "failed to create blog")
	}

	return decodePost(body, status)
}

// do performs one request and returns the full body. A non-nil error means
// no response was received.
func (c *Client) do(ctx context.Context, op, method, path string, payload []byte) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug(ctx, "remote request", "operation", op, "method", method, "path", path, "request_id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRequest(op, 0, time.Since(start))
		c.log.Warn(ctx, "remote request failed", "operation", op, "request_id", requestID, "error", err)
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.RecordRequest(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}

	c.log.Debug(ctx, "remote response",
		"operation", op,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return body, resp.StatusCode, nil
}

func decodePost(body []byte, status int) (*domain.Post, error) {
	var post *domain.Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, malformed(err, status, "response body is not a post", nil)
	}
	if post == nil {
		return nil, malformed(nil, status, "response body is not a post", nil)
	}
	if fields, err := post.Validate(); err != nil {
		return nil, malformed(err, status, "response post is invalid", fields)
	}
	return post, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func remoteFailure(err error, op string, biz apperror.BusinessCode, message string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperror.Wrap(err, apperror.CodeRemoteError, biz, message+": "+err.Error(), 0)
	}
	return apperror.Wrap(fmt.Errorf("%s: %w", op, err), apperror.CodeRemoteError, biz, message, 0)
}

func statusFailure(status int, body []byte, biz apperror.BusinessCode, fallback string) error {
	return apperror.New(apperror.CodeRemoteError, biz, messageFrom(body, fallback), status).
		WithDetails(map[string]any{"status": status, "status_text": http.StatusText(status)})
}

func malformed(inner error, status int, message string, fields any) error {
	err := apperror.Wrap(inner, apperror.CodeMalformedResponse, apperror.BusinessCodeInvalidPost, message, status)
	if fields != nil {
		err = err.WithDetails(fields)
	}
	return err
}

// messageFrom extracts a human-readable message from an error body:
// a JSON "message" or "error" field, otherwise fallback.
func messageFrom(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fallback
}
