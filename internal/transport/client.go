// Package transport is the HTTP client for the helpdesk chat backend. It
// normalizes the backend's response envelope and maps failures onto typed
// errors; it holds no state beyond the connection pool.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hungg523/helpdesk-assistant/internal/auth"
	"github.com/hungg523/helpdesk-assistant/internal/metrics"
	"github.com/hungg523/helpdesk-assistant/internal/transcript"
)

// Client talks to the helpdesk backend.
type Client struct {
	baseURL    string
	pageLimit  int
	httpClient *http.Client
	metrics    *metrics.Collector
	log        *slog.Logger
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL   string
	PageLimit int
	Timeout   time.Duration
	Metrics   *metrics.Collector
	Logger    *slog.Logger
}

// New creates a backend client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:5000"
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		pageLimit:  opts.PageLimit,
		httpClient: &http.Client{Timeout: opts.Timeout},
		metrics:    opts.Metrics,
		log:        opts.Logger,
	}
}

// do performs one request and decodes the envelope into out.
func (c *Client) do(ctx context.Context, method, path string, payload any, kind Kind, out any) error {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(kind, 0, err.Error(), nil)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newError(kind, resp.StatusCode, fmt.Sprintf("read response: %v", err), nil)
	}

	return decodeEnvelope(body, resp.StatusCode, kind, out)
}

// GetOrCreateSession returns the user's open chat session, creating one
// server-side if none exists.
func (c *Client) GetOrCreateSession(ctx context.Context, userID int64) (*transcript.Session, error) {
	start := time.Now()
	var dto sessionDTO
	err := c.do(ctx, http.MethodPost, "/api/chat/session/get-or-create",
		map[string]any{"userId": userID}, KindSession, &dto)
	c.metrics.Record(metrics.OpSession, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// LatestMessages fetches the newest history page for a session.
func (c *Client) LatestMessages(ctx context.Context, sessionID int64) (*transcript.Page, error) {
	start := time.Now()
	var dto pageDTO
	path := fmt.Sprintf("/api/chat/session/%d/messages/latest?limit=%d", sessionID, c.pageLimit)
	err := c.do(ctx, http.MethodGet, path, nil, KindFetch, &dto)
	c.metrics.Record(metrics.OpFetchLatest, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// MessagesBefore fetches the history page strictly older than beforeID.
func (c *Client) MessagesBefore(ctx context.Context, sessionID, beforeID int64) (*transcript.Page, error) {
	start := time.Now()
	var dto pageDTO
	path := fmt.Sprintf("/api/chat/session/%d/messages/before/%d?limit=%d", sessionID, beforeID, c.pageLimit)
	err := c.do(ctx, http.MethodGet, path, nil, KindFetch, &dto)
	c.metrics.Record(metrics.OpFetchBefore, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// SendMessage submits a user message and returns the assistant's reply.
func (c *Client) SendMessage(ctx context.Context, req transcript.SendRequest) (*transcript.SendResult, error) {
	start := time.Now()
	var dto sendDTO
	err := c.do(ctx, http.MethodPost, "/api/chat/message", map[string]any{
		"message":    req.Text,
		"idNhanVien": req.UserID,
		"moduleName": req.Module,
	}, KindSend, &dto)
	c.metrics.Record(metrics.OpSend, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &transcript.SendResult{
		Reply:     dto.Response,
		SessionID: int64(dto.SessionID),
		Timestamp: dto.Timestamp,
	}, nil
}

// SubmitFeedback rates a bot message from 1 to 5.
func (c *Client) SubmitFeedback(ctx context.Context, messageID int64, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return newError(KindFeedback, 0, fmt.Sprintf("rating %d out of range 1-5", rating), nil)
	}
	start := time.Now()
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/chat/message/%d/feedback", messageID),
		map[string]any{"rating": rating, "comment": comment}, KindFeedback, nil)
	c.metrics.Record(metrics.OpFeedback, time.Since(start), err)
	return err
}

// Login resolves an employee code to the backend's user record.
func (c *Client) Login(ctx context.Context, employeeCode string) (*auth.User, error) {
	start := time.Now()
	var dto userDTO
	err := c.do(ctx, http.MethodPost, "/api/chat/login",
		map[string]any{"employeeCode": employeeCode}, KindSession, &dto)
	c.metrics.Record(metrics.OpSession, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// EndSession closes a chat session server-side. Best effort for callers.
func (c *Client) EndSession(ctx context.Context, sessionID int64) error {
	start := time.Now()
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/chat/session/%d/end", sessionID), nil, KindSession, nil)
	c.metrics.Record(metrics.OpSession, time.Since(start), err)
	return err
}
