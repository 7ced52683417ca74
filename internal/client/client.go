// Package client implements the gateway over the life-os HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/duongtruongbinh/life-os/internal/gateway"
	"github.com/duongtruongbinh/life-os/internal/models"
	"github.com/duongtruongbinh/life-os/internal/reconcile"
	"github.com/duongtruongbinh/life-os/internal/request"
)

const (
	apiPrefix      = "/api/v1"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 * 1024
)

// APIError is a non-2xx response. Its message is the server's own text.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Type != "" {
		return e.Type
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// PartialError reports a successful response whose data is incomplete. The
// data that did load has already been decoded.
type PartialError struct {
	Message string
}

func (e *PartialError) Error() string { return e.Message }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Warning string          `json:"warning"`
}

// Client talks to cmd/server on behalf of one signed-in user.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	authed     bool
	logger     *zap.Logger
	now        func() time.Time
	loc        *time.Location
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the base client the bearer transport wraps.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides how the X-Client-Date header is derived.
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
		if loc != nil {
			c.loc = loc
		}
	}
}

// New creates a client for the API at baseURL. An empty token yields a client
// whose every call fails with gateway.ErrNotAuthenticated.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
		now:        time.Now,
		loc:        time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}

	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.httpClient)
		authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		authed.Timeout = c.httpClient.Timeout
		c.httpClient = authed
		c.authed = true
	}
	return c, nil
}

var _ gateway.Gateway = (*Client)(nil)

func (c *Client) GetLogForDate(ctx context.Context, date string) (*models.DailyLog, error) {
	var out *models.DailyLog
	if err := c.do(ctx, http.MethodGet, "/logs/"+url.PathEscape(date), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDailyLogsForRange(ctx context.Context, start, end string) ([]models.DailyLog, error) {
	q := url.Values{"start": {start}, "end": {end}}
	var out []models.DailyLog
	if err := c.do(ctx, http.MethodGet, "/logs", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDailyLogsLastNDays(ctx context.Context, days int, asOfDate string) ([]models.DailyLog, error) {
	q := url.Values{"days": {strconv.Itoa(days)}}
	if asOfDate != "" {
		q.Set("as_of", asOfDate)
	}
	var out []models.DailyLog
	if err := c.do(ctx, http.MethodGet, "/logs/recent", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveDailyLogsBulk(ctx context.Context, logs []models.DailyLog) error {
	if len(logs) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPut, "/logs", nil, models.LogsBulkRequest{Logs: logs}, nil)
}

func (c *Client) GetTasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SyncTasks(ctx context.Context, deletedIDs []string, toInsert []models.TaskInsert, toUpdate []models.TaskUpdate) ([]models.Task, error) {
	body := models.TaskSyncRequest{DeletedIDs: deletedIDs, ToInsert: toInsert, ToUpdate: toUpdate}
	var out []models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/sync", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetHabitDefinitions(ctx context.Context) ([]models.HabitDefinition, error) {
	var out []models.HabitDefinition
	if err := c.do(ctx, http.MethodGet, "/habits", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SyncHabits(ctx context.Context, deletedIDs []string, toInsert []models.HabitInsert, toUpdate []models.HabitUpdate) ([]models.HabitDefinition, error) {
	body := models.HabitSyncRequest{DeletedIDs: deletedIDs, ToInsert: toInsert, ToUpdate: toUpdate}
	var out []models.HabitDefinition
	if err := c.do(ctx, http.MethodPost, "/habits/sync", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetUserSettings(ctx context.Context) (*models.UserSettings, error) {
	var out *models.UserSettings
	if err := c.do(ctx, http.MethodGet, "/settings", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpsertUserSettings(ctx context.Context, in models.SettingsInput) error {
	return c.do(ctx, http.MethodPut, "/settings", nil, in, nil)
}

func (c *Client) FetchFullDashboardData(ctx context.Context, date string) (*models.DashboardData, error) {
	var out models.DashboardData
	err := c.do(ctx, http.MethodGet, "/dashboard", url.Values{"date": {date}}, nil, &out)
	var partial *PartialError
	if errors.As(err, &partial) {
		return &out, err
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Streaks returns the server-side streak rollup for the caller.
func (c *Client) Streaks(ctx context.Context) ([]models.HabitStreak, error) {
	var out []models.HabitStreak
	if err := c.do(ctx, http.MethodGet, "/stats/streaks", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if !c.authed {
		return gateway.ErrNotAuthenticated
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + apiPrefix + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(request.ClientDateHeader, reconcile.DateKeyIn(c.now(), c.loc))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.Debug("api_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return gateway.ErrNotAuthenticated
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return &APIError{Status: resp.StatusCode, Type: env.Error, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	if env.Warning != "" {
		return &PartialError{Message: env.Warning}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{Status: resp.StatusCode}
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		apiErr.Type = env.Error
		apiErr.Message = env.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

// IsNotAuthenticated reports whether err means the caller must sign in again.
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, gateway.ErrNotAuthenticated)
}
