// Package client talks to the records API on behalf of a lookup session.
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
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"clinical-lookup/internal/records"
)

const maxBodyBytes = 4 << 20

var validate = validator.New()

// Client implements the lookup API over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        zerolog.Logger

	mu    sync.RWMutex
	token string

	failures uint32
	cooldown time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent on every call.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithBreaker opens the circuit after failures consecutive network errors
// and probes again after cooldown.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(c *Client) {
		c.failures = failures
		c.cooldown = cooldown
	}
}

// New creates a Client for the API rooted at baseURL, e.g.
// "http://localhost:3001/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        zerolog.Nop(),
		failures:   5,
		cooldown:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "records-api",
		MaxRequests: 1,
		Timeout:     c.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
		// Only transport trouble counts against the backend.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, records.ErrNetwork)
		},
	})
	return c
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Search lists patients matching q.
func (c *Client) Search(ctx context.Context, q string) ([]records.PatientSummary, error) {
	query := url.Values{"q": {q}}
	if tok := c.Token(); tok != "" {
		query.Set("auth", tok)
	}
	data, err := c.call(ctx, "search", http.MethodGet, "/search", query, nil)
	if err != nil {
		return nil, err
	}
	out := make([]records.PatientSummary, 0)
	if isNull(data) {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, malformed("search", err)
	}
	for i := range out {
		if err := validate.Struct(&out[i]); err != nil {
			return nil, malformed("search", err)
		}
	}
	return out, nil
}

// History fetches a patient's history.
func (c *Client) History(ctx context.Context, patientID uint) (*records.PatientHistory, error) {
	return fetchOne[records.PatientHistory](ctx, c, "history", fmt.Sprintf("/history/%d", patientID))
}

// Order fetches an order with its line items.
func (c *Client) Order(ctx context.Context, orderID uint) (*records.OrderDetail, error) {
	return fetchOne[records.OrderDetail](ctx, c, "order", fmt.Sprintf("/order/%d", orderID))
}

// Result fetches a result with its values.
func (c *Client) Result(ctx context.Context, resultID uint) (*records.ResultDetail, error) {
	return fetchOne[records.ResultDetail](ctx, c, "result", fmt.Sprintf("/result/%d", resultID))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// Login exchanges credentials for an access token and keeps it for later
// calls.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	data, err := c.call(ctx, "login", http.MethodPost, "/auth/login", nil, body)
	if err != nil {
		return "", err
	}
	var resp loginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", malformed("login", err)
	}
	if err := validate.Struct(resp); err != nil {
		return "", malformed("login", err)
	}
	c.SetToken(resp.AccessToken)
	return resp.AccessToken, nil
}

func fetchOne[T any](ctx context.Context, c *Client, op, path string) (*T, error) {
	data, err := c.call(ctx, op, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if isNull(data) {
		return nil, &records.APIError{Kind: records.ErrNotFound, Op: op, Err: errors.New("empty data")}
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, malformed(op, err)
	}
	if err := validate.Struct(out); err != nil {
		return nil, malformed(op, err)
	}
	return out, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body []byte) ([]byte, error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, op, method, path, query, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &records.APIError{Kind: records.ErrNetwork, Op: op, Err: err}
	}
	return data, err
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body []byte) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, &records.APIError{Kind: records.ErrNetwork, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Msg("request failed")
		return nil, &records.APIError{Kind: records.ErrNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &records.APIError{Kind: records.ErrNetwork, Op: op, Status: resp.StatusCode, Err: err}
	}
	c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Msg("request done")

	if kind := classify(resp.StatusCode); kind != nil {
		return nil, &records.APIError{Kind: kind, Op: op, Status: resp.StatusCode, Err: serverMessage(raw)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, malformed(op, err)
	}
	return env.Data, nil
}

func classify(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return records.ErrAuth
	case status == http.StatusTooManyRequests:
		return records.ErrRateLimited
	case status == http.StatusNotFound:
		return records.ErrNotFound
	default:
		return records.ErrNetwork
	}
}

func serverMessage(raw []byte) error {
	var env envelope
	if json.Unmarshal(raw, &env) == nil && env.Error != "" {
		return errors.New(env.Error)
	}
	return nil
}

func malformed(op string, err error) error {
	return &records.APIError{Kind: records.ErrNotFound, Op: op, Err: fmt.Errorf("malformed response: %w", err)}
}

func isNull(data json.RawMessage) bool {
	s := strings.TrimSpace(string(data))
	return s == "" || s == "null"
}
