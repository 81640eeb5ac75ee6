package sqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/logger"
)

const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// maxErrorBody caps how much of an error response is read for classification.
const maxErrorBody = 64 << 10

// Config identifies the remote database and the credentials to reach it.
type Config struct {
	AccountID  string
	DatabaseID string
	APIToken   string
	BaseURL    string        // Optional: defaults to DefaultBaseURL
	Timeout    time.Duration // Optional: defaults to DefaultTimeout
}

// Validate fails fast when credentials are missing.
func (c Config) Validate() error {
	var missing []string
	if c.AccountID == "" {
		missing = append(missing, "account id")
	}
	if c.DatabaseID == "" {
		missing = append(missing, "database id")
	}
	if c.APIToken == "" {
		missing = append(missing, "api token")
	}
	if len(missing) > 0 {
		return apperr.Configuration("sql store: missing " + strings.Join(missing, ", "))
	}
	return nil
}

// Client executes statements against the remote store over HTTP.
// It holds no transaction state between calls.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	timeout    time.Duration
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a remote store client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{MaxIdleConnsPerHost: 10},
		},
		endpoint: fmt.Sprintf("%s/accounts/%s/d1/database/%s/query",
			strings.TrimRight(base, "/"), cfg.AccountID, cfg.DatabaseID),
		token:   cfg.APIToken,
		timeout: timeout,
		logger:  logger.For("sqlclient"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type storeResponse struct {
	Success bool `json:"success"`
	Result  []struct {
		Results []Row `json:"results"`
		Meta    Meta  `json:"meta"`
	} `json:"result"`
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Query runs a single statement and returns its rows.
func (c *Client) Query(ctx context.Context, sql string, params ...any) ([]Row, error) {
	res, err := c.Exec(ctx, NewStatement(sql, params...))
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// Exec runs a single statement and returns rows plus write metadata.
func (c *Client) Exec(ctx context.Context, stmt Statement) (*Result, error) {
	start := time.Now()
	results, err := c.do(ctx, stmt, 1)
	observe("remote", "exec", start, err)
	if err != nil {
		c.logger.DebugContext(ctx, "statement failed", "stmt", stmt, "error", err)
		return nil, err
	}
	return &results[0], nil
}

// Batch runs all statements as one atomic unit. If any statement fails none
// of the batch's effects are visible.
func (c *Client) Batch(ctx context.Context, stmts []Statement) ([][]Row, error) {
	if len(stmts) == 0 {
		return [][]Row{}, nil
	}

	start := time.Now()
	results, err := c.do(ctx, stmts, len(stmts))
	observe("remote", "batch", start, err)
	if err != nil {
		c.logger.DebugContext(ctx, "batch failed", "statements", len(stmts), "error", err)
		return nil, err
	}

	out := make([][]Row, len(results))
	for i, r := range results {
		out[i] = r.Rows
	}
	return out, nil
}

// do posts body and returns exactly want results.
func (c *Client) do(ctx context.Context, body any, want int) ([]Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Store("could not encode statement", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Store("could not build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Transient("sql store timed out", err)
		}
		return nil, apperr.Transient("sql store unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody(resp.StatusCode)))
	if err != nil {
		return nil, apperr.Transient("sql store response interrupted", err)
	}

	var decoded storeResponse
	decodeErr := decodeResponse(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !decoded.Success {
		return nil, c.classify(ctx, resp.StatusCode, &decoded, decodeErr)
	}
	if decodeErr != nil {
		return nil, apperr.Store("malformed sql store response", decodeErr)
	}
	if len(decoded.Result) != want {
		return nil, apperr.Store(
			fmt.Sprintf("sql store returned %d results for %d statements", len(decoded.Result), want), nil)
	}

	results := make([]Result, len(decoded.Result))
	for i, r := range decoded.Result {
		rows := r.Results
		if rows == nil {
			rows = []Row{}
		}
		results[i] = Result{Rows: rows, Meta: r.Meta}
	}
	return results, nil
}

// classify reduces a failed response to the error taxonomy. Raw store text
// goes to the log, only the uniqueness signal survives.
func (c *Client) classify(ctx context.Context, status int, resp *storeResponse, decodeErr error) error {
	messages := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		messages = append(messages, e.Message)
	}
	joined := strings.Join(messages, "; ")

	c.logger.WarnContext(ctx, "sql store rejected request",
		"status", status,
		"errors", joined,
		"decode_error", decodeErr,
	)

	if IsUniqueViolationMessage(joined) {
		return apperr.Conflict("value already exists", errors.New(joined))
	}
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperr.Transient("sql store is busy", errors.New(joined))
	}
	return apperr.Store(fmt.Sprintf("sql store request failed (status %d)", status), errors.New(joined))
}

func decodeResponse(raw []byte, out *storeResponse) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}

func maxBody(status int) int64 {
	if status >= 200 && status <= 299 {
		return 1 << 30
	}
	return maxErrorBody
}
