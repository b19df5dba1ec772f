// Package client talks to the fact-checking backend over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/maxradov/propacondom-app/internal/models"
	"github.com/maxradov/propacondom-app/internal/validation"
)

// Version is sent in the User-Agent header.
var Version = "dev"

const (
	defaultStartError    = "Error starting analysis."
	defaultStatusError   = "Server returned an error when checking status."
	defaultReportError   = "Could not load the report."
	defaultFeedError     = "Failed to fetch more analyses."
	requestIDHeader      = "X-Request-ID"
	maxErrorBodyBytes    = 64 << 10
	maxResponseBodyBytes = 32 << 20
)

// Client is a backend API client. The zero value is not usable; use New.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	logger         *slog.Logger
	maxInputLength int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMaxInputLength overrides DefaultMaxInputLength.
func WithMaxInputLength(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxInputLength = n
		}
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", baseURL)
	}

	c := &Client{
		baseURL:        u,
		http:           &http.Client{},
		logger:         slog.Default(),
		maxInputLength: DefaultMaxInputLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// StartResult is the outcome of a submission. Exactly one field is set:
// TaskID when a new task was queued, AnalysisID when the backend already has
// a finished analysis for the input.
type StartResult struct {
	TaskID     string
	AnalysisID string
}

type analyzeRequest struct {
	URLOrText string `json:"url"`
	Lang      string `json:"lang"`
}

type taskResponse struct {
	TaskID string `json:"task_id"`
	ID     string `json:"id"`
}

// ValidateInput applies the submission rules without making a request.
func ValidateInput(input string, maxLen int) error {
	if strings.TrimSpace(input) == "" {
		return &InputError{Message: "Please provide a URL or text."}
	}
	if maxLen > 0 && utf8.RuneCountInString(input) > maxLen {
		return newInputTooLongError(maxLen)
	}
	return nil
}

// StartAnalysis submits a URL or text for analysis.
func (c *Client) StartAnalysis(ctx context.Context, input, lang string) (*StartResult, error) {
	input = strings.TrimSpace(input)
	if err := ValidateInput(input, c.maxInputLength); err != nil {
		return nil, err
	}

	var resp taskResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/analyze", analyzeRequest{URLOrText: input, Lang: lang}, &resp, defaultStartError); err != nil {
		return nil, err
	}
	switch {
	case resp.TaskID != "":
		return &StartResult{TaskID: resp.TaskID}, nil
	case resp.ID != "":
		return &StartResult{AnalysisID: resp.ID}, nil
	default:
		return nil, fmt.Errorf("start analysis: response carried neither task_id nor id")
	}
}

// TaskStatus queries the state of a task once.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*models.TaskStatus, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/status/"+url.PathEscape(taskID), nil, &raw, defaultStatusError); err != nil {
		return nil, err
	}
	if issues := validation.ValidateTaskStatusJSON(raw); len(issues) > 0 {
		c.logger.Debug("task status does not match schema", "task_id", taskID, "issues", issues)
	}
	var st models.TaskStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decoding task status: %w", err)
	}
	return &st, nil
}

type selectedRequest struct {
	AnalysisID         string            `json:"analysis_id"`
	SelectedClaimsData []models.ClaimRef `json:"selected_claims_data"`
}

// FactCheckSelected starts verification of the chosen claims and returns the
// new task id.
func (c *Client) FactCheckSelected(ctx context.Context, analysisID string, claims []models.ClaimRef) (string, error) {
	if analysisID == "" {
		return "", &InputError{Message: "An analysis id is required."}
	}
	if len(claims) == 0 {
		return "", &InputError{Message: "Select at least one claim to verify."}
	}

	var resp taskResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/fact_check_selected", selectedRequest{AnalysisID: analysisID, SelectedClaimsData: claims}, &resp, defaultStartError); err != nil {
		return "", err
	}
	if resp.TaskID == "" {
		return "", fmt.Errorf("fact check selected: response carried no task_id")
	}
	return resp.TaskID, nil
}

// Report fetches an analysis by id. The result is either a finished report or
// a pending claim selection.
func (c *Client) Report(ctx context.Context, analysisID string) (*models.Payload, error) {
	var raw json.RawMessage
	err := c.doJSON(ctx, http.MethodGet, "/api/report/"+url.PathEscape(analysisID), nil, &raw, defaultReportError)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, analysisID)
		}
		return nil, err
	}

	payload, err := models.DecodePayload(raw)
	if err != nil {
		return nil, err
	}
	c.checkSchema(payload.Kind, analysisID, raw)
	return payload, nil
}

func (c *Client) checkSchema(kind models.PayloadKind, analysisID string, raw []byte) {
	var issues []string
	switch kind {
	case models.KindReport:
		issues = validation.ValidateReportJSON(raw)
	case models.KindSelection:
		issues = validation.ValidateSelectionJSON(raw)
	}
	if len(issues) > 0 {
		c.logger.Warn("payload does not match schema", "analysis_id", analysisID, "kind", kind.String(), "issues", issues)
	}
}

// RecentAnalyses returns one page of the recent-analyses feed, starting after
// the given created_at cursor. An empty cursor returns the newest page.
func (c *Client) RecentAnalyses(ctx context.Context, lastTimestamp string) ([]models.AnalysisCard, error) {
	path := "/api/get_recent_analyses"
	if lastTimestamp != "" {
		path += "?last_timestamp=" + url.QueryEscape(lastTimestamp)
	}
	var cards []models.AnalysisCard
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &cards, defaultFeedError); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, fallbackMsg string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	target, err := c.baseURL.Parse(c.baseURL.Path + path)
	if err != nil {
		return fmt.Errorf("building request URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "factcheck/"+Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("backend request", "method", method, "path", path, "request_id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	c.logger.Debug("backend response", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp, fallbackMsg)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// hasStatus reports whether err wraps an APIError with the given status.
func hasStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// decodeAPIError surfaces the server's message verbatim. The backend uses
// "error" for validation problems and "result" for task lookup failures.
func decodeAPIError(resp *http.Response, fallbackMsg string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var body struct {
		Error  string `json:"error"`
		Result any    `json:"result"`
	}
	msg := fallbackMsg
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			msg = body.Error
		} else if s, ok := body.Result.(string); ok && s != "" {
			msg = s
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
