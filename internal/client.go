package internal

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

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the hosted backend the web front end talks to.
const DefaultBaseURL = "https://expense-tracker-and-budget-management.onrender.com/api"

// ErrEmptyToken is returned when login succeeds but the server sends no token.
var ErrEmptyToken = errors.New("login response contained no token")

// maxErrorBodyRunes caps how much of a response body an APIError message shows.
const maxErrorBodyRunes = 200

// APIError is a non-2xx response from the server.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if runes := []rune(msg); len(runes) > maxErrorBodyRunes {
		msg = string(runes[:maxErrorBodyRunes]) + ".."
	}
	if msg == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), msg)
}

// Client talks to the expense tracker HTTP API. Every operation is a single
// round trip: there are no retries and no client-side timeout.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	log     *logrus.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log *logrus.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the API rooted at baseURL. tokens may be nil,
// in which case all requests are sent unauthenticated.
func NewClient(baseURL string, tokens TokenSource, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = discardLogger()
	}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type dashboardResponse struct {
	CategoryBudgets map[string]CategoryBudget `json:"categoryBudgets"`
}

// reportResponse keeps expenses raw: a non-array value means "no expenses".
type reportResponse struct {
	Expenses json.RawMessage `json:"expenses"`
}

// Login exchanges credentials for a token. It does not touch the session;
// the caller decides what to do with the token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	if err := c.do(ctx, "Login", http.MethodPost, "auth/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", ErrEmptyToken
	}
	return resp.Token, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	return c.do(ctx, "Register", http.MethodPost, "auth/register", credentials{Name: name, Email: email, Password: password}, nil)
}

// ListExpenses returns all expenses of the current user.
func (c *Client) ListExpenses(ctx context.Context) ([]Expense, error) {
	var expenses []Expense
	if err := c.do(ctx, "ListExpenses", http.MethodGet, "expenses", nil, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// CreateExpense creates an expense. The returned record is nil when the
// server does not echo the created record back.
func (c *Client) CreateExpense(ctx context.Context, e NewExpense) (*Expense, error) {
	var created Expense
	var raw json.RawMessage
	if err := c.do(ctx, "CreateExpense", http.MethodPost, "expenses", e, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || json.Unmarshal(raw, &created) != nil || created.ID == 0 {
		return nil, nil
	}
	return &created, nil
}

// DeleteExpense deletes the expense with the given id.
func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	return c.do(ctx, "DeleteExpense", http.MethodDelete, "expenses/"+strconv.FormatInt(id, 10), nil, nil)
}

// ListBudgets returns all budgets of the current user.
func (c *Client) ListBudgets(ctx context.Context) ([]Budget, error) {
	var budgets []Budget
	if err := c.do(ctx, "ListBudgets", http.MethodGet, "budgets", nil, &budgets); err != nil {
		return nil, err
	}
	return budgets, nil
}

// CreateBudget creates a budget. As with CreateExpense, the returned record
// may be nil.
func (c *Client) CreateBudget(ctx context.Context, b NewBudget) (*Budget, error) {
	var created Budget
	var raw json.RawMessage
	if err := c.do(ctx, "CreateBudget", http.MethodPost, "budgets", b, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || json.Unmarshal(raw, &created) != nil || created.ID == 0 {
		return nil, nil
	}
	return &created, nil
}

// GetDashboardSummary returns the server-computed per-category budget view.
func (c *Client) GetDashboardSummary(ctx context.Context) (map[string]CategoryBudget, error) {
	var resp dashboardResponse
	if err := c.do(ctx, "GetDashboardSummary", http.MethodGet, "dashboard", nil, &resp); err != nil {
		return nil, err
	}
	if resp.CategoryBudgets == nil {
		return map[string]CategoryBudget{}, nil
	}
	return resp.CategoryBudgets, nil
}

// GetReportData returns the expenses used for the reports view.
func (c *Client) GetReportData(ctx context.Context) (*Report, error) {
	var resp reportResponse
	if err := c.do(ctx, "GetReportData", http.MethodGet, "reports", nil, &resp); err != nil {
		return nil, err
	}

	report := &Report{Expenses: []Expense{}}
	trimmed := bytes.TrimSpace(resp.Expenses)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return report, nil
	}
	if err := json.Unmarshal(trimmed, &report.Expenses); err != nil {
		return nil, fmt.Errorf("GetReportData: decoding expenses: %w", err)
	}
	return report, nil
}

// do performs one request. body is JSON encoded when non-nil; out is decoded
// from the response when non-nil and the response has a body.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("%s: parsing path: %w", op, err)
	}
	target := c.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	requestID := newRequestID()
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	entry := c.log.WithFields(logrus.Fields{
		FieldRequestID: requestID,
		FieldMethod:    method,
		FieldPath:      target.Path,
	})
	entry.Debugf("Client.%s.Start", op)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		entry.WithError(err).Debugf("Client.%s.Error", op)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		entry.WithError(err).Debugf("Client.%s.Error", op)
		return fmt.Errorf("%s: reading response: %w", op, err)
	}

	entry = entry.WithFields(logrus.Fields{
		FieldStatus:   resp.StatusCode,
		FieldDuration: time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Path: target.Path, StatusCode: resp.StatusCode, Body: string(data)}
		entry.WithError(apiErr).Debugf("Client.%s.Error", op)
		return apiErr
	}
	entry.Debugf("Client.%s.Complete", op)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	// Raw targets take the body as is, even when it is not JSON
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func newRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}
