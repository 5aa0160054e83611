// Package client talks to the ledgerly HTTP API on behalf of the terminal UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/stats"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err means the session is missing or expired.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Token string    `json:"token"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.session(ctx, "/api/auth/register", body)
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	return c.session(ctx, "/api/auth/login", body)
}

func (c *Client) session(ctx context.Context, path string, body any) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, path, body, &u); err != nil {
		return nil, err
	}

	c.token = u.Token

	return &u, nil
}

func (c *Client) Logout() {
	c.token = ""
}

type wireTransaction struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"userId"`
	Title     string               `json:"title"`
	Amount    decimal.Decimal      `json:"amount"`
	Category  transaction.Category `json:"category"`
	Type      transaction.Type     `json:"type"`
	Date      time.Time            `json:"date"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

func (w wireTransaction) toDomain() *transaction.Transaction {
	return &transaction.Transaction{
		ID:        w.ID,
		OwnerID:   w.UserID,
		Title:     w.Title,
		Amount:    w.Amount,
		Category:  w.Category,
		Type:      w.Type,
		Date:      w.Date,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func toDomainList(ws []wireTransaction) []*transaction.Transaction {
	txs := make([]*transaction.Transaction, len(ws))
	for i, w := range ws {
		txs[i] = w.toDomain()
	}

	return txs
}

// Query encodes filter the way the list and export endpoints read it.
func Query(filter transaction.ListFilter) url.Values {
	q := url.Values{}

	if filter.Type != nil {
		q.Set("type", string(*filter.Type))
	}

	if filter.Search != "" {
		q.Set("q", filter.Search)
	}

	if filter.StartDate != nil {
		q.Set("start_date", filter.StartDate.Format(time.DateOnly))
	}

	if filter.EndDate != nil {
		q.Set("end_date", filter.EndDate.Format(time.DateOnly))
	}

	return q
}

func (c *Client) List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	path := "/api/transactions"
	if q := Query(filter).Encode(); q != "" {
		path += "?" + q
	}

	var ws []wireTransaction
	if err := c.do(ctx, http.MethodGet, path, nil, &ws); err != nil {
		return nil, err
	}

	return toDomainList(ws), nil
}

type writeRequest struct {
	Title    *string      `json:"title,omitempty"`
	Amount   *json.Number `json:"amount,omitempty"`
	Category *string      `json:"category,omitempty"`
	Type     *string      `json:"type,omitempty"`
	Date     *string      `json:"date,omitempty"`
}

func number(d decimal.Decimal) *json.Number {
	return new(json.Number(d.String()))
}

func (c *Client) Create(ctx context.Context, p transaction.CreateParams) (*transaction.Transaction, error) {
	req := writeRequest{
		Title:    &p.Title,
		Category: new(string(p.Category)),
		Type:     new(string(p.Type)),
	}

	if p.Amount.Valid {
		req.Amount = number(p.Amount.Decimal)
	}

	if !p.Date.IsZero() {
		req.Date = new(p.Date.Format(time.DateOnly))
	}

	var w wireTransaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", req, &w); err != nil {
		return nil, err
	}

	return w.toDomain(), nil
}

func (c *Client) Update(ctx context.Context, id uuid.UUID, p transaction.UpdateParams) (*transaction.Transaction, error) {
	req := writeRequest{Title: p.Title}

	if p.Amount != nil {
		req.Amount = number(*p.Amount)
	}

	if p.Category != nil {
		req.Category = new(string(*p.Category))
	}

	if p.Type != nil {
		req.Type = new(string(*p.Type))
	}

	if p.Date != nil {
		req.Date = new(p.Date.Format(time.DateOnly))
	}

	var w wireTransaction
	if err := c.do(ctx, http.MethodPut, "/api/transactions/"+id.String(), req, &w); err != nil {
		return nil, err
	}

	return w.toDomain(), nil
}

func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/transactions/"+id.String(), nil, nil)
}

type wireSummary struct {
	TotalIncome       decimal.Decimal                          `json:"totalIncome"`
	TotalExpense      decimal.Decimal                          `json:"totalExpense"`
	Balance           decimal.Decimal                          `json:"balance"`
	CategoryBreakdown map[transaction.Category]decimal.Decimal `json:"categoryBreakdown"`
	TransactionCount  int                                      `json:"transactionCount"`
	SpendingAlert     struct {
		Ratio     decimal.Decimal `json:"ratio"`
		Threshold decimal.Decimal `json:"threshold"`
		Triggered bool            `json:"triggered"`
	} `json:"spendingAlert"`
}

func (c *Client) Summary(ctx context.Context) (stats.Summary, stats.SpendingAlert, error) {
	var w wireSummary
	if err := c.do(ctx, http.MethodGet, "/api/transactions/stats/summary", nil, &w); err != nil {
		return stats.Summary{}, stats.SpendingAlert{}, err
	}

	s := stats.Summary{
		TotalIncome:       w.TotalIncome,
		TotalExpense:      w.TotalExpense,
		Balance:           w.Balance,
		CategoryBreakdown: w.CategoryBreakdown,
		TransactionCount:  w.TransactionCount,
	}

	if s.CategoryBreakdown == nil {
		s.CategoryBreakdown = make(map[transaction.Category]decimal.Decimal)
	}

	alert := stats.SpendingAlert{
		Ratio:     w.SpendingAlert.Ratio,
		Threshold: w.SpendingAlert.Threshold,
		Triggered: w.SpendingAlert.Triggered,
	}

	return s, alert, nil
}

func (c *Client) Suggest(ctx context.Context, title string) (transaction.Category, error) {
	var resp struct {
		Category transaction.Category `json:"category"`
	}

	path := "/api/categories/suggest?" + url.Values{"title": {title}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}

	return resp.Category, nil
}

func (c *Client) Learn(ctx context.Context, pattern string, category transaction.Category) error {
	body := map[string]string{"pattern": pattern, "category": string(category)}
	return c.do(ctx, http.MethodPost, "/api/categories/rules", body, nil)
}

// ImportResult mirrors transaction.ImportResult for a server-side import.
type ImportResult struct {
	Imported  []*transaction.Transaction
	New       []transaction.CreateParams
	Conflicts []transaction.Conflict
}

type wireParams struct {
	Title    string               `json:"title"`
	Amount   decimal.Decimal      `json:"amount"`
	Category transaction.Category `json:"category"`
	Type     transaction.Type     `json:"type"`
	Date     time.Time            `json:"date"`
}

func (w wireParams) toDomain() transaction.CreateParams {
	return transaction.CreateParams{
		Title:    w.Title,
		Amount:   decimal.NewNullDecimal(w.Amount),
		Category: w.Category,
		Type:     w.Type,
		Date:     w.Date,
	}
}

func fromDomain(p transaction.CreateParams) wireParams {
	return wireParams{
		Title:    p.Title,
		Amount:   p.Amount.Decimal,
		Category: p.Category,
		Type:     p.Type,
		Date:     p.Date,
	}
}

type wireImport struct {
	Transactions []wireTransaction `json:"transactions"`
	New          []wireParams      `json:"new"`
	Conflicts    []struct {
		Incoming wireParams      `json:"incoming"`
		Existing wireTransaction `json:"existing"`
	} `json:"conflicts"`
}

// Import uploads the CSV at path. Conflicts come back in the result, not as an error.
func (c *Client) Import(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/transactions/import", &body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	var w wireImport

	err = c.send(req, &w)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
			return nil, err
		}
	}

	result := &ImportResult{Imported: toDomainList(w.Transactions)}

	for _, p := range w.New {
		result.New = append(result.New, p.toDomain())
	}

	for _, conflict := range w.Conflicts {
		result.Conflicts = append(result.Conflicts, transaction.Conflict{
			Incoming: conflict.Incoming.toDomain(),
			Existing: conflict.Existing.toDomain(),
		})
	}

	return result, nil
}

// ConfirmImport stores params without duplicate detection.
func (c *Client) ConfirmImport(ctx context.Context, params []transaction.CreateParams) ([]*transaction.Transaction, error) {
	req := struct {
		Params []wireParams `json:"params"`
	}{Params: make([]wireParams, len(params))}

	for i, p := range params {
		req.Params[i] = fromDomain(p)
	}

	var w wireImport
	if err := c.do(ctx, http.MethodPost, "/api/transactions/import/confirm", req, &w); err != nil {
		return nil, err
	}

	return toDomainList(w.Transactions), nil
}

// Export downloads the owner's transactions in format ("csv" or "txt") and returns
// the body with the server's suggested filename.
func (c *Client) Export(ctx context.Context, format string, filter transaction.ListFilter) ([]byte, string, error) {
	q := Query(filter)
	q.Set("format", format)

	req, err := c.newRequest(ctx, http.MethodGet, "/api/transactions/export?"+q.Encode(), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("requesting export: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading export: %w", err)
	}

	name := "ledgerly." + format
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}

	return data, name, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}

		r = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, r)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

// send decodes the body into out even for error statuses, so callers can read
// structured error payloads such as import conflicts.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	statusErr := statusError(resp.StatusCode, data)

	if out != nil && len(data) > 0 && (statusErr == nil || resp.StatusCode == http.StatusConflict) {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return statusErr
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	data, _ := io.ReadAll(resp.Body)

	return statusError(resp.StatusCode, data)
}

func statusError(code int, body []byte) error {
	if code < http.StatusBadRequest {
		return nil
	}

	var msg struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &msg); err != nil || msg.Message == "" {
		msg.Message = http.StatusText(code)
	}

	return &APIError{StatusCode: code, Message: msg.Message}
}
