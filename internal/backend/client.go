// Package backend is the REST/JSON client for the remote inventory API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/invoicing"
	"github.com/stockdesk/stockdesk/internal/shared"
)

const maxErrorBody = 4 << 10

// Client wraps interactions with the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client. baseURL includes the API prefix, e.g.
// http://localhost:8000/api.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping checks that the backend answers the product listing.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/products/", nil), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &shared.FetchError{Op: "ping", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return &shared.FetchError{Op: "ping", Status: resp.StatusCode}
	}
	return nil
}

// ListProducts returns the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.fetch(ctx, "products", c.endpoint("/products/", nil), &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	var product catalog.Product
	err := c.fetch(ctx, "product", c.endpoint(productPath(id), nil), &product)
	return product, err
}

// CreateProduct posts a new product.
func (c *Client) CreateProduct(ctx context.Context, input catalog.ProductInput) (catalog.Product, error) {
	var product catalog.Product
	err := c.send(ctx, "product", http.MethodPost, c.endpoint("/products/", nil), input, &product)
	return product, err
}

// UpdateProduct replaces a product.
func (c *Client) UpdateProduct(ctx context.Context, id int64, input catalog.ProductInput) (catalog.Product, error) {
	var product catalog.Product
	err := c.send(ctx, "product", http.MethodPut, c.endpoint(productPath(id), nil), input, &product)
	return product, err
}

// PatchProduct applies a partial update.
func (c *Client) PatchProduct(ctx context.Context, id int64, patch catalog.ProductPatch) (catalog.Product, error) {
	var product catalog.Product
	err := c.send(ctx, "product", http.MethodPatch, c.endpoint(productPath(id), nil), patch, &product)
	return product, err
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.send(ctx, "product", http.MethodDelete, c.endpoint(productPath(id), nil), nil, nil)
}

// ListAccounts returns customers for sales and suppliers for purchases.
func (c *Client) ListAccounts(ctx context.Context, kind invoicing.Kind) ([]invoicing.Account, error) {
	path := "/accounts/customers/"
	if kind == invoicing.KindPurchase {
		path = "/accounts/suppliers/"
	}
	var accounts []invoicing.Account
	if err := c.fetch(ctx, "accounts", c.endpoint(path, nil), &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListInvoices returns stored invoices of kind.
func (c *Client) ListInvoices(ctx context.Context, kind invoicing.Kind) ([]invoicing.Invoice, error) {
	var invoices []invoicing.Invoice
	if err := c.fetch(ctx, "invoices", c.endpoint(invoicePath(kind), nil), &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// CreateInvoice submits a built payload.
func (c *Client) CreateInvoice(ctx context.Context, payload invoicing.SubmissionPayload) (invoicing.Invoice, error) {
	var invoice invoicing.Invoice
	err := c.send(ctx, string(payload.Kind), http.MethodPost, c.endpoint(invoicePath(payload.Kind), nil), payload, &invoice)
	return invoice, err
}

// DayReport returns the raw day report for date (YYYY-MM-DD).
func (c *Client) DayReport(ctx context.Context, date string) ([]byte, error) {
	return c.fetchRaw(ctx, "day report", c.endpoint("/reports/day/", url.Values{"date": {date}}))
}

// PeriodReport returns the raw report between start and end inclusive.
func (c *Client) PeriodReport(ctx context.Context, start, end string) ([]byte, error) {
	return c.fetchRaw(ctx, "period report", c.endpoint("/reports/period/", url.Values{"start": {start}, "end": {end}}))
}

// SummaryReport returns the raw summary of summaryType around date.
func (c *Client) SummaryReport(ctx context.Context, summaryType, date string) ([]byte, error) {
	return c.fetchRaw(ctx, "summary report", c.endpoint("/reports/summary/", url.Values{"type": {summaryType}, "date": {date}}))
}

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10) + "/"
}

func invoicePath(kind invoicing.Kind) string {
	if kind == invoicing.KindPurchase {
		return "/invoices/purchases/"
	}
	return "/invoices/sales/"
}

func (c *Client) endpoint(path string, query url.Values) string {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func (c *Client) fetch(ctx context.Context, op, target string, out any) error {
	body, err := c.fetchRaw(ctx, op, target)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &shared.FetchError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (c *Client) fetchRaw(ctx context.Context, op, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &shared.FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &shared.FetchError{Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, &shared.FetchError{Op: op, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shared.FetchError{Op: op, Err: err}
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, kind, method, target string, in, out any) error {
	var reader io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &shared.SubmissionError{Kind: kind, Err: err}
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &shared.SubmissionError{Kind: kind, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &shared.SubmissionError{Kind: kind, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, target, shared.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &shared.SubmissionError{Kind: kind, Status: resp.StatusCode, Detail: errorDetail(detail)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &shared.SubmissionError{Kind: kind, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// errorDetail flattens a backend error body. Field errors arrive as
// {"field": ["message", ...]} and are joined as "field: message".
func errorDetail(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(trimmed, &detail); err == nil && detail.Detail != "" {
		return detail.Detail
	}
	var fields map[string][]string
	if err := json.Unmarshal(trimmed, &fields); err == nil && len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+strings.Join(fields[k], " "))
		}
		return strings.Join(parts, "; ")
	}
	return string(trimmed)
}
