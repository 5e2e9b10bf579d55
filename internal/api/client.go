// Package api is the HTTP client for the remote finance backend. It
// implements ports.Source over the /categories, /transactions and
// /recurring-expenses resources.
package api

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
	"time"

	"github.com/cenkalti/backoff/v4"

	"moneyflow/internal/core"
)

const (
	DefaultBaseURL = "http://localhost:8080/api"
	defaultTimeout = 10 * time.Second
)

// Error is returned for non-2xx responses.
type Error struct {
	Status int
	Method string
	Path   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API request failed: %d", e.Status)
}

// retryable reports whether the response status is worth another attempt.
func (e *Error) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	http       *http.Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       hc,
		maxRetries: uint64(cfg.MaxRetries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) CreateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	var out core.Category
	err := c.do(ctx, http.MethodPost, "/categories", cat, &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	var out core.Category
	err := c.do(ctx, http.MethodPut, "/categories/"+url.PathEscape(cat.ID), cat, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	err := c.do(ctx, http.MethodPost, "/transactions", t, &out)
	return out, err
}

func (c *Client) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	err := c.do(ctx, http.MethodPut, "/transactions/"+url.PathEscape(t.ID), t, &out)
	return out, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListRecurringExpensesForMonth(ctx context.Context, month string) ([]core.RecurringExpenseForMonth, error) {
	var out []core.RecurringExpenseForMonth
	path := "/recurring-expenses?month=" + url.QueryEscape(month)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) CreateRecurringExpense(ctx context.Context, r core.RecurringExpense) (core.RecurringExpense, error) {
	var out core.RecurringExpense
	err := c.do(ctx, http.MethodPost, "/recurring-expenses", r, &out)
	return out, err
}

func (c *Client) DeleteRecurringExpense(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/recurring-expenses/"+url.PathEscape(id), nil, nil)
}

// do sends one logical request. GET, PUT and DELETE are retried on network
// errors, 429 and 5xx; POST is sent once. A 404 maps to core.ErrNotFound.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	attempt := 0
	op := func() error {
		attempt++
		err := c.send(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		var apiErr *Error
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		slog.WarnContext(ctx, "API request failed",
			"method", method,
			"path", path,
			"attempt", attempt,
			"error", err)
		return err
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if method != http.MethodPost && c.maxRetries > 0 {
		policy = backoff.WithMaxRetries(c.newBackOff(), c.maxRetries)
	}

	err := backoff.Retry(op, backoff.WithContext(policy, ctx))
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w: %w", method, path, core.ErrNotFound, err)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &Error{Status: resp.StatusCode, Method: method, Path: path}
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode %s %s response: %w", method, path, err))
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
