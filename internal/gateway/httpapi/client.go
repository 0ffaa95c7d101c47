// Package httpapi клиент REST API клиники, которое хранит приёмы.
// Запросы идут через circuit breaker и никогда не повторяются автоматически.
package httpapi

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

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const maxBodySize = 4 << 20

// StatusError ответ API с кодом не 2xx
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

type Config struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	Location *time.Location
}

type Client struct {
	baseURL *url.URL
	token   string
	loc     *time.Location
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https, got %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	c := &Client{
		baseURL: base,
		token:   strings.TrimSpace(cfg.Token),
		loc:     loc,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "clinic-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 4xx означает отказ по существу, а не недоступность API
		IsSuccessful: func(err error) bool {
			var sErr *StatusError
			if errors.As(err, &sErr) {
				return sErr.Code < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c, nil
}

// FetchByRange GET /appointments/range
func (c *Client) FetchByRange(ctx context.Context, start, end time.Time) ([]*model.Appointment, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(time.RFC3339Nano))
	q.Set("end", end.UTC().Format(time.RFC3339Nano))

	var records []model.AppointmentRecord
	if err := c.do(ctx, http.MethodGet, "/appointments/range", q, nil, &records); err != nil {
		return nil, err
	}

	appts := make([]*model.Appointment, 0, len(records))
	for _, r := range records {
		a, err := r.ToAppointment(c.loc)
		if err != nil {
			return nil, fmt.Errorf("decode range: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, nil
}

// FetchPage GET /appointments
func (c *Client) FetchPage(ctx context.Context, pq model.PageQuery) (*model.PageResult, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(pq.Page))
	q.Set("pageSize", strconv.Itoa(pq.PageSize))
	if pq.Search != "" {
		q.Set("search", pq.Search)
	}
	if pq.Sort != "" {
		q.Set("sort", pq.Sort)
	}
	if pq.Order != "" {
		q.Set("order", string(pq.Order))
	}
	if pq.Status != "" {
		q.Set("status", string(pq.Status))
	}
	if pq.ResourceID != "" {
		q.Set("resourceId", pq.ResourceID)
	}

	var page model.PageRecords
	if err := c.do(ctx, http.MethodGet, "/appointments", q, nil, &page); err != nil {
		return nil, err
	}

	result := &model.PageResult{
		Items:              make([]*model.Appointment, 0, len(page.Items)),
		TotalCount:         page.TotalCount,
		FilteredTotalCount: page.FilteredTotalCount,
		StatusCounts:       page.StatusCounts,
	}
	for _, r := range page.Items {
		a, err := r.ToAppointment(c.loc)
		if err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		result.Items = append(result.Items, a)
	}
	return result, nil
}

// Create POST /appointments
func (c *Client) Create(ctx context.Context, p model.AppointmentPayload) (*model.Appointment, error) {
	return c.write(ctx, http.MethodPost, "/appointments", p)
}

// Update PUT /appointments/{id}
func (c *Client) Update(ctx context.Context, id string, p model.AppointmentPayload) (*model.Appointment, error) {
	return c.write(ctx, http.MethodPut, "/appointments/"+url.PathEscape(id), p)
}

// UpdateStatus PATCH /appointments/{id}/status
func (c *Client) UpdateStatus(ctx context.Context, id string, status model.Status) (*model.Appointment, error) {
	body := struct {
		Status model.Status `json:"status"`
	}{Status: status}
	return c.write(ctx, http.MethodPatch, "/appointments/"+url.PathEscape(id)+"/status", body)
}

// Delete DELETE /appointments/{id}
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/appointments/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) write(ctx context.Context, method, path string, body any) (*model.Appointment, error) {
	var record model.AppointmentRecord
	if err := c.do(ctx, method, path, nil, body, &record); err != nil {
		return nil, err
	}
	a, err := record.ToAppointment(c.loc)
	if err != nil {
		return nil, fmt.Errorf("decode appointment: %w", err)
	}
	return a, nil
}

// do выполняет запрос через breaker и декодирует JSON-ответ в out, если он задан
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = raw
	}

	// path уже экранирован, идентификаторы могут содержать "/"
	u := *c.baseURL
	u.RawPath = c.baseURL.EscapedPath() + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return fmt.Errorf("build url %s: %w", path, err)
	}
	u.Path = unescaped
	u.RawQuery = query.Encode()

	requestID := uuid.NewString()

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}
		return data, nil
	})
	if err != nil {
		c.logger.Debug("API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
