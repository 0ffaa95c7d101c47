package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api/", Token: "secret", Timeout: time.Second}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFetchByRange(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/appointments/range" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" || r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing headers %v", r.Header)
		}
		if r.URL.Query().Get("start") != "2026-09-27T00:00:00Z" {
			t.Errorf("unexpected start %q", r.URL.Query().Get("start"))
		}
		io.WriteString(w, `[
			{"id":"a","title":"Checkup","appointmentDate":"2026-10-16T10:00:00Z","endTime":"2026-10-16T11:00:00Z","patientId":"p","resourceId":"R","status":"In Progress","files":["x.pdf"]},
			{"id":"b","title":"Short","appointmentDate":"2026-10-17T09:00:00Z","patientId":"p","resourceId":"R","status":"Scheduled"}
		]`)
	}))

	appts, err := c.FetchByRange(context.Background(),
		time.Date(2026, 9, 27, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 31, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(appts))
	}
	if appts[0].Status != model.StatusInProgress || appts[0].Duration() != time.Hour {
		t.Fatalf("unexpected first appointment %+v", appts[0])
	}
	if appts[1].Duration() != model.DefaultDuration || appts[1].Files == nil {
		t.Fatalf("missing endTime must default to one slot, got %+v", appts[1])
	}
}

func TestFetchPage_QueryParams(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		want := map[string]string{
			"page": "2", "pageSize": "25", "search": "smith", "sort": "title",
			"order": "asc", "status": "In Progress", "resourceId": "R",
		}
		for k, v := range want {
			if q.Get(k) != v {
				t.Errorf("param %s = %q, want %q", k, q.Get(k), v)
			}
		}
		io.WriteString(w, `{"items":[],"totalCount":40,"filteredTotalCount":26,"statusCounts":{"Scheduled":20,"In Progress":6}}`)
	}))

	res, err := c.FetchPage(context.Background(), model.PageQuery{
		Page: 2, PageSize: 25, Search: "smith", Sort: "title", Order: model.SortAsc,
		Status: model.StatusInProgress, ResourceID: "R",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalCount != 40 || res.FilteredTotalCount != 26 || res.StatusCounts[model.StatusInProgress] != 6 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCreate_SendsPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/appointments" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var p map[string]any
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if p["startTime"] != "1:30 PM" || p["status"] != "Scheduled" || p["date"] != "2026-10-16" {
			t.Errorf("unexpected payload %v", p)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"new","title":"t","appointmentDate":"2026-10-16T13:30:00Z","endTime":"2026-10-16T14:00:00Z","patientId":"p","resourceId":"R","status":"Scheduled"}`)
	}))

	a, err := c.Create(context.Background(), model.AppointmentPayload{
		PatientID: "p", ResourceID: "R", Title: "t", Date: "2026-10-16",
		StartTime: "1:30 PM", EndTime: "2:00 PM", Status: model.StatusScheduled,
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != "new" {
		t.Fatalf("unexpected appointment %+v", a)
	}
}

func TestUpdateStatusAndDelete(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodPatch:
			var body struct {
				Status string `json:"status"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			io.WriteString(w, `{"id":"a/1","title":"t","appointmentDate":"2026-10-16T10:00:00Z","patientId":"p","resourceId":"R","status":"`+body.Status+`"}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))

	a, err := c.UpdateStatus(context.Background(), "a/1", model.StatusCancelled)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != model.StatusCancelled {
		t.Fatalf("unexpected status %q", a.Status)
	}
	if err := c.Delete(context.Background(), "a/1"); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || calls[0] != "PATCH /api/appointments/a/1/status" || calls[1] != "DELETE /api/appointments/a/1" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestStatusErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "slot taken", http.StatusConflict)
	}))

	_, err := c.Create(context.Background(), model.AppointmentPayload{Status: model.StatusScheduled})
	var sErr *StatusError
	if !errors.As(err, &sErr) || sErr.Code != http.StatusConflict || sErr.Body != "slot taken" {
		t.Fatalf("expected 409 StatusError, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 5; i++ {
		if _, err := c.FetchByRange(context.Background(), time.Now(), time.Now()); err == nil {
			t.Fatal("expected error")
		}
	}
	_, err := c.FetchByRange(context.Background(), time.Now(), time.Now())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if hits.Load() != 5 {
		t.Fatalf("open breaker must not reach the server, got %d hits", hits.Load())
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	for i := 0; i < 10; i++ {
		_, err := c.FetchPage(context.Background(), model.PageQuery{Page: 1, PageSize: 10})
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("4xx must not open the breaker (attempt %d)", i)
		}
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "ftp://example.com"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}
