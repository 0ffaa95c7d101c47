package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/clinic_scheduler/internal/model"
	"go.uber.org/zap"
)

func TestLastPage(t *testing.T) {
	tests := []struct {
		filtered, size, want int
	}{
		{0, 10, 1},
		{5, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{100, 25, 4},
		{3, 0, 1},
	}
	for _, tt := range tests {
		if got := LastPage(tt.filtered, tt.size); got != tt.want {
			t.Fatalf("LastPage(%d, %d) = %d, want %d", tt.filtered, tt.size, got, tt.want)
		}
	}
}

func TestFetchNow_ClampsAndRefetches(t *testing.T) {
	pages := &countingPages{filtered: 5}
	c := NewPaginatedQueryCoordinator(pages, model.PageQuery{Page: 2, PageSize: 10}, time.Hour, nil, zap.NewNop())
	defer c.Close()

	snap, err := c.FetchNow(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	seen := pages.seen()
	if len(seen) != 2 || seen[0].Page != 2 || seen[1].Page != 1 {
		t.Fatalf("expected fetch of page 2 then page 1, got %+v", seen)
	}
	if snap.Query.Page != 1 || c.Query().Page != 1 || snap.LastPage != 1 {
		t.Fatalf("expected clamp to page 1, got snapshot %+v", snap.Query)
	}
}

func TestFetchNow_ClampsToLastNonEmptyPage(t *testing.T) {
	pages := &countingPages{filtered: 23}
	c := NewPaginatedQueryCoordinator(pages, model.PageQuery{Page: 7, PageSize: 10}, time.Hour, nil, zap.NewNop())
	defer c.Close()

	snap, err := c.FetchNow(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Query.Page != 3 {
		t.Fatalf("expected page 3, got %d", snap.Query.Page)
	}
}

func TestFilterAndPageSizeResetPage(t *testing.T) {
	pages := &countingPages{filtered: 100}
	c := NewPaginatedQueryCoordinator(pages, model.PageQuery{Page: 4, PageSize: 10}, time.Hour, nil, zap.NewNop())
	defer c.Close()

	steps := []struct {
		name   string
		change func()
		page   int
	}{
		{"search", func() { c.SetSearch("smith") }, 1},
		{"next", func() { c.NextPage() }, 2},
		{"status", func() { c.SetStatusFilter(model.StatusCancelled) }, 1},
		{"goto", func() { c.SetPage(5) }, 5},
		{"sort keeps page", func() { c.SetSort("title", model.SortAsc) }, 5},
		{"page size", func() { c.SetPageSize(25) }, 1},
		{"prev at first", func() { c.PrevPage() }, 1},
		{"resource", func() { c.SetPage(3); c.SetResourceFilter("R") }, 1},
	}
	for _, s := range steps {
		s.change()
		if got := c.Query().Page; got != s.page {
			t.Fatalf("%s: expected page %d, got %d", s.name, s.page, got)
		}
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	pages := newManualPages()
	c := NewPaginatedQueryCoordinator(pages, model.PageQuery{Page: 1, PageSize: 10}, time.Hour, nil, zap.NewNop())
	defer c.Close()

	type outcome struct {
		snap PageSnapshot
		err  error
	}
	first := make(chan outcome, 1)
	second := make(chan outcome, 1)

	go func() {
		snap, err := c.FetchNow(context.Background())
		first <- outcome{snap, err}
	}()
	older, ok := pages.next(time.Second)
	if !ok {
		t.Fatal("first fetch was not issued")
	}

	go func() {
		snap, err := c.FetchNow(context.Background())
		second <- outcome{snap, err}
	}()
	newer, ok := pages.next(time.Second)
	if !ok {
		t.Fatal("second fetch was not issued")
	}

	// новый ответ приходит раньше старого
	newer.reply <- pageReply{result: &model.PageResult{TotalCount: 2, FilteredTotalCount: 2}}
	got := <-second
	if got.err != nil || got.snap.Result.TotalCount != 2 {
		t.Fatalf("newest fetch must be applied: %+v", got)
	}

	older.reply <- pageReply{result: &model.PageResult{TotalCount: 1, FilteredTotalCount: 1}}
	got = <-first
	if !errors.Is(got.err, ErrStaleFetch) {
		t.Fatalf("older fetch must be discarded, got %v", got.err)
	}

	snap, ok := c.Snapshot()
	if !ok || snap.Result.TotalCount != 2 {
		t.Fatalf("visible state must come from the newest fetch, got %+v", snap)
	}
}

func TestStateChangeInvalidatesInFlightFetch(t *testing.T) {
	pages := newManualPages()
	c := NewPaginatedQueryCoordinator(pages, model.PageQuery{Page: 1, PageSize: 10}, time.Hour, nil, zap.NewNop())
	defer c.Close()

	done := make(chan error, 1)
	go func() {
		_, err := c.FetchNow(context.Background())
		done <- err
	}()
	call, ok := pages.next(time.Second)
	if !ok {
		t.Fatal("fetch was not issued")
	}

	c.SetSearch("late")
	call.reply <- pageReply{result: &model.PageResult{}}

	if err := <-done; !errors.Is(err, ErrStaleFetch) {
		t.Fatalf("expected stale fetch after a state change, got %v", err)
	}
}

func TestDebounceCoalescesBurst(t *testing.T) {
	pages := &countingPages{filtered: 50}
	c := NewPaginatedQueryCoordinator(pages, model.PageQuery{Page: 1, PageSize: 10}, 30*time.Millisecond, nil, zap.NewNop())
	defer c.Close()

	updates := make(chan PageSnapshot, 4)
	c.OnUpdate(func(s PageSnapshot) { updates <- s })

	for _, q := range []string{"s", "sm", "smi", "smit", "smith"} {
		c.SetSearch(q)
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case snap := <-updates:
		if snap.Query.Search != "smith" {
			t.Fatalf("expected last search term, got %q", snap.Query.Search)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced fetch never fired")
	}

	time.Sleep(100 * time.Millisecond)
	if n := len(pages.seen()); n != 1 {
		t.Fatalf("expected one fetch for the burst, got %d", n)
	}
}

func TestDebouncedErrorReported(t *testing.T) {
	pages := newManualPages()
	c := NewPaginatedQueryCoordinator(pages, model.PageQuery{Page: 1, PageSize: 10}, 10*time.Millisecond, nil, zap.NewNop())
	defer c.Close()

	errs := make(chan error, 2)
	c.OnError(func(err error) { errs <- err })

	c.NextPage()
	call, ok := pages.next(2 * time.Second)
	if !ok {
		t.Fatal("debounced fetch never fired")
	}
	call.reply <- pageReply{err: errUnavailable}

	select {
	case err := <-errs:
		var rErr *RemoteError
		if !errors.As(err, &rErr) {
			t.Fatalf("expected RemoteError, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("error callback not called")
	}

	if _, ok := pages.next(100 * time.Millisecond); ok {
		t.Fatal("failed fetch must not be retried")
	}
}

func TestCloseCancelsPendingFetch(t *testing.T) {
	pages := &countingPages{filtered: 10}
	c := NewPaginatedQueryCoordinator(pages, model.PageQuery{Page: 1, PageSize: 10}, 20*time.Millisecond, nil, zap.NewNop())

	c.SetSearch("x")
	c.Close()
	c.SetSearch("y")

	time.Sleep(80 * time.Millisecond)
	if n := len(pages.seen()); n != 0 {
		t.Fatalf("expected no fetch after Close, got %d", n)
	}
}

func TestFiredTimerAfterCloseDoesNothing(t *testing.T) {
	pages := &countingPages{filtered: 10}
	c := NewPaginatedQueryCoordinator(pages, model.PageQuery{Page: 1, PageSize: 10}, time.Hour, nil, zap.NewNop())

	updates := make(chan PageSnapshot, 1)
	c.OnUpdate(func(s PageSnapshot) { updates <- s })

	c.SetSearch("x")
	c.mu.Lock()
	gen := c.timerGen
	c.mu.Unlock()

	c.Close()
	// таймер успел сработать до Close, но callback ещё не взял блокировку
	c.fire(gen)

	if n := len(pages.seen()); n != 0 {
		t.Fatalf("expected no fetch after Close, got %d", n)
	}
	select {
	case <-updates:
		t.Fatal("update delivered after Close")
	default:
	}
}

func TestOutdatedTimerKeepsNewerOne(t *testing.T) {
	pages := &countingPages{filtered: 10}
	c := NewPaginatedQueryCoordinator(pages, model.PageQuery{Page: 1, PageSize: 10}, 30*time.Millisecond, nil, zap.NewNop())
	defer c.Close()

	updates := make(chan PageSnapshot, 2)
	c.OnUpdate(func(s PageSnapshot) { updates <- s })

	c.SetSearch("a")
	c.mu.Lock()
	outdated := c.timerGen
	c.mu.Unlock()
	c.SetSearch("b")

	c.fire(outdated)
	c.mu.Lock()
	pending := c.timer != nil
	c.mu.Unlock()
	if !pending {
		t.Fatal("outdated timer must not clear the pending one")
	}
	if n := len(pages.seen()); n != 0 {
		t.Fatalf("outdated timer must not fetch, got %d", n)
	}

	select {
	case snap := <-updates:
		if snap.Query.Search != "b" {
			t.Fatalf("expected last search term, got %q", snap.Query.Search)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced fetch never fired")
	}
}
