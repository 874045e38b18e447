package paging

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

// fakeFetch serves fixed-size pages out of an in-memory slice and counts
// calls, so tests can assert exactly when the pager goes to the server.
type fakeFetch struct {
	items    []entity.Process
	pageSize int
	calls    int
	lastQ    Query
}

func (f *fakeFetch) fetch(_ context.Context, q Query, cursor string) ([]entity.Process, string, error) {
	f.calls++
	f.lastQ = q

	offset := 0
	if cursor != "" {
		offset, _ = strconv.Atoi(cursor)
	}
	end := offset + f.pageSize
	if end > len(f.items) {
		end = len(f.items)
	}
	next := ""
	if end < len(f.items) {
		next = strconv.Itoa(end)
	}
	return f.items[offset:end], next, nil
}

func makeItems(n int) []entity.Process {
	items := make([]entity.Process, n)
	for i := range items {
		items[i] = entity.Process{ID: int64(i + 1), SolicitationNumber: "SOL-" + strconv.Itoa(i+1)}
	}
	return items
}

func TestGetPageFetchesSequentially(t *testing.T) {
	f := &fakeFetch{items: makeItems(25), pageSize: 10}
	p := NewPager(f.fetch)

	items, err := p.GetPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 10 || items[0].ID != 11 {
		t.Errorf("expected ids 11..20, got %d items starting at %d", len(items), items[0].ID)
	}
	if f.calls != 2 {
		t.Errorf("expected 2 fetches (pages 1 and 2), got %d", f.calls)
	}
}

func TestGetPageIsMemoized(t *testing.T) {
	f := &fakeFetch{items: makeItems(25), pageSize: 10}
	p := NewPager(f.fetch)

	if _, err := p.GetPage(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calls := f.calls

	// Re-reading fetched pages must not refetch.
	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.GetPage(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.calls != calls {
		t.Errorf("expected no further fetches, got %d extra", f.calls-calls)
	}
}

func TestIncrementPastLastPageClamps(t *testing.T) {
	f := &fakeFetch{items: makeItems(15), pageSize: 10}
	p := NewPager(f.fetch)

	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := p.IncrementPage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items on page 2, got %d", len(items))
	}
	if p.CurrentPage() != 2 {
		t.Fatalf("expected current page 2, got %d", p.CurrentPage())
	}

	// Chain is exhausted: a further increment stays on page 2 and returns
	// the same items.
	again, err := p.IncrementPage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentPage() != 2 {
		t.Errorf("expected clamp at page 2, got %d", p.CurrentPage())
	}
	if len(again) != 5 || again[0].ID != items[0].ID {
		t.Errorf("expected page 2 items unchanged, got %d items", len(again))
	}
}

func TestDecrementFloorsAtPageOne(t *testing.T) {
	f := &fakeFetch{items: makeItems(5), pageSize: 10}
	p := NewPager(f.fetch)

	if _, err := p.DecrementPage(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentPage() != 1 {
		t.Errorf("expected page 1 floor, got %d", p.CurrentPage())
	}
}

func TestHasNext(t *testing.T) {
	f := &fakeFetch{items: makeItems(15), pageSize: 10}
	p := NewPager(f.fetch)

	// Nothing fetched yet: a next page is still possible.
	if !p.HasNext() {
		t.Error("expected HasNext before any fetch")
	}

	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.HasNext() {
		t.Error("expected HasNext on page 1 of 2")
	}

	if _, err := p.IncrementPage(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.HasNext() {
		t.Error("expected no next page on the last page")
	}
}

func TestFilterChangeResetsChain(t *testing.T) {
	f := &fakeFetch{items: makeItems(25), pageSize: 10}
	p := NewPager(f.fetch)

	if _, err := p.GetPage(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.CurrentPage() != 1 {
		t.Fatalf("GetPage should not move the current page, got %d", p.CurrentPage())
	}
	if _, err := p.IncrementPage(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.SetFilter("parent_org", "AFMC")

	if p.CurrentPage() != 1 {
		t.Errorf("filter change should reset to page 1, got %d", p.CurrentPage())
	}
	before := f.calls
	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.calls != before+1 {
		t.Errorf("expected a refetch after filter change, got %d extra calls", f.calls-before)
	}
	if f.lastQ.Filters["parent_org"] != "AFMC" {
		t.Errorf("expected filter to reach the fetch, got %v", f.lastQ.Filters)
	}
}

func TestSortChangeResetsChain(t *testing.T) {
	f := &fakeFetch{items: makeItems(25), pageSize: 10}
	p := NewPager(f.fetch)

	if _, err := p.GetPage(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.SetSort("program_name", true)
	if p.CurrentPage() != 1 {
		t.Errorf("sort change should reset to page 1, got %d", p.CurrentPage())
	}
	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.lastQ.SortField != "program_name" || !f.lastQ.SortAscending {
		t.Errorf("expected sort state to reach the fetch, got %+v", f.lastQ)
	}
}

func TestFindCachedByIDNeverFetches(t *testing.T) {
	f := &fakeFetch{items: makeItems(25), pageSize: 10}
	p := NewPager(f.fetch)

	// Miss before any fetch.
	if _, ok := p.FindCachedByID(3); ok {
		t.Error("expected miss with no fetched pages")
	}
	if f.calls != 0 {
		t.Fatalf("FindCachedByID must not fetch, got %d calls", f.calls)
	}

	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calls := f.calls

	got, ok := p.FindCachedByID(3)
	if !ok || got.ID != 3 {
		t.Errorf("expected hit for id 3, got ok=%v id=%d", ok, got.ID)
	}
	// Id 15 lives on an unfetched page: miss, still no fetch.
	if _, ok := p.FindCachedByID(15); ok {
		t.Error("expected miss for unfetched page")
	}
	if f.calls != calls {
		t.Errorf("FindCachedByID must not fetch, got %d extra calls", f.calls-calls)
	}
}

func TestInvalidateKeepsQueryAndPage(t *testing.T) {
	f := &fakeFetch{items: makeItems(25), pageSize: 10}
	p := NewPager(f.fetch)
	p.SetFilter("parent_org", "AFMC")

	if _, err := p.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.IncrementPage(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Invalidate()

	if p.CurrentPage() != 2 {
		t.Errorf("invalidate should keep the requested page, got %d", p.CurrentPage())
	}
	if p.Query().Filters["parent_org"] != "AFMC" {
		t.Errorf("invalidate should keep filters, got %v", p.Query().Filters)
	}
	if _, ok := p.FindCachedByID(1); ok {
		t.Error("invalidate should drop cached pages")
	}

	before := f.calls
	if _, err := p.GetPage(context.Background(), p.CurrentPage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.calls != before+2 {
		t.Errorf("expected refetch of pages 1..2, got %d extra calls", f.calls-before)
	}
}

func TestStaleInFlightFetchIsDiscarded(t *testing.T) {
	blocked := make(chan struct{})
	release := make(chan struct{})
	var calls int

	var p *Pager
	fetch := func(_ context.Context, q Query, cursor string) ([]entity.Process, string, error) {
		calls++
		if calls == 1 {
			close(blocked)
			<-release
		}
		return []entity.Process{{ID: int64(calls * 100)}}, "", nil
	}
	p = NewPager(fetch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.GetPage(context.Background(), 1)
	}()

	<-blocked
	// Filter change lands while the first fetch is in flight.
	p.SetFilter("parent_org", "ACC")
	close(release)
	<-done

	// The stale result must not have been installed.
	if _, ok := p.FindCachedByID(100); ok {
		t.Error("stale fetch result should have been discarded")
	}

	items, err := p.GetPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != 200 {
		t.Errorf("expected fresh fetch result, got %+v", items)
	}
}

func TestConcurrentGetPageFetchesOnce(t *testing.T) {
	blocked := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0

	fetch := func(_ context.Context, q Query, cursor string) ([]entity.Process, string, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(blocked)
			<-release
		}
		return []entity.Process{{ID: int64(n)}}, "", nil
	}
	p := NewPager(fetch)

	// Two callers ask for page 1 while the first fetch is still in flight —
	// a double-click or a second tab on the same session.
	first := make(chan struct{})
	go func() {
		defer close(first)
		p.GetPage(context.Background(), 1)
	}()
	<-blocked

	second := make(chan []entity.Process, 1)
	go func() {
		items, _ := p.GetPage(context.Background(), 1)
		second <- items
	}()

	close(release)
	<-first
	items := <-second

	mu.Lock()
	got := calls
	mu.Unlock()
	if got != 1 {
		t.Errorf("expected a single fetch for page 1, got %d", got)
	}
	if len(items) != 1 || items[0].ID != 1 {
		t.Errorf("expected both callers to see the one fetched page, got %+v", items)
	}
	// The chain holds exactly one page: asking past it returns nothing.
	extra, err := p.GetPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(extra) != 0 {
		t.Errorf("expected no page 2, got %+v", extra)
	}
}

func TestSessionsIsolatePagers(t *testing.T) {
	f := &fakeFetch{items: makeItems(25), pageSize: 10}
	s := NewSessions(func() *Pager { return NewPager(f.fetch) })

	a := s.Get("alice")
	b := s.Get("bob")
	if a == b {
		t.Fatal("expected distinct pagers per session")
	}
	if s.Get("alice") != a {
		t.Fatal("expected the same pager on repeat lookup")
	}

	a.SetFilter("parent_org", "AFMC")
	if b.Query().Filters["parent_org"] != "" {
		t.Error("filter must not leak across sessions")
	}

	if _, err := a.GetPage(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.InvalidateAll()
	if _, ok := a.FindCachedByID(1); ok {
		t.Error("InvalidateAll should drop cached pages in every session")
	}
}
