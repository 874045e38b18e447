// Package paging models the process listing as a lazily-extended chain of
// fetched pages. Pages are stored in a growable slice indexed by page number
// with a per-page cursor for fetching the next one; a fetched page is never
// re-fetched. Filter and sort state live on the pager, and changing either
// invalidates the whole chain and restarts from page one.
package paging

import (
	"context"
	"sync"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

// Query is the filter/sort state applied server-side. An empty SortField
// means the default order: creation time, descending.
type Query struct {
	Filters       map[string]string
	SortField     string
	SortAscending bool
}

func (q Query) clone() Query {
	c := Query{SortField: q.SortField, SortAscending: q.SortAscending}
	c.Filters = make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		c.Filters[k] = v
	}
	return c
}

// Fetch retrieves one page of processes for the given query. cursor is ""
// for the first page; the returned next cursor is "" when the result set is
// exhausted. The server-applied sort is authoritative — the pager never
// re-sorts locally.
type Fetch func(ctx context.Context, q Query, cursor string) (items []entity.Process, next string, err error)

// page is one fetched batch plus the memoized link to the next one.
type page struct {
	items []entity.Process
	next  string
}

func (p *page) hasNext() bool {
	return p.next != ""
}

// Pager owns the fetched page chain for one logical session. All operations
// are serialized; a filter or sort change that lands while a fetch is in
// flight causes that fetch's result to be discarded rather than merged.
type Pager struct {
	mu       sync.Mutex
	fetched  *sync.Cond
	fetch    Fetch
	query    Query
	pages    []*page
	done     bool
	fetching bool
	current  int
	gen      uint64
}

// NewPager creates a pager positioned on page 1 with no filters and the
// default sort.
func NewPager(fetch Fetch) *Pager {
	p := &Pager{
		fetch:   fetch,
		query:   Query{Filters: map[string]string{}},
		current: 1,
	}
	p.fetched = sync.NewCond(&p.mu)
	return p
}

// GetPage ensures pages 1..n are fetched and returns page n's items. If the
// chain terminates before page n the result is an empty slice.
func (p *Pager) GetPage(ctx context.Context, n int) ([]entity.Process, error) {
	if n < 1 {
		n = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.extendLocked(ctx, n); err != nil {
		return nil, err
	}
	if n > len(p.pages) {
		return []entity.Process{}, nil
	}
	return p.pages[n-1].items, nil
}

// extendLocked fetches pages sequentially until n pages exist or the chain
// ends. The mutex is released around each fetch, but at most one fetch runs
// per pager: concurrent callers wait on the condition and re-read the chain
// once the fetch in flight lands, so a page is never installed twice.
// Results from a stale generation (filter/sort change meanwhile) are dropped.
func (p *Pager) extendLocked(ctx context.Context, n int) error {
	for len(p.pages) < n && !p.done {
		if p.fetching {
			p.fetched.Wait()
			continue
		}
		cursor := ""
		if last := len(p.pages); last > 0 {
			prev := p.pages[last-1]
			if !prev.hasNext() {
				p.done = true
				break
			}
			cursor = prev.next
		}

		gen := p.gen
		q := p.query.clone()
		p.fetching = true
		p.mu.Unlock()
		items, next, err := p.fetch(ctx, q, cursor)
		p.mu.Lock()
		p.fetching = false
		p.fetched.Broadcast()

		if p.gen != gen {
			// Chain was reset while fetching; the result belongs to a
			// discarded generation.
			return nil
		}
		if err != nil {
			return err
		}
		p.pages = append(p.pages, &page{items: items, next: next})
		if next == "" {
			p.done = true
		}
	}
	return nil
}

// CurrentPage returns the requested page number (1-based).
func (p *Pager) CurrentPage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// IncrementPage advances the requested page and returns its items. When the
// chain has no further page the request clamps to the last page, whose items
// are returned unchanged.
func (p *Pager) IncrementPage(ctx context.Context) ([]entity.Process, error) {
	p.mu.Lock()
	target := p.current + 1
	p.mu.Unlock()

	items, err := p.GetPage(ctx, target)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if target > len(p.pages) {
		// Terminated before the requested page; stay on the last one.
		if n := len(p.pages); n > 0 {
			p.current = n
			return p.pages[n-1].items, nil
		}
		p.current = 1
		return []entity.Process{}, nil
	}
	p.current = target
	return items, nil
}

// DecrementPage moves back one page with page 1 as the floor. The floor is a
// caller-side boundary: the UI disables the control rather than relying on
// the pager to reject it.
func (p *Pager) DecrementPage(ctx context.Context) ([]entity.Process, error) {
	p.mu.Lock()
	if p.current > 1 {
		p.current--
	}
	target := p.current
	p.mu.Unlock()
	return p.GetPage(ctx, target)
}

// HasNext reports whether a page beyond the current one is known or possible.
func (p *Pager) HasNext() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current < len(p.pages) {
		return true
	}
	if p.current > len(p.pages) {
		return false
	}
	if len(p.pages) == 0 {
		return !p.done
	}
	return p.pages[p.current-1].hasNext()
}

// SetFilter replaces one filter value and restarts the chain from page 1.
func (p *Pager) SetFilter(field, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query.Filters[field] = value
	p.resetLocked()
}

// ClearFilter removes one filter and restarts the chain from page 1.
func (p *Pager) ClearFilter(field string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.query.Filters, field)
	p.resetLocked()
}

// SetSort replaces the sort state and restarts the chain from page 1.
func (p *Pager) SetSort(field string, ascending bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query.SortField = field
	p.query.SortAscending = ascending
	p.resetLocked()
}

// Query returns a copy of the current filter/sort state.
func (p *Pager) Query() Query {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query.clone()
}

// FindCachedByID scans only the pages already fetched — no fetch is
// triggered — and returns the matching process, or ok=false.
func (p *Pager) FindCachedByID(id int64) (entity.Process, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pg := range p.pages {
		for _, proc := range pg.items {
			if proc.ID == id {
				return proc, true
			}
		}
	}
	return entity.Process{}, false
}

// Invalidate drops every fetched page so the next access refetches, keeping
// the filter/sort state and requested page number. Used after a submit or
// delete so the listing reflects the change.
func (p *Pager) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = nil
	p.done = false
	p.gen++
}

func (p *Pager) resetLocked() {
	p.pages = nil
	p.done = false
	p.current = 1
	p.gen++
}
