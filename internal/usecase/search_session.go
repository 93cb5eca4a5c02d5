package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"product-search/internal/domain"
	"product-search/pkg/logger"

	"github.com/rs/zerolog"
)

// SessionOptions tunes a SearchSession.
type SessionOptions struct {
	Debounce    time.Duration
	PageSize    int
	Suggestions int
	Logger      *zerolog.Logger
}

// SearchSession holds the interactive state of one search page: query text,
// current page, results, suggestions and the loading/error/open flags.
//
// Query edits are debounced and reset the page to 1. Page changes fetch
// immediately. Every fetch gets a generation number and its own context; a
// newer fetch cancels the older one and stale results are discarded.
type SearchSession struct {
	id       string
	searcher domain.SearchUsecase
	opts     SessionOptions
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	query       string
	page        int
	products    []domain.Product
	total       int
	totalPages  int
	suggestions []domain.Product
	loading     bool
	errMsg      string
	open        bool
	closed      bool

	timer       *time.Timer
	debounceSeq uint64
	generation  uint64
	cancelFetch context.CancelFunc

	// pending counts armed debounce timers plus in-flight fetches; idle is
	// closed whenever it drops to zero.
	pending int
	idle    chan struct{}
}

func NewSearchSession(id string, searcher domain.SearchUsecase, opts SessionOptions) *SearchSession {
	if opts.PageSize < 1 {
		opts.PageSize = searcher.PageSize()
	}
	base := logger.Get()
	if opts.Logger != nil {
		base = opts.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)

	return &SearchSession{
		id:       id,
		searcher: searcher,
		opts:     opts,
		log:      logger.WithSessionID(*base, id),
		ctx:      ctx,
		cancel:   cancel,
		page:     1,
		products: []domain.Product{},
		idle:     idle,
	}
}

// ID returns the session identifier.
func (s *SearchSession) ID() string {
	return s.id
}

// Start loads the first page of the unfiltered catalog.
func (s *SearchSession) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.page = 1
	s.startFetchLocked(s.query, 1)
}

// SetQuery records new query text, opens the suggestion dropdown and
// (re)starts the debounce timer. When the timer fires the page resets to 1.
func (s *SearchSession) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.query = query
	s.open = true
	s.armDebounceLocked()
}

// Clear empties the query, as the "Clear search" control does.
func (s *SearchSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.query = ""
	s.armDebounceLocked()
}

// SelectSuggestion replaces the query with the suggestion's title and closes
// the dropdown. It reports false when id is not a current suggestion.
func (s *SearchSession) SelectSuggestion(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for _, p := range s.suggestions {
		if p.ID == id {
			s.query = p.Title
			s.open = false
			s.armDebounceLocked()
			return true
		}
	}
	return false
}

// Focus opens the suggestion dropdown.
func (s *SearchSession) Focus() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

// ClickOutside closes the suggestion dropdown.
func (s *SearchSession) ClickOutside() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

// SetPage jumps to page n immediately, without debounce. Once the total is
// known n is clamped to [1, totalPages].
func (s *SearchSession) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.setPageLocked(n)
}

// FirstPage, PrevPage, NextPage and LastPage mirror the pager buttons. They
// do nothing while a fetch is loading or when already at the boundary, and
// report whether a fetch was started.
func (s *SearchSession) FirstPage() bool {
	return s.navigate(func(p domain.Pager) (int, bool) { return 1, p.CanFirst })
}

func (s *SearchSession) PrevPage() bool {
	return s.navigate(func(p domain.Pager) (int, bool) { return p.Current - 1, p.CanPrev })
}

func (s *SearchSession) NextPage() bool {
	return s.navigate(func(p domain.Pager) (int, bool) { return p.Current + 1, p.CanNext })
}

func (s *SearchSession) LastPage() bool {
	return s.navigate(func(p domain.Pager) (int, bool) { return p.TotalPages, p.CanLast })
}

func (s *SearchSession) navigate(target func(domain.Pager) (int, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	n, ok := target(s.pagerLocked())
	if !ok {
		return false
	}
	s.setPageLocked(n)
	return true
}

// Closed reports whether Close has been called.
func (s *SearchSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot returns a copy of the current state.
func (s *SearchSession) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.SessionState{
		ID:          s.id,
		Query:       s.query,
		Page:        s.page,
		Products:    append([]domain.Product{}, s.products...),
		Total:       s.total,
		TotalPages:  s.totalPages,
		Suggestions: append([]domain.Product{}, s.suggestions...),
		Loading:     s.loading,
		Error:       s.errMsg,
		Open:        s.open,
		Pager:       s.pagerLocked(),
	}
}

// Wait blocks until no debounce is armed and no fetch is in flight.
func (s *SearchSession) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the debounce timer and cancels any in-flight fetch. A closed
// session ignores further input.
func (s *SearchSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.timer != nil && s.timer.Stop() {
		s.donePendingLocked()
	}
	s.cancel()
}

func (s *SearchSession) pagerLocked() domain.Pager {
	return domain.NewPager(s.page, s.totalPages, len(s.products), s.loading)
}

func (s *SearchSession) setPageLocked(n int) {
	if s.totalPages > 0 && n > s.totalPages {
		n = s.totalPages
	}
	if n < 1 {
		n = 1
	}
	s.page = n
	s.startFetchLocked(s.query, n)
}

func (s *SearchSession) armDebounceLocked() {
	// A timer stopped before firing hands its pending slot to the new one.
	if s.timer == nil || !s.timer.Stop() {
		s.addPendingLocked()
	}
	s.debounceSeq++
	seq := s.debounceSeq
	s.timer = time.AfterFunc(s.opts.Debounce, func() { s.debounceFired(seq) })
}

func (s *SearchSession) debounceFired(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.donePendingLocked()

	if s.closed || seq != s.debounceSeq {
		return
	}
	s.page = 1
	s.startFetchLocked(s.query, 1)
}

func (s *SearchSession) startFetchLocked(query string, page int) {
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	s.generation++
	gen := s.generation

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelFetch = cancel
	s.loading = true
	s.errMsg = ""
	s.addPendingLocked()

	go s.fetch(ctx, cancel, gen, query, page)
}

func (s *SearchSession) fetch(ctx context.Context, cancel context.CancelFunc, gen uint64, query string, page int) {
	defer cancel()

	l := s.log.With().Str("query", query).Int("page", page).Uint64("generation", gen).Logger()
	ctx = logger.NewContext(ctx, &l)
	resp, pagination, err := s.searcher.Search(ctx, query, page, s.opts.PageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.donePendingLocked()

	if s.closed || gen != s.generation {
		l.Debug().Msg("Discarding stale search result")
		return
	}
	s.cancelFetch = nil
	s.loading = false

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			l.Warn().Err(err).Msg("Search failed")
		}
		s.errMsg = domain.FetchErrorMessage
		return
	}

	s.products = resp.Products
	if s.products == nil {
		s.products = []domain.Product{}
	}
	s.total = resp.Total
	s.totalPages = pagination.TotalPages

	if (domain.ProductQuery{Query: query}).Term() != "" {
		s.suggestions = leading(resp.Products, s.opts.Suggestions)
	} else {
		s.suggestions = nil
	}
}

func (s *SearchSession) addPendingLocked() {
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
}

func (s *SearchSession) donePendingLocked() {
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}
