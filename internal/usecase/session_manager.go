package usecase

import (
	"time"

	"product-search/internal/domain"
	"product-search/pkg/cache"
	"product-search/pkg/logger"

	"github.com/google/uuid"
)

const sessionKeyPrefix = "search:session:"

// SessionManager keeps search sessions alive in a TTL store. A session's TTL
// is refreshed on every lookup; expired or deleted sessions are closed.
type SessionManager struct {
	searcher domain.SearchUsecase
	store    cache.CacheService
	opts     SessionOptions
	ttl      time.Duration
}

func NewSessionManager(searcher domain.SearchUsecase, store cache.CacheService, opts SessionOptions, ttl time.Duration) *SessionManager {
	store.OnEvicted(func(key string, value interface{}) {
		if s, ok := value.(*SearchSession); ok {
			s.Close()
			logger.Debug().Str("session_id", s.ID()).Msg("Search session closed")
		}
	})
	return &SessionManager{
		searcher: searcher,
		store:    store,
		opts:     opts,
		ttl:      ttl,
	}
}

// Create opens a new session and starts its initial load.
func (m *SessionManager) Create() *SearchSession {
	s := NewSearchSession(uuid.New().String(), m.searcher, m.opts)
	s.Start()
	m.store.Set(sessionKeyPrefix+s.ID(), s, m.ttl)
	return s
}

// Get returns a live session, extending its TTL.
func (m *SessionManager) Get(id string) (*SearchSession, error) {
	key := sessionKeyPrefix + id
	val, found := m.store.Get(key)
	if !found {
		return nil, domain.ErrSessionNotFound
	}
	s, ok := val.(*SearchSession)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	m.store.Set(key, s, m.ttl)
	return s, nil
}

// Delete closes and forgets a session.
func (m *SessionManager) Delete(id string) error {
	if _, err := m.Get(id); err != nil {
		return err
	}
	m.store.Delete(sessionKeyPrefix + id)
	return nil
}

// Shutdown closes every live session.
func (m *SessionManager) Shutdown() {
	for _, v := range m.store.Items() {
		if s, ok := v.(*SearchSession); ok {
			s.Close()
		}
	}
	m.store.Flush()
}
