package httpapi

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"crimewatch/dashboard-go/internal/dashboard"
	"crimewatch/dashboard-go/internal/metrics"
)

var errSessionNotFound = errors.New("session not found")

// sessionStore holds live dashboard sessions keyed by a random id. Each access
// pushes the session's expiry forward by ttl; expired or deleted sessions have
// their layer torn down.
type sessionStore struct {
	ttl     time.Duration
	items   *cache.Cache
	metrics *metrics.Metrics
}

func newSessionStore(ttl time.Duration, m *metrics.Metrics) *sessionStore {
	s := &sessionStore{
		ttl:     ttl,
		items:   cache.New(ttl, ttl/2),
		metrics: m,
	}
	s.items.OnEvicted(func(_ string, v interface{}) {
		if sess, ok := v.(*dashboard.Session); ok {
			sess.Close()
		}
		s.metrics.SetActiveSessions(s.items.ItemCount())
	})
	return s
}

func (s *sessionStore) Add(sess *dashboard.Session) string {
	id := uuid.NewString()
	s.items.Set(id, sess, s.ttl)
	s.metrics.SetActiveSessions(s.items.ItemCount())
	return id
}

func (s *sessionStore) Get(id string) (*dashboard.Session, error) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, errSessionNotFound
	}
	sess := v.(*dashboard.Session)
	s.items.Set(id, sess, s.ttl)
	return sess, nil
}

func (s *sessionStore) Delete(id string) error {
	if _, ok := s.items.Get(id); !ok {
		return errSessionNotFound
	}
	s.items.Delete(id)
	return nil
}

func (s *sessionStore) Len() int {
	return s.items.ItemCount()
}
