package session

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type entry struct {
	cache   *Cache
	expires time.Time
}

// Registry maps session IDs to their caches.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	size     int
	now      func() time.Time
}

// NewRegistry returns an empty registry whose caches hold size analyses each.
func NewRegistry(size int) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		size:     size,
		now:      time.Now,
	}
}

// For returns the cache of sid, creating it if needed. Expired sessions are
// swept on the way.
func (r *Registry) For(sid string, expires time.Time) *Cache {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, e := range r.sessions {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(r.sessions, id)
		}
	}

	e, ok := r.sessions[sid]
	if !ok {
		e = &entry{cache: NewCache(r.size), expires: expires}
		r.sessions[sid] = e
		logrus.WithField("sid", sid).Debug("Session cache created")
	}
	return e.cache
}

// Discard drops the cache of sid.
func (r *Registry) Discard(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
}

// InvalidateDay drops the driver's analysis for the day in every session.
// Managers viewing a driver hold their own copies, so clock actions have to
// reach all of them.
func (r *Registry) InvalidateDay(driverID uint, day time.Time) {
	k := KeyFor(driverID, day)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.sessions {
		e.cache.Invalidate(k)
	}
}

// InvalidateDriver drops every cached analysis of driverID in every session.
func (r *Registry) InvalidateDriver(driverID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.sessions {
		e.cache.InvalidateDriver(driverID)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
