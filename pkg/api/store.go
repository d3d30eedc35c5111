package api

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/scene"
)

// Live is a scene held by the server. Its instance is guarded by the
// embedded mutex; lock it around every use of Instance.
type Live struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	instance *scene.Instance
	lastUsed time.Time
}

// With locks l, runs fn on its instance and refreshes its idle timer.
func (l *Live) With(now time.Time, fn func(*scene.Instance) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastUsed = now
	return fn(l.instance)
}

func (l *Live) expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return now.Sub(l.lastUsed) > ttl
}

// Store holds live scenes in memory keyed by UUIDv7, so IDs sort by
// creation time.
type Store struct {
	mu     sync.RWMutex
	scenes map[string]*Live
	max    int
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a store holding at most limit scenes (0 means no limit)
// that expire after ttl without use (0 means never).
func NewStore(limit int, ttl time.Duration) *Store {
	return &Store{
		scenes: make(map[string]*Live),
		max:    limit,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Add stores in under a new ID.
func (s *Store) Add(in *scene.Instance) (*Live, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "generate scene id")
	}
	now := s.now()
	l := &Live{ID: id.String(), CreatedAt: now, instance: in, lastUsed: now}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 && len(s.scenes) >= s.max {
		return nil, errors.New(errors.ErrCodeLimit, "scene limit of %d reached", s.max)
	}
	s.scenes[l.ID] = l
	return l, nil
}

// Get returns the scene with id.
func (s *Store) Get(id string) (*Live, error) {
	s.mu.RLock()
	l, ok := s.scenes[id]
	s.mu.RUnlock()
	if !ok || l.expired(s.now(), s.ttl) {
		return nil, errors.New(errors.ErrCodeSceneNotFound, "scene %q not found", id)
	}
	return l, nil
}

// Delete removes the scene with id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scenes[id]; !ok {
		return errors.New(errors.ErrCodeSceneNotFound, "scene %q not found", id)
	}
	delete(s.scenes, id)
	return nil
}

// List returns every scene, oldest first.
func (s *Store) List() []*Live {
	s.mu.RLock()
	out := make([]*Live, 0, len(s.scenes))
	for _, l := range s.scenes {
		out = append(out, l)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Live) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Len returns the number of stored scenes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scenes)
}

// Cleanup removes expired scenes and returns how many were removed.
func (s *Store) Cleanup(context.Context) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, l := range s.scenes {
		if l.expired(now, s.ttl) {
			delete(s.scenes, id)
			n++
		}
	}
	return n
}
