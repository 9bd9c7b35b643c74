package jobstore

import (
	"context"
	"sort"
	"sync"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	postings map[string]model.LocalJobPosting
	feeds    map[*memoryFeed]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		postings: make(map[string]model.LocalJobPosting),
		feeds:    make(map[*memoryFeed]struct{}),
	}
}

func (s *MemoryStore) List(_ context.Context) ([]model.LocalJobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.LocalJobPosting, 0, len(s.postings))
	for _, p := range s.postings {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.LocalJobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.postings[id]
	if !ok {
		return model.LocalJobPosting{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Insert(_ context.Context, p model.LocalJobPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.postings[p.ID] = p
	s.notifyLocked()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.postings[id]; !ok {
		return ErrNotFound
	}
	delete(s.postings, id)
	s.notifyLocked()
	return nil
}

func (s *MemoryStore) Watch(_ context.Context) (Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := &memoryFeed{store: s, events: make(chan struct{}, 1)}
	s.feeds[f] = struct{}{}
	return f, nil
}

func (s *MemoryStore) notifyLocked() {
	for f := range s.feeds {
		signal(f.events)
	}
}

type memoryFeed struct {
	store  *MemoryStore
	events chan struct{}
	once   sync.Once
}

func (f *memoryFeed) Events() <-chan struct{} { return f.events }

func (f *memoryFeed) Close() error {
	f.once.Do(func() {
		f.store.mu.Lock()
		delete(f.store.feeds, f)
		close(f.events)
		f.store.mu.Unlock()
	})
	return nil
}
