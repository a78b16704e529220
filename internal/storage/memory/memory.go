package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamed-gasimov/event-slideshow/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type entry struct {
	asset       storage.Asset
	data        []byte
	contentType string
}

// Store is an in-process storage.Store used for local runs and tests.
// Locators point at BaseURL + "/" + id, which the server serves from Open.
type Store struct {
	mu      sync.RWMutex
	data    map[string]*entry
	baseURL string
	now     func() time.Time
}

// New creates an empty store whose locators start with baseURL.
func New(baseURL string) *Store {
	return &Store{
		data:    make(map[string]*entry),
		baseURL: baseURL,
		now:     time.Now,
	}
}

// WithClock replaces the creation-time source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Upload(ctx context.Context, u storage.Upload) (*storage.Asset, error) {
	if u.Body == nil {
		return nil, errors.New("empty image data")
	}
	b, err := io.ReadAll(u.Body)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if len(b) == 0 {
		return nil, errors.New("empty image data")
	}

	id := uuid.NewString()
	a := storage.Asset{
		ID:         id,
		URL:        s.baseURL + "/" + id,
		Collection: u.Collection,
		CreatedAt:  s.now(),
	}

	s.mu.Lock()
	s.data[id] = &entry{asset: a, data: b, contentType: u.ContentType}
	s.mu.Unlock()

	return &a, nil
}

// Put inserts an asset with a fixed creation time and no payload.
func (s *Store) Put(a storage.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.URL == "" {
		a.URL = s.baseURL + "/" + a.ID
	}
	s.data[a.ID] = &entry{asset: a}
}

func (s *Store) Search(ctx context.Context, q storage.Query) ([]storage.Asset, error) {
	s.mu.RLock()
	out := make([]storage.Asset, 0, len(s.data))
	for _, e := range s.data {
		if e.asset.Collection == q.Collection {
			out = append(out, e.asset)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		if q.Order == storage.Descending {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("destroy %q: %w", id, storage.ErrNotFound)
	}
	delete(s.data, id)
	return nil
}

// Open returns the stored bytes and content type of an asset.
func (s *Store) Open(ctx context.Context, id string) (io.Reader, string, error) {
	s.mu.RLock()
	e, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, "", storage.ErrNotFound
	}
	return bytes.NewReader(e.data), e.contentType, nil
}

// Len reports how many assets are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
