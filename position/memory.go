package position

import (
	"sync"

	"github.com/samber/mo"
)

// MemoryStore keeps offsets for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Save(mediaID string, seconds float64) error {
	raw, err := encode(seconds)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[Key(mediaID)] = raw
	return nil
}

func (s *MemoryStore) Load(mediaID string) (mo.Option[float64], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[Key(mediaID)]
	if !ok {
		return mo.None[float64](), nil
	}
	return decode(Key(mediaID), raw), nil
}

// Put stores a raw value under mediaID's key, bypassing validation.
func (s *MemoryStore) Put(mediaID, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[Key(mediaID)] = raw
}

func (s *MemoryStore) Delete(mediaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, Key(mediaID))
	return nil
}

func (s *MemoryStore) List() (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return list(s.data), nil
}

func (s *MemoryStore) Close() error { return nil }
