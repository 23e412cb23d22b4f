package position

import (
	"sync"

	"github.com/metafates/gache"
	"github.com/playsync/playsync/filesystem"
	"github.com/samber/mo"
)

type cacher interface {
	Get() (map[string]string, bool, error)
	Set(map[string]string) error
}

// FileStore keeps all offsets in one JSON document on the virtual filesystem.
type FileStore struct {
	mu     sync.Mutex
	cacher cacher
}

// NewFileStore opens (lazily) the JSON document at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		cacher: gache.New[map[string]string](&gache.Options{
			Path:       path,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func (s *FileStore) read() (map[string]string, error) {
	cached, expired, err := s.cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]string), nil
	}
	return cached, nil
}

func (s *FileStore) Save(mediaID string, seconds float64) error {
	raw, err := encode(seconds)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	entries[Key(mediaID)] = raw
	return s.cacher.Set(entries)
}

func (s *FileStore) Load(mediaID string) (mo.Option[float64], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return mo.None[float64](), err
	}
	raw, ok := entries[Key(mediaID)]
	if !ok {
		return mo.None[float64](), nil
	}
	return decode(Key(mediaID), raw), nil
}

func (s *FileStore) Delete(mediaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	delete(entries, Key(mediaID))
	return s.cacher.Set(entries)
}

func (s *FileStore) List() (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}
	return list(entries), nil
}

func (s *FileStore) Close() error { return nil }
