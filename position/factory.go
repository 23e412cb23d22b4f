package position

import (
	"fmt"

	"github.com/playsync/playsync/key"
	"github.com/playsync/playsync/where"
	"github.com/spf13/viper"
)

// Backend names accepted by NewStore.
const (
	BackendFile   = "file"
	BackendSqlite = "sqlite"
	BackendMemory = "memory"
)

// NewStore opens the named backend at its default location. An empty name selects the file backend.
func NewStore(backend string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(where.Positions()), nil
	case BackendSqlite:
		return NewSqliteStore(where.PositionsDB())
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown position store backend: %s (supported: file, sqlite, memory)", backend)
	}
}

// FromConfig opens the backend selected by position.backend.
func FromConfig() (Store, error) {
	return NewStore(viper.GetString(key.PositionBackend))
}
