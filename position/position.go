// Package position persists the last playback offset of each media source.
//
// Offsets live under the key "video-<mediaID>" as plain float strings, so any
// backend can be inspected by hand. Absent or unreadable entries load as None.
package position

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/playsync/playsync/constant"
	"github.com/playsync/playsync/log"
	"github.com/samber/mo"
)

// Store saves and restores playback offsets keyed by media identifier.
type Store interface {
	Save(mediaID string, seconds float64) error
	// Load returns None when nothing usable is stored for mediaID.
	Load(mediaID string) (mo.Option[float64], error)
	Delete(mediaID string) error
	// List returns every readable offset keyed by media identifier.
	List() (map[string]float64, error)
	Close() error
}

// ErrInvalidPosition is returned when saving NaN, infinite or negative offsets.
var ErrInvalidPosition = errors.New("invalid playback position")

// Key returns the storage key for mediaID.
func Key(mediaID string) string {
	return constant.PositionKeyPrefix + mediaID
}

// MediaID reverses Key. ok is false for foreign keys.
func MediaID(k string) (id string, ok bool) {
	return strings.CutPrefix(k, constant.PositionKeyPrefix)
}

func encode(seconds float64) (string, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "", fmt.Errorf("%w: %v", ErrInvalidPosition, seconds)
	}
	return strconv.FormatFloat(seconds, 'f', -1, 64), nil
}

func decode(k, raw string) mo.Option[float64] {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		log.Debugf("position: ignoring unreadable value %q for %s", raw, k)
		return mo.None[float64]()
	}
	return mo.Some(v)
}

func list(entries map[string]string) map[string]float64 {
	out := make(map[string]float64, len(entries))
	for k, raw := range entries {
		id, ok := MediaID(k)
		if !ok {
			continue
		}
		if v, present := decode(k, raw).Get(); present {
			out[id] = v
		}
	}
	return out
}
