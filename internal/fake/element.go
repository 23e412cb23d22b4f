// Package fake provides scriptable stand-ins for the media element and the streaming engine.
package fake

import (
	"sync"

	"github.com/playsync/playsync/media"
	"github.com/samber/lo"
)

// Element is an in-memory media element. Tests drive it with Emit and the Set helpers.
type Element struct {
	mu        sync.Mutex
	src       string
	nativeHLS bool
	time      float64
	duration  float64
	paused    bool
	ready     media.ReadyState
	seeks     []float64
	listeners map[int]func(media.Event)
	nextID    int
}

// NewElement returns a paused element with no data. nativeHLS controls CanPlayType for HLS.
func NewElement(nativeHLS bool) *Element {
	return &Element{
		nativeHLS: nativeHLS,
		paused:    true,
		listeners: make(map[int]func(media.Event)),
	}
}

func (e *Element) SetSource(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.src = src
	return nil
}

// Source returns the natively assigned source.
func (e *Element) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

func (e *Element) CanPlayType(string) bool { return e.nativeHLS }

func (e *Element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.time
}

func (e *Element) SetCurrentTime(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.time = seconds
	e.seeks = append(e.seeks, seconds)
	return nil
}

// Seeks lists every position written through SetCurrentTime.
func (e *Element) Seeks() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]float64(nil), e.seeks...)
}

func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) Play() error {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()
	e.Emit(media.Play)
	return nil
}

func (e *Element) Pause() error {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
	e.Emit(media.Pause)
	return nil
}

func (e *Element) ReadyState() media.ReadyState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// SetPlayhead moves the playhead without recording a seek, like playback advancing.
func (e *Element) SetPlayhead(current, duration float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.time, e.duration = current, duration
}

func (e *Element) SetReadyState(rs media.ReadyState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = rs
}

func (e *Element) Listen(fn func(media.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// Listeners returns the number of registered listeners.
func (e *Element) Listeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// Emit delivers an event to every listener in registration order.
func (e *Element) Emit(kind media.EventKind) {
	e.mu.Lock()
	ids := lo.Keys(e.listeners)
	e.mu.Unlock()

	for _, id := range sortInts(ids) {
		e.mu.Lock()
		fn, ok := e.listeners[id]
		e.mu.Unlock()
		if ok {
			fn(media.Event{Kind: kind})
		}
	}
}
