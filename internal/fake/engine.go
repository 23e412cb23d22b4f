package fake

import (
	"errors"
	"sort"
	"sync"

	"github.com/playsync/playsync/engine"
	"github.com/playsync/playsync/media"
	"github.com/samber/lo"
)

// Engine records every command it receives and lets tests emit engine events.
type Engine struct {
	Config engine.Config

	// Sticky keeps listeners registered after remove, like callbacks already queued by a real engine.
	Sticky bool

	LoadErr   error
	AttachErr error

	mu         sync.Mutex
	source     string
	attached   media.Element
	startLoads []float64
	recoveries int
	destroys   int
	level      int
	listeners  map[int]func(engine.Event)
	nextID     int
}

func NewEngine(cfg engine.Config) *Engine {
	return &Engine{
		Config:    cfg,
		level:     engine.AutoLevel,
		listeners: make(map[int]func(engine.Event)),
	}
}

func (e *Engine) LoadSource(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = src
	return e.LoadErr
}

func (e *Engine) AttachMedia(el media.Element) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attached = el
	return e.AttachErr
}

func (e *Engine) StartLoad(startPosition float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startLoads = append(e.startLoads, startPosition)
	return nil
}

func (e *Engine) RecoverMediaError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recoveries++
	return nil
}

func (e *Engine) SetCurrentLevel(level int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroys > 0 {
		return errors.New("engine destroyed")
	}
	e.level = level
	return nil
}

func (e *Engine) CurrentLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level
}

func (e *Engine) AutoLevelEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.level == engine.AutoLevel
}

func (e *Engine) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroys++
	return nil
}

func (e *Engine) Listen(fn func(engine.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		if e.Sticky {
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// Emit delivers ev to the registered listeners.
func (e *Engine) Emit(ev engine.Event) {
	e.mu.Lock()
	fns := make([]func(engine.Event), 0, len(e.listeners))
	for _, id := range sortInts(lo.Keys(e.listeners)) {
		fns = append(fns, e.listeners[id])
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// SwitchTo simulates the engine settling on level and announcing it.
func (e *Engine) SwitchTo(level int) {
	e.Emit(engine.Event{Kind: engine.LevelSwitched, Level: level})
}

func (e *Engine) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

func (e *Engine) Attached() media.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attached
}

func (e *Engine) StartLoads() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]float64(nil), e.startLoads...)
}

func (e *Engine) Recoveries() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recoveries
}

func (e *Engine) Destroys() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroys
}

func (e *Engine) Listeners() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// Factory builds fake engines and keeps every one it built.
type Factory struct {
	Unsupported bool
	NewErr      error

	mu      sync.Mutex
	engines []*Engine
}

func (f *Factory) Supported() bool { return !f.Unsupported }

func (f *Factory) New(cfg engine.Config) (engine.Engine, error) {
	if f.NewErr != nil {
		return nil, f.NewErr
	}
	e := NewEngine(cfg)
	f.mu.Lock()
	f.engines = append(f.engines, e)
	f.mu.Unlock()
	return e, nil
}

// Last returns the most recently built engine.
func (f *Factory) Last() *Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.engines) == 0 {
		return nil
	}
	return f.engines[len(f.engines)-1]
}

func (f *Factory) Built() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

// Levels builds n levels with ascending heights starting at 360p.
func Levels(n int) []engine.QualityLevel {
	heights := []int{360, 480, 720, 1080, 1440, 2160}
	return lo.Times(n, func(i int) engine.QualityLevel {
		return engine.QualityLevel{Index: i, Height: heights[i%len(heights)], Bitrate: (i + 1) * 800000}
	})
}

func sortInts(ids []int) []int {
	sort.Ints(ids)
	return ids
}
