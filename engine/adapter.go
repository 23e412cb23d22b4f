package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/playsync/playsync/constant"
	"github.com/playsync/playsync/log"
	"github.com/playsync/playsync/media"
	"github.com/samber/lo"
)

// Mode is the playback path chosen at initialization.
type Mode int

const (
	// Managed playback runs through the streaming engine.
	Managed Mode = iota + 1
	// Native playback hands the source straight to the element; no quality selection, no recovery.
	Native
)

func (m Mode) String() string {
	switch m {
	case Managed:
		return "managed"
	case Native:
		return "native"
	default:
		return "unknown"
	}
}

// Handle is the adapter's view of one initialized engine instance.
type Handle struct {
	id      uuid.UUID
	mode    Mode
	source  string
	cfg     Config
	engine  Engine
	element media.Element

	mu        sync.Mutex
	levels    []QualityLevel
	sink      func(Event)
	unlisten  func()
	started   bool
	destroyed bool
}

// ID identifies the handle in logs.
func (h *Handle) ID() string { return h.id.String() }

func (h *Handle) Mode() Mode { return h.mode }

func (h *Handle) Source() string { return h.source }

// Levels returns the most recently announced quality levels.
func (h *Handle) Levels() []QualityLevel {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]QualityLevel(nil), h.levels...)
}

// Destroyed reports whether Destroy has run for this handle.
func (h *Handle) Destroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

// OnEvent sets the single routine that receives this handle's engine events.
func (h *Handle) OnEvent(fn func(Event)) {
	h.mu.Lock()
	h.sink = fn
	h.mu.Unlock()
}

// receive is the engine listener. Events arriving after Destroy are dropped.
func (h *Handle) receive(ev Event) {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		log.Tracef("engine %s: dropped late %s event", h.id, ev.Kind)
		return
	}

	startLoad := false
	if ev.Kind == ManifestParsed {
		h.levels = append([]QualityLevel(nil), ev.Levels...)
		// Later announcements come from reloads, which are already loading.
		startLoad = !h.cfg.AutoStartLoad && !h.started
		h.started = true
	}
	sink := h.sink
	h.mu.Unlock()

	// Loading is deferred by configuration, so nothing plays until it is started here.
	if startLoad {
		if err := h.engine.StartLoad(h.cfg.StartPosition); err != nil {
			log.Warnf("engine %s: start load: %v", h.id, err)
		}
	}

	if sink != nil {
		sink(ev)
	}
}

// Adapter initializes and commands engines built by a Factory.
type Adapter struct {
	factory Factory
}

// NewAdapter returns an Adapter over factory. A nil factory forces native playback.
func NewAdapter(factory Factory) *Adapter {
	return &Adapter{factory: factory}
}

// Initialize binds source to el. Managed playback is used when the factory supports it,
// otherwise the source is assigned to the element directly if it can play HLS natively.
func (a *Adapter) Initialize(el media.Element, source string, cfg Config) (*Handle, error) {
	if el == nil {
		return nil, errors.New("initialize: nil media element")
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("initialize: empty source")
	}

	h := &Handle{
		id:      uuid.New(),
		source:  source,
		cfg:     cfg,
		element: el,
	}

	if a.factory != nil && a.factory.Supported() {
		if err := a.initManaged(h); err != nil {
			return nil, err
		}
		log.Infof("engine %s: managed playback of %s", h.id, source)
		return h, nil
	}

	if !el.CanPlayType(constant.HLSMimeType) {
		return nil, fmt.Errorf("initialize %s: %w", source, ErrUnsupported)
	}
	if err := el.SetSource(source); err != nil {
		return nil, fmt.Errorf("initialize native playback: %w", err)
	}
	h.mode = Native
	log.Infof("engine %s: native playback of %s", h.id, source)
	return h, nil
}

func (a *Adapter) initManaged(h *Handle) error {
	eng, err := a.factory.New(h.cfg)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	h.mode = Managed
	h.engine = eng
	h.unlisten = eng.Listen(h.receive)

	fail := func(step string, err error) error {
		h.unlisten()
		_ = eng.Destroy()
		return fmt.Errorf("%s: %w", step, err)
	}

	if err := eng.LoadSource(h.source); err != nil {
		return fail("load source", err)
	}
	if err := eng.AttachMedia(h.element); err != nil {
		return fail("attach media", err)
	}
	if h.cfg.AutoStartLoad {
		if err := eng.StartLoad(h.cfg.StartPosition); err != nil {
			return fail("start load", err)
		}
	}
	return nil
}

// managed returns the engine behind h, or why it cannot be commanded.
func (a *Adapter) managed(h *Handle) (Engine, []QualityLevel, error) {
	if h == nil {
		return nil, nil, ErrNoActiveSession
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.destroyed {
		return nil, nil, ErrNoActiveSession
	}
	if h.mode != Managed {
		return nil, nil, ErrQualityUnavailable
	}
	return h.engine, h.levels, nil
}

// SetQuality forces level on the engine, or re-enables automatic selection for AutoLevel.
// Levels outside the announced range are rejected, never clamped.
func (a *Adapter) SetQuality(h *Handle, level int) error {
	eng, levels, err := a.managed(h)
	if err != nil {
		return err
	}

	if level != AutoLevel && (level < 0 || level >= len(levels)) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidQualityLevel, level, len(levels))
	}

	if err := eng.SetCurrentLevel(level); err != nil {
		return fmt.Errorf("set level %d: %w", level, err)
	}

	label := "auto"
	if level != AutoLevel {
		label = levels[level].String()
	}
	log.Infof("engine %s: quality set to %s", h.id, label)
	return nil
}

// AutoLevelEnabled reports the engine's automatic-selection flag; native playback reports true.
func (a *Adapter) AutoLevelEnabled(h *Handle) bool {
	eng, _, err := a.managed(h)
	if err != nil {
		return true
	}
	return eng.AutoLevelEnabled()
}

// CurrentLevel reports the level the engine is playing, or AutoLevel when unknown.
func (a *Adapter) CurrentLevel(h *Handle) int {
	eng, _, err := a.managed(h)
	if err != nil {
		return AutoLevel
	}
	return eng.CurrentLevel()
}

// ResumeLoad restarts fragment loading after a network failure.
func (a *Adapter) ResumeLoad(h *Handle) error {
	eng, _, err := a.managed(h)
	if err != nil {
		return err
	}
	return eng.StartLoad(-1)
}

// RecoverMedia reattaches the media pipeline after a decoding failure.
func (a *Adapter) RecoverMedia(h *Handle) error {
	eng, _, err := a.managed(h)
	if err != nil {
		return err
	}
	return eng.RecoverMediaError()
}

// Destroy tears the engine down. It is a no-op for nil or already destroyed handles.
// The listener is removed before the engine is destroyed so no callback outlives the handle.
func (a *Adapter) Destroy(h *Handle) error {
	if h == nil {
		return nil
	}

	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return nil
	}
	h.destroyed = true
	h.sink = nil
	eng, unlisten := h.engine, h.unlisten
	h.mu.Unlock()

	if unlisten != nil {
		unlisten()
	}
	if eng == nil {
		return nil
	}
	if err := eng.Destroy(); err != nil {
		return fmt.Errorf("destroy engine %s: %w", h.id, err)
	}
	log.Infof("engine %s: destroyed", h.id)
	return nil
}

// LevelLabels renders levels for selection menus.
func LevelLabels(levels []QualityLevel) []string {
	return lo.Map(levels, func(l QualityLevel, _ int) string { return l.String() })
}
