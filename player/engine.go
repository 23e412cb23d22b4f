package player

import (
	"errors"
	"fmt"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/playsync/playsync/engine"
	"github.com/playsync/playsync/log"
	"github.com/playsync/playsync/media"
	"github.com/samber/lo"
)

// Factory builds Engines when the mpv binary is available.
type Factory struct {
	Path string
}

func (f Factory) Supported() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

func (f Factory) New(cfg engine.Config) (engine.Engine, error) {
	return NewEngine(cfg), nil
}

// Engine runs adaptive HLS playback inside the mpv process of an attached MPV element.
//
// mpv only learns the variant list by opening the stream, so with deferred
// loading the file is opened paused and StartLoad releases it once the
// variants have been announced.
type Engine struct {
	cfg engine.Config

	mu        sync.Mutex
	el        *MPV
	source    string
	unhook    func()
	issued    bool
	held      bool
	announced bool
	// release is a start requested while held, applied once the variants are announced.
	release   *float64
	reopening bool
	resumeAt  float64
	auto      bool
	trackIDs  []int
	currentID int
	destroyed bool
	listeners map[int]func(engine.Event)
	nextID    int
}

func NewEngine(cfg engine.Config) *Engine {
	return &Engine{
		cfg:       cfg,
		auto:      true,
		currentID: -1,
		listeners: make(map[int]func(engine.Event)),
	}
}

var errDestroyed = errors.New("engine destroyed")

func (e *Engine) LoadSource(src string) error {
	target, err := sanitizeMediaTarget(src)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = target
	return nil
}

// AttachMedia binds the engine to an MPV element and applies the buffering options.
func (e *Engine) AttachMedia(el media.Element) error {
	mpv, ok := el.(*MPV)
	if !ok {
		return fmt.Errorf("attach %T: only mpv elements are supported", el)
	}

	for _, opt := range Options(e.cfg) {
		if err := mpv.Set(opt.Name, opt.Value); err != nil {
			log.Warnf("mpv option %s=%s: %v", opt.Name, opt.Value, err)
		}
	}

	e.mu.Lock()
	e.el = mpv
	e.unhook = mpv.hook(e.onMPV)
	defer e.mu.Unlock()

	if e.cfg.AutoStartLoad {
		return nil
	}

	// Open paused so the variants are known before anything plays.
	if err := mpv.Set(propPause, true); err != nil {
		return err
	}
	if err := e.openLocked(-1); err != nil {
		return err
	}
	e.held = true
	return nil
}

// StartLoad releases a held stream, opens it, or reopens it at the current position.
// A request that arrives while a reopen is still loading is absorbed by that reopen.
func (e *Engine) StartLoad(startPosition float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.destroyed {
		return errDestroyed
	}
	if e.el == nil {
		return errors.New("start load: no media attached")
	}

	switch {
	case e.held && e.announced:
		return e.releaseLocked(startPosition)
	case e.held:
		e.release = &startPosition
		return nil
	case !e.issued:
		return e.openLocked(startPosition)
	case e.reopening:
		return nil
	default:
		return e.reopenLocked(startPosition)
	}
}

func (e *Engine) releaseLocked(startPosition float64) error {
	e.held = false
	e.release = nil
	if startPosition >= 0 {
		if err := e.el.SetCurrentTime(startPosition); err != nil {
			return err
		}
	}
	return e.el.Set(propPause, false)
}

// reopenLocked loads the stream again, by default where playback was.
func (e *Engine) reopenLocked(startPosition float64) error {
	if startPosition < 0 {
		startPosition = e.positionLocked()
	}
	if err := e.openLocked(startPosition); err != nil {
		return err
	}
	e.reopening = true
	return nil
}

// positionLocked is the element's time, or the last reopen point while nothing is loaded yet.
func (e *Engine) positionLocked() float64 {
	if e.el.ReadyState() == media.HaveNothing {
		return e.resumeAt
	}
	return e.el.CurrentTime()
}

func (e *Engine) openLocked(startPosition float64) error {
	start := "none"
	if startPosition >= 0 {
		start = strconv.FormatFloat(startPosition, 'f', 3, 64)
		e.resumeAt = startPosition
	}
	if err := e.el.Set("start", start); err != nil {
		return err
	}
	if err := e.el.loadFile(e.source); err != nil {
		return err
	}
	e.issued = true
	return nil
}

// RecoverMediaError falls back to software decoding and reopens at the current position.
func (e *Engine) RecoverMediaError() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.destroyed {
		return errDestroyed
	}
	if e.el == nil {
		return errors.New("recover: no media attached")
	}
	if err := e.el.Set("hwdec", "no"); err != nil {
		return err
	}
	return e.reopenLocked(-1)
}

func (e *Engine) SetCurrentLevel(level int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.destroyed {
		return errDestroyed
	}
	if e.el == nil {
		return errors.New("set level: no media attached")
	}

	if level == engine.AutoLevel {
		if err := e.el.Set("vid", "auto"); err != nil {
			return err
		}
		e.auto = true
		return nil
	}

	if level < 0 || level >= len(e.trackIDs) {
		return fmt.Errorf("level %d: no such video track", level)
	}
	if err := e.el.Set("vid", e.trackIDs[level]); err != nil {
		return err
	}
	e.auto = false
	return nil
}

func (e *Engine) CurrentLevel() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lo.IndexOf(e.trackIDs, e.currentID)
}

func (e *Engine) AutoLevelEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.auto
}

// Destroy unloads the stream. The mpv process belongs to the element and keeps running.
func (e *Engine) Destroy() error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return nil
	}
	e.destroyed = true
	el, unhook := e.el, e.unhook
	e.listeners = make(map[int]func(engine.Event))
	e.mu.Unlock()

	if unhook != nil {
		unhook()
	}
	if el == nil {
		return nil
	}
	if _, err := el.sendCommand("stop"); err != nil && !errors.Is(err, errNotStarted) {
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}

func (e *Engine) Listen(fn func(engine.Event)) func() {
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

func (e *Engine) emit(ev engine.Event) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	fns := inOrder(e.listeners)
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// onMPV translates raw mpv events into engine events.
func (e *Engine) onMPV(name string, data any) {
	switch name {
	case eventFileLoaded:
		e.announce()
	case propVideoID:
		id, ok := data.(float64)
		if !ok {
			return
		}
		e.mu.Lock()
		e.currentID = int(id)
		index := lo.IndexOf(e.trackIDs, e.currentID)
		e.mu.Unlock()
		if index >= 0 {
			e.emit(engine.Event{Kind: engine.LevelSwitched, Level: index})
		}
	case eventEndFile:
		event, _ := data.(map[string]any)
		e.mu.Lock()
		e.reopening = false
		e.mu.Unlock()
		if err := classifyEndFile(event); err != nil {
			e.emit(engine.Event{Kind: engine.ErrorRaised, Err: err})
		}
	case eventDisconnected:
		e.emit(engine.Event{Kind: engine.ErrorRaised, Err: &engine.Error{
			Category: engine.CategoryOther,
			Fatal:    true,
			Details:  "mpv connection lost",
		}})
	}
}

func (e *Engine) announce() {
	e.mu.Lock()
	el := e.el
	e.mu.Unlock()
	if el == nil {
		return
	}

	raw, err := el.get(propTrackList)
	if err != nil {
		log.Warnf("mpv track list: %v", err)
		return
	}
	levels, ids := parseTrackList(raw)

	e.mu.Lock()
	e.trackIDs = ids
	e.announced = true
	e.reopening = false
	if e.held && e.release != nil {
		if err := e.releaseLocked(*e.release); err != nil {
			log.Warnf("mpv release: %v", err)
		}
	}
	e.mu.Unlock()

	e.emit(engine.Event{Kind: engine.ManifestParsed, Levels: levels})
}

// parseTrackList turns mpv's video tracks into quality levels ordered by height then bitrate.
// ids[i] is the mpv track id of level i.
func parseTrackList(raw any) (levels []engine.QualityLevel, ids []int) {
	type track struct {
		id    int
		level engine.QualityLevel
	}

	entries, _ := raw.([]any)
	tracks := lo.FilterMap(entries, func(entry any, _ int) (track, bool) {
		t, ok := entry.(map[string]any)
		if !ok || t["type"] != "video" {
			return track{}, false
		}
		id, ok := t["id"].(float64)
		if !ok {
			return track{}, false
		}
		return track{
			id: int(id),
			level: engine.QualityLevel{
				Height:  number(t["demux-h"]),
				Width:   number(t["demux-w"]),
				Bitrate: number(t["hls-bitrate"]),
			},
		}, true
	})

	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i].level, tracks[j].level
		if a.Height != b.Height {
			return a.Height < b.Height
		}
		return a.Bitrate < b.Bitrate
	})

	for i, t := range tracks {
		t.level.Index = i
		levels = append(levels, t.level)
		ids = append(ids, t.id)
	}
	return levels, ids
}

func number(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return int(f)
}

// classifyEndFile maps an end-file event to an engine error; nil unless mpv stopped on an error.
func classifyEndFile(event map[string]any) *engine.Error {
	if reason, _ := event["reason"].(string); reason != "error" {
		return nil
	}

	details, _ := event["file_error"].(string)
	if details == "" {
		details = "unknown error"
	}
	return &engine.Error{
		Category: categorize(details),
		Fatal:    true,
		Details:  details,
	}
}

func categorize(details string) engine.Category {
	d := strings.ToLower(details)
	has := func(words ...string) bool {
		return lo.SomeBy(words, func(w string) bool { return strings.Contains(d, w) })
	}

	switch {
	case has("loading failed", "http", "tcp", "timeout", "network", "connection"):
		return engine.CategoryNetwork
	case has("format", "decod", "demux", "nothing to play", "no audio or video"):
		return engine.CategoryMedia
	default:
		return engine.CategoryOther
	}
}

// Option is one mpv option derived from the engine configuration.
type Option struct {
	Name  string
	Value string
}

// Options renders the parts of cfg that have an mpv counterpart.
// Everything else in cfg describes buffering internals mpv does not expose.
func Options(cfg engine.Config) []Option {
	secs := func(d interface{ Seconds() float64 }) string {
		return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	}
	timeout := cfg.ManifestLoadingTimeout
	if cfg.FragLoadingTimeout > timeout {
		timeout = cfg.FragLoadingTimeout
	}

	return []Option{
		{"cache", "yes"},
		{"demuxer-readahead-secs", secs(cfg.MaxBufferLength)},
		{"cache-secs", secs(cfg.MaxMaxBufferLength)},
		{"demuxer-max-bytes", strconv.FormatInt(cfg.MaxBufferSize, 10)},
		{"network-timeout", secs(timeout)},
		// mpv picks the best variant at or below this rate when the stream opens.
		{"hls-bitrate", strconv.FormatInt(cfg.AbrEwmaDefaultEstimate, 10)},
		{"cache-pause", lo.Ternary(cfg.LowLatencyMode, "no", "yes")},
	}
}
