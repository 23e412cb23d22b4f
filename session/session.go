// Package session binds one media source, one media element and one engine instance into a playback session.
//
// A Session routes element and engine events into a playback.Synchronizer,
// applies the recovery policy to fatal engine errors, and persists the
// playback position while it is alive. The Controller guarantees at most one
// live Session and tears the previous one down before opening the next.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/playsync/playsync/engine"
	"github.com/playsync/playsync/log"
	"github.com/playsync/playsync/media"
	"github.com/playsync/playsync/playback"
	"github.com/playsync/playsync/position"
	"github.com/playsync/playsync/recovery"
	"github.com/sirupsen/logrus"
)

// DefaultSaveInterval is the period between position saves.
const DefaultSaveInterval = 5 * time.Second

// Session is the live binding of a source to an element and an engine.
//
// Event handling is serialized by the session lock. State subscribers are
// called with that lock held and must not call back into the Session.
type Session struct {
	source   string
	adapter  *engine.Adapter
	handle   *engine.Handle
	el       media.Element
	store    position.Store
	sync     *playback.Synchronizer
	interval time.Duration
	// explicitStart is set when the configuration names a start position, which wins over the stored one.
	explicitStart bool
	log           *logrus.Entry

	mu            sync.Mutex
	closed        bool
	terminated    bool
	resumed       bool
	removeElement func()
	stopTicker    chan struct{}
	tickerDone    chan struct{}
}

func newSession(adapter *engine.Adapter, store position.Store, el media.Element, source string, cfg engine.Config, interval time.Duration) (*Session, error) {
	handle, err := adapter.Initialize(el, source, cfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		source:        handle.Source(),
		adapter:       adapter,
		handle:        handle,
		el:            el,
		store:         store,
		interval:      interval,
		explicitStart: cfg.StartPosition >= 0,
		log:           log.Fields(map[string]any{"session": handle.ID(), "source": handle.Source()}),
	}
	s.sync = playback.New(el, handleQuality{adapter: adapter, handle: handle})

	s.mu.Lock()
	defer s.mu.Unlock()

	handle.OnEvent(s.onEngineEvent)
	if levels := handle.Levels(); len(levels) > 0 {
		s.sync.SetLevels(levels)
	}
	s.removeElement = el.Listen(s.onElementEvent)

	if el.ReadyState() > media.HaveNothing {
		s.resumeLocked()
	}

	s.log.Infof("session opened in %s mode", handle.Mode())
	return s, nil
}

// handleQuality reads the engine's selection flags through the adapter.
type handleQuality struct {
	adapter *engine.Adapter
	handle  *engine.Handle
}

func (q handleQuality) AutoLevelEnabled() bool { return q.adapter.AutoLevelEnabled(q.handle) }
func (q handleQuality) CurrentLevel() int      { return q.adapter.CurrentLevel(q.handle) }

// ID identifies the session in logs.
func (s *Session) ID() string { return s.handle.ID() }

// Source is the media identifier; it never changes for a session.
func (s *Session) Source() string { return s.source }

// Mode reports managed or native playback.
func (s *Session) Mode() engine.Mode { return s.handle.Mode() }

// State returns the current playback snapshot.
func (s *Session) State() playback.State { return s.sync.State() }

// Subscribe registers fn for playback snapshots.
func (s *Session) Subscribe(fn func(playback.State)) (cancel func()) {
	return s.sync.Subscribe(fn)
}

// Terminated reports whether the session died on an unrecoverable engine error.
func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

func (s *Session) onElementEvent(ev media.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if !s.resumed && (ev.Kind == media.LoadedData || ev.Kind == media.CanPlay) {
		s.resumeLocked()
	}
	s.sync.HandleElementEvent(ev)
}

func (s *Session) onEngineEvent(ev engine.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if ev.Kind == engine.ErrorRaised {
		s.handleErrorLocked(ev.Err)
		return
	}
	s.sync.HandleEngineEvent(ev)
}

func (s *Session) handleErrorLocked(cause *engine.Error) {
	if cause == nil {
		return
	}

	action := recovery.Decide(cause)
	if action == recovery.None {
		s.log.Warnf("engine: %v", cause)
		return
	}
	s.log.Errorf("engine: %v, recovery: %s", cause, action)

	var err error
	switch action {
	case recovery.ResumeLoad:
		err = s.adapter.ResumeLoad(s.handle)
	case recovery.RecoverMedia:
		err = s.adapter.RecoverMedia(s.handle)
	case recovery.Terminate:
		s.terminateLocked()
		return
	}
	if err != nil {
		s.log.Errorf("recovery %s failed: %v", action, err)
	}
}

// resumeLocked applies the stored position once and arms the persistence timer.
func (s *Session) resumeLocked() {
	s.resumed = true
	defer s.startTickerLocked()

	if s.explicitStart {
		return
	}

	stored, err := s.store.Load(s.source)
	if err != nil {
		s.log.Warnf("load position: %v", err)
	} else if seconds, ok := stored.Get(); ok && seconds > 0 {
		if err := s.el.SetCurrentTime(seconds); err != nil {
			s.log.Warnf("resume at %.1fs: %v", seconds, err)
		} else {
			s.log.Infof("resumed at %.1fs", seconds)
		}
	}
}

func (s *Session) startTickerLocked() {
	if s.stopTicker != nil || s.interval <= 0 {
		return
	}

	stop, done := make(chan struct{}), make(chan struct{})
	s.stopTicker, s.tickerDone = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.persist()
			}
		}
	}()
}

func (s *Session) persist() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if err := s.saveLocked(); err != nil {
		s.log.Warnf("save position: %v", err)
	}
}

func (s *Session) saveLocked() error {
	return s.store.Save(s.source, s.el.CurrentTime())
}

// releaseLocked stops the timer and detaches listeners before destroying the engine.
func (s *Session) releaseLocked() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var result *multierror.Error
	if s.resumed {
		if err := s.saveLocked(); err != nil {
			result = multierror.Append(result, fmt.Errorf("flush position: %w", err))
		}
	}
	if s.stopTicker != nil {
		close(s.stopTicker)
	}
	s.handle.OnEvent(nil)
	if s.removeElement != nil {
		s.removeElement()
	}
	if err := s.adapter.Destroy(s.handle); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (s *Session) terminateLocked() {
	if err := s.releaseLocked(); err != nil {
		s.log.Warnf("terminate: %v", err)
	}
	s.terminated = true
	s.sync.Terminate()
	s.log.Error("session terminated")
}

// Close tears the session down: timer stopped, listeners removed, engine destroyed.
// It returns once the persistence timer has exited. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	err := s.releaseLocked()
	done := s.tickerDone
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	if err == nil {
		s.log.Info("session closed")
	}
	return err
}

// active returns ErrNoActiveSession once the session was closed or terminated.
func (s *Session) active() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return engine.ErrNoActiveSession
	}
	return nil
}

// SetQuality selects a level, or engine.AutoLevel for automatic selection.
func (s *Session) SetQuality(level int) error {
	if err := s.active(); err != nil {
		return err
	}
	if err := s.adapter.SetQuality(s.handle, level); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.sync.SetSelectedQuality(level)
	}
	return nil
}

// TogglePlay plays a paused element and pauses a playing one.
// isPlaying follows from the element's play and pause events.
func (s *Session) TogglePlay() error {
	if err := s.active(); err != nil {
		return err
	}
	if s.el.Paused() {
		return s.el.Play()
	}
	return s.el.Pause()
}

// Seek moves playback to percent (0..100) of the duration.
func (s *Session) Seek(percent float64) error {
	if err := s.active(); err != nil {
		return err
	}
	return s.sync.Seek(percent)
}

// Controller owns the single active Session.
type Controller struct {
	adapter  *engine.Adapter
	store    position.Store
	cfg      engine.Config
	interval time.Duration

	mu      sync.Mutex
	current *Session
}

// Options tune sessions opened by a Controller.
type Options struct {
	Config engine.Config
	// SaveInterval defaults to DefaultSaveInterval.
	SaveInterval time.Duration
}

func NewController(adapter *engine.Adapter, store position.Store, opts Options) *Controller {
	if opts.SaveInterval == 0 {
		opts.SaveInterval = DefaultSaveInterval
	}
	return &Controller{
		adapter:  adapter,
		store:    store,
		cfg:      opts.Config,
		interval: opts.SaveInterval,
	}
}

// Open fully tears down the current session, then opens a new one for source on el.
func (c *Controller) Open(el media.Element, source string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		if err := c.current.Close(); err != nil {
			log.Warnf("closing session %s: %v", c.current.ID(), err)
		}
		c.current = nil
	}

	s, err := newSession(c.adapter, c.store, el, source, c.cfg, c.interval)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	c.current = s
	return s, nil
}

// Current returns the active session, or nil.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetQuality forwards to the current session.
func (c *Controller) SetQuality(level int) error {
	s := c.Current()
	if s == nil {
		return engine.ErrNoActiveSession
	}
	return s.SetQuality(level)
}

// Close tears down the current session, if any.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}
	err := c.current.Close()
	c.current = nil
	if errors.Is(err, engine.ErrNoActiveSession) {
		return nil
	}
	return err
}
