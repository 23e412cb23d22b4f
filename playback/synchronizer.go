package playback

import (
	"math"
	"sort"
	"sync"

	"github.com/playsync/playsync/engine"
	"github.com/playsync/playsync/media"
)

// QualitySource exposes the engine's view of quality selection.
type QualitySource interface {
	AutoLevelEnabled() bool
	CurrentLevel() int
}

// Synchronizer derives State from element and engine events and publishes every new snapshot.
// Events are applied in arrival order; nothing is reordered or debounced.
type Synchronizer struct {
	el      media.Element
	quality QualitySource

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

// New returns a Synchronizer in automatic quality mode with nothing playing.
func New(el media.Element, quality QualitySource) *Synchronizer {
	return &Synchronizer{
		el:      el,
		quality: quality,
		state:   State{SelectedQuality: engine.AutoLevel},
		subs:    make(map[int]func(State)),
	}
}

// State returns the current snapshot.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every new snapshot. Subscribers run synchronously in registration order.
func (s *Synchronizer) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// update applies mutate to a copy of the state and publishes the result.
// A terminated state is frozen.
func (s *Synchronizer) update(mutate func(*State)) {
	s.mu.Lock()
	if s.state.Terminated {
		s.mu.Unlock()
		return
	}
	next := s.state
	mutate(&next)
	s.state = next

	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

func (s *Synchronizer) readTimes(st *State) {
	st.CurrentTime = s.el.CurrentTime()
	st.Duration = s.el.Duration()
	if !finite(st.Duration) {
		st.Duration = 0
	}
	st.ProgressPercent = Progress(st.CurrentTime, st.Duration)
}

// HandleElementEvent applies a media element notification.
func (s *Synchronizer) HandleElementEvent(ev media.Event) {
	switch ev.Kind {
	case media.Waiting:
		s.update(func(st *State) { st.IsBuffering = true })
	case media.Playing, media.CanPlay:
		s.update(func(st *State) { st.IsBuffering = false })
	case media.TimeUpdate, media.LoadedData:
		s.update(s.readTimes)
	case media.Play:
		s.update(func(st *State) { st.IsPlaying = true })
	case media.Pause, media.Ended:
		s.update(func(st *State) { st.IsPlaying = false })
	}
}

// HandleEngineEvent applies an engine notification. Errors are left to the recovery policy.
func (s *Synchronizer) HandleEngineEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.ManifestParsed:
		levels := append([]engine.QualityLevel(nil), ev.Levels...)
		s.update(func(st *State) { st.Levels = levels })
	case engine.LevelSwitched:
		// While automatic, the concrete level stays hidden behind the automatic sentinel.
		selected := engine.AutoLevel
		if !s.quality.AutoLevelEnabled() {
			selected = s.quality.CurrentLevel()
			if selected < 0 {
				selected = ev.Level
			}
		}
		s.update(func(st *State) { st.SelectedQuality = selected })
	}
}

// SetLevels replaces the level list, e.g. when levels were announced before the session subscribed.
func (s *Synchronizer) SetLevels(levels []engine.QualityLevel) {
	levels = append([]engine.QualityLevel(nil), levels...)
	s.update(func(st *State) { st.Levels = levels })
}

// SetSelectedQuality records a selection the engine has accepted.
func (s *Synchronizer) SetSelectedQuality(level int) {
	s.update(func(st *State) { st.SelectedQuality = level })
}

// Terminate freezes the snapshot with playback stopped.
func (s *Synchronizer) Terminate() {
	s.update(func(st *State) {
		st.Terminated = true
		st.IsPlaying = false
		st.IsBuffering = false
	})
}

// Seek moves the element to percent (0..100) of the current duration.
// Progress is not touched; the element's next timeupdate reports it.
func (s *Synchronizer) Seek(percent float64) error {
	duration := s.el.Duration()
	if !finite(duration) || duration <= 0 || math.IsNaN(percent) {
		return nil
	}
	percent = math.Max(0, math.Min(100, percent))
	return s.el.SetCurrentTime(percent / 100 * duration)
}
