package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/playsync/playsync/engine"
	"github.com/playsync/playsync/internal/fake"
	"github.com/playsync/playsync/media"
	"github.com/playsync/playsync/playback"
	"github.com/playsync/playsync/position"
	"github.com/playsync/playsync/session"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	sourceA = "https://cdn.example/a/master.m3u8"
	sourceB = "https://cdn.example/b/master.m3u8"
)

func newController(factory *fake.Factory, store position.Store, interval time.Duration) *session.Controller {
	return session.NewController(engine.NewAdapter(factory), store, session.Options{
		Config:       engine.DefaultConfig(),
		SaveInterval: interval,
	})
}

func stored(store position.Store, id string) (float64, bool) {
	opt, err := store.Load(id)
	So(err, ShouldBeNil)
	return opt.Get()
}

func TestRecovery(t *testing.T) {
	Convey("Given an open managed session", t, func() {
		factory := &fake.Factory{}
		ctrl := newController(factory, position.NewMemoryStore(), time.Hour)
		Reset(func() { _ = ctrl.Close() })
		el := fake.NewElement(false)

		s, err := ctrl.Open(el, sourceA)
		So(err, ShouldBeNil)
		eng := factory.Last()
		eng.Emit(engine.Event{Kind: engine.ManifestParsed, Levels: fake.Levels(3)})
		So(eng.StartLoads(), ShouldResemble, []float64{-1})
		So(s.State().Levels, ShouldHaveLength, 3)

		Convey("A fatal network error resumes loading and the session stays active", func() {
			eng.Emit(engine.Event{Kind: engine.ErrorRaised, Err: &engine.Error{Category: engine.CategoryNetwork, Fatal: true, Details: "fragLoadError"}})

			So(eng.StartLoads(), ShouldResemble, []float64{-1, -1})
			So(s.Terminated(), ShouldBeFalse)
			So(s.SetQuality(1), ShouldBeNil)
			So(s.State().SelectedQuality, ShouldEqual, 1)
		})

		Convey("A fatal media error recovers the pipeline", func() {
			eng.Emit(engine.Event{Kind: engine.ErrorRaised, Err: &engine.Error{Category: engine.CategoryMedia, Fatal: true}})

			So(eng.Recoveries(), ShouldEqual, 1)
			So(eng.Destroys(), ShouldEqual, 0)
			So(s.Terminated(), ShouldBeFalse)
		})

		Convey("A non-fatal error changes nothing", func() {
			eng.Emit(engine.Event{Kind: engine.ErrorRaised, Err: &engine.Error{Category: engine.CategoryNetwork, Details: "levelLoadTimeOut"}})

			So(eng.StartLoads(), ShouldResemble, []float64{-1})
			So(eng.Recoveries(), ShouldEqual, 0)
			So(s.Terminated(), ShouldBeFalse)
		})

		Convey("Any other fatal error terminates the session", func() {
			eng.Emit(engine.Event{Kind: engine.ErrorRaised, Err: &engine.Error{Category: engine.CategoryKeySystem, Fatal: true}})

			So(s.Terminated(), ShouldBeTrue)
			So(s.State().Terminated, ShouldBeTrue)
			So(eng.Destroys(), ShouldEqual, 1)
			So(el.Listeners(), ShouldEqual, 0)

			Convey("Then quality changes report no active session", func() {
				So(errors.Is(s.SetQuality(0), engine.ErrNoActiveSession), ShouldBeTrue)
				So(errors.Is(s.TogglePlay(), engine.ErrNoActiveSession), ShouldBeTrue)
				So(errors.Is(s.Seek(50), engine.ErrNoActiveSession), ShouldBeTrue)
			})

			Convey("Then closing it again is harmless", func() {
				So(ctrl.Close(), ShouldBeNil)
				So(eng.Destroys(), ShouldEqual, 1)
			})
		})
	})
}

func TestSessionSwap(t *testing.T) {
	Convey("Given a session on A whose engine keeps firing after teardown", t, func() {
		factory := &fake.Factory{}
		ctrl := newController(factory, position.NewMemoryStore(), time.Hour)
		Reset(func() { _ = ctrl.Close() })
		el := fake.NewElement(false)

		a, err := ctrl.Open(el, sourceA)
		So(err, ShouldBeNil)
		engA := factory.Last()
		engA.Sticky = true

		Convey("When B is opened on the same element", func() {
			b, err := ctrl.Open(el, sourceB)
			So(err, ShouldBeNil)
			engB := factory.Last()
			engB.Emit(engine.Event{Kind: engine.ManifestParsed, Levels: fake.Levels(2)})

			Convey("Then A was fully torn down first", func() {
				So(engA.Destroys(), ShouldEqual, 1)
				So(el.Listeners(), ShouldEqual, 1)
				So(ctrl.Current(), ShouldEqual, b)
				So(b.Source(), ShouldEqual, sourceB)
			})

			Convey("Then late events from A never reach B", func() {
				before := b.State()

				engA.Emit(engine.Event{Kind: engine.ManifestParsed, Levels: fake.Levels(5)})
				engA.SwitchTo(4)
				engA.Emit(engine.Event{Kind: engine.ErrorRaised, Err: &engine.Error{Category: engine.CategoryOther, Fatal: true}})

				So(b.State(), ShouldResemble, before)
				So(b.Terminated(), ShouldBeFalse)
				So(a.State().Levels, ShouldBeEmpty)
				So(engB.Destroys(), ShouldEqual, 0)
			})

			Convey("Then element events only reach B", func() {
				var seen []playback.State
				a.Subscribe(func(st playback.State) { seen = append(seen, st) })

				el.Emit(media.Waiting)
				So(b.State().IsBuffering, ShouldBeTrue)
				So(seen, ShouldBeEmpty)
			})
		})
	})
}

func TestResume(t *testing.T) {
	Convey("Given a stored position for A", t, func() {
		factory := &fake.Factory{}
		store := position.NewMemoryStore()
		So(store.Save(sourceA, 42), ShouldBeNil)
		ctrl := newController(factory, store, time.Hour)
		Reset(func() { _ = ctrl.Close() })
		el := fake.NewElement(false)

		Convey("When data becomes usable after opening", func() {
			_, err := ctrl.Open(el, sourceA)
			So(err, ShouldBeNil)
			So(el.Seeks(), ShouldBeEmpty)

			el.Emit(media.LoadedData)
			el.Emit(media.CanPlay)
			el.Emit(media.LoadedData)

			Convey("Then playback resumes once", func() {
				So(el.Seeks(), ShouldResemble, []float64{42})
			})
		})

		Convey("When the element already has data at open", func() {
			el.SetReadyState(media.HaveMetadata)
			_, err := ctrl.Open(el, sourceA)
			So(err, ShouldBeNil)

			So(el.Seeks(), ShouldResemble, []float64{42})
			el.Emit(media.CanPlay)
			So(el.Seeks(), ShouldResemble, []float64{42})
		})

		Convey("When B has no stored position", func() {
			_, err := ctrl.Open(el, sourceB)
			So(err, ShouldBeNil)
			el.Emit(media.LoadedData)
			So(el.Seeks(), ShouldBeEmpty)
		})

		Convey("When the session closes before any data arrived", func() {
			_, err := ctrl.Open(el, sourceA)
			So(err, ShouldBeNil)
			So(ctrl.Close(), ShouldBeNil)

			Convey("Then the stored position is kept", func() {
				seconds, ok := stored(store, sourceA)
				So(ok, ShouldBeTrue)
				So(seconds, ShouldEqual, 42)
			})
		})
	})

	Convey("Given a configured start position and a stored one", t, func() {
		factory := &fake.Factory{}
		store := position.NewMemoryStore()
		So(store.Save(sourceA, 100), ShouldBeNil)
		cfg := engine.DefaultConfig()
		cfg.StartPosition = 30
		ctrl := session.NewController(engine.NewAdapter(factory), store, session.Options{
			Config:       cfg,
			SaveInterval: 5 * time.Millisecond,
		})
		Reset(func() { _ = ctrl.Close() })
		el := fake.NewElement(false)

		_, err := ctrl.Open(el, sourceA)
		So(err, ShouldBeNil)
		factory.Last().Emit(engine.Event{Kind: engine.ManifestParsed, Levels: fake.Levels(2)})
		el.Emit(media.LoadedData)

		Convey("The configured start wins", func() {
			So(factory.Last().StartLoads(), ShouldResemble, []float64{30})
			So(el.Seeks(), ShouldBeEmpty)
		})

		Convey("Positions are still saved", func() {
			el.SetPlayhead(31, 100)
			time.Sleep(50 * time.Millisecond)

			seconds, ok := stored(store, sourceA)
			So(ok, ShouldBeTrue)
			So(seconds, ShouldEqual, 31)
		})
	})

	Convey("Given a corrupt stored position", t, func() {
		store := position.NewMemoryStore()
		store.Put(sourceA, "not-a-number")
		ctrl := newController(&fake.Factory{}, store, time.Hour)
		Reset(func() { _ = ctrl.Close() })
		el := fake.NewElement(false)

		_, err := ctrl.Open(el, sourceA)
		So(err, ShouldBeNil)
		el.Emit(media.LoadedData)

		So(el.Seeks(), ShouldBeEmpty)
	})
}

func TestPersistence(t *testing.T) {
	Convey("Given a session saving every few milliseconds", t, func() {
		store := position.NewMemoryStore()
		ctrl := newController(&fake.Factory{}, store, 5*time.Millisecond)
		Reset(func() { _ = ctrl.Close() })
		el := fake.NewElement(false)

		_, err := ctrl.Open(el, sourceA)
		So(err, ShouldBeNil)
		el.Emit(media.LoadedData)

		Convey("The playhead is saved while playing", func() {
			el.SetPlayhead(30, 100)
			time.Sleep(50 * time.Millisecond)

			seconds, ok := stored(store, sourceA)
			So(ok, ShouldBeTrue)
			So(seconds, ShouldEqual, 30)
		})

		Convey("Position zero is saved too", func() {
			So(store.Save(sourceA, 12), ShouldBeNil)
			el.SetPlayhead(0, 100)
			time.Sleep(50 * time.Millisecond)

			seconds, _ := stored(store, sourceA)
			So(seconds, ShouldEqual, 0)
		})

		Convey("Closing flushes once and stops saving", func() {
			el.SetPlayhead(61.5, 100)
			So(ctrl.Close(), ShouldBeNil)
			So(ctrl.Current(), ShouldBeNil)

			el.SetPlayhead(90, 100)
			time.Sleep(30 * time.Millisecond)

			seconds, _ := stored(store, sourceA)
			So(seconds, ShouldEqual, 61.5)
		})
	})
}

func TestCommands(t *testing.T) {
	Convey("Given an open session with a known duration", t, func() {
		ctrl := newController(&fake.Factory{}, position.NewMemoryStore(), time.Hour)
		Reset(func() { _ = ctrl.Close() })
		el := fake.NewElement(false)
		s, err := ctrl.Open(el, sourceA)
		So(err, ShouldBeNil)
		el.SetPlayhead(10, 200)
		el.Emit(media.TimeUpdate)

		Convey("TogglePlay flips between playing and paused", func() {
			So(s.TogglePlay(), ShouldBeNil)
			So(s.State().IsPlaying, ShouldBeTrue)
			So(el.Paused(), ShouldBeFalse)

			So(s.TogglePlay(), ShouldBeNil)
			So(s.State().IsPlaying, ShouldBeFalse)
		})

		Convey("Seek moves the element by percentage", func() {
			So(s.Seek(25), ShouldBeNil)
			So(el.Seeks(), ShouldResemble, []float64{50})
		})

		Convey("Quality selection needs announced levels", func() {
			err := s.SetQuality(0)
			So(errors.Is(err, engine.ErrInvalidQualityLevel), ShouldBeTrue)
			So(s.State().SelectedQuality, ShouldEqual, engine.AutoLevel)
		})

		Convey("The controller forwards quality changes", func() {
			So(ctrl.SetQuality(engine.AutoLevel), ShouldBeNil)
			So(ctrl.Close(), ShouldBeNil)
			So(errors.Is(ctrl.SetQuality(0), engine.ErrNoActiveSession), ShouldBeTrue)
		})
	})

	Convey("Given an unsupported source", t, func() {
		ctrl := newController(&fake.Factory{Unsupported: true}, position.NewMemoryStore(), time.Hour)
		Reset(func() { _ = ctrl.Close() })

		_, err := ctrl.Open(fake.NewElement(false), sourceA)
		So(errors.Is(err, engine.ErrUnsupported), ShouldBeTrue)
		So(ctrl.Current(), ShouldBeNil)
	})
}
