package player

import (
	"testing"
	"time"

	"github.com/playsync/playsync/constant"
	"github.com/playsync/playsync/engine"
	"github.com/playsync/playsync/internal/fake"
	"github.com/playsync/playsync/media"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMirror(t *testing.T) {
	Convey("Given a fresh property mirror", t, func() {
		var s mirror

		Convey("time-pos updates the playhead and reports a timeupdate", func() {
			So(s.apply(propTimePos, 12.5), ShouldResemble, []media.EventKind{media.TimeUpdate})
			So(s.timePos, ShouldEqual, 12.5)
		})

		Convey("A null time-pos is ignored", func() {
			So(s.apply(propTimePos, nil), ShouldBeEmpty)
		})

		Convey("pause only reports changes", func() {
			So(s.apply(propPause, false), ShouldBeEmpty)
			So(s.apply(propPause, true), ShouldResemble, []media.EventKind{media.Pause})
			So(s.apply(propPause, true), ShouldBeEmpty)
			So(s.apply(propPause, false), ShouldResemble, []media.EventKind{media.Play})
		})

		Convey("Cache stalls map to waiting and playing", func() {
			So(s.apply(propPausedForCache, true), ShouldResemble, []media.EventKind{media.Waiting})
			So(s.apply(propPausedForCache, false), ShouldResemble, []media.EventKind{media.Playing})
		})

		Convey("Reaching the end reports ended once true", func() {
			So(s.apply(propEOFReached, false), ShouldBeEmpty)
			So(s.apply(propEOFReached, true), ShouldResemble, []media.EventKind{media.Ended})
		})

		Convey("A loaded file has data and plays unless paused", func() {
			So(s.apply(eventFileLoaded, nil), ShouldResemble, []media.EventKind{media.LoadedData, media.CanPlay, media.Play})
			So(s.ready, ShouldEqual, media.HaveEnoughData)

			s.paused = true
			So(s.apply(eventFileLoaded, nil), ShouldResemble, []media.EventKind{media.LoadedData, media.CanPlay})
		})

		Convey("Starting a new file resets the timeline", func() {
			s.apply(propTimePos, 40.0)
			s.apply(propDuration, 100.0)
			s.apply(eventFileLoaded, nil)
			s.apply(eventStartFile, nil)
			So(s.timePos, ShouldEqual, 0)
			So(s.duration, ShouldEqual, 0)
			So(s.ready, ShouldEqual, media.HaveNothing)
		})
	})
}

func TestIPCCodec(t *testing.T) {
	Convey("Commands are newline-terminated JSON", t, func() {
		payload, err := encodeCommand([]any{"seek", 12.5, "absolute"})
		So(err, ShouldBeNil)
		So(string(payload), ShouldEqual, `{"command":["seek",12.5,"absolute"]}`+"\n")
	})

	Convey("Replies", t, func() {
		Convey("carry data on success", func() {
			data, err := decodeResponse([]byte(`{"data":42.5,"error":"success"}` + "\n"))
			So(err, ShouldBeNil)
			So(data, ShouldEqual, 42.5)
		})

		Convey("skip interleaved events", func() {
			data, err := decodeResponse([]byte(`{"event":"playback-restart"}` + "\n" + `{"data":true,"error":"success"}` + "\n"))
			So(err, ShouldBeNil)
			So(data, ShouldEqual, true)
		})

		Convey("surface mpv errors", func() {
			_, err := decodeResponse([]byte(`{"error":"property unavailable"}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "property unavailable")
		})

		Convey("fail without a reply line", func() {
			_, err := decodeResponse([]byte("\n\n"))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Events", t, func() {
		name, data, ok := parseEvent([]byte(`{"event":"property-change","id":1,"name":"time-pos","data":3.25}`))
		So(ok, ShouldBeTrue)
		So(name, ShouldEqual, propTimePos)
		So(data, ShouldEqual, 3.25)

		name, data, ok = parseEvent([]byte(`{"event":"end-file","reason":"error","file_error":"loading failed"}`))
		So(ok, ShouldBeTrue)
		So(name, ShouldEqual, eventEndFile)
		So(data.(map[string]any)["reason"], ShouldEqual, "error")

		_, _, ok = parseEvent([]byte(`{"data":null,"error":"success"}`))
		So(ok, ShouldBeFalse)

		_, _, ok = parseEvent([]byte(`not json`))
		So(ok, ShouldBeFalse)
	})
}

func TestTrackList(t *testing.T) {
	Convey("Given mpv's track list for a three variant stream", t, func() {
		raw := []any{
			map[string]any{"id": 1.0, "type": "video", "demux-w": 1920.0, "demux-h": 1080.0, "hls-bitrate": 6000000.0},
			map[string]any{"id": 2.0, "type": "video", "demux-w": 640.0, "demux-h": 360.0, "hls-bitrate": 800000.0},
			map[string]any{"id": 1.0, "type": "audio", "hls-bitrate": 128000.0},
			map[string]any{"id": 3.0, "type": "video", "demux-w": 1280.0, "demux-h": 720.0, "hls-bitrate": 2500000.0},
			"garbage",
		}

		levels, ids := parseTrackList(raw)

		Convey("Video tracks become levels ordered by height", func() {
			So(engine.LevelLabels(levels), ShouldResemble, []string{"360p", "720p", "1080p"})
			So(ids, ShouldResemble, []int{2, 3, 1})
			So(levels[1], ShouldResemble, engine.QualityLevel{Index: 1, Height: 720, Width: 1280, Bitrate: 2500000})
		})
	})

	Convey("A missing track list yields no levels", t, func() {
		levels, ids := parseTrackList(nil)
		So(levels, ShouldBeEmpty)
		So(ids, ShouldBeEmpty)
	})
}

func TestClassifyEndFile(t *testing.T) {
	Convey("Only error endings become engine errors", t, func() {
		So(classifyEndFile(map[string]any{"reason": "eof"}), ShouldBeNil)
		So(classifyEndFile(map[string]any{"reason": "stop"}), ShouldBeNil)
		So(classifyEndFile(nil), ShouldBeNil)
	})

	Convey("Errors are fatal and categorized by file_error", t, func() {
		cases := map[string]engine.Category{
			"loading failed":                     engine.CategoryNetwork,
			"HTTP error 404":                     engine.CategoryNetwork,
			"unrecognized file format":           engine.CategoryMedia,
			"no audio or video data played":      engine.CategoryMedia,
			"video output initialization failed": engine.CategoryOther,
			"":                                   engine.CategoryOther,
		}
		for details, category := range cases {
			err := classifyEndFile(map[string]any{"reason": "error", "file_error": details})
			So(err, ShouldNotBeNil)
			So(err.Fatal, ShouldBeTrue)
			So(err.Category, ShouldEqual, category)
		}
	})
}

func TestOptions(t *testing.T) {
	Convey("The default profile renders to mpv options", t, func() {
		opts := map[string]string{}
		for _, o := range Options(engine.DefaultConfig()) {
			opts[o.Name] = o.Value
		}

		So(opts["demuxer-readahead-secs"], ShouldEqual, "30")
		So(opts["cache-secs"], ShouldEqual, "60")
		So(opts["demuxer-max-bytes"], ShouldEqual, "60000000")
		So(opts["network-timeout"], ShouldEqual, "10")
		So(opts["hls-bitrate"], ShouldEqual, "500000")
		So(opts["cache-pause"], ShouldEqual, "yes")

		Convey("Settings mpv has no knob for are left out", func() {
			So(opts, ShouldNotContainKey, "hwdec")
			So(opts, ShouldNotContainKey, "demuxer-max-back-bytes")
			So(opts, ShouldNotContainKey, "cache-pause-wait")
			So(opts, ShouldNotContainKey, "autofit-larger")
		})
	})

	Convey("The longest loading timeout wins", t, func() {
		cfg := engine.DefaultConfig()
		cfg.FragLoadingTimeout = 20 * time.Second
		cfg.LowLatencyMode = true
		for _, o := range Options(cfg) {
			switch o.Name {
			case "network-timeout":
				So(o.Value, ShouldEqual, "20")
			case "cache-pause":
				So(o.Value, ShouldEqual, "no")
			}
		}
	})
}

func TestEngineEvents(t *testing.T) {
	Convey("Given an engine with announced tracks", t, func() {
		e := NewEngine(engine.DefaultConfig())
		e.trackIDs = []int{2, 3, 1}

		var got []engine.Event
		remove := e.Listen(func(ev engine.Event) { got = append(got, ev) })

		Convey("A video track change reports the level index", func() {
			e.onMPV(propVideoID, 3.0)
			So(got, ShouldHaveLength, 1)
			So(got[0].Kind, ShouldEqual, engine.LevelSwitched)
			So(got[0].Level, ShouldEqual, 1)
			So(e.CurrentLevel(), ShouldEqual, 1)
		})

		Convey("Unknown tracks are not reported", func() {
			e.onMPV(propVideoID, 9.0)
			e.onMPV(propVideoID, nil)
			So(got, ShouldBeEmpty)
			So(e.CurrentLevel(), ShouldEqual, engine.AutoLevel)
		})

		Convey("A failed load raises a fatal network error", func() {
			e.onMPV(eventEndFile, map[string]any{"reason": "error", "file_error": "loading failed"})
			So(got, ShouldHaveLength, 1)
			So(got[0].Err.Category, ShouldEqual, engine.CategoryNetwork)
		})

		Convey("Losing mpv is fatal", func() {
			e.onMPV(eventDisconnected, nil)
			So(got, ShouldHaveLength, 1)
			So(got[0].Err.Fatal, ShouldBeTrue)
			So(got[0].Err.Category, ShouldEqual, engine.CategoryOther)
		})

		Convey("Removed listeners hear nothing", func() {
			remove()
			e.onMPV(propVideoID, 3.0)
			So(got, ShouldBeEmpty)
		})

		Convey("A destroyed engine is silent and refuses commands", func() {
			So(e.Destroy(), ShouldBeNil)
			So(e.Destroy(), ShouldBeNil)
			e.onMPV(eventDisconnected, nil)
			So(got, ShouldBeEmpty)
			So(e.SetCurrentLevel(0), ShouldEqual, errDestroyed)
			So(e.StartLoad(-1), ShouldEqual, errDestroyed)
		})
	})

	Convey("Given an engine without media", t, func() {
		e := NewEngine(engine.DefaultConfig())

		So(e.AutoLevelEnabled(), ShouldBeTrue)
		So(e.StartLoad(0), ShouldNotBeNil)
		So(e.SetCurrentLevel(0), ShouldNotBeNil)
		So(e.AttachMedia(fake.NewElement(true)), ShouldNotBeNil)
		So(e.LoadSource("--script=evil.lua"), ShouldNotBeNil)
		So(e.LoadSource("https://cdn.example/a.m3u8"), ShouldBeNil)
	})
}

func TestElement(t *testing.T) {
	Convey("Given an mpv element that was never started", t, func() {
		m := NewMPV("mpv")

		Convey("It plays HLS and media types natively", func() {
			So(m.CanPlayType(constant.HLSMimeType), ShouldBeTrue)
			So(m.CanPlayType("video/mp4"), ShouldBeTrue)
			So(m.CanPlayType("application/pdf"), ShouldBeFalse)
		})

		Convey("Commands fail cleanly", func() {
			So(m.Play(), ShouldNotBeNil)
			So(m.SetCurrentTime(3), ShouldNotBeNil)
			So(m.Close(), ShouldBeNil)
		})

		Convey("Listeners receive mapped events in registration order", func() {
			var order []string
			m.Listen(func(ev media.Event) { order = append(order, "a:"+ev.Kind.String()) })
			remove := m.Listen(func(ev media.Event) { order = append(order, "b:"+ev.Kind.String()) })

			m.dispatch(propPausedForCache, true)
			remove()
			m.dispatch(propTimePos, 1.0)

			So(order, ShouldResemble, []string{"a:waiting", "b:waiting", "a:timeupdate"})
			So(m.CurrentTime(), ShouldEqual, 1.0)
		})
	})

	Convey("Launch arguments keep the socket and user options", t, func() {
		args := launchArgs("/tmp/x.sock", []string{"--volume=50"})
		So(args, ShouldContain, "--input-ipc-server=/tmp/x.sock")
		So(args, ShouldContain, "--idle=yes")
		So(args[len(args)-1], ShouldEqual, "--volume=50")
	})

	Convey("Media targets are sanitized", t, func() {
		_, err := sanitizeMediaTarget("-o=/etc/passwd")
		So(err, ShouldNotBeNil)
		_, err = sanitizeMediaTarget("ftp://host/a.m3u8")
		So(err, ShouldNotBeNil)
		_, err = sanitizeMediaTarget("https://a/b\n.m3u8")
		So(err, ShouldNotBeNil)

		target, err := sanitizeMediaTarget(" https://cdn.example/a.m3u8 ")
		So(err, ShouldBeNil)
		So(target, ShouldEqual, "https://cdn.example/a.m3u8")
	})

	Convey("The factory needs an mpv binary", t, func() {
		So(Factory{Path: "/nonexistent/mpv-binary"}.Supported(), ShouldBeFalse)
	})
}
