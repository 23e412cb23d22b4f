package engine

import (
	"testing"
	"time"

	"github.com/playsync/playsync/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestConfig(t *testing.T) {
	Convey("DefaultConfig defers loading and keeps a 30s buffer", t, func() {
		cfg := DefaultConfig()
		So(cfg.AutoStartLoad, ShouldBeFalse)
		So(cfg.StartPosition, ShouldEqual, -1)
		So(cfg.MaxBufferLength, ShouldEqual, 30*time.Second)
		So(cfg.MaxBufferHole, ShouldEqual, 500*time.Millisecond)
		So(cfg.FragLoadingMaxRetry, ShouldEqual, 5)
	})

	Convey("ConfigFromViper converts units", t, func() {
		viper.Set(key.EngineMaxBufferHole, 0.25)
		viper.Set(key.EngineFragLoadingTimeout, 2500)
		viper.Set(key.EngineManifestLoadingMaxRetry, 7)
		defer viper.Reset()

		cfg := ConfigFromViper()
		So(cfg.MaxBufferHole, ShouldEqual, 250*time.Millisecond)
		So(cfg.FragLoadingTimeout, ShouldEqual, 2500*time.Millisecond)
		So(cfg.ManifestLoadingMaxRetry, ShouldEqual, 7)
	})

	Convey("Errors describe fatality and category", t, func() {
		err := &Error{Category: CategoryNetwork, Fatal: true, Details: "manifest timeout"}
		So(err.Error(), ShouldEqual, "fatal network error: manifest timeout")
		So(QualityLevel{Index: 0, Height: 720}.String(), ShouldEqual, "720p")
	})
}
