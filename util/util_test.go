package util

import (
	"testing"

	"github.com/playsync/playsync/filesystem"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "position", "positions"), ShouldEqual, "1 position")
		So(Quantify(2, "position", "positions"), ShouldEqual, "2 positions")
		So(Quantify(0, "position", "positions"), ShouldEqual, "0 positions")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("managed"), ShouldEqual, "Managed")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(105.0, 0, 100), ShouldEqual, 100)
		So(Clamp(-3.0, 0, 100), ShouldEqual, 0)
		So(Clamp(42.0, 0, 100), ShouldEqual, 42)
		So(Clamp(7, 1, 9), ShouldEqual, 7)
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a file and a directory", t, func() {
		fs := filesystem.API()
		So(afero.WriteFile(fs, "/data/positions.json", []byte("{}"), 0o644), ShouldBeNil)
		So(afero.WriteFile(fs, "/logs/a.log", []byte("x"), 0o644), ShouldBeNil)

		Convey("Both are removed", func() {
			So(Delete("/data/positions.json"), ShouldBeNil)
			So(Delete("/logs"), ShouldBeNil)

			exists, _ := afero.Exists(fs, "/data/positions.json")
			So(exists, ShouldBeFalse)
			exists, _ = afero.DirExists(fs, "/logs")
			So(exists, ShouldBeFalse)
		})

		Convey("A missing path is an error", func() {
			So(Delete("/nope"), ShouldNotBeNil)
		})
	})
}
