package where

import (
	"path/filepath"
	"testing"

	"github.com/playsync/playsync/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Data()", func() {
			path := Data()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Logs()", func() {
			path := Logs()
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Position files live in the data directory", func() {
			So(filepath.Dir(Positions()), ShouldEqual, Data())
			So(filepath.Dir(PositionsDB()), ShouldEqual, Data())
		})

		Convey("Overrides are honoured", func() {
			t.Setenv(EnvDataPath, "/override/data")
			So(Data(), ShouldEqual, "/override/data")
			So(Positions(), ShouldEqual, filepath.Join("/override/data", "positions.json"))
		})
	})
}
