// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/playsync/playsync/constant"
	"github.com/playsync/playsync/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "PLAYSYNC_CONFIG_PATH"

// EnvDataPath overrides the directory holding persisted playback positions.
const EnvDataPath = "PLAYSYNC_DATA_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the primary configuration directory.
// It honours XDG_CONFIG_HOME on Linux and the user profile equivalents on Darwin and Windows.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Playsync))
}

// Data resolves the directory for durable playback state.
func Data() string {
	if custom, ok := os.LookupEnv(EnvDataPath); ok {
		return ensureDir(custom)
	}

	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "data")
	}
	return ensureDir(filepath.Join(base, constant.Playsync))
}

// Logs resolves the diagnostic log directory.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Positions resolves the JSON file used by the file position backend.
func Positions() string {
	return filepath.Join(Data(), "positions.json")
}

// PositionsDB resolves the SQLite database used by the sqlite position backend.
func PositionsDB() string {
	return filepath.Join(Data(), "positions.sqlite")
}

// Temp resolves a volatile directory for IPC sockets.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Playsync))
}
