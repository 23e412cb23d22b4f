// Package filesystem provides a virtualized abstraction layer for all filesystem operations.
//
// It utilizes the afero library so persistence code can run against the OS or an in-memory backend.
package filesystem

import "github.com/spf13/afero"

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active afero.Afero instance for filesystem interaction.
func API() afero.Afero {
	return backend
}

// SetOsFs restores the filesystem backend to the native operating system implementation.
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs swaps in a volatile in-memory backend; tests call it from init.
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

// Exists reports whether path is present on the active backend. Lookup errors count as absent.
func Exists(path string) bool {
	ok, err := backend.Exists(path)
	return err == nil && ok
}
