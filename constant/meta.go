// Package constant defines immutable application-level identifiers and wire-level constants.
package constant

const (
	// Playsync is the canonical application identifier used for filesystem paths and CLI branding.
	Playsync = "playsync"

	// Version is the current application semantic version string.
	Version = "0.1.0"
)

// AsciiArtLogo is the banner printed above the root command help.
const AsciiArtLogo = `
       __                                 
  ___ / /__ ___ _____ __ _____  ____      
 / _ \/ / _ ` + "`" + `/ // (_-</ // / _ \/ __/      
/ .__/_/\_,_/\_, /___/\_, /_//_/\__/       
/_/         /___/    /___/                 `
