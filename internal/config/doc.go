// Package config loads the conch settings file.
//
// Settings resolve in three layers: built-in defaults, an optional TOML
// file (per-user location from os.UserConfigDir, overridable on the
// command line), and CONCH_-prefixed environment variables on top.
package config
