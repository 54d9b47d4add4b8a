// Package xdgpaths resolves the socket, config, and state paths ccmuxd and
// ccmux share, following the XDG base directory locations rather than a
// single flat root directory.
package xdgpaths

import (
	"os"
	"path/filepath"
)

const appName = "ccmux"

// SocketPath returns $XDG_RUNTIME_DIR/ccmux.sock if XDG_RUNTIME_DIR is set,
// else <tmp>/ccmux.sock.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName+".sock")
	}
	return filepath.Join(os.TempDir(), appName+".sock")
}

// ConfigDir returns the XDG config directory for ccmux:
// $XDG_CONFIG_HOME/ccmux, or ~/.config/ccmux if unset.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), ".config", appName)
}

// ConfigFile returns ConfigDir()/config.toml.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// StateDir returns the XDG data-local directory for ccmux:
// $XDG_DATA_HOME/ccmux, or ~/.local/share/ccmux if unset. Checkpoint and
// WAL files live here.
func StateDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), ".local", "share", appName)
}

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return h
}
