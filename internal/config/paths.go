// Package config provides configuration management for docassist.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDir is the standard configuration directory name
const ConfigDir = "docassist"

// configDirEnv overrides the config directory (used by tests and portable installs).
const configDirEnv = "DOCASSIST_CONFIG_DIR"

// getConfigDir returns the platform-appropriate config directory.
// - Windows: %APPDATA%\DocAssist
// - Unix: ~/.config/docassist (XDG standard)
func getConfigDir() string {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "DocAssist")
		}
		if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
			return filepath.Join(userProfile, "AppData", "Roaming", "DocAssist")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", ConfigDir)
	}
	return ""
}

// ConfigDirectory returns the resolved config directory.
func ConfigDirectory() string {
	return getConfigDir()
}

// LogDirectory returns the directory for rotated log files.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\DocAssist\logs
//   - Unix: ~/.config/docassist/logs
func LogDirectory() string {
	if os.Getenv(configDirEnv) == "" && runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "docassist-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "DocAssist", "logs")
	}

	dir := getConfigDir()
	if dir == "" {
		return filepath.Join(os.TempDir(), "docassist-logs")
	}
	return filepath.Join(dir, "logs")
}

// EnsureLogDirectory creates the log directory with owner-only permissions.
func EnsureLogDirectory() error {
	return os.MkdirAll(LogDirectory(), 0700)
}

// DefaultLogFile returns the path of the rotating CLI log file.
func DefaultLogFile() string {
	return filepath.Join(LogDirectory(), "docassist.log")
}
