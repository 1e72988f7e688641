package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// GetConfigDir returns the configuration directory:
// ~/.config/mayagent on every platform (Windows uses %USERPROFILE%).
func GetConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("USERPROFILE"), ".config", "mayagent")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "mayagent")
}

// GetDefaultDataDir returns the default data directory:
// ~/.local/share/mayagent, or %LOCALAPPDATA%\mayagent on Windows.
func GetDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, "mayagent")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "mayagent")
}

// GetSettingsFilePath returns the path to settings.toml.
func GetSettingsFilePath() string {
	return filepath.Join(GetConfigDir(), "settings.toml")
}

// GetHomeDir returns the user's home directory across platforms.
func GetHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("USERPROFILE")
		if home == "" {
			home = os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		}
		if home == "" {
			home = "C:\\"
		}
		return home
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = "/"
	}
	return home
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(GetHomeDir(), path[2:])
	}
	return os.ExpandEnv(path)
}

// EnsureDir creates a directory with owner-only permissions.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0700)
}

// FileExists reports whether a path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDataDirPermissions tightens the data directory to 0700; it
// holds credentials and conversation history.
func EnsureDataDirPermissions(dataDir string) error {
	info, err := os.Stat(dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat data directory: %w", err)
	}
	if runtime.GOOS == "windows" {
		return nil
	}
	if info.Mode().Perm() != 0700 {
		if err := os.Chmod(dataDir, 0700); err != nil {
			return fmt.Errorf("failed to chmod data directory: %w", err)
		}
	}
	return nil
}
