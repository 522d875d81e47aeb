package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "alexandria"

// ConfigHome returns the per-user configuration directory.
func ConfigHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", appName)
	}
	return filepath.Join(home, ".config", appName)
}

// DataHome returns the per-user data directory (screenshots, database).
func DataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", appName)
	}
	return filepath.Join(home, ".local", "share", appName)
}

// CacheHome returns the per-user cache directory (thumbnails, logs).
func CacheHome() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", appName)
	}
	return filepath.Join(home, ".cache", appName)
}

// LogsDir returns the directory daemon log files are written into.
func LogsDir() string {
	return filepath.Join(CacheHome(), "logs")
}

// RuntimeDir returns the per-user runtime directory (PID file).
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join("/tmp", fmt.Sprintf("%s-%d", appName, os.Getuid()))
}

// EnsureDirs creates all directories the application writes into.
func EnsureDirs() error {
	for _, dir := range []string{ConfigHome(), DataHome(), CacheHome(), LogsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(RuntimeDir(), 0700); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}
	return nil
}
