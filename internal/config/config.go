package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all application configuration, persisted as a JSON
// document under the user's config directory. Unknown keys in the file
// are ignored; missing keys keep their defaults.
type Config struct {
	Screenshot ScreenshotConfig `json:"screenshot"`
	Storage    StorageConfig    `json:"storage"`
	OCR        OCRConfig        `json:"ocr"`
	Privacy    PrivacyConfig    `json:"privacy"`
	Wayland    WaylandConfig    `json:"wayland"`
	Web        WebConfig        `json:"web"`

	configFile string
}

// ScreenshotConfig holds capture behavior configuration
type ScreenshotConfig struct {
	IntervalMinutes    int      `json:"interval_minutes"`
	CompressionQuality int      `json:"compression_quality"` // 0-100, mapped to PNG level or JPEG quality
	ExcludeWindows     []string `json:"exclude_windows"`
}

// StorageConfig holds retention and database configuration
type StorageConfig struct {
	RetentionDays int    `json:"retention_days"`
	AutoCleanup   bool   `json:"auto_cleanup"`
	DatabasePath  string `json:"database_path"`
}

// OCRConfig holds text recognition configuration
type OCRConfig struct {
	Enabled             bool   `json:"enabled"`
	Language            string `json:"language"`
	ConfidenceThreshold int    `json:"confidence_threshold"`
	PreprocessImage     bool   `json:"preprocess_image"`
}

// PrivacyConfig holds sensitivity/exclusion configuration
type PrivacyConfig struct {
	ExcludePrivateWindows bool `json:"exclude_private_windows"`
}

// WaylandConfig holds screenshot backend configuration
type WaylandConfig struct {
	ScreenshotBackend string `json:"screenshot_backend"` // e.g. "grim"
	OutputSelection   string `json:"output_selection"`   // all, primary, specific
	SpecificOutput    string `json:"specific_output"`
}

// WebConfig holds the read-only HTTP API configuration
type WebConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Default returns a Config with built-in default values
func Default() *Config {
	return &Config{
		Screenshot: ScreenshotConfig{
			IntervalMinutes:    1,
			CompressionQuality: 85,
			ExcludeWindows:     []string{},
		},
		Storage: StorageConfig{
			RetentionDays: 30,
			AutoCleanup:   true,
			DatabasePath:  "", // empty means DataHome()/memories.db
		},
		OCR: OCRConfig{
			Enabled:             true,
			Language:            "eng",
			ConfidenceThreshold: 60,
			PreprocessImage:     true,
		},
		Privacy: PrivacyConfig{
			ExcludePrivateWindows: true,
		},
		Wayland: WaylandConfig{
			ScreenshotBackend: "grim",
			OutputSelection:   "all",
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid(),
		},
	}
}

// Load reads the configuration file, merging it over the defaults. On
// first run (no file yet) the merged defaults are written back so the
// user has a complete document to edit.
func Load() (*Config, error) {
	cfg := Default()
	cfg.configFile = filepath.Join(ConfigHome(), "config.json")

	data, err := os.ReadFile(cfg.configFile)
	switch {
	case os.IsNotExist(err):
		if saveErr := cfg.Save(); saveErr != nil {
			return cfg, fmt.Errorf("failed to write default config: %w", saveErr)
		}
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		// Unmarshal over defaults: present keys override, absent keys
		// keep their default values, unknown keys are ignored.
		if err := json.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	loadFromEnv(cfg)

	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = filepath.Join(DataHome(), "memories.db")
	}

	return cfg, nil
}

// Save writes the current configuration to its JSON file.
func (c *Config) Save() error {
	if c.configFile == "" {
		c.configFile = filepath.Join(ConfigHome(), "config.json")
	}
	if err := os.MkdirAll(filepath.Dir(c.configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(c.configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ConfigFile returns the path of the loaded configuration file.
func (c *Config) ConfigFile() string {
	return c.configFile
}

// ScreenshotsDir returns the directory screenshots are written into.
func (c *Config) ScreenshotsDir() string {
	return filepath.Join(DataHome(), "screenshots")
}

// ThumbnailsDir returns the directory thumbnails are written into.
func (c *Config) ThumbnailsDir() string {
	return filepath.Join(CacheHome(), "thumbnails")
}

// LogFile returns the daemon log file path.
func (c *Config) LogFile() string {
	return filepath.Join(LogsDir(), "alexandria-daemon.log")
}

// PIDFile returns the daemon PID file path.
func (c *Config) PIDFile() string {
	return filepath.Join(RuntimeDir(), "daemon.pid")
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Screenshot.IntervalMinutes < 1 {
		return fmt.Errorf("screenshot interval must be at least 1 minute, got %d", c.Screenshot.IntervalMinutes)
	}
	if c.Screenshot.CompressionQuality < 0 || c.Screenshot.CompressionQuality > 100 {
		return fmt.Errorf("compression quality must be between 0 and 100, got %d", c.Screenshot.CompressionQuality)
	}
	if c.OCR.ConfidenceThreshold < 0 || c.OCR.ConfidenceThreshold > 100 {
		return fmt.Errorf("OCR confidence threshold must be between 0 and 100, got %d", c.OCR.ConfidenceThreshold)
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("retention days cannot be negative")
	}
	switch c.Wayland.OutputSelection {
	case "all", "primary", "specific":
	default:
		return fmt.Errorf("output selection must be all, primary or specific, got %q", c.Wayland.OutputSelection)
	}
	if c.Wayland.OutputSelection == "specific" && c.Wayland.SpecificOutput == "" {
		return fmt.Errorf("specific output selection requires an output name")
	}
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}
	return nil
}
