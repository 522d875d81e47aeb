package config

import (
	"os"
	"strconv"
)

// loadFromEnv applies environment variable overrides on top of the
// loaded configuration.
func loadFromEnv(cfg *Config) {
	if dbPath := os.Getenv("ALEXANDRIA_DB_PATH"); dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}

	if interval := os.Getenv("ALEXANDRIA_INTERVAL_MINUTES"); interval != "" {
		if minutes, err := strconv.Atoi(interval); err == nil && minutes > 0 {
			cfg.Screenshot.IntervalMinutes = minutes
		}
	}

	if backend := os.Getenv("ALEXANDRIA_SCREENSHOT_BACKEND"); backend != "" {
		cfg.Wayland.ScreenshotBackend = backend
	}

	if retention := os.Getenv("ALEXANDRIA_RETENTION_DAYS"); retention != "" {
		if days, err := strconv.Atoi(retention); err == nil && days >= 0 {
			cfg.Storage.RetentionDays = days
		}
	}

	if ocrEnabled := os.Getenv("ALEXANDRIA_OCR_ENABLED"); ocrEnabled != "" {
		if val, err := strconv.ParseBool(ocrEnabled); err == nil {
			cfg.OCR.Enabled = val
		}
	}
}
