package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexandria/alexandria/internal/config"
)

func withTempXDG(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_RUNTIME_DIR", filepath.Join(dir, "runtime"))

	for _, key := range []string{
		"ALEXANDRIA_DB_PATH",
		"ALEXANDRIA_INTERVAL_MINUTES",
		"ALEXANDRIA_SCREENSHOT_BACKEND",
		"ALEXANDRIA_RETENTION_DAYS",
		"ALEXANDRIA_OCR_ENABLED",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func runApp(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	if err := app.Run(append([]string{"alexandria"}, args...)); err != nil {
		t.Fatalf("app.Run(%v) error: %v", args, err)
	}
	return out.String()
}

func TestConfigCommandPrintsMergedDocument(t *testing.T) {
	withTempXDG(t)

	out := runApp(t, "config")

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("config output is not valid JSON: %v\n%s", err, out)
	}
	for _, section := range []string{"screenshot", "storage", "ocr", "privacy", "wayland", "web"} {
		if _, ok := doc[section]; !ok {
			t.Errorf("config output missing section %q", section)
		}
	}
}

func TestConfigCommandPathFlag(t *testing.T) {
	withTempXDG(t)

	out := strings.TrimSpace(runApp(t, "config", "--path"))
	if want := filepath.Join(config.ConfigHome(), "config.json"); out != want {
		t.Errorf("config --path = %q, want %q", out, want)
	}
}
