package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alexandria/alexandria/internal/database"
	"github.com/alexandria/alexandria/internal/models"
)

func newTestReporter(t *testing.T) (*Reporter, *database.Repository, string) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Connect(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := database.NewRepository(db)
	return New(repo), repo, dir
}

func addMemory(t *testing.T, repo *database.Repository, dir string, ts time.Time, fileSize int64) {
	t.Helper()

	path := filepath.Join(dir, "shot_"+ts.Format("20060102_150405.000000")+".png")
	if err := os.WriteFile(path, []byte("png"), 0644); err != nil {
		t.Fatalf("failed to write screenshot: %v", err)
	}
	if _, err := repo.Add(&models.Memory{
		Timestamp:      ts,
		ScreenshotPath: path,
		FileSize:       fileSize,
	}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
}

func TestGenerate(t *testing.T) {
	r, repo, dir := newTestReporter(t)

	now := time.Now().UTC()
	addMemory(t, repo, dir, now.Add(-time.Hour), 1000)
	addMemory(t, repo, dir, now.Add(-2*time.Hour), 2000)
	addMemory(t, repo, dir, now.AddDate(0, 0, -3), 4000) // outside the 24h window

	report, err := r.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if report.Statistics.TotalMemories != 3 {
		t.Errorf("TotalMemories = %d, want 3", report.Statistics.TotalMemories)
	}
	if report.RecentCount != 2 {
		t.Errorf("RecentCount = %d, want 2", report.RecentCount)
	}
	if report.DiskBytes != 3000 {
		t.Errorf("DiskBytes = %d, want 3000 (recent files only)", report.DiskBytes)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("GeneratedAt is zero")
	}
}

func TestFormatText(t *testing.T) {
	r, _, _ := newTestReporter(t)

	oldest := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	report := &Report{
		Statistics: &models.Statistics{
			TotalMemories:    42,
			PrivateMemories:  7,
			MemoriesWithText: 30,
			OldestMemory:     &oldest,
		},
		RecentCount: 5,
		DiskBytes:   2621440,
		GeneratedAt: time.Now().UTC(),
	}

	text := r.FormatText(report)

	for _, want := range []string{"42", "7", "30", "2026-07-01", "5 captures", "2.5 MiB"} {
		if !strings.Contains(text, want) {
			t.Errorf("FormatText() missing %q:\n%s", want, text)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	r, repo, dir := newTestReporter(t)
	addMemory(t, repo, dir, time.Now().UTC(), 100)

	report, err := r.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	out, err := r.FormatJSON(report)
	if err != nil {
		t.Fatalf("FormatJSON() error: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("FormatJSON() output is not valid JSON: %v", err)
	}
	if decoded.Statistics == nil || decoded.Statistics.TotalMemories != 1 {
		t.Errorf("decoded report = %+v, want 1 total memory", decoded)
	}
}
