package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexandria/alexandria/internal/models"
)

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()

	dir := t.TempDir()
	db, err := Connect(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewRepository(db), dir
}

func writeScreenshot(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("png-bytes"), 0644); err != nil {
		t.Fatalf("failed to write screenshot file: %v", err)
	}
	return path
}

func addMemory(t *testing.T, repo *Repository, dir string, memory *models.Memory) *models.Memory {
	t.Helper()

	if memory.ScreenshotPath == "" {
		memory.ScreenshotPath = writeScreenshot(t, dir, "shot_"+memory.Timestamp.Format("20060102_150405.000")+".png")
	}
	added, err := repo.Add(memory)
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	return added
}

func TestAddAssignsID(t *testing.T) {
	repo, dir := newTestRepository(t)

	memory := addMemory(t, repo, dir, &models.Memory{
		Timestamp: time.Now().UTC(),
		OCRText:   "hello world",
		HasText:   true,
	})

	if memory.ID == 0 {
		t.Error("Add() did not assign an id")
	}

	got, err := repo.GetByID(memory.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.OCRText != "hello world" {
		t.Errorf("GetByID().OCRText = %q, want %q", got.OCRText, "hello world")
	}
}

func TestAddRequiresScreenshotFile(t *testing.T) {
	repo, dir := newTestRepository(t)

	_, err := repo.Add(&models.Memory{
		Timestamp:      time.Now().UTC(),
		ScreenshotPath: filepath.Join(dir, "does-not-exist.png"),
	})
	if err == nil {
		t.Error("Add() with missing screenshot file expected error, got nil")
	}

	_, err = repo.Add(&models.Memory{Timestamp: time.Now().UTC()})
	if err == nil {
		t.Error("Add() with empty screenshot path expected error, got nil")
	}
}

func TestAddForcesPrivateWhenSensitive(t *testing.T) {
	repo, dir := newTestRepository(t)

	memory := addMemory(t, repo, dir, &models.Memory{
		Timestamp:   time.Now().UTC(),
		IsSensitive: true,
		IsPrivate:   false,
	})

	got, err := repo.GetByID(memory.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !got.IsPrivate {
		t.Error("sensitive memory stored as non-private")
	}
}

func TestQueryFilters(t *testing.T) {
	repo, dir := newTestRepository(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	addMemory(t, repo, dir, &models.Memory{
		Timestamp: base,
		OCRText:   "terminal output with errors",
		HasText:   true,
	})
	m2 := addMemory(t, repo, dir, &models.Memory{
		Timestamp: base.Add(time.Hour),
		OCRText:   "browser session",
		HasText:   true,
		IsPrivate: true,
	})
	m3 := addMemory(t, repo, dir, &models.Memory{
		Timestamp: base.Add(2 * time.Hour),
		OCRText:   "editor window",
		HasText:   true,
	})
	m3.SetTagsList([]string{"app:gedit", "workspace:1"})
	if err := repo.db.Save(m3).Error; err != nil {
		t.Fatalf("failed to update tags: %v", err)
	}

	t.Run("newest first", func(t *testing.T) {
		got, err := repo.Query(QueryFilters{})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Query() returned %d memories, want 3", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].Timestamp.After(got[i-1].Timestamp) {
				t.Errorf("Query() results not newest first at index %d", i)
			}
		}
	})

	t.Run("exclude private", func(t *testing.T) {
		got, err := repo.Query(QueryFilters{ExcludePrivate: true})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		for _, memory := range got {
			if memory.ID == m2.ID {
				t.Error("Query() with ExcludePrivate returned a private memory")
			}
		}
		if len(got) != 2 {
			t.Errorf("Query() returned %d memories, want 2", len(got))
		}
	})

	t.Run("text substring", func(t *testing.T) {
		got, err := repo.Query(QueryFilters{SearchText: "terminal"})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(got) != 1 || got[0].OCRText != "terminal output with errors" {
			t.Errorf("Query() text filter = %d results, want the terminal memory", len(got))
		}
	})

	t.Run("time range", func(t *testing.T) {
		start := base.Add(30 * time.Minute)
		end := base.Add(90 * time.Minute)
		got, err := repo.Query(QueryFilters{StartTime: &start, EndTime: &end})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(got) != 1 || got[0].ID != m2.ID {
			t.Errorf("Query() time range returned %d results, want only the middle memory", len(got))
		}
	})

	t.Run("tag match", func(t *testing.T) {
		got, err := repo.Query(QueryFilters{Tags: []string{"app:gedit"}})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(got) != 1 || got[0].ID != m3.ID {
			t.Errorf("Query() tag filter returned %d results, want the tagged memory", len(got))
		}
	})

	t.Run("tag match requires all tags", func(t *testing.T) {
		got, err := repo.Query(QueryFilters{Tags: []string{"app:gedit", "workspace:2"}})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Query() with unmatched tag returned %d results, want 0", len(got))
		}
	})

	t.Run("limit and offset", func(t *testing.T) {
		got, err := repo.Query(QueryFilters{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(got) != 1 || got[0].ID != m2.ID {
			t.Errorf("Query() limit/offset returned wrong page")
		}
	})
}

func TestSearchExcludesPrivate(t *testing.T) {
	repo, dir := newTestRepository(t)

	addMemory(t, repo, dir, &models.Memory{
		Timestamp: time.Now().UTC(),
		OCRText:   "project deadline friday",
		HasText:   true,
	})
	addMemory(t, repo, dir, &models.Memory{
		Timestamp: time.Now().UTC().Add(time.Minute),
		OCRText:   "project password reset",
		HasText:   true,
		IsPrivate: true,
	})

	got, err := repo.Search("project", 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Search() returned %d results, want 1 (private excluded)", len(got))
	}
	if got[0].OCRText != "project deadline friday" {
		t.Errorf("Search() returned %q, want the non-private memory", got[0].OCRText)
	}
}

func TestDeleteRemovesFiles(t *testing.T) {
	repo, dir := newTestRepository(t)

	screenshot := writeScreenshot(t, dir, "shot.png")
	thumbnail := writeScreenshot(t, dir, "thumb.png")

	memory := addMemory(t, repo, dir, &models.Memory{
		Timestamp:      time.Now().UTC(),
		ScreenshotPath: screenshot,
		ThumbnailPath:  thumbnail,
	})

	deleted, err := repo.Delete(memory.ID)
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if !deleted {
		t.Fatal("Delete() = false, want true")
	}

	for _, path := range []string{screenshot, thumbnail} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("Delete() left file behind: %s", path)
		}
	}

	if _, err := repo.GetByID(memory.ID); err == nil {
		t.Error("GetByID() after delete expected error, got nil")
	}
}

func TestDeleteUnknownID(t *testing.T) {
	repo, _ := newTestRepository(t)

	deleted, err := repo.Delete(9999)
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if deleted {
		t.Error("Delete() of unknown id = true, want false")
	}
}

func TestDeleteToleratesMissingFiles(t *testing.T) {
	repo, dir := newTestRepository(t)

	memory := addMemory(t, repo, dir, &models.Memory{Timestamp: time.Now().UTC()})
	if err := os.Remove(memory.ScreenshotPath); err != nil {
		t.Fatalf("failed to remove screenshot: %v", err)
	}

	deleted, err := repo.Delete(memory.ID)
	if err != nil {
		t.Fatalf("Delete() with missing file error: %v", err)
	}
	if !deleted {
		t.Error("Delete() = false, want true")
	}
}

func TestCleanupOlderThan(t *testing.T) {
	repo, dir := newTestRepository(t)

	oldScreenshot := writeScreenshot(t, dir, "old.png")
	old := addMemory(t, repo, dir, &models.Memory{
		Timestamp:      time.Now().UTC().AddDate(0, 0, -40),
		ScreenshotPath: oldScreenshot,
	})
	recent := addMemory(t, repo, dir, &models.Memory{
		Timestamp: time.Now().UTC().AddDate(0, 0, -5),
	})

	count, err := repo.CleanupOlderThan(30)
	if err != nil {
		t.Fatalf("CleanupOlderThan() error: %v", err)
	}
	if count != 1 {
		t.Errorf("CleanupOlderThan() = %d, want 1", count)
	}

	if _, err := os.Stat(oldScreenshot); !os.IsNotExist(err) {
		t.Error("CleanupOlderThan() left old screenshot behind")
	}
	if _, err := repo.GetByID(old.ID); err == nil {
		t.Error("old memory still present after cleanup")
	}
	if _, err := repo.GetByID(recent.ID); err != nil {
		t.Errorf("recent memory removed by cleanup: %v", err)
	}

	// Idempotent: a second run with the same cutoff deletes nothing.
	count, err = repo.CleanupOlderThan(30)
	if err != nil {
		t.Fatalf("CleanupOlderThan() second run error: %v", err)
	}
	if count != 0 {
		t.Errorf("CleanupOlderThan() second run = %d, want 0", count)
	}
}

func TestStatistics(t *testing.T) {
	repo, dir := newTestRepository(t)

	stats, err := repo.Statistics()
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}
	if stats.TotalMemories != 0 {
		t.Errorf("Statistics().TotalMemories = %d, want 0", stats.TotalMemories)
	}
	if stats.OldestMemory != nil || stats.NewestMemory != nil {
		t.Error("Statistics() on empty store reported timestamps")
	}

	oldest := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	newest := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	addMemory(t, repo, dir, &models.Memory{Timestamp: oldest, HasText: true, OCRText: "a"})
	addMemory(t, repo, dir, &models.Memory{Timestamp: newest, IsPrivate: true})

	stats, err = repo.Statistics()
	if err != nil {
		t.Fatalf("Statistics() error: %v", err)
	}
	if stats.TotalMemories != 2 {
		t.Errorf("TotalMemories = %d, want 2", stats.TotalMemories)
	}
	if stats.PrivateMemories != 1 {
		t.Errorf("PrivateMemories = %d, want 1", stats.PrivateMemories)
	}
	if stats.MemoriesWithText != 1 {
		t.Errorf("MemoriesWithText = %d, want 1", stats.MemoriesWithText)
	}
	if stats.OldestMemory == nil || !stats.OldestMemory.Equal(oldest) {
		t.Errorf("OldestMemory = %v, want %v", stats.OldestMemory, oldest)
	}
	if stats.NewestMemory == nil || !stats.NewestMemory.Equal(newest) {
		t.Errorf("NewestMemory = %v, want %v", stats.NewestMemory, newest)
	}
}
