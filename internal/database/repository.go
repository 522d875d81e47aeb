package database

import (
	"fmt"
	"os"
	"time"

	"github.com/alexandria/alexandria/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for memories. There is a
// single writer (the capture loop); read-only callers may query
// concurrently.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// QueryFilters describes an optional filter set for Query.
type QueryFilters struct {
	StartTime      *time.Time
	EndTime        *time.Time
	SearchText     string   // substring match on OCR text
	Tags           []string // all listed tags must be present
	ExcludePrivate bool
	Limit          int
	Offset         int
}

// Add inserts a new memory and returns it with its assigned id. The
// screenshot file must exist on disk at insertion time.
func (r *Repository) Add(memory *models.Memory) (*models.Memory, error) {
	if memory.ScreenshotPath == "" {
		return nil, fmt.Errorf("memory has no screenshot path")
	}
	if _, err := os.Stat(memory.ScreenshotPath); err != nil {
		return nil, errors.Wrapf(err, "screenshot file missing: %s", memory.ScreenshotPath)
	}

	// is_private is monotonic over is_sensitive
	if memory.IsSensitive {
		memory.IsPrivate = true
	}

	result := r.db.Create(memory)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to insert memory")
	}
	return memory, nil
}

// GetByID retrieves a memory by its id.
func (r *Repository) GetByID(id uint) (*models.Memory, error) {
	var memory models.Memory
	result := r.db.First(&memory, id)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get memory")
	}
	return &memory, nil
}

// Query returns memories matching the given filters, newest first.
func (r *Repository) Query(filters QueryFilters) ([]*models.Memory, error) {
	query := r.db.Model(&models.Memory{})

	if filters.ExcludePrivate {
		query = query.Where("is_private = ?", false)
	}
	if filters.StartTime != nil {
		query = query.Where("timestamp >= ?", *filters.StartTime)
	}
	if filters.EndTime != nil {
		query = query.Where("timestamp <= ?", *filters.EndTime)
	}
	if filters.SearchText != "" {
		query = query.Where("ocr_text LIKE ?", "%"+filters.SearchText+"%")
	}
	for _, tag := range filters.Tags {
		// Tags are stored as a JSON array; a quoted match avoids
		// substring collisions between tag names.
		query = query.Where("tags LIKE ?", `%"`+tag+`"%`)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}

	var memories []*models.Memory
	result := query.Order("timestamp DESC").Offset(filters.Offset).Limit(limit).Find(&memories)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query memories")
	}
	return memories, nil
}

// Search returns non-private memories whose OCR text contains the given
// text, newest first.
func (r *Repository) Search(text string, limit int) ([]*models.Memory, error) {
	if limit <= 0 {
		limit = 50
	}

	var memories []*models.Memory
	result := r.db.
		Where("ocr_text LIKE ?", "%"+text+"%").
		Where("is_private = ?", false).
		Order("timestamp DESC").
		Limit(limit).
		Find(&memories)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to search memories")
	}
	return memories, nil
}

// Delete removes a memory and both its associated files. Files are
// removed before the row so a partial failure can never orphan a file
// with no record pointing at it. Returns false if the id does not
// exist.
func (r *Repository) Delete(id uint) (bool, error) {
	memory, err := r.GetByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}

	if err := removeMemoryFiles(memory); err != nil {
		return false, err
	}

	result := r.db.Delete(&models.Memory{}, id)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to delete memory")
	}
	return true, nil
}

// CleanupOlderThan deletes all memories older than the given number of
// days, removing each memory's files first. Running it twice with the
// same cutoff deletes nothing on the second run.
func (r *Repository) CleanupOlderThan(days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	var old []*models.Memory
	result := r.db.Where("timestamp < ?", cutoff).Find(&old)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to query old memories")
	}

	count := 0
	for _, memory := range old {
		if err := removeMemoryFiles(memory); err != nil {
			return count, err
		}
		if err := r.db.Delete(&models.Memory{}, memory.ID).Error; err != nil {
			return count, errors.Wrap(err, "failed to delete old memory")
		}
		count++
	}
	return count, nil
}

// Statistics returns aggregate counts and the timestamp range of the
// stored memories.
func (r *Repository) Statistics() (*models.Statistics, error) {
	stats := &models.Statistics{}

	if err := r.db.Model(&models.Memory{}).Count(&stats.TotalMemories).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count memories")
	}
	if err := r.db.Model(&models.Memory{}).Where("is_private = ?", true).Count(&stats.PrivateMemories).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count private memories")
	}
	if err := r.db.Model(&models.Memory{}).Where("has_text = ?", true).Count(&stats.MemoriesWithText).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count memories with text")
	}

	if stats.TotalMemories > 0 {
		var oldest, newest models.Memory
		if err := r.db.Order("timestamp ASC").First(&oldest).Error; err == nil {
			ts := oldest.Timestamp
			stats.OldestMemory = &ts
		}
		if err := r.db.Order("timestamp DESC").First(&newest).Error; err == nil {
			ts := newest.Timestamp
			stats.NewestMemory = &ts
		}
	}

	return stats, nil
}

func removeMemoryFiles(memory *models.Memory) error {
	if memory.ScreenshotPath != "" {
		if err := os.Remove(memory.ScreenshotPath); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove screenshot %s", memory.ScreenshotPath)
		}
	}
	if memory.ThumbnailPath != "" {
		if err := os.Remove(memory.ThumbnailPath); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to remove thumbnail %s", memory.ThumbnailPath)
		}
	}
	return nil
}
