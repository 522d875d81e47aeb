package models

import (
	"encoding/json"
	"time"
)

// Memory is one persisted screenshot capture with its derived text and
// metadata. Records are created once by the capture loop and never
// mutated afterwards; they are removed only by explicit deletion or
// retention cleanup.
type Memory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`

	ScreenshotPath string `gorm:"size:512;not null" json:"screenshot_path"`
	ThumbnailPath  string `gorm:"size:512" json:"thumbnail_path,omitempty"`

	// OCR data
	OCRText       string  `gorm:"type:text" json:"ocr_text,omitempty"`
	OCRConfidence float64 `json:"ocr_confidence"`
	OCRData       string  `gorm:"type:text" json:"-"` // JSON word/line/paragraph hierarchy

	// Window/application info
	WindowTitle     string `gorm:"size:256" json:"window_title,omitempty"`
	ApplicationName string `gorm:"size:128;index" json:"application_name,omitempty"`
	WindowClass     string `gorm:"size:128" json:"window_class,omitempty"`

	// Image metadata
	ImageWidth  int   `json:"image_width"`
	ImageHeight int   `json:"image_height"`
	FileSize    int64 `json:"file_size"`

	// Tagging and categorization
	Tags        string `gorm:"type:text" json:"-"` // JSON array of tags
	IsPrivate   bool   `gorm:"not null;default:false;index" json:"is_private"`
	IsSensitive bool   `gorm:"not null;default:false" json:"is_sensitive"`

	// Content analysis
	HasText        bool   `gorm:"not null;default:false" json:"has_text"`
	DominantColors string `gorm:"type:text" json:"-"` // JSON array of hex colors
}

// TagsList returns the tag list decoded from its JSON column.
func (m *Memory) TagsList() []string {
	if m.Tags == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(m.Tags), &tags); err != nil {
		return []string{}
	}
	return tags
}

// SetTagsList encodes the tag list into its JSON column.
func (m *Memory) SetTagsList(tags []string) {
	data, err := json.Marshal(tags)
	if err != nil {
		m.Tags = ""
		return
	}
	m.Tags = string(data)
}

// DominantColorsList returns the dominant colors decoded from JSON.
func (m *Memory) DominantColorsList() []string {
	if m.DominantColors == "" {
		return []string{}
	}
	var colors []string
	if err := json.Unmarshal([]byte(m.DominantColors), &colors); err != nil {
		return []string{}
	}
	return colors
}

// SetDominantColorsList encodes the dominant colors into JSON.
func (m *Memory) SetDominantColorsList(colors []string) {
	data, err := json.Marshal(colors)
	if err != nil {
		m.DominantColors = ""
		return
	}
	m.DominantColors = string(data)
}

// Statistics summarizes the memory store.
type Statistics struct {
	TotalMemories    int64      `json:"total_memories"`
	PrivateMemories  int64      `json:"private_memories"`
	MemoriesWithText int64      `json:"memories_with_text"`
	OldestMemory     *time.Time `json:"oldest_memory,omitempty"`
	NewestMemory     *time.Time `json:"newest_memory,omitempty"`
}
