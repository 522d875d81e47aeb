package orchestrator

import (
	"context"
	"encoding/json"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexandria/alexandria/internal/analyzer"
	"github.com/alexandria/alexandria/internal/classifier"
	"github.com/alexandria/alexandria/internal/config"
	"github.com/alexandria/alexandria/internal/database"
	"github.com/alexandria/alexandria/internal/models"
	"github.com/alexandria/alexandria/internal/ocr"
	"github.com/alexandria/alexandria/pkg/compositor"
)

const (
	tickResolution   = time.Second
	cleanupHourOfDay = 3
	thumbnailWidth   = 200
	thumbnailHeight  = 150
)

// Capturer produces screenshot files and reports the lock-screen state.
type Capturer interface {
	// Capture writes a screenshot into outputDir and returns its path
	Capture(outputDir string) (string, error)

	// IsScreenLocked reports whether a lock screen is active
	IsScreenLocked() bool
}

// WindowProvider queries the desktop compositor for window metadata.
type WindowProvider interface {
	// ActiveWindow returns the focused window, all-empty on failure
	ActiveWindow() (compositor.WindowInfo, error)

	// Kind returns the detected compositor kind
	Kind() compositor.Kind
}

// Recognizer extracts text from a screenshot image.
type Recognizer interface {
	Process(imagePath string) (ocr.Result, error)
}

// Service sequences the capture pipeline: screenshot, image analysis,
// window info, OCR, classification, persistence, retention. Each cycle
// is best-effort; a failing stage degrades the record instead of
// aborting the cycle, and the unit of atomicity is one full record or
// none.
type Service struct {
	cfg      *config.Config
	repo     *database.Repository
	backend  Capturer
	provider WindowProvider
	engine   Recognizer // nil when OCR is disabled or unavailable
	tagger   *classifier.Tagger

	lastCapture    time.Time
	lastCleanupDay string // YYYY-MM-DD of the last daily cleanup
}

// NewService wires the pipeline components together. The OCR engine
// may be nil; every other component is required.
func NewService(cfg *config.Config, repo *database.Repository, backend Capturer,
	provider WindowProvider, engine Recognizer) *Service {
	return &Service{
		cfg:      cfg,
		repo:     repo,
		backend:  backend,
		provider: provider,
		engine:   engine,
		tagger:   classifier.NewTagger(),
	}
}

// Run executes the capture loop until the context is cancelled. One
// timer ticks at fixed resolution and runs due jobs synchronously, one
// at a time; there are never overlapping capture cycles.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.Screenshot.IntervalMinutes) * time.Minute
	log.Printf("Starting capture loop with %v interval", interval)

	// Initial capture before entering the schedule.
	s.CaptureOnce()
	s.lastCapture = time.Now()

	ticker := time.NewTicker(tickResolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Capture loop stopped")
			return ctx.Err()

		case now := <-ticker.C:
			if now.Sub(s.lastCapture) >= interval {
				s.lastCapture = now
				s.CaptureOnce()
			}
			if s.cleanupDue(now) {
				s.lastCleanupDay = now.Format("2006-01-02")
				s.runCleanup()
			}
		}
	}
}

// cleanupDue reports whether the fixed daily cleanup job should run:
// once per calendar day, at or after the cleanup hour.
func (s *Service) cleanupDue(now time.Time) bool {
	if now.Hour() < cleanupHourOfDay {
		return false
	}
	return s.lastCleanupDay != now.Format("2006-01-02")
}

// CaptureOnce runs exactly one capture cycle. All failures are logged
// and bounded to the cycle; it never panics into the caller.
func (s *Service) CaptureOnce() {
	if s.backend.IsScreenLocked() {
		log.Println("Screen is locked, skipping capture")
		return
	}

	screenshotPath, err := s.backend.Capture(s.cfg.ScreenshotsDir())
	if err != nil {
		log.Printf("Screenshot capture failed: %v", err)
		return
	}

	memory := &models.Memory{
		Timestamp:      time.Now().UTC(),
		ScreenshotPath: screenshotPath,
	}

	if metadata, err := analyzer.ReadMetadata(screenshotPath); err != nil {
		log.Printf("Image metadata read failed for %s: %v", screenshotPath, err)
	} else {
		memory.ImageWidth = metadata.Width
		memory.ImageHeight = metadata.Height
		memory.FileSize = metadata.FileSize
	}

	if analysis, err := analyzer.AnalyzeContent(screenshotPath); err != nil {
		log.Printf("Image content analysis failed for %s: %v", screenshotPath, err)
	} else if len(analysis.DominantColors) > 0 {
		memory.SetDominantColorsList(analysis.DominantColors)
	}

	windowInfo, err := s.provider.ActiveWindow()
	if err != nil {
		log.Printf("Window info unavailable: %v", err)
	}
	memory.WindowTitle = windowInfo.Title
	memory.ApplicationName = windowInfo.AppID
	memory.WindowClass = windowInfo.WindowClass

	thumbnailPath := s.thumbnailPathFor(screenshotPath)
	if err := analyzer.Thumbnail(screenshotPath, thumbnailPath, thumbnailWidth, thumbnailHeight); err != nil {
		log.Printf("Thumbnail creation failed for %s: %v", screenshotPath, err)
	} else {
		memory.ThumbnailPath = thumbnailPath
	}

	if s.engine != nil {
		result, err := s.engine.Process(screenshotPath)
		if err != nil {
			log.Printf("OCR failed for %s: %v", screenshotPath, err)
		}
		memory.OCRText = result.Text
		memory.OCRConfidence = result.Confidence
		memory.HasText = result.HasText
		memory.IsSensitive = result.HasSensitive
		memory.OCRData = encodeOCRData(result)

		tags := s.tagger.GenerateTags(result.Text, windowInfo, classifier.DefaultMaxTags)
		memory.SetTagsList(tags)
		log.Printf("Generated %d tags: %s", len(tags), strings.Join(tags, ", "))
	}

	// Privacy flag is computed last from the combined signals.
	memory.IsPrivate = memory.IsSensitive
	if s.cfg.Privacy.ExcludePrivateWindows &&
		classifier.ShouldMarkPrivate(windowInfo, s.cfg.Screenshot.ExcludeWindows) {
		memory.IsPrivate = true
	}

	saved, err := s.repo.Add(memory)
	if err != nil {
		log.Printf("Failed to save memory for %s: %v", screenshotPath, err)
		return
	}
	log.Printf("Screenshot processed and saved: %d", saved.ID)

	if s.cfg.Storage.AutoCleanup {
		s.runCleanup()
	}
}

func (s *Service) thumbnailPathFor(screenshotPath string) string {
	base := strings.TrimSuffix(filepath.Base(screenshotPath), filepath.Ext(screenshotPath))
	name := strings.Replace(base, "screenshot_", "thumb_", 1)
	return filepath.Join(s.cfg.ThumbnailsDir(), name+".png")
}

func (s *Service) runCleanup() {
	days := s.cfg.Storage.RetentionDays
	if days <= 0 {
		return
	}
	count, err := s.repo.CleanupOlderThan(days)
	if err != nil {
		log.Printf("Retention cleanup failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Cleaned up %d old memories", count)
	}
}

func encodeOCRData(result ocr.Result) string {
	if result.Structured.TotalWords == 0 {
		return ""
	}
	data, err := json.Marshal(result.Structured)
	if err != nil {
		log.Printf("Failed to encode OCR data: %v", err)
		return ""
	}
	return string(data)
}

// Status is a point-in-time snapshot of the daemon.
type Status struct {
	Running           bool               `json:"running"`
	ConfigFile        string             `json:"config_file"`
	DatabasePath      string             `json:"database_path"`
	ScreenshotsDir    string             `json:"screenshots_dir"`
	ScreenshotBackend string             `json:"screenshot_backend"`
	Compositor        string             `json:"compositor"`
	OCREnabled        bool               `json:"ocr_enabled"`
	IntervalMinutes   int                `json:"interval_minutes"`
	Statistics        *models.Statistics `json:"statistics,omitempty"`
}

// Status reports the daemon configuration and store statistics.
func (s *Service) Status(running bool) Status {
	status := Status{
		Running:           running,
		ConfigFile:        s.cfg.ConfigFile(),
		DatabasePath:      s.cfg.Storage.DatabasePath,
		ScreenshotsDir:    s.cfg.ScreenshotsDir(),
		ScreenshotBackend: s.cfg.Wayland.ScreenshotBackend,
		Compositor:        string(s.provider.Kind()),
		OCREnabled:        s.engine != nil,
		IntervalMinutes:   s.cfg.Screenshot.IntervalMinutes,
	}

	stats, err := s.repo.Statistics()
	if err != nil {
		log.Printf("Failed to read statistics: %v", err)
	} else {
		status.Statistics = stats
	}
	return status
}
