package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alexandria/alexandria/internal/database"
	"github.com/alexandria/alexandria/internal/models"
	"github.com/alexandria/alexandria/pkg/utils"
)

// Report summarizes the memory store for the stats command.
type Report struct {
	Statistics  *models.Statistics `json:"statistics"`
	RecentCount int                `json:"memories_last_24h"`
	DiskBytes   int64              `json:"disk_bytes"`
	GeneratedAt time.Time          `json:"generated_at"`
}

type Reporter struct {
	repo *database.Repository
}

func New(repo *database.Repository) *Reporter {
	return &Reporter{repo: repo}
}

// Generate builds a store report: aggregate statistics, last-day
// activity and the disk footprint of stored screenshots.
func (r *Reporter) Generate() (*Report, error) {
	stats, err := r.repo.Statistics()
	if err != nil {
		return nil, fmt.Errorf("failed to gather statistics: %w", err)
	}

	since := time.Now().UTC().Add(-24 * time.Hour)
	recent, err := r.repo.Query(database.QueryFilters{
		StartTime:      &since,
		ExcludePrivate: false,
		Limit:          10000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query recent memories: %w", err)
	}

	var diskBytes int64
	for _, memory := range recent {
		diskBytes += memory.FileSize
	}

	return &Report{
		Statistics:  stats,
		RecentCount: len(recent),
		DiskBytes:   diskBytes,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// FormatText renders the report for terminal output.
func (r *Reporter) FormatText(report *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Memory store report (%s)\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "  Total memories:     %d\n", report.Statistics.TotalMemories)
	fmt.Fprintf(&b, "  Private memories:   %d\n", report.Statistics.PrivateMemories)
	fmt.Fprintf(&b, "  Memories with text: %d\n", report.Statistics.MemoriesWithText)
	if report.Statistics.OldestMemory != nil {
		fmt.Fprintf(&b, "  Oldest:             %s\n", report.Statistics.OldestMemory.Format(time.RFC3339))
	}
	if report.Statistics.NewestMemory != nil {
		fmt.Fprintf(&b, "  Newest:             %s\n", report.Statistics.NewestMemory.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "  Last 24h:           %d captures (%s)\n", report.RecentCount, utils.FormatByteSize(report.DiskBytes))

	return b.String()
}

// FormatJSON renders the report as indented JSON.
func (r *Reporter) FormatJSON(report *Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(data), nil
}
