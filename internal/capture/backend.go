package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrBackendUnavailable is returned at construction when the configured
// screenshot tool cannot be verified. It is the only fatal condition in
// this package; capture failures afterwards are logged and skipped.
var ErrBackendUnavailable = errors.New("screenshot backend unavailable")

const (
	probeTimeout   = 5 * time.Second
	captureTimeout = 10 * time.Second
)

// Options configures a capture backend.
type Options struct {
	Backend            string // screenshot tool name, e.g. "grim"
	OutputSelection    string // all, primary, specific
	SpecificOutput     string
	CompressionQuality int // 0-100
}

// Backend invokes an external Wayland screenshot tool.
type Backend struct {
	opts Options
}

// NewBackend verifies the configured screenshot tool is runnable and
// returns a backend bound to it.
func NewBackend(opts Options) (*Backend, error) {
	b := &Backend{opts: opts}
	if !b.isAvailable() {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, opts.Backend)
	}
	return b, nil
}

// isAvailable probes the screenshot tool with its help flag.
func (b *Backend) isAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.opts.Backend, "-h")
	// grim exits 0 on -h; a missing binary or timeout fails the probe.
	return cmd.Run() == nil
}

// Capture takes a screenshot into outputDir and returns the file path.
// On any failure it logs and returns an empty path; the capture cycle
// is expected to skip, not abort.
func (b *Backend) Capture(outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	outputFile := b.nextFilename(outputDir, time.Now())

	cmd, err := b.buildCommand(outputFile)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	var stderr bytes.Buffer
	proc := exec.CommandContext(ctx, cmd[0], cmd[1:]...)
	proc.Stderr = &stderr

	log.Printf("Executing screenshot command: %s", strings.Join(cmd, " "))
	if err := proc.Run(); err != nil {
		return "", fmt.Errorf("screenshot command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	if _, err := os.Stat(outputFile); err != nil {
		return "", fmt.Errorf("screenshot file missing after capture: %w", err)
	}

	return outputFile, nil
}

// nextFilename builds a timestamped filename, appending a monotonic
// suffix when two captures land inside the same clock second.
func (b *Backend) nextFilename(outputDir string, now time.Time) string {
	base := "screenshot_" + now.Format("20060102_150405")
	candidate := filepath.Join(outputDir, base+".png")
	for i := 2; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(outputDir, fmt.Sprintf("%s_%d.png", base, i))
	}
}

// buildCommand constructs the backend-specific command line including
// output-selection and quality flags.
func (b *Backend) buildCommand(outputFile string) ([]string, error) {
	if b.opts.Backend != "grim" {
		return nil, fmt.Errorf("unsupported screenshot backend: %s", b.opts.Backend)
	}

	cmd := []string{"grim"}

	switch b.opts.OutputSelection {
	case "specific":
		if b.opts.SpecificOutput != "" {
			cmd = append(cmd, "-o", b.opts.SpecificOutput)
		}
	case "primary":
		if outputs := b.enabledOutputs(); len(outputs) > 0 {
			cmd = append(cmd, "-o", outputs[0])
		}
	}

	quality := b.opts.CompressionQuality
	lower := strings.ToLower(outputFile)
	switch {
	case strings.HasSuffix(lower, ".png"):
		if quality > 0 && quality < 100 {
			// Map the 0-100 quality setting onto PNG compression
			// levels 0-9 (higher quality -> lower compression).
			level := 9 - quality/11
			if level < 0 {
				level = 0
			}
			if level > 9 {
				level = 9
			}
			cmd = append(cmd, "-l", strconv.Itoa(level))
		}
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		if quality > 0 {
			cmd = append(cmd, "-t", "jpeg", "-q", strconv.Itoa(quality))
		}
	}

	cmd = append(cmd, outputFile)
	return cmd, nil
}

// wlrOutput matches one element of `wlr-randr --json`.
type wlrOutput struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// enabledOutputs lists the enabled Wayland outputs, best-effort.
func (b *Backend) enabledOutputs() []string {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, "wlr-randr", "--json")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		log.Printf("Could not list Wayland outputs: %v", err)
		return nil
	}

	var outputs []wlrOutput
	if err := json.Unmarshal(stdout.Bytes(), &outputs); err != nil {
		log.Printf("Could not parse Wayland outputs: %v", err)
		return nil
	}

	var names []string
	for _, output := range outputs {
		if output.Enabled {
			names = append(names, output.Name)
		}
	}
	return names
}

// lockScreenProcesses are the screen lockers probed by IsScreenLocked.
var lockScreenProcesses = []string{
	"swaylock",
	"waylock",
	"gtklock",
	"hyprlock",
	"gnome-screensaver-dialog",
}

// IsScreenLocked reports whether a known lock-screen process is
// running. Probe errors fail open (false) so a broken probe degrades
// to capturing rather than silently skipping forever.
func (b *Backend) IsScreenLocked() bool {
	for _, process := range lockScreenProcesses {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := exec.CommandContext(ctx, "pgrep", "-x", process).Run()
		cancel()
		if err == nil {
			return true
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, "loginctl", "show-session", "-p", "LockedHint")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err == nil && strings.Contains(stdout.String(), "LockedHint=yes") {
		return true
	}

	return false
}
