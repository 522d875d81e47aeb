package compositor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// WindowInfo describes the focused (or any) window as reported by the
// compositor. All fields are best-effort strings; a missing value is an
// empty string, never an error.
type WindowInfo struct {
	Title       string
	AppID       string
	WindowClass string
	PID         string
	Workspace   string
	Geometry    string // "WxH+X+Y"
}

// Empty reports whether no field of the window info is populated.
func (w WindowInfo) Empty() bool {
	return w.Title == "" && w.AppID == "" && w.WindowClass == "" &&
		w.PID == "" && w.Workspace == "" && w.Geometry == ""
}

// Kind identifies the detected desktop compositor.
type Kind string

const (
	KindGeneric  Kind = "generic"
	KindSway     Kind = "sway"
	KindHyprland Kind = "hyprland"
	KindGnome    Kind = "gnome"
	KindKDE      Kind = "kde"
)

const queryTimeout = 5 * time.Second

// queries holds the per-compositor implementations. The compositor set
// is closed, so dispatch is a fixed function table rather than an
// interface hierarchy.
type queries struct {
	activeWindow func(p *Provider) (WindowInfo, error)
	listWindows  func(p *Provider) ([]WindowInfo, error)
}

var queryTable = map[Kind]queries{
	KindSway:     {activeWindow: swayActiveWindow, listWindows: swayListWindows},
	KindHyprland: {activeWindow: hyprlandActiveWindow, listWindows: hyprlandListWindows},
	KindGnome:    {activeWindow: gnomeActiveWindow},
	KindKDE:      {activeWindow: kdeActiveWindow},
	KindGeneric:  {activeWindow: x11ActiveWindow},
}

// Provider answers active-window queries for the compositor detected at
// construction time.
type Provider struct {
	kind Kind
}

// New detects the running compositor once and returns a provider bound
// to it.
func New() *Provider {
	return &Provider{kind: Detect()}
}

// NewForKind returns a provider bound to a specific compositor kind.
func NewForKind(kind Kind) *Provider {
	if _, ok := queryTable[kind]; !ok {
		kind = KindGeneric
	}
	return &Provider{kind: kind}
}

// Kind returns the compositor kind this provider is bound to.
func (p *Provider) Kind() Kind {
	return p.kind
}

// ActiveWindow returns info about the currently focused window. It
// never fails: any subprocess error, timeout or malformed response
// yields an all-empty WindowInfo, with the underlying reason in the
// returned error for diagnostics.
func (p *Provider) ActiveWindow() (WindowInfo, error) {
	info, err := queryTable[p.kind].activeWindow(p)
	if err != nil {
		return WindowInfo{}, err
	}
	return info, nil
}

// ListWindows returns all windows for compositors exposing a tree/list
// query. Compositors without such a query return an empty slice, not an
// error.
func (p *Provider) ListWindows() ([]WindowInfo, error) {
	q := queryTable[p.kind]
	if q.listWindows == nil {
		return []WindowInfo{}, nil
	}
	windows, err := q.listWindows(p)
	if err != nil {
		return []WindowInfo{}, err
	}
	return windows, nil
}

// Detect identifies the running compositor, in priority order: explicit
// session env vars, then desktop-session name, then running-process
// probes. Falls back to the generic X11 path.
func Detect() Kind {
	if os.Getenv("SWAYSOCK") != "" {
		return KindSway
	}
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return KindHyprland
	}

	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	switch {
	case strings.Contains(desktop, "gnome") || strings.Contains(desktop, "ubuntu"):
		return KindGnome
	case strings.Contains(desktop, "kde") || strings.Contains(desktop, "plasma"):
		return KindKDE
	}

	processes := []struct {
		name string
		kind Kind
	}{
		{"sway", KindSway},
		{"Hyprland", KindHyprland},
		{"gnome-shell", KindGnome},
		{"kwin_wayland", KindKDE},
	}
	for _, p := range processes {
		if processRunning(p.name) {
			return p.kind
		}
	}

	return KindGeneric
}

func processRunning(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "pgrep", "-x", name).Run() == nil
}

// runQuery executes a short-lived compositor query and returns its
// stdout.
func runQuery(name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s query failed: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// formatGeometry renders a geometry string in "WxH+X+Y" form.
func formatGeometry(width, height, x, y int) string {
	if width == 0 && height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d+%d+%d", width, height, x, y)
}
