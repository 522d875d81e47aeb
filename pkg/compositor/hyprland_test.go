package compositor

import (
	"encoding/json"
	"testing"
)

func TestHyprlandWindowToWindowInfo(t *testing.T) {
	sample := `{
  "address": "0x55d2f1a2b3c0",
  "at": [10, 46],
  "size": [1900, 1024],
  "workspace": {"id": 3, "name": "3"},
  "class": "kitty",
  "title": "~/projects",
  "pid": 4321
}`

	var window hyprlandWindow
	if err := json.Unmarshal([]byte(sample), &window); err != nil {
		t.Fatalf("failed to parse sample: %v", err)
	}

	info := window.toWindowInfo()

	if info.Title != "~/projects" {
		t.Errorf("Title = %q, want %q", info.Title, "~/projects")
	}
	if info.AppID != "kitty" || info.WindowClass != "kitty" {
		t.Errorf("AppID/WindowClass = %q/%q, want kitty for both", info.AppID, info.WindowClass)
	}
	if info.PID != "4321" {
		t.Errorf("PID = %q, want %q", info.PID, "4321")
	}
	if info.Workspace != "3" {
		t.Errorf("Workspace = %q, want %q", info.Workspace, "3")
	}
	if info.Geometry != "1900x1024+10+46" {
		t.Errorf("Geometry = %q, want %q", info.Geometry, "1900x1024+10+46")
	}
}

func TestHyprlandEmptyWindow(t *testing.T) {
	// hyprctl returns an empty object when no window is focused.
	var window hyprlandWindow
	if err := json.Unmarshal([]byte(`{}`), &window); err != nil {
		t.Fatalf("failed to parse empty object: %v", err)
	}

	info := window.toWindowInfo()
	if info.Title != "" || info.AppID != "" || info.Geometry != "" {
		t.Errorf("empty window produced non-empty info: %+v", info)
	}
	if info.PID != "0" {
		t.Errorf("PID = %q, want %q for missing pid", info.PID, "0")
	}
}
