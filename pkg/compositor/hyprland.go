package compositor

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// hyprlandWindow matches the JSON shape of `hyprctl activewindow -j`
// and the elements of `hyprctl clients -j`.
type hyprlandWindow struct {
	Title     string `json:"title"`
	Class     string `json:"class"`
	PID       int    `json:"pid"`
	Size      [2]int `json:"size"`
	At        [2]int `json:"at"`
	Workspace struct {
		Name string `json:"name"`
	} `json:"workspace"`
}

func (w hyprlandWindow) toWindowInfo() WindowInfo {
	return WindowInfo{
		Title:       w.Title,
		AppID:       w.Class,
		WindowClass: w.Class,
		PID:         strconv.Itoa(w.PID),
		Workspace:   w.Workspace.Name,
		Geometry:    formatGeometry(w.Size[0], w.Size[1], w.At[0], w.At[1]),
	}
}

func hyprlandActiveWindow(p *Provider) (WindowInfo, error) {
	output, err := runQuery("hyprctl", "activewindow", "-j")
	if err != nil {
		return WindowInfo{}, err
	}

	var window hyprlandWindow
	if err := json.Unmarshal(output, &window); err != nil {
		return WindowInfo{}, fmt.Errorf("failed to parse hyprctl output: %w", err)
	}
	return window.toWindowInfo(), nil
}

func hyprlandListWindows(p *Provider) ([]WindowInfo, error) {
	output, err := runQuery("hyprctl", "clients", "-j")
	if err != nil {
		return nil, err
	}

	var clients []hyprlandWindow
	if err := json.Unmarshal(output, &clients); err != nil {
		return nil, fmt.Errorf("failed to parse hyprctl clients: %w", err)
	}

	windows := make([]WindowInfo, 0, len(clients))
	for _, client := range clients {
		windows = append(windows, client.toWindowInfo())
	}
	return windows, nil
}
