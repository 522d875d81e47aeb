package compositor

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// swayNode is one node of the sway scene tree as returned by
// `swaymsg -t get_tree`.
type swayNode struct {
	Name          string     `json:"name"`
	AppID         string     `json:"app_id"`
	WindowClass   string     `json:"window_class"`
	PID           int        `json:"pid"`
	Focused       bool       `json:"focused"`
	Rect          swayRect   `json:"rect"`
	Nodes         []swayNode `json:"nodes"`
	FloatingNodes []swayNode `json:"floating_nodes"`
}

type swayRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type swayWorkspace struct {
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
}

func swayActiveWindow(p *Provider) (WindowInfo, error) {
	output, err := runQuery("swaymsg", "-t", "get_tree")
	if err != nil {
		return WindowInfo{}, err
	}

	var tree swayNode
	if err := json.Unmarshal(output, &tree); err != nil {
		return WindowInfo{}, fmt.Errorf("failed to parse sway tree: %w", err)
	}

	focused := findFocusedNode(&tree)
	if focused == nil {
		return WindowInfo{}, fmt.Errorf("no focused window in sway tree")
	}

	return WindowInfo{
		Title:       focused.Name,
		AppID:       focused.AppID,
		WindowClass: focused.WindowClass,
		PID:         strconv.Itoa(focused.PID),
		Workspace:   swayFocusedWorkspace(),
		Geometry:    formatGeometry(focused.Rect.Width, focused.Rect.Height, focused.Rect.X, focused.Rect.Y),
	}, nil
}

// findFocusedNode walks the tree depth-first, checking both tiled and
// floating children.
func findFocusedNode(node *swayNode) *swayNode {
	if node.Focused {
		return node
	}
	for i := range node.Nodes {
		if found := findFocusedNode(&node.Nodes[i]); found != nil {
			return found
		}
	}
	for i := range node.FloatingNodes {
		if found := findFocusedNode(&node.FloatingNodes[i]); found != nil {
			return found
		}
	}
	return nil
}

func swayFocusedWorkspace() string {
	output, err := runQuery("swaymsg", "-t", "get_workspaces")
	if err != nil {
		return ""
	}

	var workspaces []swayWorkspace
	if err := json.Unmarshal(output, &workspaces); err != nil {
		return ""
	}
	for _, ws := range workspaces {
		if ws.Focused {
			return ws.Name
		}
	}
	return ""
}

func swayListWindows(p *Provider) ([]WindowInfo, error) {
	output, err := runQuery("swaymsg", "-t", "get_tree")
	if err != nil {
		return nil, err
	}

	var tree swayNode
	if err := json.Unmarshal(output, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse sway tree: %w", err)
	}

	var windows []WindowInfo
	collectSwayWindows(&tree, &windows)
	return windows, nil
}

func collectSwayWindows(node *swayNode, windows *[]WindowInfo) {
	if node.AppID != "" || node.WindowClass != "" {
		*windows = append(*windows, WindowInfo{
			Title:       node.Name,
			AppID:       node.AppID,
			WindowClass: node.WindowClass,
			PID:         strconv.Itoa(node.PID),
			Geometry:    formatGeometry(node.Rect.Width, node.Rect.Height, node.Rect.X, node.Rect.Y),
		})
	}
	for i := range node.Nodes {
		collectSwayWindows(&node.Nodes[i], windows)
	}
	for i := range node.FloatingNodes {
		collectSwayWindows(&node.FloatingNodes[i], windows)
	}
}
