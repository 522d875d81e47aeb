package compositor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// gnomeShellScript asks GNOME Shell for the focused window via its Eval
// interface. The script prints a JSON object so the reply can be parsed
// without scraping Shell object introspection.
const gnomeShellScript = `
	let fw = global.get_window_actors()
		.map(a => a.meta_window)
		.find(w => w && w.has_focus());
	if (!fw) {
		fw = global.display.get_focus_window();
	}
	if (fw) {
		const r = fw.get_frame_rect();
		JSON.stringify({
			wm_class: fw.get_wm_class() || '',
			title: fw.get_title() || '',
			pid: fw.get_pid() || 0,
			workspace: fw.get_workspace() ? String(fw.get_workspace().index() + 1) : '',
			width: r.width, height: r.height, x: r.x, y: r.y
		});
	} else {
		'null';
	}
`

type gnomeWindow struct {
	WMClass   string `json:"wm_class"`
	Title     string `json:"title"`
	PID       int    `json:"pid"`
	Workspace string `json:"workspace"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

func gnomeActiveWindow(p *Provider) (WindowInfo, error) {
	output, err := runQuery("gdbus", "call", "--session",
		"--dest", "org.gnome.Shell",
		"--object-path", "/org/gnome/Shell",
		"--method", "org.gnome.Shell.Eval",
		gnomeShellScript)
	if err != nil {
		return WindowInfo{}, err
	}

	// Reply looks like: (true, '"{\"wm_class\": ...}"')
	result := string(output)
	if !strings.HasPrefix(strings.TrimSpace(result), "(true,") {
		return WindowInfo{}, fmt.Errorf("gnome shell eval rejected (unsafe mode disabled?)")
	}

	start := strings.Index(result, "{")
	end := strings.LastIndex(result, "}")
	if start == -1 || end == -1 || end < start {
		return WindowInfo{}, fmt.Errorf("no focused window in gnome shell reply")
	}

	jsonStr := result[start : end+1]
	jsonStr = strings.ReplaceAll(jsonStr, `\"`, `"`)
	jsonStr = strings.ReplaceAll(jsonStr, `\'`, `'`)

	var window gnomeWindow
	if err := json.Unmarshal([]byte(jsonStr), &window); err != nil {
		return WindowInfo{}, fmt.Errorf("failed to parse gnome shell reply: %w", err)
	}

	return WindowInfo{
		Title:       window.Title,
		AppID:       window.WMClass,
		WindowClass: window.WMClass,
		PID:         strconv.Itoa(window.PID),
		Workspace:   window.Workspace,
		Geometry:    formatGeometry(window.Width, window.Height, window.X, window.Y),
	}, nil
}
