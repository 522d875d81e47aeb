package compositor

import (
	"fmt"
	"strings"
)

// kdeActiveWindow queries KWin over D-Bus: first for the active window
// id, then for its caption and resource class.
func kdeActiveWindow(p *Provider) (WindowInfo, error) {
	output, err := runQuery("qdbus", "org.kde.KWin", "/KWin", "org.kde.KWin.activeWindow")
	if err != nil {
		return WindowInfo{}, err
	}

	windowID := strings.TrimSpace(string(output))
	if windowID == "" {
		return WindowInfo{}, fmt.Errorf("kwin reported no active window")
	}

	info := WindowInfo{}

	windowPath := "/KWin/Window_" + windowID
	if caption, err := runQuery("qdbus", "org.kde.KWin", windowPath, "org.kde.KWin.Window.caption"); err == nil {
		info.Title = strings.TrimSpace(string(caption))
	}
	if class, err := runQuery("qdbus", "org.kde.KWin", windowPath, "org.kde.KWin.Window.resourceClass"); err == nil {
		cls := strings.TrimSpace(string(class))
		info.AppID = cls
		info.WindowClass = cls
	}

	if info.Empty() {
		return WindowInfo{}, fmt.Errorf("kwin window %s has no readable properties", windowID)
	}
	return info, nil
}
