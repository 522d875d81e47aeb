package classifier

import (
	"strings"

	"github.com/alexandria/alexandria/pkg/compositor"
)

// privateApps are application identifiers always treated as private:
// browsers, password managers, messaging and mail clients.
var privateApps = []string{
	"firefox",
	"chrome",
	"chromium",
	"brave",
	"edge",
	"keepass",
	"bitwarden",
	"1password",
	"telegram",
	"signal",
	"discord",
	"slack",
	"evolution",
	"thunderbird",
}

// ShouldMarkPrivate reports whether a capture of the given window must
// be flagged private, either because a configured exclusion pattern
// matches its identifiers or because the application belongs to the
// built-in private set.
func ShouldMarkPrivate(info compositor.WindowInfo, excludePatterns []string) bool {
	appID := strings.ToLower(info.AppID)
	windowClass := strings.ToLower(info.WindowClass)
	title := strings.ToLower(info.Title)

	for _, pattern := range excludePatterns {
		pattern = strings.ToLower(pattern)
		if pattern == "" {
			continue
		}
		if strings.Contains(appID, pattern) ||
			strings.Contains(windowClass, pattern) ||
			strings.Contains(title, pattern) {
			return true
		}
	}

	for _, app := range privateApps {
		if strings.Contains(appID, app) || strings.Contains(windowClass, app) {
			return true
		}
	}

	return false
}
