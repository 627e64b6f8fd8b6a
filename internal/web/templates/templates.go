// Package templates renders the HTML pages and fragments of the web UI.
// The markup lives in the .templ files; run `templ generate` after editing them.
package templates

import (
	"fmt"
	"net/url"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

// IndexData feeds the index page.
type IndexData struct {
	Model           core.ModelInfo
	Analyses        []core.AnalysisRecord
	MaxDocumentSize int64
	MaxBatchItems   int
	HistoryEnabled  bool
	RequireAPIKey   bool
}

func exportURL(id, format string) templ.SafeURL {
	return templ.SafeURL("/api/analyses/" + url.PathEscape(id) + "/export?format=" + format)
}

func statusText(a core.AnalysisRecord) string {
	if a.ErrorCode != "" {
		return a.Status + " (" + a.ErrorCode + ")"
	}
	return a.Status
}

func modelAlertAction(info core.ModelInfo) string {
	if info.LoadError != "" {
		return "Loading failed: " + info.LoadError
	}
	return "Requests will be accepted once loading finishes"
}

func humanSize(n int64) string {
	const mib = 1024 * 1024
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%d MB", n/mib)
	}
	if n >= 1024 {
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	}
	return fmt.Sprintf("%d bytes", n)
}
