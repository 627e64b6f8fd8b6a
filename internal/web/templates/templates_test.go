package templates

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return b.String()
}

func TestErrorAlert_Escapes(t *testing.T) {
	html := render(t, ErrorAlert("<b>bad</b>", "retry & wait", "FILE001"))

	if strings.Contains(html, "<b>bad</b>") {
		t.Errorf("message not escaped: %s", html)
	}
	for _, want := range []string{"&lt;b&gt;bad&lt;/b&gt;", "retry &amp; wait", "FILE001"} {
		if !strings.Contains(html, want) {
			t.Errorf("ErrorAlert() missing %q in %s", want, html)
		}
	}
}

func TestAnalysesTable(t *testing.T) {
	if html := render(t, AnalysesTable(nil)); !strings.Contains(html, "No analyses yet") {
		t.Errorf("empty table = %s", html)
	}

	analyses := []core.AnalysisRecord{
		{ID: "a1", Source: core.SourceFile, Filename: "<script>.csv", Total: 3, Status: core.StatusCompleted, CreatedAt: time.Now()},
		{ID: "a2", Source: core.SourceFile, Filename: "x.pdf", Status: core.StatusFailed, ErrorCode: "FILE006", CreatedAt: time.Now()},
	}
	html := render(t, AnalysesTable(analyses))

	if strings.Contains(html, "<script>.csv") {
		t.Errorf("filename not escaped: %s", html)
	}
	if !strings.Contains(html, "/api/analyses/a1/export?format=xlsx") {
		t.Errorf("missing export link for completed analysis: %s", html)
	}
	if strings.Contains(html, "/api/analyses/a2/export") {
		t.Errorf("failed analysis should not offer export: %s", html)
	}
	if !strings.Contains(html, "failed (FILE006)") {
		t.Errorf("missing failure code: %s", html)
	}
}

func TestIndex(t *testing.T) {
	data := IndexData{
		Model:           core.ModelInfo{Name: "demo-model", State: "loading"},
		MaxDocumentSize: 10 * 1024 * 1024,
		MaxBatchItems:   100,
		HistoryEnabled:  true,
	}
	html := render(t, Index(data))

	for _, want := range []string{"demo-model", "10 MB", "up to 100", "MDL001", "Recent analyses", "upload-form"} {
		if !strings.Contains(html, want) {
			t.Errorf("Index() missing %q", want)
		}
	}

	data.HistoryEnabled = false
	data.Model.Loaded = true
	html = render(t, Index(data))
	if strings.Contains(html, "Recent analyses") {
		t.Error("Index() shows history while disabled")
	}
	if strings.Contains(html, "MDL001") {
		t.Error("Index() shows not-ready alert for a loaded model")
	}
}

func TestIndex_APIKeyField(t *testing.T) {
	data := IndexData{Model: core.ModelInfo{Loaded: true}, MaxBatchItems: 100}

	if html := render(t, Index(data)); strings.Contains(html, `id="api-key"`) {
		t.Error("Index() renders the API key field while keys are not required")
	}

	data.RequireAPIKey = true
	html := render(t, Index(data))
	if !strings.Contains(html, `id="api-key"`) {
		t.Error("Index() missing the API key field")
	}
	if !strings.Contains(html, "headers['X-API-Key']") {
		t.Error("page script does not send X-API-Key")
	}
}

func TestIndex_ModelLoadError(t *testing.T) {
	data := IndexData{Model: core.ModelInfo{Name: "m", State: "failed", LoadError: "load model m: <timeout>"}}
	html := render(t, Index(data))

	if !strings.Contains(html, "Loading failed: load model m: &lt;timeout&gt;") {
		t.Errorf("Index() missing escaped load error:\n%s", html)
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{10 * 1024 * 1024, "10 MB"},
		{1536, "1.5 KB"},
		{512, "512 bytes"},
	}
	for _, tt := range tests {
		if got := humanSize(tt.n); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
