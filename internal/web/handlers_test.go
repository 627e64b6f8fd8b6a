package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/reviewsense/internal/config"
	"github.com/JonMunkholm/reviewsense/internal/core"
	"github.com/JonMunkholm/reviewsense/internal/history"
)

// keywordClassifier labels texts by keyword; "explode" fails the call.
var keywordClassifier = core.ClassifierFunc(func(ctx context.Context, text string) (core.Prediction, error) {
	switch {
	case strings.Contains(text, "explode"):
		return core.Prediction{}, errors.New("backend unavailable")
	case strings.Contains(text, "great"), strings.Contains(text, "love"):
		return core.Prediction{Label: core.LabelPositive, Confidence: 0.9}, nil
	case strings.Contains(text, "awful"), strings.Contains(text, "hate"):
		return core.Prediction{Label: core.LabelNegative, Confidence: 0.8}, nil
	default:
		return core.Prediction{Label: core.LabelNeutral, Confidence: 0.75}, nil
	}
})

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, RequestTimeout: 10 * time.Second},
		Rate:   config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{
			EnableCSP: true,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, svcCfg core.ServiceConfig) (*Server, *core.Service) {
	t.Helper()

	store, err := history.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := core.NewService(keywordClassifier, store, svcCfg)
	srv, err := NewServer(svc, cfg)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, svc
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func postJSON(srv *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(srv, req)
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload-file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), core.ServiceConfig{})

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody[HealthResponse](t, rec)
	if body.Status != "healthy" || !body.ModelLoaded || !body.HistoryEnabled {
		t.Errorf("health = %+v", body)
	}
	if body.Analyses.MaxConcurrent != core.DefaultMaxConcurrentAnalyses {
		t.Errorf("limiter max = %d, want %d", body.Analyses.MaxConcurrent, core.DefaultMaxConcurrentAnalyses)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

// failedModel is a core.Model whose load failed.
type failedModel struct{ core.ClassifierFunc }

func (failedModel) State() core.ModelState { return core.ModelFailed }

func (failedModel) Info() core.ModelInfo {
	return core.ModelInfo{Name: "broken", State: core.ModelFailed.String(), LoadError: "load model broken: weights missing"}
}

func TestHandleHealth_FailedModel(t *testing.T) {
	svc := core.NewService(failedModel{keywordClassifier}, nil, core.ServiceConfig{})
	srv, err := NewServer(svc, testConfig())
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody[HealthResponse](t, rec)
	if body.Status != "degraded" || body.ModelLoaded {
		t.Errorf("health = %+v, want degraded", body)
	}
	if !strings.Contains(body.ModelError, "weights missing") {
		t.Errorf("model_error = %q, want the load error", body.ModelError)
	}

	rec = postJSON(srv, "/api/classify", `{"text":"great"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("classify status = %d, want 503", rec.Code)
	}
}

func TestHandleModelInfo(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), core.ServiceConfig{})

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/model-info", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	info := decodeBody[core.ModelInfo](t, rec)
	if !info.Loaded || info.MaxTextLength != 512 {
		t.Errorf("model info = %+v", info)
	}
}

func TestHandleClassify(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), core.ServiceConfig{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLabel  core.SentimentLabel
		wantCode   string
	}{
		{"positive", `{"text": "I love it"}`, http.StatusOK, core.LabelPositive, ""},
		{"degraded", `{"text": "explode"}`, http.StatusOK, core.LabelNeutral, ""},
		{"blank", `{"text": "   "}`, http.StatusBadRequest, "", "VAL001"},
		{"too long", `{"text": "` + strings.Repeat("a", 513) + `"}`, http.StatusBadRequest, "", "VAL001"},
		{"missing field", `{}`, http.StatusBadRequest, "", "VAL002"},
		{"wrong type", `{"text": 5}`, http.StatusBadRequest, "", "VAL002"},
		{"unknown field", `{"text": "ok", "lang": "en"}`, http.StatusBadRequest, "", "VAL002"},
		{"malformed", `{"text": `, http.StatusBadRequest, "", "VAL002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(srv, "/api/classify", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if got := decodeBody[ErrorResponse](t, rec); got.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
				}
				return
			}
			got := decodeBody[core.ClassificationResult](t, rec)
			if got.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", got.Label, tt.wantLabel)
			}
		})
	}
}

func TestHandleClassifyBatch(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), core.ServiceConfig{})

	rec := postJSON(srv, "/api/classify-batch", `{"texts": ["great", "awful", "fine", "explode"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	got := decodeBody[core.BatchResult](t, rec)

	wantLabels := []core.SentimentLabel{core.LabelPositive, core.LabelNegative, core.LabelNeutral, core.LabelNeutral}
	if len(got.Results) != len(wantLabels) {
		t.Fatalf("len(results) = %d, want %d", len(got.Results), len(wantLabels))
	}
	for i, want := range wantLabels {
		if got.Results[i].Label != want {
			t.Errorf("results[%d].Label = %q, want %q", i, got.Results[i].Label, want)
		}
	}
	if got.Total != 4 || got.PositiveCount != 1 || got.NegativeCount != 1 || got.NeutralCount != 2 || got.DegradedCount != 1 {
		t.Errorf("counts = %+v", got)
	}

	tooMany := make([]string, 101)
	for i := range tooMany {
		tooMany[i] = "ok"
	}
	payload, _ := json.Marshal(BatchRequest{Texts: tooMany})
	if rec := postJSON(srv, "/api/classify-batch", string(payload)); rec.Code != http.StatusBadRequest {
		t.Errorf("101 texts status = %d, want 400", rec.Code)
	}
	if rec := postJSON(srv, "/api/classify-batch", `{"texts": []}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", rec.Code)
	}
}

func TestHandleUploadFile(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), core.ServiceConfig{})

	csvData := []byte("id,review,stars\n1,great product,5\n2,awful service,1\n3,,3\n4,it was fine,3\n")
	rec := do(srv, uploadRequest(t, "reviews.csv", csvData))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	got := decodeBody[core.FileBatchResult](t, rec)
	if got.Filename != "reviews.csv" || got.Format != core.FormatCSV || got.Column != "review" {
		t.Errorf("file result = %+v", got)
	}
	if got.TotalProcessed != 3 || got.PositiveCount != 1 || got.NegativeCount != 1 || got.NeutralCount != 1 {
		t.Errorf("counts = %+v", got.BatchResult)
	}
	if got.AnalysisID == "" {
		t.Error("missing analysis_id")
	}
	if got.Stats.TotalTexts != 3 {
		t.Errorf("stats.total_texts = %d, want 3", got.Stats.TotalTexts)
	}
}

func TestHandleUploadFile_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unsupported extension",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "scan.pdf", []byte("%PDF")) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE006",
		},
		{
			name:       "oversize",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "big.txt", bytes.Repeat([]byte("x\n"), 40)) },
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "FILE001",
		},
		{
			name:       "malformed json",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "r.json", []byte("[1,")) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE002",
		},
		{
			name:       "invalid encoding",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "r.txt", []byte("ok\n\xff\n")) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE003",
		},
		{
			name:       "no texts",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "r.txt", []byte("\n  \n")) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE005",
		},
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/upload-file", strings.NewReader("x"))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, svc := newTestServer(t, testConfig(), core.ServiceConfig{MaxDocumentSize: 64})

			rec := do(srv, tt.req(t))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decodeBody[ErrorResponse](t, rec); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}

			if tt.wantCode == "FILE004" {
				return
			}
			recs, err := svc.ListAnalyses(context.Background(), 1)
			if err != nil || len(recs) != 1 {
				t.Fatalf("ListAnalyses() = (%d records, %v), want 1 record", len(recs), err)
			}
			if recs[0].Status != core.StatusFailed || recs[0].ErrorCode != tt.wantCode {
				t.Errorf("recorded status %q code %q, want failed %s", recs[0].Status, recs[0].ErrorCode, tt.wantCode)
			}
		})
	}
}

func TestAnalysesEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), core.ServiceConfig{})

	rec := do(srv, uploadRequest(t, "reviews.txt", []byte("great\nawful\n")))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d", rec.Code)
	}
	uploaded := decodeBody[core.FileBatchResult](t, rec)

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/analyses?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decodeBody[AnalysesResponse](t, rec)
	if list.Count != 1 || list.Analyses[0].ID != uploaded.AnalysisID {
		t.Fatalf("list = %+v, want the uploaded analysis", list)
	}
	if len(list.Analyses[0].Results) != 0 {
		t.Error("list should omit per-text results")
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/analyses/"+uploaded.AnalysisID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	got := decodeBody[core.AnalysisRecord](t, rec)
	if len(got.Results) != 2 || got.Filename != "reviews.txt" {
		t.Errorf("get = %+v", got)
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/analyses/"+uploaded.AnalysisID+"/export", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil || len(rows) != 3 {
		t.Errorf("export rows = %d, err %v, want 3", len(rows), err)
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/analyses/"+uploaded.AnalysisID+"/export?format=xlsx", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Type"), "spreadsheetml") {
		t.Errorf("xlsx export status = %d, type %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/analyses/"+uploaded.AnalysisID+"/export?format=pdf", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("pdf export status = %d, want 400", rec.Code)
	}

	rec = do(srv, httptest.NewRequest(http.MethodGet, "/api/analyses/00000000-0000-4000-8000-000000000000", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec); got.Code != "HIST001" {
		t.Errorf("unknown id code = %q, want HIST001", got.Code)
	}
}

func TestHandleIndex(t *testing.T) {
	srv, _ := newTestServer(t, testConfig(), core.ServiceConfig{})

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "upload-form") {
		t.Error("index page missing upload form")
	}
	if csp := rec.Header().Get("Content-Security-Policy"); csp == "" {
		t.Error("missing Content-Security-Policy")
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	srv, _ := newTestServer(t, cfg, core.ServiceConfig{})

	if rec := do(srv, httptest.NewRequest(http.MethodGet, "/api/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("health without key status = %d, want 200", rec.Code)
	}
	if rec := postJSON(srv, "/api/classify", `{"text": "great"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("classify without key status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(`{"text": "great"}`))
	req.Header.Set("X-API-Key", "secret")
	if rec := do(srv, req); rec.Code != http.StatusOK {
		t.Errorf("classify with key status = %d, want 200", rec.Code)
	}
}

func TestUploadRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 1}
	srv, _ := newTestServer(t, cfg, core.ServiceConfig{})

	if rec := do(srv, uploadRequest(t, "a.txt", []byte("great\n"))); rec.Code != http.StatusOK {
		t.Fatalf("first upload status = %d, want 200", rec.Code)
	}
	rec := do(srv, uploadRequest(t, "a.txt", []byte("great\n")))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload status = %d, want 429", rec.Code)
	}
	if got := decodeBody[ErrorResponse](t, rec); got.Code != "RATE001" {
		t.Errorf("code = %q, want RATE001", got.Code)
	}

	if rec := postJSON(srv, "/api/classify", `{"text": "great"}`); rec.Code != http.StatusOK {
		t.Errorf("classify after upload limit status = %d, want 200", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrOversizeDocument, http.StatusRequestEntityTooLarge},
		{core.ErrUnsupportedFormat, http.StatusBadRequest},
		{core.ErrParse, http.StatusBadRequest},
		{core.ErrEmptyExtraction, http.StatusBadRequest},
		{core.ErrInvalidBatch, http.StatusBadRequest},
		{errInvalidBody, http.StatusBadRequest},
		{core.ErrAnalysisNotFound, http.StatusNotFound},
		{core.ErrTooManyAnalyses, http.StatusServiceUnavailable},
		{core.ErrModelNotReady, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
