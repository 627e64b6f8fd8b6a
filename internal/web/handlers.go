package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/reviewsense/internal/core"
	"github.com/JonMunkholm/reviewsense/internal/export"
	"github.com/JonMunkholm/reviewsense/internal/logging"
	"github.com/JonMunkholm/reviewsense/internal/web/templates"
)

// multipartOverhead allows for form boundaries and headers around the file.
const multipartOverhead = 1 << 20

// recentAnalyses is how many analyses the index page lists.
const recentAnalyses = 10

// handleIndex renders the upload page with recent analyses.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.service.ListAnalyses(r.Context(), recentAnalyses)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load recent analyses", "error", err)
		analyses = nil
	}

	cfg := s.service.Config()
	data := templates.IndexData{
		Model:           s.service.ModelInfo(),
		Analyses:        analyses,
		MaxDocumentSize: cfg.MaxDocumentSize,
		MaxBatchItems:   cfg.MaxBatchItems,
		HistoryEnabled:  s.service.HistoryEnabled(),
		RequireAPIKey:   s.cfg.Security.RequireAPIKey,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status         string             `json:"status"`
	ModelLoaded    bool               `json:"model_loaded"`
	ModelState     string             `json:"model_state"`
	ModelError     string             `json:"model_error,omitempty"`
	HistoryEnabled bool               `json:"history_enabled"`
	Analyses       core.LimiterStatus `json:"analyses"`
}

// handleHealth always answers 200; status is "degraded" until the model is ready.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := s.service.ModelInfo()
	status := "healthy"
	if !info.Loaded {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         status,
		ModelLoaded:    info.Loaded,
		ModelState:     info.State,
		ModelError:     info.LoadError,
		HistoryEnabled: s.service.HistoryEnabled(),
		Analyses:       s.service.LimiterStatus(),
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ModelInfo())
}

func (s *Server) handleLimiterStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleClassify classifies one text.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := decodeJSON(w, r, s.schemas.classify, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := withRequestMetadata(r.Context(), r)
	result, err := s.service.ClassifyText(ctx, req.Text)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleClassifyBatch classifies 1..MaxBatchItems texts in order.
func (s *Server) handleClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, s.schemas.batch, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := withRequestMetadata(r.Context(), r)
	result, err := s.service.ClassifyBatch(ctx, req.Texts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleUploadFile analyzes a multipart upload in the "file" field.
// The extension and declared size are checked before any content is read.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := withRequestMetadata(r.Context(), r)
	maxSize := s.service.Config().MaxDocumentSize

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, uploadError(err, maxSize))
		return
	}
	defer file.Close()

	if _, err := core.DetectFormat(header.Filename); err != nil {
		s.service.RecordRejected(ctx, header.Filename, header.Size, err)
		s.respondError(w, r, err)
		return
	}
	if err := core.CheckSize(header.Size, maxSize); err != nil {
		s.service.RecordRejected(ctx, header.Filename, header.Size, err)
		s.respondError(w, r, err)
		return
	}

	// One byte past the cap is enough for the size guard to reject.
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(file, maxSize+1)); err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	result, err := s.service.AnalyzeDocument(ctx, core.RawDocument{
		Filename: header.Filename,
		Content:  buf.Bytes(),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// uploadError classifies multipart parsing failures.
func uploadError(err error, maxSize int64) error {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe), strings.Contains(err.Error(), "request body too large"):
		return fmt.Errorf("%w: upload exceeds the %d byte limit", core.ErrOversizeDocument, maxSize)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return fmt.Errorf("%w: %v", core.ErrNoDocument, err)
	default:
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
}

// AnalysesResponse is the body of GET /api/analyses.
type AnalysesResponse struct {
	Analyses []core.AnalysisRecord `json:"analyses"`
	Count    int                   `json:"count"`
}

// handleListAnalyses lists recent analyses, newest first. ?limit= is optional.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 0)

	analyses, err := s.service.ListAnalyses(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalysesResponse{Analyses: analyses, Count: len(analyses)})
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleExportAnalysis downloads an analysis as CSV (default) or XLSX.
func (s *Server) handleExportAnalysis(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.service.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Render fully before writing headers so failures still get an error response.
	var buf bytes.Buffer
	if err := export.Write(&buf, rec, format); err != nil {
		s.respondError(w, r, fmt.Errorf("export analysis %s: %w", rec.ID, err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(rec, format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// parseIntParam reads a positive integer query parameter, falling back to def.
func parseIntParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
