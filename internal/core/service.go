package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/reviewsense/internal/logging"
)

// Direct entry point bounds.
const (
	DefaultMaxBatchItems  = 100
	DefaultMaxInputLength = 512
	DefaultHistoryLimit   = 50
)

// DefaultAnalysisTimeout bounds one document analysis.
var DefaultAnalysisTimeout = 5 * time.Minute

// historySaveTimeout bounds recording an analysis after the request ends.
const historySaveTimeout = 5 * time.Second

// AnalysisStore persists analysis history. Implementations return
// ErrAnalysisNotFound (possibly wrapped) for unknown IDs.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error
	ListAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error)
	GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error)
}

// ServiceConfig holds Service limits. Zero values select the defaults.
type ServiceConfig struct {
	MaxDocumentSize       int64
	MaxBatchItems         int
	MaxInputLength        int // characters per text on the direct entry points
	MaxConcurrentAnalyses int
	MaxWaitTime           time.Duration
	AnalysisTimeout       time.Duration
	HistoryLimit          int
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.MaxDocumentSize <= 0 {
		c.MaxDocumentSize = DefaultMaxDocumentSize
	}
	if c.MaxBatchItems <= 0 {
		c.MaxBatchItems = DefaultMaxBatchItems
	}
	if c.MaxInputLength <= 0 {
		c.MaxInputLength = DefaultMaxInputLength
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = DefaultAnalysisTimeout
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	return c
}

// Service runs sentiment analyses and records them.
type Service struct {
	cfg          ServiceConfig
	model        Model // nil when the classifier has no lifecycle
	orchestrator *Orchestrator
	store        AnalysisStore // nil disables history
	limiter      *AnalysisLimiter
}

// NewService wires a classifier and an optional history store into a Service.
// If c also implements Model, requests are refused until it is ready.
func NewService(c Classifier, store AnalysisStore, cfg ServiceConfig, opts ...OrchestratorOption) *Service {
	cfg = cfg.withDefaults()
	s := &Service{
		cfg:          cfg,
		orchestrator: NewOrchestrator(c, opts...),
		store:        store,
		limiter:      NewAnalysisLimiter(cfg.MaxConcurrentAnalyses, cfg.MaxWaitTime),
	}
	if m, ok := c.(Model); ok {
		s.model = m
	}
	return s
}

// Config returns the effective limits.
func (s *Service) Config() ServiceConfig {
	return s.cfg
}

// HistoryEnabled reports whether analyses are persisted.
func (s *Service) HistoryEnabled() bool {
	return s.store != nil
}

func (s *Service) ensureReady() error {
	if s.model == nil {
		return nil
	}
	if st := s.model.State(); st != ModelReady {
		return fmt.Errorf("%w: model is %s", ErrModelNotReady, st)
	}
	return nil
}

// ValidateBatch checks the direct entry point bounds: 1..maxItems texts,
// each 1..maxLen characters after trimming.
func ValidateBatch(texts []string, maxItems, maxLen int) ([]ReviewText, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: at least one text is required", ErrInvalidBatch)
	}
	if len(texts) > maxItems {
		return nil, fmt.Errorf("%w: %d texts exceeds the limit of %d", ErrInvalidBatch, len(texts), maxItems)
	}

	out := make([]ReviewText, len(texts))
	for i, t := range texts {
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: text %d is empty", ErrInvalidBatch, i)
		}
		if n := CharLen(trimmed); n > maxLen {
			return nil, fmt.Errorf("%w: text %d has %d characters, limit is %d", ErrInvalidBatch, i, n, maxLen)
		}
		out[i] = ReviewText{Text: trimmed, Position: i}
	}
	return out, nil
}

// ClassifyText classifies a single text. Classifier failures degrade the
// result instead of failing the call.
func (s *Service) ClassifyText(ctx context.Context, text string) (ClassificationResult, error) {
	batch, err := s.classifyDirect(ctx, SourceText, []string{text})
	if err != nil {
		return ClassificationResult{}, err
	}
	return batch.Results[0], nil
}

// ClassifyBatch classifies 1..MaxBatchItems texts, preserving order.
func (s *Service) ClassifyBatch(ctx context.Context, texts []string) (BatchResult, error) {
	return s.classifyDirect(ctx, SourceBatch, texts)
}

func (s *Service) classifyDirect(ctx context.Context, source Source, texts []string) (BatchResult, error) {
	if err := s.ensureReady(); err != nil {
		return BatchResult{}, err
	}
	items, err := ValidateBatch(texts, s.cfg.MaxBatchItems, s.cfg.MaxInputLength)
	if err != nil {
		return BatchResult{}, err
	}

	start := time.Now()
	batch := Aggregate(s.orchestrator.Classify(ctx, items))

	s.record(ctx, &AnalysisRecord{
		ID:              uuid.NewString(),
		Source:          source,
		DurationSeconds: round2(time.Since(start).Seconds()),
		Status:          StatusCompleted,
	}, &batch)

	return batch, nil
}

// Ingest runs the fail-closed half of the pipeline: format detection, size
// check and extraction. It reads no content before both guards pass and
// returns ErrEmptyExtraction when nothing usable was found.
func Ingest(doc RawDocument, maxSize int64, log *slog.Logger) (Format, ParseOutcome, error) {
	format, err := formatOf(doc)
	if err != nil {
		return "", ParseOutcome{}, err
	}
	log.Debug("pipeline phase", "phase", PhaseFormatDetected, "format", format)

	if err := CheckSize(doc.Size(), maxSize); err != nil {
		return "", ParseOutcome{}, err
	}
	log.Debug("pipeline phase", "phase", PhaseSizeChecked, "max_size", maxSize)

	ex, err := ExtractorFor(format)
	if err != nil {
		return "", ParseOutcome{}, err
	}
	outcome, err := ex.Extract(doc.Content)
	if err != nil {
		return "", ParseOutcome{}, err
	}
	if len(outcome.Texts) == 0 {
		return "", ParseOutcome{}, fmt.Errorf("%w: %s", ErrEmptyExtraction, doc.Filename)
	}
	return format, outcome, nil
}

// AnalyzeDocument runs the full pipeline over an uploaded document.
// Errors before classification abort the request; classifier failures are
// absorbed as degraded results. Every outcome is recorded in history.
func (s *Service) AnalyzeDocument(ctx context.Context, doc RawDocument) (*FileBatchResult, error) {
	start := time.Now()
	id := uuid.NewString()
	ctx = logging.WithAnalysisID(ctx, id)
	log := logging.WithFields(ctx, "filename", doc.Filename, "size", doc.Size())
	log.Debug("pipeline phase", "phase", PhaseReceived, "user_agent", GetUserAgentFromContext(ctx))

	rec := &AnalysisRecord{
		ID:       id,
		Source:   SourceFile,
		Filename: doc.Filename,
		FileSize: doc.Size(),
	}

	res, err := s.analyze(ctx, id, doc, log, start)
	rec.DurationSeconds = round2(time.Since(start).Seconds())
	if err != nil {
		rec.Status = StatusFailed
		rec.ErrorCode = MapError(err).Code
		s.record(ctx, rec, nil)
		log.Info("analysis rejected", "error", err, "code", rec.ErrorCode)
		return nil, err
	}

	rec.Status = StatusCompleted
	rec.Column = res.Column
	s.record(ctx, rec, &res.BatchResult)

	log.Debug("pipeline phase", "phase", PhaseReturned)
	log.Info("analysis completed",
		"texts", res.Total,
		"degraded", res.DegradedCount,
		"duration_s", res.ProcessingTime,
	)
	return res, nil
}

// RecordRejected records a document refused before its content was read,
// such as an unsupported extension or a declared size over the cap.
func (s *Service) RecordRejected(ctx context.Context, filename string, size int64, err error) {
	s.record(ctx, &AnalysisRecord{
		ID:        uuid.NewString(),
		Source:    SourceFile,
		Filename:  filename,
		FileSize:  size,
		Status:    StatusFailed,
		ErrorCode: MapError(err).Code,
	}, nil)
	logging.FromContext(ctx).Info("analysis rejected",
		"filename", filename,
		"size", size,
		"error", err,
	)
}

func (s *Service) analyze(ctx context.Context, id string, doc RawDocument, log *slog.Logger, start time.Time) (*FileBatchResult, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
	defer cancel()

	format, outcome, err := Ingest(doc, s.cfg.MaxDocumentSize, log)
	if err != nil {
		return nil, err
	}
	log.Debug("pipeline phase",
		"phase", PhaseExtracted,
		"format", format,
		"texts", len(outcome.Texts),
		"column", outcome.Column,
	)

	results := s.orchestrator.Classify(ctx, outcome.Texts)
	log.Debug("pipeline phase", "phase", PhaseClassified)

	batch := Aggregate(results)
	log.Debug("pipeline phase", "phase", PhaseAggregated)

	return &FileBatchResult{
		AnalysisID:     id,
		Filename:       doc.Filename,
		FileSize:       doc.Size(),
		Format:         format,
		Column:         outcome.Column,
		TotalProcessed: batch.Total,
		ProcessingTime: round2(time.Since(start).Seconds()),
		Stats:          ComputeStats(outcome.Texts),
		BatchResult:    batch,
	}, nil
}

// record saves rec to history, outliving request cancellation. Failures
// are logged, never returned.
func (s *Service) record(ctx context.Context, rec *AnalysisRecord, batch *BatchResult) {
	if s.store == nil {
		return
	}

	rec.ClientIP = GetIPAddressFromContext(ctx)
	rec.CreatedAt = time.Now().UTC()
	if batch != nil {
		rec.Total = batch.Total
		rec.PositiveCount = batch.PositiveCount
		rec.NegativeCount = batch.NegativeCount
		rec.NeutralCount = batch.NeutralCount
		rec.DegradedCount = batch.DegradedCount
		rec.Results = batch.Results
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historySaveTimeout)
	defer cancel()

	if err := s.store.SaveAnalysis(saveCtx, rec); err != nil {
		logging.FromContext(ctx).Error("failed to record analysis",
			"analysis_id", rec.ID,
			"error", err,
		)
	}
}

// ListAnalyses returns the most recent analyses, newest first, without results.
func (s *Service) ListAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if s.store == nil {
		return []AnalysisRecord{}, nil
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	recs, err := s.store.ListAnalyses(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	for i := range recs {
		recs[i].Results = nil
	}
	return recs, nil
}

// GetAnalysis returns one analysis with its results.
func (s *Service) GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: history is disabled", ErrAnalysisNotFound)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrAnalysisNotFound, id)
	}
	rec, err := s.store.GetAnalysis(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return rec, nil
}

// ModelInfo describes the classifier. Classifiers without a lifecycle are
// reported as always ready.
func (s *Service) ModelInfo() ModelInfo {
	if s.model == nil {
		return ModelInfo{
			Name:          "custom",
			MaxTextLength: s.orchestrator.normalizer.MaxLength,
			State:         ModelReady.String(),
			Loaded:        true,
		}
	}
	return s.model.Info()
}

// Ready reports whether the classifier accepts work.
func (s *Service) Ready() bool {
	return s.ensureReady() == nil
}

// LimiterStatus returns the document analysis limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForAnalyses blocks until in-flight document analyses finish or ctx is done.
func (s *Service) WaitForAnalyses(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
