package core

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/reviewsense/internal/logging"
)

// DefaultCallTimeout bounds one classifier call.
const DefaultCallTimeout = 10 * time.Second

// DefaultMaxConcurrency bounds in-flight classifier calls per batch.
const DefaultMaxConcurrency = 8

// Orchestrator classifies texts concurrently and returns results in input
// order. A failed call never aborts the batch: the item is replaced by a
// degraded neutral result with zero confidence.
type Orchestrator struct {
	classifier     Classifier
	normalizer     Normalizer
	maxConcurrency int
	callTimeout    time.Duration
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithMaxConcurrency bounds in-flight classifier calls.
func WithMaxConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

// WithCallTimeout bounds each classifier call. A timed-out call is a failure.
func WithCallTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

// WithMaxTextLength sets the character cap for classifier input.
func WithMaxTextLength(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.normalizer.MaxLength = n
	}
}

// NewOrchestrator builds an Orchestrator around c.
func NewOrchestrator(c Classifier, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		classifier:     c,
		normalizer:     Normalizer{MaxLength: DefaultMaxTextLength},
		maxConcurrency: DefaultMaxConcurrency,
		callTimeout:    DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Classify returns exactly len(texts) results; results[i] belongs to texts[i].
func (o *Orchestrator) Classify(ctx context.Context, texts []ReviewText) []ClassificationResult {
	results := make([]ClassificationResult, len(texts))

	var g errgroup.Group
	g.SetLimit(o.maxConcurrency)

	for i, rt := range texts {
		g.Go(func() error {
			original, input := o.normalizer.Normalize(rt.Text)
			pred, err := o.predict(ctx, input)
			if err != nil {
				logging.FromContext(ctx).Warn("classification failed, substituting neutral",
					"index", i,
					"position", rt.Position,
					"error", err,
				)
				results[i] = degradedResult(original)
				return nil
			}
			results[i] = ClassificationResult{
				Text:       original,
				Label:      pred.Label,
				Confidence: pred.Confidence,
			}
			return nil
		})
	}

	_ = g.Wait() // workers never return errors
	return results
}

type predictOutcome struct {
	pred Prediction
	err  error
}

// predict runs one call under the per-call timeout. The timeout holds even
// when the classifier ignores its context; a panic counts as a failure.
func (o *Orchestrator) predict(ctx context.Context, text string) (Prediction, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	done := make(chan predictOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				done <- predictOutcome{err: fmt.Errorf("%w: panic: %v\n%s", ErrClassification, r, buf[:n])}
			}
		}()
		pred, err := o.classifier.Predict(callCtx, text)
		done <- predictOutcome{pred: pred, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return Prediction{}, fmt.Errorf("%w: %w", ErrClassification, out.err)
		}
		if err := out.pred.Validate(); err != nil {
			return Prediction{}, err
		}
		return out.pred, nil
	case <-callCtx.Done():
		return Prediction{}, fmt.Errorf("%w: %w", ErrClassification, callCtx.Err())
	}
}

func degradedResult(text string) ClassificationResult {
	return ClassificationResult{
		Text:       text,
		Label:      LabelNeutral,
		Confidence: 0,
		Degraded:   true,
	}
}
