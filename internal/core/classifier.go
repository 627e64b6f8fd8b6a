package core

import (
	"context"
	"fmt"
	"math"
)

// Prediction is one classifier output.
type Prediction struct {
	Label      SentimentLabel
	Confidence float64
}

// Validate rejects labels outside the closed set and confidences outside [0, 1].
func (p Prediction) Validate() error {
	if !p.Label.Valid() {
		return fmt.Errorf("%w: unknown label %q", ErrClassification, p.Label)
	}
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0, 1]", ErrClassification, p.Confidence)
	}
	return nil
}

// Classifier maps one text to a sentiment. It may fail; callers decide
// what a failure means.
type Classifier interface {
	Predict(ctx context.Context, text string) (Prediction, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) (Prediction, error)

func (f ClassifierFunc) Predict(ctx context.Context, text string) (Prediction, error) {
	return f(ctx, text)
}

// ModelState is the classifier lifecycle.
type ModelState int

const (
	ModelUnloaded ModelState = iota
	ModelLoading
	ModelReady
	ModelFailed
)

func (s ModelState) String() string {
	switch s {
	case ModelUnloaded:
		return "unloaded"
	case ModelLoading:
		return "loading"
	case ModelReady:
		return "ready"
	case ModelFailed:
		return "failed"
	default:
		return fmt.Sprintf("ModelState(%d)", int(s))
	}
}

// ModelInfo describes the loaded classifier.
type ModelInfo struct {
	Name          string   `json:"model_name"`
	Backend       string   `json:"backend"`
	Description   string   `json:"description"`
	Languages     []string `json:"supported_languages"`
	MaxTextLength int      `json:"max_text_length"`
	State         string   `json:"state"`
	Loaded        bool     `json:"loaded"`
	LoadError     string   `json:"load_error,omitempty"`
}

// Model is a Classifier with a lifecycle. Service uses it, when available,
// to refuse work before the model is ready.
type Model interface {
	Classifier
	State() ModelState
	Info() ModelInfo
}
