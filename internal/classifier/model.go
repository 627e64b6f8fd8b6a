// Package classifier manages the sentiment model lifecycle.
//
// A Model wraps a Backend (mock or remote) and tracks its state:
//
//	Unloaded -> Loading -> Ready
//	                    -> Failed -> Loading (retry)
//
// The Model is constructed once at startup and handed to core.NewService.
// Nothing in the process reaches it through package state.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

// Backend performs inference for a Model.
type Backend interface {
	// Name identifies the backend kind, e.g. "mock" or "remote".
	Name() string
	// Description is shown by the model-info endpoint.
	Description() string
	// Load prepares the backend. It may block until ctx is done.
	Load(ctx context.Context) error
	Predict(ctx context.Context, text string) (core.Prediction, error)
}

// SupportedLanguages are the languages the default multilingual model covers.
var SupportedLanguages = []string{
	"Russian", "English", "German", "French", "Italian",
	"Spanish", "Portuguese", "Dutch", "Chinese", "Japanese",
}

// Model is a core.Model backed by a Backend.
type Model struct {
	backend       Backend
	name          string
	maxTextLength int

	loadMu sync.Mutex // serializes Load

	mu      sync.RWMutex
	state   core.ModelState
	loadErr error
}

var _ core.Model = (*Model)(nil)

// New creates an unloaded Model. maxTextLength is reported by Info.
func New(backend Backend, name string, maxTextLength int) *Model {
	if maxTextLength <= 0 {
		maxTextLength = core.DefaultMaxTextLength
	}
	return &Model{
		backend:       backend,
		name:          name,
		maxTextLength: maxTextLength,
		state:         core.ModelUnloaded,
	}
}

// Load moves the model to Ready, or to Failed if the backend errors.
// Calling Load on a ready model is a no-op; a failed model may be reloaded.
func (m *Model) Load(ctx context.Context) error {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if m.State() == core.ModelReady {
		return nil
	}

	m.setState(core.ModelLoading, nil)
	slog.Info("loading sentiment model", "model", m.name, "backend", m.backend.Name())
	start := time.Now()

	if err := m.backend.Load(ctx); err != nil {
		err = fmt.Errorf("load model %s: %w", m.name, err)
		m.setState(core.ModelFailed, err)
		slog.Error("sentiment model failed to load", "model", m.name, "error", err)
		return err
	}

	m.setState(core.ModelReady, nil)
	slog.Info("sentiment model ready",
		"model", m.name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (m *Model) setState(s core.ModelState, err error) {
	m.mu.Lock()
	m.state = s
	m.loadErr = err
	m.mu.Unlock()
}

// State returns the current lifecycle state.
func (m *Model) State() core.ModelState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Err returns the last load error, if the model is Failed.
func (m *Model) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadErr
}

// Predict classifies text. Confidence is rounded to 4 decimal places.
func (m *Model) Predict(ctx context.Context, text string) (core.Prediction, error) {
	if st := m.State(); st != core.ModelReady {
		return core.Prediction{}, fmt.Errorf("%w: model is %s", core.ErrModelNotReady, st)
	}

	pred, err := m.backend.Predict(ctx, text)
	if err != nil {
		return core.Prediction{}, err
	}
	pred.Confidence = math.Round(pred.Confidence*1e4) / 1e4
	return pred, nil
}

// Info describes the model for the model-info endpoint.
func (m *Model) Info() core.ModelInfo {
	st := m.State()
	info := core.ModelInfo{
		Name:          m.name,
		Backend:       m.backend.Name(),
		Description:   m.backend.Description(),
		Languages:     SupportedLanguages,
		MaxTextLength: m.maxTextLength,
		State:         st.String(),
		Loaded:        st == core.ModelReady,
	}
	if err := m.Err(); err != nil {
		info.LoadError = err.Error()
	}
	return info
}
