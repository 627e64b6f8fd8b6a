// Package mock is a classifier backend that returns random sentiments.
// It needs no model files or network and is the default for development.
package mock

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

// Confidence range of generated predictions.
const (
	MinConfidence = 0.70
	MaxConfidence = 0.99
)

// Classifier picks a label uniformly and a confidence in [0.70, 0.99].
type Classifier struct {
	loadDelay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSeed makes output reproducible. Zero keeps the time-based seed.
func WithSeed(seed int64) Option {
	return func(c *Classifier) {
		if seed != 0 {
			c.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
		}
	}
}

// WithLoadDelay simulates slow model loading.
func WithLoadDelay(d time.Duration) Option {
	return func(c *Classifier) {
		c.loadDelay = d
	}
}

// New creates a mock classifier.
func New(opts ...Option) *Classifier {
	now := uint64(time.Now().UnixNano())
	c := &Classifier{
		rng: rand.New(rand.NewPCG(now, now>>1)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Classifier) Name() string { return "mock" }

func (c *Classifier) Description() string {
	return "Mock model returning random sentiments for demos and tests"
}

// Load waits out the configured delay, or returns early if ctx is done.
func (c *Classifier) Load(ctx context.Context) error {
	if c.loadDelay <= 0 {
		return nil
	}
	t := time.NewTimer(c.loadDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Predict ignores text and returns a random prediction.
func (c *Classifier) Predict(ctx context.Context, text string) (core.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return core.Prediction{}, err
	}

	c.mu.Lock()
	label := core.Labels[c.rng.IntN(len(core.Labels))]
	conf := MinConfidence + c.rng.Float64()*(MaxConfidence-MinConfidence)
	c.mu.Unlock()

	return core.Prediction{
		Label:      label,
		Confidence: math.Round(conf*1e4) / 1e4,
	}, nil
}
