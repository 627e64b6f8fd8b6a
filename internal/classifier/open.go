package classifier

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/reviewsense/internal/classifier/mock"
	"github.com/JonMunkholm/reviewsense/internal/classifier/remote"
	"github.com/JonMunkholm/reviewsense/internal/config"
)

// ErrUnknownBackend is returned for a backend name other than mock or remote.
var ErrUnknownBackend = errors.New("unknown classifier backend")

// Open builds an unloaded Model for the configured backend.
func Open(cfg config.ClassifierConfig) (*Model, error) {
	var backend Backend

	switch strings.ToLower(cfg.Backend) {
	case "mock":
		backend = mock.New(
			mock.WithSeed(cfg.MockSeed),
			mock.WithLoadDelay(cfg.MockLoadDelay),
		)
	case "remote":
		rc, err := remote.New(cfg.Endpoint,
			remote.WithAPIKey(cfg.APIKey),
			remote.WithModelName(cfg.ModelName),
			remote.WithTimeout(cfg.CallTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("remote classifier: %w", err)
		}
		backend = rc
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}

	return New(backend, cfg.ModelName, cfg.MaxTextLength), nil
}
