package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phonify-ai/retrieval-engine/internal/observability"
)

// ErrUnavailable indicates the encoder is not usable right now and callers
// should fall back to non-semantic retrieval.
var ErrUnavailable = errors.New("embedding encoder unavailable")

// LoaderState describes the lifecycle of the lazily probed encoder.
type LoaderState int

const (
	// StateUninitialized means no probe has been attempted yet.
	StateUninitialized LoaderState = iota
	// StateLoading means a probe is in flight on another goroutine.
	StateLoading
	// StateReady means the encoder answered a probe and is usable.
	StateReady
	// StateFailed means the last probe failed; re-probe after a cooldown.
	StateFailed
)

// String returns a human-readable state name.
func (s LoaderState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loader guards access to an Embedder behind an explicit lifecycle.
//
// The encoder is probed on first use rather than at construction so the
// engine starts even when the encoder sidecar is still warming up. A failed
// probe is remembered and not retried until retryAfter elapses, so a dead
// encoder costs one failed request per cooldown window instead of one per
// query.
type Loader struct {
	mu         sync.Mutex
	embedder   Embedder
	state      LoaderState
	lastErr    error
	failedAt   time.Time
	retryAfter time.Duration
	loaded     chan struct{}
	logger     *observability.Logger
	now        func() time.Time
}

// NewLoader creates a loader around an embedder.
func NewLoader(embedder Embedder, retryAfter time.Duration, logger *observability.Logger) *Loader {
	if retryAfter <= 0 {
		retryAfter = 2 * time.Minute
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Loader{
		embedder:   embedder,
		state:      StateUninitialized,
		retryAfter: retryAfter,
		logger:     logger.WithComponent("embedding-loader"),
		now:        time.Now,
	}
}

// State returns the current lifecycle state.
func (l *Loader) State() LoaderState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Embedder returns the underlying embedder after ensuring it is ready.
// Returns ErrUnavailable when the encoder cannot be used.
func (l *Loader) Embedder(ctx context.Context) (Embedder, error) {
	if err := l.ensureReady(ctx); err != nil {
		return nil, err
	}
	return l.embedder, nil
}

// ensureReady drives the state machine to Ready or returns ErrUnavailable.
func (l *Loader) ensureReady(ctx context.Context) error {
	l.mu.Lock()

	switch l.state {
	case StateReady:
		l.mu.Unlock()
		return nil

	case StateFailed:
		if l.now().Sub(l.failedAt) < l.retryAfter {
			err := l.lastErr
			l.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		// Cooldown expired, probe again.
		return l.startProbe(ctx)

	case StateLoading:
		loaded := l.loaded
		l.mu.Unlock()

		select {
		case <-loaded:
		case <-ctx.Done():
			return ctx.Err()
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.state == StateReady {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, l.lastErr)

	default: // StateUninitialized
		return l.startProbe(ctx)
	}
}

// startProbe transitions to Loading and probes the encoder with a tiny
// request. Called with l.mu held; releases it before the network call.
func (l *Loader) startProbe(ctx context.Context) error {
	l.state = StateLoading
	l.loaded = make(chan struct{})
	loaded := l.loaded
	l.mu.Unlock()

	l.logger.Debug().Str("model", l.embedder.Model()).Msg("probing encoder")

	_, err := l.embedder.EmbedSingle(ctx, "ping")

	l.mu.Lock()
	defer l.mu.Unlock()
	close(loaded)

	if err != nil {
		l.state = StateFailed
		l.lastErr = err
		l.failedAt = l.now()
		l.logger.Warn().
			Err(err).
			Dur("retry_after", l.retryAfter).
			Msg("encoder probe failed, semantic ranking disabled")
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	l.state = StateReady
	l.lastErr = nil
	l.logger.Info().
		Str("model", l.embedder.Model()).
		Int("dimension", l.embedder.Dimension()).
		Msg("encoder ready")
	return nil
}
