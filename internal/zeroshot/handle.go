package zeroshot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/dear-diary/internal/common"
	"github.com/Veraticus/dear-diary/internal/model"
)

// Loader builds a ready Pipeline. It may be slow.
type Loader func(ctx context.Context) (Pipeline, error)

// Handle loads a pipeline on first use and shares it afterwards. Loading
// is attempted once; a failure is remembered and reported by every later
// call. The lock covers loading only, so classifications run concurrently.
type Handle struct {
	loader   Loader
	pipeline Pipeline
	err      error
	logger   *slog.Logger
	mu       sync.Mutex
	loaded   bool
}

// NewHandle wraps loader in a Handle.
func NewHandle(loader Loader, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{loader: loader, logger: logger}
}

// Load runs the loader if it has not run yet. Calling it ahead of the first
// classification moves the startup cost out of the request path.
func (h *Handle) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.loaded {
		return h.err
	}
	h.loaded = true

	start := time.Now()
	pipeline, err := h.loader(ctx)
	if err != nil {
		h.err = fmt.Errorf("%w: %w", common.ErrPipelineNotReady, err)
		h.logger.Error("Zero-shot pipeline failed to load",
			"error", err,
			"elapsed", time.Since(start))
		return h.err
	}

	h.pipeline = pipeline
	h.logger.Info("Zero-shot pipeline loaded", "elapsed", time.Since(start))
	return nil
}

// Ready reports whether a pipeline has loaded successfully.
func (h *Handle) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded && h.err == nil
}

// Err returns the load failure, if any.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Classify implements Pipeline, loading on first use.
func (h *Handle) Classify(ctx context.Context, text string, labels []string) (model.LabelScores, error) {
	if err := h.Load(ctx); err != nil {
		return nil, err
	}

	h.mu.Lock()
	pipeline := h.pipeline
	h.mu.Unlock()

	return pipeline.Classify(ctx, text, labels)
}

// Close releases the loaded pipeline if it holds resources.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if closer, ok := h.pipeline.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
