package llm

import (
	"context"
	"fmt"
	"strings"

	"docquery/internal/contextutil"
	"docquery/internal/service"
)

// Router dispatches generation requests across a fixed, prioritized chain of
// backends. The chain is an ordered slice, never a string-keyed registry, so
// the fallback order is statically verifiable. Fallback is strictly
// sequential: a backend is attempted only after every earlier one failed.
type Router struct {
	backends []GenerationBackend
}

// NewRouter creates a router over backends in priority order.
func NewRouter(backends ...GenerationBackend) *Router {
	return &Router{backends: backends}
}

// Backends returns the configured backend names in priority order.
func (r *Router) Backends() []string {
	names := make([]string, 0, len(r.backends))
	for _, b := range r.backends {
		if b.IsConfigured() {
			names = append(names, b.Name())
		}
	}
	return names
}

// Generate produces text for the prompt according to opts.
//
// With PreferredModel set (or a strategy naming a backend), only that backend
// is attempted and its failure propagates directly. Otherwise backends are
// tried in priority order; unconfigured backends are skipped silently, any
// failure moves on to the next backend, and the first success returns
// immediately. When every attempted backend fails the error wraps
// service.ErrAllBackendsFailed with the per-backend reasons.
func (r *Router) Generate(ctx context.Context, prompt string, opts GenerateOptions) (GenerationResult, error) {
	params := GenerateParams{
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	preferred := opts.PreferredModel
	if preferred == "" && opts.Strategy != "" && opts.Strategy != StrategyFallback {
		preferred = opts.Strategy
	}
	if preferred != "" {
		return r.generateWith(ctx, preferred, prompt, params)
	}

	logger := contextutil.LoggerFromContext(ctx)

	var failures []string
	for _, backend := range r.backends {
		if !backend.IsConfigured() {
			logger.DebugContext(ctx, "skipping unconfigured backend", "backend", backend.Name())
			continue
		}

		text, err := backend.Generate(ctx, prompt, params)
		if err != nil {
			logger.WarnContext(ctx, "generation backend failed, trying next", "backend", backend.Name(), "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", backend.Name(), err))
			continue
		}

		logger.InfoContext(ctx, "generation succeeded", "backend", backend.Name(), "length", len(text))
		return GenerationResult{Text: text, Backend: backend.Name()}, nil
	}

	if len(failures) == 0 {
		return GenerationResult{}, fmt.Errorf("%w: no generation backend configured", service.ErrProviderUnavailable)
	}
	return GenerationResult{}, fmt.Errorf("%w: %s", service.ErrAllBackendsFailed, strings.Join(failures, "; "))
}

// generateWith attempts exactly one backend by name, without fallback.
func (r *Router) generateWith(ctx context.Context, name, prompt string, params GenerateParams) (GenerationResult, error) {
	for _, backend := range r.backends {
		if backend.Name() != name {
			continue
		}
		if !backend.IsConfigured() {
			return GenerationResult{}, fmt.Errorf("%w: backend %q has no credentials", service.ErrProviderUnavailable, name)
		}
		text, err := backend.Generate(ctx, prompt, params)
		if err != nil {
			return GenerationResult{}, fmt.Errorf("backend %q failed: %w", name, err)
		}
		return GenerationResult{Text: text, Backend: name}, nil
	}
	return GenerationResult{}, fmt.Errorf("%w: unknown backend %q", service.ErrProviderUnavailable, name)
}
