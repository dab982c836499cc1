// Package gateway fronts the generative model with an optional concurrency
// limit. Completions are passed through once; failures are returned as-is.
package gateway

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/user/datalake/pkg/llm"
)

// Gateway is an llm.Provider that admits at most maxConcurrent completions
// at a time. Without a limit every call goes straight to the provider.
type Gateway struct {
	provider  llm.Provider
	semaphore *semaphore.Weighted
	logger    *slog.Logger
	active    atomic.Int64
}

// New wraps provider. A maxConcurrent of zero or less means no limit.
func New(provider llm.Provider, maxConcurrent int64, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{provider: provider, logger: logger}
	if maxConcurrent > 0 {
		g.semaphore = semaphore.NewWeighted(maxConcurrent)
	}
	return g
}

// Complete implements llm.Provider. With a limit it blocks until a slot is
// free or ctx is done.
func (g *Gateway) Complete(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	if g.semaphore != nil {
		if err := g.semaphore.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer g.semaphore.Release(1)
	}
	g.active.Add(1)
	defer g.active.Add(-1)

	resp, err := g.provider.Complete(ctx, messages)
	if err != nil {
		g.logger.Warn("completion failed", "error", err)
		return nil, err
	}
	return resp, nil
}

// Active returns the number of completions in flight.
func (g *Gateway) Active() int64 {
	return g.active.Load()
}
