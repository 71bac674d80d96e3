// Package gateway performs bounded, failure-contained outbound calls to other
// principals. A call reports only success or failure: returned data is
// discarded, handler panics are recovered, and the execution budget is
// enforced as a deadline. The caller owns compensating its own state when a
// call fails.
package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// PrincipalFunc is the registered handler for one destination account. It runs
// on the gateway's goroutine budget and may call back into the vault service
// before returning.
type PrincipalFunc func(ctx context.Context, value uint64, payload []byte) error

type Gateway struct {
	mu       sync.RWMutex
	handlers map[string]PrincipalFunc
	budget   time.Duration
	log      *slog.Logger
}

func New(budget time.Duration, logger *slog.Logger) *Gateway {
	if budget <= 0 {
		budget = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		handlers: map[string]PrincipalFunc{},
		budget:   budget,
		log:      logger,
	}
}

// Register installs the handler for a destination account, replacing any
// previous one. A nil handler unregisters.
func (g *Gateway) Register(account string, fn PrincipalFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if fn == nil {
		delete(g.handlers, account)
		return
	}
	g.handlers[account] = fn
}

// Call invokes the destination's handler inside the budget. It never panics
// and never returns an error; false covers unknown destinations, handler
// errors, handler panics and budget exhaustion alike.
func (g *Gateway) Call(ctx context.Context, destination string, value uint64, payload []byte) bool {
	g.mu.RLock()
	handler := g.handlers[destination]
	g.mu.RUnlock()
	if handler == nil {
		g.log.Warn("outbound call to unknown principal", "destination", destination)
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, g.budget)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.log.Warn("principal handler panicked", "destination", destination, "panic", r)
				done <- context.Canceled
			}
		}()
		done <- handler(callCtx, value, payload)
	}()

	select {
	case <-callCtx.Done():
		g.log.Warn("outbound call exceeded budget", "destination", destination, "budget", g.budget)
		return false
	case err := <-done:
		if err != nil {
			g.log.Warn("outbound call failed", "destination", destination, "error", err)
			return false
		}
		return true
	}
}
