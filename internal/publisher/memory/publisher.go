// Package memory contains an in-memory publisher for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// Publisher stores published events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []analyzer.CompletionEvent
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the event.
func (p *Publisher) Publish(_ context.Context, event analyzer.CompletionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns the recorded publishes.
func (p *Publisher) Events() []analyzer.CompletionEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]analyzer.CompletionEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Close is a no-op.
func (p *Publisher) Close() error { return nil }
