// Package noop provides a publisher that discards completion events.
package noop

import (
	"context"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// Publisher drops every event. It is the default when no event transport is
// configured.
type Publisher struct{}

// New returns a no-op Publisher.
func New() *Publisher { return &Publisher{} }

// Publish discards the event.
func (*Publisher) Publish(_ context.Context, _ analyzer.CompletionEvent) error { return nil }

// Close is a no-op.
func (*Publisher) Close() error { return nil }
