package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

func TestPublishRecordsEvents(t *testing.T) {
	t.Parallel()

	p := New()
	require.Empty(t, p.Events())

	event := analyzer.CompletionEvent{
		WebsiteID: 7,
		Slug:      "example-com",
		Status:    analyzer.StatusCompleted,
		At:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), event))

	events := p.Events()
	require.Len(t, events, 1)
	require.Equal(t, event, events[0])

	// The returned slice is a copy.
	events[0].Slug = "mutated"
	require.Equal(t, "example-com", p.Events()[0].Slug)

	require.NoError(t, p.Close())
}
