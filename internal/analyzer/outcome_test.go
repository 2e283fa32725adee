package analyzer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutcomeOk(t *testing.T) {
	t.Parallel()

	o := Ok(42)
	require.True(t, o.IsOk())
	require.False(t, o.IsSkipped())
	require.False(t, o.IsFailed())
	require.Equal(t, 42, o.Value())
	require.Equal(t, OutcomeOK, o.Status())
}

func TestOutcomeSkipped(t *testing.T) {
	t.Parallel()

	o := Skipped[string]("no credential configured")
	require.True(t, o.IsSkipped())
	require.Equal(t, "no credential configured", o.Reason())
}

func TestOutcomeFailed(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	o := Failed[int](sentinel)
	require.True(t, o.IsFailed())
	require.ErrorIs(t, o.Err(), sentinel)
}
