package seo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadabilityScoreEmptyText(t *testing.T) {
	t.Parallel()

	require.Zero(t, ReadabilityScore(""))
	require.Zero(t, ReadabilityScore("   "))
}

func TestReadabilityScoreWithinBounds(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"The cat sat on the mat.",
		"Go is an open source programming language. It makes it easy to build simple, reliable, and efficient software.",
		strings.Repeat("Antidisestablishmentarianism is extraordinarily multisyllabic. ", 20),
		"One.",
		"a b c d e f g h i j k l m n o p",
	}
	for _, text := range inputs {
		score := ReadabilityScore(text)
		require.GreaterOrEqual(t, score, 0.0, "text %q", text)
		require.LessOrEqual(t, score, 100.0, "text %q", text)
	}
}

func TestReadabilitySimpleTextScoresHigherThanComplex(t *testing.T) {
	t.Parallel()

	simple := "The dog ran. The cat sat. The sun is up."
	complex := "Institutional heterogeneity necessitates comprehensive organizational restructuring initiatives, notwithstanding considerable administrative impediments."
	require.Greater(t, ReadabilityScore(simple), ReadabilityScore(complex))
}

func TestCountSyllables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"kitten", 2},
		{"beautiful", 3},
		{"queue", 1},
		{"rhythm", 1},
		{"nth", 1},  // no vowel runs, minimum of one applies
		{"1234", 0}, // no letters at all
		{"", 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, countSyllables(tt.word), "word %q", tt.word)
	}
}
