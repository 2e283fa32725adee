package seo

import (
	"math"
	"regexp"
	"strings"
)

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
	vowelRunRe      = regexp.MustCompile(`[aeiouy]+`)
	nonLetterRe     = regexp.MustCompile(`[^a-z]`)
)

// ReadabilityScore computes a Flesch Reading Ease approximation:
//
//	206.835 - 1.015*(words/sentences) - 84.6*(syllables/words)
//
// clamped to [0, 100] and rounded to one decimal. Empty text scores 0.
func ReadabilityScore(text string) float64 {
	sentences := 0
	for _, s := range sentenceSplitRe.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	words := strings.Fields(text)
	if sentences == 0 || len(words) == 0 {
		return 0
	}

	syllables := 0
	for _, word := range words {
		syllables += countSyllables(word)
	}

	avgSentenceLength := float64(len(words)) / float64(sentences)
	avgSyllablesPerWord := float64(syllables) / float64(len(words))

	score := 206.835 - 1.015*avgSentenceLength - 84.6*avgSyllablesPerWord
	score = math.Round(score*10) / 10
	return math.Max(0, math.Min(100, score))
}

// countSyllables approximates the syllables of one token as its count of
// vowel-letter runs, with a minimum of one per token that contains letters.
func countSyllables(word string) int {
	cleaned := nonLetterRe.ReplaceAllString(strings.ToLower(word), "")
	if cleaned == "" {
		return 0
	}
	runs := len(vowelRunRe.FindAllString(cleaned, -1))
	if runs == 0 {
		return 1
	}
	return runs
}
