package sitemap

import (
	"math/rand/v2"
)

// Sample selects up to limit URLs uniformly without replacement. Sets at or
// under the limit are returned unmodified.
func Sample(urls []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	if len(urls) <= limit {
		return urls
	}
	shuffled := make([]string, len(urls))
	copy(shuffled, urls)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:limit]
}

// SampleByCategory buckets the URLs by category and draws up to perCategory
// from each bucket, uniformly without replacement.
func SampleByCategory(urls []string, perCategory int) map[string][]string {
	if perCategory <= 0 {
		return nil
	}
	buckets := make(map[string][]string)
	for _, u := range urls {
		cat := Classify(u)
		buckets[cat] = append(buckets[cat], u)
	}
	sampled := make(map[string][]string, len(buckets))
	for cat, members := range buckets {
		sampled[cat] = Sample(members, perCategory)
	}
	return sampled
}
