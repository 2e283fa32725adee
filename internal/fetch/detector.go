package fetch

import (
	"bytes"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// Detector decides whether a fetched page needs a headless render before
// content extraction. It is rule-based: tiny documents and pages carrying
// known JS-app markers are promoted.
type Detector struct {
	minHTMLBytes int
	markers      [][]byte
}

// NewDetector creates a Detector. Zero values fall back to defaults.
func NewDetector(minHTMLBytes int, keywords []string) *Detector {
	if minHTMLBytes <= 0 {
		minHTMLBytes = 2000
	}
	markers := make([][]byte, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			markers = append(markers, []byte(k))
		}
	}
	return &Detector{minHTMLBytes: minHTMLBytes, markers: markers}
}

// ShouldRender reports whether the probe result warrants a headless render.
func (d *Detector) ShouldRender(probe analyzer.FetchResult) bool {
	if probe.StatusCode != 200 {
		return false
	}
	if len(probe.Body) < d.minHTMLBytes {
		return true
	}
	for _, marker := range d.markers {
		if bytes.Contains(probe.Body, marker) {
			return true
		}
	}
	return false
}
