package company

import "regexp"

// cvrPatterns match the ways Danish sites print their CVR number. Ordered
// from loosest to most explicit; the first hit wins.
var cvrPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)CVR[:\-\s]*(\d{8})`),
	regexp.MustCompile(`(?i)CVR[- ]?nr[:\-\s]*(\d{8})`),
	regexp.MustCompile(`(?i)CVR[- ]?nummer[:\-\s]*(\d{8})`),
}

// DetectCVR scans page HTML for an 8-digit Danish business registry number.
// Returns the empty string when no pattern matches.
func DetectCVR(html string) string {
	for _, re := range cvrPatterns {
		if m := re.FindStringSubmatch(html); m != nil {
			return m[1]
		}
	}
	return ""
}
