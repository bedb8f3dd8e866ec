package services

import (
	"strings"
	"unicode/utf8"
)

// HeadingStrategyV1 is the version of the built-in heading markers.
const HeadingStrategyV1 = "v1"

// HeadingStrategyCustom marks a marker list supplied through settings.
const HeadingStrategyCustom = "custom"

// maxHeadingLength is the longest line, in characters, treated as a heading.
const maxHeadingLength = 100

// HeadingStrategy decides which lines of plain text start a section.
// A line is a heading when, after trimming, it is non-empty, no longer than
// maxHeadingLength characters, and starts with one of Markers.
type HeadingStrategy struct {
	// Version identifies the marker list for diagnostics and stored runs.
	Version string

	// Markers are the prefixes that introduce a heading.
	Markers []string
}

// DefaultHeadingStrategy returns the v1 markers: Chinese chapter and section
// words, enumerations such as "一、" and "（一）", and numbered lines "1." to "5.".
func DefaultHeadingStrategy() HeadingStrategy {
	return HeadingStrategy{
		Version: HeadingStrategyV1,
		Markers: []string{
			"第", "章", "节",
			"一、", "二、", "三、", "四、", "五、",
			"1.", "2.", "3.", "4.", "5.",
			"（一）", "（二）", "（三）",
		},
	}
}

// HeadingStrategyFor returns a custom strategy when markers are given,
// and the default otherwise.
func HeadingStrategyFor(markers []string) HeadingStrategy {
	cleaned := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			cleaned = append(cleaned, m)
		}
	}
	if len(cleaned) == 0 {
		return DefaultHeadingStrategy()
	}
	return HeadingStrategy{Version: HeadingStrategyCustom, Markers: cleaned}
}

// IsHeading reports whether line is a heading.
func (h HeadingStrategy) IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || utf8.RuneCountInString(line) > maxHeadingLength {
		return false
	}
	for _, m := range h.Markers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}
