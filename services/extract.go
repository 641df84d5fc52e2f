package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Extracted angles must land strictly inside these rune bounds.
const (
	minAngleLength = 10
	maxAngleLength = 300
)

var (
	// Structured pass: `1. Angle: "headline"` with optional quoting.
	anglePattern = regexp.MustCompile(`(?i)\d+[.)]\s*Angle[:\s]+["']?([^"'\n]+)["']?`)

	// Fallback pass: plain numbered list items.
	listMarker     = regexp.MustCompile(`\d+[.)]`)
	nextListMarker = regexp.MustCompile(`\n\s*\d+[.)]`)
	leadingNumber  = regexp.MustCompile(`^\d+[.)]\s*`)
	angleLabel     = regexp.MustCompile(`(?i)^Angle[:\s]+`)

	quoteStripper = strings.NewReplacer(`"`, "", "'", "")
)

// ExtractIdeas pulls discrete angle texts out of a raw generation response.
// The structured pass runs first; only when it yields nothing is the numbered
// list fallback attempted. Duplicates are kept, order follows appearance, and
// candidates outside the length bounds are dropped silently. An empty result
// is a valid outcome, not an error.
func ExtractIdeas(content string) []string {
	if ideas := structuredAngles(content); len(ideas) > 0 {
		return ideas
	}
	return numberedAngles(content)
}

func structuredAngles(content string) []string {
	var ideas []string
	for _, m := range anglePattern.FindAllStringSubmatch(content, -1) {
		candidate := strings.TrimSpace(strings.Trim(m[1], `"'`))
		if acceptableAngleLength(candidate) {
			ideas = append(ideas, candidate)
		}
	}
	return ideas
}

func numberedAngles(content string) []string {
	var ideas []string
	for _, span := range numberedSpans(content) {
		candidate := leadingNumber.ReplaceAllString(span, "")
		candidate = angleLabel.ReplaceAllString(candidate, "")
		candidate = quoteStripper.Replace(candidate)
		if i := strings.IndexByte(candidate, '\n'); i >= 0 {
			// Keep only the first line: the rest is Explanation/Framework
			// continuation text.
			candidate = candidate[:i]
		}
		candidate = strings.TrimSpace(candidate)

		lower := strings.ToLower(candidate)
		if strings.HasPrefix(lower, "explanation") || strings.HasPrefix(lower, "framework") {
			// The list boundary misfired on a sub-bullet.
			continue
		}
		if acceptableAngleLength(candidate) {
			ideas = append(ideas, candidate)
		}
	}
	return ideas
}

// numberedSpans slices the text into numbered list items: each span starts at
// a `N.`/`N)` marker and runs until the next marker on a fresh line, or the
// end of input.
func numberedSpans(content string) []string {
	start := listMarker.FindStringIndex(content)
	if start == nil {
		return nil
	}
	rest := content[start[0]:]

	var spans []string
	for {
		boundary := nextListMarker.FindStringIndex(rest)
		if boundary == nil {
			spans = append(spans, rest)
			return spans
		}
		spans = append(spans, rest[:boundary[0]])
		marker := rest[boundary[0]:boundary[1]]
		digits := strings.IndexFunc(marker, unicode.IsDigit)
		rest = rest[boundary[0]+digits:]
	}
}

func acceptableAngleLength(candidate string) bool {
	n := utf8.RuneCountInString(candidate)
	return n > minAngleLength && n < maxAngleLength
}

var (
	// Labeled rating first, then any bare `<number>/10`.
	labeledRating = regexp.MustCompile(`(?i)(?:Overall Rating|Rating|Score|overall rating)[:\s]*(\d+(?:\.\d+)?)\s*(?:out of|/)?\s*10`)
	bareRating    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*/\s*10`)
)

// ExtractScore reads an overall score out of an evaluation response. No range
// clamping is applied; a missing score returns nil, which is a valid terminal
// state rather than an error.
func ExtractScore(content string) *float64 {
	m := labeledRating.FindStringSubmatch(content)
	if m == nil {
		m = bareRating.FindStringSubmatch(content)
	}
	if m == nil {
		return nil
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &score
}
