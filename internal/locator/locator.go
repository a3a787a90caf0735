// Package locator finds a highlight's span inside a book's paragraph
// stream. Strategies are tried in order of decreasing strictness: exact
// within the hinted chapter, exact whole-book, normalized, then
// similarity-scored. Each reports a confidence so the threshold can be
// tuned without changing the pipeline shape.
package locator

import (
	"strings"
	"unicode"

	"github.com/mrlokans/kobo-exporter/internal/entities"
	"github.com/mrlokans/kobo-exporter/internal/epub"
)

const (
	confidenceExact      = 1.0
	confidenceNormalized = 0.95
)

// Locator locates highlight text in book content.
type Locator struct {
	// MinConfidence is the threshold below which Locate reports no match.
	MinConfidence float64
}

func New(minConfidence float64) *Locator {
	return &Locator{MinConfidence: minConfidence}
}

// Locate finds the best-matching span for text in doc. hint is the
// internal chapter name the device recorded for the highlight; it
// narrows the initial search and breaks ties between equally good
// matches. The second return is false when no match clears
// MinConfidence; the caller must still produce a record.
func (l *Locator) Locate(doc *epub.Document, text, hint string) (entities.Span, bool) {
	target := strings.Fields(text)
	if len(target) == 0 || doc == nil || len(doc.Paragraphs) == 0 {
		return entities.Span{}, false
	}

	hintStart, hintEnd, hasHint := doc.ChapterRange(hint)

	// Exact match inside the hinted chapter first: bounded window, not a
	// whole-book scan.
	if hasHint {
		if span, ok := findExact(doc, target, hintStart, hintEnd); ok {
			span.Confidence = confidenceExact
			return span, true
		}
	}

	if span, ok := findExactClosest(doc, target, hintStart, hasHint); ok {
		span.Confidence = confidenceExact
		return span, true
	}

	if span, ok := findNormalized(doc, target, hintStart, hasHint); ok {
		span.Confidence = confidenceNormalized
		return span, true
	}

	span, score := findFuzzy(doc, target, hintStart, hasHint)
	if score > 0 && score >= l.MinConfidence {
		span.Confidence = score
		return span, true
	}

	return entities.Span{}, false
}

// findExact scans paragraphs [from, to) for the target word sequence
// with exact string equality. First occurrence wins; the bounded window
// makes any match already the closest to the hint.
func findExact(doc *epub.Document, target []string, from, to int) (entities.Span, bool) {
	for p := from; p < to; p++ {
		words := doc.Paragraphs[p].Words
		if idx := indexOfSequence(words, target, func(a, b string) bool { return a == b }); idx >= 0 {
			return entities.Span{Paragraph: p, WordStart: idx, WordEnd: idx + len(target)}, true
		}
	}
	return entities.Span{}, false
}

// findExactClosest collects every exact occurrence in the whole book.
// Among equally good matches the one closest to the hinted chapter wins;
// without a hint the first occurrence wins.
func findExactClosest(doc *epub.Document, target []string, hintStart int, hasHint bool) (entities.Span, bool) {
	var matches []entities.Span
	for p := range doc.Paragraphs {
		words := doc.Paragraphs[p].Words
		start := 0
		for {
			idx := indexOfSequence(words[start:], target, func(a, b string) bool { return a == b })
			if idx < 0 {
				break
			}
			matches = append(matches, entities.Span{
				Paragraph: p,
				WordStart: start + idx,
				WordEnd:   start + idx + len(target),
			})
			start += idx + 1
		}
	}

	if len(matches) == 0 {
		return entities.Span{}, false
	}
	return closestToHint(matches, hintStart, hasHint), true
}

// findNormalized matches case-insensitively with surrounding punctuation
// stripped, tolerating formatting differences between the device's
// captured text and the extracted book text. Among equally good matches
// the one closest to the hinted chapter wins.
func findNormalized(doc *epub.Document, target []string, hintStart int, hasHint bool) (entities.Span, bool) {
	normTarget := normalizeWords(target)

	var matches []entities.Span
	for p := range doc.Paragraphs {
		words := normalizeWords(doc.Paragraphs[p].Words)
		start := 0
		for {
			idx := indexOfSequence(words[start:], normTarget, func(a, b string) bool { return a == b })
			if idx < 0 {
				break
			}
			matches = append(matches, entities.Span{
				Paragraph: p,
				WordStart: start + idx,
				WordEnd:   start + idx + len(normTarget),
			})
			start += idx + 1
		}
	}

	if len(matches) == 0 {
		return entities.Span{}, false
	}
	return closestToHint(matches, hintStart, hasHint), true
}

// findFuzzy slides a window of the target's length over every paragraph
// and scores the fraction of matching normalized words. Returns the
// best-scoring span; ties go to the match closest to the hint.
func findFuzzy(doc *epub.Document, target []string, hintStart int, hasHint bool) (entities.Span, float64) {
	normTarget := normalizeWords(target)

	var best []entities.Span
	bestScore := 0.0
	for p := range doc.Paragraphs {
		words := normalizeWords(doc.Paragraphs[p].Words)
		if len(words) < len(normTarget) {
			continue
		}
		for i := 0; i+len(normTarget) <= len(words); i++ {
			score := overlap(words[i:i+len(normTarget)], normTarget)
			span := entities.Span{Paragraph: p, WordStart: i, WordEnd: i + len(normTarget)}
			switch {
			case score > bestScore:
				bestScore = score
				best = []entities.Span{span}
			case score == bestScore && score > 0:
				best = append(best, span)
			}
		}
	}

	if len(best) == 0 {
		return entities.Span{}, 0
	}
	return closestToHint(best, hintStart, hasHint), bestScore
}

// closestToHint picks the span nearest the hinted chapter's first
// paragraph; without a hint the first occurrence wins.
func closestToHint(matches []entities.Span, hintStart int, hasHint bool) entities.Span {
	if !hasHint {
		return matches[0]
	}
	best := matches[0]
	bestDist := distance(best.Paragraph, hintStart)
	for _, m := range matches[1:] {
		if d := distance(m.Paragraph, hintStart); d < bestDist {
			best = m
			bestDist = d
		}
	}
	return best
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func indexOfSequence(words, target []string, eq func(a, b string) bool) int {
	if len(target) == 0 || len(words) < len(target) {
		return -1
	}
outer:
	for i := 0; i+len(target) <= len(words); i++ {
		for j := range target {
			if !eq(words[i+j], target[j]) {
				continue outer
			}
		}
		return i
	}
	return -1
}

func overlap(window, target []string) float64 {
	matched := 0
	for i := range target {
		if window[i] == target[i] {
			matched++
		}
	}
	return float64(matched) / float64(len(target))
}

func normalizeWords(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		}))
	}
	return out
}
