// Package contextwin grows a window of surrounding text around a located
// highlight span.
//
// Two modes exist: whole-paragraph expansion and a word budget that grows
// outward from the span without leaving its paragraph. When both limits
// are configured the word budget trims the paragraph window, so the
// smaller resulting window wins and neither limit is ever exceeded.
// Expansion truncates silently at the book's edges and never crosses a
// chapter boundary.
package contextwin

import (
	"strings"

	"github.com/mrlokans/kobo-exporter/internal/entities"
	"github.com/mrlokans/kobo-exporter/internal/epub"
)

type Config struct {
	Paragraphs int // whole paragraphs to include before/after
	Words      int // word budget on each side of the span
	MaxWords   int // hard cap on total context words, 0 = uncapped
}

// Expand builds the context window for span. The highlighted words are
// carried verbatim from the book content and kept separate from the
// surrounding material.
func Expand(doc *epub.Document, span entities.Span, cfg Config) entities.ContextWindow {
	switch {
	case cfg.Words > 0 && cfg.Paragraphs > 0:
		// Both limits apply: the paragraph count bounds the window's
		// paragraph units, the word budget trims whatever exceeds it,
		// so the smaller resulting window wins.
		win := expandParagraphs(doc, span, cfg.Paragraphs)
		return trimToBudget(win, perSideBudget(cfg))
	case cfg.Words > 0:
		return expandWords(doc, span, cfg)
	case cfg.Paragraphs > 0:
		return expandParagraphs(doc, span, cfg.Paragraphs)
	default:
		return expandParagraphs(doc, span, 1)
	}
}

// expandParagraphs includes up to n whole paragraphs on each side of the
// span's paragraph, staying inside its chapter. A span near the book's
// start or end gets a truncated, never padded, window.
func expandParagraphs(doc *epub.Document, span entities.Span, n int) entities.ContextWindow {
	win := highlightParts(doc, span)
	chapter := doc.Paragraphs[span.Paragraph].Chapter

	for p := span.Paragraph - 1; p >= 0 && p >= span.Paragraph-n; p-- {
		if doc.Paragraphs[p].Chapter != chapter {
			break
		}
		win.Before = append([]string{doc.Paragraphs[p].Text()}, win.Before...)
	}
	for p := span.Paragraph + 1; p < len(doc.Paragraphs) && p <= span.Paragraph+n; p++ {
		if doc.Paragraphs[p].Chapter != chapter {
			break
		}
		win.After = append(win.After, doc.Paragraphs[p].Text())
	}

	return win
}

// perSideBudget is the word allowance on each side of the span, capped
// so the total never exceeds MaxWords.
func perSideBudget(cfg Config) int {
	budget := cfg.Words
	if cfg.MaxWords > 0 && budget*2 > cfg.MaxWords {
		budget = cfg.MaxWords / 2
	}
	return budget
}

// expandWords grows word-by-word outward from the span until the budget
// is exhausted, stopping at the paragraph's edges if reached first.
func expandWords(doc *epub.Document, span entities.Span, cfg Config) entities.ContextWindow {
	budget := perSideBudget(cfg)

	words := doc.Paragraphs[span.Paragraph].Words

	prefixStart := span.WordStart - budget
	if prefixStart < 0 {
		prefixStart = 0
	}
	suffixEnd := span.WordEnd + budget
	if suffixEnd > len(words) {
		suffixEnd = len(words)
	}

	return entities.ContextWindow{
		Prefix:    strings.Join(words[prefixStart:span.WordStart], " "),
		Highlight: strings.Join(words[span.WordStart:span.WordEnd], " "),
		Suffix:    strings.Join(words[span.WordEnd:suffixEnd], " "),
		Elided:    true,
	}
}

// trimToBudget cuts each side of a paragraph window down to at most
// budget words, keeping the words nearest the span. Whole paragraphs
// that fall entirely outside the budget are dropped; a partially kept
// paragraph becomes a word-bounded substring. Any trim marks the window
// elided so renderers show the cut.
func trimToBudget(win entities.ContextWindow, budget int) entities.ContextWindow {
	prefix := strings.Fields(win.Prefix)
	suffix := strings.Fields(win.Suffix)

	trimmed := false

	// Before side: words counted outward from the span.
	if len(prefix) >= budget {
		if len(prefix) > budget || len(win.Before) > 0 {
			trimmed = true
		}
		win.Prefix = strings.Join(prefix[len(prefix)-budget:], " ")
		win.Before = nil
	} else {
		remaining := budget - len(prefix)
		var kept []string
		for i := len(win.Before) - 1; i >= 0; i-- {
			words := strings.Fields(win.Before[i])
			if len(words) <= remaining {
				kept = append([]string{win.Before[i]}, kept...)
				remaining -= len(words)
				continue
			}
			if remaining > 0 {
				kept = append([]string{strings.Join(words[len(words)-remaining:], " ")}, kept...)
			}
			trimmed = true
			break
		}
		win.Before = kept
	}

	// After side, symmetric.
	if len(suffix) >= budget {
		if len(suffix) > budget || len(win.After) > 0 {
			trimmed = true
		}
		win.Suffix = strings.Join(suffix[:budget], " ")
		win.After = nil
	} else {
		remaining := budget - len(suffix)
		var kept []string
		for _, para := range win.After {
			words := strings.Fields(para)
			if len(words) <= remaining {
				kept = append(kept, para)
				remaining -= len(words)
				continue
			}
			if remaining > 0 {
				kept = append(kept, strings.Join(words[:remaining], " "))
			}
			trimmed = true
			break
		}
		win.After = kept
	}

	if trimmed {
		win.Elided = true
	}
	return win
}

func highlightParts(doc *epub.Document, span entities.Span) entities.ContextWindow {
	words := doc.Paragraphs[span.Paragraph].Words
	return entities.ContextWindow{
		Prefix:    strings.Join(words[:span.WordStart], " "),
		Highlight: strings.Join(words[span.WordStart:span.WordEnd], " "),
		Suffix:    strings.Join(words[span.WordEnd:], " "),
	}
}
