package locator

import (
	"strings"
	"testing"

	"github.com/mrlokans/kobo-exporter/internal/epub"
)

func makeDoc(chapters map[string][]string, order []string) *epub.Document {
	doc := &epub.Document{}
	for _, chapter := range order {
		for _, text := range chapters[chapter] {
			doc.Paragraphs = append(doc.Paragraphs, epub.Paragraph{
				Chapter: chapter,
				Words:   strings.Fields(text),
			})
		}
	}
	return doc
}

func TestLocator_ExactMatch(t *testing.T) {
	doc := makeDoc(map[string][]string{
		"ch1.html": {
			"The quick brown fox jumps over the lazy dog",
			"Pack my box with five dozen liquor jugs",
		},
	}, []string{"ch1.html"})

	loc := New(0.6)
	span, ok := loc.Locate(doc, "five dozen liquor", "")
	if !ok {
		t.Fatal("expected a match")
	}
	if span.Paragraph != 1 {
		t.Errorf("expected paragraph 1, got %d", span.Paragraph)
	}
	if span.WordStart != 4 || span.WordEnd != 7 {
		t.Errorf("expected words [4, 7), got [%d, %d)", span.WordStart, span.WordEnd)
	}
	if span.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", span.Confidence)
	}
}

func TestLocator_HintWindowSearchedFirst(t *testing.T) {
	doc := makeDoc(map[string][]string{
		"ch1.html": {"the meaning of life is elsewhere"},
		"ch2.html": {"the meaning of life is elsewhere"},
	}, []string{"ch1.html", "ch2.html"})

	loc := New(0.6)
	span, ok := loc.Locate(doc, "the meaning of life", "ch2.html")
	if !ok {
		t.Fatal("expected a match")
	}
	if span.Paragraph != 1 {
		t.Errorf("expected the hinted chapter's paragraph 1, got %d", span.Paragraph)
	}
}

func TestLocator_FirstOccurrenceWithoutHint(t *testing.T) {
	doc := makeDoc(map[string][]string{
		"ch1.html": {"repeated passage here", "repeated passage here"},
	}, []string{"ch1.html"})

	loc := New(0.6)
	span, ok := loc.Locate(doc, "repeated passage here", "")
	if !ok {
		t.Fatal("expected a match")
	}
	if span.Paragraph != 0 {
		t.Errorf("expected first occurrence in paragraph 0, got %d", span.Paragraph)
	}
}

func TestLocator_NormalizedMatch(t *testing.T) {
	doc := makeDoc(map[string][]string{
		"ch1.html": {`He said: "Nothing ever happens, twice."`},
	}, []string{"ch1.html"})

	loc := New(0.6)
	// Device captured the text without punctuation and with different case.
	span, ok := loc.Locate(doc, "nothing ever happens twice", "")
	if !ok {
		t.Fatal("expected a normalized match")
	}
	if span.Paragraph != 0 || span.WordStart != 2 {
		t.Errorf("unexpected span: %+v", span)
	}
	if span.Confidence >= 1.0 {
		t.Errorf("normalized match should have confidence below exact, got %v", span.Confidence)
	}
}

func TestLocator_FuzzyMatchToleratesEditedWord(t *testing.T) {
	doc := makeDoc(map[string][]string{
		"ch1.html": {"in the beginning there was only darkness and silence everywhere"},
	}, []string{"ch1.html"})

	loc := New(0.6)
	// One word differs from the book content.
	span, ok := loc.Locate(doc, "beginning there was only darkness and stillness", "")
	if !ok {
		t.Fatal("expected a fuzzy match")
	}
	if span.Paragraph != 0 || span.WordStart != 2 {
		t.Errorf("unexpected span: %+v", span)
	}
	if span.Confidence <= 0.6 || span.Confidence >= 1.0 {
		t.Errorf("unexpected fuzzy confidence %v", span.Confidence)
	}
}

func TestLocator_NotFoundBelowThreshold(t *testing.T) {
	doc := makeDoc(map[string][]string{
		"ch1.html": {"completely unrelated content about gardening techniques"},
	}, []string{"ch1.html"})

	loc := New(0.6)
	_, ok := loc.Locate(doc, "quantum chromodynamics lattice simulation results", "")
	if ok {
		t.Fatal("expected no match for unrelated text")
	}
}

func TestLocator_EmptyInputs(t *testing.T) {
	loc := New(0.6)

	if _, ok := loc.Locate(nil, "some text", ""); ok {
		t.Error("nil document should not match")
	}

	doc := makeDoc(map[string][]string{"ch1.html": {"some words"}}, []string{"ch1.html"})
	if _, ok := loc.Locate(doc, "   ", ""); ok {
		t.Error("blank highlight text should not match")
	}
}

func TestLocator_TieBreakClosestToHint(t *testing.T) {
	doc := makeDoc(map[string][]string{
		"ch1.html": {"Some other text", "shared Phrase appears"},
		"ch5.html": {"shared Phrase appears", "trailing paragraph"},
	}, []string{"ch1.html", "ch5.html"})

	loc := New(0.6)
	// Case difference forces the normalized strategy, which sees both
	// occurrences; the hint decides.
	span, ok := loc.Locate(doc, "shared phrase appears", "ch5.html")
	if !ok {
		t.Fatal("expected a match")
	}
	if span.Paragraph != 2 {
		t.Errorf("expected match closest to hinted chapter (paragraph 2), got %d", span.Paragraph)
	}
}

func TestLocator_ExactTieBreakClosestToHint(t *testing.T) {
	doc := makeDoc(map[string][]string{
		"ch1.html": {"shared phrase appears", "filler one", "filler two"},
		"ch3.html": {"middle chapter without the text"},
		"ch5.html": {"shared phrase appears"},
	}, []string{"ch1.html", "ch3.html", "ch5.html"})

	loc := New(0.6)
	// The text occurs verbatim in two chapters; the hinted chapter holds
	// neither, so the whole-book exact fallback must still prefer the
	// occurrence nearest the hint.
	span, ok := loc.Locate(doc, "shared phrase appears", "ch3.html")
	if !ok {
		t.Fatal("expected a match")
	}
	if span.Paragraph != 4 {
		t.Errorf("expected the occurrence closest to the hint (paragraph 4), got %d", span.Paragraph)
	}
	if span.Confidence != 1.0 {
		t.Errorf("expected an exact-match confidence of 1.0, got %v", span.Confidence)
	}
}
