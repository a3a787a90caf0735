// Package epub loads a book's text as a single linear paragraph stream.
//
// An EPUB is a zip of XHTML content documents. Each document contributes
// an ordered run of text blocks; the runs are concatenated in archive
// order. No attempt is made to reconstruct the format beyond that: the
// locator and expander only need ordered paragraphs.
package epub

import (
	"archive/zip"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelector matches the elements treated as paragraphs. Mirrors the
// block set highlight anchors point into on the device.
const blockSelector = "p, div, li, blockquote, h1, h2, h3"

var contentExtensions = []string{".xhtml", ".html", ".htm", ".xml"}

// Paragraph is one text block, pre-split into whitespace-normalized words.
type Paragraph struct {
	Chapter string // internal archive member the block came from
	Words   []string
}

// Text returns the paragraph with normalized single-space separation.
func (p Paragraph) Text() string {
	return strings.Join(p.Words, " ")
}

// Document is a book's full content as an ordered paragraph sequence.
// Immutable once loaded for a run.
type Document struct {
	Paragraphs []Paragraph
}

// Load reads the EPUB at path and extracts its paragraph stream.
func Load(path string) (*Document, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub %s: %w", path, err)
	}
	defer r.Close()

	doc := &Document{}
	for _, f := range r.File {
		if !isContentFile(f.Name) {
			continue
		}
		paragraphs, err := parseMember(f)
		if err != nil {
			// A single unreadable chapter should not lose the book.
			log.Printf("WARNING: skipping unreadable member %s in %s: %v", f.Name, path, err)
			continue
		}
		doc.Paragraphs = append(doc.Paragraphs, paragraphs...)
	}

	if len(doc.Paragraphs) == 0 {
		return nil, fmt.Errorf("no text content found in %s", path)
	}

	return doc, nil
}

func isContentFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range contentExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func parseMember(f *zip.File) ([]Paragraph, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open member %s: %w", f.Name, err)
	}
	defer rc.Close()

	gq, err := goquery.NewDocumentFromReader(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse member %s: %w", f.Name, err)
	}

	var paragraphs []Paragraph
	gq.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Container divs would duplicate the text of their children.
		if goquery.NodeName(s) == "div" && s.ChildrenFiltered(blockSelector).Length() > 0 {
			return
		}
		words := strings.Fields(s.Text())
		if len(words) == 0 {
			return
		}
		paragraphs = append(paragraphs, Paragraph{Chapter: f.Name, Words: words})
	})

	return paragraphs, nil
}

// ChapterRange returns the half-open paragraph index range belonging to
// the archive member whose name contains hint, or ok=false if no member
// matches. Used to bound the locator's initial search window.
func (d *Document) ChapterRange(hint string) (start, end int, ok bool) {
	if hint == "" {
		return 0, 0, false
	}
	start = -1
	for i, p := range d.Paragraphs {
		if strings.Contains(p.Chapter, hint) {
			if start == -1 {
				start = i
			}
			end = i + 1
		} else if start != -1 && end > start {
			// Members are contiguous in archive order; past the run.
			break
		}
	}
	if start == -1 {
		return 0, 0, false
	}
	return start, end, true
}
