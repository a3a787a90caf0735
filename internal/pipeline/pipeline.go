// Package pipeline orchestrates one export run: for every book, locate
// each new highlight in the book content, expand its context, build a
// record, merge with previously exported records and render the result.
//
// Books are processed sequentially and independently; a book whose
// content is missing or corrupt only degrades its own records. Export
// state is written once per book, after the book is fully processed, so
// a failure mid-book never leaves partial state behind.
package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mrlokans/kobo-exporter/internal/aggregator"
	"github.com/mrlokans/kobo-exporter/internal/contextwin"
	"github.com/mrlokans/kobo-exporter/internal/entities"
	"github.com/mrlokans/kobo-exporter/internal/epub"
	"github.com/mrlokans/kobo-exporter/internal/exporters"
	"github.com/mrlokans/kobo-exporter/internal/exportstate"
	"github.com/mrlokans/kobo-exporter/internal/kobo"
	"github.com/mrlokans/kobo-exporter/internal/locator"
	"github.com/mrlokans/kobo-exporter/internal/records"
)

// RunResult summarizes one export run.
type RunResult struct {
	Books          int
	Highlights     int // newly exported highlights
	Notes          int // newly exported highlights carrying a user note
	Skipped        int // unchanged highlights left alone
	MissingContext int // exported without context (locator or content failure)
	FailedBooks    int // books whose output could not be written
	Files          []string
}

// Pipeline wires the locator, expander, state tracker and exporter.
type Pipeline struct {
	locator  *locator.Locator
	window   contextwin.Config
	state    *exportstate.Repository
	exporter *exporters.HTMLExporter

	// loadContent is swappable in tests.
	loadContent func(path string) (*epub.Document, error)
	now         func() time.Time
	// ShowProgress draws a progress bar on stderr during the run.
	ShowProgress bool
}

func New(loc *locator.Locator, window contextwin.Config, state *exportstate.Repository, exporter *exporters.HTMLExporter) *Pipeline {
	return &Pipeline{
		locator:     loc,
		window:      window,
		state:       state,
		exporter:    exporter,
		loadContent: epub.Load,
		now:         time.Now,
	}
}

// Run processes every book's annotations. State-store failures abort the
// run; everything else degrades per book or per highlight.
func (p *Pipeline) Run(books []kobo.BookAnnotations) (RunResult, error) {
	var result RunResult

	var bar *progressbar.ProgressBar
	if p.ShowProgress {
		total := 0
		for _, b := range books {
			total += len(b.Highlights)
		}
		bar = progressbar.Default(int64(total), "exporting")
	}

	exportedAt := p.now()

	for _, book := range books {
		if err := p.processBook(book, exportedAt, &result, bar); err != nil {
			return result, fmt.Errorf("processing %q: %w", book.Book.Title, err)
		}
	}

	return result, nil
}

func (p *Pipeline) processBook(book kobo.BookAnnotations, exportedAt time.Time, result *RunResult, bar *progressbar.ProgressBar) error {
	newHighlights, skipped, err := p.filterExported(book)
	if err != nil {
		return err
	}
	result.Skipped += skipped
	if bar != nil {
		_ = bar.Add(skipped)
	}

	if len(newHighlights) == 0 {
		return nil
	}

	doc := p.loadBookContent(book.Book)

	newRecords := make([]entities.HighlightRecord, 0, len(newHighlights))
	for _, h := range newHighlights {
		rec := p.buildRecord(doc, h, book.Book)
		if rec.ContextUnavailable {
			result.MissingContext++
		}
		if rec.Note != "" {
			result.Notes++
		}
		newRecords = append(newRecords, rec)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	existing, err := p.state.RecordsForBook(book.Book.ID)
	if err != nil {
		return err
	}

	merged := aggregator.Aggregate(book.Book, newRecords, existing)

	path, err := p.exporter.Export(merged, exportedAt)
	if err != nil {
		// The book's state stays untouched so the next run retries it.
		log.Printf("WARNING: failed to export %q: %v", book.Book.Title, err)
		result.FailedBooks++
		return nil
	}

	stored := make([]entities.ExportedRecord, 0, len(newRecords))
	for _, rec := range newRecords {
		sr, err := exportstate.FromHighlightRecord(rec)
		if err != nil {
			return err
		}
		stored = append(stored, sr)
	}
	if err := p.state.MarkExported(stored, exportedAt); err != nil {
		return err
	}

	result.Books++
	result.Highlights += len(newRecords)
	result.Files = append(result.Files, path)
	return nil
}

// filterExported drops highlights whose ID and content hash already have
// a state entry. An edited highlight hashes differently and passes
// through for re-export.
func (p *Pipeline) filterExported(book kobo.BookAnnotations) (fresh []entities.Highlight, skipped int, err error) {
	for _, h := range book.Highlights {
		done, err := p.state.IsExported(h.BookID, h.ID, h.ContentHash())
		if err != nil {
			return nil, 0, err
		}
		if done {
			skipped++
			continue
		}
		fresh = append(fresh, h)
	}
	return fresh, skipped, nil
}

func (p *Pipeline) loadBookContent(book entities.Book) *epub.Document {
	if book.ContentPath == "" {
		log.Printf("WARNING: no content file for %q, exporting without context", book.Title)
		return nil
	}
	doc, err := p.loadContent(book.ContentPath)
	if err != nil {
		log.Printf("WARNING: failed to read content for %q: %v", book.Title, err)
		return nil
	}
	return doc
}

// buildRecord locates the highlight, expands its context and builds the
// record. A failed location downgrades to a context-unavailable record,
// never an error: a highlight must not silently disappear.
func (p *Pipeline) buildRecord(doc *epub.Document, h entities.Highlight, book entities.Book) entities.HighlightRecord {
	if doc == nil {
		return records.Build(h, nil, nil)
	}

	span, ok := p.locator.Locate(doc, h.Text, h.Chapter)
	if !ok {
		log.Printf("WARNING: highlight %s not found in %q", h.ID, book.Title)
		return records.Build(h, nil, nil)
	}

	window := contextwin.Expand(doc, span, p.window)
	return records.Build(h, &span, &window)
}
