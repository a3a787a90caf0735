// Package records normalizes one highlight plus its expanded context
// into a renderable unit.
package records

import (
	"github.com/mrlokans/kobo-exporter/internal/entities"
)

// Build combines a highlight with its context window into a
// HighlightRecord. span and window are nil when the locator found no
// match; the record is then flagged context-unavailable but still carries
// the highlight text and note, so a highlight never silently disappears.
//
// Build is deterministic: the only time-dependent field is the
// highlight's own stored timestamp.
func Build(h entities.Highlight, span *entities.Span, window *entities.ContextWindow) entities.HighlightRecord {
	rec := entities.HighlightRecord{
		HighlightID: h.ID,
		BookID:      h.BookID,
		Text:        h.Text,
		Note:        h.Note,
		CreatedAt:   h.CreatedAt,
		Position:    -1,
		ContentHash: h.ContentHash(),
	}

	if span == nil || window == nil {
		rec.ContextUnavailable = true
		return rec
	}

	rec.Context = window
	rec.Position = span.Paragraph
	rec.WordStart = span.WordStart
	return rec
}
