// Package aggregator merges a book's newly built records with its
// previously exported ones and puts them in reading order.
package aggregator

import (
	"sort"

	"github.com/mrlokans/kobo-exporter/internal/entities"
)

// Aggregate merges newRecords into existing and orders the result by
// original document position, falling back to highlight timestamp for
// records whose location could not be found.
//
// Merging is idempotent: records are keyed by highlight ID, a new record
// replaces an existing one with the same ID (edit re-export), and
// aggregating the same new-record set twice yields the same document.
func Aggregate(book entities.Book, newRecords, existing []entities.HighlightRecord) entities.MergedDocument {
	merged := make([]entities.HighlightRecord, 0, len(existing)+len(newRecords))
	index := make(map[string]int)

	for _, rec := range existing {
		index[rec.HighlightID] = len(merged)
		merged = append(merged, rec)
	}
	for _, rec := range newRecords {
		if i, ok := index[rec.HighlightID]; ok {
			merged[i] = rec
			continue
		}
		index[rec.HighlightID] = len(merged)
		merged = append(merged, rec)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return less(merged[i], merged[j])
	})

	return entities.MergedDocument{
		BookID:  book.ID,
		Title:   book.Title,
		Author:  book.Author,
		Records: merged,
	}
}

// less orders positioned records by document position; records without a
// position sort after them by timestamp, then by ID for stability.
func less(a, b entities.HighlightRecord) bool {
	aPos, bPos := a.Position >= 0, b.Position >= 0
	switch {
	case aPos && bPos:
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.WordStart != b.WordStart {
			return a.WordStart < b.WordStart
		}
		return a.HighlightID < b.HighlightID
	case aPos != bPos:
		return aPos
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.HighlightID < b.HighlightID
	}
}
