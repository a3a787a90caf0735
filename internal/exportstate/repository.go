// Package exportstate tracks which highlights have already been exported,
// per book, so repeated runs never duplicate work.
//
// # Usage
//
//	repo := exportstate.NewRepository(db)
//	done, err := repo.IsExported(bookID, highlightID, hash)
//
// A highlight counts as exported only if its ID and content hash both
// match a stored entry; an edited highlight hashes differently and is
// re-exported. All writes for a book happen together after the book is
// fully processed, so a mid-book failure never leaves partial state.
package exportstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/kobo-exporter/internal/entities"
)

// Repository handles all export-state database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new export-state repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// IsExported reports whether the highlight was already exported with
// exactly this content hash.
func (r *Repository) IsExported(bookID, highlightID, contentHash string) (bool, error) {
	var rec entities.ExportedRecord
	err := r.db.Where("book_id = ? AND highlight_id = ?", bookID, highlightID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read export state: %w", err)
	}
	return rec.ContentHash == contentHash, nil
}

// MarkExported upserts the records for one fully processed book in a
// single transaction. An existing entry with the same (book, highlight)
// key is replaced, which handles edit re-exports.
func (r *Repository) MarkExported(recs []entities.ExportedRecord, exportedAt time.Time) error {
	if len(recs) == 0 {
		return nil
	}
	for i := range recs {
		recs[i].ExportedAt = exportedAt
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "book_id"}, {Name: "highlight_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content_hash", "text", "note", "position", "word_start", "context_json", "created_at", "exported_at",
		}),
	}).Create(&recs).Error
	if err != nil {
		return fmt.Errorf("failed to write export state: %w", err)
	}
	return nil
}

// RecordsForBook returns the previously exported records for a book, as
// renderable highlight records, for merging with a new run's output.
func (r *Repository) RecordsForBook(bookID string) ([]entities.HighlightRecord, error) {
	var stored []entities.ExportedRecord
	err := r.db.Where("book_id = ?", bookID).Find(&stored).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read export state: %w", err)
	}

	out := make([]entities.HighlightRecord, 0, len(stored))
	for _, rec := range stored {
		hr, err := ToHighlightRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, hr)
	}
	return out, nil
}

// FromHighlightRecord converts a built record into its persisted form.
func FromHighlightRecord(rec entities.HighlightRecord) (entities.ExportedRecord, error) {
	stored := entities.ExportedRecord{
		BookID:      rec.BookID,
		HighlightID: rec.HighlightID,
		ContentHash: rec.ContentHash,
		Text:        rec.Text,
		Note:        rec.Note,
		Position:    rec.Position,
		WordStart:   rec.WordStart,
		CreatedAt:   rec.CreatedAt,
	}
	if rec.Context != nil {
		data, err := json.Marshal(rec.Context)
		if err != nil {
			return entities.ExportedRecord{}, fmt.Errorf("failed to encode context: %w", err)
		}
		stored.ContextJSON = string(data)
	}
	return stored, nil
}

// ToHighlightRecord restores a persisted record into renderable form.
func ToHighlightRecord(stored entities.ExportedRecord) (entities.HighlightRecord, error) {
	rec := entities.HighlightRecord{
		HighlightID: stored.HighlightID,
		BookID:      stored.BookID,
		Text:        stored.Text,
		Note:        stored.Note,
		CreatedAt:   stored.CreatedAt,
		Position:    stored.Position,
		WordStart:   stored.WordStart,
		ContentHash: stored.ContentHash,
	}
	if stored.ContextJSON == "" {
		rec.ContextUnavailable = true
		return rec, nil
	}
	var win entities.ContextWindow
	if err := json.Unmarshal([]byte(stored.ContextJSON), &win); err != nil {
		return entities.HighlightRecord{}, fmt.Errorf("failed to decode context for highlight %s: %w", stored.HighlightID, err)
	}
	rec.Context = &win
	return rec, nil
}
