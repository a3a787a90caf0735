package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Book identifies one volume on the device, together with the resolved
// path to its EPUB content (empty if the file could not be found).
type Book struct {
	ID          string // Kobo volume ID, e.g. "file:///mnt/onboard/book.epub"
	Title       string
	Author      string
	ContentPath string
}

// Highlight is one annotation row from the device database.
type Highlight struct {
	ID        string // stable bookmark ID from the annotation store
	BookID    string
	Text      string
	Note      string
	Chapter   string // internal EPUB member name, used as a location hint
	CreatedAt time.Time
}

// ContentHash fingerprints the user-visible content of a highlight.
// A highlight whose text or note was edited on the device hashes
// differently and is re-exported.
func (h Highlight) ContentHash() string {
	sum := sha256.Sum256([]byte(h.Text + "\x00" + h.Note))
	return hex.EncodeToString(sum[:])
}

// Span is a located highlight inside a book's paragraph stream.
// Word offsets index into the paragraph's whitespace-split words.
type Span struct {
	Paragraph  int
	WordStart  int
	WordEnd    int // exclusive
	Confidence float64
}

// ContextWindow is the surrounding material recovered for a located
// highlight. The highlighted text itself is kept verbatim and separate
// from the context so renderers can mark it distinctly.
type ContextWindow struct {
	Before    []string `json:"before,omitempty"` // whole paragraphs preceding the highlight's paragraph
	Prefix    string   `json:"prefix,omitempty"` // words in the highlight's paragraph before the span
	Highlight string   `json:"highlight"`        // the span text as it appears in the book content
	Suffix    string   `json:"suffix,omitempty"`
	After     []string `json:"after,omitempty"`
	Elided    bool     `json:"elided,omitempty"` // word-budget mode: window starts/ends mid-paragraph
}

// ContextWords counts the words surrounding the highlight, excluding the
// highlighted span itself.
func (w ContextWindow) ContextWords() int {
	n := countWords(w.Prefix) + countWords(w.Suffix)
	for _, p := range w.Before {
		n += countWords(p)
	}
	for _, p := range w.After {
		n += countWords(p)
	}
	return n
}

func countWords(s string) int {
	n := 0
	inWord := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}

// HighlightRecord is one renderable unit: the highlight combined with
// its expanded context. Position is the paragraph index of the located
// span, or -1 when the locator failed.
type HighlightRecord struct {
	HighlightID        string
	BookID             string
	Text               string
	Note               string
	CreatedAt          time.Time
	Context            *ContextWindow
	ContextUnavailable bool
	Position           int
	WordStart          int
	ContentHash        string
}

// MergedDocument is the per-book output unit handed to the renderer:
// all records for one book, new and previously exported, in reading order.
type MergedDocument struct {
	BookID  string
	Title   string
	Author  string
	Records []HighlightRecord
}

// ExportedRecord persists one exported highlight so subsequent runs can
// skip it (same content hash) or replace it (changed hash). The full
// record is stored so the per-book document can be rebuilt and merged
// without re-reading book content.
type ExportedRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BookID      string    `gorm:"uniqueIndex:idx_book_highlight;size:512" json:"book_id"`
	HighlightID string    `gorm:"uniqueIndex:idx_book_highlight;size:64" json:"highlight_id"`
	ContentHash string    `gorm:"size:64" json:"content_hash"`
	Text        string    `gorm:"type:text" json:"text"`
	Note        string    `gorm:"type:text" json:"note,omitempty"`
	Position    int       `json:"position"`
	WordStart   int       `json:"word_start"`
	ContextJSON string    `gorm:"type:text" json:"context_json,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExportedAt  time.Time `json:"exported_at"`
}

func (ExportedRecord) TableName() string {
	return "exported_records"
}
