// Package kobo reads highlight annotations from a Kobo device database.
package kobo

import (
	"database/sql"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mrlokans/kobo-exporter/internal/entities"
)

// Annotation is one raw row from the device's Bookmark table.
type Annotation struct {
	BookmarkID string
	VolumeID   string
	ContentID  string
	Text       string
	Note       string
	Title      string
	Author     string
	CreatedAt  time.Time
}

// BookAnnotations groups one book's annotations for processing.
type BookAnnotations struct {
	Book       entities.Book
	Highlights []entities.Highlight
}

// Reader reads annotations from a (copied) KoboReader.sqlite database.
type Reader struct {
	dbPath string
}

// NewReader creates a reader for the given database path.
func NewReader(dbPath string) *Reader {
	return &Reader{dbPath: dbPath}
}

// Kobo stores timestamps in a couple of ISO-8601 variants depending on
// firmware version.
var dateFormats = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// Annotations retrieves every highlight row that carries text, joined to
// the content table for book title and attribution.
func (r *Reader) Annotations() ([]Annotation, error) {
	db, err := sql.Open("sqlite3", r.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	query := `
		SELECT
			b.BookmarkID,
			b.VolumeID,
			b.ContentID,
			b.Text,
			b.Annotation,
			b.DateCreated,
			c.Title,
			c.Attribution
		FROM Bookmark b
		LEFT JOIN content c ON b.VolumeID = c.ContentID
		WHERE b.Text IS NOT NULL AND TRIM(b.Text) != ''
		GROUP BY b.BookmarkID
		ORDER BY b.DateCreated ASC;
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	var annotations []Annotation
	for rows.Next() {
		var a Annotation
		var note, created, title, author sql.NullString

		err := rows.Scan(&a.BookmarkID, &a.VolumeID, &a.ContentID, &a.Text, &note, &created, &title, &author)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		a.Note = note.String
		a.CreatedAt = parseDate(created.String)
		a.Author = normalizeAuthor(author.String)
		a.Title = title.String
		if a.Title == "" {
			a.Title = strings.TrimSuffix(path.Base(trimVolumePrefix(a.VolumeID)), path.Ext(a.VolumeID))
		}

		annotations = append(annotations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return annotations, nil
}

// GroupByBook converts raw annotations into per-book highlight sets,
// resolving each book's EPUB path on the mounted drive. Books come back
// in first-seen order.
func GroupByBook(annotations []Annotation, drive string) []BookAnnotations {
	bookMap := make(map[string]*BookAnnotations)
	var order []string

	for _, a := range annotations {
		group, exists := bookMap[a.VolumeID]
		if !exists {
			group = &BookAnnotations{
				Book: entities.Book{
					ID:          a.VolumeID,
					Title:       a.Title,
					Author:      a.Author,
					ContentPath: ResolveContentPath(drive, a.VolumeID),
				},
			}
			bookMap[a.VolumeID] = group
			order = append(order, a.VolumeID)
		}

		group.Highlights = append(group.Highlights, entities.Highlight{
			ID:        a.BookmarkID,
			BookID:    a.VolumeID,
			Text:      a.Text,
			Note:      a.Note,
			Chapter:   ChapterHint(a.ContentID),
			CreatedAt: a.CreatedAt,
		})
	}

	books := make([]BookAnnotations, 0, len(order))
	for _, key := range order {
		books = append(books, *bookMap[key])
	}
	return books
}

// chapterIndexPrefix strips the "(14)" ordinal some firmware versions
// prepend to the internal file name.
var chapterIndexPrefix = regexp.MustCompile(`^\(\d+\)`)

// ChapterHint extracts the internal EPUB member name from a Kobo content
// ID such as "file:///mnt/onboard/book.epub#(14)OEBPS/ch14.html".
// Returns "" when the ID carries no usable fragment.
func ChapterHint(contentID string) string {
	part := contentID
	if idx := strings.Index(contentID, "#"); idx >= 0 {
		part = contentID[idx+1:]
	}
	if idx := strings.LastIndex(part, "!"); idx >= 0 {
		part = part[idx+1:]
	}
	part = chapterIndexPrefix.ReplaceAllString(part, "")
	if part == contentID {
		return ""
	}
	return part
}

// normalizeAuthor turns library-style "Last, First" attribution into
// "First Last". Multi-author strings without a comma pass through as-is.
func normalizeAuthor(author string) string {
	if author == "" {
		return "Unknown Author"
	}
	if !strings.Contains(author, ",") {
		return author
	}
	parts := strings.Split(author, ",")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, " ")
}

func trimVolumePrefix(volumeID string) string {
	return strings.TrimPrefix(volumeID, "file:///mnt/onboard/")
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
