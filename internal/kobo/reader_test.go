package kobo

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// createTestDatabase builds a minimal KoboReader.sqlite lookalike.
func createTestDatabase(t *testing.T) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "KoboReader.sqlite")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE Bookmark (
			BookmarkID TEXT PRIMARY KEY,
			VolumeID TEXT,
			ContentID TEXT,
			Text TEXT,
			Annotation TEXT,
			DateCreated TEXT
		);
		CREATE TABLE content (
			ContentID TEXT PRIMARY KEY,
			Title TEXT,
			Attribution TEXT
		);
	`)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	inserts := []struct {
		query string
		args  []any
	}{
		{
			`INSERT INTO content (ContentID, Title, Attribution) VALUES (?, ?, ?)`,
			[]any{"file:///mnt/onboard/dune.epub", "Dune", "Herbert, Frank"},
		},
		{
			`INSERT INTO Bookmark VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"bm-1", "file:///mnt/onboard/dune.epub", "file:///mnt/onboard/dune.epub#(4)OEBPS/ch04.xhtml",
				"Fear is the mind-killer", "classic", "2025-11-03T21:14:00.000"},
		},
		{
			`INSERT INTO Bookmark VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"bm-2", "file:///mnt/onboard/dune.epub", "file:///mnt/onboard/dune.epub#(5)OEBPS/ch05.xhtml",
				"The sleeper must awaken", nil, "2025-11-04T08:00:00.000"},
		},
		{
			// Text-less rows (page bookmarks) must be skipped.
			`INSERT INTO Bookmark VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"bm-3", "file:///mnt/onboard/dune.epub", "file:///mnt/onboard/dune.epub#(6)OEBPS/ch06.xhtml",
				nil, nil, "2025-11-04T09:00:00.000"},
		},
		{
			// A book missing from the content table falls back to its filename.
			`INSERT INTO Bookmark VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"bm-4", "file:///mnt/onboard/sideloaded.epub", "file:///mnt/onboard/sideloaded.epub#(1)index.html",
				"Some sideloaded wisdom", nil, "2025-11-05T10:30:00.000"},
		},
	}
	for _, ins := range inserts {
		if _, err := db.Exec(ins.query, ins.args...); err != nil {
			t.Fatalf("failed to insert fixture row: %v", err)
		}
	}

	return dbPath
}

func TestReader_Annotations(t *testing.T) {
	reader := NewReader(createTestDatabase(t))

	annotations, err := reader.Annotations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(annotations) != 3 {
		t.Fatalf("expected 3 annotations (text-less row skipped), got %d", len(annotations))
	}

	first := annotations[0]
	if first.BookmarkID != "bm-1" {
		t.Errorf("expected bm-1 first (creation order), got %s", first.BookmarkID)
	}
	if first.Text != "Fear is the mind-killer" {
		t.Errorf("unexpected text: %q", first.Text)
	}
	if first.Note != "classic" {
		t.Errorf("unexpected note: %q", first.Note)
	}
	if first.Title != "Dune" {
		t.Errorf("unexpected title: %q", first.Title)
	}
	if first.Author != "Frank Herbert" {
		t.Errorf("attribution not normalized: %q", first.Author)
	}
	want := time.Date(2025, 11, 3, 21, 14, 0, 0, time.UTC)
	if !first.CreatedAt.Equal(want) {
		t.Errorf("unexpected timestamp: %v", first.CreatedAt)
	}

	sideloaded := annotations[2]
	if sideloaded.Title != "sideloaded" {
		t.Errorf("expected filename fallback title, got %q", sideloaded.Title)
	}
	if sideloaded.Author != "Unknown Author" {
		t.Errorf("expected unknown author fallback, got %q", sideloaded.Author)
	}
}

func TestGroupByBook(t *testing.T) {
	reader := NewReader(createTestDatabase(t))
	annotations, err := reader.Annotations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	books := GroupByBook(annotations, t.TempDir())

	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
	if books[0].Book.Title != "Dune" || len(books[0].Highlights) != 2 {
		t.Errorf("unexpected first group: %s with %d highlights", books[0].Book.Title, len(books[0].Highlights))
	}
	if books[0].Highlights[0].Chapter != "OEBPS/ch04.xhtml" {
		t.Errorf("chapter hint not extracted: %q", books[0].Highlights[0].Chapter)
	}
	// Content files don't exist under the fake drive.
	if books[0].Book.ContentPath != "" {
		t.Errorf("expected empty content path, got %q", books[0].Book.ContentPath)
	}
}

func TestChapterHint(t *testing.T) {
	tests := []struct {
		contentID string
		want      string
	}{
		{"file:///mnt/onboard/dune.epub#(4)OEBPS/ch04.xhtml", "OEBPS/ch04.xhtml"},
		{"file:///mnt/onboard/dune.epub#OEBPS/ch04.xhtml", "OEBPS/ch04.xhtml"},
		{"file:///mnt/onboard/book.kepub.epub#!!OEBPS/part2.html", "OEBPS/part2.html"},
		{"file:///mnt/onboard/dune.epub", ""},
	}

	for _, tt := range tests {
		if got := ChapterHint(tt.contentID); got != tt.want {
			t.Errorf("ChapterHint(%q) = %q, want %q", tt.contentID, got, tt.want)
		}
	}
}

func TestNormalizeAuthor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Herbert, Frank", "Frank Herbert"},
		{"Ursula K. Le Guin", "Ursula K. Le Guin"},
		{"", "Unknown Author"},
	}

	for _, tt := range tests {
		if got := normalizeAuthor(tt.in); got != tt.want {
			t.Errorf("normalizeAuthor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDate_Formats(t *testing.T) {
	want := time.Date(2025, 11, 3, 21, 14, 0, 0, time.UTC)
	for _, s := range []string{
		"2025-11-03T21:14:00.000",
		"2025-11-03T21:14:00Z",
		"2025-11-03T21:14:00",
	} {
		if got := parseDate(s); !got.Equal(want) {
			t.Errorf("parseDate(%q) = %v", s, got)
		}
	}
	if !parseDate("garbage").IsZero() {
		t.Error("unparseable dates must come back zero")
	}
}

func TestResolveContentPath(t *testing.T) {
	drive := t.TempDir()
	if err := os.WriteFile(filepath.Join(drive, "dune.epub"), []byte("zip"), 0644); err != nil {
		t.Fatal(err)
	}
	kepubDir := filepath.Join(drive, ".kobo", "kepub")
	if err := os.MkdirAll(kepubDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(kepubDir, "cached.epub"), []byte("zip"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := ResolveContentPath(drive, "file:///mnt/onboard/dune.epub"); got != filepath.Join(drive, "dune.epub") {
		t.Errorf("direct path not resolved: %q", got)
	}
	if got := ResolveContentPath(drive, "file:///mnt/onboard/cached.epub"); got != filepath.Join(kepubDir, "cached.epub") {
		t.Errorf("kepub fallback not resolved: %q", got)
	}
	if got := ResolveContentPath(drive, "file:///mnt/onboard/gone.epub"); got != "" {
		t.Errorf("missing file should resolve to empty, got %q", got)
	}
}
