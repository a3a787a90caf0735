// Package exporters renders merged documents to per-book HTML files.
package exporters

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/mrlokans/kobo-exporter/internal/entities"
	"github.com/mrlokans/kobo-exporter/internal/utils"
)

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { font-family: 'Georgia', serif; line-height: 1.7; max-width: 850px; margin: auto; padding: 30px; background: #fdfdfd; }
.header-section { display: flex; justify-content: space-between; align-items: flex-start; margin-bottom: 30px; }
h1 { margin: 0; padding: 0; }
h3 { margin: 5px 0 0 0; padding: 0; }
.export-date { font-size: 0.75rem; color: #888; text-align: right; }
.note-block { border-left: 5px solid #3498db; padding: 20px; margin: 30px 0; background: #fff; box-shadow: 0 2px 8px rgba(0,0,0,0.05); }
mark { background: #fff176; font-weight: normal; color: black; padding: 2px; }
.user-note { margin-top: 15px; padding: 12px; background: #eef7fe; border-radius: 5px; font-style: italic; }
.missing-context { color: #888; font-style: italic; }
</style>
</head>
<body>
<div class="header-section">
  <div class="title-author">
    <h1>{{.Title}}</h1>
    <h3>{{.Author}}</h3>
  </div>
  <div class="export-date">Exported: {{.ExportedAt}}</div>
</div>
<hr>
{{range .Records}}<div class="note-block">
{{- if .ContextUnavailable}}
  <p><span class="missing-context">[Source file missing/encrypted]</span> <mark>{{.Text}}</mark></p>
{{- else}}
  {{- range .Before}}
  <p>{{.}}</p>
  {{- end}}
  <p>{{if .Elided}}&hellip; {{end}}{{.Prefix}} <mark>{{.Highlight}}</mark> {{.Suffix}}{{if .Elided}} &hellip;{{end}}</p>
  {{- range .After}}
  <p>{{.}}</p>
  {{- end}}
{{- end}}
{{- if .Note}}
  <div class="user-note"><b>My Note:</b> {{.Note}}</div>
{{- end}}
</div>
{{end}}</body>
</html>
`

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

type recordView struct {
	ContextUnavailable bool
	Text               string
	Note               string
	Before             []string
	Prefix             string
	Highlight          string
	Suffix             string
	After              []string
	Elided             bool
}

type documentView struct {
	Title      string
	Author     string
	ExportedAt string
	Records    []recordView
}

// HTMLExporter writes one HTML file per book into OutputDir. Files are
// rewritten whole on every export, so re-running with the same merged
// document is idempotent.
type HTMLExporter struct {
	OutputDir string
}

func NewHTMLExporter(outputDir string) *HTMLExporter {
	return &HTMLExporter{OutputDir: outputDir}
}

// Render produces the HTML for a merged document. Deterministic for a
// fixed exportedAt.
func (e *HTMLExporter) Render(doc entities.MergedDocument, exportedAt time.Time) ([]byte, error) {
	view := documentView{
		Title:      doc.Title,
		Author:     doc.Author,
		ExportedAt: exportedAt.Format("2006-01-02 15:04:05"),
	}

	for _, rec := range doc.Records {
		rv := recordView{
			ContextUnavailable: rec.ContextUnavailable || rec.Context == nil,
			Text:               rec.Text,
			Note:               rec.Note,
		}
		if !rv.ContextUnavailable {
			rv.Before = rec.Context.Before
			rv.Prefix = rec.Context.Prefix
			rv.Highlight = rec.Context.Highlight
			rv.Suffix = rec.Context.Suffix
			rv.After = rec.Context.After
			rv.Elided = rec.Context.Elided
		}
		view.Records = append(view.Records, rv)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render document for %s: %w", doc.Title, err)
	}
	return buf.Bytes(), nil
}

// Export renders the document and writes it to its per-book file.
// Returns the written path.
func (e *HTMLExporter) Export(doc entities.MergedDocument, exportedAt time.Time) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	content, err := e.Render(doc, exportedAt)
	if err != nil {
		return "", err
	}

	name := utils.SanitizeFilename(doc.Author+" - "+doc.Title) + ".html"
	outputFile := filepath.Join(e.OutputDir, name)
	if err := os.WriteFile(outputFile, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outputFile, err)
	}

	return outputFile, nil
}
