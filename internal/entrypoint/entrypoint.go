// Package entrypoint wires the components together and runs one export.
package entrypoint

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"

	"github.com/mrlokans/kobo-exporter/internal/config"
	"github.com/mrlokans/kobo-exporter/internal/contextwin"
	"github.com/mrlokans/kobo-exporter/internal/database"
	"github.com/mrlokans/kobo-exporter/internal/exporters"
	"github.com/mrlokans/kobo-exporter/internal/exportstate"
	"github.com/mrlokans/kobo-exporter/internal/kobo"
	"github.com/mrlokans/kobo-exporter/internal/locator"
	"github.com/mrlokans/kobo-exporter/internal/pipeline"
)

// Run performs a single export: copy the device database, read its
// annotations and push every book through the pipeline. Failure to open
// or update the export-state store aborts the run; per-book content
// problems only degrade that book's records.
func Run(cfg *config.Config, showProgress bool) error {
	drive := cfg.Device.Drive
	if drive == "" {
		detected, err := kobo.DetectDrive()
		if err != nil {
			return err
		}
		drive = detected
		log.Printf("Detected Kobo device at %s", drive)
	}

	tempDB := filepath.Join(os.TempDir(), cfg.Device.TempDBName)
	if err := kobo.CopyDatabase(drive, tempDB); err != nil {
		return err
	}
	defer os.Remove(tempDB)

	annotations, err := kobo.NewReader(tempDB).Annotations()
	if err != nil {
		return err
	}
	if len(annotations) == 0 {
		log.Printf("No highlights found on device")
		return nil
	}

	db, err := database.NewDatabase(cfg.Export.StateDBPath)
	if err != nil {
		return fmt.Errorf("cannot open export state: %w", err)
	}
	defer db.Close()

	p := pipeline.New(
		locator.New(cfg.Context.MinConfidence),
		contextwin.Config{
			Paragraphs: cfg.Context.Paragraphs,
			Words:      cfg.Context.Words,
			MaxWords:   cfg.Context.MaxWords,
		},
		exportstate.NewRepository(db.DB),
		exporters.NewHTMLExporter(cfg.Export.Dir),
	)
	p.ShowProgress = showProgress

	result, err := p.Run(kobo.GroupByBook(annotations, drive))
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("Exported %d highlights and %d notes from %d books (%d unchanged, %d without context)",
		result.Highlights, result.Notes, result.Books, result.Skipped, result.MissingContext)
	log.Printf("%s", summary)
	color.Green("%s", summary)
	if result.FailedBooks > 0 {
		color.Red("%d books failed to export, see log for details", result.FailedBooks)
	}

	if cfg.Export.OpenFolderOnDone && len(result.Files) > 0 {
		openFolder(cfg.Export.Dir)
	}

	return nil
}

// openFolder opens the export directory in the platform's file manager.
// Best effort only.
func openFolder(dir string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", dir)
	case "windows":
		cmd = exec.Command("explorer", dir)
	default:
		cmd = exec.Command("xdg-open", dir)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("WARNING: could not open export folder: %v", err)
	}
}
