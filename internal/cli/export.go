package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/kobo-exporter/internal/config"
	"github.com/mrlokans/kobo-exporter/internal/entrypoint"
)

// ExportCommand runs a single export of the connected device's highlights.
type ExportCommand struct {
	Drive       string
	OutputDir   string
	StateDBPath string
	Paragraphs  int
	Words       int
	Quiet       bool
}

func NewExportCommand() *ExportCommand {
	return &ExportCommand{}
}

func (cmd *ExportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	fs.StringVar(&cmd.Drive, "drive", "", "Mount point of the Kobo device (auto-detected if omitted)")
	fs.StringVar(&cmd.OutputDir, "output", "", "Output directory for HTML files (default: "+config.DefaultExportDir+")")
	fs.StringVar(&cmd.StateDBPath, "state-db", "", "Path to the export-state database (default: "+config.DefaultStateDBPath+")")
	fs.IntVar(&cmd.Paragraphs, "paragraphs", -1, "Whole paragraphs of context before/after each highlight")
	fs.IntVar(&cmd.Words, "words", -1, "Words of context on each side of the highlight")
	fs.BoolVar(&cmd.Quiet, "quiet", false, "Disable the progress bar")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export new highlights from a connected Kobo device as per-book HTML files.\n")
		fmt.Fprintf(os.Stderr, "Only highlights not already exported (or edited since) are processed.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Export with auto-detected device and defaults:\n")
		fmt.Fprintf(os.Stderr, "  %s export\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # One full paragraph of context on each side:\n")
		fmt.Fprintf(os.Stderr, "  %s export -paragraphs 1\n", os.Args[0])
	}

	return fs.Parse(args)
}

func (cmd *ExportCommand) Run() error {
	cfg := config.NewConfig()
	cmd.applyOverrides(cfg)
	return entrypoint.Run(cfg, !cmd.Quiet)
}

// applyOverrides lets flags win over environment configuration.
func (cmd *ExportCommand) applyOverrides(cfg *config.Config) {
	if cmd.Drive != "" {
		cfg.Device.Drive = cmd.Drive
	}
	if cmd.OutputDir != "" {
		cfg.Export.Dir = cmd.OutputDir
	}
	if cmd.StateDBPath != "" {
		cfg.Export.StateDBPath = cmd.StateDBPath
	}
	if cmd.Paragraphs >= 0 {
		cfg.Context.Paragraphs = cmd.Paragraphs
	}
	if cmd.Words >= 0 {
		cfg.Context.Words = cmd.Words
	}
}
