package cli

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrlokans/kobo-exporter/internal/config"
	"github.com/mrlokans/kobo-exporter/internal/entrypoint"
	"github.com/mrlokans/kobo-exporter/internal/scheduler"
)

// WatchCommand keeps running and exports on a cron schedule, picking up
// new highlights whenever the device is connected.
type WatchCommand struct {
	Schedule string
	export   ExportCommand
}

func NewWatchCommand() *WatchCommand {
	return &WatchCommand{}
}

func (cmd *WatchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)

	fs.StringVar(&cmd.Schedule, "schedule", "", `Cron schedule for export runs (default: "0 * * * *", hourly)`)
	fs.StringVar(&cmd.export.Drive, "drive", "", "Mount point of the Kobo device (auto-detected if omitted)")
	fs.StringVar(&cmd.export.OutputDir, "output", "", "Output directory for HTML files")
	fs.StringVar(&cmd.export.StateDBPath, "state-db", "", "Path to the export-state database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s watch [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run the export periodically until interrupted. A tick with no device\n")
		fmt.Fprintf(os.Stderr, "connected is logged and skipped; the next tick tries again.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *WatchCommand) Run() error {
	cfg := config.NewConfig()
	cmd.export.applyOverrides(cfg)
	if cmd.Schedule != "" {
		cfg.Watch.Schedule = cmd.Schedule
	}

	sched := scheduler.NewExportScheduler(cfg.Watch.Schedule, func() error {
		return entrypoint.Run(cfg, false)
	})
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return nil
}
