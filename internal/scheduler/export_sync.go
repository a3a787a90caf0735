// Package scheduler runs the export on a cron schedule (watch mode).
package scheduler

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// ExportScheduler triggers periodic export runs. Runs never overlap: a
// tick is skipped while a previous run is still in flight, keeping the
// single-run-at-a-time contract of the export state store.
type ExportScheduler struct {
	schedule string
	runFunc  func() error

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	inFlight  bool
	isStarted bool
}

func NewExportScheduler(schedule string, runFunc func() error) *ExportScheduler {
	return &ExportScheduler{
		schedule: schedule,
		runFunc:  runFunc,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start validates the schedule and begins ticking.
func (s *ExportScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runOnce)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.isStarted = true

	log.Printf("Export scheduler started with schedule %q", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running export to finish.
func (s *ExportScheduler) Stop() {
	s.mu.Lock()
	if !s.isStarted {
		s.mu.Unlock()
		return
	}
	s.isStarted = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Printf("Export scheduler stopped")
}

func (s *ExportScheduler) runOnce() {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		log.Printf("Export still running, skipping this tick")
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	if err := s.runFunc(); err != nil {
		log.Printf("Scheduled export failed: %v", err)
	}
}
