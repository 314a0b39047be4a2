package scheduler

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mediapulse/socimport/app/fetch"
	"github.com/mediapulse/socimport/app/importer"
	"github.com/mediapulse/socimport/app/provider"
)

// FileImporter imports one source file end-to-end. Implemented by
// importer.Importer.
type FileImporter interface {
	ImportOne(ctx context.Context, def *provider.Definition, date string, sequence int) (importer.Result, error)
}

// Stats holds scheduler statistics
type Stats struct {
	TotalImported int64      `json:"total_imported"`
	TotalSkipped  int64      `json:"total_skipped"`
	TotalFailed   int64      `json:"total_failed"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
}

// Scheduler polls providers for freshly published export files. One file is
// processed end-to-end before the next begins; there is no worker pool
// because concurrent imports would break the single-writer assumption of the
// import log.
type Scheduler struct {
	importer    FileImporter
	definitions map[string]*provider.Definition
	interval    time.Duration
	now         func() time.Time
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	stats       Stats
	mu          sync.RWMutex
}

// NewScheduler creates a new import scheduler
func NewScheduler(imp FileImporter, definitions map[string]*provider.Definition, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		importer:    imp,
		definitions: definitions,
		interval:    interval,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins the scheduler operation
func (s *Scheduler) Start() {
	log.Printf("Starting scheduler with interval %v for %d providers", s.interval, len(s.definitions))

	s.wg.Add(1)
	go s.loop()
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cancel()
	s.wg.Wait()
	log.Println("Scheduler stopped")
}

// Stats returns a copy of the current statistics
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Check for new files immediately on start.
	s.runOnce()

	for {
		select {
		case <-s.ctx.Done():
			log.Println("Scheduler loop stopping...")
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce scans every enabled provider for files published today and
// yesterday (exports published near midnight may carry the previous date).
func (s *Scheduler) runOnce() {
	today := s.now().Format("20060102")
	yesterday := s.now().AddDate(0, 0, -1).Format("20060102")

	names := make([]string, 0, len(s.definitions))
	for name := range s.definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := s.definitions[name]
		if !def.Settings.Enabled {
			continue
		}
		for _, date := range []string{yesterday, today} {
			s.scanDate(def, date)
			if s.ctx.Err() != nil {
				return
			}
		}
	}

	now := s.now()
	s.mu.Lock()
	s.stats.LastRunAt = &now
	s.mu.Unlock()
}

// scanDate walks the expected sequence numbers for one date in order. The
// first not-yet-published sequence ends the scan: providers publish files
// strictly in sequence.
func (s *Scheduler) scanDate(def *provider.Definition, date string) {
	for sequence := 1; sequence <= def.Settings.MaxDailyFiles; sequence++ {
		if s.ctx.Err() != nil {
			return
		}

		result, err := s.importer.ImportOne(s.ctx, def, date, sequence)
		if err != nil {
			if errors.Is(err, fetch.ErrNotFound) {
				log.Printf("%s is not published yet, ending scan for %s", result.Filename, date)
				return
			}
			log.Printf("Error importing %s: %v", result.Filename, err)
			s.count(importer.StatusFailed)
			continue
		}

		s.count(result.Status)
	}
}

func (s *Scheduler) count(status importer.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch status {
	case importer.StatusImported:
		s.stats.TotalImported++
	case importer.StatusSkipped:
		s.stats.TotalSkipped++
	case importer.StatusFailed:
		s.stats.TotalFailed++
	}
}
