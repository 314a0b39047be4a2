package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/mediapulse/socimport/app/archive"
	"github.com/mediapulse/socimport/app/database"
	"github.com/mediapulse/socimport/app/fetch"
	"github.com/mediapulse/socimport/app/flattener"
	"github.com/mediapulse/socimport/app/provider"
)

// Status is the terminal state of a single file import
type Status string

const (
	StatusImported Status = "imported"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Result describes the outcome of one file import
type Result struct {
	Filename string `json:"filename"`
	Status   Status `json:"status"`
	Records  int    `json:"records"`
}

// Fetcher retrieves source archive bytes for a locator
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// ImportGate answers membership queries against the import log and records
// completions. Implemented by ledger.Ledger.
type ImportGate interface {
	IsImported(filename string) bool
	MarkImported(filename string) error
}

// Importer coordinates the fetch, extract, flatten and load steps for one
// source file at a time. A mutex serializes callers (scheduler ticks and
// manual API triggers) so only one file is ever in flight.
type Importer struct {
	gate       ImportGate
	store      database.PostStore
	flattener  *flattener.Flattener
	newFetcher func(def *provider.Definition) Fetcher
	fetchers   map[string]Fetcher
	mu         sync.Mutex
}

// NewImporter creates a new import orchestrator
func NewImporter(gate ImportGate, store database.PostStore, userAgent string) *Importer {
	imp := &Importer{
		gate:      gate,
		store:     store,
		flattener: flattener.NewFlattener(),
		fetchers:  make(map[string]Fetcher),
	}
	imp.newFetcher = func(def *provider.Definition) Fetcher {
		return fetch.NewClient(def.Provider.Username, def.Provider.Password,
			userAgent, def.Settings.GetTimeout())
	}
	return imp
}

// ImportOne imports a single source file end-to-end. A non-nil error means
// the file terminated at Failed; the caller decides whether to keep going
// with other files (failures are isolated per file by design).
func (imp *Importer) ImportOne(ctx context.Context, def *provider.Definition, date string, sequence int) (Result, error) {
	imp.mu.Lock()
	defer imp.mu.Unlock()

	filename := def.Filename(date, sequence)
	result := Result{Filename: filename, Status: StatusFailed}

	log.Printf("Importing file %s from %s...", filename, def.Provider.Name)

	if imp.gate.IsImported(filename) {
		log.Printf("Warning: %s has already been logged. Clear its log entry to import this file again.", filename)
		result.Status = StatusSkipped
		return result, nil
	}

	data, err := imp.fetcherFor(def).Fetch(ctx, def.SourceLocator(filename))
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return result, fmt.Errorf("%s is not available from %s; file names must match %s<YYYYMMDD>_<NNN>.zip: %w",
				filename, def.Provider.BaseURL, def.Provider.FilePrefix, err)
		}
		return result, fmt.Errorf("failed to fetch %s: %w", filename, err)
	}

	entries, err := archive.Extract(data)
	if err != nil {
		return result, fmt.Errorf("failed to extract %s: %w", filename, err)
	}

	var records []flattener.FlatRecord
	for _, entry := range entries {
		if !entry.IsXML() {
			log.Printf("Skipping non-XML archive entry %s in %s", entry.Name, filename)
			continue
		}
		recs, err := imp.flattener.Flatten(bytes.NewReader(entry.Data), filename)
		if err != nil {
			return result, fmt.Errorf("failed to flatten entry %s of %s: %w", entry.Name, filename, err)
		}
		records = append(records, recs...)
	}

	if err := imp.store.StoreBatch(records); err != nil {
		return result, fmt.Errorf("failed to load %s: %w", filename, err)
	}

	// The batch is committed. A failed log write below does not undo it;
	// the file merely stays eligible for a redundant retry on a later run.
	if err := imp.gate.MarkImported(filename); err != nil {
		log.Printf("Error: %v", err)
	}

	result.Status = StatusImported
	result.Records = len(records)
	log.Printf("%s was imported successfully (%d records)", filename, len(records))

	if def.Settings.Archiving {
		imp.archiveRaw(def, filename, data)
	}

	return result, nil
}

// ImportRange imports a set of sequence numbers for one date, sequentially,
// continuing past per-file failures.
func (imp *Importer) ImportRange(ctx context.Context, def *provider.Definition, date string, sequences []int) []Result {
	results := make([]Result, 0, len(sequences))
	for _, sequence := range sequences {
		result, err := imp.ImportOne(ctx, def, date, sequence)
		if err != nil {
			log.Printf("Error importing %s: %v", result.Filename, err)
		}
		results = append(results, result)
	}
	return results
}

func (imp *Importer) fetcherFor(def *provider.Definition) Fetcher {
	if f, ok := imp.fetchers[def.Provider.Name]; ok {
		return f
	}
	f := imp.newFetcher(def)
	imp.fetchers[def.Provider.Name] = f
	return f
}
