package ledger

import (
	"fmt"
	"log"
	"time"

	"github.com/mediapulse/socimport/app/database"
)

// Cache is the optional read-through layer in front of the import log.
// Implemented by cache.Cache; nil disables caching entirely.
type Cache interface {
	Get(key string) (string, error)
	Set(key, value string, ttl time.Duration) error
}

// Entries expire so that an operator clearing the database log out-of-band
// (to force a reimport) does not fight a stale cache for long.
const cacheTTL = 24 * time.Hour

const cachedImported = "1"

// Ledger answers "has this source file been imported?" and records
// completions. Underlying store faults are never surfaced on the query path:
// an unreachable log means "assume already imported", trading a possibly
// skipped file for a guaranteed absence of duplicate loads.
type Ledger struct {
	repo  database.ImportLog
	cache Cache
}

// New creates a new ledger over the import log repository. cache may be nil.
func New(repo database.ImportLog, cache Cache) *Ledger {
	return &Ledger{repo: repo, cache: cache}
}

// IsImported reports whether the file has already been imported. Faults map
// to true (fail safe toward skipping).
func (l *Ledger) IsImported(filename string) bool {
	if l.cache != nil {
		val, err := l.cache.Get(cacheKey(filename))
		if err != nil {
			log.Printf("Warning: import log cache lookup failed for %s: %v", filename, err)
		} else if val == cachedImported {
			return true
		}
	}

	imported, err := l.repo.Contains(filename)
	if err != nil {
		log.Printf("Error checking import log for %s, assuming it is already imported: %v", filename, err)
		return true
	}

	// Only positive answers are cached; a stale negative would let a file
	// import twice.
	if imported && l.cache != nil {
		if err := l.cache.Set(cacheKey(filename), cachedImported, cacheTTL); err != nil {
			log.Printf("Warning: failed to cache import log entry for %s: %v", filename, err)
		}
	}

	return imported
}

// MarkImported records the file as durably imported. Must only be called
// after the corresponding batch commit has been confirmed.
func (l *Ledger) MarkImported(filename string) error {
	if err := l.repo.Add(filename); err != nil {
		return fmt.Errorf("failed to record import of %s: %w", filename, err)
	}

	if l.cache != nil {
		if err := l.cache.Set(cacheKey(filename), cachedImported, cacheTTL); err != nil {
			log.Printf("Warning: failed to cache import log entry for %s: %v", filename, err)
		}
	}

	return nil
}

func cacheKey(filename string) string {
	return "imported:" + filename
}
