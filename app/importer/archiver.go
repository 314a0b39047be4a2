package importer

import (
	"log"
	"os"
	"path/filepath"

	"github.com/mediapulse/socimport/app/provider"
)

// archiveRaw keeps a copy of the fetched archive on disk. Best effort: the
// import has already completed, so a failure here is only logged.
func (imp *Importer) archiveRaw(def *provider.Definition, filename string, data []byte) {
	destination := filepath.Join(def.Settings.ArchiveDir, filename)

	if err := os.MkdirAll(def.Settings.ArchiveDir, 0755); err != nil {
		log.Printf("Warning: failed to create archive directory %s: %v", def.Settings.ArchiveDir, err)
		return
	}
	if err := os.WriteFile(destination, data, 0644); err != nil {
		log.Printf("Warning: failed to archive %s to %s: %v", filename, destination, err)
		return
	}

	log.Printf("Archived %s to %s", filename, destination)
}
