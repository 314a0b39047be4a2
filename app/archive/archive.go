package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Entry is one file extracted from a source archive
type Entry struct {
	Name string
	Data []byte
}

// IsXML reports whether the entry looks like an XML payload. Providers ship
// mixed archives (readme files, manifests); only XML entries are imported.
func (e Entry) IsXML() bool {
	return strings.Contains(strings.ToLower(e.Name), "xml")
}

// Extract unpacks a zip archive held in memory and returns its entries.
// The whole archive is materialized up front; a source file is small enough
// that streaming extraction buys nothing.
func Extract(data []byte) ([]Entry, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	entries := make([]Entry, 0, len(reader.File))
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", file.Name, err)
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read archive entry %s: %w", file.Name, err)
		}

		entries = append(entries, Entry{Name: file.Name, Data: content})
	}

	return entries, nil
}
