package provider

import (
	"fmt"
	"strings"
	"time"
)

// Definition represents a complete export provider definition
type Definition struct {
	Provider Info     `yaml:"provider"`
	Settings Settings `yaml:"settings"`
}

// Info contains basic provider information
type Info struct {
	Name       string `yaml:"name"`
	BaseURL    string `yaml:"base_url"`
	FilePrefix string `yaml:"file_prefix"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
}

// Settings contains import processing settings
type Settings struct {
	Enabled       bool   `yaml:"enabled"`
	MaxDailyFiles int    `yaml:"max_daily_files"`
	Timeout       int    `yaml:"timeout"` // seconds
	Archiving     bool   `yaml:"archiving"`
	ArchiveDir    string `yaml:"archive_dir"`
}

// GetTimeout returns the fetch timeout as a duration
func (s Settings) GetTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Filename builds the canonical source filename for a date and sequence
// number. The format is fixed by the provider and must match exactly:
// <prefix><8-digit-date>_<3-digit-sequence>.zip
func (d *Definition) Filename(date string, sequence int) string {
	return fmt.Sprintf("%s%s_%03d.zip", d.Provider.FilePrefix, date, sequence)
}

// SourceLocator joins the provider base URL and a filename
func (d *Definition) SourceLocator(filename string) string {
	return strings.TrimRight(d.Provider.BaseURL, "/") + "/" + filename
}
