package provider

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var datePattern = regexp.MustCompile(`^\d{8}$`)

// ValidDate reports whether a string is an 8-digit provider date
func ValidDate(date string) bool {
	return datePattern.MatchString(date)
}

// Loader handles loading and validation of provider definitions
type Loader struct {
	providersDir string
}

// NewLoader creates a new provider definition loader
func NewLoader(providersDir string) *Loader {
	return &Loader{providersDir: providersDir}
}

// LoadAll loads all YAML definition files from the providers directory
func (l *Loader) LoadAll() (map[string]*Definition, error) {
	definitions := make(map[string]*Definition)

	if _, err := os.Stat(l.providersDir); os.IsNotExist(err) {
		return definitions, nil // Return empty map if directory doesn't exist
	}

	files, err := filepath.Glob(filepath.Join(l.providersDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	// Also check for .yml extension
	ymlFiles, err := filepath.Glob(filepath.Join(l.providersDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		definition, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(definition); err != nil {
			return nil, fmt.Errorf("invalid definition %s: %w", file, err)
		}

		definitions[definition.Provider.Name] = definition
		log.Printf("Loaded provider definition from %s", file)
	}

	return definitions, nil
}

// loadFile loads a single YAML definition file
func (l *Loader) loadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var definition Definition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Credentials may reference environment variables ($VAR or ${VAR})
	definition.Provider.Username = os.ExpandEnv(definition.Provider.Username)
	definition.Provider.Password = os.ExpandEnv(definition.Provider.Password)

	l.setDefaults(&definition)

	return &definition, nil
}

// setDefaults applies default values to a definition
func (l *Loader) setDefaults(definition *Definition) {
	if definition.Settings.MaxDailyFiles == 0 {
		definition.Settings.MaxDailyFiles = 10
	}
	if definition.Settings.Timeout == 0 {
		definition.Settings.Timeout = 60 // seconds
	}
}

// validate validates a definition
func (l *Loader) validate(definition *Definition) error {
	if definition.Provider.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if definition.Provider.BaseURL == "" {
		return fmt.Errorf("provider base URL is required")
	}
	if definition.Settings.MaxDailyFiles < 0 {
		return fmt.Errorf("max daily files must be non-negative")
	}
	if definition.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if definition.Settings.Archiving && definition.Settings.ArchiveDir == "" {
		return fmt.Errorf("archive directory is required when archiving is enabled")
	}

	return nil
}
