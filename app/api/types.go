package api

import (
	"context"

	"github.com/mediapulse/socimport/app/cache"
	"github.com/mediapulse/socimport/app/database"
	"github.com/mediapulse/socimport/app/importer"
	"github.com/mediapulse/socimport/app/provider"
	"github.com/mediapulse/socimport/app/scheduler"
)

// FileImporter imports one source file on demand. Implemented by
// importer.Importer.
type FileImporter interface {
	ImportOne(ctx context.Context, def *provider.Definition, date string, sequence int) (importer.Result, error)
}

var _ FileImporter = (*importer.Importer)(nil)

// Handler serves the operational HTTP endpoints
type Handler struct {
	db          *database.DB
	cache       *cache.Cache // may be nil
	importLog   database.ImportLog
	posts       database.PostStore
	importer    FileImporter
	scheduler   *scheduler.Scheduler
	definitions map[string]*provider.Definition
}

// ImportRequest is the body of a manual import trigger
type ImportRequest struct {
	Provider string `json:"provider" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Number   int    `json:"number" binding:"required"`
}
