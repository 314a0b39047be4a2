package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediapulse/socimport/app/cache"
	"github.com/mediapulse/socimport/app/database"
	"github.com/mediapulse/socimport/app/fetch"
	"github.com/mediapulse/socimport/app/flattener"
	"github.com/mediapulse/socimport/app/importer"
	"github.com/mediapulse/socimport/app/provider"
	"github.com/mediapulse/socimport/app/scheduler"
)

// NewHandler creates a new API handler
func NewHandler(db *database.DB, c *cache.Cache, importLog database.ImportLog,
	posts database.PostStore, imp FileImporter, sched *scheduler.Scheduler,
	definitions map[string]*provider.Definition) *Handler {
	return &Handler{
		db:          db,
		cache:       c,
		importLog:   importLog,
		posts:       posts,
		importer:    imp,
		scheduler:   sched,
		definitions: definitions,
	}
}

// HealthCheck reports the health of the database and cache
func (h *Handler) HealthCheck(c *gin.Context) {
	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	status := http.StatusOK

	if err := h.db.Ping(); err != nil {
		health["status"] = "unhealthy"
		health["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		health["database"] = "connected"
	}

	if h.cache != nil {
		health["cache"] = h.cache.Health()
	}

	c.JSON(status, health)
}

// GetStats returns import pipeline statistics
func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{
		"providers": len(h.definitions),
	}

	if count, err := h.posts.Count(); err != nil {
		log.Printf("Error counting posts for stats: %v", err)
	} else {
		stats["post_records"] = count
	}

	if count, err := h.importLog.Count(); err != nil {
		log.Printf("Error counting import log entries for stats: %v", err)
	} else {
		stats["imported_files"] = count
	}

	if h.scheduler != nil {
		stats["scheduler"] = h.scheduler.Stats()
	}

	c.JSON(http.StatusOK, stats)
}

// TriggerImport runs a single file import synchronously
func (h *Handler) TriggerImport(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	def, ok := h.definitions[req.Provider]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider: " + req.Provider})
		return
	}
	if !provider.ValidDate(req.Date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be 8 digits (YYYYMMDD)"})
		return
	}
	if req.Number < 1 || req.Number > 999 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "number must be between 1 and 999"})
		return
	}

	result, err := h.importer.ImportOne(c.Request.Context(), def, req.Date, req.Number)
	if err != nil {
		log.Printf("Error importing %s: %v", result.Filename, err)

		status := http.StatusBadGateway
		var parseErr *flattener.ParseError
		switch {
		case errors.Is(err, fetch.ErrNotFound):
			status = http.StatusNotFound
		case errors.As(err, &parseErr):
			status = http.StatusUnprocessableEntity
		}

		c.JSON(status, gin.H{"result": result, "error": err.Error()})
		return
	}

	status := http.StatusOK
	if result.Status == importer.StatusSkipped {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"result": result})
}

// ListImports returns the filenames logged for a date
func (h *Handler) ListImports(c *gin.Context) {
	date := c.Query("date")
	if !provider.ValidDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter must be 8 digits (YYYYMMDD)"})
		return
	}

	filenames, err := h.importLog.ImportedOn(date)
	if err != nil {
		log.Printf("Error listing imports for %s: %v", date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query import log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":      date,
		"filenames": filenames,
	})
}

// ListProviders returns the loaded provider definitions without credentials
func (h *Handler) ListProviders(c *gin.Context) {
	providers := make([]gin.H, 0, len(h.definitions))
	for name, def := range h.definitions {
		providers = append(providers, gin.H{
			"name":            name,
			"base_url":        def.Provider.BaseURL,
			"file_prefix":     def.Provider.FilePrefix,
			"enabled":         def.Settings.Enabled,
			"max_daily_files": def.Settings.MaxDailyFiles,
			"archiving":       def.Settings.Archiving,
		})
	}

	c.JSON(http.StatusOK, gin.H{"providers": providers})
}
