package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediapulse/socimport/app/api"
	"github.com/mediapulse/socimport/app/cache"
	"github.com/mediapulse/socimport/app/cfg"
	"github.com/mediapulse/socimport/app/database"
	"github.com/mediapulse/socimport/app/importer"
	"github.com/mediapulse/socimport/app/ledger"
	"github.com/mediapulse/socimport/app/provider"
	"github.com/mediapulse/socimport/app/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	log.Printf("Starting socimport %s...", appConfig.Version)

	// Database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(
		appConfig.DBHost, appConfig.DBPort, appConfig.DBUser,
		appConfig.DBPassword, appConfig.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	log.Println("Connected to database successfully")

	// Run migrations
	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database schema at version %d (dirty: %v)", version, dirty)

	// Optional Redis cache for import log lookups
	var importCache *cache.Cache
	if appConfig.RedisAddr != "" {
		importCache, err = cache.NewCache(appConfig.RedisAddr)
		if err != nil {
			log.Printf("Warning: import log cache disabled: %v", err)
			importCache = nil
		} else {
			defer importCache.Close()
		}
	}

	// Load provider definitions
	log.Printf("Loading provider definitions from %s...", appConfig.ProvidersDir)
	loader := provider.NewLoader(appConfig.ProvidersDir)
	definitions, err := loader.LoadAll()
	if err != nil {
		log.Fatal("Failed to load provider definitions:", err)
	}
	log.Printf("Loaded %d provider definitions", len(definitions))

	// Initialize core components
	importLogRepo := database.NewImportLogRepository(db)
	postRepo := database.NewPostRepository(db)

	var ledgerCache ledger.Cache
	if importCache != nil {
		ledgerCache = importCache
	}
	importLedger := ledger.New(importLogRepo, ledgerCache)
	imp := importer.NewImporter(importLedger, postRepo, appConfig.UserAgent)

	if appConfig.OneShot() {
		code := runOneShot(appConfig, definitions, imp)
		// os.Exit skips the deferred closes.
		if importCache != nil {
			importCache.Close()
		}
		db.Close()
		os.Exit(code)
	}

	runServer(appConfig, definitions, imp, db, importCache, importLogRepo, postRepo)
}

// runOneShot imports the requested sequence numbers and returns an exit code
func runOneShot(appConfig *cfg.Cfg, definitions map[string]*provider.Definition, imp *importer.Importer) int {
	if !provider.ValidDate(appConfig.ImportDate) {
		log.Printf("Invalid date %q: expected 8 digits (YYYYMMDD)", appConfig.ImportDate)
		return 1
	}

	def, ok := definitions[appConfig.ImportProvider]
	if !ok {
		if appConfig.ImportProvider != "" || len(definitions) != 1 {
			log.Printf("Unknown provider %q (loaded: %d definitions)", appConfig.ImportProvider, len(definitions))
			return 1
		}
		// A single loaded definition needs no explicit --provider.
		for _, d := range definitions {
			def = d
		}
	}

	sequences := appConfig.ImportNumbers
	if len(sequences) == 0 {
		sequences = []int{1}
	}

	results := imp.ImportRange(context.Background(), def, appConfig.ImportDate, sequences)

	failed := 0
	for _, result := range results {
		log.Printf("%s: %s (%d records)", result.Filename, result.Status, result.Records)
		if result.Status == importer.StatusFailed {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("%d of %d files failed", failed, len(results))
		return 1
	}

	return 0
}

// runServer starts the poll scheduler and the HTTP server, then blocks until
// shutdown
func runServer(appConfig *cfg.Cfg, definitions map[string]*provider.Definition,
	imp *importer.Importer, db *database.DB, importCache *cache.Cache,
	importLogRepo *database.ImportLogRepository, postRepo *database.PostRepository) {

	// Initialize and start scheduler
	log.Printf("Starting import scheduler (interval: %ds)...", appConfig.SchedulerInterval)
	importScheduler := scheduler.NewScheduler(imp, definitions,
		time.Duration(appConfig.SchedulerInterval)*time.Second)
	importScheduler.Start()
	defer importScheduler.Stop()

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(db, importCache, importLogRepo, postRepo,
		imp, importScheduler, definitions)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // manual imports run synchronously
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Port)
		log.Printf("API endpoints available:")
		log.Printf("  Health check:  http://localhost:%s/health", appConfig.Port)
		log.Printf("  Statistics:    http://localhost:%s/stats", appConfig.Port)

		if appConfig.APIAccessKey != "" {
			log.Printf("  Trigger:       http://localhost:%s/api/import (POST, requires API key)", appConfig.Port)
			log.Printf("  Imports:       http://localhost:%s/api/imports?date=<YYYYMMDD> (requires API key)", appConfig.Port)
			log.Printf("  Providers:     http://localhost:%s/api/providers (requires API key)", appConfig.Port)
		} else {
			log.Printf("  API endpoints: DISABLED (API_ACCESS_KEY not set)")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("socimport started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("socimport shutdown complete")
}
