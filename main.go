package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"mediashelf/config"
	"mediashelf/handlers"
	"mediashelf/internal/database"
	"mediashelf/services/metadata"
	"mediashelf/services/watchlist"
	"mediashelf/utils"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the settings file")
	flag.Parse()

	cfg := config.NewManager(*configPath)
	settings, err := cfg.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}

	if settings.Logging.File != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   settings.Logging.File,
			MaxSize:    settings.Logging.MaxSizeMB,
			MaxBackups: settings.Logging.MaxBackups,
		})
	}

	db, err := database.NewDB(database.Config{DatabasePath: settings.Database.Path})
	if err != nil {
		log.Fatalf("[main] failed to open database: %v", err)
	}
	defer db.Close()

	resolver := metadata.NewResolver(settings.Metadata)
	store := watchlist.NewService(db.State, resolver)

	router := utils.NewRouter()
	handlers.NewWatchlistHandler(store).Register(router)

	server := &http.Server{
		Addr:              settings.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", settings.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Printf("[main] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] server shutdown: %v", err)
	}

	// Flush queued persistence writes before the process exits.
	store.Close()
}
