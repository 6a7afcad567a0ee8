package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/api"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/db"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/emg"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/units"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/version"
)

var (
	listen    = flag.String("listen", ":8080", "Listen address")
	dbFile    = flag.String("db", "emg_sessions.db", "Path to the session database")
	unitsFlag = flag.String("units", units.MicroV, "Amplitude units for API responses (uv, mv, v)")
	modeFlag  = flag.String("mode", string(emg.ModeAuto), "Detection mode (envelope, hybrid, auto)")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*unitsFlag) {
		log.Fatalf("Invalid units %q, expected one of: %s", *unitsFlag, units.GetValidUnitsString())
	}

	cfg := emg.DefaultConfig()
	cfg.DetectionMode = emg.DetectionMode(*modeFlag)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid detection config: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(database, cfg, *unitsFlag).ServeMux()

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("emg-analyzer %s listening on %s (db=%s units=%s mode=%s)",
				version.String(), *listen, *dbFile, *unitsFlag, cfg.DetectionMode)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
