package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/go-devis/internal/config"
	"github.com/diewo77/go-devis/internal/db"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run store migrations and exit")

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	// An unreachable store is fatal at startup, never a per-request condition.
	conn, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to store: %v", err)
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(conn, cfg.Database.DSN, cfg.App.Migrations); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
		return
	}

	if err := db.Migrate(conn, cfg.Database.DSN, cfg.App.Migrations); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	handler, err := newApp(cfg, conn)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s (dev=%v)", cfg.Server.Port, cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}
