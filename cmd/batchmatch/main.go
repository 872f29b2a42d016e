package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/pinggolf/redblue-matcher/internal/api"
	"github.com/pinggolf/redblue-matcher/internal/config"
	"github.com/pinggolf/redblue-matcher/internal/engine"
	"github.com/pinggolf/redblue-matcher/internal/export"
	"github.com/pinggolf/redblue-matcher/internal/model"
	"github.com/pinggolf/redblue-matcher/internal/queue"
	"github.com/pinggolf/redblue-matcher/internal/store"
)

func main() {
	billIDs := flag.String("bills", "", "comma-separated bill ids to match, then exit (omit to start the HTTP server)")
	clean := flag.Bool("clean", false, "delete existing match records for the given bills before matching")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	database.SetMaxOpenConns(cfg.DatabaseMaxConnections)
	database.SetMaxIdleConns(cfg.DatabaseMaxIdleConnections)
	database.SetConnMaxLifetime(cfg.DatabaseConnectionLifetime)

	if err := database.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Database connection established")

	pool := store.New(database)

	var natsManager *queue.Manager
	if cfg.NATSURL != "" {
		log.Println("Connecting to NATS...")
		natsManager, err = queue.NewManager(cfg.NATSURL)
		if err != nil {
			log.Printf("Warning: NATS unavailable, progress events disabled: %v", err)
		} else {
			defer natsManager.Close()
			log.Println("NATS connection established")
		}
	}

	var opts []engine.Option
	if natsManager != nil {
		opts = append(opts, engine.WithProgressReporter(func(billID string, state model.BillState) {
			payload, err := json.Marshal(map[string]string{"bill_id": billID, "state": string(state)})
			if err != nil {
				return
			}
			natsManager.Publish(queue.GetBillProgressSubject(billID), payload)
		}))
		opts = append(opts, engine.WithBatchStartReporter(func(batchID string, billIDs []string, _ *model.BatchResult) {
			payload, err := json.Marshal(map[string]interface{}{"batch_id": batchID, "bill_ids": billIDs})
			if err != nil {
				return
			}
			natsManager.Publish(queue.GetBatchStartSubject(batchID), payload)
		}))
		opts = append(opts, engine.WithBatchCompleteReporter(func(batchID string, billIDs []string, result *model.BatchResult) {
			payload, err := json.Marshal(map[string]interface{}{
				"batch_id":      batchID,
				"success_count": result.SuccessCount,
				"failure_count": result.FailureCount,
			})
			if err != nil {
				return
			}
			natsManager.Publish(queue.GetBatchCompleteSubject(batchID), payload)
		}))
	}

	eng := engine.New(pool, cfg.PreferredPageSize, cfg.FlushBatchSize, opts...)

	if *billIDs != "" {
		runOnce(eng, pool, strings.Split(*billIDs, ","), cfg, *clean)
		return
	}

	server := api.NewServer(cfg, eng, pool)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.AppPort),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %d (environment: %s)", cfg.AppPort, cfg.AppEnv)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}

func runOnce(eng *engine.Engine, cleaner store.Cleaner, bills []string, cfg *config.Config, clean bool) {
	ctx := context.Background()
	if clean {
		if err := cleaner.DeleteMatchesForBills(ctx, bills); err != nil {
			log.Fatalf("Failed to clean existing matches: %v", err)
		}
	}
	result := eng.BatchMatch(ctx, bills, cfg.BillConcurrency, cfg.BillTimeout)
	log.Printf("batch complete: %d succeeded, %d failed", result.SuccessCount, result.FailureCount)
	for _, f := range result.Failures() {
		log.Printf("  bill %s failed: %v", f.BillID, f.Err)
	}

	if cfg.ResultsExportDir != "" {
		path, err := export.WriteBatchResult(cfg.ResultsExportDir, &result)
		if err != nil {
			log.Printf("failed to export batch result: %v", err)
			return
		}
		result.ExportPath = path
		log.Printf("batch result exported to %s", path)
	}
}
