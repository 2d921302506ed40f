// memoryd is the shared multi-agent memory service: record_event,
// build_acb, handoffs, capsules, memory surgery, and consolidation,
// all behind a single JSON-RPC-style HTTP endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shared-memory/memoryd/pkg/acb"
	"github.com/shared-memory/memoryd/pkg/audit"
	"github.com/shared-memory/memoryd/pkg/capsule"
	"github.com/shared-memory/memoryd/pkg/config"
	"github.com/shared-memory/memoryd/pkg/consolidator"
	"github.com/shared-memory/memoryd/pkg/daemon"
	"github.com/shared-memory/memoryd/pkg/database"
	"github.com/shared-memory/memoryd/pkg/embedding"
	"github.com/shared-memory/memoryd/pkg/handoff"
	"github.com/shared-memory/memoryd/pkg/masking"
	"github.com/shared-memory/memoryd/pkg/memoryedit"
	"github.com/shared-memory/memoryd/pkg/models"
	"github.com/shared-memory/memoryd/pkg/recorder"
	"github.com/shared-memory/memoryd/pkg/retrieval"
	"github.com/shared-memory/memoryd/pkg/store"
	"github.com/shared-memory/memoryd/pkg/version"
	"github.com/shared-memory/memoryd/pkg/wal"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	log.Printf("Starting %s", version.Full())
	log.Printf("Config Directory: %s", *configDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}
	log.Printf("Configuration loaded: %+v", cfg.Stats())

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.Printf("Error closing database client: %v", err)
		}
	}()
	log.Println("connected to PostgreSQL database")

	st := store.New(dbClient.Client)
	maskingSvc := masking.New(getEnv("MASKING_REDACT_GROUP", ""))

	embeddingTimeout := time.Duration(getEnvInt("EMBEDDING_TIMEOUT_MS", 2000)) * time.Millisecond
	embeddingRPS := getEnvFloat("EMBEDDING_RPS", 5)
	embeddingBurst := getEnvInt("EMBEDDING_BURST", 10)
	embedder := embedding.New(getEnv("EMBEDDING_ENDPOINT", ""), embeddingTimeout, embeddingRPS, embeddingBurst)

	walPath := cfg.Durability.WALPath
	w, err := wal.Open(walPath)
	if err != nil {
		log.Fatalf("Failed to open WAL at %s: %v", walPath, err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Printf("Error closing WAL: %v", err)
		}
	}()

	rec := recorder.New(st, maskingSvc, w, cfg.Ingestion, cfg.Privacy)
	replayWAL(ctx, walPath, rec)

	ret := retrieval.New(st, dbClient.DB(), embedder, cfg.Scoring, cfg.Retrieval, cfg.Privacy)
	acbSvc := acb.New(st, ret, cfg.ACB, cfg.Privacy)
	cons := consolidator.New(st, cfg.Consolidation)
	cons.Start(ctx)
	defer cons.Stop()

	ho := handoff.New(st, rec, cfg.Handoff)
	cps := capsule.New(st)
	me := memoryedit.New(st)
	auditLogger := audit.New(dbClient.Client)

	server := daemon.New(cfg.Daemon, st, rec, ret, acbSvc, cons, ho, cps, me, auditLogger, w)
	if err := server.ValidateWiring(); err != nil {
		log.Fatalf("Daemon wiring incomplete: %v", err)
	}

	log.Printf("memoryd listening on %s", cfg.Daemon.ListenAddr)
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Daemon exited: %v", err)
	}
	log.Println("memoryd stopped")
}

// replayWAL applies every entry queued while the Store was unreachable,
// in order, stopping at the first entry that still fails so the
// operator can inspect it. This mirrors recorder.AppendEvent's own
// record_event-kind WAL entries: the only entry kind the WAL currently
// carries.
func replayWAL(ctx context.Context, path string, rec *recorder.Recorder) {
	replayed, remaining, err := wal.Replay(path, func(entry wal.Entry) error {
		if entry.Kind != "record_event" {
			return nil
		}
		var req models.RecordEventRequest
		if err := json.Unmarshal(entry.Payload, &req); err != nil {
			return err
		}
		_, err := rec.AppendEvent(ctx, req)
		return err
	})
	if err != nil {
		slog.Error("memoryd: wal replay failed", "error", err)
		return
	}
	if replayed > 0 || remaining > 0 {
		slog.Info("memoryd: wal replay complete", "replayed", replayed, "remaining", remaining)
	}
}
