package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/rallyscope/internal/api"
	"github.com/your-org/rallyscope/internal/api/ws"
	"github.com/your-org/rallyscope/internal/config"
	"github.com/your-org/rallyscope/internal/models"
	"github.com/your-org/rallyscope/internal/observability"
	"github.com/your-org/rallyscope/internal/orchestrator"
	"github.com/your-org/rallyscope/internal/queue"
	"github.com/your-org/rallyscope/internal/storage"
	"github.com/your-org/rallyscope/pkg/dto"
)

// jobDispatcher adapts the NATS producer to the orchestrator's dispatcher.
type jobDispatcher struct {
	producer *queue.Producer
}

func (d jobDispatcher) Dispatch(ctx context.Context, task models.AnalysisTask) error {
	return d.producer.PublishJob(ctx, task.MatchID.String(), task)
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting rallyscope API service", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.RunMigrations(cfg.Database); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to MinIO
	videos, err := storage.NewVideoStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := videos.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	orch := orchestrator.New(db, jobDispatcher{producer: producer}, videos)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Outcome consumer: persist terminal transitions and push them over WS.
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create outcome consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeOutcomes(ctx, "api-outcomes", func(ctx context.Context, msg jetstream.Msg) error {
		var outcome models.AnalysisOutcome
		if err := json.Unmarshal(msg.Data(), &outcome); err != nil {
			slog.Error("unmarshal outcome", "error", err)
			return nil // poison message, do not retry
		}

		status, err := orch.ApplyOutcome(ctx, outcome)
		if err != nil {
			return err
		}
		if status == "" {
			return nil // malformed outcome, dropped
		}

		hub.BroadcastStatus(&dto.WSEvent{
			Type:    "match_status",
			MatchID: outcome.MatchID,
			Status:  string(status),
		})
		return nil
	})
	if err != nil {
		slog.Warn("start outcome consumer", "error", err)
	}

	// Periodically report queue depth
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				depth, err := producer.QueueDepth(ctx)
				if err == nil {
					observability.JobQueueDepth.Set(float64(depth))
				}
			}
		}
	}()

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:       cfg.Server.APIKey,
		RateLimit:    cfg.Server.RateLimit,
		RateWindow:   time.Duration(cfg.Server.RateWindowSec) * time.Second,
		MaxUploadMB:  cfg.Server.MaxUploadMB,
		DB:           db,
		Videos:       videos,
		Producer:     producer,
		Orchestrator: orch,
		Hub:          hub,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
