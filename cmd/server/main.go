package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/framepulse/frametime-service/internal/analysis"
	"github.com/framepulse/frametime-service/internal/api"
	"github.com/framepulse/frametime-service/internal/infra/config"
	"github.com/framepulse/frametime-service/internal/infra/ffmpeg"
	miniostorage "github.com/framepulse/frametime-service/internal/infra/minio"
	"github.com/framepulse/frametime-service/internal/infra/postgres"
	"github.com/framepulse/frametime-service/internal/infra/rabbitmq"
	"github.com/framepulse/frametime-service/internal/infra/tracing"
	"github.com/framepulse/frametime-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting framepulse-frametime-api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, "framepulse-frametime-api")
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:         cfg.MinIOEndpoint,
		AccessKey:        cfg.MinIOAccessKey,
		SecretKey:        cfg.MinIOSecretKey,
		UseSSL:           cfg.MinIOUseSSL,
		RecordingsBucket: cfg.MinIORecordingsBucket,
		ArtifactsBucket:  cfg.MinIOArtifactsBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	requestPub := rabbitmq.NewRequestPublisher(pub)

	repo := postgres.NewAnalysisRepository(pool)

	opts := analysis.Options{
		EMAAlpha:             cfg.EMAAlpha,
		DuplicateThreshold:   cfg.DuplicateThreshold,
		AbsoluteDuplicateMax: cfg.AbsoluteDuplicateMax,
		MotionThreshold:      cfg.MotionThreshold,
		ContextFrames:        cfg.ContextFrames,
	}
	analyzeFile := func(ctx context.Context, path string) (*analysis.Result, error) {
		src, err := ffmpeg.OpenSource(ctx, path, log)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return analysis.Analyze(ctx, src, opts)
	}

	server := api.NewServer(api.ServerConfig{
		Analyzer:   analyzeFile,
		Store:      storage,
		Repo:       repo,
		Requests:   requestPub,
		Logger:     log,
		TempDir:    cfg.TempDir,
		MaxUpload:  cfg.MaxUploadBytes,
		MaxRetries: cfg.MaxRetries,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.APIPort),
		Handler:      server.Router(),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
	}

	go func() {
		log.Info("http server listening", zap.Int("port", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", zap.Error(err))
	}

	log.Info("framepulse-frametime-api stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
