package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insta-poster/internal/broker"
	kafka_impl "insta-poster/internal/broker/kafka"
	"insta-poster/internal/config"
	post_h "insta-poster/internal/http-server/handler/post"
	"insta-poster/internal/http-server/router"
	"insta-poster/internal/publisher/instagram"
	postgres_repo "insta-poster/internal/repository/post/postgres"
	"insta-poster/internal/repository/queue"
	minio_repo "insta-poster/internal/repository/queue/minio"
	"insta-poster/internal/usecase/compliance"
	"insta-poster/internal/usecase/normalize"
	"insta-poster/internal/usecase/poster"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	producer *kafka_impl.ProducerClient
	usecase  *poster.PosterUsecase
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	objectQueue, err := minio_repo.NewObjectQueue(cfg, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create object queue: %w", err)
	}

	historyRepo := postgres_repo.NewPostsRepository(db, retries)

	publisher, err := instagram.NewClient(
		cfg.Instagram.BaseURL,
		cfg.Instagram.Username,
		cfg.Instagram.Password,
		cfg.Instagram.Timeout,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	if err := publisher.Login(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to login to publisher: %w", err)
	}

	var producer *kafka_impl.ProducerClient
	if cfg.Kafka.Enabled() {
		producer = kafka_impl.NewProducerClient(cfg)
	}

	constraints := cfg.Constraints()

	validator := compliance.NewValidator(constraints)
	normalizer := normalize.NewNormalizer(constraints, normalize.EncodingPolicy{
		InitialQuality: cfg.Poster.InitialQuality,
		MinQuality:     cfg.Poster.MinQuality,
		QualityStep:    cfg.Poster.QualityStep,
		ScaleStep:      cfg.Poster.ScaleStep,
	}, cfg.Poster.Enhance)

	usecase := poster.NewPosterUsecase(
		objectQueue,
		publisher,
		historyRepo,
		producerOrNil(producer),
		normalizer,
		validator,
		poster.StaticCaption(cfg.Poster.Caption),
		logger,
		retries,
	)

	handler := post_h.NewPostHandler(usecase, logger)

	mux := router.SetupRouter(&router.Handler{
		PostHandler: handler,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		db:       db,
		producer: producer,
		usecase:  usecase,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	if a.cfg.Poster.Interval > 0 {
		go a.runScheduler(ctx)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.db != nil && a.db.Master != nil {
			a.db.Master.Close()
		}

		if a.producer != nil {
			a.producer.Close()
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

// runScheduler posts on a fixed cadence, the service analog of the original
// scheduled invocation. An empty queue is a quiet no-op.
func (a *App) runScheduler(ctx context.Context) {
	a.logger.Info().Dur("interval", a.cfg.Poster.Interval).Msg("Scheduler started")

	ticker := time.NewTicker(a.cfg.Poster.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("Scheduler stopped")
			return
		case <-ticker.C:
			record, err := a.usecase.PostNext(ctx, poster.PostOptions{})
			switch {
			case errors.Is(err, queue.ErrQueueEmpty):
				a.logger.Debug().Msg("Queue empty, nothing to post")
			case err != nil:
				a.logger.Error().Err(err).Msg("Scheduled posting cycle failed")
			default:
				a.logger.Info().Str("key", record.ObjectKey).Str("media_id", record.MediaID).
					Msg("Scheduled post published")
			}
		}
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}

// producerOrNil keeps a typed-nil *ProducerClient from leaking into the
// usecase's interface field.
func producerOrNil(p *kafka_impl.ProducerClient) broker.Producer {
	if p == nil {
		return nil
	}
	return p
}
