package server

import (
	"context"
	"log/slog"
	"net/http"

	"pickup-games/internal/app/games"
	"pickup-games/internal/app/ratings"
	"pickup-games/internal/app/users"
	"pickup-games/internal/auth"
	"pickup-games/internal/config"
	httpserver "pickup-games/internal/http"
	"pickup-games/internal/http/handlers"
	"pickup-games/internal/http/middleware"
	"pickup-games/internal/logging"
	"pickup-games/internal/metrics"
)

var metricsSetup = metrics.Setup

type Server struct {
	cfg            config.Config
	logger         *slog.Logger
	metrics        *metrics.Recorder
	store          backend
	gamesService   *games.Service
	ratingsService *ratings.Service
	usersService   *users.Service
	httpServer     httpServer
	metricsServer  httpServer
	reconciler     Worker
	notifierClose  func(context.Context) error
	metricsStop    func(context.Context) error
}

// New opens the configured store and wires every service behind the HTTP router.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	st, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	return newServerWithBackend(cfg, logger, st, nil), nil
}

func newServerWithBackend(cfg config.Config, logger *slog.Logger, st backend, recorder *metrics.Recorder) *Server {
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)
	notifier, notifierClose := buildNotifier(cfg.Notify, logger, recorder)

	userSvc := users.NewService(st, logger, nil, cfg.MutationRetries)
	gameSvc := games.NewService(st, games.Options{
		Users:       st,
		Profiles:    userSvc,
		Activity:    userSvc,
		Notifier:    notifier,
		Recorder:    recorder,
		Logger:      logger,
		Location:    cfg.Location,
		MaxAttempts: cfg.MutationRetries,
	})
	ratingSvc := ratings.NewService(st, st, recorder, logger, nil, cfg.MutationRetries)

	var (
		worker   Worker
		statusFn func() ratings.Status
	)
	if cfg.Reconcile.Enabled {
		rec := ratings.NewReconciler(st, logger, recorder, cfg.Reconcile.Interval)
		worker = rec
		statusFn = rec.Status
	}

	handler := handlers.NewHandler(handlers.Deps{
		Games:           gameSvc,
		Ratings:         ratingSvc,
		Users:           userSvc,
		Store:           st,
		ReconcileStatus: statusFn,
		Logger:          logger,
	})
	httpSrv := buildHTTPServer(cfg, handler, logger, recorder)

	return &Server{
		cfg:            cfg,
		logger:         logger,
		metrics:        recorder,
		store:          st,
		gamesService:   gameSvc,
		ratingsService: ratingSvc,
		usersService:   userSvc,
		httpServer:     httpSrv,
		metricsServer:  metricsSrv,
		reconciler:     worker,
		notifierClose:  notifierClose,
		metricsStop:    metricsShutdown,
	}
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, httpSrv httpServer, worker Worker) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpSrv,
		reconciler: worker,
	}
}

func buildHTTPServer(cfg config.Config, handler *handlers.Handler, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	verifier := auth.NewVerifier(auth.Config{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.JWTIssuer,
	})
	if !verifier.Configured() && logger != nil {
		logger.Warn("AUTH_JWT_SECRET is empty, every authenticated route will return 401")
	}

	router := httpserver.NewRouter(handler, verifier)
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	wrapped := middleware.LoggingMiddleware(logger, recorder, router)

	return newNetHTTPServer(":"+cfg.Port, wrapped)
}

// Run starts the reconciler and HTTP server, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	if s.reconciler != nil {
		s.reconciler.Start(ctx)
	}

	<-ctx.Done()
	if s.logger != nil {
		s.logger.Info("shutdown signal received")
	}

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	if s.logger != nil {
		s.logger.Info("http server starting", slog.String("addr", s.httpServer.Addr()))
	}
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	if s.logger != nil {
		s.logger.Info("metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	}
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

// gracefulShutdown stops intake first, then drains queued notifications
// and finally releases the store.
func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.reconciler != nil {
		if err := s.reconciler.Stop(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Error("failed to stop reconciler", "error", err)
		}
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil && s.logger != nil {
		s.logger.Error("graceful shutdown failed", "error", err)
	}

	if s.notifierClose != nil {
		if err := s.notifierClose(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("notification queue did not drain", "error", err)
		}
	}

	if c, ok := s.store.(closer); ok {
		if err := c.Close(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("store close failed", "error", err)
		}
	}

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil && s.logger != nil {
			s.logger.Warn("metrics server shutdown failed", "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("shutdown complete")
	}
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		if logger != nil {
			logger.Warn("metrics setup failed, continuing without telemetry", "err", err)
		}
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = newNetHTTPServer(":"+recCfg.Port, handler)
	}

	return rec, metricsSrv, shutdown
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
