package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskdesk/api/handler"
	"github.com/fastygo/taskdesk/internal/config"
	"github.com/fastygo/taskdesk/internal/infrastructure/metrics"
	"github.com/fastygo/taskdesk/internal/infrastructure/monitor"
	"github.com/fastygo/taskdesk/internal/middleware"
	"github.com/fastygo/taskdesk/internal/router"
	"github.com/fastygo/taskdesk/internal/services/lifecycle"
	"github.com/fastygo/taskdesk/internal/storage"
	"github.com/fastygo/taskdesk/pkg/httpcontext"
	"github.com/fastygo/taskdesk/pkg/logger"
	authUC "github.com/fastygo/taskdesk/usecase/auth"
	profileUC "github.com/fastygo/taskdesk/usecase/profile"
	taskUC "github.com/fastygo/taskdesk/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	backend, err := storage.Open(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage initialization failed", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	manager.Register("storage", backend.Close)

	appMetrics := metrics.New()

	mon := monitor.New(backend.Checks, cfg.Monitor.Interval, zapLogger,
		monitor.WithReporter(appMetrics),
		monitor.WithSize(backend.Size),
	)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop(ctx)
		return nil
	})

	authUseCase := authUC.New(backend.Users, backend.Principals, zapLogger)
	profileUseCase := profileUC.New(backend.Users, zapLogger)
	taskUseCase := taskUC.New(backend.Tasks, zapLogger, taskUC.WithRecorder(appMetrics))

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Profile: apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:    apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, authUseCase, ctxAdapter, appMetrics, zapLogger)

	opts := router.Options{Pprof: cfg.HTTP.EnablePprof}
	if cfg.HTTP.EnableMetrics {
		opts.Metrics = appMetrics.Handler()
	}
	r := router.New(handlers, authMiddleware, appMetrics, opts)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		Name:               cfg.AppName,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("principal_cache", backend.Principals != nil))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Error("server stopped", zap.Error(err))
			cancel()
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
