package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"interview-platform/domain"
	"interview-platform/infrastructure"
	"interview-platform/interfaces"
	"interview-platform/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newComponents(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", zap.Error(err))
		return err
	}
	defer app.close()

	var locker domain.Locker = infrastructure.NewLocalLocker()
	if cfg.Redis.URL != "" {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, rdb.Close)
		locker = infrastructure.NewRedisLocker(rdb, cfg.Redis.LockTTL, logger)
	} else {
		logger.Warn("REDIS_URL is not set, interview locks are local to this process")
	}

	if err := infrastructure.SetPDFLicense(cfg.UnidocLicenseKey); err != nil {
		logger.Warn("failed to register PDF license, local PDF extraction may fail", zap.Error(err))
	}
	var pdfFallback infrastructure.PDFReader
	if gemini, ok := app.llm.(*infrastructure.GeminiCompleter); ok {
		pdfFallback = gemini
	}

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Interviews: app.interviews,
		Candidates: app.candidates,
		Positions:  app.positions,
		Evaluator:  app.evaluator,
		Locker:     locker,
		Finisher:   app.lifecycle,
		AutoFinish: cfg.Interview.AutoFinish,
		Log:        logger,
	})
	onboarding := usecase.NewOnboarding(usecase.OnboardingDeps{
		Candidates: app.candidates,
		Positions:  app.positions,
		Interviews: app.interviews,
		Refiner:    app.evaluator,
		Extractor:  infrastructure.NewTextExtractor(pdfFallback, logger),
		TTL:        cfg.Interview.TTL,
		Log:        logger,
	})

	if !cfg.Log.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := interfaces.NewRouter(logger)
	interfaces.NewHTTPHandler(router, &interfaces.HTTPHandler{
		Orchestrator:   orchestrator,
		Lifecycle:      app.lifecycle,
		Onboarding:     onboarding,
		Pipeline:       app.pipeline,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server running", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
