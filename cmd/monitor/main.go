package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"flightmatrix/internal/aggregator"
	alertsvc "flightmatrix/internal/alert"
	"flightmatrix/internal/config"
	cronrunner "flightmatrix/internal/cron"
	"flightmatrix/internal/db"
	"flightmatrix/internal/deal"
	"flightmatrix/internal/handler"
	"flightmatrix/internal/logger"
	"flightmatrix/internal/models"
	"flightmatrix/internal/monitor"
	"flightmatrix/internal/notify"
	gormrepository "flightmatrix/internal/repository/gorm"
	"flightmatrix/internal/source"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("FM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FM_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	if err := seedDefaultSources(context.Background(), store); err != nil {
		logger.Warn("seeding default sources failed", zap.Error(err))
	}

	registry := source.NewRegistry(cfg.Sources, cfg.Search, logger)
	defer registry.ClearCache()

	aggregatorSvc := &aggregator.Service{Repo: store, Resolver: registry, Logger: logger}
	classifier := &deal.Classifier{Repo: store, Config: cfg.Deal, Logger: logger}
	alertService := &alertsvc.Service{Repo: store, Users: store, Config: cfg.Alert, Logger: logger}
	dispatcher := &notify.Dispatcher{
		Repo:   store,
		Users:  store,
		Mailer: &notify.SMTPMailer{From: cfg.Notify.From, SMTP: cfg.Notify.SMTP},
		Deals:  classifier,
		Config: cfg.Notify,
		Logger: logger,
	}
	monitorSvc := &monitor.Service{
		Alerts:     alertService,
		Search:     aggregatorSvc,
		Deals:      classifier,
		Dispatcher: dispatcher,
		Config:     cfg.Monitor,
		Logger:     logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn}
	healthHandler.Register(engine)
	airportHandler := &handler.AirportHandler{Repo: store}
	airportHandler.Register(engine)
	sourceHandler := &handler.SourceHandler{Repo: store, Registry: registry}
	sourceHandler.Register(engine)
	fareHandler := &handler.FareHandler{Repo: store, Aggregator: aggregatorSvc}
	fareHandler.Register(engine)
	dealHandler := &handler.DealHandler{Classifier: classifier}
	dealHandler.Register(engine)
	alertHandler := &handler.AlertHandler{Service: alertService, Repo: store}
	alertHandler.Register(engine)
	userHandler := &handler.UserHandler{Repo: store}
	userHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.DailyScan, func(ctx context.Context) {
			if err := monitorSvc.DailyScan(ctx); err != nil {
				logger.Warn("cron daily scan failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Fatal("cron register daily scan failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.UpcomingScan, func(ctx context.Context) {
			if err := monitorSvc.UpcomingScan(ctx); err != nil {
				logger.Warn("cron upcoming scan failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Fatal("cron register upcoming scan failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Cron.DailyDigest, func(ctx context.Context) {
			if err := dispatcher.DispatchDailyDigest(ctx); err != nil {
				logger.Warn("cron daily digest failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Fatal("cron register daily digest failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// seedDefaultSources inserts the known providers the first time the service
// starts against an empty database. Operators toggle them from there.
func seedDefaultSources(ctx context.Context, store *gormrepository.Store) error {
	count, err := store.CountSources(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return store.CreateSources(ctx, []models.Source{
		{Name: source.NameBookingData, URL: "https://booking-data.p.rapidapi.com", Kind: models.SourceKindAPI, Active: true},
		{Name: source.NameMaxMilhas, URL: "https://api.maxmilhas.com.br", Kind: models.SourceKindAPI, Active: true},
		{Name: source.NameMilhas123, URL: "https://123milhas.com", Kind: models.SourceKindAPIScraping, Active: true},
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
