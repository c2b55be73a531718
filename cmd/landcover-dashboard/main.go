package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-landcover-timeline/internal/api"
	"github.com/mr1hm/go-landcover-timeline/internal/config"
	internalgrpc "github.com/mr1hm/go-landcover-timeline/internal/grpc"
	"github.com/mr1hm/go-landcover-timeline/internal/layers"
	"github.com/mr1hm/go-landcover-timeline/internal/loader"
	"github.com/mr1hm/go-landcover-timeline/internal/logging"
	"github.com/mr1hm/go-landcover-timeline/internal/metrics"
	"github.com/mr1hm/go-landcover-timeline/internal/models"
	"github.com/mr1hm/go-landcover-timeline/internal/render"
	"github.com/mr1hm/go-landcover-timeline/internal/repository"
	"github.com/mr1hm/go-landcover-timeline/internal/timeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table, population, err := repository.Bootstrap(ctx, db, cfg.Data.StatsPath, cfg.Data.PopulationPath)
	if err != nil {
		logging.Fatalf("Failed to load dataset: %v", err)
	}

	years := models.YearRange{First: cfg.Timeline.FirstYear, Last: cfg.Timeline.LastYear}
	resolver := layers.NewResolver()
	mode := layers.ParseViewMode(cfg.Timeline.ViewMode)
	if !resolver.Has(mode) {
		logging.Fatalf("Unknown view mode %q, known modes: %v", mode, resolver.Modes())
	}

	aggregator := metrics.NewAggregator(table, population, cfg.Timeline.BaselineYear)
	controller := timeline.NewController(years)
	broadcaster := internalgrpc.NewBroadcaster()

	// Load pass
	loadDone := make(chan struct{})
	if cfg.Render.Enabled {
		l := loader.New(render.NewHTTPClient(cfg.Render.URL), resolver, years, mode,
			loader.WithPublisher(broadcaster),
			loader.WithOnComplete(func(res *loader.Result) { controller.MarkReady(res) }),
			loader.WithFetchTimeout(cfg.Render.Timeout),
		)
		go func() {
			defer close(loadDone)
			if _, err := l.Load(ctx); err != nil {
				slog.Warn("load pass interrupted", "error", err)
			}
		}()
	} else {
		slog.Info("rendering disabled, serving statistics only")
		controller.MarkReady(&loader.Result{
			Years: years,
			Mode:  mode,
			Units: map[int]models.RenderableUnit{},
		})
		close(loadDone)
	}

	// Start gRPC server
	grpcServer := internalgrpc.NewServer(controller, aggregator, broadcaster)
	go func() {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.AllowedOrigin},
		AllowMethods:     []string{"GET", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Layers-Year"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(controller, aggregator, resolver, years)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	<-loadDone
	broadcaster.Close()
	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
