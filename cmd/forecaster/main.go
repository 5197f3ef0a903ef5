package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/demand-forecasting/internal/demandforecast"
	"github.com/richxcame/demand-forecasting/internal/geography"
	"github.com/richxcame/demand-forecasting/internal/grid"
	"github.com/richxcame/demand-forecasting/internal/orderhistory"
	"github.com/richxcame/demand-forecasting/pkg/common"
	"github.com/richxcame/demand-forecasting/pkg/config"
	"github.com/richxcame/demand-forecasting/pkg/database"
	"github.com/richxcame/demand-forecasting/pkg/eventbus"
	"github.com/richxcame/demand-forecasting/pkg/health"
	"github.com/richxcame/demand-forecasting/pkg/logger"
	"github.com/richxcame/demand-forecasting/pkg/middleware"
	"github.com/richxcame/demand-forecasting/pkg/redis"
	"go.uber.org/zap"
)

const (
	serviceName = "forecaster"
	version     = "1.0.0"
)

const usage = `usage: forecaster <command> [flags]

commands:
  migrate   apply database migrations
  gridify   build grids over a city
  sweep     forecast every pixel of a grid over a range of days
  serve     run the HTTP API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Server.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "migrate":
		err = runMigrate(cfg)
	case "gridify":
		err = runGridify(ctx, cfg, args)
	case "sweep":
		err = runSweep(ctx, cfg, args)
	case "serve":
		err = runServe(ctx, cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func runMigrate(cfg *config.Config) error {
	if err := database.RunMigrations(cfg.Database.URL()); err != nil {
		return err
	}
	logger.Info("Migrations applied")
	return nil
}

func runGridify(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("gridify", flag.ExitOnError)
	cityName := fs.String("city", "", "name of the city to gridify")
	sides := fs.String("sides", "", "comma-separated pixel side lengths in meters (default FORECAST_SIDE_LENGTHS)")
	_ = fs.Parse(args)
	if *cityName == "" {
		return errors.New("gridify: -city is required")
	}

	sideLengths := cfg.Forecast.SideLengths
	if *sides != "" {
		parsed, err := parseInts(*sides)
		if err != nil {
			return fmt.Errorf("gridify: invalid -sides: %w", err)
		}
		sideLengths = parsed
	}

	pool, err := database.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(pool)

	cities := geography.NewRepository(pool)
	city, err := cities.GetCityByName(ctx, *cityName)
	if err != nil {
		return err
	}

	builder := grid.NewBuilder(grid.NewRepository(pool), cities)
	for _, side := range sideLengths {
		g, err := builder.Gridify(ctx, city.ID, side)
		if errors.Is(err, grid.ErrGridExists) {
			logger.Info("Grid already exists", zap.String("city", city.Name), zap.Int("side_length", side))
			continue
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%d\t%d pixels\n", g.ID, g.SideLength, len(g.Pixels))
	}
	return nil
}

func runSweep(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	gridArg := fs.String("grid", "", "id of the grid to sweep")
	model := fs.String("model", "", "model name; empty picks a model per pixel and day")
	horizon := fs.Int("horizon", cfg.Forecast.TrainHorizon, "training horizon in weeks")
	fromArg := fs.String("from", "", "first day to forecast (YYYY-MM-DD)")
	toArg := fs.String("to", "", "last day to forecast (YYYY-MM-DD, default -from)")
	_ = fs.Parse(args)

	gridID, err := uuid.Parse(*gridArg)
	if err != nil {
		return fmt.Errorf("sweep: invalid -grid: %w", err)
	}
	from, err := time.Parse(time.DateOnly, *fromArg)
	if err != nil {
		return fmt.Errorf("sweep: invalid -from: %w", err)
	}
	to := from
	if *toArg != "" {
		if to, err = time.Parse(time.DateOnly, *toArg); err != nil {
			return fmt.Errorf("sweep: invalid -to: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(pool)

	grids := grid.NewRepository(pool)
	histories := demandforecast.NewHistories(grids, orderhistory.NewRepository(pool), historyConfig(cfg))
	history, err := histories.Get(ctx, gridID)
	if err != nil {
		return err
	}

	service, _, closeService, err := newService(cfg, pool)
	if err != nil {
		return err
	}
	defer closeService()

	sweeper := demandforecast.NewSweeper(service, history, grids, demandforecast.DefaultMethods())
	report, err := sweeper.Run(ctx, demandforecast.SweepRequest{
		GridID:       gridID,
		Model:        *model,
		TrainHorizon: *horizon,
		From:         from,
		To:           to,
	})
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	}
	return err
}

func runServe(ctx context.Context, cfg *config.Config) error {
	pool, err := database.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(pool)

	service, checks, closeService, err := newService(cfg, pool)
	if err != nil {
		return err
	}
	defer closeService()
	checks["database"] = health.DatabaseChecker(pool)

	cities := geography.NewRepository(pool)
	grids := grid.NewRepository(pool)
	histories := demandforecast.NewHistories(grids, orderhistory.NewRepository(pool), historyConfig(cfg))

	gridHandler := grid.NewHandler(grid.NewBuilder(grids, cities), grids)
	forecastHandler := demandforecast.NewHandler(service, histories, demandforecast.DefaultMethods())

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.Metrics(serviceName))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", middleware.CorrelationIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health/ready", common.ReadinessCheck(serviceName, version, checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	gridHandler.RegisterRoutes(api)
	forecastHandler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
	return nil
}

// newService wires the forecast store, with the Redis cache and NATS events
// when enabled, and returns readiness checks for the enabled dependencies
func newService(cfg *config.Config, pool *pgxpool.Pool) (*demandforecast.Service, map[string]common.CheckFunc, func(), error) {
	var repo demandforecast.RepositoryInterface = demandforecast.NewRepository(pool)
	var closers []func()
	checks := make(map[string]common.CheckFunc)

	if cfg.Redis.Enabled {
		client, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		checks["redis"] = health.RedisChecker(client)
		repo = demandforecast.NewCachedRepository(repo, client, cfg.Forecast.CacheTTL)
		logger.Info("Forecast cache enabled", zap.String("addr", cfg.Redis.RedisAddr()))
	}

	var publisher eventbus.Publisher
	if cfg.NATS.Enabled {
		nc, err := eventbus.Connect(&cfg.NATS, serviceName)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, nil, err
		}
		closers = append(closers, func() { _ = nc.Close() })
		checks["nats"] = health.NATSChecker(nc.Conn())
		publisher = nc
		logger.Info("Forecast events enabled", zap.String("subject", cfg.NATS.Subject))
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return demandforecast.NewService(repo, publisher, cfg.NATS.Subject), checks, closeAll, nil
}

func historyConfig(cfg *config.Config) orderhistory.Config {
	return orderhistory.Config{
		TimeStep:       cfg.Forecast.TimeStep(),
		OperatingStart: cfg.Forecast.OperatingStartHour,
		OperatingEnd:   cfg.Forecast.OperatingEndHour,
		Cutoff:         cfg.Forecast.Cutoff,
	}
}

func parseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
