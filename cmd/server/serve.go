package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/floradex/internal/config"
	"github.com/iliyamo/floradex/internal/database"
	"github.com/iliyamo/floradex/internal/handler"
	"github.com/iliyamo/floradex/internal/identify"
	"github.com/iliyamo/floradex/internal/imagestore"
	"github.com/iliyamo/floradex/internal/logging"
	"github.com/iliyamo/floradex/internal/metrics"
	"github.com/iliyamo/floradex/internal/middleware"
	"github.com/iliyamo/floradex/internal/perenual"
	"github.com/iliyamo/floradex/internal/plantnet"
	"github.com/iliyamo/floradex/internal/queue"
	"github.com/iliyamo/floradex/internal/repository"
	"github.com/iliyamo/floradex/internal/router"
	"github.com/iliyamo/floradex/internal/service"
)

const shutdownTimeout = 10 * time.Second

// serve wires every component and runs the HTTP server, plus the event
// consumer when events are enabled, until SIGINT or SIGTERM.
func serve(ctx context.Context, v *viper.Viper) error {
	cfg, log, err := setup(v)
	if err != nil {
		return err
	}
	defer log.Sync()

	// The database must be reachable at startup.
	db, err := database.Open(cfg.DSNParts())
	if err != nil {
		log.Error("database unavailable", "host", cfg.DBHost, "error", err)
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	m, err := metrics.NewWithDefaultRegistry()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	if cfg.PlantNet.APIKey == "" {
		log.Warn("PLANTNET_API_KEY is not set, identification requests will fail")
	}
	if cfg.Perenual.APIKey == "" {
		log.Warn("PERENUAL_API_KEY is not set, default care details will be returned")
	}
	recognizer := plantnet.NewClient(plantnet.Config{
		APIKey:  cfg.PlantNet.APIKey,
		BaseURL: cfg.PlantNet.BaseURL,
		Project: cfg.PlantNet.Project,
		Timeout: cfg.ExternalTimeout,
	}, plantnet.WithObserver(m), plantnet.WithLogger(log.With("component", "plantnet")))
	care := perenual.NewClient(perenual.Config{
		APIKey:  cfg.Perenual.APIKey,
		BaseURL: cfg.Perenual.BaseURL,
		Timeout: cfg.ExternalTimeout,
	}, perenual.WithObserver(m), perenual.WithLogger(log.With("component", "perenual")))
	pipeline := identify.New(recognizer, care,
		identify.WithLogger(log.With("component", "identify")),
		identify.WithRecorder(m))

	images, err := imagestore.New(cfg.StaticDir, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	var brokerURL string
	if cfg.EventsEnabled {
		brokerURL = cfg.RabbitURL
	}
	events := service.NewPublisher(brokerURL, log.With("component", "events"), m)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	} else if cfg.RateLimit.Enabled || cfg.Cache.Enabled {
		log.Warn("redis unreachable, rate limiting and caching disabled", "addr", cfg.Redis.Addr)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	plants := repository.NewPlantRepo(db)
	species := repository.NewSpeciesRepo(db)

	e := newEcho(cfg, log)
	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb, log.With("component", "ratelimit"))
	cache := middleware.NewRedisCache(cfg.Cache, rdb, log.With("component", "cache"))

	router.RegisterRoutes(e, m.Handler(), images.Dir())
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), limit)
	router.RegisterUsers(e, handler.NewUserHandler(cfg, users, plants, images, log), cfg.JWTSecret, limit)
	router.RegisterPlants(e, handler.NewPlantHandler(plants, images, log), cfg.JWTSecret, limit)
	router.RegisterIdentify(e, handler.NewIdentifyHandler(pipeline, plants, images, events, log), cfg.JWTSecret, limit)
	router.RegisterSpecies(e, handler.NewSpeciesHandler(species, care, log), cfg.JWTSecret, limit, cache)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	addr := ":" + cfg.Port
	g.Go(func() error {
		log.Info("listening", "addr", addr, "env", cfg.Env, "events", cfg.EventsEnabled)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	if cfg.EventsEnabled {
		consumer := &queue.Consumer{URL: cfg.RabbitURL, LogPath: queue.DefaultLogPath, Log: log.With("component", "consumer")}
		g.Go(func() error { return consumer.Run(gctx) })
	}
	return g.Wait()
}

// newEcho creates the server with the global middleware chain.
func newEcho(cfg config.Config, log *logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
	}))
	if cfg.MaxUploadBytes > 0 {
		// base64 JSON uploads are a third larger than the image itself
		e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.MaxUploadBytes*4/3+64<<10)))
	}
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			kv := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				log.Warn("request failed", append(kv, "error", v.Error)...)
				return nil
			}
			log.Info("request", kv...)
			return nil
		},
	}))
	return e
}
