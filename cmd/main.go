package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/clusterview/internal/cluster"
	"github.com/UnknownOlympus/clusterview/internal/config"
	"github.com/UnknownOlympus/clusterview/internal/geocoding"
	"github.com/UnknownOlympus/clusterview/internal/mapview"
	"github.com/UnknownOlympus/clusterview/internal/metrics"
	"github.com/UnknownOlympus/clusterview/internal/models"
	"github.com/UnknownOlympus/clusterview/internal/repository"
	"github.com/UnknownOlympus/clusterview/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const loopBuffer = 64

// pinger is satisfied by *pgxpool.Pool.
type pinger interface {
	Ping(ctx context.Context) error
}

// main is the entry point of the application.
func main() {
	// Canceled on SIGINT or SIGTERM for a graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	repo, dtb := setupRepository(cfg, logger)

	var geoProvider geocoding.Provider
	if cfg.Provider.Type != "" {
		var err error
		geoProvider, err = geocoding.NewProvider(geocoding.ProviderConfig{
			Type:      geocoding.ProviderType(cfg.Provider.Type),
			APIKey:    cfg.Provider.APIKey,
			RateLimit: cfg.Provider.RateLimit,
			Region:    cfg.Provider.Region,
			Logger:    logger,
		})
		if err != nil {
			log.Fatalf("Failed to create geocoding provider: %v", err)
		}
		logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Provider.Type)
	}

	sceneService := service.NewSceneService(logger, repo, geoProvider, cfg.Provider.Type, appMetrics, cfg.Workers)
	scene, err := sceneService.Load(ctx, cfg.Cluster.Group)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}

	initialState, _ := cfg.InitialState() // checked by config validation

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := mapview.NewLoop(logger, loopBuffer)
	go loop.Run(loopCtx)

	var (
		view     *mapview.View
		ctrl     *cluster.Controller
		setupErr error
	)
	err = loop.Call(ctx, func() {
		view = mapview.NewView(
			logger,
			loop,
			mapview.Viewport{Width: cfg.Viewport.Width, Height: cfg.Viewport.Height},
			models.CameraSnapshot{Zoom: cfg.Camera.Start, Target: scene.Group.Anchor},
		)

		group, errGroup := sceneService.NewGroup(scene, service.GroupOptions{
			Duration:     cfg.Cluster.Animation,
			InitialState: initialState,
			OnSettled: func(state cluster.State) {
				logger.Info("Cluster settled", "group", scene.Group.Name, "state", state)
			},
		}, func(label string) cluster.Visual {
			return view.NewLabel(label)
		})
		if errGroup != nil {
			setupErr = errGroup
			return
		}

		ctrl = cluster.NewController(logger, group, cfg.Cluster.Threshold, appMetrics)
		ctrl.Attach(view)
		view.FinishLoading()
	})
	if err != nil || setupErr != nil {
		log.Fatalf("Failed to set up map view: %v", errors.Join(err, setupErr))
	}

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.",
		"group", scene.Group.Name, "members", len(scene.Members))

	go startMonitoringServer(ctx, logger, reg, healthCheck(loop, ctrl, dtb), cfg.Port)

	runCameraScript(ctx, logger, loop, view, cfg.Camera)

	logger.InfoContext(ctx, "Stopping application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err = loop.Call(shutdownCtx, ctrl.Close); err != nil {
		logger.Error("Failed to close cluster controller", "error", err)
	}

	logger.Info("Application stopped gracefully.")
}

// setupRepository returns the PostgreSQL repository when a database is configured and the
// configured static group otherwise. The returned pinger is nil without a database.
func setupRepository(cfg *config.Config, logger *slog.Logger) (repository.Interface, pinger) {
	if !cfg.Database.Enabled() {
		group, members, err := cfg.StaticGroup()
		if err != nil {
			log.Fatalf("Failed to read static group: %v", err)
		}
		logger.Info("No database configured, using static group", "group", group.Name, "members", len(members))

		return repository.NewStaticRepository(group, members), nil
	}

	dtb, err := repository.NewDatabase(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	return repository.NewRepository(dtb, logger), dtb
}

// runCameraScript moves the camera to each scripted zoom level, one every interval, and
// returns one interval after the last move, or when ctx is canceled. Config validation
// keeps the interval at least as long as a transition, so the last one has settled.
func runCameraScript(
	ctx context.Context,
	log *slog.Logger,
	loop *mapview.Loop,
	view *mapview.View,
	camera config.CameraConfig,
) {
	ticker := time.NewTicker(camera.Interval)
	defer ticker.Stop()

	for step := 0; ; step++ {
		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "Shutdown signal received.")
			return
		case <-ticker.C:
		}

		if step >= len(camera.Script) {
			log.InfoContext(ctx, "Camera script finished", "steps", len(camera.Script))
			return
		}

		zoom := camera.Script[step]
		err := loop.Call(ctx, func() {
			current := view.Camera()
			current.Zoom = zoom
			view.MoveCamera(current)
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to move camera", "step", step, "error", err)
			return
		}
		log.DebugContext(ctx, "Camera moved", "step", step, "zoom", zoom)
	}
}

// healthCheck reports healthy while the event loop answers and, if configured, the database responds.
func healthCheck(loop *mapview.Loop, ctrl *cluster.Controller, dtb pinger) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		if dtb != nil {
			if err := dtb.Ping(ctx); err != nil {
				return "DB ping failed", err
			}
		}

		var state cluster.State
		if err := loop.Call(ctx, func() { state = ctrl.Group().State() }); err != nil {
			return "event loop not responding", err
		}

		return "OK " + state.String(), nil
	}
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - check: Reports the health of the application.
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	check func(ctx context.Context) (string, error),
	port int,
) {
	const checkTimeout = 2 * time.Second

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, req *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")

		checkCtx, cancel := context.WithTimeout(req.Context(), checkTimeout)
		defer cancel()

		status := http.StatusOK
		body, err := check(checkCtx)
		if err != nil {
			status = http.StatusServiceUnavailable
			log.WarnContext(ctx, "Health check failed", "error", err)
		}
		writer.WriteHeader(status)
		if _, err = writer.Write([]byte(body)); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}

	return a
}
