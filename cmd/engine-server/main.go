// Command engine-server wires the engine to an HTTP producer surface, in
// the spirit of the teacher's cmd entrypoint: flag-based configuration,
// a root context, and a signal-driven graceful shutdown. The HTTP layer
// (gin) is kept outside the engine core per spec.md §1 — it exists only to
// give EnqueueEvent and Health an external caller.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/otolab/sebas-chan-sub000/bridge/redisqueue"
	"github.com/otolab/sebas-chan-sub000/condition"
	"github.com/otolab/sebas-chan-sub000/driver"
	"github.com/otolab/sebas-chan-sub000/engine"
	"github.com/otolab/sebas-chan-sub000/event"
	pkgconfig "github.com/otolab/sebas-chan-sub000/pkg/config"
	"github.com/otolab/sebas-chan-sub000/pkg/logger"
	"github.com/otolab/sebas-chan-sub000/pkg/metrics"
	"github.com/otolab/sebas-chan-sub000/ratelimit"
	"github.com/otolab/sebas-chan-sub000/registry"
	"github.com/otolab/sebas-chan-sub000/schedule"
	"github.com/otolab/sebas-chan-sub000/storage"
	"github.com/otolab/sebas-chan-sub000/storage/memory"
	"github.com/otolab/sebas-chan-sub000/storage/postgres"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	configPath := flag.String("config", "", "path to a YAML config overlay")
	dsn := flag.String("dsn", "", "PostgreSQL DSN (overrides DATABASE_URL; in-memory storage when empty)")
	driverRegistryPath := flag.String("driver-registry", "", "path to a declarative driver registry YAML file (overrides config)")
	conditionConfigPath := flag.String("condition-config", "", "path to a declarative condition-gated annotation workflow YAML file")
	redisAddr := flag.String("redis-addr", "", "Redis address for the durability bridge (disabled when empty)")
	enableSchedule := flag.Bool("schedule", true, "run the built-in cron-driven event producers")
	flag.Parse()

	cfg, err := pkgconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *driverRegistryPath != "" {
		cfg.DriverRegistryPath = *driverRegistryPath
	}

	log0 := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	store, closeStore := openStorage(*dsn, cfg)
	defer closeStore()

	eng := engine.New(cfg, store, log0)

	rootCtx := context.Background()
	registerDrivers := defaultDriverRegistration(cfg.DriverRegistryPath, log0)
	registerWorkflows := defaultWorkflowRegistration(*conditionConfigPath, log0)
	if err := eng.Initialize(rootCtx, registerWorkflows, registerDrivers); err != nil {
		log.Fatalf("initialize engine: %v", err)
	}
	if err := eng.Start(rootCtx); err != nil {
		log.Fatalf("start engine: %v", err)
	}
	log0.Info("engine started")

	var bridge *redisqueue.Bridge
	if *redisAddr != "" {
		bridge = redisqueue.New(redisqueue.Config{Addr: *redisAddr}, log0)
		if err := bridge.Ping(rootCtx); err != nil {
			log0.WithField("error", err).Warn("redis bridge unreachable at startup")
		}
	}

	var sched *schedule.Scheduler
	if *enableSchedule {
		sched = schedule.New(eng.EnqueueEvent, log0)
		for _, job := range schedule.DefaultJobs() {
			if err := sched.AddJob(job); err != nil {
				log.Fatalf("register schedule job %s: %v", job.Name, err)
			}
		}
		sched.Start()
	}

	limiter := ratelimit.New(ratelimit.DefaultConfig())
	router := buildRouter(eng, limiter, bridge)

	srv := &http.Server{Addr: *addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()
	log0.WithField("addr", *addr).Info("http server listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if bridge != nil {
		bridge.Close()
	}
	_ = srv.Shutdown(shutdownCtx)
	eng.Stop()
	log0.Info("engine stopped")
}

func openStorage(flagDSN string, cfg pkgconfig.Config) (storage.Handle, func()) {
	dsn := flagDSN
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		store := memory.New(cfg.StateBootstrap)
		return store, func() {}
	}

	store, err := postgres.Open(dsn)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		log.Fatalf("migrate postgres: %v", err)
	}
	return store, func() { store.Close() }
}

// defaultWorkflowRegistration seeds the registry with nothing of its own
// when configPath is empty — the engine ships no built-in workflows
// (spec.md leaves workflow authorship to embedders) — but when an operator
// points it at a condition config file, it loads and registers the
// declarative condition-gated annotation workflows described there.
func defaultWorkflowRegistration(configPath string, log0 *logger.Logger) func(*registry.Registry) error {
	return func(reg *registry.Registry) error {
		if configPath == "" {
			return nil
		}
		defs, err := condition.LoadWorkflowFile(configPath)
		if err != nil {
			return err
		}
		for _, def := range defs {
			if err := reg.Register(def); err != nil {
				return err
			}
		}
		log0.WithField("count", len(defs)).Info("loaded declarative condition workflows")
		return nil
	}
}

func defaultDriverRegistration(registryPath string, log0 *logger.Logger) func(*driver.Registry) error {
	return func(reg *driver.Registry) error {
		if registryPath == "" {
			return nil
		}
		loaded, err := driver.LoadRegistryFile(registryPath)
		if err != nil {
			return err
		}
		for _, factory := range loaded.Factories() {
			if err := reg.Register(factory); err != nil {
				return err
			}
		}
		log0.WithField("count", reg.Count()).Info("loaded declarative driver registry")
		return nil
	}
}

func buildRouter(eng *engine.Engine, limiter *ratelimit.Limiter, bridge *redisqueue.Bridge) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		health := eng.Health(c.Request.Context())
		status := http.StatusOK
		if !health.Ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	})

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.POST("/events", func(c *gin.Context) {
		if err := limiter.AllowOrReject(); err != nil {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}

		var req struct {
			Kind     string         `json:"kind" binding:"required"`
			Payload  map[string]any `json:"payload"`
			Priority string         `json:"priority"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		priority := parsePriority(req.Priority)
		id, err := eng.EnqueueEvent(event.Kind(req.Kind), req.Payload, priority)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if bridge != nil {
			if err := bridge.Publish(c.Request.Context(), &event.Event{Kind: event.Kind(req.Kind), Payload: req.Payload, Priority: priority}); err != nil {
				c.Header("X-Bridge-Warning", "durability bridge publish failed")
			}
		}

		c.JSON(http.StatusAccepted, gin.H{"event_id": id})
	})

	return router
}

func parsePriority(raw string) event.Priority {
	switch raw {
	case "high":
		return event.PriorityHigh
	case "low":
		return event.PriorityLow
	default:
		if n, err := strconv.Atoi(raw); err == nil {
			return event.Priority(n)
		}
		return event.PriorityNormal
	}
}
