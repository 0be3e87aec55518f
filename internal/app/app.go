package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/obe-achievement/internal/clients/redis"
	"github.com/yungbote/obe-achievement/internal/data/db"
	types "github.com/yungbote/obe-achievement/internal/domain"
	apphttp "github.com/yungbote/obe-achievement/internal/http"
	"github.com/yungbote/obe-achievement/internal/modules/achievement"
	"github.com/yungbote/obe-achievement/internal/observability"
	"github.com/yungbote/obe-achievement/internal/platform/envutil"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    achievement.Repos
	Services Services
	Metrics  *observability.Metrics

	store        *db.Service
	bus          redis.AchievementBus
	otelShutdown func(context.Context) error
	server       *apphttp.Server
	cancel       context.CancelFunc
	closeOnce    sync.Once
}

func New() (*App, error) {
	boot, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	boot.Info("Loading configuration...")
	cfg, err := LoadConfig(boot)
	if err != nil {
		boot.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := boot
	if cfg.LogMode != envutil.String("LOG_MODE", "development") {
		if log, err = logger.New(cfg.LogMode); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}
	return NewWithConfig(log, cfg)
}

// NewWithConfig wires the application from an already loaded config. It is
// shared by the server and the recompute command.
func NewWithConfig(log *logger.Logger, cfg Config) (*App, error) {
	store, err := db.Open(cfg.dbOptions(), log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(store.DB()); err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := store.DB()

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Otel.Environment,
		Version:     cfg.Otel.Version,
	})

	var (
		bus redis.AchievementBus
		pub achievement.Publisher = achievement.NoopPublisher{}
	)
	if cfg.Redis.Addr != "" {
		bus, err = redis.NewAchievementBus(log, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			_ = store.Close()
			log.Sync()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		pub = bus
	} else {
		log.Warn("REDIS_ADDR not set; achievement events are not published")
	}

	reposet := wireRepos(theDB, log)
	engine := wireEngine(theDB, log, cfg, reposet, pub, metrics)
	serviceset := wireServices(log, engine)

	sqlDB, err := theDB.DB()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("db handle: %w", err)
	}
	handlerset := wireHandlers(log, sqlDB, serviceset)
	router := wireRouter(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		store:        store,
		bus:          bus,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background collectors. It is safe to call once.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	if a.bus != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.bus.Client())
		if envutil.Bool("REDIS_TAIL_EVENTS", false) {
			tailLog := a.Log.With("component", "AchievementEventTail")
			if err := a.bus.StartForwarder(ctx, func(ev types.AchievementEvent) {
				tailLog.Debug("achievement changed",
					"enrollment_id", ev.EnrollmentID,
					"level", ev.Level,
					"outcome_id", ev.OutcomeID,
					"status", ev.Status,
				)
			}); err != nil {
				a.Log.Warn("event tail not started", "error", err)
			}
		}
	}
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.server = &apphttp.Server{Engine: a.Router}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.server.Run(addr)
}

// Close stops the server and releases every client. Repeated calls are no-ops.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.closeOnce.Do(a.close)
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.Log.Warn("http shutdown", "error", err)
		}
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.bus != nil {
		_ = a.bus.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
