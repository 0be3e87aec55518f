package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/obe-achievement/internal/data/db"
	"github.com/yungbote/obe-achievement/internal/modules/achievement"
	"github.com/yungbote/obe-achievement/internal/platform/envutil"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

type DatabaseConfig struct {
	Driver     string        `yaml:"driver"`
	DSN        string        `yaml:"dsn"`
	SQLitePath string        `yaml:"sqlite_path"`
	MaxOpen    int           `yaml:"max_open"`
	MaxIdle    int           `yaml:"max_idle"`
	SlowQuery  time.Duration `yaml:"slow_query"`
	LogLevel   string        `yaml:"log_level"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type OtelConfig struct {
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type Config struct {
	Port               string             `yaml:"port"`
	LogMode            string             `yaml:"log_mode"`
	CORSAllowedOrigins []string           `yaml:"cors_allowed_origins"`
	MetricsAddr        string             `yaml:"metrics_addr"`
	Database           DatabaseConfig     `yaml:"database"`
	Redis              RedisConfig        `yaml:"redis"`
	Otel               OtelConfig         `yaml:"otel"`
	Achievement        achievement.Config `yaml:"achievement"`
}

func defaultConfig() Config {
	return Config{
		Port:        "8080",
		LogMode:     "development",
		Database:    DatabaseConfig{Driver: db.DriverPostgres, MaxOpen: 20, MaxIdle: 5, SlowQuery: time.Second, LogLevel: "warn"},
		Redis:       RedisConfig{Channel: "obe.achievement.changed"},
		Otel:        OtelConfig{ServiceName: "obe-achievement", Environment: "development"},
		Achievement: achievement.DefaultConfig(),
	}
}

// LoadConfig reads ACHIEVEMENT_CONFIG_FILE when set, then applies environment
// overrides. Environment always wins over the file.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("ACHIEVEMENT_CONFIG_FILE", ""); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	applyEnv(&cfg)
	if _, ok := achievement.ParseDependencyMode(string(cfg.Achievement.DependencyMode)); !ok {
		return Config{}, fmt.Errorf("unknown dependency mode %q", cfg.Achievement.DependencyMode)
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.MetricsAddr = envutil.String("METRICS_ADDR", cfg.MetricsAddr)
	if v := envutil.String("CORS_ALLOWED_ORIGINS", ""); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	d := &cfg.Database
	d.Driver = envutil.String("DB_DRIVER", d.Driver)
	d.DSN = envutil.String("POSTGRES_DSN", d.DSN)
	d.SQLitePath = envutil.String("SQLITE_PATH", d.SQLitePath)
	d.MaxOpen = envutil.Int("DB_MAX_OPEN_CONNS", d.MaxOpen)
	d.MaxIdle = envutil.Int("DB_MAX_IDLE_CONNS", d.MaxIdle)
	d.SlowQuery = envutil.Duration("DB_SLOW_QUERY", d.SlowQuery)
	d.LogLevel = envutil.String("DB_LOG_LEVEL", d.LogLevel)

	r := &cfg.Redis
	r.Addr = envutil.String("REDIS_ADDR", r.Addr)
	r.Password = envutil.String("REDIS_PASSWORD", r.Password)
	r.DB = envutil.Int("REDIS_DB", r.DB)
	r.Channel = envutil.String("REDIS_CHANNEL", r.Channel)

	o := &cfg.Otel
	o.ServiceName = envutil.String("OTEL_SERVICE_NAME", o.ServiceName)
	o.Environment = envutil.String("APP_ENV", o.Environment)
	o.Version = envutil.String("APP_VERSION", o.Version)

	a := &cfg.Achievement
	a.WeightEpsilon = envutil.Float("ACHIEVEMENT_WEIGHT_EPSILON", a.WeightEpsilon)
	a.DefaultCourseOutcomeThreshold = envutil.Float("ACHIEVEMENT_DEFAULT_CO_THRESHOLD", a.DefaultCourseOutcomeThreshold)
	a.DefaultProgramOutcomeThreshold = envutil.Float("ACHIEVEMENT_DEFAULT_PO_THRESHOLD", a.DefaultProgramOutcomeThreshold)
	a.BestEffort = envutil.Bool("ACHIEVEMENT_BEST_EFFORT", a.BestEffort)
	a.DependencyMode = achievement.DependencyMode(envutil.String("ACHIEVEMENT_DEPENDENCY_MODE", string(a.DependencyMode)))
	a.RecomputeConcurrency = envutil.Int("ACHIEVEMENT_RECOMPUTE_CONCURRENCY", a.RecomputeConcurrency)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) dbOptions() db.Options {
	return db.Options{
		Driver:      c.Database.Driver,
		DSN:         c.Database.DSN,
		SQLitePath:  c.Database.SQLitePath,
		MaxOpen:     c.Database.MaxOpen,
		MaxIdle:     c.Database.MaxIdle,
		SlowQuery:   c.Database.SlowQuery,
		LogSQLLevel: c.Database.LogLevel,
	}
}
