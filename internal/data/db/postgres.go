package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver      string
	DSN         string
	SQLitePath  string
	MaxOpen     int
	MaxIdle     int
	SlowQuery   time.Duration
	LogSQLLevel string
}

type Service struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

// Open connects to the store named by opts.Driver. SQLite is meant for local
// single-node use; row locks are not honoured there and in-process locking is
// the only serialization.
func Open(opts Options, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService", "driver", opts.Driver)

	slow := opts.SlowQuery
	if slow <= 0 {
		slow = time.Second
	}
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormLogLevel(opts.LogSQLLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverPostgres:
		if strings.TrimSpace(opts.DSN) == "" {
			return nil, fmt.Errorf("postgres dsn is empty")
		}
		db, err = gorm.Open(postgres.Open(opts.DSN), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	case DriverSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = "file:achievement.db?_foreign_keys=on&_busy_timeout=5000"
		}
		db, err = gorm.Open(sqlite.Open(path), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", opts.Driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	if opts.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpen)
	}
	if opts.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdle)
	}

	serviceLog.Info("Database connected", "max_open", opts.MaxOpen)
	return &Service{db: db, driver: opts.Driver, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormLogLevel(v string) gormLogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}
