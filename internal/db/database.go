package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quiplabs/quip-backend/internal/logger"
	"github.com/quiplabs/quip-backend/internal/types"
	"github.com/quiplabs/quip-backend/internal/utils"
)

// expectedTables are the tables the store owns. HealthCheck counts them
// and lazily initialises the schema when any are missing.
var expectedTables = []string{"sessions", "courses", "sections"}

type DatabaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewDatabaseService opens the backing store selected by DB_DRIVER
// (sqlite by default, postgres optional) and runs the schema health
// check. The health check swallows store errors so a broken store
// yields a degraded-but-alive service rather than a crash.
func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := utils.GetEnv("DB_DRIVER", "sqlite", log)

	var (
		gdb *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		port := utils.GetEnv("POSTGRES_PORT", "5432", log)
		user := utils.GetEnv("POSTGRES_USER", "postgres", log)
		password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		name := utils.GetEnv("POSTGRES_NAME", "quip", log)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "sqlite":
		path := utils.GetEnv("DB_PATH", "quip.db", log)
		gdb, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	if err != nil {
		serviceLog.Error("Failed to connect to database", "driver", driver, "error", err)
		return nil, fmt.Errorf("connect database: %w", err)
	}

	svc := &DatabaseService{db: gdb, log: serviceLog}
	svc.HealthCheck()
	return svc, nil
}

// NewDatabaseServiceWithDB wraps an already-open gorm handle. Used by
// tests that run against sqlite :memory:.
func NewDatabaseServiceWithDB(gdb *gorm.DB, log *logger.Logger) *DatabaseService {
	return &DatabaseService{db: gdb, log: log.With("service", "DatabaseService")}
}

// HealthCheck counts the expected tables and initialises the schema when
// fewer than all of them exist. Safe to call repeatedly; reports false
// instead of raising on store failure.
func (s *DatabaseService) HealthCheck() bool {
	count, err := s.countExpectedTables()
	if err != nil {
		s.log.Error("Health check failed", "error", err)
		return false
	}
	if count < len(expectedTables) {
		s.log.Info("Tables missing, initialising schema", "found", count, "expected", len(expectedTables))
		if err := s.initialise(); err != nil {
			s.log.Error("Schema initialisation failed", "error", err)
			return false
		}
	}
	return true
}

func (s *DatabaseService) countExpectedTables() (int, error) {
	var (
		count int64
		err   error
	)
	switch s.db.Dialector.Name() {
	case "sqlite", "sqlite3":
		err = s.db.Raw(
			`SELECT COUNT(name) FROM sqlite_master WHERE type = 'table' AND name IN ('sessions', 'courses', 'sections')`,
		).Scan(&count).Error
	default:
		err = s.db.Raw(
			`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name IN ('sessions', 'courses', 'sections')`,
		).Scan(&count).Error
	}
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *DatabaseService) initialise() error {
	return s.db.AutoMigrate(
		&types.Session{},
		&types.Course{},
		&types.Section{},
	)
}

func (s *DatabaseService) DB() *gorm.DB {
	return s.db
}
