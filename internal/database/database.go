package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/straye-as/renewal-api/internal/config"
	"github.com/straye-as/renewal-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Stores holds one handle per logical store. In postgres mode all three
// point at the same connection pool.
type Stores struct {
	Users    *gorm.DB
	Projects *gorm.DB
	Meetings *gorm.DB
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Open connects the three stores described by cfg
func Open(cfg *config.DatabaseConfig, log *zap.Logger) (*Stores, error) {
	switch cfg.Driver {
	case DriverPostgres:
		db, err := openPostgres(cfg)
		if err != nil {
			return nil, err
		}
		log.Info("Connected to PostgreSQL", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
		return &Stores{Users: db, Projects: db, Meetings: db}, nil
	case DriverSQLite, "":
		paths := cfg.SQLitePaths()
		handles := make([]*gorm.DB, len(paths))
		for i, path := range paths {
			if dir := filepath.Dir(path); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
				}
			}
			db, err := OpenSQLite(SQLiteFileDSN(path))
			if err != nil {
				return nil, fmt.Errorf("failed to open store %s: %w", path, err)
			}
			handles[i] = db
		}
		log.Info("Opened SQLite stores",
			zap.String("users", cfg.UsersPath),
			zap.String("projects", cfg.ProjectsPath),
			zap.String("meetings", cfg.MeetingsPath),
		)
		return &Stores{Users: handles[0], Projects: handles[1], Meetings: handles[2]}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func openPostgres(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.ConnectionString()), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// SQLiteFileDSN turns a file path into a DSN with foreign keys enforced
func SQLiteFileDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

// OpenSQLite opens a single sqlite store. SQLite allows one writer, so the
// pool is capped at one connection.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates every table in its store
func AutoMigrate(s *Stores) error {
	if err := s.Users.AutoMigrate(&domain.User{}, &domain.ActivityLog{}); err != nil {
		return fmt.Errorf("failed to migrate users store: %w", err)
	}
	if err := s.Projects.AutoMigrate(
		&domain.Project{},
		&domain.Complex{},
		&domain.Resident{},
		&domain.SecondaryOwner{},
		&domain.ResidentDocument{},
		&domain.ChatMessage{},
		&domain.StaffMessage{},
		&domain.Lead{},
		&domain.SupportTicket{},
	); err != nil {
		return fmt.Errorf("failed to migrate projects store: %w", err)
	}
	if err := s.Meetings.AutoMigrate(&domain.Meeting{}); err != nil {
		return fmt.Errorf("failed to migrate meetings store: %w", err)
	}
	return nil
}

// StoreHealth is the per-store ping result
type StoreHealth struct {
	Status          string `json:"status"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	Error           string `json:"error,omitempty"`
}

func (s *Stores) named() map[string]*gorm.DB {
	return map[string]*gorm.DB{"users": s.Users, "projects": s.Projects, "meetings": s.Meetings}
}

// HealthCheck pings all three stores
func (s *Stores) HealthCheck(ctx context.Context) error {
	for name, db := range s.named() {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("%s store: %w", name, err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("%s store: %w", name, err)
		}
	}
	return nil
}

// HealthCheckWithStats pings every store and reports pool statistics
func (s *Stores) HealthCheckWithStats(ctx context.Context) (map[string]StoreHealth, bool) {
	out := make(map[string]StoreHealth, 3)
	healthy := true
	for name, db := range s.named() {
		h := StoreHealth{Status: "healthy"}
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
			stats := sqlDB.Stats()
			h.OpenConnections = stats.OpenConnections
			h.InUse = stats.InUse
			h.Idle = stats.Idle
		}
		if err != nil {
			h.Status = "unhealthy"
			h.Error = err.Error()
			healthy = false
		}
		out[name] = h
	}
	return out, healthy
}

// Close releases every distinct connection pool
func (s *Stores) Close() error {
	seen := map[*gorm.DB]bool{}
	var firstErr error
	for _, db := range []*gorm.DB{s.Users, s.Projects, s.Meetings} {
		if db == nil || seen[db] {
			continue
		}
		seen[db] = true
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
