package database

import (
	"fmt"
	"strings"
	"time"

	"optik-backend/config"
	"optik-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormWriter routes gorm's SQL log through zap.
type gormWriter struct {
	log *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Debugf(format, args...)
}

// Connect opens the database selected by cfg.Driver ("mysql", "postgres" or
// "sqlite") and configures the connection pool.
func Connect(cfg config.DatabaseConfig, env string, log *zap.SugaredLogger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg, log)
	if err != nil {
		return nil, err
	}

	level := logger.Info
	if env == "production" {
		level = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(gormWriter{log: log.Named("gorm")}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// One connection keeps in-memory databases alive and serializes writers.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Infow("database connection established", "driver", cfg.Driver)
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func dialectorFor(cfg config.DatabaseConfig, log *zap.SugaredLogger) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "mysql":
		return mysql.Open(mysqlDSN(cfg, log)), nil
	case "postgres":
		return postgres.Open(postgresDSN(cfg)), nil
	case "sqlite":
		if cfg.Name == "" {
			return nil, fmt.Errorf("sqlite driver requires DB_NAME")
		}
		return sqlite.Open(cfg.Name), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// mysqlDSN prefers DATABASE_URL (mysql:// and mariadb:// URLs are rewritten
// to the driver's DSN form) and falls back to the individual settings.
func mysqlDSN(cfg config.DatabaseConfig, log *zap.SugaredLogger) string {
	const defaultParams = "?charset=utf8mb4&parseTime=True&loc=Local"

	if cfg.URL == "" {
		log.Debug("constructing MySQL DSN from individual components")
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, defaultParams)
	}

	dsn := cfg.URL
	var rawDSN string
	switch {
	case strings.HasPrefix(dsn, "mysql://"):
		rawDSN = strings.TrimPrefix(dsn, "mysql://")
	case strings.HasPrefix(dsn, "mariadb://"):
		rawDSN = strings.TrimPrefix(dsn, "mariadb://")
	default:
		return dsn
	}
	log.Debug("converting DATABASE_URL to MySQL DSN")

	// user:pass@host:port/dbname?params -> user:pass@tcp(host:port)/dbname?params
	parts := strings.SplitN(rawDSN, "@", 2)
	if len(parts) != 2 {
		return dsn
	}
	creds, rest := parts[0], parts[1]

	hostParts := strings.SplitN(rest, "/", 2)
	if len(hostParts) != 2 {
		return dsn
	}
	hostPort, dbName := hostParts[0], hostParts[1]

	params := defaultParams
	if i := strings.Index(dbName, "?"); i >= 0 {
		params = dbName[i:]
		dbName = dbName[:i]
	}

	return fmt.Sprintf("%s@tcp(%s)/%s%s", creds, hostPort, dbName, params)
}

// postgresDSN accepts DATABASE_URL as-is (pgx understands URLs) or builds a
// keyword/value DSN.
func postgresDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslMode)
}
