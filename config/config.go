package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const devSessionSecret = "dev-session-secret-change-me"

type Config struct {
	Port          string
	GinMode       string
	LogLevel      string
	DataDir       string
	DBDriver      string
	DatabaseDSN   string
	SessionSecret string
	SessionTTL    time.Duration
	BcryptCost    int
	PublicBaseURL string
	CORSOrigin    string
	LoginPerMin   int
	SuperAdmin    SuperAdminConfig
}

// SuperAdminConfig describes the account created on first start.
type SuperAdminConfig struct {
	Name     string
	Email    string
	Password string
}

func (s SuperAdminConfig) Enabled() bool {
	return s.Email != "" && s.Password != ""
}

// Load reads .env (if any) and the environment once.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("SUPERADMIN_NAME", "Super Admin")

	cfg := &Config{
		Port:          v.GetString("PORT"),
		GinMode:       v.GetString("GIN_MODE"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		DataDir:       v.GetString("DATA_DIR"),
		DBDriver:      strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:   v.GetString("DATABASE_DSN"),
		SessionSecret: v.GetString("SESSION_SECRET"),
		SessionTTL:    v.GetDuration("SESSION_TTL"),
		BcryptCost:    v.GetInt("BCRYPT_COST"),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		CORSOrigin:    v.GetString("CORS_ORIGIN"),
		LoginPerMin:   v.GetInt("LOGIN_RATE_PER_MINUTE"),
		SuperAdmin: SuperAdminConfig{
			Name:     v.GetString("SUPERADMIN_NAME"),
			Email:    strings.ToLower(strings.TrimSpace(v.GetString("SUPERADMIN_EMAIL"))),
			Password: v.GetString("SUPERADMIN_PASSWORD"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		if c.GinMode == "release" {
			return errors.New("SESSION_SECRET is required in release mode")
		}
		c.SessionSecret = devSessionSecret
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}
	switch c.DBDriver {
	case "sqlite":
	case "mysql", "postgres":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for driver %s", c.DBDriver)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// UsingDevSecret reports whether the built-in development secret is active.
func (c *Config) UsingDevSecret() bool {
	return c.SessionSecret == devSessionSecret
}

// InitDB opens the configured store. SQLite lives in DATA_DIR and is limited
// to one connection so writers queue instead of failing with "database is locked".
func InitDB(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DatabaseDSN)
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		dsn := cfg.DatabaseDSN
		if dsn == "" {
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn = filepath.Join(cfg.DataDir, "restaurant.db") + "?_foreign_keys=on&_busy_timeout=5000"
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return db, nil
}
