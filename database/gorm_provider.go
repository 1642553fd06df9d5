package database

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/memlane/config"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// GormProvider gorm backed Provider
type GormProvider struct {
	db                *gorm.DB
	dbType            string
	credentialSetting string
}

// NewGormProvider opens the database configured in cfg
func NewGormProvider(cfg *config.Config) (*GormProvider, error) {
	dbType := NormalizeType(cfg.DBType)
	gormLogger := NewLogger(config.IsDevelopment())

	var db *gorm.DB
	var err error

	switch dbType {
	case TypeSQLite:
		db, err = newSQLiteDB(cfg, gormLogger)
	case TypePostgres:
		db, err = newPostgresDB(cfg, gormLogger)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
	if err != nil {
		return nil, err
	}

	configurePool(db, cfg)

	return NewGormProviderFromDB(db, dbType, cfg.DBCredentialSetting), nil
}

// NewGormProviderFromDB wraps an already opened connection
func NewGormProviderFromDB(db *gorm.DB, dbType, credentialSetting string) *GormProvider {
	return &GormProvider{
		db:                db,
		dbType:            NormalizeType(dbType),
		credentialSetting: credentialSetting,
	}
}

// NormalizeType maps db_type aliases onto TypeSQLite or TypePostgres
func NormalizeType(dbType string) string {
	switch dbType {
	case "", "sqlite", "sqlite3":
		return TypeSQLite
	case "postgres", "postgresql":
		return TypePostgres
	default:
		return dbType
	}
}

func gormConfig(gormLogger logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 gormLogger,
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

// newSQLiteDB opens a SQLite file in WAL mode with foreign keys enforced
func newSQLiteDB(cfg *config.Config, gormLogger logger.Interface) (*gorm.DB, error) {
	path := cfg.DBFilePath
	if path == "" {
		path = "./data/memlane.db"
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(gormLogger))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	log.Info().Str("path", path).Msg("Using SQLite database")
	return db, nil
}

func newPostgresDB(cfg *config.Config, gormLogger logger.Interface) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUsername, cfg.DBPassword, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(gormLogger))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	log.Info().
		Str("host", cfg.DBHost).
		Int("port", cfg.DBPort).
		Str("database", cfg.DBName).
		Msg("Using PostgreSQL database")
	return db, nil
}

// configurePool applies pool limits from config
func configurePool(db *gorm.DB, cfg *config.Config) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	if cfg.DBMaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)
	}
}

func (p *GormProvider) DB() *gorm.DB {
	return p.db
}

func (p *GormProvider) WithContext(ctx context.Context) *gorm.DB {
	return p.db.WithContext(ctx)
}

func (p *GormProvider) TransactionWithContext(ctx context.Context, fn TxFunc) error {
	return p.db.WithContext(ctx).Transaction(fn)
}

// ApplyCredential sets the configured setting transaction locally on PostgreSQL.
// SQLite has no row level security, so it is a no-op there.
func (p *GormProvider) ApplyCredential(tx *gorm.DB, credential string) error {
	if p.dbType != TypePostgres || p.credentialSetting == "" {
		return nil
	}
	if err := tx.Exec("SELECT set_config(?, ?, true)", p.credentialSetting, credential).Error; err != nil {
		return fmt.Errorf("failed to apply credential: %w", err)
	}
	return nil
}

func (p *GormProvider) AutoMigrate(models ...interface{}) error {
	return p.db.AutoMigrate(models...)
}

func (p *GormProvider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *GormProvider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	log.Info().Msg("Closing database connection...")
	return sqlDB.Close()
}

func (p *GormProvider) Name() string {
	return p.dbType
}
