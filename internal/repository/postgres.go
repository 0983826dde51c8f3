package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/poynt/relay/internal/config"
	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/pkg/logger"
)

// ErrOperationNotFound is returned when no journal record has the requested id
var ErrOperationNotFound = errors.New("operation not found")

// JournalDB stores operation records through GORM. It backs both the Postgres and SQLite drivers.
type JournalDB struct {
	logger *logger.Logger

	Conn *gorm.DB
}

// New opens the journal database selected by the configuration
func New(cfg *config.Config, logger *logger.Logger) (models.Repository, error) {
	switch cfg.DatabaseDriver {
	case config.DatabaseDriverSQLite:
		return NewSQLiteDB(cfg.SQLitePath, logger)
	default:
		return NewPostgresDB(cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB, cfg.PostgresHost, cfg.PostgresPort, logger)
	}
}

func NewPostgresDB(user, password, dbname, host string, port int, logger *logger.Logger) (models.Repository, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)

	db, err := open(postgres.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	logger.Info("Successfully connected to PostgreSQL!")
	return &JournalDB{Conn: db, logger: logger}, nil
}

func open(dialector gorm.Dialector) (*gorm.DB, error) {
	// Configure GORM logger to suppress "record not found" messages
	gormLogger := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.OperationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return db, nil
}

func (db *JournalDB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

func (db *JournalDB) Ping(ctx context.Context) error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func (db *JournalDB) SaveOperation(ctx context.Context, record *models.OperationRecord) error {
	db.logger.Debugw("Saving operation record", "id", record.ID, "type", record.Type, "status", record.Status)
	if err := db.Conn.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save operation record: %w", err)
	}
	return nil
}

func (db *JournalDB) GetOperation(ctx context.Context, id string) (*models.OperationRecord, error) {
	var record models.OperationRecord
	if err := db.Conn.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperationNotFound
		}
		return nil, fmt.Errorf("failed to get operation record: %w", err)
	}
	return &record, nil
}

// GetOperationsBySigner returns the newest records of signer first
func (db *JournalDB) GetOperationsBySigner(ctx context.Context, signer string, limit int) ([]*models.OperationRecord, error) {
	var records []*models.OperationRecord
	if err := db.Conn.WithContext(ctx).
		Where("signer = ?", signer).
		Order("created_at DESC").
		Order("id").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get operation records: %w", err)
	}
	return records, nil
}
