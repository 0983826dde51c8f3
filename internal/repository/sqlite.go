package repository

import (
	"fmt"

	"github.com/glebarez/sqlite"

	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/pkg/logger"
)

// NewSQLiteDB opens a file backed journal for local development
func NewSQLiteDB(path string, logger *logger.Logger) (models.Repository, error) {
	db, err := open(sqlite.Open(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database %s: %w", path, err)
	}
	logger.Infow("Successfully opened SQLite journal", "path", path)
	return &JournalDB{Conn: db, logger: logger}, nil
}
