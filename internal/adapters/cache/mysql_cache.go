package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/core"
)

// MySQLCache is a MySQL implementation of the CacheRepository interface
type MySQLCache struct {
	db     *sql.DB
	logger *zap.Logger
	ttl    time.Duration
	now    Clock
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, ttl time.Duration, clock Clock) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS assessment_cache (
			cache_key VARCHAR(768) PRIMARY KEY,
			assessment TEXT NOT NULL,
			inserted_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = time.Now
	}

	return &MySQLCache{
		db:     db,
		logger: logger,
		ttl:    ttl,
		now:    clock,
	}, nil
}

// Get retrieves a live assessment for key
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.RiskAssessment, error) {
	var data string
	var insertedAt int64

	err := c.db.QueryRowContext(ctx, `
		SELECT assessment, inserted_at
		FROM assessment_cache
		WHERE cache_key = ?
	`, key).Scan(&data, &insertedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	if !c.now().Before(time.Unix(0, insertedAt).Add(c.ttl)) {
		if err := c.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, core.ErrCacheMiss
	}

	return decodeAssessment(data)
}

// Set stores a cache entry
func (c *MySQLCache) Set(ctx context.Context, key string, assessment *core.RiskAssessment) error {
	data, err := encodeAssessment(assessment)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO assessment_cache (cache_key, assessment, inserted_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			assessment = VALUES(assessment),
			inserted_at = VALUES(inserted_at)
	`, key, data, c.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM assessment_cache
		WHERE cache_key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Clear removes every entry
func (c *MySQLCache) Clear(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `DELETE FROM assessment_cache`)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during clear", zap.Error(err))
	} else {
		c.logger.Debug("Cleared cache entries", zap.Int64("cleared_count", rowsAffected))
	}

	return nil
}

// Stop closes the database connection
func (c *MySQLCache) Stop() {
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
