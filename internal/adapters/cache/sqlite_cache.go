package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/core"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface
type SQLiteCache struct {
	db     *sql.DB
	logger *zap.Logger
	ttl    time.Duration
	now    Clock
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, ttl time.Duration, clock Clock) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// a single connection serialises writers
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS assessment_cache (
			cache_key TEXT PRIMARY KEY,
			assessment TEXT NOT NULL,
			inserted_at INTEGER NOT NULL
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

	return &SQLiteCache{
		db:     db,
		logger: logger,
		ttl:    ttl,
		now:    clock,
	}, nil
}

// Get retrieves a live assessment for key
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.RiskAssessment, error) {
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
		c.logger.Debug("Evicted expired cache entry")
		return nil, core.ErrCacheMiss
	}

	return decodeAssessment(data)
}

// Set stores a cache entry
func (c *SQLiteCache) Set(ctx context.Context, key string, assessment *core.RiskAssessment) error {
	data, err := encodeAssessment(assessment)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assessment_cache (cache_key, assessment, inserted_at)
		VALUES (?, ?, ?)
	`, key, data, c.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
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
func (c *SQLiteCache) Clear(ctx context.Context) error {
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
func (c *SQLiteCache) Stop() {
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
