// Package storage persists enriched feed records in PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"github.com/tech2news/technews/internal/filter"
	"github.com/tech2news/technews/internal/logger"
	"github.com/tech2news/technews/internal/model"
)

// FeedStore manages feed records in a PostgreSQL database.
type FeedStore struct {
	db *sql.DB
}

// NewFeedStore connects to the database and initializes the schema.
func NewFeedStore(connectionString string) (*FeedStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &FeedStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("feed store connected")
	return store, nil
}

func (s *FeedStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS feed_records (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		link TEXT NOT NULL,
		summary TEXT,
		lesson_content TEXT,
		content TEXT,
		image TEXT,
		image_source VARCHAR(20),
		video JSONB,
		source VARCHAR(100),
		language VARCHAR(10) NOT NULL DEFAULT 'en',
		tech_filter JSONB,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_feed_records_link ON feed_records(link);
	CREATE INDEX IF NOT EXISTS idx_feed_records_created_at ON feed_records(created_at);
	CREATE INDEX IF NOT EXISTS idx_feed_records_language ON feed_records(language);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Write inserts a record and returns its assigned id.
func (s *FeedStore) Write(ctx context.Context, record *model.FeedRecord) (string, error) {
	videoJSON, err := marshalNullable(record.Video)
	if err != nil {
		return "", fmt.Errorf("failed to encode video: %w", err)
	}
	filterJSON, err := marshalNullable(record.TechFilter)
	if err != nil {
		return "", fmt.Errorf("failed to encode filter result: %w", err)
	}

	query := `
		INSERT INTO feed_records
			(title, link, summary, lesson_content, content, image, image_source, video, source, language, tech_filter, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id
	`

	var id int64
	err = s.db.QueryRowContext(ctx, query,
		record.Title, record.Link, record.Summary, record.LessonContent,
		record.Content, record.Image, record.ImageSource, videoJSON,
		record.Source, record.Language, filterJSON,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to write feed record: %w", err)
	}

	return strconv.FormatInt(id, 10), nil
}

// ReadRecent returns the newest records for a language, most recent first.
func (s *FeedStore) ReadRecent(ctx context.Context, language string, limit int) ([]model.FeedRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, title, link, summary, lesson_content, content, image, image_source, video, source, language, tech_filter, created_at, updated_at
		FROM feed_records
		WHERE language = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, language, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed records: %w", err)
	}
	defer rows.Close()

	var records []model.FeedRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			logger.Warn("skipping unreadable feed record", "error", err)
			continue
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ReadByLink returns the newest record with the given link inside the window,
// or nil when none exists. A zero window means no age restriction.
func (s *FeedStore) ReadByLink(ctx context.Context, link string, window time.Duration) (*model.FeedRecord, error) {
	query := `
		SELECT id, title, link, summary, lesson_content, content, image, image_source, video, source, language, tech_filter, created_at, updated_at
		FROM feed_records
		WHERE link = $1 AND created_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	cutoff := time.Time{}
	if window > 0 {
		cutoff = time.Now().Add(-window)
	}

	rows, err := s.db.QueryContext(ctx, query, link, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed record by link: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	record, err := scanRecord(rows)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// RecentlyStored reports whether a record with this link was written inside
// the window. Used as the second-level dedup check behind the in-memory
// cache.
func (s *FeedStore) RecentlyStored(ctx context.Context, link string, window time.Duration) (bool, error) {
	cutoff := time.Now().Add(-window)

	var count int
	query := `SELECT COUNT(*) FROM feed_records WHERE link = $1 AND created_at > $2`
	if err := s.db.QueryRowContext(ctx, query, link, cutoff).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check link duplicate: %w", err)
	}
	return count > 0, nil
}

// Cleanup removes records older than the retention window.
func (s *FeedStore) Cleanup(ctx context.Context, retention time.Duration) error {
	cutoff := time.Now().Add(-retention)

	result, err := s.db.ExecContext(ctx, `DELETE FROM feed_records WHERE created_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		logger.Info("cleaned up old feed records", "count", rows)
	}
	return nil
}

// Close closes the database connection.
func (s *FeedStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanRecord(rows *sql.Rows) (model.FeedRecord, error) {
	var record model.FeedRecord
	var id int64
	var videoJSON, filterJSON []byte

	err := rows.Scan(&id, &record.Title, &record.Link, &record.Summary,
		&record.LessonContent, &record.Content, &record.Image, &record.ImageSource,
		&videoJSON, &record.Source, &record.Language, &filterJSON,
		&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return record, fmt.Errorf("failed to scan feed record: %w", err)
	}
	record.ID = strconv.FormatInt(id, 10)

	if len(videoJSON) > 0 {
		var video model.Video
		if err := json.Unmarshal(videoJSON, &video); err == nil {
			record.Video = &video
		}
	}
	if len(filterJSON) > 0 {
		var result filter.Result
		if err := json.Unmarshal(filterJSON, &result); err == nil {
			record.TechFilter = &result
		}
	}
	return record, nil
}

// marshalNullable encodes v as JSON, mapping a nil pointer to SQL NULL.
func marshalNullable(v any) (any, error) {
	switch val := v.(type) {
	case *model.Video:
		if val == nil {
			return nil, nil
		}
	case *filter.Result:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
