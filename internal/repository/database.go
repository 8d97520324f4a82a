package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/schedule"
	"storefront/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Publisher announces saved configuration to subscribers.
type Publisher interface {
	Publish(ctx context.Context, rec *store.ConfigRecord) error
}

// DB wraps sql.DB and stores the single store configuration row.
type DB struct {
	*sql.DB

	publisher Publisher
	logger    *zerolog.Logger
}

// NewDB opens database at path and runs migrations.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{DB: db, logger: logger}, nil
}

// UsePublisher announces every saved record through p.
func (db *DB) UsePublisher(p Publisher) {
	db.publisher = p
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS store_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			open_time TEXT NOT NULL,
			close_time TEXT NOT NULL,
			category_schedules TEXT NOT NULL,
			revision TEXT,
			origin TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS store_config_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			revision TEXT NOT NULL,
			origin TEXT,
			payload TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_config_history_created ON store_config_history(created_at)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// FetchConfig returns the stored configuration, or nil when none has been saved.
func (db *DB) FetchConfig(ctx context.Context) (*store.ConfigRecord, error) {
	var (
		rec       store.ConfigRecord
		payload   string
		revision  sql.NullString
		origin    sql.NullString
		updatedAt sql.NullTime
	)
	err := db.QueryRowContext(ctx, `
		SELECT open_time, close_time, category_schedules, revision, origin, updated_at
		FROM store_config
		WHERE id = 1`,
	).Scan(&rec.Open, &rec.Close, &payload, &revision, &origin, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &rec.CategorySchedules); err != nil {
		return nil, fmt.Errorf("decode category schedules: %w", err)
	}
	if revision.Valid {
		rec.Revision = revision.String
	}
	if origin.Valid {
		rec.Origin = origin.String
	}
	if updatedAt.Valid {
		rec.UpdatedAt = updatedAt.Time
	}
	return &rec, nil
}

// SaveConfig replaces the stored configuration, keeps a history entry and announces
// the change. A failed announcement is logged; the row stays saved.
func (db *DB) SaveConfig(ctx context.Context, rec *store.ConfigRecord) error {
	if rec == nil {
		return fmt.Errorf("config record is nil")
	}
	if rec.CategorySchedules == nil {
		rec.CategorySchedules = schedule.RawScheduleMap{}
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	payload, err := json.Marshal(rec.CategorySchedules)
	if err != nil {
		return fmt.Errorf("encode category schedules: %w", err)
	}
	full, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode config record: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO store_config (id, open_time, close_time, category_schedules, revision, origin, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			open_time = excluded.open_time,
			close_time = excluded.close_time,
			category_schedules = excluded.category_schedules,
			revision = excluded.revision,
			origin = excluded.origin,
			updated_at = excluded.updated_at`,
		rec.Open, rec.Close, string(payload), rec.Revision, rec.Origin, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert store config: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO store_config_history (revision, origin, payload, created_at)
		VALUES (?, ?, ?, ?)`,
		rec.Revision, rec.Origin, string(full), rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert config history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit store config: %w", err)
	}

	if db.publisher != nil {
		if err := db.publisher.Publish(ctx, rec); err != nil {
			db.logger.Error().Err(err).Str("revision", rec.Revision).Msg("failed to announce config change")
		}
	}
	return nil
}

// Revision is one entry of the configuration history.
type Revision struct {
	ID        int64     `json:"id"`
	Revision  string    `json:"revision"`
	Origin    string    `json:"origin,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListRevisions returns the most recent configuration writes, newest first.
func (db *DB) ListRevisions(ctx context.Context, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, revision, origin, created_at
		FROM store_config_history
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		var (
			r      Revision
			origin sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Revision, &origin, &r.CreatedAt); err != nil {
			return nil, err
		}
		if origin.Valid {
			r.Origin = origin.String
		}
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}

// PruneHistory deletes history entries older than retention.
func (db *DB) PruneHistory(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx,
		"DELETE FROM store_config_history WHERE created_at < ?",
		time.Now().Add(-retention),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
