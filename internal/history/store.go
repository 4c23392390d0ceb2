// Package history persists bounded snapshots of converted files.
package history

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"codeport-cli/internal/domain"
)

// currentSchemaVersion is the latest schema version. Bump when adding
// migrations.
const currentSchemaVersion = 1

// Store is a SQLite-backed bounded history. Entries beyond the cap are
// evicted oldest first; ULID primary keys give the eviction order.
type Store struct {
	db  *sql.DB
	cap int
}

// Open initializes the history database at dir/history.db.
func Open(dir string, cap int) (*Store, error) {
	if cap <= 0 {
		return nil, fmt.Errorf("history cap must be positive, got %d", cap)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dbPath := filepath.Join(dir, "history.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cap: cap}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records one snapshot, then prunes rows beyond the cap starting
// with the oldest.
func (s *Store) Append(ctx context.Context, item *domain.HistoryItem) error {
	id := item.ID
	if id == "" {
		generated, err := newULID()
		if err != nil {
			return err
		}
		id = generated
	}

	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	outputs, err := json.Marshal(item.OutputFiles)
	if err != nil {
		return fmt.Errorf("failed to encode output files: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history (id, file_path, original_content, output_files, source_lang, target_lang, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, item.FilePath, item.OriginalContent, string(outputs),
		item.SourceLanguage, item.TargetLanguage, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert history item: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM history
		WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)`,
		s.cap,
	)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}

	return nil
}

// List returns the most recent snapshots, newest first. A non-positive
// limit means up to the cap.
func (s *Store) List(ctx context.Context, limit int) ([]*domain.HistoryItem, error) {
	if limit <= 0 || limit > s.cap {
		limit = s.cap
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, original_content, output_files, source_lang, target_lang, created_at
		FROM history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var items []*domain.HistoryItem
	for rows.Next() {
		var item domain.HistoryItem
		var outputs string
		var createdAt int64

		if err := rows.Scan(
			&item.ID, &item.FilePath, &item.OriginalContent, &outputs,
			&item.SourceLanguage, &item.TargetLanguage, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		if err := json.Unmarshal([]byte(outputs), &item.OutputFiles); err != nil {
			return nil, fmt.Errorf("failed to decode output files: %w", err)
		}
		item.CreatedAt = time.Unix(createdAt, 0)

		items = append(items, &item)
	}

	return items, rows.Err()
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS history (
		  id               TEXT PRIMARY KEY,
		  file_path        TEXT NOT NULL,
		  original_content TEXT NOT NULL,
		  output_files     TEXT NOT NULL,
		  source_lang      TEXT NOT NULL,
		  target_lang      TEXT NOT NULL,
		  created_at       INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	return nil
}

// A shared monotonic source keeps ids strictly increasing within the
// process even when several snapshots land in the same millisecond.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newULID() (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate history id: %w", err)
	}
	return id.String(), nil
}
