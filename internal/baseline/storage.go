// Package baseline persists the expected agent inventory per operating system.
package baseline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// DatabaseFile is the baseline database file name inside the data directory.
const DatabaseFile = "agent_baseline.db"

// ErrUnsupportedOS is returned for operating systems without a baseline table slot.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// StoreInfo describes the persisted baseline.
type StoreInfo struct {
	Path         string                                `json:"path"`
	Exists       bool                                  `json:"exists"`
	WindowsCount int                                   `json:"windows_count"`
	LinuxCount   int                                   `json:"linux_count"`
	SizeBytes    int64                                 `json:"size_bytes"`
	LastModified time.Time                             `json:"last_modified"`
	LoadedAt     map[models.OperatingSystem]time.Time `json:"loaded_at,omitempty"`
}

// SQLiteStore stores baselines in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// NewSQLiteStore opens (creating if needed) the baseline database in dataDir.
func NewSQLiteStore(dataDir string, logger zerolog.Logger) (*SQLiteStore, error) {
	dbPath := filepath.Join(dataDir, DatabaseFile)

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer, one operator.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{
		db:     db,
		path:   dbPath,
		logger: logger.With().Str("component", "baseline_store").Logger(),
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	store.logger.Debug().Str("path", dbPath).Msg("baseline database initialized")

	return store, nil
}

// migrate creates the necessary tables.
func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS baseline_agents (
			os TEXT NOT NULL,
			domain TEXT NOT NULL,
			agent_name TEXT NOT NULL,
			position INTEGER NOT NULL,
			UNIQUE(os, domain, agent_name)
		);

		CREATE INDEX IF NOT EXISTS idx_baseline_agents_os ON baseline_agents(os, position);

		CREATE TABLE IF NOT EXISTS baseline_metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// ReplaceAll deletes every row of platform and inserts rows in their given order.
// Rows of the other operating system are untouched. The replace is atomic.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, platform models.OperatingSystem, rows []models.BaselineRow) error {
	if err := checkOS(platform); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM baseline_agents WHERE os = ?", string(platform)); err != nil {
		return fmt.Errorf("clear %s baseline: %w", platform, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO baseline_agents (os, domain, agent_name, position)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, string(platform), row.Domain, row.AgentName, i); err != nil {
			return fmt.Errorf("insert %s/%s: %w", row.Domain, row.AgentName, err)
		}
	}

	if err := setMetadata(ctx, tx, loadedAtKey(platform), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("record load time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s baseline: %w", platform, err)
	}

	s.logger.Info().
		Str("os", string(platform)).
		Int("agents", len(rows)).
		Msg("baseline replaced")

	return nil
}

// ReadAll returns every row of platform in insertion order.
func (s *SQLiteStore) ReadAll(ctx context.Context, platform models.OperatingSystem) ([]models.BaselineRow, error) {
	if err := checkOS(platform); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, agent_name
		FROM baseline_agents
		WHERE os = ?
		ORDER BY position ASC
	`, string(platform))
	if err != nil {
		return nil, fmt.Errorf("query %s baseline: %w", platform, err)
	}
	defer rows.Close()

	var out []models.BaselineRow
	for rows.Next() {
		var row models.BaselineRow
		if err := rows.Scan(&row.Domain, &row.AgentName); err != nil {
			return nil, fmt.Errorf("scan baseline row: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate baseline rows: %w", err)
	}

	return out, nil
}

// Count returns the number of baseline rows for platform.
func (s *SQLiteStore) Count(ctx context.Context, platform models.OperatingSystem) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM baseline_agents WHERE os = ?", string(platform)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s baseline: %w", platform, err)
	}
	return count, nil
}

// Info returns agent counts plus file size and modification time.
func (s *SQLiteStore) Info(ctx context.Context) (*StoreInfo, error) {
	info := &StoreInfo{
		Path:     s.path,
		LoadedAt: make(map[models.OperatingSystem]time.Time),
	}

	var err error
	if info.WindowsCount, err = s.Count(ctx, models.OSWindows); err != nil {
		return nil, err
	}
	if info.LinuxCount, err = s.Count(ctx, models.OSLinux); err != nil {
		return nil, err
	}

	for _, platform := range models.SupportedOperatingSystems {
		value, err := s.GetMetadata(ctx, loadedAtKey(platform))
		if err != nil {
			return nil, fmt.Errorf("read %s load time: %w", platform, err)
		}
		if value == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			info.LoadedAt[platform] = t
		}
	}

	if st, err := os.Stat(s.path); err == nil {
		info.Exists = true
		info.SizeBytes = st.Size()
		info.LastModified = st.ModTime()
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat database: %w", err)
	}

	return info, nil
}

// SetMetadata stores a key-value pair in the metadata table.
func (s *SQLiteStore) SetMetadata(ctx context.Context, key, value string) error {
	return setMetadata(ctx, s.db, key, value)
}

// GetMetadata retrieves a value from the metadata table, or "" when unset.
func (s *SQLiteStore) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM baseline_metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setMetadata(ctx context.Context, db execer, key, value string) error {
	query := `
		INSERT INTO baseline_metadata (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query, key, value)
	return err
}

func loadedAtKey(platform models.OperatingSystem) string {
	return "baseline_loaded_at:" + string(platform)
}

func checkOS(platform models.OperatingSystem) error {
	for _, supported := range models.SupportedOperatingSystems {
		if platform == supported {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedOS, platform)
}
