package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pulsedesk/internal/feed"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Collection names. Each holds one JSON-serialized array; a save replaces
// the whole row, so readers across a restart never see a partial write.
const (
	collectionArticles = "articles"
	collectionPosts    = "posts"
)

// Store persists the desk's two collections in a SQLite-backed key-value
// table. Load never fails: a missing or corrupt payload reads as an empty
// collection, logged but not surfaced.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "pulsedesk.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db, logger: slog.Default()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies embedded SQL migration files that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Collections ---

// LoadArticles returns the persisted article collection, or an empty slice
// if none has been saved or the stored payload is unreadable.
func (s *Store) LoadArticles() []feed.Article {
	payload, ok := s.loadCollection(collectionArticles)
	if !ok {
		return nil
	}
	var articles []feed.Article
	if err := json.Unmarshal([]byte(payload), &articles); err != nil {
		s.logger.Warn("corrupt collection payload discarded", "collection", collectionArticles, "error", err)
		return nil
	}
	return articles
}

// SaveArticles replaces the persisted article collection.
func (s *Store) SaveArticles(articles []feed.Article) error {
	return s.saveCollection(collectionArticles, articles)
}

// LoadPosts returns the persisted post collection, or an empty slice if
// none has been saved or the stored payload is unreadable.
func (s *Store) LoadPosts() []feed.GeneratedPost {
	payload, ok := s.loadCollection(collectionPosts)
	if !ok {
		return nil
	}
	var posts []feed.GeneratedPost
	if err := json.Unmarshal([]byte(payload), &posts); err != nil {
		s.logger.Warn("corrupt collection payload discarded", "collection", collectionPosts, "error", err)
		return nil
	}
	return posts
}

// SavePosts replaces the persisted post collection.
func (s *Store) SavePosts(posts []feed.GeneratedPost) error {
	return s.saveCollection(collectionPosts, posts)
}

// Clear removes both collections.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM collections WHERE name IN (?, ?)", collectionArticles, collectionPosts)
	if err != nil {
		return fmt.Errorf("clearing collections: %w", err)
	}
	return nil
}

// loadCollection fetches the raw payload for a collection. A missing row
// or read error reports ok=false; reads never fail upward, per the store's
// contract.
func (s *Store) loadCollection(name string) (string, bool) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM collections WHERE name = ?", name).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		s.logger.Warn("reading collection failed, treating as empty", "collection", name, "error", err)
		return "", false
	}
	return payload, true
}

// saveCollection serializes value and replaces the stored payload in a
// single upsert.
func (s *Store) saveCollection(name string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", name, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO collections (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		name, string(payload), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	return nil
}
