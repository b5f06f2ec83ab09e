// ABOUTME: SQLite implementation of the ProfileStore interface
// ABOUTME: Supports the modernc (pure Go) and mattn (cgo) drivers with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/2389/profilevault/internal/keys"
	"github.com/2389/profilevault/internal/schema"
)

// Driver names accepted by Options.Driver.
const (
	DriverModernc = "sqlite"
	DriverCGO     = "sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Options configures NewSQLiteStoreWithOptions.
type Options struct {
	Driver string
	Path   string
	Logger *slog.Logger
}

// SQLiteStore implements the ProfileStore interface using SQLite
type SQLiteStore struct {
	db       *sql.DB
	tables   map[keys.Variant]*schema.Table[Profile]
	variants []keys.Variant
	registry *schema.Registry
	logger   *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path using the pure
// Go driver. The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithOptions(Options{Path: path})
}

// NewSQLiteStoreWithOptions creates a SQLite store with an explicit driver
// and logger.
func NewSQLiteStoreWithOptions(opts Options) (*SQLiteStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	driver := opts.Driver
	if driver == "" {
		driver = DriverModernc
	}
	if driver != DriverModernc && driver != DriverCGO {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}

	if opts.Path != MemoryPath {
		// Ensure parent directory exists
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, opts.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every pooled connection to :memory: would otherwise get its own database
	if opts.Path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{
		db:       db,
		tables:   profileTables(),
		registry: schema.Default,
		logger:   logger,
	}
	for v := range s.tables {
		s.variants = append(s.variants, v)
	}
	sort.Slice(s.variants, func(i, j int) bool { return s.variants[i] < s.variants[j] })

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", opts.Path, "driver", driver)
	return s, nil
}

// InitSchema creates every variant table if it doesn't exist.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	for _, v := range s.variants {
		if _, err := s.db.ExecContext(ctx, s.tables[v].CreateTableSQL()); err != nil {
			return persistErr("init schema", fmt.Errorf("%s: %w", TableName(v), err))
		}
	}
	return nil
}

// UpsertBatch inserts or replaces every profile in one transaction. A
// profile that moved to another variant is removed from its old table.
func (s *SQLiteStore) UpsertBatch(ctx context.Context, profiles []*Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	for _, p := range profiles {
		if p == nil {
			return fmt.Errorf("upsert: nil profile")
		}
		if _, ok := s.tables[p.Variant]; !ok {
			return fmt.Errorf("upsert %q: %w: %q", p.Name, ErrUnknownVariant, p.Variant)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("upsert", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	for _, p := range profiles {
		p.EnsureID()
		if p.LastUpdated == 0 {
			p.Touch(now)
		}

		table := s.tables[p.Variant]
		if lost := unpersistedFields(table, p); len(lost) > 0 {
			s.logger.Warn("variant does not persist fields", "id", p.ID, "variant", p.Variant, "fields", lost)
		}
		values, err := table.Values(p)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, table.UpsertSQL(), values...); err != nil {
			return persistErr("upsert", fmt.Errorf("%s: %w", p.ID, err))
		}

		for _, other := range s.variants {
			if other == p.Variant {
				continue
			}
			if _, err := tx.ExecContext(ctx, s.deleteSQL(other), p.ID); err != nil {
				return persistErr("upsert", fmt.Errorf("%s: %w", p.ID, err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return persistErr("upsert", err)
	}

	s.logger.Debug("profiles upserted", "count", len(profiles))
	return nil
}

// LoadAll returns every stored profile ordered by name, then id.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]*Profile, error) {
	var all []*Profile
	for _, v := range s.variants {
		table := s.tables[v]
		order := s.registry.ColumnNameFor(EntityName(v), "Name") + ", " + s.registry.ColumnNameFor(EntityName(v), "ID")

		rows, err := s.db.QueryContext(ctx, table.SelectSQL("")+" ORDER BY "+order)
		if err != nil {
			return nil, persistErr("load all", err)
		}
		profiles, err := s.scanRows(rows, v)
		if err != nil {
			return nil, persistErr("load all", err)
		}
		all = append(all, profiles...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

// GetByID retrieves a profile by id from whichever variant table holds it.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*Profile, error) {
	for _, v := range s.variants {
		rows, err := s.db.QueryContext(ctx, s.tables[v].SelectSQL(s.pkColumn(v)+" = ?"), id)
		if err != nil {
			return nil, persistErr("get", err)
		}
		profiles, err := s.scanRows(rows, v)
		if err != nil {
			return nil, persistErr("get", err)
		}
		if len(profiles) > 0 {
			return profiles[0], nil
		}
	}
	return nil, ErrNotFound
}

// Exists reports whether a profile with id is stored.
func (s *SQLiteStore) Exists(ctx context.Context, id string) (bool, error) {
	for _, v := range s.variants {
		var one int
		q := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ? LIMIT 1", TableName(v), s.pkColumn(v))
		err := s.db.QueryRowContext(ctx, q, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return false, persistErr("exists", err)
		}
		return true, nil
	}
	return false, nil
}

// Delete removes a profile by id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	var total int64
	for _, v := range s.variants {
		result, err := s.db.ExecContext(ctx, s.deleteSQL(v), id)
		if err != nil {
			return persistErr("delete", err)
		}
		n, _ := result.RowsAffected()
		total += n
	}
	if total == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) pkColumn(v keys.Variant) string {
	return s.registry.ColumnNameFor(EntityName(v), "ID")
}

func (s *SQLiteStore) deleteSQL(v keys.Variant) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = ?", TableName(v), s.pkColumn(v))
}

// scanRows binds every row to a Profile of variant v and closes rows.
func (s *SQLiteStore) scanRows(rows *sql.Rows, v keys.Variant) ([]*Profile, error) {
	defer func() { _ = rows.Close() }()

	table := s.tables[v]
	var out []*Profile
	for rows.Next() {
		values := make([]any, len(table.Fields))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		p := &Profile{Variant: v}
		if err := table.Bind(p, values); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
