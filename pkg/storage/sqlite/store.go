// Package sqlite provides a SQLite-backed document store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/storage"
	"github.com/muses-project/progress/pkg/storage/sqlite/migrations"
)

// Store persists documents in a single SQLite table keyed by collection and id.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.DocumentStore = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, collection, id string) (*storage.Document, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, status, owner, body, updated_at FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", collection, id, progress.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc *storage.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.UpdatedAt = time.Now().UTC()

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO documents (collection, id, status, owner, body, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		collection, doc.ID, doc.Status, doc.Owner, string(doc.Body), toMillis(doc.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s %s already exists", collection, doc.ID)
		}
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return doc.ID, nil
}

func (s *Store) Edit(ctx context.Context, collection string, doc *storage.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE documents SET status = ?, owner = ?, body = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		doc.Status, doc.Owner, string(doc.Body), toMillis(doc.UpdatedAt), collection, doc.ID)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", collection, doc.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %s: %w", collection, doc.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", collection, doc.ID, progress.ErrNotFound)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, filter storage.Filter) ([]*storage.Document, error) {
	where, args := whereClause(collection, filter)
	query := `SELECT id, status, owner, body, updated_at FROM documents` + where + ` ORDER BY rowid`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*storage.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, collection string, filter storage.Filter) (int, error) {
	where, args := whereClause(collection, filter)
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func whereClause(collection string, filter storage.Filter) (string, []any) {
	clauses := []string{"collection = ?"}
	args := []any{collection}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Owner != "" {
		clauses = append(clauses, "owner = ?")
		args = append(args, filter.Owner)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*storage.Document, error) {
	var (
		doc       storage.Document
		body      string
		updatedAt int64
	)
	if err := row.Scan(&doc.ID, &doc.Status, &doc.Owner, &body, &updatedAt); err != nil {
		return nil, err
	}
	doc.Body = []byte(body)
	doc.UpdatedAt = fromMillis(updatedAt)
	return &doc, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
