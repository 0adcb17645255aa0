// Package db is the durable backing store behind the persistence
// coordinator. Inserts are idempotent snapshots of a single record.
package db

import (
	"context"
	"database/sql"
	"time"

	"macrobin/pkg/domain"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	defaultQueryTimeout = 5 * time.Second
)

type SQLite struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewSQLite(path string) (*SQLite, error) {
	return NewSQLiteWithConfig(path, defaultMaxOpenConns, defaultMaxIdleConns, defaultQueryTimeout)
}

func NewSQLiteWithConfig(path string, maxOpenConns, maxIdleConns int, queryTimeout time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}
	s := &SQLite{db: db, queryTimeout: queryTimeout}
	if err := s.migrate(); err != nil {
		return nil, errors.Wrap(err, "migration failed")
	}
	return s, nil
}

func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) migrate() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return errors.Wrap(err, "enable WAL mode")
	}
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return errors.Wrap(err, "set busy timeout")
	}
	query := `
	CREATE TABLE IF NOT EXISTS pastas (
		id INTEGER PRIMARY KEY,
		content TEXT NOT NULL DEFAULT '',
		file_name TEXT,
		file_size INTEGER,
		extension TEXT NOT NULL DEFAULT '',
		private INTEGER NOT NULL DEFAULT 0,
		readonly INTEGER NOT NULL DEFAULT 0,
		editable INTEGER NOT NULL DEFAULT 0,
		encrypt_server INTEGER NOT NULL DEFAULT 0,
		encrypt_client INTEGER NOT NULL DEFAULT 0,
		encrypted_key TEXT,
		created INTEGER NOT NULL,
		read_count INTEGER NOT NULL DEFAULT 0,
		burn_after_reads INTEGER NOT NULL DEFAULT 0,
		last_read INTEGER NOT NULL,
		pasta_type TEXT NOT NULL,
		expiration INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pastas_expiration ON pastas(expiration);
	`
	_, err := s.db.Exec(query)
	return err
}

// Insert persists the snapshot of one record. INSERT OR REPLACE keeps the
// operation idempotent: re-persisting an id overwrites its row.
func (s *SQLite) Insert(ctx context.Context, p *domain.Pasta) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	var fileName sql.NullString
	var fileSize sql.NullInt64
	if p.File != nil {
		fileName = sql.NullString{String: p.File.Name, Valid: true}
		fileSize = sql.NullInt64{Int64: int64(p.File.Size), Valid: true}
	}
	q := `
	INSERT OR REPLACE INTO pastas (
		id, content, file_name, file_size, extension,
		private, readonly, editable, encrypt_server, encrypt_client,
		encrypted_key, created, read_count, burn_after_reads, last_read,
		pasta_type, expiration
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(queryCtx, q,
		int64(p.ID), p.Content, fileName, fileSize, p.Extension,
		p.Private, p.Readonly, p.Editable, p.EncryptServer, p.EncryptClient,
		nullable(p.EncryptedKey), p.Created, int64(p.ReadCount), int64(p.BurnAfterReads), p.LastRead,
		p.Type, p.Expiration,
	)
	return errors.Wrap(err, "insert pasta")
}

// LoadAll returns every stored record in insertion order, used to warm
// the in-memory collection at startup.
func (s *SQLite) LoadAll(ctx context.Context) ([]*domain.Pasta, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	SELECT id, content, file_name, file_size, extension,
		private, readonly, editable, encrypt_server, encrypt_client,
		encrypted_key, created, read_count, burn_after_reads, last_read,
		pasta_type, expiration
	FROM pastas ORDER BY rowid
	`
	rows, err := s.db.QueryContext(queryCtx, q)
	if err != nil {
		return nil, errors.Wrap(err, "load pastas")
	}
	defer rows.Close()
	var out []*domain.Pasta
	for rows.Next() {
		var p domain.Pasta
		var id, readCount, burnAfter int64
		var fileName, encryptedKey sql.NullString
		var fileSize sql.NullInt64
		if err := rows.Scan(
			&id, &p.Content, &fileName, &fileSize, &p.Extension,
			&p.Private, &p.Readonly, &p.Editable, &p.EncryptServer, &p.EncryptClient,
			&encryptedKey, &p.Created, &readCount, &burnAfter, &p.LastRead,
			&p.Type, &p.Expiration,
		); err != nil {
			return nil, errors.Wrap(err, "scan pasta")
		}
		p.ID = uint64(id)
		p.ReadCount = uint64(readCount)
		p.BurnAfterReads = uint64(burnAfter)
		p.EncryptedKey = encryptedKey.String
		if fileName.Valid {
			p.File = &domain.PastaFile{Name: fileName.String, Size: uint64(fileSize.Int64)}
		}
		out = append(out, &p)
	}
	return out, errors.Wrap(rows.Err(), "iterate pastas")
}

func (s *SQLite) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
