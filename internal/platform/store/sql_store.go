package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Dialect selects placeholder style and goose dialect.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps every collection in one "records" table, one row per
// record, ordered by position. Save and Update rewrite a collection inside
// a single transaction.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect

	mu    sync.Mutex
	locks map[Collection]*sync.Mutex
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, locks: make(map[Collection]*sync.Mutex)}
}

// gooseUp is a seam for tests that run against sqlmock.
var gooseUp = func(ctx context.Context, db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	return goose.UpContext(ctx, db, "migrations")
}

// Migrate creates the records table if needed.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := gooseUp(ctx, s.db, s.dialect); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, c Collection) ([]json.RawMessage, error) {
	return s.query(ctx, s.db, c)
}

func (s *SQLStore) Save(ctx context.Context, c Collection, records []json.RawMessage) error {
	lock := s.lockFor(c)
	lock.Lock()
	defer lock.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.replace(ctx, tx, c, records)
	})
}

func (s *SQLStore) Update(ctx context.Context, c Collection, fn UpdateFunc) error {
	lock := s.lockFor(c)
	lock.Lock()
	defer lock.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		records, err := s.query(ctx, tx, c)
		if err != nil {
			return err
		}
		updated, err := fn(records)
		if err != nil {
			return err
		}
		return s.replace(ctx, tx, c, updated)
	})
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLStore) query(ctx context.Context, q queryer, c Collection) ([]json.RawMessage, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`SELECT payload FROM records WHERE collection = ? ORDER BY position`), string(c))
	if err != nil {
		return nil, fmt.Errorf("SQLStore.Load %s: %w", c, err)
	}
	defer rows.Close()

	records := []json.RawMessage{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("SQLStore.Load %s: %w", c, err)
		}
		if !json.Valid([]byte(payload)) {
			return nil, fmt.Errorf("%w: %s row %d", ErrCorruptCollection, c, len(records))
		}
		records = append(records, json.RawMessage(payload))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SQLStore.Load %s: %w", c, err)
	}
	return records, nil
}

func (s *SQLStore) replace(ctx context.Context, tx *sql.Tx, c Collection, records []json.RawMessage) error {
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM records WHERE collection = ?`), string(c)); err != nil {
		return fmt.Errorf("SQLStore.Save %s: %w", c, err)
	}
	insert := s.rebind(`INSERT INTO records (collection, position, payload) VALUES (?, ?, ?)`)
	for i, r := range records {
		if _, err := tx.ExecContext(ctx, insert, string(c), i, string(r)); err != nil {
			return fmt.Errorf("SQLStore.Save %s record %d: %w", c, i, err)
		}
	}
	return nil
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) lockFor(c Collection) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[c]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[c] = lock
	}
	return lock
}

// rebind rewrites "?" placeholders to "$n" for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
