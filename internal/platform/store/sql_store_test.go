package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	s := NewSQLStore(db, DialectSQLite)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLStore_SQLite_EmptyCollection(t *testing.T) {
	s := newTestSQLiteStore(t)

	records, err := s.Load(context.Background(), Users)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSQLStore_SQLite_SaveLoadUpdate(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Responses, []json.RawMessage{
		json.RawMessage(`{"n":1}`),
		json.RawMessage(`{"n":2}`),
	}))
	require.NoError(t, s.Save(ctx, Logins, []json.RawMessage{json.RawMessage(`{"username":"x"}`)}))

	err := s.Update(ctx, Responses, func(records []json.RawMessage) ([]json.RawMessage, error) {
		return append(records, json.RawMessage(`{"n":3}`)), nil
	})
	require.NoError(t, err)

	out, err := s.Load(ctx, Responses)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.JSONEq(t, `{"n":1}`, string(out[0]))
	assert.JSONEq(t, `{"n":3}`, string(out[2]))

	logins, err := s.Load(ctx, Logins)
	require.NoError(t, err)
	assert.Len(t, logins, 1)
}

func TestSQLStore_SQLite_UpdateErrorRollsBack(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Users, []json.RawMessage{json.RawMessage(`{"id":1}`)}))

	boom := errors.New("boom")
	err := s.Update(ctx, Users, func(records []json.RawMessage) ([]json.RawMessage, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	out, err := s.Load(ctx, Users)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := NewSQLStore(nil, DialectPostgres)
	lite := NewSQLStore(nil, DialectSQLite)
	q := `INSERT INTO records (collection, position, payload) VALUES (?, ?, ?)`

	assert.Equal(t, `INSERT INTO records (collection, position, payload) VALUES ($1, $2, $3)`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestSQLStore_Postgres_SaveInsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewSQLStore(db, DialectPostgres)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM records WHERE collection = $1`)).
		WithArgs("responses").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO records (collection, position, payload) VALUES ($1, $2, $3)`)).
		WithArgs("responses", 0, `{"n":1}`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = s.Save(context.Background(), Responses, []json.RawMessage{json.RawMessage(`{"n":1}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Postgres_LoadCorruptPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewSQLStore(db, DialectPostgres)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload FROM records WHERE collection = $1 ORDER BY position`)).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`{"id":1}`).AddRow(`{"id":`))

	_, err = s.Load(context.Background(), Users)
	assert.ErrorIs(t, err, ErrCorruptCollection)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_MigrateWrapsError(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	gooseUp = func(context.Context, *sql.DB, Dialect) error { return errors.New("no table for you") }

	err := NewSQLStore(nil, DialectPostgres).Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migrations")
}
