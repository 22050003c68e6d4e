package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJSONStore(t *testing.T) (*JSONFileStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewJSONFileStore(dir)
	require.NoError(t, err)
	return s, dir
}

func TestJSONFileStore_LoadMissingCreatesEmptyFile(t *testing.T) {
	t.Parallel()
	s, dir := newTestJSONStore(t)

	records, err := s.Load(context.Background(), Users)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)

	data, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestJSONFileStore_SaveThenLoadPreservesOrder(t *testing.T) {
	t.Parallel()
	s, _ := newTestJSONStore(t)
	ctx := context.Background()

	in := []json.RawMessage{
		json.RawMessage(`{"n":1}`),
		json.RawMessage(`{"n":2}`),
		json.RawMessage(`{"n":3}`),
	}
	require.NoError(t, s.Save(ctx, Responses, in))

	out, err := s.Load(ctx, Responses)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := range in {
		assert.JSONEq(t, string(in[i]), string(out[i]))
	}
}

func TestJSONFileStore_FileFormat(t *testing.T) {
	t.Parallel()
	s, _ := newTestJSONStore(t)

	records := []json.RawMessage{
		json.RawMessage(`{"username":"Ana_01","avatarUrl":"https://img.example/a.png","timestamp":"2026-03-01T12:00:00Z"}`),
		json.RawMessage(`{"username":"bob","avatarUrl":"","timestamp":"2026-03-01T12:05:00Z"}`),
	}
	require.NoError(t, s.Save(context.Background(), Logins, records))

	data, err := os.ReadFile(s.Path(Logins))
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "logins_file", data)
}

func TestJSONFileStore_CorruptFileIsAnError(t *testing.T) {
	t.Parallel()
	s, dir := newTestJSONStore(t)

	path := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1,`), 0o644))

	_, err := s.Load(context.Background(), Users)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptCollection))
	assert.Contains(t, err.Error(), path)

	// the corrupt file is left untouched
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"id": 1,`, string(data))
}

func TestJSONFileStore_UpdateAbortsOnError(t *testing.T) {
	t.Parallel()
	s, _ := newTestJSONStore(t)
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

func TestJSONFileStore_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	t.Parallel()
	s, _ := newTestJSONStore(t)
	ctx := context.Background()

	const writers = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Update(ctx, Responses, func(records []json.RawMessage) ([]json.RawMessage, error) {
				return append(records, json.RawMessage(fmt.Sprintf(`{"writer":%d}`, i))), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	out, err := s.Load(ctx, Responses)
	require.NoError(t, err)
	assert.Len(t, out, writers)
}

func TestJSONFileStore_CancelledContext(t *testing.T) {
	t.Parallel()
	s, _ := newTestJSONStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx, Users)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadIntoAndDecodeErrors(t *testing.T) {
	t.Parallel()
	s, _ := newTestJSONStore(t)
	ctx := context.Background()

	type row struct {
		N int `json:"n"`
	}
	rows := []row{{N: 1}, {N: 2}}
	raw, err := Encode(rows)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, Responses, raw))

	got, err := LoadInto[row](ctx, s, Responses)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	_, err = Decode[row](Responses, []json.RawMessage{json.RawMessage(`{"n":"one"}`)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptCollection)
	var recErr *RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, 0, recErr.Index)
}

func TestJSONFileStore_CollectionNamesAreSlugged(t *testing.T) {
	t.Parallel()
	s, dir := newTestJSONStore(t)
	ctx := context.Background()

	want := []json.RawMessage{json.RawMessage(`{"n":1}`)}
	require.NoError(t, s.Save(ctx, Collection("Login Records"), want))

	_, err := os.Stat(filepath.Join(dir, "login-records.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "login-records.json"), s.Path(Collection("Login Records")))

	got, err := s.Load(ctx, Collection("login-records"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJSONFileStore_RejectsUnusableCollectionNames(t *testing.T) {
	t.Parallel()
	s, dir := newTestJSONStore(t)
	ctx := context.Background()

	for _, c := range []Collection{"", "../..", "///"} {
		_, err := s.Load(ctx, c)
		assert.ErrorIs(t, err, ErrInvalidCollection, string(c))
		assert.ErrorIs(t, s.Save(ctx, c, nil), ErrInvalidCollection)
		assert.ErrorIs(t, s.Update(ctx, c, func(r []json.RawMessage) ([]json.RawMessage, error) { return r, nil }), ErrInvalidCollection)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), ".json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
