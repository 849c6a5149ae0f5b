package warehouse

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tbsu/internal/errors"
	"tbsu/internal/frame"
	"tbsu/internal/testutil"
)

func scores(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New([]string{"id", "score", "name"},
		[]any{int64(1), int64(10), "a"},
		[]any{int64(2), 2.5, "b"},
		[]any{int64(3), nil, nil},
	)
	require.NoError(t, err)
	return f
}

func newTestLoader(t *testing.T, tx *fakeTx) (*Loader, *fakeDB) {
	t.Helper()
	db := &fakeDB{tx: tx}
	logger, _ := testutil.NewTestLogger(t)
	return NewLoader(db, logger, nil), db
}

// serverColumns answers the column lookup of an append
func serverColumns(columns ...string) func(string, []any) (pgx.Rows, error) {
	return func(sql string, _ []any) (pgx.Rows, error) {
		return newFakeRows(columns), nil
	}
}

// typedColumns answers the column lookup with server column types
func typedColumns(columns []string, oids []uint32) func(string, []any) (pgx.Rows, error) {
	return func(sql string, _ []any) (pgx.Rows, error) {
		rows := newFakeRows(columns)
		rows.oids = oids
		return rows, nil
	}
}

func zipCodes(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New([]string{"zip", "score", "id"},
		[]any{int64(94110), int64(7), int64(1)},
		[]any{int64(2139), math.NaN(), 2.0},
	)
	require.NoError(t, err)
	return f
}

func TestLoad_CreatesNewTable(t *testing.T) {
	tx := &fakeTx{}
	loader, _ := newTestLoader(t, tx)

	n, err := loader.Load(context.Background(), scores(t), "public.scores", LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.Equal(t, []string{
		`CREATE TABLE "public"."scores" ("id" BIGINT, "score" DOUBLE PRECISION, "name" TEXT)`,
	}, tx.statements())
	require.Len(t, tx.copies, 1)
	assert.Equal(t, pgx.Identifier{"public", "scores"}, tx.copies[0].table)
	assert.Equal(t, []string{"id", "score", "name"}, tx.copies[0].columns)
	assert.Equal(t, [][]any{
		{int64(1), float64(10), "a"},
		{int64(2), 2.5, "b"},
		{int64(3), nil, nil},
	}, tx.copies[0].rows)
	assert.True(t, tx.committed)
}

func TestLoad_LogsAtInfo(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeDB{tx: tx}
	logger, handler := testutil.NewTestLogger(t)
	loader := NewLoader(db, logger, nil)

	_, err := loader.Load(context.Background(), scores(t), "scores", LoadOptions{})
	require.NoError(t, err)

	records := handler.RecordsWithMessage("Loaded table")
	require.Len(t, records, 1)
	assert.Equal(t, slog.LevelInfo, records[0].Level)
	assert.Equal(t, "scores", records[0].Attrs["table"])
	assert.Equal(t, int64(3), records[0].Attrs["rows"])
}

func TestLoad_ExistingTableFails(t *testing.T) {
	tx := &fakeTx{exists: true}
	loader, _ := newTestLoader(t, tx)

	_, err := loader.Load(context.Background(), scores(t), "scores", LoadOptions{Conflict: ConflictFail})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTableExists)
	assert.Equal(t, apperrors.ErrTypeConflict, apperrors.TypeOf(err))
	assert.Empty(t, tx.copies)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestLoad_ReplaceDropsAndRecreates(t *testing.T) {
	tx := &fakeTx{exists: true}
	loader, _ := newTestLoader(t, tx)

	n, err := loader.Load(context.Background(), scores(t), "scores", LoadOptions{Conflict: ConflictReplace})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	stmts := tx.statements()
	require.Len(t, stmts, 2)
	assert.Equal(t, `DROP TABLE "scores" CASCADE`, stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], `CREATE TABLE "scores"`))
}

func TestLoad_AppendFillsMissingColumns(t *testing.T) {
	tx := &fakeTx{exists: true, onQuery: serverColumns("id", "name", "score", "loaded_at")}
	loader, _ := newTestLoader(t, tx)

	n, err := loader.Load(context.Background(), scores(t), "scores", LoadOptions{Conflict: ConflictAppend})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	assert.Empty(t, tx.statements())
	require.Len(t, tx.copies, 1)
	assert.Equal(t, []string{"id", "score", "name", "loaded_at"}, tx.copies[0].columns)
	assert.Equal(t, []any{int64(2), 2.5, "b", nil}, tx.copies[0].rows[1])
}

func TestLoad_AppendConvertsToServerTypes(t *testing.T) {
	tx := &fakeTx{exists: true, onQuery: typedColumns(
		[]string{"zip", "score", "id", "loaded_at"},
		[]uint32{pgtype.TextOID, pgtype.Float8OID, pgtype.Int8OID, pgtype.TimestampOID},
	)}
	loader, _ := newTestLoader(t, tx)

	n, err := loader.Load(context.Background(), zipCodes(t), "zips", LoadOptions{Conflict: ConflictAppend})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.Len(t, tx.copies, 1)
	assert.Equal(t, [][]any{
		{"94110", float64(7), int64(1), nil},
		{"2139", nil, 2.0, nil},
	}, tx.copies[0].rows)
}

func TestLoad_UpdateConvertsToServerTypes(t *testing.T) {
	tx := &fakeTx{exists: true, onQuery: typedColumns(
		[]string{"zip", "score", "id"},
		[]uint32{pgtype.VarcharOID, pgtype.Float4OID, pgtype.Int4OID},
	)}
	loader, _ := newTestLoader(t, tx)

	_, err := loader.Load(context.Background(), zipCodes(t), "zips", LoadOptions{
		Conflict: ConflictAppend,
		Dupes:    DupesUpdate,
		DupeKeys: []string{"zip"},
	})
	require.NoError(t, err)

	require.Len(t, tx.copies, 1)
	assert.Equal(t, pgx.Identifier{stageTable}, tx.copies[0].table)
	assert.Equal(t, [][]any{
		{"94110", float64(7), int64(1)},
		{"2139", nil, 2.0},
	}, tx.copies[0].rows)
}

func TestLoad_AppendRejectsUnknownColumns(t *testing.T) {
	tx := &fakeTx{exists: true, onQuery: serverColumns("id")}
	loader, _ := newTestLoader(t, tx)

	_, err := loader.Load(context.Background(), scores(t), "scores", LoadOptions{Conflict: ConflictAppend})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrColumnMismatch)
	assert.Contains(t, err.Error(), "score, name")
	assert.Empty(t, tx.copies)
}

func TestLoad_IgnoreDupesDropsExistingKeys(t *testing.T) {
	var distinctSQL string
	var distinctArgs []any
	tx := &fakeTx{exists: true}
	tx.onQuery = func(sql string, args []any) (pgx.Rows, error) {
		if strings.HasPrefix(sql, "SELECT DISTINCT") {
			distinctSQL, distinctArgs = sql, args
			return newFakeRows([]string{"id"}, []any{int32(1)}, []any{int32(3)}), nil
		}
		return newFakeRows([]string{"id", "score", "name"}), nil
	}
	loader, _ := newTestLoader(t, tx)

	n, err := loader.Load(context.Background(), scores(t), "scores", LoadOptions{
		Conflict:    ConflictAppend,
		Dupes:       DupesIgnore,
		DupeKeys:    []string{"id"},
		DedupeRange: map[string][2]any{"score": {0, 100}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, `SELECT DISTINCT "id" FROM "scores" WHERE 1 = 1 AND "score" >= $1 AND "score" <= $2`, distinctSQL)
	assert.Equal(t, []any{0, 100}, distinctArgs)
	require.Len(t, tx.copies, 1)
	assert.Equal(t, [][]any{{int64(2), 2.5, "b"}}, tx.copies[0].rows)
}

func TestLoad_IgnoreDupesWithNothingLeft(t *testing.T) {
	tx := &fakeTx{exists: true}
	tx.onQuery = func(sql string, _ []any) (pgx.Rows, error) {
		if strings.HasPrefix(sql, "SELECT DISTINCT") {
			return newFakeRows([]string{"id"}, []any{int64(1)}, []any{int64(2)}, []any{int64(3)}), nil
		}
		return newFakeRows([]string{"id", "score", "name"}), nil
	}
	loader, _ := newTestLoader(t, tx)

	n, err := loader.Load(context.Background(), scores(t), "scores", LoadOptions{
		Conflict: ConflictAppend,
		Dupes:    DupesIgnore,
		DupeKeys: []string{"id"},
	})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, tx.copies)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestLoad_UpdateDupesReplacesRows(t *testing.T) {
	tx := &fakeTx{exists: true, onQuery: serverColumns("id", "score", "name")}
	loader, _ := newTestLoader(t, tx)

	n, err := loader.Load(context.Background(), scores(t), "scores", LoadOptions{
		Conflict: ConflictAppend,
		Dupes:    DupesUpdate,
		DupeKeys: []string{"id", "name"},
		Grant:    []string{"reader"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	assert.Equal(t, []string{
		`CREATE TEMP TABLE "tbsu_stage" (LIKE "scores" INCLUDING DEFAULTS) ON COMMIT DROP`,
		`DELETE FROM "scores" AS t USING "tbsu_stage" AS s WHERE t."id" = s."id" AND t."name" = s."name"`,
		`INSERT INTO "scores" ("id", "score", "name") SELECT "id", "score", "name" FROM "tbsu_stage"`,
		`GRANT SELECT ON "scores" TO "reader"`,
	}, tx.statements())
	require.Len(t, tx.copies, 1)
	assert.Equal(t, pgx.Identifier{stageTable}, tx.copies[0].table)
	assert.True(t, tx.committed)
}

func TestLoad_Grant(t *testing.T) {
	tx := &fakeTx{}
	loader, _ := newTestLoader(t, tx)

	_, err := loader.Load(context.Background(), scores(t), "scores", LoadOptions{
		Grant:      []string{"analyst", "reporting"},
		GrantTypes: []string{"select", "INSERT"},
	})
	require.NoError(t, err)

	stmts := tx.statements()
	require.Len(t, stmts, 2)
	assert.Equal(t, `GRANT SELECT, INSERT ON "scores" TO "analyst", "reporting"`, stmts[1])
}

func TestLoad_StatementFailureRollsBack(t *testing.T) {
	tx := &fakeTx{execErr: map[string]error{"CREATE TABLE": assert.AnError}}
	loader, _ := newTestLoader(t, tx)

	_, err := loader.Load(context.Background(), scores(t), "scores", LoadOptions{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, tx.rolledBack)
	assert.Empty(t, tx.copies)
}

func TestLoad_EmptyFrameSkipsDatabase(t *testing.T) {
	tx := &fakeTx{}
	loader, db := newTestLoader(t, tx)
	empty, err := frame.New([]string{"id"})
	require.NoError(t, err)

	n, err := loader.Load(context.Background(), empty, "scores", LoadOptions{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, db.begins)
}

func TestLoad_InvalidOptions(t *testing.T) {
	tests := []struct {
		name  string
		table string
		opts  LoadOptions
	}{
		{name: "missing table", table: " ", opts: LoadOptions{}},
		{name: "unknown conflict policy", table: "scores", opts: LoadOptions{Conflict: "drop"}},
		{name: "unknown dupe policy", table: "scores", opts: LoadOptions{Dupes: "merge", DupeKeys: []string{"id"}}},
		{name: "dedupe without keys", table: "scores", opts: LoadOptions{Dupes: DupesIgnore}},
		{name: "key not in frame", table: "scores", opts: LoadOptions{Dupes: DupesUpdate, DupeKeys: []string{"missing"}}},
		{name: "bad grant type", table: "scores", opts: LoadOptions{Grant: []string{"analyst"}, GrantTypes: []string{"OWN"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &fakeTx{}
			loader, db := newTestLoader(t, tx)

			_, err := loader.Load(context.Background(), scores(t), tt.table, tt.opts)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
			assert.Zero(t, db.begins)
		})
	}
}

func TestInferType(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name   string
		values []any
		want   string
	}{
		{name: "integers", values: []any{int64(1), nil, int64(2)}, want: TypeBigInt},
		{name: "mixed numbers", values: []any{int64(1), 2.5}, want: TypeDouble},
		{name: "booleans", values: []any{true, false}, want: TypeBoolean},
		{name: "times", values: []any{when}, want: TypeTimestamp},
		{name: "strings", values: []any{"x", int64(1)}, want: TypeText},
		{name: "numbers and times", values: []any{when, int64(1)}, want: TypeText},
		{name: "all null", values: []any{nil, nil}, want: TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferType(tt.values))
		})
	}
}

func TestSQLTime(t *testing.T) {
	when := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

	got, err := SQLTime(when, 0)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05 10:30:00", got)

	got, err = SQLTime(when, -24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04 10:30:00", got)

	got, err = SQLTime("2024-03-05", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05 01:00:00", got)

	_, err = SQLTime("not a date", 0)
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))

	_, err = SQLTime(42, 0)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
}
