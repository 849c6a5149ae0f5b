package warehouse

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRows struct {
	pgx.Rows
	columns []string
	oids    []uint32
	values  [][]any
	pos     int
	err     error
	closed  bool
}

func newFakeRows(columns []string, values ...[]any) *fakeRows {
	return &fakeRows{columns: columns, values: values, pos: -1}
}

func (r *fakeRows) Next() bool {
	if r.pos+1 >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	out := make([]any, len(r.values[r.pos]))
	copy(out, r.values[r.pos])
	return out, nil
}

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		out[i] = pgconn.FieldDescription{Name: c}
		if i < len(r.oids) {
			out[i].DataTypeOID = r.oids[i]
		}
	}
	return out
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     { r.closed = true }

type fakeRow struct {
	value bool
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*bool)) = r.value
	return nil
}

type copied struct {
	table   pgx.Identifier
	columns []string
	rows    [][]any
}

// fakeTx records every statement; queries are answered by onQuery
type fakeTx struct {
	pgx.Tx

	mu         sync.Mutex
	exists     bool
	onQuery    func(sql string, args []any) (pgx.Rows, error)
	execErr    map[string]error
	execs      []string
	execArgs   [][]any
	copies     []copied
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.execs = append(tx.execs, sql)
	tx.execArgs = append(tx.execArgs, args)
	for prefix, err := range tx.execErr {
		if strings.HasPrefix(sql, prefix) {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (tx *fakeTx) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx.onQuery == nil {
		return nil, errors.New("unexpected query: " + sql)
	}
	return tx.onQuery(sql, args)
}

func (tx *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{value: tx.exists}
}

func (tx *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	c := copied{table: table, columns: columns}
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		c.rows = append(c.rows, values)
	}
	tx.mu.Lock()
	tx.copies = append(tx.copies, c)
	tx.mu.Unlock()
	return int64(len(c.rows)), nil
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if tx.committed {
		return pgx.ErrTxClosed
	}
	tx.rolledBack = true
	return nil
}

func (tx *fakeTx) statements() []string {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	out := make([]string, len(tx.execs))
	copy(out, tx.execs)
	return out
}

type fakeDB struct {
	tx     *fakeTx
	begins int
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	db.begins++
	return db.tx, nil
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return db.tx.Query(ctx, sql, args...)
}
