package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	apperrors "tbsu/internal/errors"
	"tbsu/internal/frame"
	"tbsu/internal/infrastructure"
)

var (
	// ErrTableExists is returned by a fail-on-conflict load into an existing table
	ErrTableExists = errors.New("table already exists")
	// ErrColumnMismatch is returned when an append would add unknown columns
	ErrColumnMismatch = errors.New("columns do not exist in table")
)

// ConflictPolicy decides what happens when the target table exists
type ConflictPolicy string

const (
	ConflictFail    ConflictPolicy = "fail"
	ConflictAppend  ConflictPolicy = "append"
	ConflictReplace ConflictPolicy = "replace"
)

// DupePolicy decides what happens to rows whose keys already exist
type DupePolicy string

const (
	DupesInclude DupePolicy = "include"
	DupesIgnore  DupePolicy = "ignore"
	DupesUpdate  DupePolicy = "update"
)

const stageTable = "tbsu_stage"

// LoadOptions configures Loader.Load. The zero value fails on an existing
// table and keeps duplicates.
type LoadOptions struct {
	Conflict ConflictPolicy `validate:"omitempty,oneof=fail append replace"`
	Dupes    DupePolicy     `validate:"omitempty,oneof=include ignore update"`
	// DupeKeys identify a row; required unless Dupes is include.
	DupeKeys []string `validate:"dive,required"`
	// DedupeRange narrows the duplicate lookup to column ranges, {column: [min, max]}.
	DedupeRange map[string][2]any
	// Grant lists roles given GrantTypes on the table after loading.
	Grant []string `validate:"dive,required"`
	// GrantTypes defaults to SELECT.
	GrantTypes []string `validate:"dive,oneof=SELECT INSERT UPDATE DELETE TRUNCATE REFERENCES TRIGGER ALL select insert update delete truncate references trigger all"`
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Conflict == "" {
		o.Conflict = ConflictFail
	}
	if o.Dupes == "" {
		o.Dupes = DupesInclude
	}
	if len(o.GrantTypes) == 0 {
		o.GrantTypes = []string{"SELECT"}
	}
	return o
}

// Loader bulk-loads frames into warehouse tables
type Loader struct {
	db       DB
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
	validate *validator.Validate
}

// NewLoader creates a loader; metrics may be nil
func NewLoader(db DB, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Loader {
	return &Loader{
		db:       db,
		logger:   infrastructure.WithComponent(logger, "warehouse"),
		metrics:  metrics,
		validate: validator.New(),
	}
}

// Load writes f into table and returns the number of rows added. Everything
// happens in one transaction that is rolled back on error.
func (l *Loader) Load(ctx context.Context, f *frame.Frame, table string, opts LoadOptions) (int64, error) {
	opts = opts.withDefaults()
	if err := l.checkOptions(f, table, opts); err != nil {
		return 0, err
	}
	if f.Len() == 0 {
		l.logger.InfoContext(ctx, "No observations to load", slog.String("table", table))
		return 0, nil
	}

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to begin transaction", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			l.logger.WarnContext(ctx, "Rollback failed", slog.String("error", err.Error()))
		}
	}()

	added, err := l.load(ctx, tx, f, table, opts)
	if err != nil {
		return 0, err
	}
	if added == 0 {
		l.logger.InfoContext(ctx, "No observations left to load", slog.String("table", table))
		return 0, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, apperrors.NewStorageError("failed to commit load", err)
	}

	l.metrics.RecordRowsLoaded(ctx, table, added)
	l.logger.InfoContext(ctx, "Loaded table",
		slog.String("table", table),
		slog.Int64("rows", added),
		slog.String("conflict", string(opts.Conflict)),
		slog.String("dupes", string(opts.Dupes)))
	return added, nil
}

func (l *Loader) checkOptions(f *frame.Frame, table string, opts LoadOptions) error {
	if f == nil {
		return apperrors.NewValidationError("nothing to load", nil)
	}
	if strings.TrimSpace(table) == "" {
		return apperrors.NewValidationError("table name is required", nil)
	}
	if err := l.validate.Struct(opts); err != nil {
		return apperrors.NewValidationError("invalid load options", err)
	}
	if opts.Dupes != DupesInclude && len(opts.DupeKeys) == 0 {
		return apperrors.NewValidationError("cannot dedupe: no dupe keys provided", nil).
			WithContext("dupes", string(opts.Dupes))
	}
	for _, key := range opts.DupeKeys {
		if !f.HasColumn(key) {
			return apperrors.NewValidationError(fmt.Sprintf("dupe key %q is not a frame column", key), frame.ErrUnknownColumn).
				WithContext("column", key)
		}
	}
	return nil
}

func (l *Loader) load(ctx context.Context, tx pgx.Tx, f *frame.Frame, table string, opts LoadOptions) (int64, error) {
	ident := identifier(table)

	exists, err := tableExists(ctx, tx, table)
	if err != nil {
		return 0, err
	}

	create := !exists
	data := f
	var types []string
	if exists {
		switch opts.Conflict {
		case ConflictFail:
			return 0, apperrors.NewConflictError(fmt.Sprintf("table %s already exists", table), ErrTableExists).
				WithContext("table", table)
		case ConflictReplace:
			if _, err := tx.Exec(ctx, "DROP TABLE "+ident.Sanitize()+" CASCADE"); err != nil {
				return 0, apperrors.NewStorageError("failed to drop table", err)
			}
			create = true
		case ConflictAppend:
			data, types, err = alignColumns(ctx, tx, f, table)
			if err != nil {
				return 0, err
			}
			switch opts.Dupes {
			case DupesIgnore:
				data, err = dropExisting(ctx, tx, data, table, opts)
				if err != nil {
					return 0, err
				}
			case DupesUpdate:
				return updateExisting(ctx, tx, data, types, table, opts)
			}
		}
	}

	if data.Len() == 0 {
		return 0, nil
	}

	values := make([][]any, data.Len())
	for i := range values {
		values[i] = data.Row(i)
	}

	if create {
		types = inferTypes(data)
		if _, err := tx.Exec(ctx, createTableSQL(ident, data.Columns(), types)); err != nil {
			return 0, apperrors.NewStorageError("failed to create table", err)
		}
	}
	values = coerce(values, types)

	n, err := tx.CopyFrom(ctx, ident, data.Columns(), pgx.CopyFromRows(values))
	if err != nil {
		return 0, apperrors.NewStorageError(fmt.Sprintf("failed to copy into %s", table), err)
	}

	if err := grant(ctx, tx, ident, opts); err != nil {
		return 0, err
	}
	return n, nil
}

func tableExists(ctx context.Context, tx pgx.Tx, table string) (bool, error) {
	var exists bool
	if err := tx.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
		return false, apperrors.NewStorageError("failed to look up table", err)
	}
	return exists, nil
}

// alignColumns checks that every frame column exists server-side and adds
// the server columns the frame lacks as nulls. The returned column types
// follow the server's, "" where cells go through unchanged.
func alignColumns(ctx context.Context, tx pgx.Tx, f *frame.Frame, table string) (*frame.Frame, []string, error) {
	rows, err := tx.Query(ctx, "SELECT * FROM "+identifier(table).Sanitize()+" LIMIT 0")
	if err != nil {
		return nil, nil, apperrors.NewStorageError("failed to read table columns", err)
	}
	fields := rows.FieldDescriptions()
	rows.Close()

	server := make(map[string]string, len(fields))
	for _, fd := range fields {
		server[fd.Name] = typeForOID(fd.DataTypeOID)
	}

	var unknown []string
	for _, name := range f.Columns() {
		if _, ok := server[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, nil, apperrors.NewValidationError(
			fmt.Sprintf("columns %s do not exist in %s; regenerate the table with the full set", strings.Join(unknown, ", "), table),
			ErrColumnMismatch).WithContext("columns", unknown)
	}

	out := f.Clone()
	for _, fd := range fields {
		if !out.HasColumn(fd.Name) {
			if err := out.SetColumn(fd.Name, make([]any, out.Len())); err != nil {
				return nil, nil, err
			}
		}
	}

	types := make([]string, len(out.Columns()))
	for j, name := range out.Columns() {
		types[j] = server[name]
	}
	return out, types, nil
}

// typeForOID maps a server column type onto the cell conversion coerce
// applies before COPY
func typeForOID(oid uint32) string {
	switch oid {
	case pgtype.TextOID, pgtype.VarcharOID, pgtype.BPCharOID, pgtype.NameOID:
		return TypeText
	case pgtype.Float8OID, pgtype.Float4OID:
		return TypeDouble
	case pgtype.Int8OID, pgtype.Int4OID, pgtype.Int2OID:
		return TypeBigInt
	default:
		return ""
	}
}

// rangeClause renders DedupeRange as AND conditions with positional args
func rangeClause(prefix string, ranges map[string][2]any) (string, []any) {
	columns := make([]string, 0, len(ranges))
	for c := range ranges {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	var b strings.Builder
	var args []any
	for _, c := range columns {
		col := prefix + pgx.Identifier{c}.Sanitize()
		args = append(args, ranges[c][0], ranges[c][1])
		fmt.Fprintf(&b, " AND %s >= $%d AND %s <= $%d", col, len(args)-1, col, len(args))
	}
	return b.String(), args
}

// dropExisting removes the rows whose dupe keys are already in the table
func dropExisting(ctx context.Context, tx pgx.Tx, f *frame.Frame, table string, opts LoadOptions) (*frame.Frame, error) {
	keys := sanitizeAll(opts.DupeKeys, "")
	where, args := rangeClause("", opts.DedupeRange)
	sql := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE 1 = 1%s", strings.Join(keys, ", "), identifier(table).Sanitize(), where)

	existing, err := Query(ctx, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, existing.Len())
	for _, rec := range existing.Records() {
		seen[strings.Join(rec, "\x1f")] = true
	}

	keyFrame, err := f.Select(opts.DupeKeys...)
	if err != nil {
		return nil, err
	}
	out, err := frame.New(f.Columns())
	if err != nil {
		return nil, err
	}
	for i, rec := range keyFrame.Records() {
		if !seen[strings.Join(rec, "\x1f")] {
			if err := out.Append(f.Row(i)...); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// updateExisting stages the frame, deletes the matching server rows and
// inserts the staged rows in their place
func updateExisting(ctx context.Context, tx pgx.Tx, f *frame.Frame, types []string, table string, opts LoadOptions) (int64, error) {
	ident := identifier(table).Sanitize()
	stage := pgx.Identifier{stageTable}

	if _, err := tx.Exec(ctx, fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP", stage.Sanitize(), ident)); err != nil {
		return 0, apperrors.NewStorageError("failed to create staging table", err)
	}

	values := make([][]any, f.Len())
	for i := range values {
		values[i] = f.Row(i)
	}
	values = coerce(values, types)
	n, err := tx.CopyFrom(ctx, stage, f.Columns(), pgx.CopyFromRows(values))
	if err != nil {
		return 0, apperrors.NewStorageError("failed to stage rows", err)
	}

	conditions := make([]string, len(opts.DupeKeys))
	for i, key := range opts.DupeKeys {
		col := pgx.Identifier{key}.Sanitize()
		conditions[i] = fmt.Sprintf("t.%s = s.%s", col, col)
	}
	where, args := rangeClause("t.", opts.DedupeRange)
	deleteSQL := fmt.Sprintf("DELETE FROM %s AS t USING %s AS s WHERE %s%s", ident, stage.Sanitize(), strings.Join(conditions, " AND "), where)
	if _, err := tx.Exec(ctx, deleteSQL, args...); err != nil {
		return 0, apperrors.NewStorageError("failed to delete duplicates", err)
	}

	columns := strings.Join(sanitizeAll(f.Columns(), ""), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", ident, columns, columns, stage.Sanitize())
	if _, err := tx.Exec(ctx, insertSQL); err != nil {
		return 0, apperrors.NewStorageError("failed to insert staged rows", err)
	}

	if err := grant(ctx, tx, identifier(table), opts); err != nil {
		return 0, err
	}
	return n, nil
}

func grant(ctx context.Context, tx pgx.Tx, ident pgx.Identifier, opts LoadOptions) error {
	if len(opts.Grant) == 0 {
		return nil
	}
	types := make([]string, len(opts.GrantTypes))
	for i, t := range opts.GrantTypes {
		types[i] = strings.ToUpper(t)
	}
	sql := fmt.Sprintf("GRANT %s ON %s TO %s", strings.Join(types, ", "), ident.Sanitize(), strings.Join(sanitizeAll(opts.Grant, ""), ", "))
	if _, err := tx.Exec(ctx, sql); err != nil {
		return apperrors.NewStorageError("failed to grant permissions", err)
	}
	return nil
}

// identifier splits schema.table into a quotable identifier
func identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}

func sanitizeAll(names []string, prefix string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefix + pgx.Identifier{n}.Sanitize()
	}
	return out
}

// Column types used for new tables
const (
	TypeBigInt    = "BIGINT"
	TypeDouble    = "DOUBLE PRECISION"
	TypeBoolean   = "BOOLEAN"
	TypeTimestamp = "TIMESTAMP"
	TypeText      = "TEXT"
)

func inferTypes(f *frame.Frame) []string {
	types := make([]string, len(f.Columns()))
	for j, name := range f.Columns() {
		values, _ := f.Column(name)
		types[j] = inferType(values)
	}
	return types
}

func inferType(values []any) string {
	ints, floats, bools, times, others := 0, 0, 0, 0, 0
	for _, v := range values {
		if frame.IsNull(v) {
			continue
		}
		switch v.(type) {
		case int64, int, int32:
			ints++
		case float64, float32:
			floats++
		case bool:
			bools++
		case time.Time:
			times++
		default:
			others++
		}
	}
	switch {
	case others > 0:
		return TypeText
	case ints > 0 && floats+bools+times == 0:
		return TypeBigInt
	case ints+floats > 0 && bools+times == 0:
		return TypeDouble
	case bools > 0 && ints+floats+times == 0:
		return TypeBoolean
	case times > 0 && ints+floats+bools == 0:
		return TypeTimestamp
	default:
		return TypeText
	}
}

func createTableSQL(ident pgx.Identifier, columns, types []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " " + types[i]
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident.Sanitize(), strings.Join(defs, ", "))
}

// coerce converts cells to the Go type matching their column type; NaN
// becomes null in every column
func coerce(rows [][]any, types []string) [][]any {
	for _, row := range rows {
		for j, v := range row {
			if frame.IsNull(v) {
				row[j] = nil
				continue
			}
			if j >= len(types) {
				continue
			}
			switch types[j] {
			case TypeText:
				row[j] = frame.Format(v)
			case TypeDouble:
				switch x := v.(type) {
				case int64:
					row[j] = float64(x)
				case int:
					row[j] = float64(x)
				case int32:
					row[j] = float64(x)
				case float32:
					row[j] = float64(x)
				}
			case TypeBigInt:
				switch x := v.(type) {
				case int:
					row[j] = int64(x)
				case int32:
					row[j] = int64(x)
				}
			}
		}
	}
	return rows
}
