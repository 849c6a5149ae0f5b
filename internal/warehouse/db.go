package warehouse

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"tbsu/internal/config"
	apperrors "tbsu/internal/errors"
	"tbsu/internal/frame"
)

// Querier runs a query; pools, connections and transactions all qualify
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DB is what a Loader needs from a pool
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ConnString builds postgres://user@host/db from the configuration
func ConnString(cfg config.WarehouseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   cfg.Host,
		Path:   "/" + cfg.Name,
	}
	if cfg.Port != 0 && cfg.Port != 5432 {
		u.Host = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// Connect opens and pings a connection pool
func Connect(ctx context.Context, cfg config.WarehouseConfig) (*pgxpool.Pool, error) {
	if !cfg.Configured() {
		return nil, apperrors.NewConfigError("warehouse host, user and name must be set (TBSU_DW_HOST, TBSU_DW_USER, TBSU_DW_NAME)", nil)
	}

	pool, err := pgxpool.New(ctx, ConnString(cfg))
	if err != nil {
		return nil, apperrors.NewConfigError("invalid warehouse connection settings", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to reach warehouse %s/%s", cfg.Host, cfg.Name), err)
	}
	return pool, nil
}

// Query runs sql and returns the result as a frame
func Query(ctx context.Context, db Querier, sql string, args ...any) (*frame.Frame, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("query failed", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	out, err := frame.New(columns)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, apperrors.NewStorageError("failed to read row", err)
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		if err := out.Append(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("query failed", err)
	}
	return out, nil
}

// normalize maps driver values onto frame cell types
func normalize(v any) any {
	switch x := v.(type) {
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	default:
		return v
	}
}
