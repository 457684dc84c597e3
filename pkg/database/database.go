package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Register the "pgx" and "mysql" drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/app-sre/explorer/pkg/env/db"
)

// The server-side statement timeout fires first; the context deadline only
// covers a server that stops responding.
const contextGrace = 5 * time.Second

// Open prepares a connection pool for e. No connection is made until the
// pool is first used.
func Open(e *db.Env) (*sql.DB, error) {
	conn, err := sql.Open(e.Driver.Name(), e.ConnectionDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	return conn, nil
}

// Query runs a single statement inside a read-only transaction that is
// always rolled back, so nothing it does can be committed.
func Query(ctx context.Context, conn *sql.DB, driver db.DriverType, query string, timeout time.Duration) ([]Row, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout+contextGrace)
		defer cancel()
	}

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("unable to start database transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if stmt := driver.StatementTimeout(timeout); timeout > 0 && stmt != "" {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("unable to set statement timeout: %w", err)
		}
	}

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("unable to query database: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("unable to read database columns: %w", err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("unable to scan database row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		result = append(result, Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to process database rows: %w", err)
	}

	return result, nil
}
