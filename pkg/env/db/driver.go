package db

import (
	"fmt"
	"time"
)

const (
	driverMySQL      = "mysql"
	driverPostgreSQL = "pgx"

	driverMySQLPort      = 3306
	driverPostgreSQLPort = 5432

	driverMySQLFormat = `%s:%s@tcp(%s:%d)/%s`

	driverMySQLTimeout      = `SET SESSION MAX_EXECUTION_TIME = %d`
	driverPostgreSQLTimeout = `SET LOCAL statement_timeout = %d`
)

type DriverType string

func (t DriverType) String() string {
	return string(t)
}

func (t DriverType) Name() string {
	switch t {
	case "mysql":
		return driverMySQL
	case "postgresql", "postgres", "pgx":
		return driverPostgreSQL
	default:
		return ""
	}
}

func (t DriverType) Port() int {
	switch t.Name() {
	case driverMySQL:
		return driverMySQLPort
	case driverPostgreSQL:
		return driverPostgreSQLPort
	default:
		return 0
	}
}

// Format returns the printf layout of a DSN for drivers that take one.
// PostgreSQL connections use a URL built by Env.ConnectionDSN instead.
func (t DriverType) Format() string {
	if t.Name() == driverMySQL {
		return driverMySQLFormat
	}
	return ""
}

// StatementTimeout returns the session statement that bounds query execution
// time for the driver, or an empty string when the driver has none.
func (t DriverType) StatementTimeout(d time.Duration) string {
	switch t.Name() {
	case driverMySQL:
		return fmt.Sprintf(driverMySQLTimeout, d.Milliseconds())
	case driverPostgreSQL:
		return fmt.Sprintf(driverPostgreSQLTimeout, d.Milliseconds())
	default:
		return ""
	}
}

func (t DriverType) IsValid() bool {
	types := map[string]interface{}{
		"mysql":      struct{}{},
		"postgres":   struct{}{},
		"postgresql": struct{}{},
		"pgx":        struct{}{},
	}
	_, ok := types[string(t)]

	return ok
}
