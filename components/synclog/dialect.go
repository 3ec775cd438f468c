package synclog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	// SQL drivers selectable through storage.driver.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

// Dialect captures the per-database differences of the sync_logs table.
type Dialect struct {
	Name        string
	Schema      string
	Placeholder func(n int) string
	// Returning marks drivers that need INSERT ... RETURNING id instead of LastInsertId.
	Returning  bool
	encodeTime func(time.Time) any
}

var (
	sqliteDialect = Dialect{
		Name: "sqlite",
		Schema: `CREATE TABLE IF NOT EXISTS sync_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message TEXT NOT NULL,
	timestamp TEXT NOT NULL
)`,
		Placeholder: func(int) string { return "?" },
		encodeTime:  func(t time.Time) any { return t.UTC().Format(sqliteTimeLayout) },
	}
	postgresDialect = Dialect{
		Name: "postgres",
		Schema: `CREATE TABLE IF NOT EXISTS sync_logs (
	id BIGSERIAL PRIMARY KEY,
	message TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL
)`,
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		Returning:   true,
		encodeTime:  func(t time.Time) any { return t.UTC() },
	}
	mysqlDialect = Dialect{
		Name: "mysql",
		Schema: `CREATE TABLE IF NOT EXISTS sync_logs (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	message TEXT NOT NULL,
	timestamp DATETIME(6) NOT NULL
)`,
		Placeholder: func(int) string { return "?" },
		encodeTime:  func(t time.Time) any { return t.UTC() },
	}
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return sqliteDialect, nil
	case "pgx", "postgres", "postgresql":
		return postgresDialect, nil
	case "mysql":
		return mysqlDialect, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// driverName normalizes aliases onto registered database/sql driver names.
func driverName(driver string) string {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case "postgresql":
		return "postgres"
	default:
		return d
	}
}

func parseTimestamp(v any) (time.Time, error) {
	switch ts := v.(type) {
	case time.Time:
		return ts.UTC(), nil
	case []byte:
		return parseTimestampText(string(ts))
	case string:
		return parseTimestampText(ts)
	default:
		return time.Time{}, fmt.Errorf("synclog: unexpected timestamp type %T", v)
	}
}

func parseTimestampText(s string) (time.Time, error) {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999", "2006-01-02 15:04:05"} {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("synclog: unparseable timestamp %q", s)
}
