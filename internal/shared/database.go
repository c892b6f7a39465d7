package shared

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Drivers that [OpenDatabase] accepts.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// NewDatabase opens the SQLite run ledger at path.
// The path can be ":memory:" for an in-memory database.
func NewDatabase(path string) (*sql.DB, error) {
	return OpenDatabase(DriverSQLite, path)
}

// OpenDatabase opens and pings a connection for driver using dsn.
//
// MySQL DSNs get parseTime disabled so datetime columns scan into strings
// exactly as WordPress stores them.
func OpenDatabase(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "", DriverMySQL:
		driver = DriverMySQL
	case DriverSQLite, "sqlite":
		driver = DriverSQLite
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrDatabase, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", ErrDatabase, err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Non-positive values leave the driver default in place.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}
