package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/nakagami/firebirdsql"
)

const (
	driverName   = "firebirdsql"
	createDriver = "firebirdsql_createdb"
)

var ErrInvalidConnectionString = errors.New("invalid connection string")

// Open connects to an existing database. connStr is either a driver DSN or
// an ADO-style Key=Value; string. The returned handle holds a single
// connection, which every catalog query and statement shares.
func Open(ctx context.Context, connStr string) (*sql.DB, error) {
	dsn, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, err
	}
	return open(ctx, driverName, dsn)
}

// Create creates a new database file described by dsn and returns a
// connection to it. The file must not exist yet.
func Create(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := open(ctx, createDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create database: %w", err)
	}
	db.Close()

	return open(ctx, driverName, dsn)
}

func open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// DSN builds a driver DSN of the form user:password@host:port/path.
func DSN(user, password, host string, port int, path string, params url.Values) string {
	u := url.URL{
		User: url.UserPassword(user, password),
		Host: fmt.Sprintf("%s:%d", host, port),
	}
	dsn := strings.TrimPrefix(u.String(), "//") + "/" + path
	if len(params) > 0 {
		dsn += "?" + params.Encode()
	}
	return dsn
}

// ParseConnectionString converts an ADO-style connection string such as
// "User=SYSDBA;Password=masterkey;Database=/data/app.fdb;DataSource=localhost"
// into a driver DSN. Strings that already look like a DSN are returned as is.
func ParseConnectionString(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)
	if connStr == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidConnectionString)
	}
	if strings.Contains(connStr, "@") && !strings.Contains(connStr, ";") {
		return connStr, nil
	}

	var (
		user     = "SYSDBA"
		password = "masterkey"
		host     = "localhost"
		port     = 3050
		path     string
		params   = url.Values{}
	)

	for _, part := range strings.Split(connStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return "", fmt.Errorf("%w: %q is not a key=value pair", ErrInvalidConnectionString, part)
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.Join(strings.Fields(key), "")) {
		case "user", "userid", "username":
			user = value
		case "password":
			password = value
		case "database", "initialcatalog":
			path = value
		case "datasource", "server", "host":
			host = value
		case "port":
			n, err := strconv.Atoi(value)
			if err != nil {
				return "", fmt.Errorf("%w: port %q", ErrInvalidConnectionString, value)
			}
			port = n
		case "charset":
			params.Set("charset", value)
		case "role":
			params.Set("role", value)
		}
	}

	if path == "" {
		return "", fmt.Errorf("%w: no database given", ErrInvalidConnectionString)
	}

	return DSN(user, password, host, port, path, params), nil
}
