// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlexec

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"runtime/debug"
	"sort"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/tombee/sqlguard/internal/sqlsafe"
)

// Target is a resolved database/sql driver name and DSN.
type Target struct {
	DriverName string
	DSN        string
	Dialect    sqlsafe.Dialect
}

// Opener opens a database handle. sql.Open satisfies it through OpenerFunc.
type Opener interface {
	Open(driverName, dsn string) (*sql.DB, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(driverName, dsn string) (*sql.DB, error)

// Open calls f.
func (f OpenerFunc) Open(driverName, dsn string) (*sql.DB, error) {
	return f(driverName, dsn)
}

// DefaultOpener is sql.Open.
var DefaultOpener Opener = OpenerFunc(sql.Open)

// ErrNoDriver is returned for URLs whose dialect has no registered driver.
var ErrNoDriver = errors.New("no driver registered for url")

// driverModules maps registered driver names to the module providing them.
var driverModules = map[string]string{
	"mysql":    "github.com/go-sql-driver/mysql",
	"postgres": "github.com/lib/pq",
	"sqlite":   "modernc.org/sqlite",
}

// jdbcOnlyParams are JDBC driver properties with no meaning to the Go
// drivers. Forwarding them would make the server reject the session.
var jdbcOnlyParams = map[string]bool{
	"useSSL":                  true,
	"useUnicode":              true,
	"characterEncoding":       true,
	"serverTimezone":          true,
	"autoReconnect":           true,
	"allowPublicKeyRetrieval": true,
	"ssl":                     true,
	"currentSchema":           true,
}

// ResolveTarget turns a connection URL and credentials into a driver name
// and DSN. URLs may carry a "jdbc:" prefix.
func ResolveTarget(rawURL, username, password string) (Target, error) {
	dialect := sqlsafe.GuessDialect(rawURL)
	rest := strings.TrimSpace(rawURL)
	if len(rest) >= 5 && strings.EqualFold(rest[:5], "jdbc:") {
		rest = rest[5:]
	}

	switch dialect {
	case sqlsafe.DialectMySQL:
		dsn, err := mysqlDSN(rest, username, password)
		if err != nil {
			return Target{}, err
		}
		return Target{DriverName: "mysql", DSN: dsn, Dialect: dialect}, nil

	case sqlsafe.DialectPostgres:
		dsn, err := postgresDSN(rest, username, password)
		if err != nil {
			return Target{}, err
		}
		return Target{DriverName: "postgres", DSN: dsn, Dialect: dialect}, nil

	case sqlsafe.DialectSQLite:
		dsn, err := sqliteDSN(rest)
		if err != nil {
			return Target{}, err
		}
		return Target{DriverName: "sqlite", DSN: dsn, Dialect: dialect}, nil

	default:
		return Target{}, ErrNoDriver
	}
}

func mysqlDSN(rest, username, password string) (string, error) {
	u, err := url.Parse(rest)
	if err != nil {
		return "", fmt.Errorf("invalid mysql url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid mysql url: missing host")
	}

	cfg := mysql.NewConfig()
	cfg.User = username
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true

	for key, values := range u.Query() {
		if jdbcOnlyParams[key] || len(values) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params[key] = values[0]
	}

	return cfg.FormatDSN(), nil
}

func postgresDSN(rest, username, password string) (string, error) {
	u, err := url.Parse(rest)
	if err != nil {
		return "", fmt.Errorf("invalid postgres url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid postgres url: missing host")
	}

	u.Scheme = "postgres"
	if password != "" {
		u.User = url.UserPassword(username, password)
	} else {
		u.User = url.User(username)
	}

	q := u.Query()
	if schema := q.Get("currentSchema"); schema != "" {
		q.Set("search_path", schema)
	}
	if q.Get("ssl") == "true" && q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
	}
	for key := range q {
		if jdbcOnlyParams[key] {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func sqliteDSN(rest string) (string, error) {
	_, path, ok := strings.Cut(rest, ":")
	if !ok {
		return "", fmt.Errorf("invalid sqlite url")
	}
	path = strings.TrimPrefix(path, "//")
	if path == "" {
		return "", fmt.Errorf("invalid sqlite url: missing database path")
	}
	return path, nil
}

var buildDeps = sync.OnceValue(func() map[string]string {
	deps := map[string]string{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return deps
	}
	for _, dep := range info.Deps {
		version := dep.Version
		if dep.Replace != nil && dep.Replace.Version != "" {
			version = dep.Replace.Version
		}
		deps[dep.Path] = version
	}
	return deps
})

// DriverIdentity returns "<driver>/<module version>", or "<driver>/unknown"
// when the binary carries no build information for it.
func DriverIdentity(driverName string) string {
	if module, ok := driverModules[driverName]; ok {
		if version := buildDeps()[module]; version != "" {
			return driverName + "/" + version
		}
	}
	return driverName + "/unknown"
}

// DriverNames returns the built-in driver identities in sorted order.
func DriverNames() []string {
	names := make([]string, 0, len(driverModules))
	for name := range driverModules {
		names = append(names, DriverIdentity(name))
	}
	sort.Strings(names)
	return names
}
