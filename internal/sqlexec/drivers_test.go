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
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/sqlguard/internal/sqlsafe"
)

func TestResolveTarget_MySQL(t *testing.T) {
	target, err := ResolveTarget("jdbc:mysql://db.local/app?useSSL=false&charset=utf8mb4", "app", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "mysql", target.DriverName)
	assert.Equal(t, sqlsafe.DialectMySQL, target.Dialect)

	cfg, err := mysql.ParseDSN(target.DSN)
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "s3cret", cfg.Passwd)
	assert.Equal(t, "db.local:3306", cfg.Addr)
	assert.Equal(t, "app", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, map[string]string{"charset": "utf8mb4"}, cfg.Params)
}

func TestResolveTarget_Postgres(t *testing.T) {
	target, err := ResolveTarget("jdbc:postgresql://db:5432/app?currentSchema=audit&ssl=true", "app", "p@ss")
	require.NoError(t, err)
	assert.Equal(t, "postgres", target.DriverName)
	assert.Equal(t, sqlsafe.DialectPostgres, target.Dialect)
	assert.Equal(t, "postgres://app:p%40ss@db:5432/app?search_path=audit&sslmode=require", target.DSN)
}

func TestResolveTarget_SQLite(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"jdbc:sqlite:/tmp/app.db", "/tmp/app.db"},
		{"sqlite:app.db", "app.db"},
		{"sqlite:///var/lib/app.db", "/var/lib/app.db"},
	}
	for _, tt := range tests {
		target, err := ResolveTarget(tt.url, "", "")
		require.NoError(t, err, tt.url)
		assert.Equal(t, "sqlite", target.DriverName)
		assert.Equal(t, tt.want, target.DSN)
	}
}

func TestResolveTarget_Errors(t *testing.T) {
	tests := []string{
		"jdbc:oracle:thin:@db:1521:xe",
		"jdbc:sqlite:",
		"jdbc:mysql:///app",
		"postgres:///app",
		"",
	}
	for _, url := range tests {
		_, err := ResolveTarget(url, "u", "p")
		assert.Error(t, err, url)
	}

	_, err := ResolveTarget("jdbc:db2://host/app", "u", "p")
	assert.ErrorIs(t, err, ErrNoDriver)
}

func TestDriverIdentity(t *testing.T) {
	assert.Equal(t, "nope/unknown", DriverIdentity("nope"))
	assert.Regexp(t, `^sqlite/`, DriverIdentity("sqlite"))

	names := DriverNames()
	require.Len(t, names, 3)
	assert.Regexp(t, `^mysql/`, names[0])
	assert.Regexp(t, `^postgres/`, names[1])
	assert.Regexp(t, `^sqlite/`, names[2])
}

func TestHashSQL(t *testing.T) {
	assert.Equal(t,
		"e004ebd5b5532a4b85984a62f8ad48a81aa3460c1ca07701f386135d72cdecf5",
		HashSQL("SELECT 1"))
	assert.NotEqual(t, HashSQL("SELECT 1"), HashSQL("SELECT 2"))
}
