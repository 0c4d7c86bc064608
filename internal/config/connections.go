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

package config

import (
	"context"
	"sort"

	"github.com/tombee/sqlguard/internal/secrets"
	sgerrors "github.com/tombee/sqlguard/pkg/errors"
)

// ConnectionNames returns the configured connection names in sorted order.
func (c *Config) ConnectionNames() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver returns a secret resolver honoring the env allowlist.
func (c *Config) Resolver() *secrets.Resolver {
	return secrets.NewResolver(
		secrets.NewEnvProvider(c.Secrets.EnvAllowlist),
		secrets.NewKeychainProvider(secrets.KeychainService),
	)
}

// ResolveConnection looks up name and resolves its password reference.
func (c *Config) ResolveConnection(ctx context.Context, name string, resolver *secrets.Resolver) (Connection, error) {
	conn, ok := c.Connections[name]
	if !ok {
		return Connection{}, &sgerrors.NotFoundError{Resource: "connection", ID: name}
	}

	if conn.Password != "" {
		if resolver == nil {
			resolver = c.Resolver()
		}
		password, err := resolver.Resolve(ctx, conn.Password)
		if err != nil {
			return Connection{}, err
		}
		conn.Password = password
	}
	return conn, nil
}
