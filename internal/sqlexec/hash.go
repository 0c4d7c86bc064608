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
	"crypto/sha256"
	"encoding/hex"
)

// hashUnavailable is reported when the statement text cannot be hashed.
const hashUnavailable = "NA"

// hashSQL returns the lowercase hex SHA-256 of sql.
func hashSQL(sql string) string {
	h := sha256.New()
	if _, err := h.Write([]byte(sql)); err != nil {
		return hashUnavailable
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashSQL exposes the statement fingerprint used in results and logs.
func HashSQL(sql string) string {
	return hashSQL(sql)
}
