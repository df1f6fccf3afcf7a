// Copyright 2025 Contriboss
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

package pipgrub

import (
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// PackageStore persists package metadata in a SQLite database, so cached
// registry responses survive across processes. Payloads are stored as
// JSON; the schema stays a single table on purpose.
type PackageStore struct {
	db *sql.DB
}

// NewPackageStore opens (or creates) a store at dbPath with WAL mode
// enabled and runs the schema migration.
func NewPackageStore(dbPath string) (*PackageStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	store := &PackageStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

const packageStoreDDL = `
CREATE TABLE IF NOT EXISTS package_info (
  name        TEXT PRIMARY KEY,
  payload     BLOB NOT NULL,
  fetched_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// migrate creates the schema. Idempotent.
func (s *PackageStore) migrate() error {
	if _, err := s.db.Exec(packageStoreDDL); err != nil {
		return errors.Wrap(err, "migrate")
	}
	return nil
}

// Get loads a package's metadata. The second return value reports whether
// the package was present.
func (s *PackageStore) Get(name string) (*PackageInfo, bool, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM package_info WHERE name = ?`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "load package %s", name)
	}

	var info PackageInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, false, errors.Wrapf(err, "decode package %s", name)
	}
	return &info, true, nil
}

// Put stores or replaces a package's metadata.
func (s *PackageStore) Put(name string, info *PackageInfo) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return errors.Wrapf(err, "encode package %s", name)
	}

	_, err = s.db.Exec(`
		INSERT INTO package_info (name, payload, fetched_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
		  payload = excluded.payload,
		  fetched_at = excluded.fetched_at`,
		name, payload)
	return errors.Wrapf(err, "store package %s", name)
}

// Delete removes a package's metadata. Deleting an absent package is not
// an error.
func (s *PackageStore) Delete(name string) error {
	_, err := s.db.Exec(`DELETE FROM package_info WHERE name = ?`, name)
	return errors.Wrapf(err, "delete package %s", name)
}

// Close closes the underlying database.
func (s *PackageStore) Close() error {
	return s.db.Close()
}
