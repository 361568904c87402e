/*
	Pictoria
	Copyright (c) 2026 Pictoria Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package catalog implements searching a pre-indexed catalog of images:
// compiling structured search criteria into a single parameterized SQL
// query, executing it in streaming or materialized mode, reconstructing
// nested image records from flat columns and serialized sub-documents,
// filtering detections by confidence, and deduplicating emitted paths.
//
// The catalog is read-only from this package's perspective; building and
// maintaining the index is someone else's job.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// driverName is our sqlite3 driver with the haversine_km SQL function
// registered on every connection.
const driverName = "sqlite3_pictoria"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("haversine_km", haversineKm, true)
		},
	})
}

//go:embed schema.sql
var createCatalog string

// Catalog is an opened image catalog. The zero value is not valid; use
// Open to obtain one.
type Catalog struct {
	dbPath string

	// The database handle and its mutex. Searches only read, but the
	// index maintainer may share the file, and wrapping calls in this
	// mutex avoids "database is locked" surprises while rows are being
	// scanned.
	db   *sql.DB
	dbMu sync.RWMutex
}

// Open opens the catalog database at dbPath. The path may be any DSN the
// sqlite3 driver accepts, including ":memory:" for tests.
func Open(ctx context.Context, dbPath string) (*Catalog, error) {
	db, err := sql.Open(driverName, dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	var version string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version() AS version").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("reading catalog database: %w", err)
	}
	Log.Debug("opened catalog", zap.String("path", dbPath), zap.String("sqlite_version", version))

	return &Catalog{dbPath: dbPath, db: db}, nil
}

// Close closes the underlying database handle.
func (c *Catalog) Close() error {
	c.dbMu.Lock()
	defer c.dbMu.Unlock()
	return c.db.Close()
}

// Provision creates the catalog schema and identity row if they do not
// exist yet. Searching never provisions; this exists so tests and the
// demo-data generator have a catalog to read.
func (c *Catalog) Provision(ctx context.Context) error {
	c.dbMu.Lock()
	defer c.dbMu.Unlock()

	if _, err := c.db.ExecContext(ctx, createCatalog); err != nil {
		return fmt.Errorf("setting up catalog schema: %w", err)
	}

	// a persistent ID so logs and callers can tell catalogs apart
	catalogID := uuid.New()
	_, err := c.db.ExecContext(ctx, `INSERT OR IGNORE INTO catalog_info (key, value) VALUES (?, ?), (?, ?)`,
		"id", catalogID.String(),
		"version", 1,
	)
	if err != nil {
		return fmt.Errorf("persisting catalog ID and version: %w", err)
	}

	return nil
}
