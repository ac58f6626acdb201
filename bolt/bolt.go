// Package bolt stores subscriptions in a storm (bbolt) document file.
package bolt

import (
	"time"

	"github.com/asdine/storm/v3"
)

// DB represents a database
type DB struct {
	path    string
	stormDB *storm.DB

	// Now returns the server-assigned write timestamp.
	Now func() time.Time
}

// NewDB returns new database
func NewDB(path string) *DB {
	return &DB{
		path: path,
		Now:  time.Now,
	}
}

// Open opens new database connection
func (db *DB) Open() error {
	stormDB, err := storm.Open(db.path)
	if err != nil {
		return err
	}
	db.stormDB = stormDB

	return nil
}

// Close closes database connection
func (db *DB) Close() error {
	if db.stormDB != nil {
		return db.stormDB.Close()
	}

	return nil
}
