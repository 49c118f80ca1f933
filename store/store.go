// Package store persists the tile-discovery cache, the detail cache, and
// the OAuth settings rows, using dbx as a thin query builder over a plain
// Postgres connection. Schema management lives elsewhere; Store assumes
// the tables already exist.
package store

import (
	"fmt"

	"github.com/pocketbase/dbx"

	_ "github.com/lib/pq"

	"geotrailfinder/config"
	"geotrailfinder/entities"
)

// Store wraps a dbx.DB connected to the Postgres instance holding the four
// tables: tiles2, tiles_codes, geocaches, settings.
type Store struct {
	DB *dbx.DB
}

// Open connects to Postgres using cfg.Database and wraps it in dbx.
func Open(cfg *config.Config) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Database)

	db, err := dbx.Open("postgres", dsn)
	if err != nil {
		return nil, entities.NewError(entities.ErrDatabase, "store.Open", err)
	}
	if err := db.DB().Ping(); err != nil {
		return nil, entities.NewError(entities.ErrDatabase, "store.Open: ping", err)
	}

	return &Store{DB: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

// WithTx runs fn inside a single Postgres transaction, committing on
// success and rolling back on error or panic. Used by the tile-discovery
// cache's delete+upsert+upsert sequence.
func (s *Store) WithTx(fn func(tx *dbx.Tx) error) (err error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return entities.NewError(entities.ErrDatabase, "store.WithTx: begin", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return entities.NewError(entities.ErrDatabase, "store.WithTx: rollback", rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return entities.NewError(entities.ErrDatabase, "store.WithTx: commit", err)
	}
	return nil
}
