package store

import (
	"database/sql"

	"github.com/pocketbase/dbx"

	"geotrailfinder/entities"
)

// SettingsRepo persists the access_token/refresh_token rows the token
// cache reads and upserts.
type SettingsRepo struct {
	db *dbx.DB
}

// NewSettingsRepo builds a SettingsRepo over s.
func NewSettingsRepo(s *Store) *SettingsRepo {
	return &SettingsRepo{db: s.DB}
}

type settingRow struct {
	ID    string `db:"id"`
	Value string `db:"value"`
}

// Get returns the stored value for id, or (false, nil) if no row exists.
func (r *SettingsRepo) Get(id string) (string, bool, error) {
	var row settingRow
	err := r.db.NewQuery("SELECT id, value FROM settings WHERE id = {:id}").
		Bind(dbx.Params{"id": id}).
		One(&row)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, entities.NewError(entities.ErrDatabase, "SettingsRepo.Get", err)
	}
	return row.Value, true, nil
}

// Upsert writes value for id, inserting or replacing the existing row.
func (r *SettingsRepo) Upsert(id, value string) error {
	_, err := r.db.NewQuery(`
		INSERT INTO settings (id, value) VALUES ({:id}, {:value})
		ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value
	`).Bind(dbx.Params{"id": id, "value": value}).Execute()
	if err != nil {
		return entities.NewError(entities.ErrDatabase, "SettingsRepo.Upsert", err)
	}
	return nil
}
