package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pocketbase/dbx"

	"geotrailfinder/entities"
)

// DetailRepo persists the detail cache's geocaches table: one row per
// code, holding the upstream payload verbatim alongside a freshness
// timestamp.
type DetailRepo struct {
	db *dbx.DB
}

// NewDetailRepo builds a DetailRepo over s.
func NewDetailRepo(s *Store) *DetailRepo {
	return &DetailRepo{db: s.DB}
}

type detailRow struct {
	ID  string    `db:"id"`
	Ts  time.Time `db:"ts"`
	Raw string    `db:"raw"`
}

// Get returns the raw payload stored for code and the timestamp it was
// last fetched, or (false, nil) if no row exists.
func (r *DetailRepo) Get(code string) (json.RawMessage, time.Time, bool, error) {
	var row detailRow
	err := r.db.NewQuery("SELECT id, ts, raw FROM geocaches WHERE id = {:id}").
		Bind(dbx.Params{"id": code}).
		One(&row)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, entities.NewError(entities.ErrDatabase, "DetailRepo.Get", err)
	}
	return json.RawMessage(row.Raw), row.Ts, true, nil
}

// GetMany looks up codes in one round trip, returning only the rows found.
// Callers diff the requested codes against the returned map to find misses.
func (r *DetailRepo) GetMany(codes []string) (map[string]json.RawMessage, map[string]time.Time, error) {
	if len(codes) == 0 {
		return map[string]json.RawMessage{}, map[string]time.Time{}, nil
	}

	ids := make([]interface{}, len(codes))
	for i, code := range codes {
		ids[i] = code
	}

	var rows []detailRow
	err := r.db.Select("id", "ts", "raw").From("geocaches").
		Where(dbx.In("id", ids...)).
		All(&rows)
	if err != nil {
		return nil, nil, entities.NewError(entities.ErrDatabase, "DetailRepo.GetMany", err)
	}

	found := make(map[string]json.RawMessage, len(rows))
	stamps := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		found[row.ID] = json.RawMessage(row.Raw)
		stamps[row.ID] = row.Ts
	}
	return found, stamps, nil
}

// Upsert writes raw as of ts under code, replacing any existing row.
func (r *DetailRepo) Upsert(code string, raw json.RawMessage, ts time.Time) error {
	_, err := r.db.NewQuery(`
		INSERT INTO geocaches (id, ts, raw) VALUES ({:id}, {:ts}, {:raw})
		ON CONFLICT (id) DO UPDATE SET ts = EXCLUDED.ts, raw = EXCLUDED.raw
	`).Bind(dbx.Params{"id": code, "ts": ts, "raw": string(raw)}).Execute()
	if err != nil {
		return entities.NewError(entities.ErrDatabase, "DetailRepo.Upsert", err)
	}
	return nil
}
