package store

import (
	"database/sql"
	"time"

	"github.com/pocketbase/dbx"

	"geotrailfinder/entities"
	"geotrailfinder/geo"
)

// TileRepo persists the tile-discovery cache's two tables: tiles2 (header,
// one row per quadkey) and tiles_codes (companion rows, the most recently
// discovered codes for that quadkey).
type TileRepo struct {
	db *dbx.DB
}

// NewTileRepo builds a TileRepo over s.
func NewTileRepo(s *Store) *TileRepo {
	return &TileRepo{db: s.DB}
}

type tileHeaderRow struct {
	ID int64     `db:"id"`
	Ts time.Time `db:"ts"`
}

type tileCodeRow struct {
	ID     int64           `db:"id"`
	GCCode string          `db:"gccode"`
	Lat    sql.NullFloat64 `db:"lat"`
	Lon    sql.NullFloat64 `db:"lon"`
}

// Header returns the header row for quadkey qk, or (false, nil) if absent.
func (r *TileRepo) Header(qk int64) (time.Time, bool, error) {
	var row tileHeaderRow
	err := r.db.NewQuery("SELECT id, ts FROM tiles2 WHERE id = {:id}").
		Bind(dbx.Params{"id": qk}).
		One(&row)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, entities.NewError(entities.ErrDatabase, "TileRepo.Header", err)
	}
	return row.Ts, true, nil
}

// Codes returns the companion rows discovered for quadkey qk.
func (r *TileRepo) Codes(qk int64) ([]entities.GcCode, error) {
	var rows []tileCodeRow
	err := r.db.NewQuery("SELECT id, gccode, lat, lon FROM tiles_codes WHERE id = {:id}").
		Bind(dbx.Params{"id": qk}).
		All(&rows)
	if err != nil {
		return nil, entities.NewError(entities.ErrDatabase, "TileRepo.Codes", err)
	}

	out := make([]entities.GcCode, 0, len(rows))
	for _, row := range rows {
		gc := entities.GcCode{Code: row.GCCode}
		if row.Lat.Valid && row.Lon.Valid {
			c := geo.Coordinate{Lat: row.Lat.Float64, Lon: row.Lon.Float64}
			gc.ApproxCoord = &c
		}
		out = append(out, gc)
	}
	return out, nil
}

// Replace rewrites quadkey qk's discovery result inside tx: deletes the
// existing companion rows, upserts the header with ts, then inserts each
// code.
func (r *TileRepo) Replace(tx *dbx.Tx, qk int64, ts time.Time, codes []entities.GcCode) error {
	if _, err := tx.NewQuery("DELETE FROM tiles_codes WHERE id = {:id}").
		Bind(dbx.Params{"id": qk}).Execute(); err != nil {
		return entities.NewError(entities.ErrDatabase, "TileRepo.Replace: delete codes", err)
	}

	if _, err := tx.NewQuery(`
		INSERT INTO tiles2 (id, ts) VALUES ({:id}, {:ts})
		ON CONFLICT (id) DO UPDATE SET ts = EXCLUDED.ts
	`).Bind(dbx.Params{"id": qk, "ts": ts}).Execute(); err != nil {
		return entities.NewError(entities.ErrDatabase, "TileRepo.Replace: upsert header", err)
	}

	for _, code := range codes {
		params := dbx.Params{"id": qk, "gccode": code.Code, "lat": nil, "lon": nil}
		if code.ApproxCoord != nil {
			params["lat"] = code.ApproxCoord.Lat
			params["lon"] = code.ApproxCoord.Lon
		}
		if _, err := tx.NewQuery(`
			INSERT INTO tiles_codes (id, gccode, lat, lon) VALUES ({:id}, {:gccode}, {:lat}, {:lon})
			ON CONFLICT (id, gccode) DO UPDATE SET lat = EXCLUDED.lat, lon = EXCLUDED.lon
		`).Bind(params).Execute(); err != nil {
			return entities.NewError(entities.ErrDatabase, "TileRepo.Replace: insert code", err)
		}
	}

	return nil
}
