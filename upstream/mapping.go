package upstream

import (
	"encoding/json"
	"fmt"
	"time"

	"geotrailfinder/entities"
	"geotrailfinder/geo"
)

// detailRecord mirrors the upstream geocache JSON shape.
type detailRecord struct {
	ReferenceCode      string             `json:"referenceCode"`
	IsPremiumOnly      bool               `json:"isPremiumOnly"`
	Name               string             `json:"name"`
	Difficulty         float32            `json:"difficulty"`
	Terrain            float32            `json:"terrain"`
	PostedCoordinates  postedCoordinates  `json:"postedCoordinates"`
	GeocacheSize       idField            `json:"geocacheSize"`
	GeocacheType       idField            `json:"geocacheType"`
	Status             string             `json:"status"`
	ShortDescription   string             `json:"shortDescription"`
	LongDescription    string             `json:"longDescription"`
	Hints              string             `json:"hints"`
	GeocacheLogs       []logRecord        `json:"geocacheLogs"`
}

type postedCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type idField struct {
	ID int `json:"id"`
}

type logRecord struct {
	LoggedDate       string  `json:"loggedDate"`
	IanaTimezoneID   string  `json:"ianaTimezoneId"`
	Text             string  `json:"text"`
	GeocacheLogType  idField `json:"geocacheLogType"`
}

// loggedDateLayout matches the "RFC-3339 local" (no offset) timestamp the
// provider sends for each log entry; the offset comes from IanaTimezoneID.
// ".999" keeps the fractional seconds the provider usually (but not
// always) sends optional.
const loggedDateLayout = "2006-01-02T15:04:05.999"

// ParseDetailRecord decodes a single upstream geocache JSON object (as
// found both in a live detail response and in the verbatim raw payload
// store.DetailRepo persists) into the domain Geocache it describes.
func ParseDetailRecord(raw []byte) (entities.Geocache, error) {
	var r detailRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return entities.Geocache{}, entities.NewError(entities.ErrParse, "upstream.ParseDetailRecord", err)
	}
	return r.toGeocache()
}

// toGeocache converts a parsed detailRecord into the domain Geocache it
// describes, applying the premium-stub rule and the enum lookup tables.
func (r detailRecord) toGeocache() (entities.Geocache, error) {
	if r.ReferenceCode == "" {
		return entities.Geocache{}, entities.NewError(entities.ErrParse, "upstream.toGeocache",
			fmt.Errorf("missing referenceCode"))
	}
	if r.IsPremiumOnly {
		return entities.PremiumStub(r.ReferenceCode), nil
	}
	if r.Name == "" {
		return entities.Geocache{}, entities.NewError(entities.ErrParse, "upstream.toGeocache",
			fmt.Errorf("%s: missing name", r.ReferenceCode))
	}

	logs := make([]entities.GeocacheLog, 0, len(r.GeocacheLogs))
	for _, lr := range r.GeocacheLogs {
		log, err := lr.toLog()
		if err != nil {
			return entities.Geocache{}, entities.NewError(entities.ErrParse, "upstream.toGeocache: log", err)
		}
		logs = append(logs, log)
	}

	return entities.Geocache{
		Code:             r.ReferenceCode,
		Name:             r.Name,
		IsPremium:        false,
		Terrain:          r.Terrain,
		Difficulty:       r.Difficulty,
		Coord:            geo.Coordinate{Lat: r.PostedCoordinates.Latitude, Lon: r.PostedCoordinates.Longitude},
		ShortDescription: r.ShortDescription,
		LongDescription:  r.LongDescription,
		EncodedHints:     r.Hints,
		Size:             entities.ContainerSizeFromID(r.GeocacheSize.ID),
		CacheType:        entities.CacheTypeFromID(r.GeocacheType.ID),
		Archived:         false,
		Available:        r.Status == "Active",
		Logs:             logs,
	}, nil
}

func (lr logRecord) toLog() (entities.GeocacheLog, error) {
	loc, err := time.LoadLocation(lr.IanaTimezoneID)
	if err != nil {
		return entities.GeocacheLog{}, fmt.Errorf("invalid timezone %q: %w", lr.IanaTimezoneID, err)
	}
	ts, err := time.ParseInLocation(loggedDateLayout, lr.LoggedDate, loc)
	if err != nil {
		return entities.GeocacheLog{}, fmt.Errorf("invalid loggedDate %q: %w", lr.LoggedDate, err)
	}
	return entities.GeocacheLog{
		Text:      lr.Text,
		LogType:   entities.LogTypeFromID(lr.GeocacheLogType.ID),
		Timestamp: ts,
	}, nil
}
