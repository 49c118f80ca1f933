// Package utfgrid decodes a tile server's UTF-grid pixel map into the
// geocache codes and approximate coordinates it encodes.
package utfgrid

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"geotrailfinder/entities"
	"geotrailfinder/geo"
)

// gridSize is the pixel width/height of the UTF-grid buffer.
const gridSize = 64

// dataObject is a single UTF-grid feature reference; "i" is the GC code,
// the rest of the object (e.g. a name field) is ignored.
type dataObject struct {
	I string `json:"i"`
}

// payload mirrors the upstream map.info JSON shape: a grid of rows (decoded
// but not used; pixel positions are normalized by gridSize) and a data map
// from "(x,y)" to the list of feature objects covering that pixel.
type payload struct {
	Grid []string                `json:"grid"`
	Data map[string][]dataObject `json:"data"`
}

// Decode parses raw UTF-grid JSON for tile into the GC codes it names, each
// with the approximate coordinate recovered from the pixels it covers.
//
// Entries whose value list has more than one code are ambiguous and
// dropped; an upstream reply with no single-cache pixel yields an empty,
// non-error result.
func Decode(tile geo.Tile, body []byte) ([]entities.GcCode, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, entities.NewError(entities.ErrParse, "utfgrid.Decode", err)
	}

	type bounds struct {
		minX, maxX, minY, maxY int
	}
	byCode := make(map[string]*bounds)

	for key, codes := range p.Data {
		if len(codes) != 1 {
			continue
		}
		x, y, err := parseKey(key)
		if err != nil {
			continue
		}
		code := codes[0].I
		b, ok := byCode[code]
		if !ok {
			byCode[code] = &bounds{minX: x, maxX: x, minY: y, maxY: y}
			continue
		}
		if x < b.minX {
			b.minX = x
		}
		if x > b.maxX {
			b.maxX = x
		}
		if y < b.minY {
			b.minY = y
		}
		if y > b.maxY {
			b.maxY = y
		}
	}

	out := make([]entities.GcCode, 0, len(byCode))
	for code, b := range byCode {
		mx := float64(b.minX+b.maxX) / 2
		my := float64(b.minY+b.maxY) / 2
		fx := mx / (gridSize - 1)
		fy := my / (gridSize - 1)
		coord := tile.UTFGridOffset(fx, fy)
		out = append(out, entities.GcCode{Code: code, ApproxCoord: &coord})
	}

	return out, nil
}

// parseKey parses a "(x,y)" UTF-grid data key into its pixel coordinates.
func parseKey(key string) (int, int, error) {
	trimmed := strings.Trim(key, "()")
	parts := strings.SplitN(trimmed, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed utf-grid key %q", key)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
