package services

import (
	"encoding/json"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
)

// Geometry arrives from the admin map widget as raw coordinate arrays:
// a point is [lng, lat], a polygon is a list of closed rings of
// [lng, lat] pairs. Both are checked for structural validity here and
// serialized to GeoJSON before any SQL touches them; the database only
// ever sees ST_GeomFromGeoJSON(<validated json>).

type geoJSONGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

func validLngLat(pair []float64) bool {
	return len(pair) == 2 &&
		pair[0] >= -180 && pair[0] <= 180 &&
		pair[1] >= -90 && pair[1] <= 90
}

// PointGeoJSON validates a [lng, lat] pair and returns its GeoJSON
// encoding. nil coordinates mean "no geometry supplied" and return "".
func PointGeoJSON(coords []float64) (string, error) {
	if coords == nil {
		return "", nil
	}
	if !validLngLat(coords) {
		return "", apperr.BadRequest("point must be a [longitude, latitude] pair within bounds")
	}
	raw, err := json.Marshal(geoJSONGeometry{Type: "Point", Coordinates: coords})
	if err != nil {
		return "", apperr.BadRequest("point coordinates are not serializable: %v", err)
	}
	return string(raw), nil
}

// PolygonGeoJSON validates polygon rings and returns their GeoJSON
// encoding. Each ring needs at least four positions with the first
// repeated as the last.
func PolygonGeoJSON(rings [][][]float64) (string, error) {
	if rings == nil {
		return "", nil
	}
	if len(rings) == 0 {
		return "", apperr.BadRequest("polygon needs at least one ring")
	}
	for _, ring := range rings {
		if len(ring) < 4 {
			return "", apperr.BadRequest("polygon ring needs at least 4 positions, got %d", len(ring))
		}
		for _, pair := range ring {
			if !validLngLat(pair) {
				return "", apperr.BadRequest("polygon contains a position that is not a valid [longitude, latitude] pair")
			}
		}
		first, last := ring[0], ring[len(ring)-1]
		if first[0] != last[0] || first[1] != last[1] {
			return "", apperr.BadRequest("polygon ring must close: first and last positions differ")
		}
	}
	raw, err := json.Marshal(geoJSONGeometry{Type: "Polygon", Coordinates: rings})
	if err != nil {
		return "", apperr.BadRequest("polygon coordinates are not serializable: %v", err)
	}
	return string(raw), nil
}
