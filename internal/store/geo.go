package store

import (
	"fmt"

	"github.com/aman-cerp/lexidex/internal/geo"
)

// buildGeoClause builds the R-tree bounding-box prefilter fragment for
// near/within geo predicates, per spec §4.3 ("near(point, radius) prefilters
// by R-tree using the point's bounding box ... within(bounds) uses the
// R-tree overlap test with date-line handling"). Exact great-circle
// refinement happens afterward in Go, over the prefiltered row set
// (refineByDistance).
func (s *Store) buildGeoClause(index string, near *GeoNear, within *GeoWithin) (string, []any, error) {
	switch {
	case near != nil:
		bb := near.Point.BoundingBox(near.Radius)
		return rtreeOverlapClause(index, bb)
	case within != nil:
		return rtreeOverlapClause(index, within.Bounds)
	default:
		return "", nil, nil
	}
}

// rtreeOverlapClause builds an `IN (SELECT doc_id FROM rtree_<idx> WHERE
// ...)` subquery testing bounding-box overlap, splitting a date-line-
// crossing box into its two component longitude spans (R-tree itself has
// no wraparound concept).
func rtreeOverlapClause(index string, bb geo.Bounds) (string, []any, error) {
	if bb.West <= bb.East {
		clause := fmt.Sprintf(`d.doc_id IN (
			SELECT doc_id FROM rtree_%s
			WHERE max_lat >= ? AND min_lat <= ?
			  AND max_lng >= ? AND min_lng <= ?
		)`, index)
		return clause, []any{bb.South, bb.North, bb.West, bb.East}, nil
	}

	// Date-line crossing: union the west-of-antimeridian and
	// east-of-antimeridian spans.
	clause := fmt.Sprintf(`d.doc_id IN (
		SELECT doc_id FROM rtree_%s
		WHERE max_lat >= ? AND min_lat <= ?
		  AND (max_lng >= ? OR min_lng <= ?)
	)`, index)
	return clause, []any{bb.South, bb.North, bb.West, bb.East}, nil
}

// refineByDistance drops rows whose exact Haversine distance from center
// exceeds radiusM, and attaches the computed distance to every surviving
// row. This is the "refine by exact great-circle distance" step of near().
func refineByDistance(rows []SearchRow, center geo.Point, radiusM float64) []SearchRow {
	out := rows[:0]
	for _, r := range rows {
		if r.GeoLat == nil || r.GeoLng == nil {
			continue
		}
		p := geo.Point{Lat: *r.GeoLat, Lng: *r.GeoLng}
		d := center.DistanceTo(p)
		if d > radiusM {
			continue
		}
		dist := d
		r.Distance = &dist
		out = append(out, r)
	}
	return out
}

// attachDistances computes and attaches the Haversine distance from center
// to every row that has a geo point, without filtering, for
// sort_by_distance.
func attachDistances(rows []SearchRow, center geo.Point) {
	for i := range rows {
		if rows[i].GeoLat == nil || rows[i].GeoLng == nil {
			continue
		}
		p := geo.Point{Lat: *rows[i].GeoLat, Lng: *rows[i].GeoLng}
		d := center.DistanceTo(p)
		rows[i].Distance = &d
	}
}
