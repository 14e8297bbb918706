package geo

// Bounds is an axis-aligned lat/lng box. North >= South always holds. West
// may be greater than East, which is interpreted as a date-line crossing
// (the box wraps through +/-180 longitude rather than the short way).
type Bounds struct {
	North float64
	South float64
	East  float64
	West  float64
}

// crossesDateLine reports whether b wraps through +/-180 longitude.
func (b Bounds) crossesDateLine() bool {
	return b.West > b.East
}

// Contains reports whether p falls within b, per spec's date-line rule: for
// a wrapping box, longitude membership is (lng >= west OR lng <= east)
// instead of the usual (lng >= west AND lng <= east).
func (b Bounds) Contains(p Point) bool {
	if p.Lat > b.North || p.Lat < b.South {
		return false
	}
	if b.crossesDateLine() {
		return p.Lng >= b.West || p.Lng <= b.East
	}
	return p.Lng >= b.West && p.Lng <= b.East
}

// Intersects reports whether b and other share any point.
func (b Bounds) Intersects(other Bounds) bool {
	if b.North < other.South || b.South > other.North {
		return false
	}
	bSpans := lngSpans(b)
	oSpans := lngSpans(other)
	for _, bs := range bSpans {
		for _, os := range oSpans {
			if bs.overlaps(os) {
				return true
			}
		}
	}
	return false
}

type lngSpan struct{ lo, hi float64 }

func (s lngSpan) overlaps(other lngSpan) bool {
	return s.lo <= other.hi && other.lo <= s.hi
}

// lngSpans decomposes a (possibly date-line-crossing) bounds into one or
// two non-wrapping [lo,hi] longitude intervals.
func lngSpans(b Bounds) []lngSpan {
	if !b.crossesDateLine() {
		return []lngSpan{{lo: b.West, hi: b.East}}
	}
	return []lngSpan{
		{lo: b.West, hi: 180},
		{lo: -180, hi: b.East},
	}
}

// Center returns the midpoint of b. For a date-line-crossing box the
// longitude midpoint is computed along the wrapping path.
func (b Bounds) Center() Point {
	lat := (b.North + b.South) / 2
	var lng float64
	if !b.crossesDateLine() {
		lng = (b.East + b.West) / 2
	} else {
		span := (360 - b.West) + b.East
		lng = b.West + span/2
		if lng > 180 {
			lng -= 360
		}
	}
	return Point{Lat: lat, Lng: lng}
}

// Expand grows b outward by meters in every direction, clamping at the
// poles and preserving (or introducing) date-line wraparound as needed.
func (b Bounds) Expand(meters float64) Bounds {
	nw := Point{Lat: b.North, Lng: b.West}.BoundingBox(meters)
	se := Point{Lat: b.South, Lng: b.East}.BoundingBox(meters)
	return Bounds{
		North: nw.North,
		South: se.South,
		West:  nw.West,
		East:  se.East,
	}
}
