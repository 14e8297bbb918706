package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceToPortlandSeattle(t *testing.T) {
	portland := Point{Lat: 45.5152, Lng: -122.6784}
	seattle := Point{Lat: 47.6062, Lng: -122.3321}

	d := portland.DistanceTo(seattle)
	assert.InDelta(t, 233000, d, 5000)
	assert.InDelta(t, 0, portland.DistanceTo(portland), 1e-6)
}

func TestBoundingBoxClampsAtPole(t *testing.T) {
	nearPole := Point{Lat: 89.5, Lng: 0}
	bb := nearPole.BoundingBox(200000)
	assert.LessOrEqual(t, bb.North, 90.0)
	assert.Equal(t, 90.0, bb.North)
}

func TestBoundsContainsNonWrapping(t *testing.T) {
	b := Bounds{North: 50, South: 40, East: -110, West: -120}
	assert.True(t, b.Contains(Point{Lat: 45, Lng: -115}))
	assert.False(t, b.Contains(Point{Lat: 45, Lng: -100}))
	assert.False(t, b.Contains(Point{Lat: 55, Lng: -115}))
}

func TestBoundsContainsDateLineCrossing(t *testing.T) {
	// Spans from 170 east, across the date line, to -170 (west=170, east=-170).
	b := Bounds{North: 10, South: -10, East: -170, West: 170}
	assert.True(t, b.Contains(Point{Lat: 0, Lng: 179}))
	assert.True(t, b.Contains(Point{Lat: 0, Lng: -179}))
	assert.False(t, b.Contains(Point{Lat: 0, Lng: 0}))
}

func TestBoundsIntersectsDateLineCrossing(t *testing.T) {
	b := Bounds{North: 10, South: -10, East: -170, West: 170}
	other := Bounds{North: 5, South: -5, East: -175, West: 175}
	assert.True(t, b.Intersects(other))

	farAway := Bounds{North: 5, South: -5, East: 10, West: -10}
	assert.False(t, b.Intersects(farAway))
}

func TestBoundsCenterDateLine(t *testing.T) {
	b := Bounds{North: 10, South: -10, East: -170, West: 170}
	c := b.Center()
	assert.InDelta(t, 180, math.Abs(c.Lng), 0.01)
}

func TestExactLatLngBoundary(t *testing.T) {
	b := Bounds{North: 90, South: -90, East: 180, West: -180}
	assert.True(t, b.Contains(Point{Lat: 90, Lng: 180}))
	assert.True(t, b.Contains(Point{Lat: -90, Lng: -180}))
}
