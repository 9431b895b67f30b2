package geo

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// ErrInvalidCoordinate is returned whenever a latitude or longitude falls
// outside the legal WGS84-ish range. Programmer error, never a transient
// condition.
var ErrInvalidCoordinate = errors.New("coordinate outside of valid lat/lon range")

// Fixed-point scale: degrees * Scale gives the integer representation used
// throughout the grid. 1e5 gives ~1.1m precision at the equator.
const Scale = 100000

const (
	MinLat = -90 * Scale
	MaxLat = 90 * Scale
	MinLon = -180 * Scale
	MaxLon = 180 * Scale
)

// Coordinate is a fixed-point (lat, lon) pair, stored as degrees * 1e5. Two
// of these make up an Edge's endpoints; the whole grid is addressed from
// this representation, never from floats, so that builds are reproducible.
type Coordinate struct {
	Lat int32
	Lon int32
}

var coordinateValidator = validator.New()

// degreeDTO is validated with go-playground/validator before being scaled
// into fixed point, the same way Navigatorx's routing DTOs reject an
// out-of-range lat/lon before they ever reach the grid.
type degreeDTO struct {
	Lat float64 `validate:"min=-90,max=90"`
	Lon float64 `validate:"min=-180,max=180"`
}

// NewCoordinate builds a Coordinate from already-scaled fixed-point
// lat/lon and validates the range.
func NewCoordinate(lat, lon int32) (Coordinate, error) {
	if lat < MinLat || lat > MaxLat || lon < MinLon || lon > MaxLon {
		return Coordinate{}, errors.Wrapf(ErrInvalidCoordinate, "lat=%d lon=%d", lat, lon)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// NewCoordinateFromDegrees builds a Coordinate from floating point degrees,
// validating with the go-playground validator before rounding to the
// nearest fixed-point unit.
func NewCoordinateFromDegrees(latDeg, lonDeg float64) (Coordinate, error) {
	dto := degreeDTO{Lat: latDeg, Lon: lonDeg}
	if err := coordinateValidator.Struct(dto); err != nil {
		return Coordinate{}, errors.Wrapf(ErrInvalidCoordinate, "lat=%f lon=%f: %s", latDeg, lonDeg, err)
	}
	return Coordinate{
		Lat: int32(math.Round(latDeg * Scale)),
		Lon: int32(math.Round(lonDeg * Scale)),
	}, nil
}

// MustCoordinate panics on an invalid coordinate. Meant for tests and
// compile-time-known literals, never for data coming off the wire or out
// of a build file.
func MustCoordinate(lat, lon int32) Coordinate {
	c, err := NewCoordinate(lat, lon)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Coordinate) LatDegrees() float64 { return float64(c.Lat) / Scale }
func (c Coordinate) LonDegrees() float64 { return float64(c.Lon) / Scale }

// ToOrbPoint converts to a github.com/paulmach/orb point ({lon, lat}
// ordering, matching orb's convention) for collaborators that already work
// in orb geometries, such as a road-graph extractor built on paulmach/osm.
func (c Coordinate) ToOrbPoint() orb.Point {
	return orb.Point{c.LonDegrees(), c.LatDegrees()}
}

// FromOrbPoint is the inverse of ToOrbPoint.
func FromOrbPoint(p orb.Point) (Coordinate, error) {
	return NewCoordinateFromDegrees(p.Lat(), p.Lon())
}

// Signum returns -1, 0 or +1 depending on the sign of x. Used by the
// Bresenham rasterizer to pick step directions.
func Signum(x int) int {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}
