package geo

import (
	"testing"

	"github.com/richardxiang/nngrid/util"
)

func TestNewCoordinate_validRange(t *testing.T) {
	c, err := NewCoordinate(0, 0)
	util.AssertNil(t, err)
	util.AssertEqual(t, int32(0), c.Lat)
	util.AssertEqual(t, int32(0), c.Lon)
}

func TestNewCoordinate_outOfRangeLat(t *testing.T) {
	_, err := NewCoordinate(MaxLat+1, 0)
	util.AssertErrorIs(t, err, ErrInvalidCoordinate)
}

func TestNewCoordinate_outOfRangeLon(t *testing.T) {
	_, err := NewCoordinate(0, MinLon-1)
	util.AssertErrorIs(t, err, ErrInvalidCoordinate)
}

func TestNewCoordinateFromDegrees(t *testing.T) {
	c, err := NewCoordinateFromDegrees(52.5, 13.4)
	util.AssertNil(t, err)
	util.AssertEqual(t, int32(5250000), c.Lat)
	util.AssertEqual(t, int32(1340000), c.Lon)
}

func TestNewCoordinateFromDegrees_outOfRange(t *testing.T) {
	_, err := NewCoordinateFromDegrees(91, 0)
	util.AssertErrorIs(t, err, ErrInvalidCoordinate)
}

func TestCoordinate_orbRoundTrip(t *testing.T) {
	c := MustCoordinate(5250000, 1340000)
	p := c.ToOrbPoint()

	roundTripped, err := FromOrbPoint(p)
	util.AssertNil(t, err)
	util.AssertEqual(t, c.Lat, roundTripped.Lat)
	util.AssertEqual(t, c.Lon, roundTripped.Lon)
}

func TestSignum(t *testing.T) {
	util.AssertEqual(t, 1, Signum(5))
	util.AssertEqual(t, -1, Signum(-5))
	util.AssertEqual(t, 0, Signum(0))
}
