package geo

import (
	"testing"

	"github.com/richardxiang/nngrid/util"
)

func TestProject_midSegment(t *testing.T) {
	source := MustCoordinate(0, 0)
	target := MustCoordinate(0, 1000)
	input := MustCoordinate(100, 500)

	nearest, r, distSq := Project(input, source, target)

	util.AssertEqual(t, int32(500), nearest.Lon)
	util.AssertEqual(t, int32(0), nearest.Lat)
	util.AssertApprox(t, 0.5, r, 1e-9)
	util.AssertApprox(t, 10000.0, distSq, 1e-6)
}

func TestProject_clampsToSource(t *testing.T) {
	source := MustCoordinate(0, 0)
	target := MustCoordinate(0, 1000)
	input := MustCoordinate(0, -500)

	nearest, r, _ := Project(input, source, target)

	util.AssertEqual(t, source, nearest)
	util.AssertEqual(t, 0.0, r)
}

func TestProject_clampsToTarget(t *testing.T) {
	source := MustCoordinate(0, 0)
	target := MustCoordinate(0, 1000)
	input := MustCoordinate(0, 1500)

	nearest, r, _ := Project(input, source, target)

	util.AssertEqual(t, target, nearest)
	util.AssertEqual(t, 1.0, r)
}

func TestProject_degenerateSegment(t *testing.T) {
	source := MustCoordinate(10, 10)
	target := MustCoordinate(10, 10)
	input := MustCoordinate(13, 14)

	nearest, r, distSq := Project(input, source, target)

	util.AssertEqual(t, source, nearest)
	util.AssertEqual(t, 0.0, r)
	util.AssertApprox(t, 25.0, distSq, 1e-6)
}
