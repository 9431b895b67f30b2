package geo

import (
	"testing"

	"github.com/richardxiang/nngrid/util"
)

func TestNewEdge(t *testing.T) {
	start := MustCoordinate(0, 0)
	target := MustCoordinate(100, 100)

	e := NewEdge(1, 2, start, target)

	util.AssertEqual(t, NodeID(1), e.StartID)
	util.AssertEqual(t, NodeID(2), e.TargetID)
	util.AssertEqual(t, start, e.StartCoord)
	util.AssertEqual(t, target, e.TargetCoord)
}
