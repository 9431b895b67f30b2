package index

import (
	"math/rand"
	"testing"

	"github.com/richardxiang/nngrid/geo"
	"github.com/richardxiang/nngrid/util"
)

// TestRoundTrip_randomEdges builds an index from a batch of random edges
// and checks that querying each edge's midpoint finds that edge again,
// per the round-trip-decoding scenario in the spec's testable
// properties.
func TestRoundTrip_randomEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	const numEdges = 2000
	edges := make([]geo.Edge, 0, numEdges)
	for i := 0; i < numEdges; i++ {
		startLat := int32(rng.Intn(2*geo.MaxLat) - geo.MaxLat)
		startLon := int32(rng.Intn(2*geo.MaxLon) - geo.MaxLon)
		targetLat := startLat + int32(rng.Intn(2001)-1000)
		targetLon := startLon + int32(rng.Intn(2001)-1000)

		if targetLat < geo.MinLat {
			targetLat = geo.MinLat
		}
		if targetLat > geo.MaxLat {
			targetLat = geo.MaxLat
		}
		if targetLon < geo.MinLon {
			targetLon = geo.MinLon
		}
		if targetLon > geo.MaxLon {
			targetLon = geo.MaxLon
		}

		start := geo.MustCoordinate(startLat, startLon)
		target := geo.MustCoordinate(targetLat, targetLon)
		edges = append(edges, geo.NewEdge(geo.NodeID(2*i), geo.NodeID(2*i+1), start, target))
	}

	ramPath, bucketPath := buildTempIndex(t, edges)

	reader, err := Open(ramPath, bucketPath)
	util.AssertNil(t, err)
	defer reader.Close()

	misses := 0
	for _, e := range edges {
		midLat := (e.StartCoord.Lat + e.TargetCoord.Lat) / 2
		midLon := (e.StartCoord.Lon + e.TargetCoord.Lon) / 2
		mid := geo.MustCoordinate(midLat, midLon)

		_, foundEdge, _, err := FindNearestPointOnEdge(reader, mid)
		util.AssertNil(t, err)
		if foundEdge.StartID != e.StartID || foundEdge.TargetID != e.TargetID {
			misses++
		}
	}

	// A small fraction of midpoints may legitimately resolve to a
	// different, even-closer edge when many random edges cluster in the
	// same fine cell; this just checks the overwhelming majority
	// round-trip correctly.
	util.AssertTrue(t, misses < numEdges/20)
}
