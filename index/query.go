package index

import (
	"math"

	"github.com/pkg/errors"
	"github.com/richardxiang/nngrid/geo"
	"github.com/richardxiang/nngrid/grid"
)

// PhantomNode identifies a virtual node lying fraction R along the edge
// StartID->TargetID, at the point Coord nearest some query coordinate.
type PhantomNode struct {
	StartID  geo.NodeID
	TargetID geo.NodeID
	R        float64
	Coord    geo.Coordinate
}

// PhantomNodes packages the two routing-start attachments a routing
// engine needs to splice a query's source and target coordinates into
// the road graph.
type PhantomNodes struct {
	Source PhantomNode
	Target PhantomNode
}

// FindNearestPointOnEdge runs the 3x3 fine-cell neighborhood scan around
// point, projects it onto every candidate edge, and returns the
// projected point together with the winning edge and its projection
// parameter. Ties are broken by on-disk order: the first candidate
// encountered wins, matching the original's stable linear scan.
func FindNearestPointOnEdge(r *Reader, point geo.Coordinate) (geo.Coordinate, geo.Edge, float64, error) {
	fi := grid.FineOf(point)
	row := int64(fi) / grid.FineDim
	col := int64(fi) % grid.FineDim

	bestDistSq := math.Inf(1)
	var bestCoord geo.Coordinate
	var bestEdge geo.Edge
	var bestR float64
	found := false

	for dy := int64(-1); dy <= 1; dy++ {
		newRow := row + dy
		if newRow < 0 || newRow >= grid.FineDim {
			continue
		}
		for dx := int64(-1); dx <= 1; dx++ {
			newCol := col + dx
			if newCol < 0 || newCol >= grid.FineDim {
				continue
			}

			neighborFine := uint32(newRow*grid.FineDim + newCol)
			edges, err := r.readFineCell(neighborFine)
			if err != nil {
				return geo.Coordinate{}, geo.Edge{}, 0, err
			}

			for _, edge := range edges {
				nearest, param, distSq := geo.Project(point, edge.StartCoord, edge.TargetCoord)
				if distSq < bestDistSq {
					bestDistSq = distSq
					bestCoord = nearest
					bestEdge = edge
					bestR = param
					found = true
				}
			}
		}
	}

	if !found {
		return geo.Coordinate{}, geo.Edge{}, 0, errors.WithStack(ErrNoNearestFound)
	}

	return bestCoord, bestEdge, bestR, nil
}

// FindRoutingStarts runs FindNearestPointOnEdge for both src and tgt and
// packages the two results into a single PhantomNodes, the convenience
// the original's FindRoutingStarts provides to callers that need both
// endpoints attached to the graph in one call.
func FindRoutingStarts(r *Reader, src, tgt geo.Coordinate) (PhantomNodes, error) {
	srcCoord, srcEdge, srcR, err := FindNearestPointOnEdge(r, src)
	if err != nil {
		return PhantomNodes{}, errors.Wrap(err, "finding routing start for source coordinate")
	}

	tgtCoord, tgtEdge, tgtR, err := FindNearestPointOnEdge(r, tgt)
	if err != nil {
		return PhantomNodes{}, errors.Wrap(err, "finding routing start for target coordinate")
	}

	return PhantomNodes{
		Source: PhantomNode{StartID: srcEdge.StartID, TargetID: srcEdge.TargetID, R: srcR, Coord: srcCoord},
		Target: PhantomNode{StartID: tgtEdge.StartID, TargetID: tgtEdge.TargetID, R: tgtR, Coord: tgtCoord},
	}, nil
}
