package grid

import (
	"github.com/richardxiang/nngrid/geo"
)

// CellRef pairs a fine-cell id with the coarse cell that owns it, the unit
// the build pipeline sorts and groups by.
type CellRef struct {
	Fine   uint32
	Coarse uint32
}

// Rasterize walks the line between start and target over fine-grid pixel
// coordinates using Bresenham's algorithm and returns one CellRef per
// step, including the starting pixel. Ported from bresenham +
// getListOfIndexesForEdgeAndGridSize.
//
// The row used to build the fine-cell id is (y-1)*FineDim+x rather than
// y*FineDim+x: this reproduces the original's off-by-one row quirk
// exactly. FineOf, used on the read side, does not apply the -1; both
// sides are internally consistent, so the index is self-consistent even
// though it disagrees with FineOf by one row.
func Rasterize(start, target geo.Coordinate) []CellRef {
	x1 := (start.LonDegrees() + 180.0) / 360.0
	y1 := (start.LatDegrees() + 90.0) / 180.0
	x2 := (target.LonDegrees() + 180.0) / 360.0
	y2 := (target.LatDegrees() + 90.0) / 180.0

	return bresenham(int(x1*FineDim), int(y1*FineDim), int(x2*FineDim), int(y2*FineDim))
}

func bresenham(xstart, ystart, xend, yend int) []CellRef {
	dx := xend - xstart
	dy := yend - ystart

	incx := geo.Signum(dx)
	incy := geo.Signum(dy)
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	var pdx, pdy, ddx, ddy, es, el int
	if dx > dy {
		pdx, pdy = incx, 0
		ddx, ddy = incx, incy
		es, el = dy, dx
	} else {
		pdx, pdy = 0, incy
		ddx, ddy = incx, incy
		es, el = dx, dy
	}

	x, y := xstart, ystart
	err := el / 2

	refs := make([]CellRef, 0, el+1)
	if ref, ok := cellRefAt(x, y); ok {
		refs = append(refs, ref)
	}

	for t := 0; t < el; t++ {
		err -= es
		if err < 0 {
			err += el
			x += ddx
			y += ddy
		} else {
			x += pdx
			y += pdy
		}
		if ref, ok := cellRefAt(x, y); ok {
			refs = append(refs, ref)
		}
	}

	return refs
}

// cellRefAt maps a rasterized pixel to its fine/coarse cell ids. Because
// the row is (y-1)*FineDim+x rather than y*FineDim+x (see the Rasterize
// doc comment), a pixel at the south pole (y=0) or at the far edge of a
// column/row (x or y-1 at or past FineDim) would underflow or overflow the
// fine-cell id; such a pixel has no valid home in the grid and is dropped
// rather than wrapping into a bogus coarse id that would later index past
// the end of the RAM directory.
func cellRefAt(x, y int) (CellRef, bool) {
	row := y - 1
	if row < 0 || row >= FineDim || x < 0 || x >= FineDim {
		return CellRef{}, false
	}
	fi := uint32(row*FineDim + x)
	return CellRef{Fine: fi, Coarse: CoarseOfFine(fi)}, true
}
