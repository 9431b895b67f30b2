// Package grid implements the two-level addressing scheme used by the
// on-disk nearest-edge index: a fine 32768x32768 world grid collapsed into
// a 1024x1024 coarse directory, 32x32 fine cells per coarse cell.
package grid

import (
	"github.com/richardxiang/nngrid/geo"
)

// FineDim is the side length of the fine grid: the world is partitioned
// into FineDim x FineDim cells at the finest resolution.
const FineDim = 32768

// CoarseDim is the side length of the coarse directory: FineDim/CellsPerSide.
const CoarseDim = 1024

// CellsPerSide is the number of fine cells, per axis, collapsed into a
// single coarse cell.
const CellsPerSide = FineDim / CoarseDim

// NoEntry is the sentinel written into the RAM directory (and the inner
// per-block directory) for a cell that owns no edges.
const NoEntry = 0xFFFFFFFF

// DirectoryEntries is the number of coarse slots in the RAM-resident
// directory, also the number of fine cells per coarse block's inner
// directory.
const DirectoryEntries = CoarseDim * CoarseDim

// FineOf maps a coordinate to its FineCellId (the original's fileIndex).
// x and y are normalized into [0,1] over the full lon/lat range, then
// scaled to fine-grid pixel coordinates. Ported from
// getFileIndexForLatLon: the row is computed as a 30-bit product
// (FineDim*FineDim*y) masked down to a multiple of FineDim rather than a
// plain FineDim*y, to match the original's rounding behavior exactly.
func FineOf(c geo.Coordinate) uint32 {
	x := (c.LonDegrees() + 180.0) / 360.0
	y := (c.LatDegrees() + 90.0) / 180.0

	line := uint32(float64(FineDim*FineDim) * y)
	line -= line % FineDim
	column := uint32(float64(FineDim) * x)

	return line + column
}

// CoarseOfFine maps a FineCellId to its owning CoarseCellId (the
// original's ramIndex), by collapsing CellsPerSide x CellsPerSide
// adjacent fine cells into one coarse cell. Ported from
// getRAMIndexFromFileIndex.
func CoarseOfFine(fi uint32) uint32 {
	row := fi / FineDim / CellsPerSide
	col := (fi % FineDim) / CellsPerSide
	return row*CoarseDim + col
}

// LocalIndex computes the dense arithmetic position of a fine cell within
// its coarse block's inner directory, replacing the original's hash-map
// lookup in FillCell/GetContentsOfFileBucket per the documented
// arithmetic-subset optimization: the CellsPerSide x CellsPerSide fine
// cells owned by one coarse cell form a contiguous arithmetic subset, so
// no hashing is needed.
func LocalIndex(fi uint32) uint32 {
	localRow := (fi / FineDim) % CellsPerSide
	localCol := (fi % FineDim) % CellsPerSide
	return localRow*CellsPerSide + localCol
}
