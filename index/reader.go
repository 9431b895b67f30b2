package index

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/richardxiang/nngrid/geo"
	"github.com/richardxiang/nngrid/grid"
)

const ramDirectorySize = 4 * grid.DirectoryEntries

// Reader opens a built index read-only. It is effectively immutable
// after Open and safe for concurrent queries: the directory is a
// read-only shared slice, and bucket reads use pread (os.File.ReadAt)
// so callers never share a seek cursor.
type Reader struct {
	directory []uint32
	bucket    *os.File
}

// Open loads the 4 MiB RAM directory into memory and opens the bucket
// file for random-access reads. This is the Built -> Open transition;
// there is no way back.
func Open(ramPath, bucketPath string) (*Reader, error) {
	ramBytes, err := os.ReadFile(ramPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading ram directory file %s", ramPath)
	}
	if len(ramBytes) != ramDirectorySize {
		return nil, errors.Wrapf(ErrCorrupt, "ram directory file %s is %d bytes, want %d", ramPath, len(ramBytes), ramDirectorySize)
	}

	directory := make([]uint32, grid.DirectoryEntries)
	for i := range directory {
		directory[i] = binary.LittleEndian.Uint32(ramBytes[i*4:])
	}

	bucket, err := os.Open(bucketPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening bucket file %s", bucketPath)
	}

	return &Reader{directory: directory, bucket: bucket}, nil
}

// Close releases the bucket file handle.
func (r *Reader) Close() error {
	return r.bucket.Close()
}

// readFineCell returns every edge recorded in the slab for fine cell fi,
// or nil if the cell (or its owning coarse cell) is empty.
func (r *Reader) readFineCell(fi uint32) ([]geo.Edge, error) {
	ci := grid.CoarseOfFine(fi)
	if ci >= uint32(len(r.directory)) {
		return nil, errors.Wrapf(ErrCorrupt, "fine cell %d maps to out-of-range coarse cell %d", fi, ci)
	}

	base := r.directory[ci]
	if base == grid.NoEntry {
		return nil, nil
	}

	local := grid.LocalIndex(fi)

	localDirBuf := make([]byte, grid.CellsPerSide*grid.CellsPerSide*4)
	if _, err := r.bucket.ReadAt(localDirBuf, int64(base)); err != nil {
		if err == io.EOF {
			return nil, errors.Wrapf(ErrCorrupt, "inner directory for coarse cell %d at offset %d runs past the end of the file", ci, base)
		}
		return nil, errors.Wrapf(err, "reading inner directory for coarse cell %d at offset %d", ci, base)
	}

	slabOffset := binary.LittleEndian.Uint32(localDirBuf[local*4:])
	if slabOffset == grid.NoEntry {
		return nil, nil
	}

	return r.readSlab(int64(slabOffset))
}

func (r *Reader) readSlab(offset int64) ([]geo.Edge, error) {
	var edges []geo.Edge
	buf := make([]byte, edgeRecordSize)
	pos := offset

	for {
		// The terminator is only 4 bytes wide, so the read that reaches it
		// can come back short when the slab ends at the end of the file.
		n, err := r.bucket.ReadAt(buf, pos)
		if n >= 4 && binary.LittleEndian.Uint32(buf[0:4]) == grid.NoEntry {
			break
		}
		if err != nil {
			if err == io.EOF {
				return nil, errors.Wrapf(ErrCorrupt, "slab starting at %d truncates without a terminator", offset)
			}
			return nil, errors.Wrapf(err, "reading slab at offset %d", pos)
		}

		rec, err := decodeEdgeRecord(buf)
		if err != nil {
			return nil, err
		}
		edges = append(edges, rec.toEdge())
		pos += edgeRecordSize
	}

	return edges, nil
}
