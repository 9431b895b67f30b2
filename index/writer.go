package index

import (
	"bufio"
	"encoding/binary"
	"os"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"github.com/richardxiang/nngrid/geo"
	"github.com/richardxiang/nngrid/grid"
)

type writerState int

const (
	writerBuilding writerState = iota
	writerBuilt
)

// Writer ingests edges and compiles them, once, into the two-level
// bucket file + RAM directory pair a Reader opens. It is not safe for
// concurrent use: AddEdge must be called from a single goroutine, and
// Build is a one-shot terminal operation per the Building -> Built state
// machine.
type Writer struct {
	state  writerState
	sorter *externalSorter
}

// NewWriter starts a fresh build. The caller must eventually call either
// Build (success) or Close (abandon), both of which clean up the
// external sorter's temp files.
func NewWriter() (*Writer, error) {
	sorter, err := newExternalSorter()
	if err != nil {
		return nil, err
	}
	return &Writer{state: writerBuilding, sorter: sorter}, nil
}

// Close releases the writer's temp files without producing an index.
// Safe to call after a successful Build too (it is then a no-op on an
// already-removed directory).
func (w *Writer) Close() error {
	return w.sorter.Close()
}

// AddEdge rasterizes the edge into its covering fine cells and appends
// one entry per cell to the external sort buffer. An endpoint outside the
// legal lat/lon range fails with geo.ErrInvalidCoordinate and adds
// nothing. Duplicate adds of the same edge are fine — they are
// deduplicated during Build.
func (w *Writer) AddEdge(e geo.Edge) error {
	if w.state != writerBuilding {
		return errors.WithStack(ErrAlreadyBuilt)
	}
	for _, c := range []geo.Coordinate{e.StartCoord, e.TargetCoord} {
		if _, err := geo.NewCoordinate(c.Lat, c.Lon); err != nil {
			return err
		}
	}

	rec := recordFromEdge(e)
	for _, ref := range grid.Rasterize(e.StartCoord, e.TargetCoord) {
		if err := w.sorter.Add(rasterEntry{Coarse: ref.Coarse, Fine: ref.Fine, Rec: rec}); err != nil {
			return err
		}
	}
	return nil
}

// Build sorts, groups and serializes every added edge into ramPath (the
// 4 MiB directory) and bucketPath (the coarse-cell blocks), then
// transitions the writer to Built. Calling Build twice fails with
// ErrAlreadyBuilt.
func (w *Writer) Build(ramPath, bucketPath string) error {
	if w.state != writerBuilding {
		return errors.WithStack(ErrAlreadyBuilt)
	}
	w.state = writerBuilt
	defer w.sorter.Close()

	sigolo.Debugf("Start building grid index: ram=%s bucket=%s", ramPath, bucketPath)

	bucketFile, err := os.Create(bucketPath)
	if err != nil {
		return errors.Wrapf(err, "creating bucket file %s", bucketPath)
	}
	defer bucketFile.Close()

	bucketWriter := newBucketWriter(bucketFile)

	directory := make([]uint32, grid.DirectoryEntries)
	for i := range directory {
		directory[i] = grid.NoEntry
	}

	it, err := w.sorter.SortedIterator()
	if err != nil {
		return err
	}

	var group []rasterEntry
	flushGroup := func() error {
		if len(group) == 0 {
			return nil
		}
		offset, err := bucketWriter.writeBlock(group)
		if err != nil {
			return err
		}
		directory[group[0].Coarse] = offset
		group = group[:0]
		return nil
	}

	for it.Next() {
		entry := it.Entry()
		if len(group) > 0 && group[0].Coarse != entry.Coarse {
			if err := flushGroup(); err != nil {
				return err
			}
		}
		group = append(group, entry)
	}
	if err := it.Err(); err != nil {
		return err
	}
	if err := flushGroup(); err != nil {
		return err
	}

	if err := bucketWriter.flush(); err != nil {
		return err
	}

	if err := writeDirectory(ramPath, directory); err != nil {
		return err
	}

	sigolo.Debugf("Finished building grid index")
	return nil
}

// bucketWriter appends coarse-cell blocks to the bucket file sequentially,
// tracking the running file offset itself rather than calling Seek/Stat,
// since blocks are always written in ascending, non-overlapping order.
type bucketWriter struct {
	w      *bufio.Writer
	offset int64
}

func newBucketWriter(f *os.File) *bucketWriter {
	return &bucketWriter{w: bufio.NewWriterSize(f, 1<<20)}
}

func (b *bucketWriter) flush() error {
	return errors.Wrap(b.w.Flush(), "flushing bucket file")
}

// writeBlock sorts, dedups and serializes one coarse cell's fine-cell
// slabs, returning the absolute file offset of the block's inner
// directory (what the caller stores in directory[coarse]).
func (b *bucketWriter) writeBlock(entries []rasterEntry) (uint32, error) {
	sortEntries(entries)
	entries = dedupAdjacent(entries)

	blockStart := b.offset
	headerSize := int64(grid.CellsPerSide * grid.CellsPerSide * 4)

	localDir := make([]uint32, grid.CellsPerSide*grid.CellsPerSide)
	for i := range localDir {
		localDir[i] = grid.NoEntry
	}

	slabCursor := blockStart + headerSize
	recordBuf := make([]byte, edgeRecordSize)
	terminator := make([]byte, 4)
	binary.LittleEndian.PutUint32(terminator, grid.NoEntry)

	var slabBytes []byte

	i := 0
	for i < len(entries) {
		fine := entries[i].Fine
		local := grid.LocalIndex(fine)
		if localDir[local] != grid.NoEntry {
			return 0, errors.Wrapf(ErrCorrupt, "fine cell %d maps to local index %d twice within one coarse block", fine, local)
		}
		localDir[local] = uint32(slabCursor + int64(len(slabBytes)))

		j := i
		for j < len(entries) && entries[j].Fine == fine {
			entries[j].Rec.encode(recordBuf)
			slabBytes = append(slabBytes, recordBuf...)
			j++
		}
		slabBytes = append(slabBytes, terminator...)
		i = j
	}

	headerBuf := make([]byte, headerSize)
	for i, off := range localDir {
		binary.LittleEndian.PutUint32(headerBuf[i*4:], off)
	}

	if _, err := b.w.Write(headerBuf); err != nil {
		return 0, errors.Wrap(err, "writing coarse block header")
	}
	if _, err := b.w.Write(slabBytes); err != nil {
		return 0, errors.Wrap(err, "writing coarse block slabs")
	}

	b.offset += headerSize + int64(len(slabBytes))

	if blockStart > int64(grid.NoEntry) {
		return 0, errors.Wrapf(ErrCorrupt, "bucket file exceeds the 32-bit offset ceiling at block starting %d", blockStart)
	}
	return uint32(blockStart), nil
}

// dedupAdjacent assumes entries is sorted by (Fine, record) within one
// coarse group and drops exact-duplicate records, matching spec §4.4's
// "sort the group by fine ascending, then deduplicate exact duplicates".
func dedupAdjacent(entries []rasterEntry) []rasterEntry {
	if len(entries) == 0 {
		return entries
	}
	out := entries[:1]
	for _, e := range entries[1:] {
		last := out[len(out)-1]
		if e.Fine == last.Fine && e.Rec == last.Rec {
			continue
		}
		out = append(out, e)
	}
	return out
}

func writeDirectory(ramPath string, directory []uint32) error {
	f, err := os.Create(ramPath)
	if err != nil {
		return errors.Wrapf(err, "creating ram directory file %s", ramPath)
	}
	defer f.Close()

	buf := make([]byte, 4*len(directory))
	for i, off := range directory {
		binary.LittleEndian.PutUint32(buf[i*4:], off)
	}

	if _, err := f.Write(buf); err != nil {
		return errors.Wrapf(err, "writing ram directory file %s", ramPath)
	}
	return nil
}
