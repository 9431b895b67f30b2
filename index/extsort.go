package index

import (
	"container/heap"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/dsnet/compress/bzip2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// rasterEntrySize is the spill-file record size: coarse(4) | fine(4) | edge record(24).
const rasterEntrySize = 4 + 4 + edgeRecordSize

// rasterEntry is one (coarse cell, fine cell, edge record) triple produced
// by rasterizing an added edge. This is the unit the build pipeline's
// external sort operates on; GridEdgeData in the original NNGrid.
type rasterEntry struct {
	Coarse uint32
	Fine   uint32
	Rec    edgeRecord
}

func (e rasterEntry) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], e.Coarse)
	binary.LittleEndian.PutUint32(buf[4:], e.Fine)
	e.Rec.encode(buf[8:])
}

func decodeRasterEntry(buf []byte) (rasterEntry, error) {
	rec, err := decodeEdgeRecord(buf[8:])
	if err != nil {
		return rasterEntry{}, err
	}
	return rasterEntry{
		Coarse: binary.LittleEndian.Uint32(buf[0:]),
		Fine:   binary.LittleEndian.Uint32(buf[4:]),
		Rec:    rec,
	}, nil
}

func rasterEntryLess(a, b rasterEntry) bool {
	if a.Coarse != b.Coarse {
		return a.Coarse < b.Coarse
	}
	if a.Fine != b.Fine {
		return a.Fine < b.Fine
	}
	return a.Rec.less(b.Rec)
}

func sortEntries(entries []rasterEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return rasterEntryLess(entries[i], entries[j])
	})
}

// defaultSpillThreshold is the number of entries buffered in memory
// before a chunk is sorted and spilled to a compressed temp file. Tuned
// low enough that even a modest machine can hold several chunks of
// in-flight runs during the merge.
const defaultSpillThreshold = 500_000

// externalSorter accumulates rasterEntry values added one at a time and
// produces them back out sorted by (Coarse, Fine), spilling to disk once
// the in-memory buffer would outgrow RAM. This is the out-of-core sort
// §9 of the spec requires in place of the reference's stxxl::vector.
type externalSorter struct {
	tmpDir     string
	threshold  int
	buffer     []rasterEntry
	spillPaths []string
}

func newExternalSorter() (*externalSorter, error) {
	tmpDir, err := os.MkdirTemp("", "nngrid-build-")
	if err != nil {
		return nil, errors.Wrap(err, "creating external sort temp directory")
	}
	return &externalSorter{tmpDir: tmpDir, threshold: defaultSpillThreshold}, nil
}

func (s *externalSorter) Add(e rasterEntry) error {
	s.buffer = append(s.buffer, e)
	if len(s.buffer) >= s.threshold {
		return s.spill()
	}
	return nil
}

// spill sorts the current buffer and writes it to a bzip2-compressed
// temp file, matching Navigatorx's graph_io.go use of dsnet/compress for
// sequential-only storage — these spill files are never randomly seeked.
func (s *externalSorter) spill() error {
	if len(s.buffer) == 0 {
		return nil
	}
	sortEntries(s.buffer)

	path := filepath.Join(s.tmpDir, fmt.Sprintf("chunk-%04d.bz2", len(s.spillPaths)))
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating spill file %s", path)
	}
	defer f.Close()

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return errors.Wrapf(err, "opening bzip2 writer for %s", path)
	}

	buf := make([]byte, rasterEntrySize)
	for _, entry := range s.buffer {
		entry.encode(buf)
		if _, err := bz.Write(buf); err != nil {
			bz.Close()
			return errors.Wrapf(err, "writing spill file %s", path)
		}
	}
	if err := bz.Close(); err != nil {
		return errors.Wrapf(err, "closing bzip2 writer for %s", path)
	}

	s.spillPaths = append(s.spillPaths, path)
	s.buffer = s.buffer[:0]
	return nil
}

// Close removes the temp directory holding any spill files. Safe to call
// after SortedIterator has been fully drained, or on a build failure.
func (s *externalSorter) Close() error {
	return os.RemoveAll(s.tmpDir)
}

// sortedIterator yields rasterEntry values in ascending (Coarse, Fine)
// order.
type sortedIterator interface {
	Next() bool
	Entry() rasterEntry
	Err() error
}

// SortedIterator returns every added entry in sorted order. If nothing
// was ever spilled, the in-memory buffer is sorted directly; otherwise
// the final partial chunk is spilled and all runs are merged.
func (s *externalSorter) SortedIterator() (sortedIterator, error) {
	if len(s.spillPaths) == 0 {
		sortEntries(s.buffer)
		return &sliceIterator{entries: s.buffer, idx: -1}, nil
	}

	if err := s.spill(); err != nil {
		return nil, err
	}

	runs := make([]run, len(s.spillPaths))
	g, _ := errgroup.WithContext(context.Background())
	for i, path := range s.spillPaths {
		i, path := i, path
		g.Go(func() error {
			r, err := openFileRun(path)
			if err != nil {
				return err
			}
			runs[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return newMergeIterator(runs), nil
}

type sliceIterator struct {
	entries []rasterEntry
	idx     int
}

func (s *sliceIterator) Next() bool {
	s.idx++
	return s.idx < len(s.entries)
}

func (s *sliceIterator) Entry() rasterEntry { return s.entries[s.idx] }
func (s *sliceIterator) Err() error         { return nil }

// run is one sorted source feeding the k-way merge. Every run is a
// spilled, bzip2-compressed file: SortedIterator spills the in-memory
// tail chunk before merging.
type run interface {
	peek() (rasterEntry, bool)
	advance() error
	close() error
}

type fileRun struct {
	file       *os.File
	bz         *bzip2.Reader
	buf        []byte
	current    rasterEntry
	hasCurrent bool
}

func openFileRun(path string) (*fileRun, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening spill file %s", path)
	}
	bz, err := bzip2.NewReader(f, nil)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "opening bzip2 reader for %s", path)
	}
	r := &fileRun{file: f, bz: bz, buf: make([]byte, rasterEntrySize)}
	if err := r.fill(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *fileRun) fill() error {
	_, err := io.ReadFull(r.bz, r.buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		r.hasCurrent = false
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "reading spill file")
	}
	entry, err := decodeRasterEntry(r.buf)
	if err != nil {
		return err
	}
	r.current = entry
	r.hasCurrent = true
	return nil
}

func (r *fileRun) peek() (rasterEntry, bool) { return r.current, r.hasCurrent }
func (r *fileRun) advance() error            { return r.fill() }
func (r *fileRun) close() error              { return r.file.Close() }

type runHeap []run

func (h runHeap) Len() int { return len(h) }
func (h runHeap) Less(i, j int) bool {
	a, _ := h[i].peek()
	b, _ := h[j].peek()
	return rasterEntryLess(a, b)
}
func (h runHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *runHeap) Push(x any)   { *h = append(*h, x.(run)) }
func (h *runHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeIterator performs a k-way merge of sorted runs using a binary
// heap keyed on the same (Coarse, Fine, record) order as the in-memory
// sort, matching the external-sort contract from spec §9.
type mergeIterator struct {
	heap    runHeap
	current rasterEntry
	err     error
}

func newMergeIterator(runs []run) *mergeIterator {
	h := make(runHeap, 0, len(runs))
	for _, r := range runs {
		if _, ok := r.peek(); ok {
			h = append(h, r)
		}
	}
	heap.Init(&h)
	return &mergeIterator{heap: h}
}

func (m *mergeIterator) Next() bool {
	if m.err != nil || len(m.heap) == 0 {
		return false
	}

	top := m.heap[0]
	entry, _ := top.peek()
	m.current = entry

	if err := top.advance(); err != nil {
		m.err = err
		return false
	}

	if _, ok := top.peek(); ok {
		heap.Fix(&m.heap, 0)
	} else {
		heap.Pop(&m.heap)
		if err := top.close(); err != nil {
			m.err = err
			return false
		}
	}

	return true
}

func (m *mergeIterator) Entry() rasterEntry { return m.current }
func (m *mergeIterator) Err() error         { return m.err }
