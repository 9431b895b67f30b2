package index

import (
	"testing"

	"github.com/richardxiang/nngrid/util"
)

func entryOf(coarse, fine uint32, startID uint32) rasterEntry {
	return rasterEntry{Coarse: coarse, Fine: fine, Rec: edgeRecord{StartID: startID}}
}

func TestExternalSorter_inMemorySort(t *testing.T) {
	s, err := newExternalSorter()
	util.AssertNil(t, err)
	defer s.Close()

	util.AssertNil(t, s.Add(entryOf(3, 0, 1)))
	util.AssertNil(t, s.Add(entryOf(1, 0, 1)))
	util.AssertNil(t, s.Add(entryOf(2, 0, 1)))

	it, err := s.SortedIterator()
	util.AssertNil(t, err)

	var coarseSeen []uint32
	for it.Next() {
		coarseSeen = append(coarseSeen, it.Entry().Coarse)
	}
	util.AssertNil(t, it.Err())

	util.AssertEqual(t, []uint32{1, 2, 3}, coarseSeen)
}

func TestExternalSorter_spillsAndMerges(t *testing.T) {
	s, err := newExternalSorter()
	util.AssertNil(t, err)
	defer s.Close()
	s.threshold = 4

	inserted := []uint32{9, 1, 7, 3, 5, 2, 8, 4, 6, 0}
	for _, c := range inserted {
		util.AssertNil(t, s.Add(entryOf(c, 0, 1)))
	}

	util.AssertTrue(t, len(s.spillPaths) > 0)

	it, err := s.SortedIterator()
	util.AssertNil(t, err)

	var coarseSeen []uint32
	for it.Next() {
		coarseSeen = append(coarseSeen, it.Entry().Coarse)
	}
	util.AssertNil(t, it.Err())

	util.AssertEqual(t, 10, len(coarseSeen))
	for i := 1; i < len(coarseSeen); i++ {
		util.AssertTrue(t, coarseSeen[i-1] <= coarseSeen[i])
	}
}

func TestDedupAdjacent(t *testing.T) {
	entries := []rasterEntry{
		entryOf(1, 5, 1),
		entryOf(1, 5, 1),
		entryOf(1, 5, 2),
		entryOf(1, 6, 1),
	}

	deduped := dedupAdjacent(entries)
	util.AssertEqual(t, 3, len(deduped))
}
