package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/richardxiang/nngrid/geo"
	"github.com/richardxiang/nngrid/grid"
	"github.com/richardxiang/nngrid/util"
)

func TestOpen_rejectsWrongSizedDirectory(t *testing.T) {
	dir, err := os.MkdirTemp("", "nngrid-test-")
	util.AssertNil(t, err)
	defer os.RemoveAll(dir)

	ramPath := filepath.Join(dir, "ram.idx")
	bucketPath := filepath.Join(dir, "file.idx")

	util.AssertNil(t, os.WriteFile(ramPath, []byte{1, 2, 3}, 0o644))
	util.AssertNil(t, os.WriteFile(bucketPath, nil, 0o644))

	_, err = Open(ramPath, bucketPath)
	util.AssertErrorIs(t, err, ErrCorrupt)
}

func TestReader_emptyIndexHasNoFineCells(t *testing.T) {
	ramPath, bucketPath := buildTempIndex(t, nil)

	reader, err := Open(ramPath, bucketPath)
	util.AssertNil(t, err)
	defer reader.Close()

	edges, err := reader.readFineCell(0)
	util.AssertNil(t, err)
	util.AssertEqual(t, 0, len(edges))
}

func TestReader_readFineCell_singleEdge(t *testing.T) {
	start := geo.MustCoordinate(0, 0)
	target := geo.MustCoordinate(0, 1000)
	edge := geo.NewEdge(1, 2, start, target)

	ramPath, bucketPath := buildTempIndex(t, []geo.Edge{edge})

	reader, err := Open(ramPath, bucketPath)
	util.AssertNil(t, err)
	defer reader.Close()

	refs := grid.Rasterize(start, target)
	edges, err := reader.readFineCell(refs[0].Fine)
	util.AssertNil(t, err)
	util.AssertEqual(t, 1, len(edges))
	util.AssertEqual(t, edge, edges[0])
}
