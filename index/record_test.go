package index

import (
	"testing"

	"github.com/richardxiang/nngrid/geo"
	"github.com/richardxiang/nngrid/util"
)

func TestRecordRoundTrip(t *testing.T) {
	e := geo.NewEdge(1, 2, geo.MustCoordinate(100, 200), geo.MustCoordinate(300, 400))
	rec := recordFromEdge(e)

	buf := make([]byte, edgeRecordSize)
	rec.encode(buf)

	decoded, err := decodeEdgeRecord(buf)
	util.AssertNil(t, err)
	util.AssertEqual(t, rec, decoded)

	roundTripped := decoded.toEdge()
	util.AssertEqual(t, e, roundTripped)
}

func TestDecodeEdgeRecord_tooShort(t *testing.T) {
	_, err := decodeEdgeRecord(make([]byte, 10))
	util.AssertErrorIs(t, err, ErrCorrupt)
}

func TestEdgeRecordLess_totalOrder(t *testing.T) {
	a := edgeRecord{StartID: 1, TargetID: 2}
	b := edgeRecord{StartID: 2, TargetID: 1}

	util.AssertTrue(t, a.less(b))
	util.AssertFalse(t, b.less(a))
}
