package index

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/richardxiang/nngrid/geo"
)

// edgeRecordSize is the fixed on-disk size of one edge record:
// start_id(4) | target_id(4) | start_lat(4) | start_lon(4) | target_lat(4) | target_lon(4).
const edgeRecordSize = 24

type edgeRecord struct {
	StartID   uint32
	TargetID  uint32
	StartLat  int32
	StartLon  int32
	TargetLat int32
	TargetLon int32
}

func recordFromEdge(e geo.Edge) edgeRecord {
	return edgeRecord{
		StartID:   uint32(e.StartID),
		TargetID:  uint32(e.TargetID),
		StartLat:  e.StartCoord.Lat,
		StartLon:  e.StartCoord.Lon,
		TargetLat: e.TargetCoord.Lat,
		TargetLon: e.TargetCoord.Lon,
	}
}

func (r edgeRecord) toEdge() geo.Edge {
	return geo.Edge{
		StartID:     geo.NodeID(r.StartID),
		TargetID:    geo.NodeID(r.TargetID),
		StartCoord:  geo.Coordinate{Lat: r.StartLat, Lon: r.StartLon},
		TargetCoord: geo.Coordinate{Lat: r.TargetLat, Lon: r.TargetLon},
	}
}

func (r edgeRecord) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], r.StartID)
	binary.LittleEndian.PutUint32(buf[4:], r.TargetID)
	binary.LittleEndian.PutUint32(buf[8:], uint32(r.StartLat))
	binary.LittleEndian.PutUint32(buf[12:], uint32(r.StartLon))
	binary.LittleEndian.PutUint32(buf[16:], uint32(r.TargetLat))
	binary.LittleEndian.PutUint32(buf[20:], uint32(r.TargetLon))
}

func decodeEdgeRecord(buf []byte) (edgeRecord, error) {
	if len(buf) < edgeRecordSize {
		return edgeRecord{}, errors.Wrapf(ErrCorrupt, "edge record needs %d bytes, got %d", edgeRecordSize, len(buf))
	}
	return edgeRecord{
		StartID:   binary.LittleEndian.Uint32(buf[0:]),
		TargetID:  binary.LittleEndian.Uint32(buf[4:]),
		StartLat:  int32(binary.LittleEndian.Uint32(buf[8:])),
		StartLon:  int32(binary.LittleEndian.Uint32(buf[12:])),
		TargetLat: int32(binary.LittleEndian.Uint32(buf[16:])),
		TargetLon: int32(binary.LittleEndian.Uint32(buf[20:])),
	}, nil
}

// less gives edgeRecord a total order so equal (Coarse, Fine) groups sort
// their member records deterministically, which in turn makes exact
// duplicates land adjacent for dedup.
func (r edgeRecord) less(other edgeRecord) bool {
	if r.StartID != other.StartID {
		return r.StartID < other.StartID
	}
	if r.TargetID != other.TargetID {
		return r.TargetID < other.TargetID
	}
	if r.StartLat != other.StartLat {
		return r.StartLat < other.StartLat
	}
	if r.StartLon != other.StartLon {
		return r.StartLon < other.StartLon
	}
	if r.TargetLat != other.TargetLat {
		return r.TargetLat < other.TargetLat
	}
	return r.TargetLon < other.TargetLon
}
