package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// MaxMessageSize bounds a single framed payload, same DoS-protection
// reasoning as the teacher's IPC protocol.
const MaxMessageSize = 8 * 1024 * 1024

// frameBufferPool reuses the byte buffers encoding writes into, avoiding
// an allocation per broadcast tick under steady load.
var frameBufferPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// WriteFrame writes a [uint32 little-endian length][payload] frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxMessageSize {
		return fmt.Errorf("wire: payload too large: %d > %d", len(payload), MaxMessageSize)
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("wire: write frame length: %w", err)
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("wire: write frame payload: %w", err)
		}
	}
	return nil
}

// ReadFrame reads one [uint32 little-endian length][payload] frame from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("wire: read frame length: %w", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxMessageSize {
		return nil, fmt.Errorf("wire: frame too large: %d > %d", n, MaxMessageSize)
	}
	if n == 0 {
		return nil, nil
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read frame payload: %w", err)
	}
	return payload, nil
}

func writeHeader(buf *bytes.Buffer, h SnapshotHeader) {
	binary.Write(buf, binary.LittleEndian, h.Tick)
	binary.Write(buf, binary.LittleEndian, h.TileCount)
	binary.Write(buf, binary.LittleEndian, h.LogisticsCount)
	binary.Write(buf, binary.LittleEndian, h.PopulationCount)
	binary.Write(buf, binary.LittleEndian, h.PowerCount)
	for _, axis := range h.AxisBias {
		binary.Write(buf, binary.LittleEndian, axis)
	}
	binary.Write(buf, binary.LittleEndian, h.Hash)
}

func readHeader(r *bytes.Reader) (SnapshotHeader, error) {
	var h SnapshotHeader
	for _, field := range []interface{}{&h.Tick, &h.TileCount, &h.LogisticsCount, &h.PopulationCount, &h.PowerCount} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return h, fmt.Errorf("wire: read header: %w", err)
		}
	}
	for i := range h.AxisBias {
		if err := binary.Read(r, binary.LittleEndian, &h.AxisBias[i]); err != nil {
			return h, fmt.Errorf("wire: read header axis bias: %w", err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Hash); err != nil {
		return h, fmt.Errorf("wire: read header: %w", err)
	}
	return h, nil
}

func writeTile(buf *bytes.Buffer, t TileState) {
	binary.Write(buf, binary.LittleEndian, t.Entity)
	binary.Write(buf, binary.LittleEndian, t.X)
	binary.Write(buf, binary.LittleEndian, t.Y)
	buf.WriteByte(t.Element)
	binary.Write(buf, binary.LittleEndian, t.Mass)
	binary.Write(buf, binary.LittleEndian, t.Temperature)
}

func readTile(r *bytes.Reader) (TileState, error) {
	var t TileState
	if err := binary.Read(r, binary.LittleEndian, &t.Entity); err != nil {
		return t, err
	}
	if err := binary.Read(r, binary.LittleEndian, &t.X); err != nil {
		return t, err
	}
	if err := binary.Read(r, binary.LittleEndian, &t.Y); err != nil {
		return t, err
	}
	elem, err := r.ReadByte()
	if err != nil {
		return t, err
	}
	t.Element = elem
	if err := binary.Read(r, binary.LittleEndian, &t.Mass); err != nil {
		return t, err
	}
	if err := binary.Read(r, binary.LittleEndian, &t.Temperature); err != nil {
		return t, err
	}
	return t, nil
}

func writeLink(buf *bytes.Buffer, l LogisticsLinkState) {
	binary.Write(buf, binary.LittleEndian, l.Entity)
	binary.Write(buf, binary.LittleEndian, l.From)
	binary.Write(buf, binary.LittleEndian, l.To)
	binary.Write(buf, binary.LittleEndian, l.Capacity)
	binary.Write(buf, binary.LittleEndian, l.Flow)
}

func readLink(r *bytes.Reader) (LogisticsLinkState, error) {
	var l LogisticsLinkState
	for _, field := range []interface{}{&l.Entity, &l.From, &l.To, &l.Capacity, &l.Flow} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return l, err
		}
	}
	return l, nil
}

func writePopulation(buf *bytes.Buffer, p PopulationCohortState) {
	binary.Write(buf, binary.LittleEndian, p.Entity)
	binary.Write(buf, binary.LittleEndian, p.Home)
	binary.Write(buf, binary.LittleEndian, p.Size)
	binary.Write(buf, binary.LittleEndian, p.Morale)
}

func readPopulation(r *bytes.Reader) (PopulationCohortState, error) {
	var p PopulationCohortState
	if err := binary.Read(r, binary.LittleEndian, &p.Entity); err != nil {
		return p, err
	}
	if err := binary.Read(r, binary.LittleEndian, &p.Home); err != nil {
		return p, err
	}
	if err := binary.Read(r, binary.LittleEndian, &p.Size); err != nil {
		return p, err
	}
	if err := binary.Read(r, binary.LittleEndian, &p.Morale); err != nil {
		return p, err
	}
	return p, nil
}

func writePower(buf *bytes.Buffer, p PowerNodeState) {
	binary.Write(buf, binary.LittleEndian, p.Entity)
	binary.Write(buf, binary.LittleEndian, p.Generation)
	binary.Write(buf, binary.LittleEndian, p.Demand)
	binary.Write(buf, binary.LittleEndian, p.Efficiency)
}

func readPower(r *bytes.Reader) (PowerNodeState, error) {
	var p PowerNodeState
	for _, field := range []interface{}{&p.Entity, &p.Generation, &p.Demand, &p.Efficiency} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return p, err
		}
	}
	return p, nil
}

// EncodeSnapshot renders snap into the fixed-width binary payload. When
// zeroHash is true, Header.Hash is written as zero regardless of the
// value on snap — used to produce the canonical bytes a hash is computed
// over.
func EncodeSnapshot(snap *WorldSnapshot, zeroHash bool) []byte {
	buf := frameBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer frameBufferPool.Put(buf)

	header := snap.Header
	if zeroHash {
		header.Hash = 0
	}
	writeHeader(buf, header)
	for _, t := range snap.Tiles {
		writeTile(buf, t)
	}
	for _, l := range snap.Logistics {
		writeLink(buf, l)
	}
	for _, p := range snap.Populations {
		writePopulation(buf, p)
	}
	for _, p := range snap.Power {
		writePower(buf, p)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

// DecodeSnapshot parses the fixed-width binary payload produced by
// EncodeSnapshot.
func DecodeSnapshot(data []byte) (*WorldSnapshot, error) {
	r := bytes.NewReader(data)
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	snap := &WorldSnapshot{Header: header}

	snap.Tiles = make([]TileState, header.TileCount)
	for i := range snap.Tiles {
		if snap.Tiles[i], err = readTile(r); err != nil {
			return nil, fmt.Errorf("wire: decode tile %d: %w", i, err)
		}
	}
	snap.Logistics = make([]LogisticsLinkState, header.LogisticsCount)
	for i := range snap.Logistics {
		if snap.Logistics[i], err = readLink(r); err != nil {
			return nil, fmt.Errorf("wire: decode link %d: %w", i, err)
		}
	}
	snap.Populations = make([]PopulationCohortState, header.PopulationCount)
	for i := range snap.Populations {
		if snap.Populations[i], err = readPopulation(r); err != nil {
			return nil, fmt.Errorf("wire: decode population %d: %w", i, err)
		}
	}
	snap.Power = make([]PowerNodeState, header.PowerCount)
	for i := range snap.Power {
		if snap.Power[i], err = readPower(r); err != nil {
			return nil, fmt.Errorf("wire: decode power %d: %w", i, err)
		}
	}
	return snap, nil
}

// EncodeDelta renders d into the fixed-width binary payload: the header,
// then each stream's upsert vector length-prefixed, then its removed-id
// vector length-prefixed.
func EncodeDelta(d *WorldDelta) []byte {
	buf := frameBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer frameBufferPool.Put(buf)

	writeHeader(buf, d.Header)

	binary.Write(buf, binary.LittleEndian, uint32(len(d.Tiles)))
	for _, t := range d.Tiles {
		writeTile(buf, t)
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(d.RemovedTiles)))
	for _, id := range d.RemovedTiles {
		binary.Write(buf, binary.LittleEndian, id)
	}

	binary.Write(buf, binary.LittleEndian, uint32(len(d.Logistics)))
	for _, l := range d.Logistics {
		writeLink(buf, l)
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(d.RemovedLogistics)))
	for _, id := range d.RemovedLogistics {
		binary.Write(buf, binary.LittleEndian, id)
	}

	binary.Write(buf, binary.LittleEndian, uint32(len(d.Populations)))
	for _, p := range d.Populations {
		writePopulation(buf, p)
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(d.RemovedPopulations)))
	for _, id := range d.RemovedPopulations {
		binary.Write(buf, binary.LittleEndian, id)
	}

	binary.Write(buf, binary.LittleEndian, uint32(len(d.Power)))
	for _, p := range d.Power {
		writePower(buf, p)
	}
	binary.Write(buf, binary.LittleEndian, uint32(len(d.RemovedPower)))
	for _, id := range d.RemovedPower {
		binary.Write(buf, binary.LittleEndian, id)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

// DecodeDelta parses the fixed-width binary payload produced by
// EncodeDelta.
func DecodeDelta(data []byte) (*WorldDelta, error) {
	r := bytes.NewReader(data)
	header, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	d := &WorldDelta{Header: header}

	d.Tiles, err = readTileVec(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode delta tiles: %w", err)
	}
	d.RemovedTiles, err = readIDVec(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode delta removed tiles: %w", err)
	}
	d.Logistics, err = readLinkVec(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode delta logistics: %w", err)
	}
	d.RemovedLogistics, err = readIDVec(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode delta removed logistics: %w", err)
	}
	d.Populations, err = readPopulationVec(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode delta populations: %w", err)
	}
	d.RemovedPopulations, err = readIDVec(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode delta removed populations: %w", err)
	}
	d.Power, err = readPowerVec(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode delta power: %w", err)
	}
	d.RemovedPower, err = readIDVec(r)
	if err != nil {
		return nil, fmt.Errorf("wire: decode delta removed power: %w", err)
	}
	return d, nil
}

func readCount(r *bytes.Reader) (uint32, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func readIDVec(r *bytes.Reader) ([]uint64, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, n)
	for i := range ids {
		if err := binary.Read(r, binary.LittleEndian, &ids[i]); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func readTileVec(r *bytes.Reader) ([]TileState, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	out := make([]TileState, n)
	for i := range out {
		if out[i], err = readTile(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readLinkVec(r *bytes.Reader) ([]LogisticsLinkState, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	out := make([]LogisticsLinkState, n)
	for i := range out {
		if out[i], err = readLink(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readPopulationVec(r *bytes.Reader) ([]PopulationCohortState, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	out := make([]PopulationCohortState, n)
	for i := range out {
		if out[i], err = readPopulation(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readPowerVec(r *bytes.Reader) ([]PowerNodeState, error) {
	n, err := readCount(r)
	if err != nil {
		return nil, err
	}
	out := make([]PowerNodeState, n)
	for i := range out {
		if out[i], err = readPower(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}
