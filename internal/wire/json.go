package wire

import (
	"encoding/json"
	"fmt"
)

// EncodeSnapshotJSON renders snap as JSON for tooling and human
// inspection. The binary encoding in codec.go remains authoritative for
// hashing and wire transport.
func EncodeSnapshotJSON(snap *WorldSnapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("wire: encode snapshot json: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON parses the JSON form produced by EncodeSnapshotJSON.
func DecodeSnapshotJSON(data []byte) (*WorldSnapshot, error) {
	var snap WorldSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("wire: decode snapshot json: %w", err)
	}
	return &snap, nil
}

// EncodeDeltaJSON renders d as JSON.
func EncodeDeltaJSON(d *WorldDelta) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("wire: encode delta json: %w", err)
	}
	return data, nil
}

// DecodeDeltaJSON parses the JSON form produced by EncodeDeltaJSON.
func DecodeDeltaJSON(data []byte) (*WorldDelta, error) {
	var d WorldDelta
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("wire: decode delta json: %w", err)
	}
	return &d, nil
}
