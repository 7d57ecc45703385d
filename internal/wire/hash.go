package wire

import "holdfast/internal/fixedpoint"

// FinalizeHash computes the deterministic hash of snap over its
// zeroed-header canonical encoding and writes it into snap.Header.Hash.
func FinalizeHash(snap *WorldSnapshot) {
	canonical := EncodeSnapshot(snap, true)
	snap.Header.Hash = fixedpoint.HashBytes(canonical)
}
