package fixedpoint

import "github.com/cespare/xxhash/v2"

// HashBytes returns the deterministic 64-bit digest of canonical,
// already-serialized snapshot bytes. It is seeded at zero so the digest
// depends only on the bytes, never on process or host state, matching the
// architecture/version independence the snapshot hash must have.
func HashBytes(canonical []byte) uint64 {
	d := xxhash.New()
	d.Write(canonical) //nolint:errcheck // xxhash.Digest.Write never errors
	return d.Sum64()
}
