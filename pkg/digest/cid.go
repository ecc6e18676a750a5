// Package digest derives content identifiers for rendered descriptors.
package digest

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CID returns a CIDv1 using the "raw" multicodec and a sha2-256 multihash
// of data. Identical renders always share a CID.
func CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String is CID in its default base32 text form, or "" if hashing fails.
func String(data []byte) string {
	c, err := CID(data)
	if err != nil {
		return ""
	}
	return c.String()
}

// Verify reports whether want is the CID of data.
func Verify(data []byte, want string) bool {
	parsed, err := cid.Decode(want)
	if err != nil {
		return false
	}
	got, err := CID(data)
	if err != nil {
		return false
	}
	return parsed.Equals(got)
}

// Personal.AI order the ending
