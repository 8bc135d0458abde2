package predicate

import (
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint identifies one ordered combination of predicate values.
// The zero value means "no fingerprint".
type Fingerprint string

// EmptyFingerprint is the fingerprint of a chain that contributed nothing.
var EmptyFingerprint = newDigest().sum()

// Short returns the first 12 hex characters, for display.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

type digest struct {
	h hash.Hash
}

func newDigest() *digest {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	return &digest{h: h}
}

// write appends hash parts in order. Empty parts are skipped; every other
// part is terminated so ["ab"] and ["a", "b"] differ.
func (d *digest) write(parts []string) {
	for _, p := range parts {
		if p == "" {
			continue
		}
		_, _ = d.h.Write([]byte(p))
		_, _ = d.h.Write([]byte{0})
	}
}

func (d *digest) sum() Fingerprint {
	return Fingerprint(hex.EncodeToString(d.h.Sum(nil)))
}
