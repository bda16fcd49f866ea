// Package privacy derives log-safe stand-ins for personal identifiers.
package privacy

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Hasher produces stable, keyed digests of voter identifiers so logs can
// correlate a voter's attempts without recording the CPF itself.
type Hasher struct {
	key []byte
}

// NewHasher keys the digest with key. blake2b accepts keys up to 64 bytes;
// longer keys are truncated.
func NewHasher(key string) *Hasher {
	k := []byte(key)
	if len(k) > blake2b.Size {
		k = k[:blake2b.Size]
	}
	return &Hasher{key: k}
}

// Voter returns the first 16 hex chars of the keyed blake2b-256 digest.
func (h *Hasher) Voter(voterID string) string {
	if h == nil {
		return "redacted"
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		return "redacted"
	}
	mac.Write([]byte(voterID))
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

// AnonymizeIP truncates an IPv4 address to its /24 prefix for logs.
func AnonymizeIP(ip string) string {
	dots := 0
	for i := 0; i < len(ip); i++ {
		if ip[i] == '.' {
			dots++
			if dots == 3 {
				return ip[:i] + ".0"
			}
		}
	}
	return ip
}
