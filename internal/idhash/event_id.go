// Package idhash derives deterministic ids from on-chain identifiers.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeEventID computes a deterministic event id using SHA256.
// Formula: SHA256(tx_digest|event_seq)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(txDigest, eventSeq string) string {
	data := fmt.Sprintf("%s|%s", txDigest, eventSeq)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
