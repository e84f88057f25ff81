package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainEvent    = "nftreg/event/v1"
	DomainIdentity = "nftreg/identity/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of an event from its payload,
// sequence number and transaction ID. The ID field of ev is ignored.
func EventID(ev Event) (string, error) {
	obj := ev.Payload()
	obj["seq"] = ev.Seq
	obj["tx_id"] = ev.TxID

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEvent, canonical), nil
}

// MustEventID is like EventID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEventID(ev Event) string {
	id, err := EventID(ev)
	if err != nil {
		panic(err)
	}
	return id
}
