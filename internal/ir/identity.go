package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// IdentityLength is the width of an Identity in bytes.
const IdentityLength = 20

// Identity is an opaque participant reference: owner, operator, minter or
// recipient. Identities compare with ==, so they can key maps directly.
//
// The zero value is the null identity. It denotes absence of ownership or
// approval and is never a valid owner, minter or transfer recipient.
type Identity [IdentityLength]byte

// Null is the reserved null identity.
var Null Identity

// nullWord is accepted by ParseIdentity as a spelling of Null.
const nullWord = "null"

// ParseIdentity parses the textual form of an identity: "0x" followed by 40
// hex digits (any case), or the word "null".
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	if strings.EqualFold(s, nullWord) {
		return id, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return id, fmt.Errorf("identity %q: missing 0x prefix", s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return id, fmt.Errorf("identity %q: %w", s, err)
	}
	if len(raw) != IdentityLength {
		return id, fmt.Errorf("identity %q: want %d bytes, got %d", s, IdentityLength, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

// MustParseIdentity is like ParseIdentity but panics on error.
// Use only in tests or with literal inputs.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// NamedIdentity derives a stable identity from a human-readable name.
// Scenario files and config aliases use it so that "alice" always maps to the
// same identity across runs.
func NamedIdentity(name string) Identity {
	sum := sha256.Sum256(append([]byte(DomainIdentity+"\x00"), name...))
	var id Identity
	copy(id[:], sum[:IdentityLength])
	return id
}

// IsNull reports whether id is the null identity.
func (id Identity) IsNull() bool {
	return id == Null
}

// String returns the lowercase 0x-prefixed hex form.
func (id Identity) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
