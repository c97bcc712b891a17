// Package identity defines the cryptographic principals that own stakes,
// initialize pools and authorize asset movements.
//
// An Identity is a 32-byte public key rendered in base58. Identities that
// belong to the ledger itself (a pool's signing authority, its vault, the
// address of a stake record) are derived deterministically from seeds with
// Derive, so the same inputs always resolve to the same address.
package identity

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"lukechampine.com/blake3"
)

// Size is the byte length of an Identity.
const Size = 32

// derivationDomain separates derived addresses from real public keys.
const derivationDomain = "stakeledger/derive/v1"

// Identity is a 32-byte public key.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type Identity [Size]byte

// Nil is the zero-value Identity. It never authorizes anything.
var Nil Identity

// FromBytes copies b into an Identity. b must be exactly Size bytes.
func FromBytes(b []byte) (Identity, error) {
	if len(b) != Size {
		return Nil, fmt.Errorf("identity: expected %d bytes, got %d", Size, len(b))
	}

	var i Identity
	copy(i[:], b)

	return i, nil
}

// Parse decodes a base58 string into an Identity.
func Parse(s string) (Identity, error) {
	if s == "" {
		return Nil, fmt.Errorf("identity: parse %q: empty string", s)
	}

	raw := base58.Decode(s)
	if len(raw) == 0 {
		return Nil, fmt.Errorf("identity: parse %q: invalid base58", s)
	}

	i, err := FromBytes(raw)
	if err != nil {
		return Nil, fmt.Errorf("identity: parse %q: %w", s, err)
	}

	return i, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded values.
func MustParse(s string) Identity {
	i, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return i
}

// Derive returns the deterministic address for the given seeds. Seeds are
// length-prefixed before hashing so ("ab","c") and ("a","bc") differ.
func Derive(seeds ...[]byte) Identity {
	h := blake3.New(Size, nil)
	_, _ = h.Write([]byte(derivationDomain))

	var prefix [4]byte
	for _, seed := range seeds {
		binary.BigEndian.PutUint32(prefix[:], uint32(len(seed))) //nolint:gosec // seeds are short
		_, _ = h.Write(prefix[:])
		_, _ = h.Write(seed)
	}

	var i Identity
	copy(i[:], h.Sum(nil))

	return i
}

// String returns the base58 form. Returns an empty string for Nil.
func (i Identity) String() string {
	if i.IsNil() {
		return ""
	}

	return base58.Encode(i[:])
}

// Bytes returns a copy of the raw key bytes.
func (i Identity) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, i[:])

	return b
}

// IsNil reports whether this is the zero Identity.
func (i Identity) IsNil() bool {
	return i == Nil
}

// Equal reports whether two identities are the same key.
func (i Identity) Equal(other Identity) bool {
	return i == other
}

// MarshalText implements encoding.TextMarshaler.
func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Identity) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer. Nil is stored as NULL.
func (i Identity) Value() (driver.Value, error) {
	if i.IsNil() {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.String(), nil
}

// Scan implements sql.Scanner.
func (i *Identity) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil

		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("identity: cannot scan %T into Identity", src)
	}
}
