package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// IDSize is the size of addresses and object IDs in bytes.
const IDSize = 32

// ID is a 32 byte identifier used for both account addresses and object IDs.
type ID [IDSize]byte

// ParseID decodes the given hex string into an ID. The "0x" prefix is
// optional and short forms (like "0x2") are left-padded with zeroes, so that
// all spellings of the same identifier produce the same value.
func ParseID(s string) (ID, error) {
	var id ID

	h := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(h) == 0 {
		return id, fmt.Errorf("empty identifier %q", s)
	}
	if len(h) > IDSize*2 {
		return id, fmt.Errorf("identifier %q is too long: %d hex digits, at most %d allowed", s, len(h), IDSize*2)
	}
	h = strings.Repeat("0", IDSize*2-len(h)) + h
	b, err := hex.DecodeString(h)
	if err != nil {
		return id, fmt.Errorf("bad identifier %q: %w", s, err)
	}
	copy(id[:], b)
	return id, nil
}

// MustParseID is like ParseID, but panics on error. It's intended to be used
// with constants.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns canonical "0x"-prefixed full-length hex representation.
func (id ID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// IsZero checks whether ID is all zeroes.
func (id ID) IsZero() bool {
	return id == ID{}
}

// MarshalJSON implements the json.Marshaler interface.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface.
func (id ID) MarshalYAML() (any, error) {
	return id.String(), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (id *ID) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// IDSet is a set of identifiers.
type IDSet map[ID]struct{}

// NewIDSet creates a set containing the given IDs.
func NewIDSet(ids ...ID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains checks whether id is in the set.
func (s IDSet) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}
