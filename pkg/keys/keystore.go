package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/nspcc-dev/coinops/pkg/ledger"
)

// ErrNoKey is returned when there is no key for the address in the
// keystore.
var ErrNoKey = errors.New("no key for the address")

// Keystore is a set of keys stored in a file as JSON array of base64
// encoded flag-prefixed secrets.
type Keystore struct {
	Keys []*PrivateKey
}

// NewKeystoreFromFile reads the keystore file.
func NewKeystoreFromFile(path string) (*Keystore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ks, err := DecodeKeystore(data)
	if err != nil {
		return nil, fmt.Errorf("keystore %s: %w", path, err)
	}
	return ks, nil
}

// DecodeKeystore decodes the keystore file contents.
func DecodeKeystore(data []byte) (*Keystore, error) {
	var encoded []string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, err
	}
	ks := &Keystore{Keys: make([]*PrivateKey, 0, len(encoded))}
	for i, s := range encoded {
		k, err := NewPrivateKeyFromBase64(s)
		if err != nil {
			return nil, fmt.Errorf("key #%d: %w", i, err)
		}
		ks.Keys = append(ks.Keys, k)
	}
	return ks, nil
}

// MarshalJSON implements the json.Marshaler interface.
func (ks *Keystore) MarshalJSON() ([]byte, error) {
	encoded := make([]string, len(ks.Keys))
	for i, k := range ks.Keys {
		encoded[i] = k.Base64()
	}
	return json.Marshal(encoded)
}

// Save writes the keystore to the file.
func (ks *Keystore) Save(path string) error {
	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Get returns the key for the address. The first key is returned for zero
// address.
func (ks *Keystore) Get(addr ledger.ID) (*PrivateKey, error) {
	if addr.IsZero() {
		if len(ks.Keys) == 0 {
			return nil, errors.New("empty keystore")
		}
		return ks.Keys[0], nil
	}
	for _, k := range ks.Keys {
		if k.Address() == addr {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w %s", ErrNoKey, addr)
}
