/*
Package keys implements account keys, transaction signing and keystore
files.

Keys are stored as base64 of a scheme flag byte followed by the 32-byte
secret. Transactions are signed over blake2b-256 of the intent-prefixed
transaction bytes.
*/
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/nspcc-dev/coinops/pkg/ledger"
	"golang.org/x/crypto/blake2b"
)

// Scheme is a signature scheme flag.
type Scheme byte

// Supported signature schemes.
const (
	ED25519   Scheme = 0x00
	Secp256k1 Scheme = 0x01
)

// SecretSize is the size of private key secret in bytes.
const SecretSize = 32

// transactionIntent is the intent prefix of transaction data signatures.
var transactionIntent = []byte{0, 0, 0}

// String implements the fmt.Stringer interface.
func (s Scheme) String() string {
	switch s {
	case ED25519:
		return "ed25519"
	case Secp256k1:
		return "secp256k1"
	default:
		return fmt.Sprintf("unknown(%d)", byte(s))
	}
}

// PrivateKey is an account private key of one of supported schemes.
type PrivateKey struct {
	scheme Scheme
	ed     ed25519.PrivateKey
	k1     *secp256k1.PrivateKey
}

// NewPrivateKey creates a new random private key.
func NewPrivateKey(scheme Scheme) (*PrivateKey, error) {
	switch scheme {
	case ED25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return &PrivateKey{scheme: scheme, ed: priv}, nil
	case Secp256k1:
		priv, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		return &PrivateKey{scheme: scheme, k1: priv}, nil
	default:
		return nil, fmt.Errorf("unsupported scheme %s", scheme)
	}
}

// NewPrivateKeyFromBytes creates a private key from its secret.
func NewPrivateKeyFromBytes(scheme Scheme, b []byte) (*PrivateKey, error) {
	if len(b) != SecretSize {
		return nil, fmt.Errorf("invalid byte length: expected %d bytes got %d", SecretSize, len(b))
	}
	switch scheme {
	case ED25519:
		return &PrivateKey{scheme: scheme, ed: ed25519.NewKeyFromSeed(b)}, nil
	case Secp256k1:
		var s secp256k1.ModNScalar
		if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
			return nil, errors.New("invalid secp256k1 secret")
		}
		return &PrivateKey{scheme: scheme, k1: secp256k1.NewPrivateKey(&s)}, nil
	default:
		return nil, fmt.Errorf("unsupported scheme %s", scheme)
	}
}

// NewPrivateKeyFromBase64 decodes a flag-prefixed key as it's stored in
// keystores.
func NewPrivateKeyFromBase64(s string) (*PrivateKey, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != SecretSize+1 {
		return nil, fmt.Errorf("invalid byte length: expected %d bytes got %d", SecretSize+1, len(b))
	}
	return NewPrivateKeyFromBytes(Scheme(b[0]), b[1:])
}

// Scheme returns key signature scheme.
func (p *PrivateKey) Scheme() Scheme {
	return p.scheme
}

// Bytes returns the key secret.
func (p *PrivateKey) Bytes() []byte {
	if p.scheme == ED25519 {
		return p.ed.Seed()
	}
	return p.k1.Serialize()
}

// Base64 returns flag-prefixed key encoding.
func (p *PrivateKey) Base64() string {
	return base64.StdEncoding.EncodeToString(append([]byte{byte(p.scheme)}, p.Bytes()...))
}

// PublicKey returns serialized public key (compressed for secp256k1).
func (p *PrivateKey) PublicKey() []byte {
	if p.scheme == ED25519 {
		return []byte(p.ed.Public().(ed25519.PublicKey))
	}
	return p.k1.PubKey().SerializeCompressed()
}

// Address returns the account address for the key.
func (p *PrivateKey) Address() ledger.ID {
	return AddressOf(p.scheme, p.PublicKey())
}

// AddressOf returns the account address for the public key.
func AddressOf(scheme Scheme, pub []byte) ledger.ID {
	return blake2b.Sum256(append([]byte{byte(scheme)}, pub...))
}

// TransactionDigest returns the digest signed for a transaction.
func TransactionDigest(tx []byte) [32]byte {
	return blake2b.Sum256(append(append([]byte{}, transactionIntent...), tx...))
}

// Sign signs the digest returning raw signature.
func (p *PrivateKey) Sign(digest []byte) []byte {
	if p.scheme == ED25519 {
		return ed25519.Sign(p.ed, digest)
	}
	h := sha256.Sum256(digest)
	// Compact signature is prefixed with recovery code.
	return ecdsa.SignCompact(p.k1, h[:], true)[1:]
}

// SignTransaction implements the ledger.Signer interface, signature is the
// base64 of scheme flag, raw signature and public key.
func (p *PrivateKey) SignTransaction(tx []byte) (string, error) {
	d := TransactionDigest(tx)
	var buf = []byte{byte(p.scheme)}
	buf = append(buf, p.Sign(d[:])...)
	buf = append(buf, p.PublicKey()...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// VerifyTransaction checks a serialized transaction signature and returns
// the signer address.
func VerifyTransaction(tx []byte, signature string) (ledger.ID, error) {
	b, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ledger.ID{}, err
	}
	if len(b) == 0 {
		return ledger.ID{}, errors.New("empty signature")
	}
	var (
		scheme = Scheme(b[0])
		d      = TransactionDigest(tx)
		ok     bool
	)
	b = b[1:]
	switch scheme {
	case ED25519:
		if len(b) != ed25519.SignatureSize+ed25519.PublicKeySize {
			return ledger.ID{}, errors.New("bad ed25519 signature length")
		}
		ok = ed25519.Verify(b[ed25519.SignatureSize:], d[:], b[:ed25519.SignatureSize])
		b = b[ed25519.SignatureSize:]
	case Secp256k1:
		if len(b) != 64+secp256k1.PubKeyBytesLenCompressed {
			return ledger.ID{}, errors.New("bad secp256k1 signature length")
		}
		pub, err := secp256k1.ParsePubKey(b[64:])
		if err != nil {
			return ledger.ID{}, err
		}
		var r, s secp256k1.ModNScalar
		r.SetByteSlice(b[:32])
		s.SetByteSlice(b[32:64])
		h := sha256.Sum256(d[:])
		ok = ecdsa.NewSignature(&r, &s).Verify(h[:], pub)
		b = b[64:]
	default:
		return ledger.ID{}, fmt.Errorf("unsupported scheme %s", scheme)
	}
	if !ok {
		return ledger.ID{}, errors.New("invalid signature")
	}
	return AddressOf(scheme, b), nil
}
