package keys

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestPrivateKeySign(t *testing.T) {
	for _, scheme := range []Scheme{ED25519, Secp256k1} {
		t.Run(scheme.String(), func(t *testing.T) {
			p, err := NewPrivateKey(scheme)
			require.NoError(t, err)
			require.Equal(t, scheme, p.Scheme())

			tx := []byte("transaction bytes")
			sig, err := p.SignTransaction(tx)
			require.NoError(t, err)

			raw, err := base64.StdEncoding.DecodeString(sig)
			require.NoError(t, err)
			require.Equal(t, byte(scheme), raw[0])
			require.True(t, bytes.HasSuffix(raw, p.PublicKey()))
			require.Equal(t, 1+64+len(p.PublicKey()), len(raw))

			addr, err := VerifyTransaction(tx, sig)
			require.NoError(t, err)
			require.Equal(t, p.Address(), addr)

			_, err = VerifyTransaction([]byte("other bytes"), sig)
			require.Error(t, err)
		})
	}
}

func TestPrivateKeyEncoding(t *testing.T) {
	secret := bytes.Repeat([]byte{7}, SecretSize)
	for _, scheme := range []Scheme{ED25519, Secp256k1} {
		t.Run(scheme.String(), func(t *testing.T) {
			p, err := NewPrivateKeyFromBytes(scheme, secret)
			require.NoError(t, err)
			require.Equal(t, secret, p.Bytes())

			dec, err := NewPrivateKeyFromBase64(p.Base64())
			require.NoError(t, err)
			require.Equal(t, p.Address(), dec.Address())

			expected := blake2b.Sum256(append([]byte{byte(scheme)}, p.PublicKey()...))
			addr := p.Address()
			require.Equal(t, expected[:], addr[:])
		})
	}
	t.Run("bad", func(t *testing.T) {
		_, err := NewPrivateKeyFromBytes(ED25519, secret[1:])
		require.Error(t, err)
		_, err = NewPrivateKeyFromBytes(Scheme(5), secret)
		require.Error(t, err)
		_, err = NewPrivateKeyFromBytes(Secp256k1, make([]byte, SecretSize))
		require.Error(t, err)
		_, err = NewPrivateKeyFromBase64("not base64")
		require.Error(t, err)
		_, err = NewPrivateKeyFromBase64(base64.StdEncoding.EncodeToString(secret))
		require.Error(t, err)
	})
}

func TestPublicKeySize(t *testing.T) {
	p, err := NewPrivateKey(ED25519)
	require.NoError(t, err)
	require.Equal(t, 32, len(p.PublicKey()))

	p, err = NewPrivateKey(Secp256k1)
	require.NoError(t, err)
	require.Equal(t, 33, len(p.PublicKey()))
}
