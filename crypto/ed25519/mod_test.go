package ed25519

import (
	"strings"
	"testing"

	"github.com/parleychat/parley/internal/testing/fake"
	"github.com/stretchr/testify/require"
)

func TestSigner_SignAndVerify(t *testing.T) {
	signer := NewSigner()

	sig, err := signer.Sign([]byte("deadbeef"))
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("deadbeef"), sig)
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("someone else"), sig)
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "schnorr verify failed: "))
}

func TestSigner_MarshalRoundtrip(t *testing.T) {
	signer := NewSigner()

	data, err := signer.MarshalPrivateKey()
	require.NoError(t, err)

	restored, err := NewSignerFromBytes(data)
	require.NoError(t, err)
	require.True(t, restored.GetPublicKey().Equal(signer.GetPublicKey()))

	sig, err := restored.Sign([]byte("deadbeef"))
	require.NoError(t, err)

	err = signer.GetPublicKey().Verify([]byte("deadbeef"), sig)
	require.NoError(t, err)

	_, err = NewSignerFromBytes([]byte("too short"))
	require.Error(t, err)
}

func TestPublicKey_Marshal(t *testing.T) {
	pk := NewSigner().GetPublicKey().(PublicKey)

	data, err := pk.MarshalBinary()
	require.NoError(t, err)

	restored, err := NewPublicKey(data)
	require.NoError(t, err)
	require.True(t, restored.Equal(pk))
	require.False(t, restored.Equal(fake.PublicKey{}))

	text, err := pk.MarshalText()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(text), "schnorr:"))

	require.Len(t, pk.String(), 8+16)

	_, err = NewPublicKey([]byte("not a point"))
	require.Error(t, err)
}

func TestPublicKey_Verify_BadSignatureType(t *testing.T) {
	pk := NewSigner().GetPublicKey()

	err := pk.Verify([]byte("deadbeef"), fake.Signature{})
	require.EqualError(t, err, "invalid signature type 'fake.Signature'")
}

func TestSignature_Equal(t *testing.T) {
	sig := NewSignature([]byte{1, 2, 3})

	require.True(t, sig.Equal(NewSignature([]byte{1, 2, 3})))
	require.False(t, sig.Equal(NewSignature([]byte{3, 2, 1})))
	require.False(t, sig.Equal(fake.Signature{}))
}
