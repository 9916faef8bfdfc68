package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tipAccount = "96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"
	signature  = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
	blockhash  = "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"
)

func TestPubkeyRoundTrip(t *testing.T) {
	p, err := PubkeyFromBase58(tipAccount)
	require.NoError(t, err)
	assert.Equal(t, tipAccount, p.String())
	assert.False(t, p.IsZero())
	assert.True(t, Pubkey{}.IsZero())
}

func TestPubkeyInvalid(t *testing.T) {
	_, err := PubkeyFromBase58("3mJr7AoUXx2Wqd")
	assert.ErrorIs(t, err, ErrInvalidPubkey)

	_, err = PubkeyFromBase58("0OIl")
	assert.Error(t, err)

	assert.Panics(t, func() { MustPubkeyFromBase58("short") })
}

func TestPubkeyJSON(t *testing.T) {
	var accounts []Pubkey
	require.NoError(t, json.Unmarshal([]byte(`["`+tipAccount+`"]`), &accounts))
	require.Len(t, accounts, 1)

	out, err := json.Marshal(accounts)
	require.NoError(t, err)
	assert.JSONEq(t, `["`+tipAccount+`"]`, string(out))
}

func TestSignature(t *testing.T) {
	sig, err := SignatureFromBase58(signature)
	require.NoError(t, err)
	assert.Equal(t, signature, sig.String())

	fromBytes, err := SignatureFromBytes(sig[:])
	require.NoError(t, err)
	assert.Equal(t, sig, fromBytes)

	_, err = SignatureFromBytes(make([]byte, 32))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = SignatureFromBase58(tipAccount)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	var decoded Signature
	require.NoError(t, decoded.UnmarshalText([]byte(signature)))
	assert.Equal(t, sig, decoded)
}

func TestHash(t *testing.T) {
	h, err := HashFromBase58(blockhash)
	require.NoError(t, err)
	assert.Equal(t, blockhash, h.String())
	assert.False(t, h.IsZero())

	_, err = HashFromBase58(signature)
	assert.ErrorIs(t, err, ErrInvalidHash)
}
