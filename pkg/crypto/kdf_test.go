package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKeyArgon2idDeterministic(t *testing.T) {
	params := DefaultArgon2Params()
	secret := []byte("device-secret")
	salt := bytes.Repeat([]byte{0xA5}, 16)

	key1, err := DeriveKeyArgon2id(secret, salt, params)
	require.NoError(t, err)
	key2, err := DeriveKeyArgon2id(secret, salt, params)
	require.NoError(t, err)

	require.Equal(t, key1, key2)
	require.Len(t, key1, int(params.KeyLength))
}

func TestDeriveKeyArgon2idRejectsBadInput(t *testing.T) {
	params := DefaultArgon2Params()

	_, err := DeriveKeyArgon2id(nil, bytes.Repeat([]byte{1}, 16), params)
	require.Error(t, err)

	_, err = DeriveKeyArgon2id([]byte("secret"), []byte("short"), params)
	require.Error(t, err)

	params.KeyLength = 20
	_, err = DeriveKeyArgon2id([]byte("secret"), bytes.Repeat([]byte{1}, 16), params)
	require.Error(t, err)
}

func TestHashAndVerifyPIN(t *testing.T) {
	salt, hash, err := HashPIN("1234")
	require.NoError(t, err)
	require.Len(t, salt, pinSaltBytes)

	require.NoError(t, VerifyPIN("1234", salt, hash))
	require.ErrorIs(t, VerifyPIN("4321", salt, hash), ErrPINMismatch)

	otherSalt, otherHash, err := HashPIN("1234")
	require.NoError(t, err)
	require.NotEqual(t, salt, otherSalt)
	require.NotEqual(t, hash, otherHash)
}
