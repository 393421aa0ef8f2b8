package app

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeSecret(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}

	cases := map[string]string{
		"hex":        hex.EncodeToString(raw),
		"base64":     base64.StdEncoding.EncodeToString(raw),
		"raw base64": base64.RawStdEncoding.EncodeToString(raw),
	}
	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			decoded, err := DecodeSecret("auth.device_secret", encoded, 16)
			require.NoError(t, err)
			require.Equal(t, raw, decoded)
		})
	}
}

func TestDecodeSecretPassphrase(t *testing.T) {
	decoded, err := DecodeSecret("auth.device_secret", "not*base64!", 1)
	require.NoError(t, err)
	require.Equal(t, []byte("not*base64!"), decoded)
}

func TestDecodeSecretRejectsShortOrEmpty(t *testing.T) {
	_, err := DecodeSecret("auth.device_salt", "   ", 1)
	require.EqualError(t, err, "auth.device_salt is empty")

	_, err = DecodeSecret("auth.device_salt", "00ff", 16)
	require.EqualError(t, err, "auth.device_salt: expected at least 16 bytes, got 2")
}
