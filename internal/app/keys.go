package app

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// DecodeSecret reads configured key material. Hex is tried first because ApplyRuntimeDefaults
// writes hex, then padded and unpadded base64. Any other text is used as a passphrase. The
// result must be at least minBytes long.
func DecodeSecret(key, value string, minBytes int) ([]byte, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, fmt.Errorf("%s is empty", key)
	}

	decoded := []byte(v)
	for _, decode := range []func(string) ([]byte, error){
		hex.DecodeString,
		base64.StdEncoding.DecodeString,
		base64.RawStdEncoding.DecodeString,
	} {
		if out, err := decode(v); err == nil {
			decoded = out
			break
		}
	}

	if len(decoded) < minBytes {
		return nil, fmt.Errorf("%s: expected at least %d bytes, got %d", key, minBytes, len(decoded))
	}
	return decoded, nil
}
