package crypto

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	minSaltBytes = 16
	pinSaltBytes = 16
)

// ErrPINMismatch is returned by VerifyPIN when the PIN does not match the stored hash.
var ErrPINMismatch = errors.New("crypto: pin does not match")

// Argon2Parameters are the Argon2id cost factors. Memory is in KiB; KeyLength in bytes.
type Argon2Parameters struct {
	Time      uint32
	Memory    uint32
	Threads   uint8
	KeyLength uint32
}

// DefaultArgon2Params is tuned for handheld devices: one pass over 32 MiB.
func DefaultArgon2Params() Argon2Parameters {
	return Argon2Parameters{Time: 1, Memory: 32 * 1024, Threads: 2, KeyLength: 32}
}

// Validate rejects parameter sets argon2 cannot run with or that yield an unusable AES key.
func (p Argon2Parameters) Validate() error {
	switch {
	case p.Time == 0:
		return errors.New("argon2: time cost must be greater than zero")
	case p.Threads == 0:
		return errors.New("argon2: parallelism must be greater than zero")
	case p.Memory < 8*uint32(p.Threads):
		return errors.New("argon2: memory cost must be at least 8 * threads")
	}
	if p.KeyLength != 16 && p.KeyLength != 24 && p.KeyLength != 32 {
		return fmt.Errorf("argon2: key length must be 16, 24, or 32 bytes (got %d)", p.KeyLength)
	}
	return nil
}

// DeriveKeyArgon2id stretches secret into a key of params.KeyLength bytes.
func DeriveKeyArgon2id(secret, salt []byte, params Argon2Parameters) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("argon2: secret is required")
	}
	if len(salt) < minSaltBytes {
		return nil, fmt.Errorf("argon2: salt must be at least %d bytes (got %d)", minSaltBytes, len(salt))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(secret, salt, params.Time, params.Memory, params.Threads, params.KeyLength), nil
}

// HashPIN returns a fresh salt and the Argon2id hash of pin under it.
func HashPIN(pin string) (salt, hash []byte, err error) {
	salt, err = RandomBytes(pinSaltBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("pin salt: %w", err)
	}
	hash, err = DeriveKeyArgon2id([]byte(pin), salt, DefaultArgon2Params())
	if err != nil {
		return nil, nil, err
	}
	return salt, hash, nil
}

// VerifyPIN compares pin against a stored salt and hash in constant time.
func VerifyPIN(pin string, salt, hash []byte) error {
	candidate, err := DeriveKeyArgon2id([]byte(pin), salt, DefaultArgon2Params())
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(candidate, hash) != 1 {
		return ErrPINMismatch
	}
	return nil
}
