package app

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charlesng35/storedesk/pkg/crypto"
)

const (
	jwtSecretBytes    = 48
	deviceSecretBytes = 32
	deviceSaltBytes   = 16
)

// ApplyRuntimeDefaults ensures secrets are populated even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without
// exposing values. A generated device secret makes tokens saved by an earlier run unreadable.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)
	fill := func(key string, target *string, length int) error {
		if strings.TrimSpace(*target) != "" {
			return nil
		}
		secret, err := generateHexKey(length)
		if err != nil {
			return fmt.Errorf("generate %s: %w", key, err)
		}
		*target = secret
		generated[key] = true
		return nil
	}

	if err := fill("sandbox.jwt.secret", &cfg.Sandbox.JWT.Secret, jwtSecretBytes); err != nil {
		return nil, err
	}
	if err := fill("auth.device_secret", &cfg.Auth.DeviceSecret, deviceSecretBytes); err != nil {
		return nil, err
	}
	if err := fill("auth.device_salt", &cfg.Auth.DeviceSalt, deviceSaltBytes); err != nil {
		return nil, err
	}

	return generated, nil
}

func generateHexKey(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf, err := crypto.RandomBytes(length)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
