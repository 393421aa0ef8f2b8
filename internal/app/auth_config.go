package app

import (
	"github.com/charlesng35/storedesk/internal/auth"
	"github.com/charlesng35/storedesk/pkg/crypto"
)

const minDeviceSaltBytes = 16

// Sealer derives the token sealer from the configured device secret and salt.
func (c AuthConfig) Sealer() (*crypto.Sealer, error) {
	secret, err := DecodeSecret("auth.device_secret", c.DeviceSecret, 1)
	if err != nil {
		return nil, err
	}
	salt, err := DecodeSecret("auth.device_salt", c.DeviceSalt, minDeviceSaltBytes)
	if err != nil {
		return nil, err
	}
	return crypto.NewSealer(secret, salt, crypto.DefaultArgon2Params())
}

// JWTServiceConfig converts the sandbox settings into the parameters expected by the JWT service.
func (c SandboxConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}
