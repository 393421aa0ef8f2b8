package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaultsGeneratesMissingSecrets(t *testing.T) {
	cfg := &Config{}

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)

	require.Len(t, cfg.Sandbox.JWT.Secret, jwtSecretBytes*2)
	require.Len(t, cfg.Auth.DeviceSecret, deviceSecretBytes*2)
	require.Len(t, cfg.Auth.DeviceSalt, deviceSaltBytes*2)
	require.Equal(t, map[string]bool{
		"sandbox.jwt.secret": true,
		"auth.device_secret": true,
		"auth.device_salt":   true,
	}, generated)
}

func TestApplyRuntimeDefaultsPreservesExistingSecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Sandbox.JWT.Secret = "existing"
	cfg.Auth.DeviceSecret = "device"

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Equal(t, "existing", cfg.Sandbox.JWT.Secret)
	require.Equal(t, "device", cfg.Auth.DeviceSecret)
	require.NotEmpty(t, cfg.Auth.DeviceSalt)
	require.Equal(t, map[string]bool{"auth.device_salt": true}, generated)

	_, err = ApplyRuntimeDefaults(nil)
	require.Error(t, err)
}
