package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// unsetForTest clears key for the duration of the test and restores it afterwards.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfigFromFile(t *testing.T) {
	unsetForTest(t, "STOREDESK_PUSH_PLATFORM")
	unsetForTest(t, "STOREDESK_PUSH_DEVICE_TOKEN")

	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, "https://desk.example.com/api", cfg.API.BaseURL)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, 25, cfg.API.PageSize)
	require.InDelta(t, 4.0, cfg.API.RateLimit, 0.001)
	require.Equal(t, 8, cfg.API.Burst)

	require.Equal(t, "/var/lib/storedesk/device.sqlite", cfg.Auth.StoragePath)
	require.Equal(t, 5*time.Second, cfg.Toast.DefaultDuration)

	require.False(t, cfg.Push.Enabled)
	require.Equal(t, "wss://desk.example.com/api/push", cfg.Push.StreamURL)
	require.Equal(t, "ios", cfg.Push.Platform)
	require.Equal(t, "dotenv-device-token", cfg.Push.DeviceToken)

	require.Equal(t, LoggingConfig{Level: "debug", Format: "console"}, cfg.Logging)

	require.Equal(t, 9090, cfg.Sandbox.Port)
	require.False(t, cfg.Sandbox.Seed)
	require.Equal(t, "jwt-secret", cfg.Sandbox.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.Sandbox.JWT.TTL)
	require.Equal(t, 50, cfg.Sandbox.RateLimit)
	require.Equal(t, 30*time.Second, cfg.Sandbox.RateWindow)

	jwtCfg := cfg.Sandbox.JWTServiceConfig()
	require.Equal(t, "storedesk-test", jwtCfg.Issuer)
	require.Equal(t, 30*time.Minute, jwtCfg.AccessTokenTTL)

	sealer, err := cfg.Auth.Sealer()
	require.NoError(t, err)
	sealed, err := sealer.Seal("token")
	require.NoError(t, err)
	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "token", opened)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "http://127.0.0.1:8080/api", cfg.API.BaseURL)
	require.Equal(t, 10, cfg.API.PageSize)
	require.Equal(t, 3*time.Second, cfg.Toast.DefaultDuration)
	require.True(t, cfg.Push.Enabled)
	require.Equal(t, 8080, cfg.Sandbox.Port)
	require.True(t, cfg.Sandbox.Seed)
	require.Equal(t, time.Minute, cfg.Sandbox.RateWindow)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("STOREDESK_API_BASE_URL", "http://10.0.0.5:8080/api")
	t.Setenv("STOREDESK_SANDBOX_PORT", "7070")
	t.Setenv("STOREDESK_PUSH_PLATFORM", "android")
	unsetForTest(t, "STOREDESK_PUSH_DEVICE_TOKEN")

	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:8080/api", cfg.API.BaseURL)
	require.Equal(t, 7070, cfg.Sandbox.Port)
	require.Equal(t, "android", cfg.Push.Platform)
}

func TestSealerRejectsShortSalt(t *testing.T) {
	_, err := AuthConfig{DeviceSecret: "secret", DeviceSalt: "abcd"}.Sealer()
	require.Error(t, err)

	_, err = AuthConfig{DeviceSalt: "00112233445566778899aabbccddeeff"}.Sealer()
	require.Error(t, err)
}
