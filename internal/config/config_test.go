package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LEXSHELL_API_URL", "NEXT_PUBLIC_API_URL", "API_URL", "LEXSHELL_TIMEOUT", "LEXSHELL_RENDER_WIDTH"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 80, cfg.RenderWidth)
	assert.Equal(t, "auto", cfg.RenderStyle)
	assert.False(t, cfg.TestMode)
}

func TestLoad_EnvironmentAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXT_PUBLIC_API_URL", "https://api.example.com/v1/")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1", cfg.APIURL)

	t.Setenv("LEXSHELL_API_URL", "http://override:8000")
	cfg, err = Load(New())
	require.NoError(t, err)
	assert.Equal(t, "http://override:8000", cfg.APIURL)
}

func TestLoad_NestedKeysFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEXSHELL_RENDER_WIDTH", "120")
	t.Setenv("LEXSHELL_TIMEOUT", "5s")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.RenderWidth)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestLoad_RejectsBadURL(t *testing.T) {
	clearEnv(t)
	v := New()

	v.Set(KeyAPIURL, "ftp://example.com")
	_, err := Load(v)
	assert.ErrorContains(t, err, "scheme")

	v.Set(KeyAPIURL, "http://")
	_, err = Load(v)
	assert.ErrorContains(t, err, "missing host")
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	clearEnv(t)
	v := New()
	v.Set(KeyTimeout, "0s")

	_, err := Load(v)
	assert.ErrorContains(t, err, "timeout")
}

func TestLoadDotEnv_LocalWinsOverUserConfig(t *testing.T) {
	clearEnv(t)
	workDir := t.TempDir()
	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, ".env"), []byte("LEXSHELL_API_URL=http://local:1\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, ".env"), []byte("LEXSHELL_API_URL=http://user:2\nLEXSHELL_RENDER_WIDTH=100\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("LEXSHELL_RENDER_WIDTH") })

	loaded, err := LoadDotEnv(workDir, configDir)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "http://local:1", cfg.APIURL)
	assert.Equal(t, 100, cfg.RenderWidth)
}

func TestLoadDotEnv_MissingFilesSkipped(t *testing.T) {
	loaded, err := LoadDotEnv(t.TempDir(), "")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
