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
	for _, k := range []string{EnvConfigPath, EnvAPIURL, EnvTimeout, EnvRPS, EnvLogLevel, EnvUserAgent} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 15*time.Second, cfg.GetTimeout())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "bookshelf.yaml", "api_url: https://books.example.com\ntimeout: 3s\nrps: 2.5\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "https://books.example.com", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.GetTimeout())
	assert.Equal(t, 2.5, cfg.RPS)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FileFromEnv(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "bookshelf.yaml", "log_level: debug\n")
	t.Setenv(EnvConfigPath, p)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, "bookshelf.yaml", "api_url: https://books.example.com\n")
	t.Setenv(EnvAPIURL, "http://127.0.0.1:4000")
	t.Setenv(EnvRPS, "0")
	t.Setenv(EnvUserAgent, "tests")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:4000", cfg.APIURL)
	assert.Equal(t, 0.0, cfg.RPS)
	assert.Equal(t, "tests", cfg.UserAgent)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "relative url", env: map[string]string{EnvAPIURL: "books.example.com"}},
		{name: "bad timeout", env: map[string]string{EnvTimeout: "soon"}},
		{name: "bad rps", env: map[string]string{EnvRPS: "fast"}},
		{name: "negative rps", file: "rps: -1\n"},
		{name: "broken yaml", file: "api_url: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, "bookshelf.yaml", tt.file)
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv(EnvUserAgent))
	require.NoError(t, os.WriteFile(".env", []byte(EnvAPIURL+"=http://from-file:3000\n"+EnvUserAgent+"=from-file\n"), 0644))
	t.Setenv(EnvAPIURL, "http://from-env:3000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:3000", cfg.APIURL)
	assert.Equal(t, "from-file", cfg.UserAgent)
}
