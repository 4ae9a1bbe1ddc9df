package main

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "# local settings\nPRIORITYPILOT_UNUSED=1\nDB_PATH=/tmp/pp-test.db\nALLOWED_ORIGINS=http://a.test, http://b.test\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0600))
	t.Cleanup(func() {
		os.Unsetenv("DB_PATH")
		os.Unsetenv("ALLOWED_ORIGINS")
		os.Unsetenv("PRIORITYPILOT_UNUSED")
	})

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pp-test.db", cfg.DBPath)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)

	req := httptest.NewRequest("GET", "/api/ws", nil)
	assert.True(t, cfg.CheckOrigin(req))
	req.Header.Set("Origin", "http://b.test")
	assert.True(t, cfg.CheckOrigin(req))
	req.Header.Set("Origin", "http://evil.test")
	assert.False(t, cfg.CheckOrigin(req))
}

func TestLoadConfigWithoutEnvFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Port)
	assert.NotEmpty(t, cfg.DBPath)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
