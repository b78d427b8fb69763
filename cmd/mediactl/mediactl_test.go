package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/media-service/internal/utils/jwt"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := "jwt_secret: cli-secret\n" +
		"database:\n  driver: memory\n" +
		"media:\n  upload_dir: " + filepath.Join(dir, "uploads") + "\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, "token", "admin-1", "--config", writeConfig(t))
	require.NoError(t, err)

	userID, err := jwt.ExtractUserIDFromToken(strings.TrimSpace(out), "cli-secret")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", userID)
}

func TestStatsCommandOnEmptyCatalog(t *testing.T) {
	out, err := run(t, "stats", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, `"totalFiles": 0`)
}

func TestCleanupCommand(t *testing.T) {
	out, err := run(t, "cleanup", "--older-than-days", "0", "--config", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, `"requested": 0`)
}

func TestMissingConfig(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	_, err := run(t, "stats", "--config", "")
	assert.Error(t, err)
}
