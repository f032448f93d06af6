package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAllowlistContainsIsCaseInsensitive(t *testing.T) {
	list := NewAllowlist(" Owner@Example.com ", "", "ops@example.com")

	assert.True(t, list.Contains("owner@example.com"))
	assert.True(t, list.Contains("OPS@EXAMPLE.COM"))
	assert.False(t, list.Contains("player@example.com"))
	assert.False(t, list.Contains(""))
	assert.Equal(t, 2, list.Len())
}

func TestAllowlistHolderMergesEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.yml")
	content := "access:\n  privilegedEmails:\n    - file-admin@example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Config{Access: AccessConfig{
		PrivilegedEmails: []string{"env-admin@example.com"},
		ConfigFile:       path,
	}}

	holder, err := NewAllowlistHolder(cfg, zap.NewNop())
	require.NoError(t, err)

	list := holder.Get()
	assert.True(t, list.Contains("env-admin@example.com"))
	assert.True(t, list.Contains("FILE-ADMIN@example.com"))
	assert.Equal(t, 2, list.Len())
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, parseList(" a@x.io, ,b@x.io "))
	assert.Empty(t, parseList(""))
}

func TestNilHolderIsEmpty(t *testing.T) {
	var holder *AllowlistHolder
	assert.Equal(t, 0, holder.Get().Len())
}
