package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	ResetPaths()
	t.Cleanup(ResetPaths)

	assert.Equal(t, home, HomeDir())
	assert.Equal(t, filepath.Join(home, ".ctxreply"), DataDir())
	assert.Equal(t, filepath.Join(home, ".ctxreply", "ctxreply.log"), LogFile())
	assert.Equal(t, filepath.Join(home, ".ctxreply", "history.db"), HistoryFile())
	assert.Equal(t, filepath.Join(home, ".ctxreply", "config.yaml"), ConfigFile())
	assert.Equal(t, filepath.Join(home, ".ctxreply", ".env"), EnvFile())

	stat, err := os.Stat(DataDir())
	require.NoError(t, err)
	assert.True(t, stat.IsDir())
}
