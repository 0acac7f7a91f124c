package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

func TestLocalStoreSaveRemove(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")

	s, err := NewLocalStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "abc_policy.pdf", []byte("%PDF-1.4")))
	data, err := os.ReadFile(filepath.Join(dir, "abc_policy.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, s.Remove(ctx, "abc_policy.pdf"))
	_, err = os.Stat(filepath.Join(dir, "abc_policy.pdf"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Remove(ctx, "abc_policy.pdf"), "removing twice is fine")
}

func TestLocalStoreKeepsKeysInsideDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewLocalStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "../../escape.pdf", []byte("x")))

	_, err = os.Stat(filepath.Join(dir, "escape.pdf"))
	assert.NoError(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Upload.Directory = t.TempDir()

	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	cfg.Upload.Backend = "ftp"
	_, err = New(context.Background(), cfg)
	assert.ErrorIs(t, err, models.ErrConfigurationInvalid)
}
