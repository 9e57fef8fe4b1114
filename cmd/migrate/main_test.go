package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pawhaven-backend/pkg/migrate"
)

func TestRunOfflineCommands(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, run(context.Background(), &out, options{cmd: "create", dir: dir, name: "add pet tags"}))
	assert.Contains(t, out.String(), "_add_pet_tags.sql")

	created, err := filepath.Glob(filepath.Join(dir, "*_add_pet_tags.sql"))
	require.NoError(t, err)
	require.Len(t, created, 1)

	out.Reset()
	require.NoError(t, run(context.Background(), &out, options{cmd: "validate", dir: dir}))
	assert.Contains(t, out.String(), "passed")

	out.Reset()
	require.NoError(t, run(context.Background(), &out, options{cmd: "list", dir: migrate.EmbeddedDir}))
	files, err := migrate.Files()
	require.NoError(t, err)
	for _, f := range files {
		assert.Contains(t, out.String(), f)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	var out bytes.Buffer

	err := run(context.Background(), &out, options{cmd: "create", dir: t.TempDir()})
	assert.ErrorContains(t, err, "-name")

	err = run(context.Background(), &out, options{cmd: "sideways"})
	assert.ErrorContains(t, err, "unknown command")

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, "1_init.sql"), []byte("-- +goose Up\n"), 0o644))
	assert.Error(t, run(context.Background(), &out, options{cmd: "validate", dir: bad}))
}

func TestSourceDirMapsEmbeddedToTree(t *testing.T) {
	assert.Equal(t, migrate.DefaultDir, options{dir: migrate.EmbeddedDir}.sourceDir())
	assert.Equal(t, "/tmp/m", options{dir: "/tmp/m"}.sourceDir())
	assert.Equal(t, []string{"create", "down", "list", "status", "up", "validate", "version"}, commandNames())
}
