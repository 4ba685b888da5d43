package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telescope-ops/obsadmin/services/internal/config"
)

func TestUploadKey(t *testing.T) {
	require.Equal(t, "2024A/run-1.csv", UploadKey("2024A", "run-1"))
	require.Equal(t, "unknown/run-1.csv", UploadKey("", "run-1"))
}

func TestFilesystemPut(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystem(root)
	require.NoError(t, err)

	loc, err := store.Put(context.Background(), UploadKey("2024A", "abc"), strings.NewReader("Program,PI\n"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "2024A", "abc.csv"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	require.Equal(t, "Program,PI\n", string(data))

	_, err = store.Put(context.Background(), UploadKey("2024A", "abc"), strings.NewReader("again"))
	require.Error(t, err, "keys are write-once")
}

func TestFilesystemPut_RejectsBadKeys(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.csv", "/abs.csv"} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"))
		require.Error(t, err, key)
	}
}

func TestFilesystemPut_CanceledContext(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Put(ctx, "2024A/x.csv", strings.NewReader("x"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestNew_SelectsDriver(t *testing.T) {
	store, err := New(context.Background(), config.ArchiveConfig{Driver: config.ArchiveNone})
	require.NoError(t, err)
	require.Nil(t, store)

	store, err = New(context.Background(), config.ArchiveConfig{Driver: config.ArchiveFS, Dir: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &Filesystem{}, store)

	_, err = New(context.Background(), config.ArchiveConfig{Driver: "ftp"})
	require.Error(t, err)
}
