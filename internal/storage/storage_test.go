package storage_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/straye-as/renewal-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageInterfaceCompliance(t *testing.T) {
	var _ storage.Storage = (*storage.LocalStorage)(nil)
	var _ storage.Storage = (*storage.AzureBlobStorage)(nil)
	var _ storage.Storage = (*storage.MinioStorage)(nil)
}

func TestNewLocalStorage_CreatesKindDirectories(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), "uploads")

	ls, err := storage.NewLocalStorage(basePath)
	require.NoError(t, err)
	assert.Equal(t, basePath, ls.BasePath())

	for _, kind := range storage.Kinds {
		info, err := os.Stat(filepath.Join(basePath, string(kind)))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	content := []byte("signed contract page")
	n, err := ls.Save(ctx, storage.KindResidentDocs, "signed_abc_page1.pdf", "application/pdf", bytes.NewReader(content), int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)

	rc, err := ls.Open(ctx, storage.KindResidentDocs, "signed_abc_page1.pdf")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// same name under another kind is a different object
	_, err = ls.Open(ctx, storage.KindStaffFiles, "signed_abc_page1.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, ls.Delete(ctx, storage.KindResidentDocs, "signed_abc_page1.pdf"))
	_, err = ls.Open(ctx, storage.KindResidentDocs, "signed_abc_page1.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, ls.Delete(ctx, storage.KindResidentDocs, "signed_abc_page1.pdf"))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = ls.Save(ctx, storage.KindStaffFiles, "../escape.txt", "text/plain", strings.NewReader("x"), 1)
	assert.Error(t, err)

	_, err = ls.Open(ctx, storage.KindStaffFiles, "../../etc/passwd")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalStorage_List(t *testing.T) {
	ctx := context.Background()
	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"inv_1_a.pdf", "inv_2_b.pdf"} {
		_, err := ls.Save(ctx, storage.KindInvitations, name, "application/pdf", strings.NewReader(name), -1)
		require.NoError(t, err)
	}

	objects, err := ls.List(ctx, storage.KindInvitations)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	names := []string{objects[0].Name, objects[1].Name}
	assert.ElementsMatch(t, []string{"inv_1_a.pdf", "inv_2_b.pdf"}, names)
	assert.False(t, objects[0].ModTime.IsZero())

	empty, err := ls.List(ctx, storage.KindProtocols)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGenerateName(t *testing.T) {
	a := storage.GenerateName("signed", "contract.pdf")
	b := storage.GenerateName("signed", "contract.pdf")

	assert.True(t, strings.HasPrefix(a, "signed_"))
	assert.True(t, strings.HasSuffix(a, "_contract.pdf"))
	assert.NotEqual(t, a, b)
	assert.True(t, storage.ValidName(a))
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\docs\scan 1.jpg`, "scan_1.jpg"},
		{"חוזה חתום.pdf", "חוזה_חתום.pdf"},
		{"", "file"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, storage.SanitizeFileName(tt.in))
		})
	}
}

func TestKindFromString(t *testing.T) {
	k, ok := storage.KindFromString("invitation")
	assert.True(t, ok)
	assert.Equal(t, storage.KindInvitations, k)

	k, ok = storage.KindFromString("protocol")
	assert.True(t, ok)
	assert.Equal(t, storage.KindProtocols, k)

	_, ok = storage.KindFromString("secrets")
	assert.False(t, ok)
}
