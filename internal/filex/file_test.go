package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	data, err := ReadDocument(path)
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.4"), data)

	_, err = ReadDocument(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}

func TestExt(t *testing.T) {
	require.Equal(t, "pdf", Ext("scan.pdf"))
	require.Equal(t, "jpeg", Ext("/tmp/photo.JPEG"))
	require.Equal(t, "jpg", Ext("camera-capture"), "extensionless files default to jpg")
	require.Equal(t, "gz", Ext("archive.tar.gz"))
}

func TestTitleFromName(t *testing.T) {
	require.Equal(t, "blood test", TitleFromName("/home/u/docs/blood test.pdf"))
	require.Equal(t, "scan", TitleFromName("scan.jpg"))
	require.Equal(t, "capture", TitleFromName("capture"))
}
