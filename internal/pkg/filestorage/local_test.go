package filestorage

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeFileHeader builds a real multipart.FileHeader by round-tripping a form,
// so FileHeader.Open works the same way it does for an HTTP upload.
func makeFileHeader(t *testing.T, filename, contentType, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&buf, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF(makeFileHeader(t, "lecture.pdf", PDFMimeType, "%PDF-1.4")))
	assert.True(t, IsPDF(makeFileHeader(t, "lecture.PDF", "application/octet-stream", "%PDF-1.4")))
	assert.True(t, IsPDF(makeFileHeader(t, "notes.bin", PDFMimeType, "%PDF-1.4")))
	assert.False(t, IsPDF(makeFileHeader(t, "photo.png", "image/png", "not a pdf")))
	assert.False(t, IsPDF(nil))
}

func TestSaveFile(t *testing.T) {
	basePath := t.TempDir()
	storage, err := NewLocalStorage(basePath, "http://localhost:8080/uploads")
	require.NoError(t, err)

	fh := makeFileHeader(t, "lecture.pdf", PDFMimeType, "%PDF-1.4 test content")
	url, err := storage.SaveFile(fh)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".pdf"))
	// The stored name is randomized; the original name must not leak through
	assert.NotContains(t, url, "lecture")

	saved := filepath.Join(basePath, filepath.Base(url))
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test content", string(data))
}

func TestSaveFileWithPath(t *testing.T) {
	basePath := t.TempDir()
	storage, err := NewLocalStorage(basePath, "http://localhost:8080/uploads")
	require.NoError(t, err)

	fh := makeFileHeader(t, "lecture.pdf", PDFMimeType, "%PDF-1.4")
	url, err := storage.SaveFileWithPath(fh, "pdfs")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/pdfs/"))

	saved := filepath.Join(basePath, "pdfs", filepath.Base(url))
	_, err = os.Stat(saved)
	assert.NoError(t, err)
}

func TestSaveFileNilHeader(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	url, err := storage.SaveFile(nil)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestDeleteFile(t *testing.T) {
	basePath := t.TempDir()
	storage, err := NewLocalStorage(basePath, "http://localhost:8080/uploads")
	require.NoError(t, err)

	fh := makeFileHeader(t, "lecture.pdf", PDFMimeType, "%PDF-1.4")
	url, err := storage.SaveFile(fh)
	require.NoError(t, err)

	physical := storage.GetFullPath(url)
	_, err = os.Stat(physical)
	require.NoError(t, err)

	require.NoError(t, storage.DeleteFile(url))
	_, err = os.Stat(physical)
	assert.True(t, os.IsNotExist(err))

	// Deleting an already-deleted file is not an error
	assert.NoError(t, storage.DeleteFile(url))
}

func TestDeleteFileInSubPath(t *testing.T) {
	basePath := t.TempDir()
	storage, err := NewLocalStorage(basePath, "http://localhost:8080/uploads")
	require.NoError(t, err)

	fh := makeFileHeader(t, "lecture.pdf", PDFMimeType, "%PDF-1.4")
	url, err := storage.SaveFileWithPath(fh, "pdfs")
	require.NoError(t, err)

	physical := filepath.Join(basePath, "pdfs", filepath.Base(url))
	_, err = os.Stat(physical)
	require.NoError(t, err)

	require.NoError(t, storage.DeleteFile(url))
	_, err = os.Stat(physical)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteFileInSubPathWithoutBaseURL(t *testing.T) {
	basePath := t.TempDir()
	storage, err := NewLocalStorage(basePath, "")
	require.NoError(t, err)

	fh := makeFileHeader(t, "lecture.pdf", PDFMimeType, "%PDF-1.4")
	path, err := storage.SaveFileWithPath(fh, "pdfs")
	require.NoError(t, err)

	physical := filepath.Join(basePath, "pdfs", filepath.Base(path))
	_, err = os.Stat(physical)
	require.NoError(t, err)

	require.NoError(t, storage.DeleteFile(path))
	_, err = os.Stat(physical)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteFileEmptyPath(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	assert.NoError(t, storage.DeleteFile(""))
}

func TestGetFullPath(t *testing.T) {
	basePath := t.TempDir()
	storage, err := NewLocalStorage(basePath, "http://localhost:8080/uploads")
	require.NoError(t, err)

	full := storage.GetFullPath("http://localhost:8080/uploads/abc123.pdf")
	assert.Equal(t, filepath.Join(basePath, "abc123.pdf"), full)

	// Subdirectories must survive the URL round trip
	full = storage.GetFullPath("http://localhost:8080/uploads/pdfs/abc123.pdf")
	assert.Equal(t, filepath.Join(basePath, "pdfs", "abc123.pdf"), full)

	// Paths escaping the storage root do not resolve
	assert.Empty(t, storage.GetFullPath("http://localhost:8080/uploads/../secrets.txt"))
	assert.Empty(t, storage.GetFullPath(""))
}
