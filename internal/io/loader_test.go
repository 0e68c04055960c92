package io

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func newTestLoader() *ImageLoader {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewImageLoader(logger)
}

func writeTestImage(t *testing.T, path string) {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 12, 16, gocv.MatTypeCV8UC3)
	defer mat.Close()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.True(t, gocv.IMWrite(path, mat))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	loader := newTestLoader()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 100, 50, 0), 20, 30, gocv.MatTypeCV8UC3)
	defer mat.Close()

	path := filepath.Join(t.TempDir(), "nested", "dir", "out.png")
	require.NoError(t, loader.SaveImage(mat, path))

	loaded, err := loader.LoadImage(path)
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, 20, loaded.Rows())
	assert.Equal(t, 30, loaded.Cols())
	assert.Equal(t, gocv.MatTypeCV8UC3, loaded.Type())
	assert.Equal(t, mat.ToBytes(), loaded.ToBytes())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLoadImageUndecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	_, err := newTestLoader().LoadImage(path)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, path, decodeErr.Path)
}

func TestLoadImageMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.png")
	_, err := newTestLoader().LoadImage(path)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, path, decodeErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadImageUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.gif")
	require.NoError(t, os.WriteFile(path, []byte("GIF89a"), 0o644))

	_, err := newTestLoader().LoadImage(path)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, path, decodeErr.Path)
	assert.Contains(t, err.Error(), ".gif")
}

func TestSaveImageRejectsEmptyAndUnknownFormats(t *testing.T) {
	loader := newTestLoader()
	empty := gocv.NewMat()
	defer empty.Close()
	assert.Error(t, loader.SaveImage(empty, filepath.Join(t.TempDir(), "a.png")))

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer mat.Close()
	assert.Error(t, loader.SaveImage(mat, filepath.Join(t.TempDir(), "a.gif")))
}

func TestScanImages(t *testing.T) {
	root := t.TempDir()
	writeTestImage(t, filepath.Join(root, "b.png"))
	writeTestImage(t, filepath.Join(root, "a.JPG"))
	writeTestImage(t, filepath.Join(root, "sub", "c.bmp"))
	writeTestImage(t, filepath.Join(root, ".cache", "d.png"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	paths, err := newTestLoader().ScanImages(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.JPG"),
		filepath.Join(root, "b.png"),
		filepath.Join(root, "sub", "c.bmp"),
	}, paths)
}

func TestScanImagesMissingRoot(t *testing.T) {
	_, err := newTestLoader().ScanImages(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	got, err := OutputPath("in", "out", filepath.Join("in", "sub", "x.jpg"), "png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "sub", "x.png"), got)

	got, err = OutputPath("in", "out", filepath.Join("in", "y.tar.bmp"), ".webp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "y.tar.webp"), got)

	_, err = OutputPath("in", "out", filepath.Join("elsewhere", "z.png"), "png")
	assert.Error(t, err)
}

func TestIsSupportedImageFormat(t *testing.T) {
	for _, ok := range []string{"a.png", "b.JPEG", "c.webp", "d.tif"} {
		assert.True(t, IsSupportedImageFormat(ok), ok)
	}
	for _, bad := range []string{"a.gif", "b", "c.png.txt"} {
		assert.False(t, IsSupportedImageFormat(bad), bad)
	}
}
