// Image discovery, loading and saving
package io

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var supportedFormats = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// DecodeError reports an input that cannot be read as a color image. Err
// holds the underlying cause when there is one.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot decode image %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("cannot decode image: %s", e.Path)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger *logrus.Logger
}

func NewImageLoader(logger *logrus.Logger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadImage reads path as an 8-bit BGR image.
func (il *ImageLoader) LoadImage(path string) (gocv.Mat, error) {
	il.logger.WithField("path", path).Debug("Loading image")

	if !IsSupportedImageFormat(path) {
		return gocv.NewMat(), &DecodeError{Path: path, Err: fmt.Errorf("unsupported image format %q", filepath.Ext(path))}
	}
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), &DecodeError{Path: path, Err: err}
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), &DecodeError{Path: path}
	}

	il.logger.WithFields(logrus.Fields{
		"path":     path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Debug("Image loaded")

	return mat, nil
}

// SaveImage encodes mat in the format named by path's extension and moves
// it into place, so a failed write never leaves a partial file behind.
func (il *ImageLoader) SaveImage(mat gocv.Mat, path string) error {
	il.logger.WithField("path", path).Debug("Saving image")

	if mat.Empty() {
		return fmt.Errorf("cannot save empty image")
	}
	if !IsSupportedImageFormat(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	buf, err := gocv.IMEncode(gocv.FileExt(ext), mat)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	defer buf.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".destroyer-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.GetBytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"path":   path,
		"width":  mat.Cols(),
		"height": mat.Rows(),
	}).Debug("Image saved")

	return nil
}

// ScanImages lists every supported image under root, sorted by path.
// Hidden directories are skipped.
func (il *ImageLoader) ScanImages(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input folder %s is not a directory", root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSupportedImageFormat(path) {
			paths = append(paths, path)
		} else {
			il.logger.WithField("path", path).Debug("Skipping non-image file")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// OutputPath mirrors path's location under inputRoot into outputRoot and
// swaps the extension for format.
func OutputPath(inputRoot, outputRoot, path, format string) (string, error) {
	rel, err := filepath.Rel(inputRoot, path)
	if err != nil {
		return "", fmt.Errorf("%s is not under %s: %w", path, inputRoot, err)
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is not under %s", path, inputRoot)
	}
	base := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(outputRoot, base+"."+strings.TrimPrefix(format, ".")), nil
}

// IsSupportedImageFormat reports whether the extension of path is one the
// loader reads and writes.
func IsSupportedImageFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
