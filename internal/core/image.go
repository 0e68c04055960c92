// Working image owned by one pipeline run
package core

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ImageData owns the image being degraded and, when a quality report is
// wanted, a clean copy of the source. It is confined to one goroutine.
type ImageData struct {
	current  gocv.Mat
	original gocv.Mat
	keepOrig bool
	metadata ImageMetadata
}

// ImageMetadata describes the source image.
type ImageMetadata struct {
	Width  int
	Height int
}

// NewImageData takes ownership of mat. With keepOriginal a clone is held
// back for comparison after degradation.
func NewImageData(mat gocv.Mat, keepOriginal bool) (*ImageData, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("cannot use empty image")
	}
	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", mat.Cols(), mat.Rows())
	}
	if mat.Channels() != 3 {
		return nil, fmt.Errorf("unsupported number of channels: %d", mat.Channels())
	}

	img := &ImageData{
		current:  mat,
		keepOrig: keepOriginal,
		metadata: ImageMetadata{
			Width:  mat.Cols(),
			Height: mat.Rows(),
		},
	}
	if keepOriginal {
		img.original = mat.Clone()
	}
	return img, nil
}

// Current returns the working image. It stays owned by ImageData.
func (img *ImageData) Current() gocv.Mat {
	return img.current
}

// Original returns the clean copy, or false when none was kept.
func (img *ImageData) Original() (gocv.Mat, bool) {
	return img.original, img.keepOrig
}

// Replace swaps in the next step's output and releases the previous image.
func (img *ImageData) Replace(next gocv.Mat) {
	img.current.Close()
	img.current = next
}

// Metadata describes the image as it was loaded.
func (img *ImageData) Metadata() ImageMetadata {
	return img.metadata
}

// Close releases every Mat held.
func (img *ImageData) Close() {
	img.current.Close()
	if img.keepOrig {
		img.original.Close()
	}
}
