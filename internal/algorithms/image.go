package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ValidateImage checks mat is a non-empty 8-bit 3-channel image.
func ValidateImage(mat gocv.Mat) error {
	if mat.Empty() {
		return fmt.Errorf("image is empty")
	}
	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return fmt.Errorf("unsupported image type %v, want 8-bit 3-channel", mat.Type())
	}
	return nil
}

// matFromBytes copies a packed height x width x 3 buffer into a new Mat.
func matFromBytes(rows, cols int, data []byte) (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC3, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap %dx%d frame: %w", cols, rows, err)
	}
	defer view.Close()
	return view.Clone(), nil
}
