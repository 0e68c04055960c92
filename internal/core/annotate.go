package core

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

const (
	annotationLineHeight = 50
	annotationX          = 10
	annotationFontScale  = 1.25
	annotationThickness  = 2
)

// annotationColor is pure blue in BGR order.
var annotationColor = color.RGBA{B: 255, A: 255}

// Annotate burns one numbered line per step description onto img. Line
// spacing and font size follow sizeFactor so the text stays readable after
// scaling.
func Annotate(img *gocv.Mat, lines []string, sizeFactor float64) {
	for i, line := range lines {
		order := i + 1
		y := max(1, int(float64(order*annotationLineHeight)*sizeFactor))
		gocv.PutTextWithParams(img, fmt.Sprintf("%d. %s", order, line),
			image.Pt(annotationX, y),
			gocv.FontHersheySimplex, annotationFontScale*sizeFactor,
			annotationColor, annotationThickness, gocv.LineAA, false)
	}
}
