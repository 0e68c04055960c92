package config

// DegradationKind names one stage of the degradation chain.
type DegradationKind string

const (
	KindBlur        DegradationKind = "blur"
	KindNoise       DegradationKind = "noise"
	KindCompression DegradationKind = "compression"
	KindScale       DegradationKind = "scale"
)

// Kinds lists every degradation kind in canonical order.
var Kinds = []DegradationKind{KindBlur, KindNoise, KindCompression, KindScale}

type BlurAlgorithm string

const (
	BlurAverage     BlurAlgorithm = "average"
	BlurGaussian    BlurAlgorithm = "gaussian"
	BlurIsotropic   BlurAlgorithm = "isotropic"
	BlurAnisotropic BlurAlgorithm = "anisotropic"
)

type NoiseAlgorithm string

const (
	NoiseUniform  NoiseAlgorithm = "uniform"
	NoiseGaussian NoiseAlgorithm = "gaussian"
	NoiseColor    NoiseAlgorithm = "color"
	NoiseGray     NoiseAlgorithm = "gray"
)

type CompressionAlgorithm string

const (
	CompressionJPEG  CompressionAlgorithm = "jpeg"
	CompressionWebP  CompressionAlgorithm = "webp"
	CompressionH264  CompressionAlgorithm = "h264"
	CompressionHEVC  CompressionAlgorithm = "hevc"
	CompressionMPEG  CompressionAlgorithm = "mpeg"
	CompressionMPEG2 CompressionAlgorithm = "mpeg2"
)

// IsVideo reports whether the algorithm round-trips through the external codec.
func (a CompressionAlgorithm) IsVideo() bool {
	switch a {
	case CompressionH264, CompressionHEVC, CompressionMPEG, CompressionMPEG2:
		return true
	}
	return false
}

// ScaleAlgorithm is either a single interpolation kernel or the composite down_up.
type ScaleAlgorithm string

const (
	ScaleBicubic  ScaleAlgorithm = "bicubic"
	ScaleBilinear ScaleAlgorithm = "bilinear"
	ScaleBox      ScaleAlgorithm = "box"
	ScaleNearest  ScaleAlgorithm = "nearest"
	ScaleLanczos  ScaleAlgorithm = "lanczos"
	ScaleDownUp   ScaleAlgorithm = "down_up"
)

// IsInterpolation reports whether the algorithm is a plain resampling kernel.
func (a ScaleAlgorithm) IsInterpolation() bool {
	switch a {
	case ScaleBicubic, ScaleBilinear, ScaleBox, ScaleNearest, ScaleLanczos:
		return true
	}
	return false
}

func validKind(k DegradationKind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func validBlur(a BlurAlgorithm) bool {
	switch a {
	case BlurAverage, BlurGaussian, BlurIsotropic, BlurAnisotropic:
		return true
	}
	return false
}

func validNoise(a NoiseAlgorithm) bool {
	switch a {
	case NoiseUniform, NoiseGaussian, NoiseColor, NoiseGray:
		return true
	}
	return false
}

func validCompression(a CompressionAlgorithm) bool {
	return a == CompressionJPEG || a == CompressionWebP || a.IsVideo()
}

func validScale(a ScaleAlgorithm) bool {
	return a == ScaleDownUp || a.IsInterpolation()
}
