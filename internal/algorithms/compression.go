// Lossy compression round trips
package algorithms

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"gocv.io/x/gocv"

	"dataset-destroyer/internal/codec"
	"dataset-destroyer/internal/config"
)

const webpFileExt gocv.FileExt = ".webp"

// Compression degrades an image only by encoding it to a lossy format and
// decoding it back.
type Compression struct {
	cfg    config.CompressionConfig
	frames FrameCodec
}

func NewCompression(cfg config.CompressionConfig, frames FrameCodec) *Compression {
	return &Compression{cfg: cfg, frames: frames}
}

func (c *Compression) Kind() config.DegradationKind {
	return config.KindCompression
}

func (c *Compression) Apply(ctx context.Context, input gocv.Mat, rng *rand.Rand) (StepResult, error) {
	if err := ValidateImage(input); err != nil {
		return StepResult{}, err
	}

	algorithm := choose(rng, c.cfg.Randomize, c.cfg.Algorithms)
	switch algorithm {
	case config.CompressionJPEG:
		quality := sampleInt(rng, c.cfg.JPEGQualityRange)
		return imageRoundTrip(input, gocv.JPEGFileExt, gocv.IMWriteJpegQuality, quality, algorithm)
	case config.CompressionWebP:
		quality := sampleInt(rng, c.cfg.WebPQualityRange)
		return imageRoundTrip(input, webpFileExt, gocv.IMWriteWebpQuality, quality, algorithm)
	case config.CompressionH264, config.CompressionHEVC, config.CompressionMPEG, config.CompressionMPEG2:
		return c.videoRoundTrip(ctx, input, rng, algorithm)
	}
	return StepResult{}, &config.ConfigurationError{
		Field:  "compression.algorithms",
		Reason: fmt.Sprintf("no implementation for %q", algorithm),
	}
}

func imageRoundTrip(input gocv.Mat, ext gocv.FileExt, flag gocv.IMWriteFlag, quality int, algorithm config.CompressionAlgorithm) (StepResult, error) {
	buf, err := gocv.IMEncodeWithParams(ext, input, []int{int(flag), quality})
	if err != nil {
		return StepResult{}, fmt.Errorf("%s encode failed: %w", algorithm, err)
	}
	defer buf.Close()

	decoded, err := gocv.IMDecode(buf.GetBytes(), gocv.IMReadColor)
	if err != nil {
		return StepResult{}, fmt.Errorf("%s decode failed: %w", algorithm, err)
	}
	if decoded.Empty() {
		decoded.Close()
		return StepResult{}, fmt.Errorf("%s decode produced an empty image", algorithm)
	}
	return StepResult{
		Image:       decoded,
		Description: fmt.Sprintf("%s quality=%d", algorithm, quality),
	}, nil
}

// VideoRequest maps a video algorithm to its encoder and first argument.
func (c *Compression) VideoRequest(algorithm config.CompressionAlgorithm, width, height int, rng *rand.Rand) (codec.Request, error) {
	req := codec.Request{Width: width, Height: height, Container: codec.DefaultContainer}
	switch algorithm {
	case config.CompressionH264:
		req.Codec = "h264"
		req.Args = []codec.Arg{{Name: "crf", Value: strconv.Itoa(sampleInt(rng, c.cfg.H264CRFLevelRange))}}
	case config.CompressionHEVC:
		req.Codec = "hevc"
		req.Args = []codec.Arg{
			{Name: "crf", Value: strconv.Itoa(sampleInt(rng, c.cfg.HEVCCRFLevelRange))},
			{Name: "x265-params", Value: "log-level=0"},
		}
	case config.CompressionMPEG:
		req.Codec = "mpeg1video"
		req.Args = []codec.Arg{{Name: "b", Value: c.cfg.MPEGBitrate}}
	case config.CompressionMPEG2:
		req.Codec = "mpeg2video"
		req.Args = []codec.Arg{{Name: "b", Value: c.cfg.MPEG2Bitrate}}
	default:
		return req, fmt.Errorf("%q is not a video codec", algorithm)
	}
	return req, nil
}

func (c *Compression) videoRoundTrip(ctx context.Context, input gocv.Mat, rng *rand.Rand, algorithm config.CompressionAlgorithm) (StepResult, error) {
	if c.frames == nil {
		return StepResult{}, fmt.Errorf("%s compression needs a codec bridge", algorithm)
	}

	rows, cols := input.Rows(), input.Cols()
	req, err := c.VideoRequest(algorithm, cols, rows, rng)
	if err != nil {
		return StepResult{}, err
	}

	raw, err := c.frames.RoundTrip(ctx, req, input.ToBytes())
	if err != nil {
		return StepResult{}, fmt.Errorf("%s round trip: %w", algorithm, err)
	}

	output, err := matFromBytes(rows, cols, raw)
	if err != nil {
		output.Close()
		return StepResult{}, err
	}
	return StepResult{
		Image:       output,
		Description: fmt.Sprintf("%s %s", algorithm, req.Args[0]),
	}, nil
}

func (c *Compression) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{Name: "algorithm", Type: "enum", Options: names(c.cfg.Algorithms)},
		{Name: "jpeg_quality", Type: "int", Min: c.cfg.JPEGQualityRange.Low, Max: c.cfg.JPEGQualityRange.High},
		{Name: "webp_quality", Type: "int", Min: c.cfg.WebPQualityRange.Low, Max: c.cfg.WebPQualityRange.High},
		{Name: "h264_crf", Type: "int", Min: c.cfg.H264CRFLevelRange.Low, Max: c.cfg.H264CRFLevelRange.High},
		{Name: "hevc_crf", Type: "int", Min: c.cfg.HEVCCRFLevelRange.Low, Max: c.cfg.HEVCCRFLevelRange.High},
		{Name: "mpeg_bitrate", Type: "string", Options: []string{c.cfg.MPEGBitrate}},
		{Name: "mpeg2_bitrate", Type: "string", Options: []string{c.cfg.MPEG2Bitrate}},
	}
}
