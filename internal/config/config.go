// Pipeline configuration: loaded once, read-only afterwards
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the immutable view of a degradation run. Build it with Load or
// Parse and share it by pointer; nothing mutates it after validation.
type Config struct {
	Main        MainConfig        `yaml:"main"`
	Blur        BlurConfig        `yaml:"blur"`
	Noise       NoiseConfig       `yaml:"noise"`
	Compression CompressionConfig `yaml:"compression"`
	Scale       ScaleConfig       `yaml:"scale"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
}

type MainConfig struct {
	InputFolder     string            `yaml:"input_folder"`
	OutputFolder    string            `yaml:"output_folder"`
	OutputFormat    string            `yaml:"output_format"`
	Degradations    []DegradationKind `yaml:"degradations"`
	Randomize       bool              `yaml:"randomize"`
	Print           bool              `yaml:"print"`
	Workers         int               `yaml:"workers"`
	Seed            int64             `yaml:"seed"`
	Metrics         bool              `yaml:"metrics"`
	ContinueOnError bool              `yaml:"continue_on_error"`
}

type BlurConfig struct {
	Algorithms []BlurAlgorithm `yaml:"algorithms"`
	Randomize  bool            `yaml:"randomize"`
	Range      IntRange        `yaml:"range"`
}

type NoiseConfig struct {
	Algorithms []NoiseAlgorithm `yaml:"algorithms"`
	Randomize  bool             `yaml:"randomize"`
	Range      IntRange         `yaml:"range"`
}

type CompressionConfig struct {
	Algorithms        []CompressionAlgorithm `yaml:"algorithms"`
	Randomize         bool                   `yaml:"randomize"`
	JPEGQualityRange  IntRange               `yaml:"jpeg_quality_range"`
	WebPQualityRange  IntRange               `yaml:"webp_quality_range"`
	H264CRFLevelRange IntRange               `yaml:"h264_crf_level_range"`
	HEVCCRFLevelRange IntRange               `yaml:"hevc_crf_level_range"`
	MPEGBitrate       string                 `yaml:"mpeg_bitrate"`
	MPEG2Bitrate      string                 `yaml:"mpeg2_bitrate"`
}

type ScaleConfig struct {
	SizeFactor       float64          `yaml:"size_factor"`
	Algorithms       []ScaleAlgorithm `yaml:"algorithms"`
	DownUpAlgorithms []ScaleAlgorithm `yaml:"down_up_algorithms"`
	Randomize        bool             `yaml:"randomize"`
	Range            FloatRange       `yaml:"range"`
}

type FFmpegConfig struct {
	Binary             string `yaml:"binary"`
	MaxMuxingQueueSize int    `yaml:"max_muxing_queue_size"`
}

// outputFormats are the extensions the writer can encode.
var outputFormats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "bmp": true,
	"tif": true, "tiff": true, "webp": true,
}

// Default returns the settings used for any key the file leaves out.
func Default() *Config {
	return &Config{
		Main: MainConfig{
			InputFolder:  "input",
			OutputFolder: "output",
			OutputFormat: "png",
			Degradations: []DegradationKind{KindBlur, KindNoise, KindCompression, KindScale},
			Workers:      1,
		},
		Blur: BlurConfig{
			Algorithms: []BlurAlgorithm{BlurAverage, BlurGaussian, BlurIsotropic, BlurAnisotropic},
			Range:      IntRange{Low: 1, High: 3},
		},
		Noise: NoiseConfig{
			Algorithms: []NoiseAlgorithm{NoiseUniform, NoiseGaussian, NoiseColor, NoiseGray},
			Range:      IntRange{Low: 0, High: 20},
		},
		Compression: CompressionConfig{
			Algorithms:        []CompressionAlgorithm{CompressionJPEG, CompressionWebP},
			JPEGQualityRange:  IntRange{Low: 40, High: 95},
			WebPQualityRange:  IntRange{Low: 40, High: 95},
			H264CRFLevelRange: IntRange{Low: 20, High: 28},
			HEVCCRFLevelRange: IntRange{Low: 25, High: 33},
			MPEGBitrate:       "500k",
			MPEG2Bitrate:      "1M",
		},
		Scale: ScaleConfig{
			SizeFactor:       0.5,
			Algorithms:       []ScaleAlgorithm{ScaleBicubic, ScaleBilinear, ScaleBox, ScaleNearest, ScaleLanczos, ScaleDownUp},
			DownUpAlgorithms: []ScaleAlgorithm{ScaleBicubic, ScaleBilinear, ScaleBox, ScaleNearest, ScaleLanczos},
			Range:            FloatRange{Low: 0.25, High: 0.75},
		},
		FFmpeg: FFmpegConfig{
			Binary:             "ffmpeg",
			MaxMuxingQueueSize: 300000,
		},
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigurationError{Field: "yaml", Reason: err.Error()}
	}
	cfg.Main.OutputFormat = strings.TrimPrefix(strings.ToLower(cfg.Main.OutputFormat), ".")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides values from DESTROYER_* environment variables.
func (c *Config) ApplyEnv() {
	if bin := os.Getenv("DESTROYER_FFMPEG"); bin != "" {
		c.FFmpeg.Binary = bin
	}
}

// Validate checks every invariant the operators rely on.
func (c *Config) Validate() error {
	if c.Main.InputFolder == "" {
		return invalid("main.input_folder", "must not be empty")
	}
	if c.Main.OutputFolder == "" {
		return invalid("main.output_folder", "must not be empty")
	}
	if !outputFormats[c.Main.OutputFormat] {
		return invalid("main.output_format", "unsupported format %q", c.Main.OutputFormat)
	}
	if c.Main.Workers < 1 {
		return invalid("main.workers", "must be at least 1, got %d", c.Main.Workers)
	}

	seen := make(map[DegradationKind]bool)
	for _, kind := range c.Main.Degradations {
		if !validKind(kind) {
			return invalid("main.degradations", "unknown degradation %q", kind)
		}
		if seen[kind] {
			return invalid("main.degradations", "degradation %q listed twice", kind)
		}
		seen[kind] = true
	}

	if seen[KindBlur] {
		if err := c.validateBlur(); err != nil {
			return err
		}
	}
	if seen[KindNoise] {
		if err := c.validateNoise(); err != nil {
			return err
		}
	}
	if seen[KindCompression] {
		if err := c.validateCompression(); err != nil {
			return err
		}
	}
	if seen[KindScale] {
		if err := c.validateScale(); err != nil {
			return err
		}
	}
	// annotation text is scaled by size_factor too
	if (seen[KindScale] || c.Main.Print) && c.Scale.SizeFactor <= 0 {
		return invalid("scale.size_factor", "must be positive, got %g", c.Scale.SizeFactor)
	}

	if c.FFmpeg.Binary == "" {
		return invalid("ffmpeg.binary", "must not be empty")
	}
	return nil
}

func (c *Config) validateBlur() error {
	if len(c.Blur.Algorithms) == 0 {
		return invalid("blur.algorithms", "must list at least one algorithm")
	}
	for _, a := range c.Blur.Algorithms {
		if !validBlur(a) {
			return invalid("blur.algorithms", "no implementation for %q", a)
		}
		// a 0x0 box kernel is rejected by OpenCV
		if a == BlurAverage && c.Blur.Range.Low < 1 {
			return invalid("blur.range", "average blur needs kernel sizes >= 1")
		}
	}
	return checkIntRange("blur.range", c.Blur.Range, 0)
}

func (c *Config) validateNoise() error {
	if len(c.Noise.Algorithms) == 0 {
		return invalid("noise.algorithms", "must list at least one algorithm")
	}
	for _, a := range c.Noise.Algorithms {
		if !validNoise(a) {
			return invalid("noise.algorithms", "no implementation for %q", a)
		}
	}
	return checkIntRange("noise.range", c.Noise.Range, 0)
}

func (c *Config) validateCompression() error {
	cc := c.Compression
	if len(cc.Algorithms) == 0 {
		return invalid("compression.algorithms", "must list at least one algorithm")
	}
	for _, a := range cc.Algorithms {
		if !validCompression(a) {
			return invalid("compression.algorithms", "no implementation for %q", a)
		}
		var err error
		switch a {
		case CompressionJPEG:
			err = checkIntRange("compression.jpeg_quality_range", cc.JPEGQualityRange, 0)
		case CompressionWebP:
			err = checkIntRange("compression.webp_quality_range", cc.WebPQualityRange, 0)
		case CompressionH264:
			err = checkIntRange("compression.h264_crf_level_range", cc.H264CRFLevelRange, 0)
		case CompressionHEVC:
			err = checkIntRange("compression.hevc_crf_level_range", cc.HEVCCRFLevelRange, 0)
		case CompressionMPEG:
			if cc.MPEGBitrate == "" {
				err = invalid("compression.mpeg_bitrate", "required when mpeg is configured")
			}
		case CompressionMPEG2:
			if cc.MPEG2Bitrate == "" {
				err = invalid("compression.mpeg2_bitrate", "required when mpeg2 is configured")
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateScale() error {
	sc := c.Scale
	if len(sc.Algorithms) == 0 {
		return invalid("scale.algorithms", "must list at least one algorithm")
	}
	downUp := false
	for _, a := range sc.Algorithms {
		if !validScale(a) {
			return invalid("scale.algorithms", "no implementation for %q", a)
		}
		downUp = downUp || a == ScaleDownUp
	}
	if !downUp {
		return nil
	}
	if len(sc.DownUpAlgorithms) == 0 {
		return invalid("scale.down_up_algorithms", "must list at least one kernel when down_up is configured")
	}
	for _, a := range sc.DownUpAlgorithms {
		if !a.IsInterpolation() {
			return invalid("scale.down_up_algorithms", "%q is not an interpolation kernel", a)
		}
	}
	if sc.Range.Low <= 0 || sc.Range.Low > sc.Range.High {
		return invalid("scale.range", "want 0 < low <= high, got %s", sc.Range)
	}
	return nil
}

func checkIntRange(field string, r IntRange, min int) error {
	if r.Low > r.High {
		return invalid(field, "low must not exceed high, got %s", r)
	}
	if r.Low < min {
		return invalid(field, "low must be >= %d, got %s", min, r)
	}
	return nil
}

// HasVideoCompression reports whether any configured compression algorithm
// needs the external codec binary.
func (c *Config) HasVideoCompression() bool {
	enabled := false
	for _, k := range c.Main.Degradations {
		enabled = enabled || k == KindCompression
	}
	if !enabled {
		return false
	}
	for _, a := range c.Compression.Algorithms {
		if a.IsVideo() {
			return true
		}
	}
	return false
}
