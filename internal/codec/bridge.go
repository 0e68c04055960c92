// Single-frame lossy round trip through an external ffmpeg binary
package codec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// RawPixelFormat is the layout exchanged with ffmpeg: 3 channels, 8 bits
	// per sample, BGR order, rows packed without padding.
	RawPixelFormat = "bgr24"

	// DefaultContainer is the multiplexed stream format shared by every
	// video codec path.
	DefaultContainer = "mpeg"
)

// Arg is one encoder option, rendered as -Name Value.
type Arg struct {
	Name  string
	Value string
}

func (a Arg) String() string {
	return a.Name + "=" + a.Value
}

// Request describes a single-frame transcode.
type Request struct {
	Width  int
	Height int
	// Codec is the ffmpeg encoder name passed to -vcodec.
	Codec string
	// Container defaults to DefaultContainer.
	Container string
	Args      []Arg
	// DecodePixelFormat defaults to RawPixelFormat.
	DecodePixelFormat string
}

// FrameSize is the exact byte count of a decoded frame.
func (r Request) FrameSize() int {
	return r.Width * r.Height * 3
}

// Bridge runs an encoder and a decoder process concurrently, streaming the
// encoder output straight into the decoder. No timeout is applied; the
// context only kills both processes when it is cancelled.
type Bridge struct {
	binary             string
	maxMuxingQueueSize int
	logger             *logrus.Logger
}

func NewBridge(binary string, maxMuxingQueueSize int, logger *logrus.Logger) *Bridge {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Bridge{
		binary:             binary,
		maxMuxingQueueSize: maxMuxingQueueSize,
		logger:             logger,
	}
}

// CheckAvailable verifies the codec binary can be found.
func (b *Bridge) CheckAvailable() error {
	path, err := exec.LookPath(b.binary)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: video compression is unavailable: %w", b.binary, err)
	}
	b.logger.WithField("path", path).Debug("Codec binary found")
	return nil
}

// RoundTrip encodes frame and decodes it back, returning exactly
// req.FrameSize() bytes or an error.
func (b *Bridge) RoundTrip(ctx context.Context, req Request, frame []byte) ([]byte, error) {
	if len(frame) != req.FrameSize() {
		return nil, fmt.Errorf("input frame has %d bytes, want %d for %dx%d", len(frame), req.FrameSize(), req.Width, req.Height)
	}
	raw, diagnostics, err := b.Transcode(ctx, req, frame)
	if err != nil {
		return nil, err
	}
	return Reshape(raw, req.Width, req.Height, diagnostics)
}

// Reshape checks raw holds one height x width x 3 frame.
func Reshape(raw []byte, width, height int, diagnostics string) ([]byte, error) {
	expected := width * height * 3
	if len(raw) != expected {
		return nil, &ReshapeError{
			Width:    width,
			Height:   height,
			Expected: expected,
			Got:      len(raw),
			Stderr:   diagnostics,
		}
	}
	return raw, nil
}

// Transcode runs both processes and returns the decoder's raw output and
// diagnostic stream without checking its size.
func (b *Bridge) Transcode(ctx context.Context, req Request, frame []byte) ([]byte, string, error) {
	start := time.Now()
	log := b.logger.WithFields(logrus.Fields{
		"codec":  req.Codec,
		"width":  req.Width,
		"height": req.Height,
	})

	encoder := exec.CommandContext(ctx, b.binary, b.EncodeArgs(req)...)
	encIn, err := encoder.StdinPipe()
	if err != nil {
		return nil, "", &CodecProcessError{Stage: "encode", Err: err}
	}
	encOut, err := encoder.StdoutPipe()
	if err != nil {
		encIn.Close()
		return nil, "", &CodecProcessError{Stage: "encode", Err: err}
	}
	var encErr bytes.Buffer
	encoder.Stderr = &encErr

	log.WithField("args", encoder.Args).Debug("Starting encoder")
	if err := encoder.Start(); err != nil {
		return nil, "", &CodecProcessError{Stage: "encode", Err: err}
	}

	decoder := exec.CommandContext(ctx, b.binary, b.DecodeArgs(req)...)
	decIn, err := decoder.StdinPipe()
	if err != nil {
		abort(encoder, encIn)
		return nil, "", &CodecProcessError{Stage: "decode", Err: err}
	}
	var decOut, decErr bytes.Buffer
	decoder.Stdout = &decOut
	decoder.Stderr = &decErr

	log.WithField("args", decoder.Args).Debug("Starting decoder")
	if err := decoder.Start(); err != nil {
		abort(encoder, encIn)
		return nil, "", &CodecProcessError{Stage: "decode", Err: err}
	}

	// Writing the frame and forwarding the encoder output run side by side,
	// otherwise the encoder can stall on a full stdout pipe.
	var g errgroup.Group
	g.Go(func() error {
		defer encIn.Close()
		if _, err := encIn.Write(frame); err != nil {
			return fmt.Errorf("write frame to encoder: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer decIn.Close()
		if _, err := io.Copy(decIn, encOut); err != nil {
			// keep draining so the encoder can still exit
			io.Copy(io.Discard, encOut)
			return fmt.Errorf("forward encoder output: %w", err)
		}
		return nil
	})
	streamErr := g.Wait()

	decWaitErr := decoder.Wait()
	encWaitErr := encoder.Wait()

	log.WithFields(logrus.Fields{
		"decoded_bytes": decOut.Len(),
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Debug("Codec round trip finished")

	switch {
	case encWaitErr != nil:
		return nil, "", &CodecProcessError{Stage: "encode", Err: encWaitErr, Stderr: encErr.String()}
	case decWaitErr != nil:
		return nil, "", &CodecProcessError{Stage: "decode", Err: decWaitErr, Stderr: decErr.String()}
	case streamErr != nil:
		return nil, "", &CodecProcessError{Stage: "stream", Err: streamErr, Stderr: encErr.String()}
	}
	return decOut.Bytes(), decErr.String(), nil
}

// EncodeArgs builds the encoder command line: raw frames on stdin, the
// container stream on stdout.
func (b *Bridge) EncodeArgs(req Request) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", RawPixelFormat,
		"-s", fmt.Sprintf("%dx%d", req.Width, req.Height),
		"-i", "pipe:0",
		"-f", containerOf(req),
		"-vcodec", req.Codec,
	}
	for _, a := range req.Args {
		args = append(args, "-"+a.Name, a.Value)
	}
	if b.maxMuxingQueueSize > 0 {
		args = append(args, "-max_muxing_queue_size", strconv.Itoa(b.maxMuxingQueueSize))
	}
	return append(args, "pipe:1")
}

// DecodeArgs builds the decoder command line: container on stdin, raw
// frames on stdout.
func (b *Bridge) DecodeArgs(req Request) []string {
	pixFmt := req.DecodePixelFormat
	if pixFmt == "" {
		pixFmt = RawPixelFormat
	}
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", containerOf(req),
		"-i", "pipe:0",
		"-f", "rawvideo",
		"-pix_fmt", pixFmt,
		"pipe:1",
	}
}

func containerOf(req Request) string {
	if req.Container == "" {
		return DefaultContainer
	}
	return req.Container
}

// abort tears down an encoder whose decoder never started.
func abort(encoder *exec.Cmd, stdin io.Closer) {
	stdin.Close()
	if encoder.Process != nil {
		encoder.Process.Kill()
	}
	encoder.Wait()
}
