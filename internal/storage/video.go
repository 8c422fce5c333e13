package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

var ErrFrameSize = errors.New("storage: frame size does not match the video")

// VideoOptions configures the encoder subprocess.
type VideoOptions struct {
	Width    int
	Height   int
	FPS      int
	Lossless bool
	Encoder  string // binary name, ffmpeg when empty
}

func (o VideoOptions) args(out string) []string {
	args := []string{
		"-y", "-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgb24",
		"-video_size", fmt.Sprintf("%dx%d", o.Width, o.Height),
		"-framerate", strconv.Itoa(o.FPS),
		"-i", "-",
	}
	if o.Lossless {
		args = append(args, "-c:v", "libx264rgb", "-crf", "0")
	} else {
		args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p", "-crf", "18")
	}
	return append(args, out)
}

// VideoWriter streams raw frames into an encoder process.
type VideoWriter struct {
	path   string
	opts   VideoOptions
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	buf    []byte
	frames int
	done   bool
}

// NewVideo starts the encoder writing to name.
func (s *Store) NewVideo(name string, o VideoOptions) (*VideoWriter, error) {
	if o.Width <= 0 || o.Height <= 0 || o.FPS <= 0 {
		return nil, fmt.Errorf("storage: video %dx%d at %d fps", o.Width, o.Height, o.FPS)
	}
	enc := o.Encoder
	if enc == "" {
		enc = "ffmpeg"
	}

	v := &VideoWriter{
		path: s.Path(name),
		opts: o,
		buf:  make([]byte, o.Width*o.Height*3),
	}
	v.cmd = exec.Command(enc, o.args(v.path)...)
	v.cmd.Stderr = &v.stderr

	stdin, err := v.cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	v.stdin = stdin

	if err := v.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", enc, err)
	}
	return v, nil
}

func (v *VideoWriter) Path() string { return v.path }

// Frames is the number of frames written so far.
func (v *VideoWriter) Frames() int { return v.frames }

// WriteFrame sends one frame as packed rgb24.
func (v *VideoWriter) WriteFrame(img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() != v.opts.Width || b.Dy() != v.opts.Height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), v.opts.Width, v.opts.Height)
	}

	k := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			copy(v.buf[k:k+3], row[x*4:x*4+3])
			k += 3
		}
	}

	if _, err := v.stdin.Write(v.buf); err != nil {
		return fmt.Errorf("frame %d: %w", v.frames, err)
	}
	v.frames++
	return nil
}

// Close flushes the stream and waits for the encoder. A failed encode leaves
// no output file behind, and its error carries the encoder's last stderr line.
func (v *VideoWriter) Close() error {
	if v.done {
		return nil
	}
	v.done = true

	v.stdin.Close()
	if err := v.cmd.Wait(); err != nil {
		os.Remove(v.path)
		return fmt.Errorf("encoder: %w%s", err, v.diagnostic())
	}
	return nil
}

// Abort stops the encoder and removes the partial output.
func (v *VideoWriter) Abort() {
	if v.done {
		os.Remove(v.path)
		return
	}
	v.done = true

	v.stdin.Close()
	if v.cmd.Process != nil {
		v.cmd.Process.Kill()
	}
	v.cmd.Wait()
	os.Remove(v.path)
}

func (v *VideoWriter) diagnostic() string {
	msg := strings.TrimSpace(v.stderr.String())
	if msg == "" {
		return ""
	}
	if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
		msg = msg[i+1:]
	}
	return ": " + msg
}
