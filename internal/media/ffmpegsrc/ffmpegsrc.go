// Package ffmpegsrc decodes video frames by shelling out to ffmpeg and
// ffprobe, the way a pipeline stage built around an external transcoder
// composes its subprocess argument list incrementally before exec'ing
// it.
package ffmpegsrc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/loopwave/motionscript/internal/media"
	"github.com/loopwave/motionscript/internal/telemetry"
)

// Binary names resolved on PATH. Exported so a caller can point at a
// vendored build.
var (
	FFmpegPath  = "ffmpeg"
	FFprobePath = "ffprobe"
)

// Source streams raw RGBA frames from a video file by piping ffmpeg's
// stdout. It satisfies media.FrameSource.
type Source struct {
	path       string
	width      int
	height     int
	frameBytes int

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	open   bool
}

// Open starts an ffmpeg subprocess decoding path to raw RGBA frames,
// seeking to startFrame first. info must already be resolved via
// GetVideoInfo so the frame byte size is known up front.
func Open(ctx context.Context, path string, startFrame int, info media.VideoInfo) (*Source, error) {
	var args []string
	if startFrame > 0 && info.FPS > 0 {
		seekSeconds := float64(startFrame) / info.FPS
		args = append(args, "-ss", fmt.Sprintf("%.6f", seekSeconds))
	}
	args = append(args, "-i", path)
	args = append(args, "-f", "rawvideo", "-pix_fmt", "rgba")
	args = append(args, "-an", "-sn")
	args = append(args, "pipe:1")

	cmd := exec.CommandContext(ctx, FFmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpegsrc: stdout pipe: %w", err)
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpegsrc: start ffmpeg: %w", err)
	}

	return &Source{
		path:       path,
		width:      info.Width,
		height:     info.Height,
		frameBytes: info.Width * info.Height * 4,
		cmd:        cmd,
		stdout:     stdout,
		reader:     bufio.NewReaderSize(stdout, 1<<20),
		open:       true,
	}, nil
}

// Read implements media.FrameSource.
func (s *Source) Read(ctx context.Context) (*media.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil, nil
	}

	buf := make([]byte, s.frameBytes)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.open = false
			return nil, nil
		}
		s.open = false
		return nil, fmt.Errorf("ffmpegsrc: read frame: %w", err)
	}

	return &media.Frame{
		Width:  s.width,
		Height: s.height,
		Stride: s.width * 4,
		Pix:    buf,
	}, nil
}

// IsOpen implements media.FrameSource.
func (s *Source) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Stop implements media.FrameSource. Safe to call more than once.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open && s.cmd.ProcessState != nil {
		return nil
	}
	s.open = false
	_ = s.stdout.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	return nil
}

// Getter implements media.FrameGetter against ffprobe/ffmpeg, grabbing
// one decoded frame at a time without keeping a subprocess alive
// between calls.
type Getter struct{}

// GetVideoInfo implements media.FrameGetter.
func (Getter) GetVideoInfo(path string) (media.VideoInfo, error) {
	cmd := exec.Command(FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return media.VideoInfo{}, fmt.Errorf("ffmpegsrc: ffprobe: %w", err)
	}

	var probe struct {
		Streams []struct {
			Width      int    `json:"width"`
			Height     int    `json:"height"`
			RFrameRate string `json:"r_frame_rate"`
			NbFrames   string `json:"nb_frames"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return media.VideoInfo{}, fmt.Errorf("ffmpegsrc: parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return media.VideoInfo{}, fmt.Errorf("ffmpegsrc: no video stream in %s", path)
	}

	s := probe.Streams[0]
	fps, err := parseFrameRate(s.RFrameRate)
	if err != nil {
		return media.VideoInfo{}, err
	}
	length, _ := strconv.Atoi(s.NbFrames)

	return media.VideoInfo{
		FPS:    fps,
		Length: length,
		Width:  s.Width,
		Height: s.Height,
	}, nil
}

// GetFrame implements media.FrameGetter by seeking ffmpeg to index and
// decoding exactly one RGBA frame.
func (g Getter) GetFrame(path string, index int) (*media.Frame, error) {
	info, err := g.GetVideoInfo(path)
	if err != nil {
		return nil, err
	}
	if info.FPS <= 0 {
		return nil, fmt.Errorf("ffmpegsrc: unknown frame rate for %s", path)
	}
	seekSeconds := float64(index) / info.FPS

	args := []string{
		"-ss", fmt.Sprintf("%.6f", seekSeconds),
		"-i", path,
		"-frames:v", "1",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-an", "-sn",
		"pipe:1",
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(FFmpegPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		telemetry.Diagf("ffmpegsrc: frame %d unavailable: %v: %s", index, err, strings.TrimSpace(stderr.String()))
		return nil, fmt.Errorf("ffmpegsrc: decode frame %d: %w", index, err)
	}

	want := info.Width * info.Height * 4
	if stdout.Len() < want {
		return nil, fmt.Errorf("ffmpegsrc: short frame %d: got %d bytes, want %d", index, stdout.Len(), want)
	}

	return &media.Frame{
		Width:  info.Width,
		Height: info.Height,
		Stride: info.Width * 4,
		Pix:    stdout.Bytes()[:want],
	}, nil
}

func parseFrameRate(s string) (float64, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("ffmpegsrc: parse frame rate %q: %w", s, err)
		}
		return v, nil
	}
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, fmt.Errorf("ffmpegsrc: parse frame rate %q: %w", s, err)
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0, fmt.Errorf("ffmpegsrc: parse frame rate %q: %w", s, err)
	}
	return num / den, nil
}
