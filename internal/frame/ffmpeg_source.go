package frame

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rendiffdev/shotdetect-core/internal/detecterrors"
	"github.com/rendiffdev/shotdetect-core/internal/imgproc"
	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// FFmpegSource decodes a video file into BGR24 frames by piping
// ffmpeg's raw-video muxer through stdout, the way the teacher's
// internal/ffmpeg.FFprobe wraps os/exec around a CLI tool: a
// configurable binary path, a context-scoped timeout, and structured
// logging of the command that is about to run.
type FFmpegSource struct {
	ffprobePath string
	ffmpegPath  string
	logger      zerolog.Logger

	path string
	meta shottypes.VideoMetadata

	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	pos    int
	frameBytes int
}

// ffprobeFormatOutput mirrors the subset of `ffprobe -show_format
// -show_streams -of json` this source needs.
type ffprobeFormatOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecTag   string `json:"codec_tag_string"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		NbFrames   string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// NewFFmpegSource opens path by probing its metadata with ffprobe;
// frame decoding itself is deferred to the first Next()/ReadAt() call
// to keep construction cheap and purely metadata-oriented.
func NewFFmpegSource(ctx context.Context, path, ffprobePath, ffmpegPath string, logger zerolog.Logger) (*FFmpegSource, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if err := validateExtension(strings.ToLower(filepath.Ext(path))); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, sourceUnavailable(path, err)
	}

	meta, err := probeMetadata(ctx, ffprobePath, path, logger)
	if err != nil {
		return nil, err
	}

	return &FFmpegSource{
		ffprobePath: ffprobePath,
		ffmpegPath:  ffmpegPath,
		logger:      logger,
		path:        path,
		meta:        meta,
		frameBytes:  meta.Width * meta.Height * 3,
	}, nil
}

func probeMetadata(ctx context.Context, ffprobePath, path string, logger zerolog.Logger) (shottypes.VideoMetadata, error) {
	args := []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path}
	cmd := exec.CommandContext(ctx, ffprobePath, args...)
	logger.Debug().Str("command", ffprobePath).Strs("args", args).Msg("probing video metadata")

	out, err := cmd.Output()
	if err != nil {
		return shottypes.VideoMetadata{}, sourceUnavailable(path, err)
	}

	var parsed ffprobeFormatOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return shottypes.VideoMetadata{}, sourceUnavailable(path, err)
	}

	for _, s := range parsed.Streams {
		if s.CodecType != "video" {
			continue
		}
		fps := parseFrameRate(s.RFrameRate)
		frameCount, _ := strconv.Atoi(s.NbFrames)
		duration, _ := strconv.ParseFloat(parsed.Format.Duration, 64)
		if frameCount == 0 && fps > 0 && duration > 0 {
			frameCount = int(fps * duration)
		}
		return shottypes.VideoMetadata{
			Width:       s.Width,
			Height:      s.Height,
			FPS:         fps,
			FrameCount:  frameCount,
			CodecTag:    s.CodecTag,
			DurationSec: duration,
		}, nil
	}
	return shottypes.VideoMetadata{}, sourceUnavailable(path, fmt.Errorf("no video stream found"))
}

func parseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func (s *FFmpegSource) Metadata() shottypes.VideoMetadata { return s.meta }

func (s *FFmpegSource) ensureStream(ctx context.Context) error {
	if s.cmd != nil {
		return nil
	}
	args := []string{
		"-v", "quiet",
		"-i", s.path,
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-",
	}
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	s.logger.Debug().Str("command", s.ffmpegPath).Strs("args", args).Msg("decoding frames")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return sourceUnavailable(s.path, err)
	}
	if err := cmd.Start(); err != nil {
		return sourceUnavailable(s.path, err)
	}
	s.cmd = cmd
	s.stdout = stdout
	s.reader = bufio.NewReaderSize(stdout, s.frameBytes*2)
	return nil
}

// Next decodes the next sequential frame from the ffmpeg pipe.
func (s *FFmpegSource) Next() (*imgproc.Frame, error) {
	if err := s.ensureStream(context.Background()); err != nil {
		return nil, err
	}
	buf := make([]byte, s.frameBytes)
	n, err := io.ReadFull(s.reader, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, ErrEndOfStream
	}
	if err != nil {
		if s.pos == 0 {
			return nil, detecterrors.SourceError("decode failed before any frame was produced", s.pos, err)
		}
		return nil, ErrEndOfStream
	}
	if n != s.frameBytes {
		return nil, ErrEndOfStream
	}
	f := &imgproc.Frame{Width: s.meta.Width, Height: s.meta.Height, Stride: s.meta.Width * 3, Pix: buf}
	s.pos++
	return f, nil
}

// ReadAt seeks ffmpeg to the given frame index and decodes a single
// frame. It is implemented as a fresh short-lived ffmpeg invocation
// per seek, trading throughput for simplicity, consistent with
// spec.md §4.1's requirement that the source be single-consumer and
// stateless between indexed reads.
func (s *FFmpegSource) ReadAt(index int) (*imgproc.Frame, error) {
	if index < 0 || index >= s.meta.FrameCount {
		return nil, frameReadError(index)
	}
	ts := 0.0
	if s.meta.FPS > 0 {
		ts = float64(index) / s.meta.FPS
	}
	args := []string{
		"-v", "quiet",
		"-ss", fmt.Sprintf("%.6f", ts),
		"-i", s.path,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-",
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, detecterrors.SourceError("seek decode failed", index, err)
	}
	if len(out) != s.frameBytes {
		return nil, detecterrors.SourceError("short read at seek", index, nil)
	}
	return &imgproc.Frame{Width: s.meta.Width, Height: s.meta.Height, Stride: s.meta.Width * 3, Pix: out}, nil
}

func (s *FFmpegSource) Close() error {
	if s.stdout != nil {
		_ = s.stdout.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	return nil
}
