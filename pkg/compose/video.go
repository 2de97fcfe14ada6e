package compose

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
	"github.com/pawanm992002/nimantran-backend/pkg/layer"
)

// VideoCompositor builds an ffmpeg filter graph that overlays text layers
// onto a video template. Each layer becomes one looped image input,
// time-gated to its visibility window and chained through intermediate
// labels so all regions render simultaneously. Output video is re-encoded
// with libx264; the template's first audio stream is passed through when
// present and silently dropped otherwise.
type VideoCompositor struct {
	ffmpegPath  string
	ffprobePath string
	logger      *log.Logger

	workDir      string
	templatePath string
}

// NewVideoCompositor creates a compositor for video templates. Empty binary
// paths default to "ffmpeg" and "ffprobe" on PATH. A nil logger discards
// logs. The compositor stages files in a private temp directory released by
// Close.
func NewVideoCompositor(ffmpegPath, ffprobePath string, logger *log.Logger) (*VideoCompositor, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	dir, err := os.MkdirTemp("", "nimantran-video-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &VideoCompositor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      logger,
		workDir:     dir,
	}, nil
}

// Medium implements Compositor.
func (c *VideoCompositor) Medium() card.Medium { return card.MediumVideo }

// LayerOptions implements Compositor. Video codecs require even overlay
// dimensions; no sharpening is applied to motion layers.
func (c *VideoCompositor) LayerOptions() layer.Options {
	return layer.Options{Quality: 1, EvenDimensions: true}
}

// ValidateTemplate stages the template to disk and probes it. ffmpeg reads
// the template from a file path; staging once lets every guest share it.
func (c *VideoCompositor) ValidateTemplate(template []byte) error {
	path := filepath.Join(c.workDir, "template-"+uuid.NewString()+".mp4")
	if err := os.WriteFile(path, template, 0644); err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, err, "stage video template")
	}

	probe := exec.Command(c.ffprobePath, "-v", "error", "-i", path)
	if out, err := probe.CombinedOutput(); err != nil {
		return errors.Wrap(errors.ErrCodeResourceUnavailable, err,
			"template is not a readable video: %s", tail(string(out)))
	}

	c.templatePath = path
	return nil
}

// Compose implements Compositor.
func (c *VideoCompositor) Compose(ctx context.Context, template []byte, layers []Layer, scaling card.Scaling) ([]byte, error) {
	if c.templatePath == "" {
		return nil, errors.New(errors.ErrCodeInternal, "video template not staged")
	}

	layerPaths := make([]string, len(layers))
	for i, l := range layers {
		path := filepath.Join(c.workDir, "layer-"+uuid.NewString()+".png")
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCompositeFailed, err, "stage layer %d", l.Region.ID)
		}
		err = png.Encode(f, l.Image)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCompositeFailed, err, "encode layer %d", l.Region.ID)
		}
		layerPaths[i] = path
		defer os.Remove(path)
	}

	outPath := filepath.Join(c.workDir, "out-"+uuid.NewString()+".mp4")
	defer os.Remove(outPath)

	args := []string{"-y", "-i", c.templatePath}
	for _, p := range layerPaths {
		args = append(args, "-loop", "1", "-i", p)
	}
	args = append(args,
		"-filter_complex", buildFilterGraph(layers, scaling),
		"-map", "[result]",
		"-map", "0:a:0?",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-shortest",
		outPath,
	)

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCompositeFailed, err, "ffmpeg: %s", tail(string(out)))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCompositeFailed, err, "read encoded video")
	}
	return data, nil
}

// Close removes the staged template and work directory.
func (c *VideoCompositor) Close() error {
	if c.workDir == "" {
		return nil
	}
	return os.RemoveAll(c.workDir)
}

// buildFilterGraph chains one time-gated overlay per region. Region i's
// output label feeds region i+1's input; the last region emits [result].
func buildFilterGraph(layers []Layer, scaling card.Scaling) string {
	var filters []string

	for i, l := range layers {
		xPos := overlayLeft(l.Region, scaling)
		yPos := overlayTop(l.Region, scaling)
		x, y, fade, frameEval := regionMotion(l.Region, xPos, yPos)

		overlayIn := fmt.Sprintf("[%d:v]", i+1)
		if fade != nil {
			faded := fmt.Sprintf("[fade%d]", i+1)
			filters = append(filters, fmt.Sprintf("%sfade=t=in:st=%g:d=%g%s",
				overlayIn, fade.Start, fade.Duration, faded))
			overlayIn = faded
		}

		baseIn := fmt.Sprintf("[tmp%d]", i)
		if i == 0 {
			baseIn = "[0:v]"
		}
		outLabel := fmt.Sprintf("[tmp%d]", i+1)
		if i == len(layers)-1 {
			outLabel = "[result]"
		}

		opts := fmt.Sprintf("x='%s':y='%s':enable='between(t,%g,%g)'",
			x.Compile(), y.Compile(), l.Region.StartTime, l.Region.EndTime())
		if frameEval {
			opts += ":eval=frame"
		}

		filters = append(filters, fmt.Sprintf("%s%soverlay=%s%s", baseIn, overlayIn, opts, outLabel))
	}

	return strings.Join(filters, ";")
}

// tail returns the last few lines of ffmpeg output for error messages.
func tail(s string) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " | ")
}

// Ensure VideoCompositor implements Compositor.
var _ Compositor = (*VideoCompositor)(nil)
