package compose

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
	"github.com/pawanm992002/nimantran-backend/pkg/layer"
)

// ImageCompositor alpha-composites text layers onto a raster template.
// Output is re-encoded in the template's native format (PNG, JPEG or WebP).
type ImageCompositor struct {
	format string // detected by ValidateTemplate
}

// NewImageCompositor creates a compositor for raster templates.
func NewImageCompositor() *ImageCompositor {
	return &ImageCompositor{}
}

// Medium implements Compositor.
func (c *ImageCompositor) Medium() card.Medium { return card.MediumImage }

// LayerOptions implements Compositor. Raster layers are sharpened after
// drawing, matching the quality pass applied to card outputs.
func (c *ImageCompositor) LayerOptions() layer.Options {
	return layer.Options{Quality: 1, Sharpen: true}
}

// ValidateTemplate decodes the template header and records its format.
func (c *ImageCompositor) ValidateTemplate(template []byte) error {
	_, format, err := decodeImage(template)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResourceUnavailable, err, "template is not a readable image")
	}
	c.format = format
	return nil
}

// Compose implements Compositor.
func (c *ImageCompositor) Compose(ctx context.Context, template []byte, layers []Layer, scaling card.Scaling) ([]byte, error) {
	base, format, err := decodeImage(template)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceUnavailable, err, "decode template image")
	}

	out := image.NewRGBA(base.Bounds())
	draw.Draw(out, out.Bounds(), base, base.Bounds().Min, draw.Src)

	for _, l := range layers {
		left := overlayLeft(l.Region, scaling)
		top := overlayTop(l.Region, scaling)
		r := l.Image.Bounds().Sub(l.Image.Bounds().Min).Add(image.Pt(left, top))
		draw.Draw(out, r, l.Image, l.Image.Bounds().Min, draw.Over)
	}

	data, err := encodeImage(out, format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCompositeFailed, err, "encode %s output", format)
	}
	return data, nil
}

// Close implements Compositor; image compositing holds no batch state.
func (c *ImageCompositor) Close() error { return nil }

// decodeImage decodes PNG, JPEG or WebP template bytes.
func decodeImage(data []byte) (image.Image, string, error) {
	if isWEBP(data) {
		img, err := webp.Decode(bytes.NewReader(data), &decoder.Options{})
		return img, "webp", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	return img, format, err
}

// encodeImage re-encodes the composite in the template's native format.
func encodeImage(img image.Image, format string) ([]byte, error) {
	var out bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, err
		}
	case "webp":
		opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 85)
		if err != nil {
			return nil, err
		}
		if err := webp.Encode(&out, img, opts); err != nil {
			return nil, err
		}
	default:
		if err := png.Encode(&out, img); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

// isWEBP sniffs the RIFF/WEBP container header.
func isWEBP(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	return string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

// Ensure ImageCompositor implements Compositor.
var _ Compositor = (*ImageCompositor)(nil)
