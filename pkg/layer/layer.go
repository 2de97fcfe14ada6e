// Package layer renders one styled, auto-fitted text region into a
// standalone pixel buffer.
//
// A layer is rasterized in render space: the region's design-space position
// and size are multiplied by the batch scaling factors (and an optional
// quality multiplier) before drawing. Text is centered both ways and the
// font size shrinks until the measured width fits the surface — height
// overflow is not corrected.
package layer

import (
	"context"
	"image"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
	"github.com/pawanm992002/nimantran-backend/pkg/fonts"
)

// Options controls rasterization for one medium.
type Options struct {
	// Quality multiplies all pixel dimensions and the font size. Document
	// layers are rendered oversized (quality 5) and scaled down at placement
	// so text stays crisp in the PDF.
	Quality float64

	// EvenDimensions rounds surface dimensions up to even integers. Video
	// codecs require even frame sizes for overlay inputs.
	EvenDimensions bool

	// Sharpen applies a sharpening pass to the finished buffer.
	Sharpen bool
}

// Rasterizer renders text regions using fonts from a Resolver.
// Safe for concurrent use; each call draws on its own surface.
type Rasterizer struct {
	fonts  *fonts.Resolver
	logger *log.Logger
}

// NewRasterizer creates a rasterizer. A nil logger discards logs.
func NewRasterizer(resolver *fonts.Resolver, logger *log.Logger) *Rasterizer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Rasterizer{fonts: resolver, logger: logger}
}

// Rasterize renders the region's text, substituted for the given guest, into
// a pixel buffer. Font resolution failures carry RESOURCE_UNAVAILABLE and
// abort only this guest's render; other failures are COMPOSITE_FAILED.
func (r *Rasterizer) Rasterize(ctx context.Context, guest card.Guest, region card.Region, scaling card.Scaling, opts Options) (image.Image, error) {
	if opts.Quality <= 0 {
		opts.Quality = 1
	}

	fontData, err := r.fonts.Resolve(ctx, region.FontFamily)
	if err != nil {
		return nil, err
	}
	ft, err := truetype.Parse(fontData)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceUnavailable, err, "font asset for %q is unusable", region.FontFamily)
	}

	w := PixelDim(region.Size.Width*scaling.W*opts.Quality, opts.EvenDimensions)
	h := PixelDim(region.Size.Height*scaling.H*opts.Quality, opts.EvenDimensions)

	dc := gg.NewContext(w, h)

	// The surface stays fully transparent unless a background is requested.
	if region.BackgroundColor != "" && region.BackgroundColor != "none" {
		bg, err := ParseColor(region.BackgroundColor)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCompositeFailed, err, "region %d background", region.ID)
		}
		dc.SetColor(bg)
		dc.Clear()
	}

	text := card.Substitute(region.Text, guest)

	// Shrink-to-fit: decrement from the scaled design size until the
	// measured width fits. FontWeight and FontStyle are advisory; a family
	// resolves to a single face and we render what it gives us.
	size := FitFontSize(func(s float64) float64 {
		dc.SetFontFace(truetype.NewFace(ft, &truetype.Options{Size: s}))
		tw, _ := dc.MeasureString(text)
		return tw
	}, region.FontSize*scaling.Font*opts.Quality, float64(w))

	fg, err := ParseColor(region.FontColor)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCompositeFailed, err, "region %d font color", region.ID)
	}
	dc.SetColor(fg)
	dc.SetFontFace(truetype.NewFace(ft, &truetype.Options{Size: size}))

	cx, cy := float64(w)/2, float64(h)/2
	dc.DrawStringAnchored(text, cx, cy, 0.5, 0.5)

	if region.Underline {
		tw, _ := dc.MeasureString(text)
		stroke := size / 15
		y := cy + size/2 + stroke
		dc.SetLineWidth(stroke)
		dc.DrawLine(cx-tw/2, y, cx+tw/2, y)
		dc.Stroke()
	}

	img := dc.Image()
	if opts.Sharpen {
		img = imaging.Sharpen(img, 0.5)
	}
	return img, nil
}

// PixelDim converts a render-space dimension to integer pixels, rounding up
// to the next even integer when the target codec requires it.
func PixelDim(v float64, even bool) int {
	d := int(v)
	if d < 1 {
		d = 1
	}
	if even && d%2 != 0 {
		d++
	}
	return d
}

// FitFontSize decrements size from initial until measure(size) fits within
// maxWidth or size reaches 1. It terminates in at most initial iterations
// and guarantees the returned size never overflows maxWidth unless already
// at the 1px floor.
func FitFontSize(measure func(size float64) float64, initial, maxWidth float64) float64 {
	size := math.Floor(initial)
	if size < 1 {
		size = 1
	}
	for size > 1 && measure(size) > maxWidth {
		size--
	}
	return size
}
