package compose

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
	"github.com/pawanm992002/nimantran-backend/pkg/layer"
)

// pdfQuality oversizes document layers so text stays crisp when the image
// is scaled back down to the region's point dimensions at placement.
const pdfQuality = 5

// PDFCompositor places text layers onto the pages of a PDF template.
//
// Pages have a bottom-left origin while regions are authored with a top-left
// origin, so placement flips the Y axis (see FlipY). Layers are embedded
// fully opaque, width and height scaled by the batch factors.
type PDFCompositor struct {
	conf     *model.Configuration
	pageDims []types.Dim
}

// NewPDFCompositor creates a compositor for PDF templates.
func NewPDFCompositor() *PDFCompositor {
	return &PDFCompositor{conf: model.NewDefaultConfiguration()}
}

// Medium implements Compositor.
func (c *PDFCompositor) Medium() card.Medium { return card.MediumPDF }

// LayerOptions implements Compositor.
func (c *PDFCompositor) LayerOptions() layer.Options {
	return layer.Options{Quality: pdfQuality, Sharpen: true}
}

// ValidateTemplate parses the document and records per-page dimensions.
func (c *PDFCompositor) ValidateTemplate(template []byte) error {
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(template), c.conf)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResourceUnavailable, err, "template is not a readable PDF")
	}
	dims, err := pdfCtx.PageDims()
	if err != nil {
		return errors.Wrap(errors.ErrCodeResourceUnavailable, err, "read PDF page dimensions")
	}
	c.pageDims = dims
	return nil
}

// Compose implements Compositor. Each layer is applied as an image stamp on
// its target page; the document is serialized once all layers are placed.
func (c *PDFCompositor) Compose(ctx context.Context, template []byte, layers []Layer, scaling card.Scaling) ([]byte, error) {
	current := template

	for _, l := range layers {
		if l.Region.Page < 0 || l.Region.Page >= len(c.pageDims) {
			return nil, errors.New(errors.ErrCodeValidation,
				"region %d targets page %d of a %d-page document", l.Region.ID, l.Region.Page, len(c.pageDims))
		}
		page := c.pageDims[l.Region.Page]

		x := l.Region.Position.X * scaling.W
		y := FlipY(page.Height, l.Region.Position.Y, l.Region.Size.Height, scaling.H)

		var buf bytes.Buffer
		if err := png.Encode(&buf, l.Image); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCompositeFailed, err, "encode layer %d", l.Region.ID)
		}

		// The layer buffer is rendered at pdfQuality times its point size;
		// a uniform absolute scale factor brings it back down.
		desc := fmt.Sprintf("pos:bl, off:%.2f %.2f, sc:%.4f abs, rot:0, op:1", x, y, 1.0/pdfQuality)
		wm, err := api.ImageWatermarkForReader(bytes.NewReader(buf.Bytes()), desc, true, false, types.POINTS)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCompositeFailed, err, "build stamp for layer %d", l.Region.ID)
		}

		var out bytes.Buffer
		pages := []string{strconv.Itoa(l.Region.Page + 1)}
		if err := api.AddWatermarks(bytes.NewReader(current), &out, pages, wm, c.conf); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCompositeFailed, err, "place layer %d on page %d", l.Region.ID, l.Region.Page)
		}
		current = out.Bytes()
	}

	return current, nil
}

// Close implements Compositor; PDF compositing holds no temp files.
func (c *PDFCompositor) Close() error { return nil }

// Ensure PDFCompositor implements Compositor.
var _ Compositor = (*PDFCompositor)(nil)
