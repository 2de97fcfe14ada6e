// Package compose merges rendered text layers onto a template asset.
//
// Three compositors share one contract: raster images (alpha compositing),
// paged documents (image placement with a bottom-left coordinate flip) and
// video (an ffmpeg filter graph with time-gated overlays and optional motion
// transitions). A compositor instance belongs to one batch: ValidateTemplate
// runs once before the guest fan-out and is batch-fatal on failure, Compose
// runs once per guest and its failures are scoped to that guest.
package compose

import (
	"context"
	"image"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/layer"
)

// Layer is one rendered text region for one guest. Layers are ephemeral:
// they exist only for the duration of a single Compose call and are owned
// by the compositor that consumes them.
type Layer struct {
	Region card.Region
	Image  image.Image
}

// Compositor merges rendered layers onto a template for one guest.
//
// Instances are constructed per batch. ValidateTemplate must be called once
// with the shared template before any Compose call; implementations may
// cache derived state (decoded dimensions, a staged temp file) from it.
// Compose may be called concurrently for different guests.
type Compositor interface {
	// Medium reports which template kind this compositor handles.
	Medium() card.Medium

	// LayerOptions returns the rasterization options this medium requires.
	LayerOptions() layer.Options

	// ValidateTemplate checks the shared template asset is readable.
	// A failure here is fatal to the whole batch.
	ValidateTemplate(template []byte) error

	// Compose renders one guest's output. The template bytes are the same
	// read-only slice for every guest of the batch.
	Compose(ctx context.Context, template []byte, layers []Layer, scaling card.Scaling) ([]byte, error)

	// Close releases per-batch resources (staged temp files).
	Close() error
}

// overlayNudge is the fixed vertical offset, in render-space pixels, applied
// to raster and video overlay placement.
const overlayNudge = 5

// overlayLeft returns the render-space left edge for a region.
func overlayLeft(r card.Region, s card.Scaling) int {
	return int(r.Position.X * s.W)
}

// overlayTop returns the render-space top edge for a region.
func overlayTop(r card.Region, s card.Scaling) int {
	return int(r.Position.Y*s.H + overlayNudge)
}

// FlipY maps a region's design-space top-left Y to the document-space
// bottom-left Y of the placed image. Document pages have a bottom-left
// origin while regions are authored top-left, so the placed image's lower
// edge sits at pageHeight − y·scalingH − height·scalingH.
func FlipY(pageHeight, y, height, scalingH float64) float64 {
	return pageHeight - y*scalingH - height*scalingH
}
