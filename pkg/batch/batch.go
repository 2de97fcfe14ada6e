// Package batch fans a guest list out across a medium compositor with
// bounded concurrency, streams per-guest progress, aggregates outputs and
// settles the roster and the credit ledger.
//
// # Architecture
//
// A batch runs in two phases:
//
//  1. Prepare: validate options, load the event, fetch and validate the
//     template, check the credit balance. Every failure here is pre-flight:
//     it is returned synchronously and nothing has been rendered, uploaded
//     or mutated.
//  2. Run: chunked guest fan-out → rasterize → compose → upload, one
//     progress callback per settled guest in completion order, then the
//     zip aggregation, the roster upsert and the billing debit.
//
// Per-guest failures (missing font, corrupt layer, timeout) are scoped to
// that guest: its progress event reports failure and the batch continues.
// Persistence failures after the stream has started are terminal, but the
// roster sync still runs so the event never stays stuck at "processing".
package batch

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
)

// Default values shared by CLI and API entry points.
const (
	// DefaultChunkSize bounds concurrent heavy renders for video batches.
	// Image and document batches fan out fully (chunk size = guest count).
	DefaultChunkSize = 10

	// DefaultGuestTimeout bounds one guest's render+upload. A guest that
	// exceeds it fails alone; the batch continues.
	DefaultGuestTimeout = 5 * time.Minute
)

// Progress statuses.
const (
	StatusDone   = "done"
	StatusFailed = "failed"
)

// Progress is one per-guest completion event. Events arrive in completion
// order, not submission order; consumers must key on the mobile number.
type Progress struct {
	Guest  card.Guest `json:"guest"`
	Status string     `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// Options contains all configuration for one batch.
// This struct supports JSON serialization for API requests.
type Options struct {
	EventID  string        `json:"event_id"`
	Medium   card.Medium   `json:"medium"`
	FileName string        `json:"file_name"` // template staged under uploads/<event>/
	Regions  []card.Region `json:"regions"`
	Guests   []card.Guest  `json:"guests,omitempty"`
	Scaling  card.Scaling  `json:"scaling"`
	Sample   bool          `json:"sample"`
	UserID   string        `json:"user_id,omitempty"` // required in billed mode

	// Archive bundles all outputs into one zip uploaded after the fan-out.
	Archive bool `json:"archive"`

	ChunkSize    int           `json:"chunk_size,omitempty"`
	GuestTimeout time.Duration `json:"guest_timeout,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once. In sample mode the canned roster replaces Guests.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if err := errors.ValidateEventID(o.EventID); err != nil {
		return err
	}
	if !o.Medium.Valid() {
		return errors.New(errors.ErrCodeValidation, "unknown medium %q", o.Medium)
	}
	if err := errors.ValidateFileName(o.FileName); err != nil {
		return err
	}
	if len(o.Regions) == 0 {
		return errors.New(errors.ErrCodeValidation, "First Put some text box")
	}
	for _, r := range o.Regions {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	if err := o.Scaling.Validate(); err != nil {
		return err
	}

	if o.Sample {
		o.Guests = card.SampleGuests()
	} else {
		if len(o.Guests) == 0 {
			return errors.New(errors.ErrCodeValidation, "Please provide the guest list")
		}
		if o.UserID == "" {
			return errors.New(errors.ErrCodeValidation, "user id is required for billed batches")
		}
		for _, g := range o.Guests {
			if err := errors.ValidateMobileNumber(g.MobileNumber); err != nil {
				return err
			}
		}
	}

	if o.ChunkSize == 0 && o.Medium == card.MediumVideo {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkSize <= 0 || o.ChunkSize > len(o.Guests) {
		o.ChunkSize = len(o.Guests)
	}
	if o.GuestTimeout <= 0 {
		o.GuestTimeout = DefaultGuestTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// UnitCost returns the per-guest credit cost for this batch's medium.
func (o *Options) UnitCost() float64 {
	return o.Medium.UnitCost()
}

// Amount returns the total debit for this batch, computed from the
// requested guest count (not the completed count).
func (o *Options) Amount() float64 {
	return o.UnitCost() * float64(len(o.Guests))
}

// ArchiveName returns the name of the aggregated zip bundle.
func (o *Options) ArchiveName() string {
	return "processed_" + string(o.Medium) + "s.zip"
}

// Result contains the outputs of a completed batch.
type Result struct {
	// ArchiveURL is set when the batch aggregated its outputs into a zip.
	ArchiveURL string `json:"archive_url,omitempty"`

	// Guests is the full roster with Link set on every successful guest.
	Guests []card.Guest `json:"guests"`

	// Completed and Failed count settled guests by outcome.
	Completed int `json:"completed"`
	Failed    int `json:"failed"`

	// Stats contains timing information.
	Stats Stats `json:"stats"`
}

// Stats contains batch execution statistics.
type Stats struct {
	RenderTime  time.Duration `json:"render_time"`
	ArchiveTime time.Duration `json:"archive_time,omitempty"`
}

// chunk splits guests indices into fixed-size windows. Chunk N+1 does not
// start until chunk N's guests have all settled, bounding peak resource
// usage at size concurrent heavy operations.
func chunk(n, size int) [][]int {
	if size <= 0 {
		size = n
	}
	var out [][]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		idx := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			idx = append(idx, i)
		}
		out = append(out, idx)
	}
	return out
}
