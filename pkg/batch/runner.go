package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/pawanm992002/nimantran-backend/pkg/billing"
	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/compose"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
	"github.com/pawanm992002/nimantran-backend/pkg/layer"
	"github.com/pawanm992002/nimantran-backend/pkg/observability"
	"github.com/pawanm992002/nimantran-backend/pkg/roster"
	"github.com/pawanm992002/nimantran-backend/pkg/storage"
)

// CompositorFactory builds a fresh per-batch compositor for a medium.
type CompositorFactory func(m card.Medium) (compose.Compositor, error)

// LayerRenderer renders one text region for one guest. *layer.Rasterizer
// is the production implementation.
type LayerRenderer interface {
	Rasterize(ctx context.Context, guest card.Guest, region card.Region, scaling card.Scaling, opts layer.Options) (image.Image, error)
}

// Ensure the production rasterizer satisfies the boundary.
var _ LayerRenderer = (*layer.Rasterizer)(nil)

// Runner executes batches. One Runner serves all batches of a process;
// per-batch state lives on the Prepared value it hands out.
type Runner struct {
	Rasterizer  LayerRenderer
	Compositors CompositorFactory
	Store       storage.Store
	Roster      roster.Store
	Ledger      billing.Ledger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(ras LayerRenderer, factory CompositorFactory, store storage.Store, ro roster.Store, ledger billing.Ledger) *Runner {
	return &Runner{
		Rasterizer:  ras,
		Compositors: factory,
		Store:       store,
		Roster:      ro,
		Ledger:      ledger,
	}
}

// Prepared is a batch that passed every pre-flight check and is ready to
// run. It owns a compositor until Run (or Close) releases it.
type Prepared struct {
	runner   *Runner
	opts     *Options
	comp     compose.Compositor
	template []byte
	closed   bool
}

// Prepare runs every pre-flight check for a batch: option validation, the
// event lookup, template fetch and validation, and the credit check for
// billed batches. An error from Prepare means nothing was rendered,
// uploaded or mutated, so callers can map it to a synchronous rejection.
func (r *Runner) Prepare(ctx context.Context, opts *Options) (*Prepared, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	if _, err := r.Roster.Get(ctx, opts.EventID); err != nil {
		return nil, err
	}

	template, err := r.Store.Get(ctx, storage.UploadPath(opts.EventID, opts.FileName))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResourceUnavailable, err,
			"template %q is not staged for event %s", opts.FileName, opts.EventID)
	}

	comp, err := r.Compositors(opts.Medium)
	if err != nil {
		return nil, err
	}
	if err := comp.ValidateTemplate(template); err != nil {
		comp.Close()
		return nil, err
	}

	if !opts.Sample {
		credits, err := r.Ledger.Credits(ctx, opts.UserID)
		if err != nil {
			comp.Close()
			return nil, err
		}
		if credits-opts.Amount() <= 0 {
			comp.Close()
			return nil, errors.New(errors.ErrCodeInsufficientBalance, "Insufficient Balance")
		}
	}

	return &Prepared{runner: r, opts: opts, comp: comp, template: template}, nil
}

// Close releases the batch's compositor without running it. Safe to call
// after Run, which closes it itself.
func (p *Prepared) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.comp.Close()
}

// Run executes the fan-out. onProgress is invoked once per settled guest,
// in completion order, from the batch's goroutines but never concurrently;
// a nil callback is allowed.
//
// Per-guest failures are reported through onProgress and do not stop the
// batch. Persistence failures (artifact upload, archive upload, roster or
// ledger sync) are terminal and returned, but the roster sync still runs
// on billed batches so the event never stays at "processing".
func (p *Prepared) Run(ctx context.Context, onProgress func(Progress)) (*Result, error) {
	opts := p.opts
	defer p.Close()

	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	if !opts.Sample {
		if err := p.runner.Roster.SetProcessing(ctx, opts.EventID); err != nil {
			return nil, err
		}
	}

	observability.Render().OnBatchStart(ctx, opts.EventID, string(opts.Medium), len(opts.Guests))

	guests := make([]card.Guest, len(opts.Guests))
	copy(guests, opts.Guests)
	outputs := make([][]byte, len(guests))

	var (
		mu        sync.Mutex
		completed int
		failed    int
		terminal  error
	)

	start := time.Now()
	for _, window := range chunk(len(guests), opts.ChunkSize) {
		var wg sync.WaitGroup
		for _, i := range window {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				gctx, cancel := context.WithTimeout(ctx, opts.GuestTimeout)
				defer cancel()

				out, url, err := p.renderGuest(gctx, guests[i])
				observability.Render().OnGuestComplete(ctx, opts.EventID, guests[i].MobileNumber, err)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					if errors.GetCode(err) == errors.ErrCodePersistenceFailed {
						if terminal == nil {
							terminal = err
						}
						return
					}
					opts.Logger.Error("guest render failed",
						"event", opts.EventID, "guest", guests[i].MobileNumber, "err", err)
					onProgress(Progress{Guest: guests[i], Status: StatusFailed, Error: errors.UserMessage(err)})
					return
				}
				completed++
				guests[i].Link = url
				outputs[i] = out
				onProgress(Progress{Guest: guests[i], Status: StatusDone})
			}(i)
		}
		wg.Wait()

		mu.Lock()
		stop := terminal != nil
		mu.Unlock()
		if stop {
			break
		}
	}
	renderTime := time.Since(start)
	observability.Render().OnBatchComplete(ctx, opts.EventID, string(opts.Medium),
		completed, failed, renderTime)

	// Completed counts actual successes: guests in chunks never launched
	// after a terminal failure are neither completed nor failed.
	res := &Result{
		Guests:    guests,
		Completed: completed,
		Failed:    failed,
		Stats:     Stats{RenderTime: renderTime},
	}

	if terminal == nil && opts.Archive {
		archiveStart := time.Now()
		url, err := p.uploadArchive(ctx, guests, outputs)
		if err != nil {
			terminal = err
		} else {
			res.ArchiveURL = url
			res.Stats.ArchiveTime = time.Since(archiveStart)
		}
	}

	// Billed batches settle the roster and the ledger even after a terminal
	// persistence failure; leaving the event at "processing" would wedge it.
	if !opts.Sample {
		customerID, err := p.runner.Roster.Upsert(ctx, opts.EventID, guests)
		if err != nil && terminal == nil {
			terminal = err
		}
		if err == nil {
			debitErr := p.runner.Ledger.Debit(ctx, billing.Transaction{
				AreaOfUse:  string(opts.Medium),
				SenderID:   opts.UserID,
				CustomerID: customerID,
				EventID:    opts.EventID,
				Amount:     opts.Amount(),
				Status:     "completed",
			})
			if debitErr != nil && terminal == nil {
				terminal = debitErr
			}
		}
	}

	if terminal != nil {
		return res, terminal
	}
	return res, nil
}

// renderGuest runs the full per-guest pipeline: rasterize every region,
// compose onto the template, upload, return the artifact bytes and URL.
func (p *Prepared) renderGuest(ctx context.Context, guest card.Guest) ([]byte, string, error) {
	opts := p.opts
	layerOpts := p.comp.LayerOptions()

	layers := make([]compose.Layer, 0, len(opts.Regions))
	for _, region := range opts.Regions {
		// In-process rasterization and composition never watch the context
		// themselves, so the deadline is enforced between stages.
		if ctx.Err() != nil {
			return nil, "", errors.Wrap(errors.ErrCodeTimeout, ctx.Err(),
				"guest %s exceeded the render deadline", guest.MobileNumber)
		}
		img, err := p.runner.Rasterizer.Rasterize(ctx, guest, region, opts.Scaling, layerOpts)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, "", errors.Wrap(errors.ErrCodeTimeout, err,
					"guest %s exceeded the render deadline", guest.MobileNumber)
			}
			return nil, "", err
		}
		layers = append(layers, compose.Layer{Region: region, Image: img})
	}

	out, err := p.comp.Compose(ctx, p.template, layers, opts.Scaling)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, "", errors.Wrap(errors.ErrCodeTimeout, err,
				"guest %s exceeded the render deadline", guest.MobileNumber)
		}
		return nil, "", err
	}

	path := storage.OutputPath(opts.EventID, guest.OutputName(opts.Medium), opts.Sample)
	url, err := p.runner.Store.Put(ctx, out, path)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodePersistenceFailed, err,
			"upload output for guest %s", guest.MobileNumber)
	}
	return out, url, nil
}

// uploadArchive zips every successful output and uploads the bundle next
// to the per-guest artifacts.
func (p *Prepared) uploadArchive(ctx context.Context, guests []card.Guest, outputs [][]byte) (string, error) {
	opts := p.opts

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, out := range outputs {
		if out == nil {
			continue
		}
		w, err := zw.Create(guests[i].OutputName(opts.Medium))
		if err != nil {
			return "", errors.Wrap(errors.ErrCodePersistenceFailed, err, "build archive")
		}
		if _, err := w.Write(out); err != nil {
			return "", errors.Wrap(errors.ErrCodePersistenceFailed, err, "build archive")
		}
	}
	if err := zw.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodePersistenceFailed, err, "build archive")
	}

	path := storage.OutputPath(opts.EventID, opts.ArchiveName(), opts.Sample)
	url, err := p.runner.Store.Put(ctx, buf.Bytes(), path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodePersistenceFailed, err,
			"upload archive %s", opts.ArchiveName())
	}
	opts.Logger.Info("archive uploaded", "event", opts.EventID, "name", opts.ArchiveName(),
		"size", fmt.Sprintf("%.1fKiB", float64(buf.Len())/1024))
	return url, nil
}
