package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pawanm992002/nimantran-backend/internal/config"
	"github.com/pawanm992002/nimantran-backend/pkg/batch"
	"github.com/pawanm992002/nimantran-backend/pkg/billing"
	"github.com/pawanm992002/nimantran-backend/pkg/cache"
	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/compose"
	"github.com/pawanm992002/nimantran-backend/pkg/fonts"
	"github.com/pawanm992002/nimantran-backend/pkg/layer"
	"github.com/pawanm992002/nimantran-backend/pkg/roster"
	"github.com/pawanm992002/nimantran-backend/pkg/storage"
)

// localEventID is the roster key used for server-less renders.
const localEventID = "local"

// renderJob is the JSON job file consumed by the render command. The shape
// mirrors the API request body plus the template path and medium that the
// API derives from the route.
type renderJob struct {
	Medium       card.Medium   `json:"medium"`
	Template     string        `json:"template"`
	TextProperty []card.Region `json:"textProperty"`
	ScalingFont  float64       `json:"scalingFont"`
	ScalingW     float64       `json:"scalingW"`
	ScalingH     float64       `json:"scalingH"`
	GuestNames   []card.Guest  `json:"guestNames"`
}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output string // output directory
	sample bool   // use the canned sample roster
	chunk  int    // video fan-out window
}

// newRenderCmd creates the render command for running one batch locally,
// without a server or external stores. Outputs land in a directory and a
// summary is printed per guest.
func newRenderCmd() *cobra.Command {
	opts := renderOpts{output: "out"}

	cmd := &cobra.Command{
		Use:   "render <job.json>",
		Short: "Render one batch locally from a job file",
		Long: `Render one batch locally from a JSON job file.

The job file carries the medium, the template path, the text regions,
the scaling factors and the guest list:

  nimantran render wedding.json -o renders/
  nimantran render wedding.json --sample`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocalRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output directory")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "render the sample roster instead of the job's guest list")
	cmd.Flags().IntVar(&opts.chunk, "chunk-size", 0, "video fan-out window (default 10)")

	return cmd
}

func runLocalRender(ctx context.Context, jobPath string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	data, err := os.ReadFile(jobPath)
	if err != nil {
		return err
	}
	var job renderJob
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("parse %s: %w", jobPath, err)
	}

	template, err := os.ReadFile(job.Template)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	store, err := storage.NewFSStore(opts.output, "")
	if err != nil {
		return err
	}

	fileName := filepath.Base(job.Template)
	if _, err := store.Put(ctx, template, storage.UploadPath(localEventID, fileName)); err != nil {
		return err
	}

	rosterStore := roster.NewMemoryStore()
	rosterStore.Seed(roster.Event{ID: localEventID, ProcessingStatus: roster.StatusIdle})

	fontCache, err := cache.NewFileCache(config.Default().Storage.CacheDir)
	if err != nil {
		return err
	}
	defer fontCache.Close()

	rasterizer := layer.NewRasterizer(fonts.NewResolver(fontCache, logger), logger)
	factory := func(m card.Medium) (compose.Compositor, error) {
		switch m {
		case card.MediumImage:
			return compose.NewImageCompositor(), nil
		case card.MediumPDF:
			return compose.NewPDFCompositor(), nil
		case card.MediumVideo:
			return compose.NewVideoCompositor("ffmpeg", "ffprobe", logger)
		}
		return nil, fmt.Errorf("unknown medium: %s", m)
	}

	// The local ledger exists to satisfy billed-mode bookkeeping; credits
	// are effectively unlimited.
	ledger := billing.NewMemoryLedger(map[string]float64{localEventID: 1e9})
	runner := batch.NewRunner(rasterizer, factory, store, rosterStore, ledger)

	batchOpts := &batch.Options{
		EventID:  localEventID,
		Medium:   job.Medium,
		FileName: fileName,
		Regions:  job.TextProperty,
		Guests:   job.GuestNames,
		Scaling: card.Scaling{
			Font: job.ScalingFont,
			W:    job.ScalingW,
			H:    job.ScalingH,
		},
		Sample:    opts.sample,
		Archive:   true,
		ChunkSize: opts.chunk,
		Logger:    logger,
	}
	if !opts.sample {
		// Billed-mode bookkeeping runs against the local ledger. A job
		// without guests is rejected the same way the API rejects it;
		// --sample is the explicit way to use the canned roster.
		batchOpts.UserID = localEventID
	}

	prepared, err := runner.Prepare(ctx, batchOpts)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	res, err := prepared.Run(ctx, func(p batch.Progress) {
		printGuestLine(p)
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d of %d guests", res.Completed, len(res.Guests)))

	printSummary(res, opts.output)
	return nil
}
