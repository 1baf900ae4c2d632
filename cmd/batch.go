package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cardfolio/cardscan-cli/internal/enrich"
	"github.com/cardfolio/cardscan-cli/internal/store"
)

var (
	batchDir   string
	batchLimit int
)

// imageExtensions are the card image formats the batch scanner picks up.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

var batchCmd = &cobra.Command{
	Use:   "batch [images...]",
	Short: "Scan multiple card images concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		images, err := collectImages(args, batchDir, batchLimit)
		if err != nil {
			return err
		}

		env, err := initScanEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return processBatch(ctx, env.Store, images, cfg.Batch.MaxConcurrentScans, env.Orchestrator.Process)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of card images to scan")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of images to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// collectImages merges explicit arguments with a directory listing and
// applies the limit.
func collectImages(args []string, dir string, limit int) ([]string, error) {
	images := append([]string{}, args...)

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, eris.Wrapf(err, "read image directory %s", dir)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				images = append(images, filepath.Join(dir, entry.Name()))
			}
		}
	}

	if len(images) == 0 {
		return nil, eris.New("no images to scan: pass image paths or --dir")
	}
	if limit > 0 && len(images) > limit {
		images = images[:limit]
	}
	return images, nil
}

// scanFunc runs one scan; the orchestrator's Process satisfies it.
type scanFunc func(ctx context.Context, req enrich.ScanRequest) *enrich.ScanOutcome

// processBatch scans images concurrently, persisting every outcome. Scans
// never fail, so only storage errors count as failures.
func processBatch(ctx context.Context, st store.Store, images []string, concurrency int, scan scanFunc) error {
	if concurrency <= 0 {
		concurrency = 3
	}

	zap.L().Info("processing batch",
		zap.Int("images", len(images)),
		zap.Int("concurrency", concurrency),
	)

	var saved, fellBack, failed atomic.Int64
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, image := range images {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			outcome := scan(gctx, enrich.ScanRequest{
				ImageURI:     image,
				UserIndustry: cfg.Pipeline.UserIndustry,
			})
			if outcome.FellBack {
				fellBack.Add(1)
			}

			if err := st.AddContact(gctx, &outcome.Contact); err != nil {
				failed.Add(1)
				zap.L().Error("batch save failed",
					zap.String("image", image),
					zap.Error(err),
				)
				return nil
			}

			saved.Add(1)
			zap.L().Info("card scanned",
				zap.String("image", image),
				zap.String("contact_id", outcome.Contact.ID),
				zap.String("name", outcome.Contact.Name),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch interrupted")
	}

	zap.L().Info("batch complete",
		zap.Int64("saved", saved.Load()),
		zap.Int64("fell_back", fellBack.Load()),
		zap.Int64("save_failures", failed.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)
	if n := failed.Load(); n > 0 {
		return eris.Errorf("batch finished with %d save failures", n)
	}
	return nil
}
