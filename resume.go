package tiler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/dmm"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Resume reprograms the lookup tables after they have lost their contents, for instance across a
// low-power state. Every container is cleared to the dummy page and every pinned block is refilled from
// the pages it was last pinned with. Refills run concurrently, at most one per refill engine.
func (t *Tiler) Resume(ctx context.Context) error {
	t.logger.Debug("Tiler::Resume")

	var err error
	for _, container := range t.containers {
		clearErr := t.device.Clear(ctx, dmm.Target(container.Target()))
		if clearErr != nil {
			t.logger.LogAttrs(ctx, slog.LevelError, "could not clear container during resume",
				slog.Int("LUT", container.Target().LUT),
				slog.Int("YOffset", container.Target().YOffset),
				slog.Any("error", clearErr),
			)
			err = errors.CombineErrors(err, clearErr)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(t.device.NumEngines())

	for _, block := range t.blocks.Snapshot() {
		pages, roll, pinned := block.pinnedPages()
		if !pinned {
			continue
		}

		block := block
		group.Go(func() error {
			fillErr := t.fill(groupCtx, block.container, block.area, pages, roll, true)
			if fillErr != nil {
				return errors.Wrapf(fillErr, "could not refill block %d", block.id)
			}
			return nil
		})
	}

	return errors.CombineErrors(err, group.Wait())
}
