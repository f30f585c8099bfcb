// Package tiler reserves regions of DMM/TILER tiled address space and maps physical pages into them.
//
// A Tiler owns the containers that tiler space is divided into and the dmm.Device used to program the
// hardware lookup tables behind them. Blocks are reserved in a container, pinned to caller pages, unpinned
// back to the dummy page and finally released. Every pin and unpin is one refill transaction on one of the
// device's refill engines.
package tiler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/dmm"
	"github.com/vkngwrapper/tiler/geom"
	"github.com/vkngwrapper/tiler/internal/utils"
	"github.com/vkngwrapper/tiler/tcm"
	"github.com/vkngwrapper/tiler/tilutils"
	"golang.org/x/exp/slog"
)

// Tiler is the block allocator for one DMM
type Tiler struct {
	logger      *slog.Logger
	device      *dmm.Device
	createFlags CreateFlags

	// containerMutex guards placement state inside every container
	containerMutex   utils.OptionalRWMutex
	containers       []tcm.Container
	formatContainers [geom.FormatCount]int

	blocks blockList
}

// Device returns the DMM this tiler programs
func (t *Tiler) Device() *dmm.Device {
	return t.device
}

// Containers returns every container managed by this tiler, in container order
func (t *Tiler) Containers() []tcm.Container {
	containers := make([]tcm.Container, len(t.containers))
	copy(containers, t.containers)
	return containers
}

// ContainerFor returns the container that blocks of the provided format are reserved in
func (t *Tiler) ContainerFor(format geom.Format) (tcm.Container, error) {
	if !format.Valid() {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError, "unknown format %s", format)
	}
	return t.containers[t.formatContainers[format]], nil
}

// BlockCount returns the number of blocks that have been reserved and not yet released
func (t *Tiler) BlockCount() int {
	return t.blocks.Count()
}

// Destroy closes the DMM. Blocks that were never released are logged and their reservations dropped.
func (t *Tiler) Destroy(ctx context.Context) error {
	t.logger.Debug("Tiler::Destroy")

	blocks := t.blocks.Snapshot()
	for _, block := range blocks {
		t.logger.LogAttrs(ctx, slog.LevelError, "[UNRELEASED BLOCK] block was not released before the tiler was destroyed",
			slog.Uint64("id", block.id),
			slog.String("format", block.format.String()),
			slog.Int("width", block.width),
			slog.Int("height", block.height),
			slog.String("area", block.area.String()),
			slog.Bool("pinned", block.Pinned()),
		)
	}

	err := t.device.Close(ctx)
	if err != nil {
		return err
	}

	if len(blocks) > 0 {
		return errors.Newf("%d blocks were not released before the destruction of this tiler", len(blocks))
	}
	return nil
}

// fill programs every slot of area with pages, walking them from roll in slot-major order. Nil pages point
// every slot at the dummy page. Either every slice of the area is committed or none are.
func (t *Tiler) fill(ctx context.Context, container tcm.Container, area tcm.Area, pages []uint32, roll int, wait bool) error {
	txn, err := t.device.Begin(ctx, dmm.Target(container.Target()))
	if err != nil {
		return err
	}

	t.containerMutex.RLock()
	err = container.ForEachSlice(area, func(slice tcm.Area) error {
		appendErr := txn.Append(dmm.Region{X0: slice.P0.X, Y0: slice.P0.Y, X1: slice.P1.X, Y1: slice.P1.Y}, pages, roll)
		if appendErr != nil {
			return appendErr
		}

		roll += slice.SlotCount(container.Width())
		return nil
	})
	t.containerMutex.RUnlock()
	if err != nil {
		txn.Abort()
		return err
	}

	return txn.Commit(ctx, wait)
}

// Lookup returns the physical page behind every slot of a block, in slot-major order, as last programmed
func (t *Tiler) Lookup(block *Block) ([]uint32, error) {
	if !block.checkLive() {
		return nil, errors.Wrap(tilutils.NotPermittedError, "block has been released")
	}

	target := dmm.Target(block.container.Target())
	pages := make([]uint32, 0, block.Slots())

	t.containerMutex.RLock()
	defer t.containerMutex.RUnlock()

	err := block.container.ForEachSlice(block.area, func(slice tcm.Area) error {
		values, err := t.device.ReadLUT(target, dmm.Region{X0: slice.P0.X, Y0: slice.P0.Y, X1: slice.P1.X, Y1: slice.P1.Y})
		if err != nil {
			return err
		}
		pages = append(pages, values...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pages, nil
}
