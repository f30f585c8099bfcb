package tiler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/geom"
	"github.com/vkngwrapper/tiler/tilutils"
	"golang.org/x/exp/slog"
)

// minimumAlignment is the smallest alignment in bytes the hardware accepts for a 2D block's left edge
const minimumAlignment = 128

// Reserve2D places a width x height pixel block of a 2D format. The block's left edge is aligned to at least
// align bytes, and never less than 128 bytes or one slot row. Every slot of the new block points at the dummy
// page until it is pinned.
func (t *Tiler) Reserve2D(format geom.Format, width, height, align int) (*Block, error) {
	t.logger.Debug("Tiler::Reserve2D",
		slog.String("Format", format.String()),
		slog.Int("Width", width),
		slog.Int("Height", height),
		slog.Int("Align", align),
	)

	g, err := geom.Lookup(format)
	if err != nil {
		return nil, err
	}
	if !format.Is2D() {
		return nil, errors.Wrap(tilutils.InvalidArgumentError, "page-mode blocks must be reserved with Reserve1D")
	}
	if width <= 0 || height <= 0 || align < 0 {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError, "cannot reserve %dx%d aligned to %d", width, height, align)
	}

	container := t.containers[t.formatContainers[format]]
	slotsWide, slotsHigh := g.Slots(width, height)
	if slotsWide > container.Width() || slotsHigh > container.Height() {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError,
			"%dx%d %s pixels need %dx%d slots, more than the %dx%d container",
			width, height, format, slotsWide, slotsHigh, container.Width(), container.Height())
	}

	slotBytes := g.SlotBytes()
	minAlign := max(minimumAlignment, slotBytes)
	if align > minAlign {
		align = tilutils.RoundUp(align, minAlign)
	} else {
		align = minAlign
	}

	t.containerMutex.Lock()
	area, err := container.Reserve2D(slotsWide, slotsHigh, align/slotBytes)
	if err == nil {
		tilutils.DebugValidate(container)
	}
	t.containerMutex.Unlock()
	if err != nil {
		return nil, err
	}

	block := &Block{
		format:    format,
		width:     width,
		height:    height,
		container: container,
		area:      area,
	}
	t.blocks.Register(block)

	return block, nil
}

// Reserve1D places a page-mode block of at least size bytes. Every slot of the new block points at the dummy
// page until it is pinned.
func (t *Tiler) Reserve1D(size int) (*Block, error) {
	t.logger.Debug("Tiler::Reserve1D", slog.Int("Size", size))

	if size <= 0 {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError, "cannot reserve %d bytes", size)
	}

	container := t.containers[t.formatContainers[geom.FormatPage]]
	pageCount := tilutils.CeilDiv(size, geom.PageSize)
	if pageCount > container.Width()*container.Height() {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError,
			"%d bytes need %d pages, more than the %d slot container", size, pageCount, container.Width()*container.Height())
	}

	t.containerMutex.Lock()
	area, err := container.Reserve1D(pageCount)
	if err == nil {
		tilutils.DebugValidate(container)
	}
	t.containerMutex.Unlock()
	if err != nil {
		return nil, err
	}

	block := &Block{
		format:    geom.FormatPage,
		width:     size,
		height:    1,
		container: container,
		area:      area,
	}
	t.blocks.Register(block)

	return block, nil
}

// Pin points the block's slots at pages, in slot-major order starting from pages[roll] and wrapping
// around. Zero entries map the dummy page. If wait is false, Pin returns as soon as the refill has been
// started.
//
// A failed pin unpins the block before returning, so the block is never left partially mapped.
func (t *Tiler) Pin(ctx context.Context, block *Block, pages []uint32, roll int, wait bool) error {
	t.logger.Debug("Tiler::Pin",
		slog.Uint64("Block", block.id),
		slog.Int("Pages", len(pages)),
		slog.Int("Roll", roll),
		slog.Bool("Wait", wait),
	)

	if len(pages) == 0 {
		return errors.Wrap(tilutils.InvalidArgumentError, "cannot pin a block to an empty page list")
	}

	return t.pin(ctx, block, pages, roll, wait)
}

// PinPhys points the block's slots at physically contiguous addresses that do not belong to the page
// allocator, and always waits for the hardware to finish
func (t *Tiler) PinPhys(ctx context.Context, block *Block, addresses []uint32) error {
	t.logger.Debug("Tiler::PinPhys",
		slog.Uint64("Block", block.id),
		slog.Int("Addresses", len(addresses)),
	)

	if len(addresses) == 0 {
		return errors.Wrap(tilutils.InvalidArgumentError, "cannot pin a block to an empty address list")
	}
	for _, address := range addresses {
		if address%geom.PageSize != 0 {
			return errors.Wrapf(tilutils.InvalidArgumentError, "physical address %#x is not page aligned", address)
		}
	}

	return t.pin(ctx, block, addresses, 0, true)
}

func (t *Tiler) pin(ctx context.Context, block *Block, pages []uint32, roll int, wait bool) error {
	if !block.checkLive() {
		return errors.Wrap(tilutils.NotPermittedError, "cannot pin a released block")
	}

	err := t.fill(ctx, block.container, block.area, pages, roll, wait)
	if err != nil {
		unpinErr := t.unpin(ctx, block)
		if unpinErr != nil {
			t.logger.LogAttrs(ctx, slog.LevelError, "could not unpin block after a failed pin",
				slog.Uint64("block", block.id),
				slog.Any("error", unpinErr),
			)
		}
		return err
	}

	block.setPinned(pages, roll)
	return nil
}

// Unpin points every slot of the block back at the dummy page. Unpinning a block that is not pinned is
// allowed and leaves the lookup table as it was.
func (t *Tiler) Unpin(ctx context.Context, block *Block) error {
	t.logger.Debug("Tiler::Unpin", slog.Uint64("Block", block.id))

	if !block.checkLive() {
		return errors.Wrap(tilutils.NotPermittedError, "cannot unpin a released block")
	}

	return t.unpin(ctx, block)
}

func (t *Tiler) unpin(ctx context.Context, block *Block) error {
	err := t.fill(ctx, block.container, block.area, nil, 0, t.createFlags&CreateSynchronousUnpin != 0)
	if err != nil {
		return err
	}

	block.setUnpinned()
	return nil
}

// Release returns the block's space to its container. The block should be unpinned first: the lookup
// table is left as it is, and the next block placed there overwrites it when it is pinned. Releasing a
// block twice panics.
func (t *Tiler) Release(block *Block) error {
	t.logger.Debug("Tiler::Release", slog.Uint64("Block", block.id))

	if !block.markReleased() {
		panic("block was released twice")
	}
	tilutils.DebugAssert(!block.Pinned(), "released a block that still has pages pinned")

	if !t.blocks.Unregister(block) {
		panic("released a block that this tiler did not reserve")
	}

	t.containerMutex.Lock()
	defer t.containerMutex.Unlock()

	err := block.container.Free(block.area)
	if err != nil {
		return err
	}
	tilutils.DebugValidate(block.container)

	return nil
}
