package tiler

import (
	"sync"

	"github.com/vkngwrapper/tiler/geom"
	"github.com/vkngwrapper/tiler/tcm"
)

// Block is one reservation of tiler space. A block starts out reserved with every slot pointing at the
// dummy page, may be pinned and unpinned any number of times, and is finished once released.
type Block struct {
	id        uint64
	format    geom.Format
	width     int
	height    int
	container tcm.Container
	area      tcm.Area

	mutex    sync.Mutex
	pinned   bool
	pages    []uint32
	roll     int
	released bool
}

func (b *Block) ID() uint64               { return b.id }
func (b *Block) Format() geom.Format      { return b.format }
func (b *Block) Width() int               { return b.width }
func (b *Block) Height() int              { return b.height }
func (b *Block) Area() tcm.Area           { return b.area }
func (b *Block) Target() tcm.Target       { return b.container.Target() }
func (b *Block) Container() tcm.Container { return b.container }

// Slots is the number of lookup-table entries the block covers
func (b *Block) Slots() int {
	return b.area.SlotCount(b.container.Width())
}

// Pinned returns true if the block's slots currently point at caller pages
func (b *Block) Pinned() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.pinned
}

// Address returns the tiler-space address of the block's first pixel in its natural orientation
func (b *Block) Address() geom.Address {
	g := geom.MustLookup(b.format)
	address, err := geom.TiledAddress(geom.OrientationNatural, b.format, b.area.P0.X*g.SlotWidth, b.area.P0.Y*g.SlotHeight)
	if err != nil {
		panic(err)
	}
	return address
}

// SSPtr returns the system address of the block's first pixel in the natural view
func (b *Block) SSPtr() uint32 {
	return b.Address().SystemAddress()
}

// TSPtr returns the tiler-space address of pixel (x, y) of the block as seen through an orientation.
// Coordinates are relative to the block's top-left corner in the natural view.
func (b *Block) TSPtr(orientation geom.Orientation, x, y int) (geom.Address, error) {
	g := geom.MustLookup(b.format)
	return geom.TiledAddress(orientation, b.format, b.area.P0.X*g.SlotWidth+x, b.area.P0.Y*g.SlotHeight+y)
}

// Stride returns the distance in bytes between rows of the block in its natural orientation, or 0 for
// page-mode blocks
func (b *Block) Stride() int {
	return geom.Stride(b.Address())
}

// View returns a natural view over the block's requested width and height. Page-mode blocks produce a
// view of Width() bytes by one row.
func (b *Block) View() (geom.View, error) {
	return geom.NewView(b.Address(), b.width, b.height)
}

func (b *Block) setPinned(pages []uint32, roll int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.pinned = true
	b.pages = append(b.pages[:0], pages...)
	b.roll = roll
}

func (b *Block) setUnpinned() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.pinned = false
	b.pages = nil
	b.roll = 0
}

// pinnedPages returns the page cache used to refill the block, or false if the block is not pinned
func (b *Block) pinnedPages() ([]uint32, int, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.pages, b.roll, b.pinned
}

func (b *Block) markReleased() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.released {
		return false
	}
	b.released = true
	return true
}

func (b *Block) checkLive() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return !b.released
}
