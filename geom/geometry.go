// Package geom holds the tiler's fixed address-space geometry: the per-format slot table and the
// address algebra used to move between (orientation, x, y) coordinates and tiler-space addresses.
// Everything in this package is pure.
package geom

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/tilutils"
)

// Format identifies one of the pixel-size views of the tiler address space
type Format uint32

const (
	// Format8Bit addresses the container with 1 byte per pixel
	Format8Bit Format = iota
	// Format16Bit addresses the container with 2 bytes per pixel
	Format16Bit
	// Format32Bit addresses the container with 4 bytes per pixel
	Format32Bit
	// FormatPage addresses the container as a linear sequence of 4KiB pages
	FormatPage

	// FormatCount is the number of supported formats
	FormatCount int = iota
)

var formatMapping = map[Format]string{
	Format8Bit:  "Format8Bit",
	Format16Bit: "Format16Bit",
	Format32Bit: "Format32Bit",
	FormatPage:  "FormatPage",
}

func (f Format) String() string {
	str, ok := formatMapping[f]
	if !ok {
		return fmt.Sprintf("Format(%d)", uint32(f))
	}
	return str
}

// Valid returns true if the format is one of the four supported formats
func (f Format) Valid() bool {
	return f < Format(FormatCount)
}

// Is2D returns true for the pixel formats and false for the page format
func (f Format) Is2D() bool {
	return f != FormatPage
}

const (
	// SlotWidthBits is the number of address bits covered by one slot horizontally in 8-bit mode
	SlotWidthBits = 6
	// SlotHeightBits is the number of address bits covered by one slot vertically in 8-bit mode
	SlotHeightBits = 6
	// ContainerWidthBits is the number of horizontal address bits in 8-bit mode
	ContainerWidthBits = 14
	// ContainerHeightBits is the number of vertical address bits in 8-bit mode
	ContainerHeightBits = 13

	// PageSize is the number of bytes behind every slot
	PageSize = 1 << (SlotWidthBits + SlotHeightBits)
	// ContainerWidth is the width of a container in slots
	ContainerWidth = 1 << (ContainerWidthBits - SlotWidthBits)
	// ContainerHeight is the height of a container in slots
	ContainerHeight = 1 << (ContainerHeightBits - SlotHeightBits)

	// ViewSize is the size in bytes of the address range covered by one format
	ViewSize = 1 << (ContainerWidthBits + ContainerHeightBits)
	// ViewMask masks the coordinate portion of a tiler-space address
	ViewMask = ViewSize - 1

	// ViewBase is the system address of the 8-bit natural view. The other formats follow at
	// ViewSize intervals.
	ViewBase uint32 = 0x60000000
	// ViewEnd is the first system address after the page view
	ViewEnd uint32 = ViewBase + uint32(FormatCount)*ViewSize
)

// Geometry describes how pixel coordinates in one format map onto hardware slots
type Geometry struct {
	// XShift is the number of horizontal address bits consumed by the pixel size
	XShift int
	// YShift is the number of vertical address bits consumed by the pixel size
	YShift int
	// BytesPerPixel is the size of one pixel in this format
	BytesPerPixel int
	// SlotWidth is the width of one slot in pixels
	SlotWidth int
	// SlotHeight is the height of one slot in pixels
	SlotHeight int
}

func newGeometry(xShift, yShift, bytesPerPixel int) Geometry {
	return Geometry{
		XShift:        xShift,
		YShift:        yShift,
		BytesPerPixel: bytesPerPixel,
		SlotWidth:     1 << (SlotWidthBits - xShift),
		SlotHeight:    1 << (SlotHeightBits - yShift),
	}
}

var geometries = [FormatCount]Geometry{
	Format8Bit:  newGeometry(0, 0, 1),
	Format16Bit: newGeometry(0, 1, 2),
	Format32Bit: newGeometry(1, 1, 4),
	FormatPage:  newGeometry(SlotWidthBits, SlotHeightBits, 1),
}

// Lookup returns the geometry of a format, or an error if the format is not one of the supported formats
func Lookup(format Format) (Geometry, error) {
	if !format.Valid() {
		return Geometry{}, errors.Wrapf(tilutils.InvalidArgumentError, "unknown format %s", format)
	}

	return geometries[format], nil
}

// MustLookup returns the geometry of a format and panics if the format is invalid
func MustLookup(format Format) Geometry {
	g, err := Lookup(format)
	if err != nil {
		panic(err)
	}
	return g
}

// AddressBits returns the number of coordinate bits available to x and y in this format
func (g Geometry) AddressBits() (xBits, yBits int) {
	return ContainerWidthBits - g.XShift, ContainerHeightBits - g.YShift
}

// Alignment is the number of low address bits below the coordinate fields
func (g Geometry) Alignment() int {
	return g.XShift + g.YShift
}

// SlotBytes is the number of bytes in one row of a slot
func (g Geometry) SlotBytes() int {
	return g.SlotWidth * g.BytesPerPixel
}

// Slots converts a pixel width and height into slot counts, rounding up
func (g Geometry) Slots(width, height int) (int, int) {
	return tilutils.CeilDiv(width, g.SlotWidth), tilutils.CeilDiv(height, g.SlotHeight)
}

// Align rounds width and height up to whole slots of the provided format
func Align(format Format, width, height int) (int, int, error) {
	g, err := Lookup(format)
	if err != nil {
		return 0, 0, err
	}

	return tilutils.RoundUp(width, g.SlotWidth), tilutils.RoundUp(height, g.SlotHeight), nil
}

// SizeInBytes is the number of bytes of tiler space consumed by a width x height block, after the
// dimensions have been rounded up to whole slots
func SizeInBytes(format Format, width, height int) (int, error) {
	w, h, err := Align(format, width, height)
	if err != nil {
		return 0, err
	}

	return geometries[format].BytesPerPixel * w * h, nil
}

// VirtualSize is the number of bytes needed to map a width x height block into a linear virtual
// address range with page-aligned rows
func VirtualSize(format Format, width, height int) (int, error) {
	g, err := Lookup(format)
	if err != nil {
		return 0, err
	}

	return tilutils.RoundUp(g.BytesPerPixel*width, PageSize) * height, nil
}

// SlotsFor converts a pixel width and height in the provided format into slot counts, rounding up
func SlotsFor(format Format, width, height int) (int, int, error) {
	g, err := Lookup(format)
	if err != nil {
		return 0, 0, err
	}

	w, h := g.Slots(width, height)
	return w, h, nil
}

// VirtualStride is the page-aligned length in bytes of one row of a mapping that starts offset
// bytes into a page
func VirtualStride(offset, bytesPerPixel, width int) int {
	return tilutils.RoundUp(offset%PageSize+bytesPerPixel*width, PageSize)
}
