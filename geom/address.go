package geom

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/tilutils"
)

// Address is a tiler-space address: coordinate bits for the format's view, the format in bits 27-28,
// and orientation flags in bits 29-31
type Address uint32

// InvalidAddress is returned alongside an error by the address functions. Since it is also the
// address of the top-left pixel of the natural 8-bit view, it is only meaningful when the error
// is non-nil.
const InvalidAddress Address = 0

// Format returns the format whose view this address belongs to
func (a Address) Format() Format {
	return Format((uint32(a) & addressFormatMask) >> addressFormatShift)
}

// Orientation returns the orientation flags carried by this address
func (a Address) Orientation() Orientation {
	return orientationFromAddressBits(uint32(a) & addressOrientationMask)
}

// Offset returns the address with format and orientation bits removed
func (a Address) Offset() uint32 {
	return uint32(a) & ViewMask
}

// SystemAddress returns the address as seen by the rest of the system, relative to the base of the
// tiler window. The sum uses uint32 arithmetic and wraps for oriented addresses.
func (a Address) SystemAddress() uint32 {
	return ViewBase + uint32(a)
}

func (a Address) String() string {
	return fmt.Sprintf("%#08x(%s, %s)", uint32(a), a.Format(), a.Orientation())
}

// IsSystemAddress returns true if the provided system address lies inside one of the natural
// tiler views
func IsSystemAddress(addr uint32) bool {
	return addr >= ViewBase && addr < ViewEnd
}

// FromSystemAddress converts a system address in one of the natural views back into a tiler-space address
func FromSystemAddress(addr uint32) (Address, error) {
	if !IsSystemAddress(addr) {
		return InvalidAddress, errors.Wrapf(tilutils.InvalidArgumentError, "%#08x is not a tiler system address", addr)
	}

	return Address(addr - ViewBase), nil
}

// TiledAddress computes the tiler-space address of pixel (x, y) in the provided format as seen through
// the provided orientation. Coordinates outside the format's view produce an InvalidArgumentError.
func TiledAddress(orientation Orientation, format Format, x, y int) (Address, error) {
	g, err := Lookup(format)
	if err != nil {
		return InvalidAddress, err
	}

	if orientation&^OrientationMask != 0 {
		return InvalidAddress, errors.Wrapf(tilutils.InvalidArgumentError, "unknown orientation %s", orientation)
	}

	xBits, yBits := g.AddressBits()
	xMask, yMask := (1<<xBits)-1, (1<<yBits)-1

	if x < 0 || x > xMask || y < 0 || y > yMask {
		return InvalidAddress, errors.Wrapf(tilutils.InvalidArgumentError,
			"coordinate (%d, %d) lies outside the %s view", x, y, format)
	}

	if orientation&OrientationMirrorX != 0 {
		x ^= xMask
	}
	if orientation&OrientationMirrorY != 0 {
		y ^= yMask
	}

	var coordinate uint32
	if orientation&OrientationSwapXY != 0 {
		coordinate = uint32(x)<<yBits | uint32(y)
	} else {
		coordinate = uint32(y)<<xBits | uint32(x)
	}

	return Address(coordinate<<g.Alignment() | orientation.addressBits() | uint32(format)<<addressFormatShift), nil
}

// NaturalXY recovers the unrotated pixel coordinate that an address points at. It is the exact inverse of
// TiledAddress for the address's own format and orientation.
func NaturalXY(a Address) (x, y int) {
	g := geometries[a.Format()]
	xBits, yBits := g.AddressBits()
	xMask, yMask := (1<<xBits)-1, (1<<yBits)-1

	coordinate := int(a.Offset() >> g.Alignment())
	orientation := a.Orientation()

	if orientation&OrientationSwapXY != 0 {
		x = coordinate >> yBits
		y = coordinate & yMask
	} else {
		y = coordinate >> xBits
		x = coordinate & xMask
	}

	if orientation&OrientationMirrorX != 0 {
		x ^= xMask
	}
	if orientation&OrientationMirrorY != 0 {
		y ^= yMask
	}

	return x, y
}

// Stride returns the distance in bytes between vertically adjacent pixels of a view through this
// address. Page addresses have no stride.
func Stride(a Address) int {
	format := a.Format()
	if format == FormatPage {
		return 0
	}

	g := geometries[format]
	if a.Orientation()&OrientationSwapXY != 0 {
		return 1 << (ContainerHeightBits + g.XShift)
	}
	return 1 << (ContainerWidthBits + g.YShift)
}
