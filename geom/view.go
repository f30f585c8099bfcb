package geom

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/tilutils"
)

// View is a rectangular window onto tiler space as seen through one orientation. Width and height are
// in pixels of the view's own frame, so a view rotated by 90 degrees has them swapped relative to the
// block it was taken from.
type View struct {
	// Address is the tiler-space address of the view's top-left pixel
	Address Address
	// Width is the number of pixels in each row of the view
	Width int
	// Height is the number of rows in the view
	Height int
	// BytesPerPixel is the size of one pixel in the view's format
	BytesPerPixel int
	// HInc is the distance in bytes between horizontally adjacent pixels
	HInc int
	// VInc is the distance in bytes between vertically adjacent pixels
	VInc int
}

// NewView builds a view of width x height pixels starting at the provided address. The view must fit inside
// the address's format view.
func NewView(address Address, width, height int) (View, error) {
	format := address.Format()
	g, err := Lookup(format)
	if err != nil {
		return View{}, err
	}

	if width <= 0 || height <= 0 {
		return View{}, errors.Wrapf(tilutils.InvalidArgumentError, "view dimensions %dx%d must be positive", width, height)
	}

	view := View{
		Address:       address,
		Width:         width,
		Height:        height,
		BytesPerPixel: g.BytesPerPixel,
		HInc:          g.BytesPerPixel,
		VInc:          Stride(address),
	}

	if format == FormatPage {
		view.VInc = width * g.BytesPerPixel
		if int(address.Offset())+width*height > ViewSize {
			return View{}, errors.Wrapf(tilutils.InvalidArgumentError,
				"%d bytes at %s run past the end of the page view", width*height, address)
		}
		return view, nil
	}

	// Coordinates are laid out as (row << rowBits | column) in the view's own frame, whatever the orientation.
	xBits, yBits := g.AddressBits()
	if address.Orientation()&OrientationSwapXY != 0 {
		xBits, yBits = yBits, xBits
	}
	coordinate := int(address.Offset() >> g.Alignment())
	column, row := coordinate&((1<<xBits)-1), coordinate>>xBits
	if column+width > 1<<xBits || row+height > 1<<yBits {
		return View{}, errors.Wrapf(tilutils.InvalidArgumentError,
			"%dx%d view at %s runs past the edge of the %s view", width, height, address, format)
	}

	return view, nil
}

func (v *View) reorient(corner Address, orientation Orientation, width, height int) error {
	x, y := NaturalXY(corner)
	address, err := TiledAddress(orientation, corner.Format(), x, y)
	if err != nil {
		return err
	}

	v.Address = address
	v.VInc = Stride(address)
	v.Width = width
	v.Height = height
	return nil
}

// Rotate turns the view counter-clockwise by the provided number of degrees, which must be a multiple
// of 90. Page views cannot be rotated. On error the view is left unmodified.
func (v *View) Rotate(degrees int) error {
	if degrees%90 != 0 {
		return errors.Wrapf(tilutils.InvalidArgumentError, "rotation of %d degrees is not a multiple of 90", degrees)
	}

	quarters := (degrees / 90) & 3
	if quarters == 0 {
		return nil
	}

	if v.Address.Format() == FormatPage {
		return errors.Wrap(tilutils.NotPermittedError, "page views cannot be rotated")
	}

	corner := uint32(v.Address)
	if quarters < 3 {
		corner += uint32((v.Height - 1) * v.VInc)
	}
	if quarters > 1 {
		corner += uint32((v.Width - 1) * v.HInc)
	}

	orientation := v.Address.Orientation()
	width, height := v.Width, v.Height

	if quarters&2 != 0 {
		orientation ^= OrientationMirrorX | OrientationMirrorY
	}

	if quarters&1 != 0 {
		if orientation&OrientationSwapXY != 0 {
			orientation ^= OrientationMirrorX
		} else {
			orientation ^= OrientationMirrorY
		}
		orientation ^= OrientationSwapXY
		width, height = height, width
	}

	return v.reorient(Address(corner), orientation, width, height)
}

// Flip mirrors the view horizontally, vertically, or both. Page views cannot be flipped. On error the
// view is left unmodified.
func (v *View) Flip(flipX, flipY bool) error {
	if !flipX && !flipY {
		return nil
	}

	if v.Address.Format() == FormatPage {
		return errors.Wrap(tilutils.NotPermittedError, "page views cannot be flipped")
	}

	corner := uint32(v.Address)
	if flipX {
		corner += uint32((v.Width - 1) * v.HInc)
	}
	if flipY {
		corner += uint32((v.Height - 1) * v.VInc)
	}

	orientation := v.Address.Orientation()
	if orientation&OrientationSwapXY != 0 {
		flipX, flipY = flipY, flipX
	}
	if flipX {
		orientation ^= OrientationMirrorX
	}
	if flipY {
		orientation ^= OrientationMirrorY
	}

	return v.reorient(Address(corner), orientation, v.Width, v.Height)
}

// Crop narrows the view to the width x height sub-rectangle whose top-left pixel is at (left, top)
// in the view's frame
func (v *View) Crop(left, top, width, height int) error {
	if left < 0 || top < 0 || width <= 0 || height <= 0 ||
		left+width > v.Width || top+height > v.Height {
		return errors.Wrapf(tilutils.InvalidArgumentError,
			"crop %dx%d at (%d, %d) does not fit inside a %dx%d view", width, height, left, top, v.Width, v.Height)
	}

	v.Address += Address(left*v.HInc + top*v.VInc)
	v.Width = width
	v.Height = height
	return nil
}

// SystemAddress returns the system address of the view's top-left pixel
func (v View) SystemAddress() uint32 {
	return v.Address.SystemAddress()
}
