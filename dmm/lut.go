package dmm

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/tilutils"
)

type mirrorUpdate struct {
	lut    int
	region Region
	values []uint32
}

// lutRegion translates a region of a container into lookup-table coordinates and checks that it fits
func (d *Device) lutRegion(target Target, region Region) (Region, error) {
	lutRegion := Region{X0: region.X0, Y0: region.Y0 + target.YOffset, X1: region.X1, Y1: region.Y1 + target.YOffset}

	if target.LUT < 0 || target.LUT >= d.hwInfo.LUTs() ||
		region.X0 < 0 || region.Y0 < 0 || region.X0 > region.X1 || region.Y0 > region.Y1 ||
		lutRegion.X1 >= d.lutWidth || lutRegion.Y1 >= d.lutHeight ||
		lutRegion.X1 > 0xFF || lutRegion.Y1 > 0xFF {
		return Region{}, errors.Wrapf(tilutils.InvalidArgumentError,
			"region %s does not fit lookup table %d at y offset %d", region, target.LUT, target.YOffset)
	}

	return lutRegion, nil
}

func (d *Device) mirrorIndex(lut, x, y int) int {
	return (lut*d.lutHeight+y)*d.lutWidth + x
}

func (d *Device) applyMirror(updates []mirrorUpdate) {
	d.mirrorMutex.Lock()
	defer d.mirrorMutex.Unlock()

	for _, update := range updates {
		width := update.region.Width()
		for row := 0; row < update.region.Height(); row++ {
			start := d.mirrorIndex(update.lut, update.region.X0, update.region.Y0+row)
			copy(d.mirror[start:start+width], update.values[row*width:(row+1)*width])
		}
	}
}

// ReadLUT returns the mirrored lookup-table entries of a container region in row-major order
func (d *Device) ReadLUT(target Target, region Region) ([]uint32, error) {
	lutRegion, err := d.lutRegion(target, region)
	if err != nil {
		return nil, err
	}

	d.mirrorMutex.Lock()
	defer d.mirrorMutex.Unlock()

	width := lutRegion.Width()
	values := make([]uint32, 0, lutRegion.Slots())
	for y := lutRegion.Y0; y <= lutRegion.Y1; y++ {
		start := d.mirrorIndex(target.LUT, lutRegion.X0, y)
		values = append(values, d.mirror[start:start+width]...)
	}

	return values, nil
}
