package geom_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/tiler/geom"
	"github.com/vkngwrapper/tiler/tilutils"
)

func TestGeometryTable(t *testing.T) {
	testCases := map[geom.Format]geom.Geometry{
		geom.Format8Bit:  {XShift: 0, YShift: 0, BytesPerPixel: 1, SlotWidth: 64, SlotHeight: 64},
		geom.Format16Bit: {XShift: 0, YShift: 1, BytesPerPixel: 2, SlotWidth: 64, SlotHeight: 32},
		geom.Format32Bit: {XShift: 1, YShift: 1, BytesPerPixel: 4, SlotWidth: 32, SlotHeight: 32},
		geom.FormatPage:  {XShift: 6, YShift: 6, BytesPerPixel: 1, SlotWidth: 1, SlotHeight: 1},
	}

	for format, expected := range testCases {
		t.Run(format.String(), func(t *testing.T) {
			g, err := geom.Lookup(format)
			require.NoError(t, err)
			require.Equal(t, expected, g)

			require.Equal(t, 1<<(geom.SlotWidthBits-g.XShift), g.SlotWidth)
			require.Equal(t, 1<<(geom.SlotHeightBits-g.YShift), g.SlotHeight)
		})
	}
}

func TestGeometryEverySlotIsOnePage(t *testing.T) {
	for _, format := range []geom.Format{geom.Format8Bit, geom.Format16Bit, geom.Format32Bit} {
		g := geom.MustLookup(format)
		require.Equal(t, geom.PageSize, g.SlotWidth*g.SlotHeight*g.BytesPerPixel, format.String())
	}
}

func TestLookupInvalidFormat(t *testing.T) {
	_, err := geom.Lookup(geom.Format(7))
	require.True(t, errors.Is(err, tilutils.InvalidArgumentError))
	require.Equal(t, "Format(7)", geom.Format(7).String())

	require.Panics(t, func() {
		geom.MustLookup(geom.Format(4))
	})
}

func TestContainerConstants(t *testing.T) {
	require.Equal(t, 256, geom.ContainerWidth)
	require.Equal(t, 128, geom.ContainerHeight)
	require.Equal(t, 4096, geom.PageSize)
	require.Equal(t, 1<<27, geom.ViewSize)
	require.Equal(t, uint32(0x80000000), geom.ViewEnd)
}

func TestAddressBits(t *testing.T) {
	x, y := geom.MustLookup(geom.Format8Bit).AddressBits()
	require.Equal(t, 14, x)
	require.Equal(t, 13, y)

	x, y = geom.MustLookup(geom.Format32Bit).AddressBits()
	require.Equal(t, 13, x)
	require.Equal(t, 12, y)

	x, y = geom.MustLookup(geom.FormatPage).AddressBits()
	require.Equal(t, 8, x)
	require.Equal(t, 7, y)
}

func TestAlignAndSize(t *testing.T) {
	w, h, err := geom.Align(geom.Format16Bit, 65, 33)
	require.NoError(t, err)
	require.Equal(t, 128, w)
	require.Equal(t, 64, h)

	size, err := geom.SizeInBytes(geom.Format16Bit, 65, 33)
	require.NoError(t, err)
	require.Equal(t, 2*128*64, size)

	slotsW, slotsH, err := geom.SlotsFor(geom.Format32Bit, 33, 32)
	require.NoError(t, err)
	require.Equal(t, 2, slotsW)
	require.Equal(t, 1, slotsH)

	size, err = geom.VirtualSize(geom.Format8Bit, 100, 10)
	require.NoError(t, err)
	require.Equal(t, 4096*10, size)

	size, err = geom.VirtualSize(geom.Format32Bit, 1025, 2)
	require.NoError(t, err)
	require.Equal(t, 8192*2, size)

	_, _, err = geom.Align(geom.Format(9), 1, 1)
	require.True(t, errors.Is(err, tilutils.InvalidArgumentError))
}

func TestVirtualStride(t *testing.T) {
	require.Equal(t, 4096, geom.VirtualStride(0, 4, 1024))
	require.Equal(t, 8192, geom.VirtualStride(16, 4, 1024))
	require.Equal(t, 4096, geom.VirtualStride(4096+16, 1, 100))
}
