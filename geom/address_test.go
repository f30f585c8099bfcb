package geom_test

import (
	"math/rand"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/tiler/geom"
	"github.com/vkngwrapper/tiler/tilutils"
)

var allOrientations = []geom.Orientation{
	geom.OrientationNatural,
	geom.OrientationMirrorX,
	geom.OrientationMirrorY,
	geom.OrientationMirrorX | geom.OrientationMirrorY,
	geom.OrientationSwapXY,
	geom.OrientationSwapXY | geom.OrientationMirrorX,
	geom.OrientationSwapXY | geom.OrientationMirrorY,
	geom.OrientationMask,
}

var allFormats = []geom.Format{geom.Format8Bit, geom.Format16Bit, geom.Format32Bit, geom.FormatPage}

func checkRoundTrip(t *testing.T, o geom.Orientation, f geom.Format, x, y int) {
	addr, err := geom.TiledAddress(o, f, x, y)
	require.NoError(t, err)
	require.Equal(t, f, addr.Format())
	require.Equal(t, o, addr.Orientation())

	nx, ny := geom.NaturalXY(addr)
	require.Equal(t, x, nx, "x for %s %s", f, o)
	require.Equal(t, y, ny, "y for %s %s", f, o)
}

func TestAddressBijection(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	for _, format := range allFormats {
		xBits, yBits := geom.MustLookup(format).AddressBits()
		xMax, yMax := (1<<xBits)-1, (1<<yBits)-1

		for _, orientation := range allOrientations {
			t.Run(format.String()+"/"+orientation.String(), func(t *testing.T) {
				for _, corner := range [][2]int{{0, 0}, {xMax, 0}, {0, yMax}, {xMax, yMax}} {
					checkRoundTrip(t, orientation, format, corner[0], corner[1])
				}

				for i := 0; i < 500; i++ {
					checkRoundTrip(t, orientation, format, random.Intn(xMax+1), random.Intn(yMax+1))
				}
			})
		}
	}
}

func TestAddressDistinct(t *testing.T) {
	seen := make(map[geom.Address]struct{})
	for _, orientation := range allOrientations {
		for y := 0; y < 128; y++ {
			for x := 0; x < 256; x++ {
				addr, err := geom.TiledAddress(orientation, geom.FormatPage, x, y)
				require.NoError(t, err)
				_, exists := seen[addr]
				require.False(t, exists)
				seen[addr] = struct{}{}
			}
		}
	}
}

func TestTiledAddressValues(t *testing.T) {
	addr, err := geom.TiledAddress(geom.OrientationNatural, geom.FormatPage, 3, 2)
	require.NoError(t, err)
	require.Equal(t, geom.Address(0x18203000), addr)

	addr, err = geom.TiledAddress(geom.OrientationNatural, geom.Format32Bit, 10, 20)
	require.NoError(t, err)
	require.Equal(t, geom.Address(0x100a0028), addr)

	addr, err = geom.TiledAddress(geom.OrientationNatural, geom.Format16Bit, 64, 64)
	require.NoError(t, err)
	require.Equal(t, geom.Address(0x8200080), addr)
	require.Equal(t, uint32(0x68200080), addr.SystemAddress())
}

func TestTiledAddressOutOfRange(t *testing.T) {
	for _, format := range allFormats {
		xBits, yBits := geom.MustLookup(format).AddressBits()

		addr, err := geom.TiledAddress(geom.OrientationNatural, format, 1<<xBits, 0)
		require.True(t, errors.Is(err, tilutils.InvalidArgumentError))
		require.Equal(t, geom.InvalidAddress, addr)

		_, err = geom.TiledAddress(geom.OrientationNatural, format, 0, 1<<yBits)
		require.True(t, errors.Is(err, tilutils.InvalidArgumentError))

		_, err = geom.TiledAddress(geom.OrientationNatural, format, -1, 0)
		require.True(t, errors.Is(err, tilutils.InvalidArgumentError))
	}

	_, err := geom.TiledAddress(geom.Orientation(8), geom.Format8Bit, 0, 0)
	require.True(t, errors.Is(err, tilutils.InvalidArgumentError))
}

func TestStride(t *testing.T) {
	testCases := []struct {
		format  geom.Format
		swapped int
		natural int
	}{
		{geom.Format8Bit, 8192, 16384},
		{geom.Format16Bit, 8192, 32768},
		{geom.Format32Bit, 16384, 32768},
		{geom.FormatPage, 0, 0},
	}

	for _, testCase := range testCases {
		natural, err := geom.TiledAddress(geom.OrientationNatural, testCase.format, 0, 0)
		require.NoError(t, err)
		require.Equal(t, testCase.natural, geom.Stride(natural), testCase.format.String())

		swapped, err := geom.TiledAddress(geom.OrientationSwapXY, testCase.format, 0, 0)
		require.NoError(t, err)
		require.Equal(t, testCase.swapped, geom.Stride(swapped), testCase.format.String())
	}
}

func TestSystemAddress(t *testing.T) {
	addr, err := geom.FromSystemAddress(0x70000000)
	require.NoError(t, err)
	require.Equal(t, geom.Format32Bit, addr.Format())
	require.Equal(t, uint32(0x70000000), addr.SystemAddress())

	_, err = geom.FromSystemAddress(0x80000000)
	require.True(t, errors.Is(err, tilutils.InvalidArgumentError))

	_, err = geom.FromSystemAddress(0x5fffffff)
	require.True(t, errors.Is(err, tilutils.InvalidArgumentError))
}

func TestOrientationString(t *testing.T) {
	require.Equal(t, "OrientationNatural", geom.OrientationNatural.String())
	require.Equal(t, "OrientationMirrorX|OrientationSwapXY", (geom.OrientationMirrorX | geom.OrientationSwapXY).String())
}
