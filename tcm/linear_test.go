package tcm_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/tiler/tcm"
	"github.com/vkngwrapper/tiler/tilutils"
)

func linearOffset(area tcm.Area) int {
	return area.P0.Y*256 + area.P0.X
}

func TestLinearReserve(t *testing.T) {
	linear, err := tcm.NewLinear(256, 128, tcm.Target{YOffset: 128})
	require.NoError(t, err)

	first, err := linear.Reserve1D(10)
	require.NoError(t, err)
	require.Equal(t, rect(0, 0, 9, 0), first)

	second, err := linear.Reserve1D(300)
	require.NoError(t, err)
	require.Equal(t, rect(10, 0, 53, 1), second)

	third, err := linear.Reserve1D(5)
	require.NoError(t, err)
	require.Equal(t, rect(54, 1, 58, 1), third)

	require.NoError(t, linear.Free(first))

	fourth, err := linear.Reserve1D(20)
	require.NoError(t, err)
	require.Equal(t, 315, linearOffset(fourth))

	require.NoError(t, linear.Validate())

	var stats tilutils.Statistics
	linear.AddStatistics(&stats)
	require.Equal(t, 3, stats.BlockCount)
	require.Equal(t, 325, stats.BlockSlots)
	require.Equal(t, 256*128, stats.ContainerSlots)
}

func TestLinearRejects2D(t *testing.T) {
	linear, err := tcm.NewLinear(256, 128, tcm.Target{})
	require.NoError(t, err)

	_, err = linear.Reserve2D(1, 1, 1)
	require.True(t, errors.Is(err, tilutils.NotPermittedError))
}

func TestLinearFullAndReuse(t *testing.T) {
	linear, err := tcm.NewLinear(256, 128, tcm.Target{})
	require.NoError(t, err)

	var areas []tcm.Area
	for i := 0; i < 128; i++ {
		area, err := linear.Reserve1D(256)
		require.NoError(t, err)
		areas = append(areas, area)
	}

	_, err = linear.Reserve1D(1)
	require.True(t, errors.Is(err, tilutils.NoSpaceError))

	for _, area := range areas {
		require.NoError(t, linear.Free(area))
	}
	require.NoError(t, linear.Validate())

	whole, err := linear.Reserve1D(256 * 128)
	require.NoError(t, err)
	require.Equal(t, rect(0, 0, 255, 127), whole)
}

func TestLinearFreeUnknownArea(t *testing.T) {
	linear, err := tcm.NewLinear(256, 128, tcm.Target{})
	require.NoError(t, err)

	area, err := linear.Reserve1D(40)
	require.NoError(t, err)

	require.True(t, errors.Is(linear.Free(rect(0, 0, 38, 0)), tilutils.InvalidArgumentError))
	require.True(t, errors.Is(linear.Free(area2D(0, 0, 39, 0)), tilutils.InvalidArgumentError))
	require.NoError(t, linear.Free(area))
	require.True(t, errors.Is(linear.Free(area), tilutils.InvalidArgumentError))

	err = linear.ForEachSlice(area, func(slice tcm.Area) error { return nil })
	require.True(t, errors.Is(err, tilutils.InvalidArgumentError))
}

func TestLinearRandomized(t *testing.T) {
	random := rand.New(rand.NewSource(5))
	linear, err := tcm.NewLinear(256, 128, tcm.Target{})
	require.NoError(t, err)

	var live []tcm.Area
	for i := 0; i < 2000; i++ {
		if len(live) > 0 && random.Intn(5) < 2 {
			index := random.Intn(len(live))
			require.NoError(t, linear.Free(live[index]))
			live = append(live[:index], live[index+1:]...)
		} else {
			area, err := linear.Reserve1D(random.Intn(3000) + 1)
			if err != nil {
				require.True(t, errors.Is(err, tilutils.NoSpaceError))
			} else {
				live = append(live, area)
			}
		}

		require.NoError(t, linear.Validate())
	}

	sort.Slice(live, func(i, j int) bool {
		return linearOffset(live[i]) < linearOffset(live[j])
	})
	for i := 1; i < len(live); i++ {
		previousEnd := linearOffset(live[i-1]) + live[i-1].SlotCount(256)
		require.LessOrEqual(t, previousEnd, linearOffset(live[i]))
	}

	usedSlots := 0
	for _, area := range live {
		usedSlots += area.SlotCount(256)
	}

	var stats tilutils.Statistics
	linear.AddStatistics(&stats)
	require.Equal(t, len(live), stats.BlockCount)
	require.Equal(t, usedSlots, stats.BlockSlots)
}
