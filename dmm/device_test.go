package dmm_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/tiler/dmm"
	"github.com/vkngwrapper/tiler/dmm/dmmsim"
	"github.com/vkngwrapper/tiler/internal/mocks"
	"github.com/vkngwrapper/tiler/tilutils"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

func readyDevice(t *testing.T, simOptions dmmsim.Options, options dmm.Options) (*dmmsim.Device, *dmm.Device) {
	sim := dmmsim.New(simOptions)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	device, err := dmm.New(logger, sim, options)
	require.NoError(t, err)

	return sim, device
}

func fullRegion() dmm.Region {
	return dmm.Region{X1: dmm.ContainerWidth - 1, Y1: dmm.ContainerHeight - 1}
}

func repeat(value uint32, count int) []uint32 {
	values := make([]uint32, count)
	for i := range values {
		values[i] = value
	}
	return values
}

func TestNewProgramsHardware(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.OMAP4, dmm.Options{})

	require.Equal(t, uint32(0x88888888), sim.Register(dmm.RegPATView0))
	require.Equal(t, uint32(0x88888888), sim.Register(dmm.RegPATView1))
	require.Equal(t, uint32(0x80808080), sim.Register(dmm.RegPATViewMap0))
	require.Equal(t, uint32(0x80000000), sim.Register(dmm.RegPATViewMapBase))
	require.Equal(t, uint32(0x88888888), sim.Register(dmm.RegTilerOR0))
	require.Equal(t, uint32(0x88888888), sim.Register(dmm.RegTilerOR1))
	require.Equal(t, uint32(0xfefefefe), sim.IRQEnabled())

	require.Equal(t, []dmm.Target{{LUT: 0}}, device.Targets())
	require.Equal(t, 2, device.NumEngines())
	require.Equal(t, 2, device.IdleEngines())
	require.Equal(t, 256, device.LUTWidth())
	require.Equal(t, 128, device.LUTHeight())
	require.NotZero(t, device.DummyPage())

	dummy := repeat(device.DummyPage(), dmm.ContainerWidth*dmm.ContainerHeight)
	require.Equal(t, dummy, sim.Entries(0, fullRegion()))

	mirror, err := device.ReadLUT(dmm.Target{}, fullRegion())
	require.NoError(t, err)
	require.Equal(t, dummy, mirror)
	require.Zero(t, sim.IRQPending())
}

func TestNewSplitTopology(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.OMAP5, dmm.Options{})

	require.Equal(t, []dmm.Target{{LUT: 0}, {LUT: 0, YOffset: 128}}, device.Targets())
	require.Equal(t, device.DummyPage(), sim.Entry(0, 0, 0))
	require.Equal(t, device.DummyPage(), sim.Entry(0, 255, 255))

	txn, err := device.Begin(context.Background(), dmm.Target{LUT: 0, YOffset: 128})
	require.NoError(t, err)
	require.NoError(t, txn.Append(dmm.Region{X0: 0, Y0: 0, X1: 1, Y1: 0}, []uint32{0x1000, 0x2000}, 0))
	require.NoError(t, txn.Commit(context.Background(), true))

	require.Equal(t, uint32(0x1000), sim.Entry(0, 0, 128))
	require.Equal(t, uint32(0x2000), sim.Entry(0, 1, 128))
	require.Equal(t, device.DummyPage(), sim.Entry(0, 0, 0))
}

func TestNewRejectsBadGeometry(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	_, err := dmm.New(logger, dmmsim.New(dmmsim.Options{LUTHeight: 96}), dmm.Options{})
	require.ErrorIs(t, err, tilutils.InvalidArgumentError)

	_, err = dmm.New(logger, dmmsim.New(dmmsim.Options{LUTHeight: 160}), dmm.Options{})
	require.ErrorIs(t, err, tilutils.InvalidArgumentError)

	_, err = dmm.New(logger, dmmsim.New(dmmsim.OMAP4), dmm.Options{RefillBufferSize: 8})
	require.ErrorIs(t, err, tilutils.InvalidArgumentError)
}

func TestNewFreesMemoryOnFailure(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	sim := dmmsim.New(dmmsim.OMAP4)
	_, err := dmm.New(logger, sim, dmm.Options{MaxEngines: 1, SkipInitialClear: true})
	require.NoError(t, err)
	require.Equal(t, 2, sim.LiveAllocations())

	sim = dmmsim.New(dmmsim.OMAP4)
	sim.FailAllocations(1)
	_, err = dmm.New(logger, sim, dmm.Options{})
	require.Error(t, err)
	require.Zero(t, sim.LiveAllocations())

	sim = dmmsim.New(dmmsim.Options{PhysBase: 0x1_0000_0000})
	_, err = dmm.New(logger, sim, dmm.Options{})
	require.ErrorIs(t, err, tilutils.InvalidArgumentError)
	require.Zero(t, sim.LiveAllocations())
}

func TestNewServeIRQFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	hw := mocks.NewMockHardware(ctrl)

	hw.EXPECT().Read32(dmm.RegPATHWInfo).Return(uint32(dmm.MakeHWInfo(1, 1)))
	hw.EXPECT().Read32(dmm.RegPATGeometry).Return(uint32(dmm.MakeGeometry(256, 128)))

	dummy := mocks.NewMockMem(ctrl)
	dummy.EXPECT().PhysAddr().Return(uint64(0x8000_0000)).AnyTimes()
	dummy.EXPECT().Close().Return(nil)

	refill := mocks.NewMockMem(ctrl)
	refill.EXPECT().PhysAddr().Return(uint64(0x8001_0000)).AnyTimes()
	refill.EXPECT().Bytes().Return(make([]byte, dmm.DefaultRefillBufferSize)).AnyTimes()
	refill.EXPECT().Close().Return(nil)

	gomock.InOrder(
		hw.EXPECT().AllocDMA(dmm.DummyPageSize).Return(dummy, nil),
		hw.EXPECT().AllocDMA(dmm.DefaultRefillBufferSize).Return(refill, nil),
	)
	hw.EXPECT().Write32(gomock.Any(), gomock.Any()).AnyTimes()
	hw.EXPECT().ServeIRQ(gomock.Not(gomock.Nil())).Return(errors.New("no interrupt line"))

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	_, err := dmm.New(logger, hw, dmm.Options{})
	require.ErrorContains(t, err, "no interrupt line")
}

func TestCommitWait(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.OMAP4, dmm.Options{})
	ctx := context.Background()

	txn, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	require.Equal(t, 1, device.IdleEngines())

	pages := []uint32{0x1000, 0x2000, 0x3000, 0x4000}
	require.NoError(t, txn.Append(dmm.Region{X0: 10, Y0: 5, X1: 13, Y1: 6}, pages, 1))
	require.NoError(t, txn.Append(dmm.Region{X0: 0, Y0: 7, X1: 1, Y1: 7}, []uint32{0, 0x5000}, 0))
	require.Equal(t, 2, txn.Descriptors())
	require.NoError(t, txn.Commit(ctx, true))
	require.Equal(t, 2, device.IdleEngines())

	expected := []uint32{0x2000, 0x3000, 0x4000, 0x1000, 0x2000, 0x3000, 0x4000, 0x1000}
	require.Equal(t, expected, sim.Entries(0, dmm.Region{X0: 10, Y0: 5, X1: 13, Y1: 6}))

	mirror, err := device.ReadLUT(dmm.Target{}, dmm.Region{X0: 10, Y0: 5, X1: 13, Y1: 6})
	require.NoError(t, err)
	require.Equal(t, expected, mirror)

	require.Equal(t, []uint32{device.DummyPage(), 0x5000}, sim.Entries(0, dmm.Region{X0: 0, Y0: 7, X1: 1, Y1: 7}))
	require.Equal(t, device.DummyPage(), sim.Entry(0, 14, 5))
	require.Equal(t, device.DummyPage(), sim.Entry(0, 9, 6))

	// one full clear at init plus one chain of two
	require.Equal(t, 3, sim.Descriptors(0)+sim.Descriptors(1))
	require.Equal(t, 2, sim.Kicks(0)+sim.Kicks(1))
}

func TestCommitAsync(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.Options{IRQDelay: 200 * time.Millisecond}, dmm.Options{CompletionTimeout: 5 * time.Second})
	ctx := context.Background()

	txn, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	require.NoError(t, txn.Append(dmm.Region{X0: 3, Y0: 3, X1: 3, Y1: 3}, []uint32{0x7000}, 0))
	require.NoError(t, txn.Commit(ctx, false))

	require.Equal(t, 1, device.IdleEngines())
	sim.WaitIRQ()
	require.Equal(t, 2, device.IdleEngines())

	require.Equal(t, uint32(0x7000), sim.Entry(0, 3, 3))
	require.Zero(t, sim.IRQPending())
}

func TestTxnErrorsReturnEngine(t *testing.T) {
	_, device := readyDevice(t, dmmsim.OMAP4, dmm.Options{})
	ctx := context.Background()

	txn, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	err = txn.Commit(ctx, true)
	require.ErrorIs(t, err, tilutils.InvalidArgumentError)
	require.Equal(t, 2, device.IdleEngines())

	err = txn.Commit(ctx, true)
	require.ErrorIs(t, err, tilutils.NotPermittedError)
	err = txn.Append(dmm.Region{}, nil, 0)
	require.ErrorIs(t, err, tilutils.NotPermittedError)
	txn.Abort()
	require.Equal(t, 2, device.IdleEngines())

	txn, err = device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	err = txn.Append(dmm.Region{X0: 250, X1: 256}, nil, 0)
	require.ErrorIs(t, err, tilutils.InvalidArgumentError)
	err = txn.Append(dmm.Region{X0: 5, X1: 4}, nil, 0)
	require.ErrorIs(t, err, tilutils.InvalidArgumentError)
	err = txn.Append(dmm.Region{Y0: 120, Y1: 128}, nil, 0)
	require.ErrorIs(t, err, tilutils.InvalidArgumentError)
	txn.Abort()
	require.Equal(t, 2, device.IdleEngines())

	txn, err = device.Begin(ctx, dmm.Target{LUT: 1})
	require.NoError(t, err)
	err = txn.Append(dmm.Region{}, nil, 0)
	require.ErrorIs(t, err, tilutils.InvalidArgumentError)
	txn.Abort()
	require.Equal(t, 2, device.IdleEngines())
}

func TestAppendCapacityExceeded(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.OMAP4, dmm.Options{RefillBufferSize: 64, SkipInitialClear: true})
	ctx := context.Background()

	txn, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)

	row := dmm.Region{X0: 0, Y0: 0, X1: 3, Y1: 0}
	require.NoError(t, txn.Append(row, []uint32{0x1000}, 0))
	require.NoError(t, txn.Append(row, []uint32{0x2000}, 0))

	err = txn.Append(row, []uint32{0x3000}, 0)
	require.ErrorIs(t, err, tilutils.CapacityExceededError)
	txn.Abort()

	require.Equal(t, 2, device.IdleEngines())
	require.Zero(t, sim.Kicks(0)+sim.Kicks(1))

	mirror, err := device.ReadLUT(dmm.Target{}, row)
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 0, 0, 0}, mirror)
}

func TestCommitHardwareFault(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.OMAP4, dmm.Options{})
	ctx := context.Background()

	sim.InjectFault(0, dmm.StatusErrUpdateArea)
	sim.InjectFault(1, dmm.StatusErrUpdateArea)

	txn, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	require.NoError(t, txn.Append(dmm.Region{X1: 1}, []uint32{0x1000, 0x2000}, 0))

	err = txn.Commit(ctx, true)
	require.ErrorIs(t, err, tilutils.HardwareFaultError)
	require.Equal(t, 2, device.IdleEngines())

	mirror, err := device.ReadLUT(dmm.Target{}, dmm.Region{X1: 1})
	require.NoError(t, err)
	require.Equal(t, []uint32{device.DummyPage(), device.DummyPage()}, mirror)
	require.Equal(t, device.DummyPage(), sim.Entry(0, 0, 0))
}

func TestCommitFaultAfterKick(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.OMAP4, dmm.Options{CompletionTimeout: 5 * time.Second})
	ctx := context.Background()
	dummy := device.DummyPage()

	failBoth := func() {
		sim.FailNextRefill(0, dmm.StatusErrUpdateData, dmm.IRQErrUpdateData)
		sim.FailNextRefill(1, dmm.StatusErrUpdateData, dmm.IRQErrUpdateData)
	}

	failBoth()
	txn, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	require.NoError(t, txn.Append(dmm.Region{X1: 1}, []uint32{0x1000, 0x2000}, 0))

	start := time.Now()
	err = txn.Commit(ctx, true)
	require.ErrorIs(t, err, tilutils.HardwareFaultError)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, device.NumEngines(), device.IdleEngines())
	require.Equal(t, []uint32{dummy, dummy}, sim.Entries(0, dmm.Region{X1: 1}))

	for i := 0; i < 2*device.NumEngines(); i++ {
		failBoth()
		txn, err = device.Begin(ctx, dmm.Target{})
		require.NoError(t, err)
		require.NoError(t, txn.Append(dmm.Region{Y0: 1, X1: 1, Y1: 1}, []uint32{0x3000}, 0))
		require.NoError(t, txn.Commit(ctx, false))
		require.Equal(t, device.NumEngines(), device.IdleEngines())
	}

	sim.ClearFaults()
	txn, err = device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	require.NoError(t, txn.Append(dmm.Region{X1: 1}, []uint32{0x1000, 0x2000}, 0))
	require.NoError(t, txn.Commit(ctx, true))
	require.Equal(t, []uint32{0x1000, 0x2000}, sim.Entries(0, dmm.Region{X1: 1}))
	require.Equal(t, device.NumEngines(), device.IdleEngines())
}

func TestCommitReadyTimeout(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.OMAP4, dmm.Options{PollRetries: 5, PollInterval: -1})
	ctx := context.Background()

	sim.SetStuck(0, true)
	sim.SetStuck(1, true)

	txn, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	require.NoError(t, txn.Append(dmm.Region{}, []uint32{0x1000}, 0))

	err = txn.Commit(ctx, true)
	require.ErrorIs(t, err, tilutils.HardwareTimeoutError)
	require.Equal(t, 2, device.IdleEngines())

	sim.ClearFaults()
	txn, err = device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	require.NoError(t, txn.Append(dmm.Region{}, []uint32{0x1000}, 0))
	require.NoError(t, txn.Commit(ctx, true))
	require.Equal(t, uint32(0x1000), sim.Entry(0, 0, 0))
}

func TestCommitCompletionTimeout(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.OMAP4, dmm.Options{CompletionTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	sim.DropIRQ(0, true)
	sim.DropIRQ(1, true)

	txn, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	require.NoError(t, txn.Append(dmm.Region{}, []uint32{0x1000}, 0))

	err = txn.Commit(ctx, true)
	require.ErrorIs(t, err, tilutils.HardwareTimeoutError)
	require.Equal(t, 2, device.IdleEngines())
}

func TestEnginePoolBlocks(t *testing.T) {
	_, device := readyDevice(t, dmmsim.OMAP4, dmm.Options{})
	ctx := context.Background()

	first, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	second, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)
	require.Equal(t, 0, device.IdleEngines())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = device.Begin(cancelled, dmm.Target{})
	require.ErrorIs(t, err, context.Canceled)

	acquired := make(chan *dmm.Txn)
	go func() {
		txn, err := device.Begin(ctx, dmm.Target{})
		if err != nil {
			close(acquired)
			return
		}
		acquired <- txn
	}()

	select {
	case <-acquired:
		t.Fatal("Begin returned while every engine was checked out")
	case <-time.After(20 * time.Millisecond):
	}

	first.Abort()
	third, ok := <-acquired
	require.True(t, ok)
	require.Equal(t, 0, device.IdleEngines())

	third.Abort()
	second.Abort()
	require.Equal(t, 2, device.IdleEngines())
}

func TestEnginePoolConcurrentCommits(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.Options{Flags: dmmsim.FlagAsyncIRQ}, dmm.Options{})
	ctx := context.Background()

	var group errgroup.Group
	for row := 0; row < 32; row++ {
		row := row
		group.Go(func() error {
			txn, err := device.Begin(ctx, dmm.Target{})
			if err != nil {
				return err
			}

			region := dmm.Region{X0: 0, Y0: row, X1: dmm.ContainerWidth - 1, Y1: row}
			err = txn.Append(region, []uint32{uint32(row+1) << 12}, 0)
			if err != nil {
				txn.Abort()
				return err
			}

			return txn.Commit(ctx, row%2 == 0)
		})
	}
	require.NoError(t, group.Wait())

	sim.WaitIRQ()
	require.Equal(t, 2, device.IdleEngines())

	for row := 0; row < 32; row++ {
		region := dmm.Region{X0: 0, Y0: row, X1: dmm.ContainerWidth - 1, Y1: row}
		require.Equal(t, repeat(uint32(row+1)<<12, dmm.ContainerWidth), sim.Entries(0, region))
	}
}

func TestClose(t *testing.T) {
	sim, device := readyDevice(t, dmmsim.OMAP4, dmm.Options{})
	ctx := context.Background()

	txn, err := device.Begin(ctx, dmm.Target{})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = device.Close(cancelled)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, device.IdleEngines())

	txn.Abort()
	require.NoError(t, device.Close(ctx))
	require.Equal(t, uint32(0x80808080), sim.IRQEnabled())
	require.Zero(t, sim.LiveAllocations())

	_, err = device.Begin(ctx, dmm.Target{})
	require.ErrorIs(t, err, tilutils.NotPermittedError)
	require.ErrorIs(t, device.Close(ctx), tilutils.NotPermittedError)
}
