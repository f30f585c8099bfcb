// Package dmm drives the Page Address Translation unit of a DMM/TILER memory controller. A Device owns a
// fixed pool of refill engines, each with its own DMA buffer, and programs the hardware lookup tables by
// chaining descriptors into that buffer and kicking the engine. A software mirror of every lookup table is
// kept alongside so the current mapping can be read back without touching the hardware.
package dmm

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/tiler/tilutils"
	"golang.org/x/exp/slog"
)

// DummyPageSize is the size of the page every unmapped lookup-table entry points at
const DummyPageSize = 4096

// splitYOffset is the row of lut 0 at which the page-mode container starts when the lookup table is
// taller than a container
const splitYOffset = ContainerHeight

// Target identifies the region of hardware lookup table that one container is programmed into
type Target struct {
	// LUT is the index of the lookup table
	LUT int
	// YOffset is added to every row before it is programmed
	YOffset int
}

// Device is a DMM with its refill engine pool and lookup-table mirror
type Device struct {
	logger  *slog.Logger
	hw      Hardware
	options Options

	hwInfo    HWInfo
	lutWidth  int
	lutHeight int
	targets   []Target

	engines []*refillEngine
	idle    chan *refillEngine

	dummy   Mem
	dummyPA uint32

	mirrorMutex sync.Mutex
	mirror      []uint32

	closed atomic.Bool
}

// New probes the hardware, programs the PAT view and interrupt registers, allocates one DMA buffer per
// refill engine and points every lookup-table entry at a dummy page
func New(logger *slog.Logger, hw Hardware, options Options) (*Device, error) {
	options, err := options.withDefaults()
	if err != nil {
		return nil, err
	}

	hwInfo := HWInfo(hw.Read32(RegPATHWInfo))
	geometry := Geometry(hw.Read32(RegPATGeometry))

	if hwInfo.Engines() == 0 || hwInfo.LUTs() == 0 {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError,
			"hardware reports %d refill engines and %d lookup tables", hwInfo.Engines(), hwInfo.LUTs())
	}
	if geometry.LUTWidth() < ContainerWidth || geometry.LUTHeight() < ContainerHeight {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError,
			"lookup table of %dx%d cannot hold a %dx%d container",
			geometry.LUTWidth(), geometry.LUTHeight(), ContainerWidth, ContainerHeight)
	}

	d := &Device{
		logger:    logger,
		hw:        hw,
		options:   options,
		hwInfo:    hwInfo,
		lutWidth:  geometry.LUTWidth(),
		lutHeight: geometry.LUTHeight(),
	}

	d.targets = append(d.targets, Target{LUT: 0})
	if d.lutHeight != ContainerHeight {
		if d.lutHeight < splitYOffset+ContainerHeight {
			return nil, errors.Wrapf(tilutils.InvalidArgumentError,
				"lookup table height %d can hold neither one container nor two", d.lutHeight)
		}
		d.targets = append(d.targets, Target{LUT: 0, YOffset: splitYOffset})
	}
	for lut := 1; lut < hwInfo.LUTs(); lut++ {
		d.targets = append(d.targets, Target{LUT: lut})
	}
	d.mirror = make([]uint32, hwInfo.LUTs()*d.lutWidth*d.lutHeight)

	engineCount := hwInfo.Engines()
	if options.MaxEngines > 0 && options.MaxEngines < engineCount {
		engineCount = options.MaxEngines
	}

	logger.Debug("DMM::New",
		slog.Int("Engines", engineCount),
		slog.Int("LUTs", hwInfo.LUTs()),
		slog.Int("LUTWidth", d.lutWidth),
		slog.Int("LUTHeight", d.lutHeight),
		slog.Int("Containers", len(d.targets)),
	)

	err = d.allocate(engineCount)
	if err != nil {
		return nil, errors.CombineErrors(err, d.freeMemory())
	}

	hw.Write32(RegPATViewMapBase, patViewMapBase)
	hw.Write32(RegPATView0, patViewInit)
	hw.Write32(RegPATView1, patViewInit)
	hw.Write32(RegPATViewMap0, patViewMapInit)
	hw.Write32(RegTilerOR0, tilerORInit)
	hw.Write32(RegTilerOR1, tilerORInit)

	err = hw.ServeIRQ(d.HandleIRQ)
	if err != nil {
		return nil, errors.CombineErrors(errors.Wrap(err, "could not install the refill interrupt handler"), d.freeMemory())
	}
	hw.Write32(RegPATIRQEnableSet, irqEnableInit)

	if !options.SkipInitialClear {
		d.clearAll(context.Background())
	}

	return d, nil
}

func (d *Device) allocate(engineCount int) error {
	dummy, err := d.hw.AllocDMA(DummyPageSize)
	if err != nil {
		return errors.Wrap(err, "could not allocate the dummy page")
	}
	d.dummy = dummy
	if dummy.PhysAddr() > 0xFFFFFFFF {
		return errors.Wrapf(tilutils.InvalidArgumentError, "dummy page at %#x is not reachable by the lookup table", dummy.PhysAddr())
	}
	d.dummyPA = uint32(dummy.PhysAddr())

	d.idle = make(chan *refillEngine, engineCount)
	for id := 0; id < engineCount; id++ {
		mem, err := d.hw.AllocDMA(d.options.RefillBufferSize)
		if err != nil {
			return errors.Wrapf(err, "could not allocate the refill buffer of engine %d", id)
		}

		engine, err := newRefillEngine(d, id, mem)
		if err != nil {
			return errors.CombineErrors(err, mem.Close())
		}

		d.engines = append(d.engines, engine)
		d.idle <- engine
	}

	return nil
}

func (d *Device) freeMemory() error {
	var err error
	for _, engine := range d.engines {
		err = errors.CombineErrors(err, engine.mem.Close())
	}
	d.engines = nil

	if d.dummy != nil {
		err = errors.CombineErrors(err, d.dummy.Close())
		d.dummy = nil
	}

	return err
}

// clearAll points every entry of every container at the dummy page. Failures are logged and
// leave the mirror untouched for the region that failed.
func (d *Device) clearAll(ctx context.Context) {
	for _, target := range d.targets {
		err := d.Clear(ctx, target)
		if err != nil {
			d.logger.LogAttrs(ctx, slog.LevelError, "could not clear lookup table",
				slog.Int("LUT", target.LUT),
				slog.Int("YOffset", target.YOffset),
				slog.Any("error", err),
			)
		}
	}
}

// Clear points every entry of a container's region at the dummy page and waits for the refill to finish
func (d *Device) Clear(ctx context.Context, target Target) error {
	txn, err := d.Begin(ctx, target)
	if err != nil {
		return err
	}

	err = txn.Append(Region{X1: ContainerWidth - 1, Y1: ContainerHeight - 1}, nil, 0)
	if err != nil {
		txn.Abort()
		return err
	}

	return txn.Commit(ctx, true)
}

// Close waits for every refill engine to go idle, disables the refill interrupts and frees every DMA
// buffer. If ctx ends before the engines are idle, the device is left open and usable.
func (d *Device) Close(ctx context.Context) error {
	if !d.closed.CompareAndSwap(false, true) {
		return errors.Wrap(tilutils.NotPermittedError, "device is already closed")
	}

	var acquired []*refillEngine
	for range d.engines {
		engine, err := d.acquireEngine(ctx)
		if err != nil {
			for _, held := range acquired {
				d.releaseEngine(held)
			}
			d.closed.Store(false)
			return err
		}
		acquired = append(acquired, engine)
	}

	d.hw.Write32(RegPATIRQEnableClr, irqEnableTeardown)
	err := d.hw.ServeIRQ(nil)

	return errors.CombineErrors(err, d.freeMemory())
}

// HandleIRQ acknowledges the DMM interrupt and completes every engine that reported the end of its
// chain or an error. A failed chain raises no LastDone, so error bits end the refill too. Engines
// committed without waiting are returned to the pool here.
func (d *Device) HandleIRQ() {
	status := d.hw.Read32(RegPATIRQStatus)
	d.hw.Write32(RegPATIRQStatus, status)

	for _, engine := range d.engines {
		flags := EngineIRQ(status, engine.id)

		if flags&IRQErrorMask != 0 {
			d.logger.LogAttrs(context.Background(), slog.LevelError, "refill engine raised an error interrupt",
				slog.Int("engine", engine.id),
				slog.String("flags", flags.String()),
			)
		}

		if flags&(IRQLastDone|IRQErrorMask) != 0 {
			engine.complete()
			if engine.async.CompareAndSwap(true, false) {
				d.releaseEngine(engine)
			}
		}
	}
}

// Targets returns the lookup-table region of every container, in container order
func (d *Device) Targets() []Target {
	targets := make([]Target, len(d.targets))
	copy(targets, d.targets)
	return targets
}

func (d *Device) NumEngines() int  { return len(d.engines) }
func (d *Device) IdleEngines() int { return len(d.idle) }
func (d *Device) LUTWidth() int    { return d.lutWidth }
func (d *Device) LUTHeight() int   { return d.lutHeight }

// DummyPage returns the physical address that unmapped entries point at
func (d *Device) DummyPage() uint32 {
	return d.dummyPA
}

// DeviceJsonData populates a json object with information about the hardware and the engine pool
func (d *Device) DeviceJsonData(json *jwriter.ObjectState) {
	json.Name("Engines").Int(len(d.engines))
	json.Name("IdleEngines").Int(len(d.idle))
	json.Name("LUTs").Int(d.hwInfo.LUTs())
	json.Name("LUTWidth").Int(d.lutWidth)
	json.Name("LUTHeight").Int(d.lutHeight)
	json.Name("RefillBufferSize").Int(d.options.RefillBufferSize)
	json.Name("DummyPage").Int(int(d.dummyPA))
}
