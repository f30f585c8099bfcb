//go:build linux

// Package hostdev reaches a real DMM from user space: the register window is mapped through /dev/mem,
// refill buffers come from physically contiguous allocations and interrupts are read from a UIO device.
package hostdev

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/dmm"
	"github.com/vkngwrapper/tiler/tilutils"
	"golang.org/x/exp/slog"
	"periph.io/x/host/v3/pmem"
)

const (
	// DefaultRegisterBase is the physical address of the DMM register window on OMAP4 and OMAP5
	DefaultRegisterBase = 0x4E000000
	// DefaultRegisterSize is the size of the DMM register window
	DefaultRegisterSize = 0x800
	// DefaultPageSize is the mapping and allocation granularity of the host
	DefaultPageSize = 4096
)

// Options locates the DMM. Zero values select the defaults.
type Options struct {
	// RegisterBase is the physical address of the register window
	RegisterBase uint64
	// RegisterSize is the size in bytes of the register window
	RegisterSize int
	// PageSize is the host page size. Register windows are mapped and DMA buffers allocated in whole
	// pages. It must be a power of two.
	PageSize int
	// UIODevice is the path of the UIO node bound to the DMM interrupt, for example /dev/uio0
	UIODevice string
}

// Device is a DMM mapped into this process. It implements dmm.Hardware.
type Device struct {
	logger  *slog.Logger
	options Options

	window    *pmem.View
	registers []uint32

	irqLock sync.Mutex
	irq     *irqLoop
}

var _ dmm.Hardware = &Device{}

// Open maps the DMM register window
func Open(logger *slog.Logger, options Options) (*Device, error) {
	if options.RegisterBase == 0 {
		options.RegisterBase = DefaultRegisterBase
	}
	if options.RegisterSize == 0 {
		options.RegisterSize = DefaultRegisterSize
	}
	if options.PageSize == 0 {
		options.PageSize = DefaultPageSize
	}
	if options.RegisterSize%4 != 0 || options.RegisterSize < 0 || options.RegisterBase%4 != 0 {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError,
			"register window of %d bytes at %#x is not a whole number of registers", options.RegisterSize, options.RegisterBase)
	}
	err := tilutils.CheckPow2(options.PageSize, "PageSize")
	if err != nil {
		return nil, err
	}

	// mmap only takes page-aligned offsets
	mapBase := uint64(tilutils.AlignDown(int(options.RegisterBase), uint(options.PageSize)))
	skip := int(options.RegisterBase - mapBase)
	window, err := pmem.Map(mapBase, tilutils.AlignUp(skip+options.RegisterSize, uint(options.PageSize)))
	if err != nil {
		return nil, errors.Wrapf(err, "could not map the DMM registers at %#x", options.RegisterBase)
	}

	logger.Debug("HostDevice::Open",
		slog.Uint64("RegisterBase", options.RegisterBase),
		slog.Int("RegisterSize", options.RegisterSize),
		slog.String("UIODevice", options.UIODevice),
	)

	return &Device{
		logger:    logger,
		options:   options,
		window:    window,
		registers: window.Uint32()[skip/4 : (skip+options.RegisterSize)/4],
	}, nil
}

func (d *Device) register(offset uint32) *uint32 {
	if offset%4 != 0 || int(offset/4) >= len(d.registers) {
		panic(errors.Newf("register offset %#x is outside the %d byte window", offset, d.options.RegisterSize))
	}
	return &d.registers[offset/4]
}

// Read32 reads a register
func (d *Device) Read32(offset uint32) uint32 {
	return atomic.LoadUint32(d.register(offset))
}

// Write32 writes a register
func (d *Device) Write32(offset uint32, value uint32) {
	atomic.StoreUint32(d.register(offset), value)
}

type dmaBuffer struct {
	alloc *pmem.MemAlloc
}

func (b *dmaBuffer) Bytes() []byte    { return b.alloc.Bytes() }
func (b *dmaBuffer) PhysAddr() uint64 { return b.alloc.PhysAddr() }
func (b *dmaBuffer) Close() error     { return b.alloc.Close() }

// AllocDMA allocates physically contiguous memory, rounded up to whole pages
func (d *Device) AllocDMA(size int) (dmm.Mem, error) {
	if size <= 0 {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError, "cannot allocate %d bytes", size)
	}

	alloc, err := pmem.Alloc(tilutils.AlignUp(size, uint(d.options.PageSize)))
	if err != nil {
		return nil, errors.Wrapf(err, "could not allocate %d bytes of contiguous memory", size)
	}

	return &dmaBuffer{alloc: alloc}, nil
}

// ServeIRQ starts reading interrupts from the UIO device and calls handler for each one. Passing nil
// stops the reader.
func (d *Device) ServeIRQ(handler func()) error {
	d.irqLock.Lock()
	defer d.irqLock.Unlock()

	var err error
	if d.irq != nil {
		err = d.irq.stop()
		d.irq = nil
	}

	if handler == nil {
		return err
	}
	if err != nil {
		return err
	}

	if d.options.UIODevice == "" {
		return errors.Wrap(tilutils.InvalidArgumentError, "no UIO device was configured for the DMM interrupt")
	}

	loop, err := startIRQLoop(d.logger, d.options.UIODevice, handler)
	if err != nil {
		return err
	}
	d.irq = loop
	return nil
}

// Close stops interrupt delivery and unmaps the register window
func (d *Device) Close(ctx context.Context) error {
	err := d.ServeIRQ(nil)
	if d.window != nil {
		err = errors.CombineErrors(err, d.window.Close())
		d.window = nil
		d.registers = nil
	}

	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "error closing DMM host device", slog.Any("error", err))
	}
	return err
}
