// Package dmmsim simulates a DMM register window, its physical memory and its interrupt line closely enough
// to drive a dmm.Device without hardware. Refills are applied synchronously when a descriptor chain is
// kicked, and faults can be injected per engine.
package dmmsim

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/tiler/dmm"
)

type engineState struct {
	status      dmm.StatusFlags
	stuck       bool
	fault       dmm.StatusFlags
	dropIRQ     bool
	failStatus  dmm.StatusFlags
	failIRQ     dmm.IRQFlags
	kicks       int
	descriptors int
}

// Device is a simulated DMM. It implements dmm.Hardware.
type Device struct {
	options Options

	lock      sync.Mutex
	registers *swiss.Map[uint32, uint32]
	engines   []engineState
	luts      [][]uint32

	irqStatus uint32
	irqEnable uint32
	handler   func()
	irqWG     sync.WaitGroup

	allocations *swiss.Map[uint64, *memory]
	nextPhys    uint64
	failAllocs  int
}

var _ dmm.Hardware = &Device{}

// New builds a simulated DMM in its reset state: every engine ready, every lookup-table entry 0
func New(options Options) *Device {
	options = options.withDefaults()

	d := &Device{
		options:     options,
		registers:   swiss.NewMap[uint32, uint32](16),
		engines:     make([]engineState, options.Engines),
		allocations: swiss.NewMap[uint64, *memory](8),
		nextPhys:    options.PhysBase,
	}

	for i := range d.engines {
		d.engines[i].status = dmm.StatusReady
	}
	for i := 0; i < options.LUTs; i++ {
		d.luts = append(d.luts, make([]uint32, options.LUTWidth*options.LUTHeight))
	}

	return d
}

// Read32 reads a simulated register
func (d *Device) Read32(offset uint32) uint32 {
	d.lock.Lock()
	defer d.lock.Unlock()

	switch offset {
	case dmm.RegPATHWInfo:
		return uint32(dmm.MakeHWInfo(d.options.Engines, d.options.LUTs))
	case dmm.RegPATGeometry:
		return uint32(dmm.MakeGeometry(d.options.LUTWidth, d.options.LUTHeight))
	case dmm.RegPATIRQStatus:
		return d.irqStatus
	case dmm.RegPATIRQEnableSet, dmm.RegPATIRQEnableClr:
		return d.irqEnable
	}

	if engine, ok := d.statusEngine(offset); ok {
		state := &d.engines[engine]
		if state.stuck {
			return uint32(state.fault)
		}
		return uint32(state.status | state.fault)
	}

	value, _ := d.registers.Get(offset)
	return value
}

// Write32 writes a simulated register. Writing a descriptor address to an engine's PAT_DESCR applies
// the whole chain before returning.
func (d *Device) Write32(offset uint32, value uint32) {
	d.lock.Lock()

	switch offset {
	case dmm.RegPATIRQStatus:
		d.irqStatus &^= value
		d.lock.Unlock()
		return
	case dmm.RegPATIRQEnableSet:
		d.irqEnable |= value
		d.lock.Unlock()
		return
	case dmm.RegPATIRQEnableClr:
		d.irqEnable &^= value
		d.lock.Unlock()
		return
	}

	if engine, ok := d.descrEngine(offset); ok {
		raise := d.kick(engine, value)
		d.lock.Unlock()

		if raise {
			d.deliver()
		}
		return
	}

	d.registers.Put(offset, value)
	d.lock.Unlock()
}

func (d *Device) statusEngine(offset uint32) (int, bool) {
	for i := range d.engines {
		if offset == dmm.RegPATStatus(i) {
			return i, true
		}
	}
	return 0, false
}

func (d *Device) descrEngine(offset uint32) (int, bool) {
	for i := range d.engines {
		if offset == dmm.RegPATDescr(i) {
			return i, true
		}
	}
	return 0, false
}

// kick runs a descriptor chain and reports whether an enabled interrupt is now pending
func (d *Device) kick(engine int, chain uint32) bool {
	state := &d.engines[engine]
	if chain == 0 {
		state.status = dmm.StatusReady
		return false
	}

	state.kicks++
	state.status = dmm.StatusValid | dmm.StatusRun

	var irq dmm.IRQFlags
	if state.failIRQ != 0 {
		state.status = state.failStatus
		irq = state.failIRQ
		state.failStatus, state.failIRQ = 0, 0
	}

	for next := chain; next != 0 && irq&dmm.IRQErrorMask == 0; {
		descriptorBytes := d.resolve(next, dmm.DescriptorSize)
		if descriptorBytes == nil {
			state.status = dmm.StatusErrInvalidDescriptor
			irq |= dmm.IRQErrInvalidDescriptor
			break
		}

		descriptor := dmm.DecodeDescriptor(descriptorBytes)
		status, flags := d.apply(descriptor)
		if flags != 0 {
			state.status = status
			irq |= flags
			break
		}

		state.descriptors++
		next = descriptor.Next
		if next == 0 {
			irq |= dmm.IRQLastDone
		}
		if next == 0 || d.options.Flags&FlagIRQOnEveryDescriptor != 0 {
			irq |= dmm.IRQDescriptorDone
		}
	}

	if irq&dmm.IRQErrorMask == 0 {
		state.status = dmm.StatusReady | dmm.StatusValid | dmm.StatusDone
	}
	if state.dropIRQ {
		return false
	}

	d.irqStatus |= uint32(irq) << (dmm.IRQEngineShift * engine)
	return d.irqStatus&d.irqEnable != 0
}

// apply writes one descriptor's data into its lookup table
func (d *Device) apply(descriptor dmm.Descriptor) (dmm.StatusFlags, dmm.IRQFlags) {
	lut := descriptor.Control.LUT()
	region := dmm.UnpackArea(descriptor.Area)

	if !descriptor.Control.Start() || lut >= len(d.luts) {
		return dmm.StatusErrUpdateControl, dmm.IRQErrUpdateControl
	}
	if region.X0 > region.X1 || region.Y0 > region.Y1 ||
		region.X1 >= d.options.LUTWidth || region.Y1 >= d.options.LUTHeight {
		return dmm.StatusErrUpdateArea, dmm.IRQErrUpdateArea
	}

	data := d.resolve(descriptor.Data, region.Slots()*4)
	if data == nil {
		return dmm.StatusErrInvalidData, dmm.IRQErrInvalidData
	}

	i := 0
	for y := region.Y0; y <= region.Y1; y++ {
		for x := region.X0; x <= region.X1; x++ {
			d.luts[lut][y*d.options.LUTWidth+x] = binary.LittleEndian.Uint32(data[i:])
			i += 4
		}
	}

	return 0, 0
}

func (d *Device) deliver() {
	d.lock.Lock()
	handler := d.handler
	d.lock.Unlock()

	if handler == nil {
		return
	}

	if d.options.IRQDelay > 0 || d.options.Flags&FlagAsyncIRQ != 0 {
		d.irqWG.Add(1)
		time.AfterFunc(d.options.IRQDelay, func() {
			defer d.irqWG.Done()
			handler()
		})
		return
	}

	handler()
}

// ServeIRQ installs the interrupt handler. Passing nil uninstalls it.
func (d *Device) ServeIRQ(handler func()) error {
	d.lock.Lock()
	d.handler = handler
	d.lock.Unlock()
	return nil
}

// WaitIRQ blocks until every delayed interrupt has been delivered
func (d *Device) WaitIRQ() {
	d.irqWG.Wait()
}

// RaiseIRQ delivers the interrupt if any enabled status bit is pending
func (d *Device) RaiseIRQ() {
	d.lock.Lock()
	pending := d.irqStatus&d.irqEnable != 0
	d.lock.Unlock()

	if pending {
		d.deliver()
	}
}
