package dmmsim

import "github.com/vkngwrapper/tiler/dmm"

// Register returns the last value written to a plain register
func (d *Device) Register(offset uint32) uint32 {
	d.lock.Lock()
	defer d.lock.Unlock()

	value, _ := d.registers.Get(offset)
	return value
}

// IRQEnabled returns the current interrupt enable mask
func (d *Device) IRQEnabled() uint32 {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.irqEnable
}

// IRQPending returns the unacknowledged interrupt status
func (d *Device) IRQPending() uint32 {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.irqStatus
}

// Entry returns one lookup-table entry as the hardware holds it
func (d *Device) Entry(lut, x, y int) uint32 {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.luts[lut][y*d.options.LUTWidth+x]
}

// Entries returns a rectangle of lookup-table entries in row-major order
func (d *Device) Entries(lut int, region dmm.Region) []uint32 {
	d.lock.Lock()
	defer d.lock.Unlock()

	values := make([]uint32, 0, region.Slots())
	for y := region.Y0; y <= region.Y1; y++ {
		start := y*d.options.LUTWidth + region.X0
		values = append(values, d.luts[lut][start:start+region.Width()]...)
	}
	return values
}

// Kicks returns the number of descriptor chains an engine has been started on
func (d *Device) Kicks(engine int) int {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.engines[engine].kicks
}

// Descriptors returns the number of descriptors an engine has applied
func (d *Device) Descriptors(engine int) int {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.engines[engine].descriptors
}

// LiveAllocations returns the number of DMA buffers that have not been closed
func (d *Device) LiveAllocations() int {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.allocations.Count()
}

// InjectFault makes an engine's status register report error bits until ClearFaults is called
func (d *Device) InjectFault(engine int, fault dmm.StatusFlags) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.engines[engine].fault = fault
}

// SetStuck makes an engine never report ready
func (d *Device) SetStuck(engine int, stuck bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.engines[engine].stuck = stuck
}

// DropIRQ makes an engine apply chains without ever raising an interrupt
func (d *Device) DropIRQ(engine int, drop bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.engines[engine].dropIRQ = drop
}

// FailNextRefill makes the engine's next descriptor chain stop before its first descriptor, leaving
// status in PAT_STATUS and raising irq instead of LastDone
func (d *Device) FailNextRefill(engine int, status dmm.StatusFlags, irq dmm.IRQFlags) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.engines[engine].failStatus = status
	d.engines[engine].failIRQ = irq
}

// FailAllocations makes the next count calls to AllocDMA fail
func (d *Device) FailAllocations(count int) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.failAllocs = count
}

// ClearFaults removes every injected fault
func (d *Device) ClearFaults() {
	d.lock.Lock()
	defer d.lock.Unlock()

	for i := range d.engines {
		d.engines[i].fault = 0
		d.engines[i].stuck = false
		d.engines[i].dropIRQ = false
		d.engines[i].failStatus = 0
		d.engines[i].failIRQ = 0
	}
	d.failAllocs = 0
}

// ClearLUTs zeroes every lookup-table entry, the way the hardware loses its contents across a power cycle
func (d *Device) ClearLUTs() {
	d.lock.Lock()
	defer d.lock.Unlock()

	for _, lut := range d.luts {
		clear(lut)
	}
}
