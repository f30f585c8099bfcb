package dmmsim

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/dmm"
	"github.com/vkngwrapper/tiler/tilutils"
)

const allocationAlignment = 4096

type memory struct {
	device *Device
	phys   uint64
	buffer []byte
	closed bool
}

var _ dmm.Mem = &memory{}

func (m *memory) Bytes() []byte    { return m.buffer }
func (m *memory) PhysAddr() uint64 { return m.phys }

func (m *memory) Close() error {
	m.device.lock.Lock()
	defer m.device.lock.Unlock()

	if m.closed {
		return errors.Wrapf(tilutils.NotPermittedError, "DMA buffer at %#x was already freed", m.phys)
	}
	m.closed = true
	m.device.allocations.Delete(m.phys)
	return nil
}

// AllocDMA hands out zeroed, 4096-aligned simulated physical memory
func (d *Device) AllocDMA(size int) (dmm.Mem, error) {
	if size <= 0 {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError, "cannot allocate %d bytes", size)
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.failAllocs > 0 {
		d.failAllocs--
		return nil, errors.Newf("simulated allocation failure of %d bytes", size)
	}

	mem := &memory{
		device: d,
		phys:   d.nextPhys,
		buffer: make([]byte, size),
	}
	d.nextPhys += uint64(tilutils.AlignUp(size, allocationAlignment))
	d.allocations.Put(mem.phys, mem)

	return mem, nil
}

// resolve finds the bytes behind a physical range. Ranges that cross or miss every live allocation
// return nil.
func (d *Device) resolve(phys uint32, size int) []byte {
	var found []byte
	d.allocations.Iter(func(base uint64, mem *memory) bool {
		if uint64(phys) >= base && uint64(phys)+uint64(size) <= base+uint64(len(mem.buffer)) {
			offset := uint64(phys) - base
			found = mem.buffer[offset : offset+uint64(size)]
			return true
		}
		return false
	})
	return found
}
