package dmm

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/tilutils"
)

// arena is a bump allocator over one refill engine's DMA buffer. Allocations are aligned to
// DescriptorAlignment and the arena never grows. The only way to free is reset.
type arena struct {
	buffer   []byte
	physBase uint32
	offset   int
}

func newArena(mem Mem) (*arena, error) {
	phys := mem.PhysAddr()
	size := len(mem.Bytes())
	if phys > 0xFFFFFFFF || phys+uint64(size) > 0x100000000 {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError,
			"refill buffer at %#x is not reachable with 32-bit descriptors", phys)
	}
	if phys%DescriptorAlignment != 0 {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError,
			"refill buffer at %#x is not aligned to %d bytes", phys, DescriptorAlignment)
	}

	return &arena{
		buffer:   mem.Bytes(),
		physBase: uint32(phys),
	}, nil
}

func (a *arena) reset() {
	a.offset = 0
}

func (a *arena) capacity() int {
	return len(a.buffer)
}

func (a *arena) used() int {
	return a.offset
}

// alloc carves size bytes out of the buffer and returns the CPU view and physical address of them
func (a *arena) alloc(size int) ([]byte, uint32, error) {
	start := tilutils.AlignUp(a.offset, DescriptorAlignment)
	if size < 0 || start+size > len(a.buffer) {
		return nil, 0, errors.Wrapf(tilutils.CapacityExceededError,
			"%d bytes requested at offset %d of a %d byte refill buffer", size, start, len(a.buffer))
	}

	a.offset = start + size
	return a.buffer[start:a.offset], a.physBase + uint32(start), nil
}
