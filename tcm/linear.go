package tcm

import (
	"math"
	"math/bits"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/tiler/tilutils"
)

const (
	smallRunSlots          = 16
	secondLevelIndex uint8 = 3
	sizeClassShift         = 3
	maxSizeClasses         = 32
)

var linearBlockPool = sync.Pool{
	New: func() any {
		return &linearBlock{}
	},
}

type linearBlock struct {
	offset       int
	size         int
	prevPhysical *linearBlock
	nextPhysical *linearBlock

	prevFree *linearBlock
	nextFree *linearBlock

	free bool
}

// Linear is a container for 1D reservations only. It treats the grid as one run of slots in row-major
// order and places runs with a two-level segregated fit, which keeps placement time flat no matter how
// fragmented the container gets.
type Linear struct {
	width  int
	height int
	target Target
	size   int

	allocCount        int
	blocksFreeCount   int
	blocksFreeSize    int
	isFreeBitmap      uint32
	innerIsFreeBitmap [maxSizeClasses]uint32

	taken     *swiss.Map[int, *linearBlock]
	freeList  []*linearBlock
	nullBlock *linearBlock
}

var _ Container = &Linear{}

// NewLinear creates an empty width x height linear container backed by the provided lookup-table region
func NewLinear(width, height int, target Target) (*Linear, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError, "container dimensions %dx%d must be positive", width, height)
	}

	m := &Linear{
		width:  width,
		height: height,
		target: target,
		size:   width * height,
		taken:  swiss.NewMap[int, *linearBlock](42),
	}

	m.nullBlock = m.allocateBlock()
	m.nullBlock.size = m.size
	m.nullBlock.free = true

	sizeClass := m.sizeToClass(m.size)
	m.freeList = make([]*linearBlock, m.getListIndex(sizeClass, uint16(1)<<secondLevelIndex-1)+1)

	return m, nil
}

func (m *Linear) Width() int     { return m.width }
func (m *Linear) Height() int    { return m.height }
func (m *Linear) Target() Target { return m.target }

func (m *Linear) allocateBlock() *linearBlock {
	b := linearBlockPool.Get().(*linearBlock)
	*b = linearBlock{}
	return b
}

func (m *Linear) releaseBlock(b *linearBlock) {
	linearBlockPool.Put(b)
}

func (m *Linear) sizeToClass(size int) uint8 {
	if size > smallRunSlots {
		mostSignificantBit := uint8(63 - bits.LeadingZeros64(uint64(size)))
		return mostSignificantBit - sizeClassShift
	}

	return 0
}

func (m *Linear) sizeToSecondIndex(size int, sizeClass uint8) uint16 {
	if sizeClass != 0 {
		mask := uint(1) << secondLevelIndex
		indexVal := uint(size) >> (sizeClass + sizeClassShift - secondLevelIndex)
		return uint16(indexVal ^ mask)
	}

	return uint16((size - 1) / (smallRunSlots / 4))
}

func (m *Linear) getListIndex(sizeClass uint8, secondIndex uint16) int {
	if sizeClass == 0 {
		return int(secondIndex)
	}

	return int(sizeClass-1)*(1<<secondLevelIndex) + int(secondIndex) + 4
}

func (m *Linear) getListIndexFromSize(size int) int {
	sizeClass := m.sizeToClass(size)
	return m.getListIndex(sizeClass, m.sizeToSecondIndex(size, sizeClass))
}

func (m *Linear) sumFreeSize() int {
	return m.blocksFreeSize + m.nullBlock.size
}

func (m *Linear) findFreeBlock(size int) (*linearBlock, int) {
	sizeClass := m.sizeToClass(size)
	innerFreeMap := m.innerIsFreeBitmap[sizeClass] & (math.MaxUint32 << m.sizeToSecondIndex(size, sizeClass))

	if innerFreeMap == 0 {
		// Check higher classes for available blocks
		freeMap := m.isFreeBitmap & (math.MaxUint32 << (sizeClass + 1))
		if freeMap == 0 {
			return nil, 0
		}

		sizeClass = uint8(bits.TrailingZeros32(freeMap))
		innerFreeMap = m.innerIsFreeBitmap[sizeClass]
		if innerFreeMap == 0 {
			panic("free bitmap is in an invalid state")
		}
	}

	listIndex := m.getListIndex(sizeClass, uint16(bits.TrailingZeros32(innerFreeMap)))
	if m.freeList[listIndex] == nil {
		panic("free list was listed as having free blocks, but no blocks were in the free list")
	}

	return m.freeList[listIndex], listIndex
}

func (m *Linear) findFit(size int) *linearBlock {
	if size > m.sumFreeSize() {
		return nil
	}

	if m.blocksFreeCount == 0 {
		if m.nullBlock.size >= size {
			return m.nullBlock
		}
		return nil
	}

	// Round up to the next list so that any block found there fits without checking
	sizeForNextList := size
	smallSizeStep := smallRunSlots / 4
	if size > smallRunSlots {
		mostSignificantBit := 63 - bits.LeadingZeros64(uint64(size))
		sizeForNextList += 1 << (mostSignificantBit - int(secondLevelIndex))
	} else if size > smallRunSlots-smallSizeStep {
		sizeForNextList = smallRunSlots + 1
	} else {
		sizeForNextList += smallSizeStep
	}

	nextListBlock, _ := m.findFreeBlock(sizeForNextList)
	for ; nextListBlock != nil; nextListBlock = nextListBlock.nextFree {
		if nextListBlock.size >= size {
			return nextListBlock
		}
	}

	if m.nullBlock.size >= size {
		return m.nullBlock
	}

	prevListBlock, prevListIndex := m.findFreeBlock(size)
	if prevListBlock == nil {
		return nil
	}

	for ; prevListBlock != nil; prevListBlock = prevListBlock.nextFree {
		if prevListBlock.size >= size {
			return prevListBlock
		}
	}

	// Worst case, full search
	for listIndex := prevListIndex + 1; listIndex < len(m.freeList); listIndex++ {
		for block := m.freeList[listIndex]; block != nil; block = block.nextFree {
			if block.size >= size {
				return block
			}
		}
	}

	return nil
}

func (m *Linear) removeFreeBlock(block *linearBlock) {
	if block == m.nullBlock {
		panic("cannot remove the null block")
	}
	if !block.free {
		panic("provided block is not free")
	}

	if block.nextFree != nil {
		block.nextFree.prevFree = block.prevFree
	}
	if block.prevFree != nil {
		block.prevFree.nextFree = block.nextFree
	} else {
		sizeClass := m.sizeToClass(block.size)
		secondIndex := m.sizeToSecondIndex(block.size, sizeClass)
		index := m.getListIndex(sizeClass, secondIndex)

		if m.freeList[index] != block {
			panic("block was not in the free list at the expected location")
		}
		m.freeList[index] = block.nextFree
		if block.nextFree == nil {
			m.innerIsFreeBitmap[sizeClass] &= ^(uint32(1) << secondIndex)
			if m.innerIsFreeBitmap[sizeClass] == 0 {
				m.isFreeBitmap &= ^(uint32(1) << sizeClass)
			}
		}
	}

	block.free = false
	block.prevFree = nil
	block.nextFree = nil
	m.blocksFreeCount--
	m.blocksFreeSize -= block.size
}

func (m *Linear) insertFreeBlock(block *linearBlock) {
	if block == m.nullBlock {
		panic("cannot insert the null block")
	}
	if block.free {
		panic("block is already free")
	}

	sizeClass := m.sizeToClass(block.size)
	secondIndex := m.sizeToSecondIndex(block.size, sizeClass)
	index := m.getListIndex(sizeClass, secondIndex)

	block.free = true
	block.prevFree = nil
	block.nextFree = m.freeList[index]
	m.freeList[index] = block
	if block.nextFree != nil {
		block.nextFree.prevFree = block
	} else {
		m.innerIsFreeBitmap[sizeClass] |= uint32(1) << secondIndex
		m.isFreeBitmap |= uint32(1) << sizeClass
	}
	m.blocksFreeCount++
	m.blocksFreeSize += block.size
}

func (m *Linear) alloc(size int) (int, bool) {
	block := m.findFit(size)
	if block == nil {
		return 0, false
	}

	if block != m.nullBlock {
		m.removeFreeBlock(block)
	}

	if block.size > size {
		rest := m.allocateBlock()
		rest.offset = block.offset + size
		rest.size = block.size - size
		rest.prevPhysical = block
		rest.nextPhysical = block.nextPhysical
		if rest.nextPhysical != nil {
			rest.nextPhysical.prevPhysical = rest
		}
		block.nextPhysical = rest
		block.size = size

		if block == m.nullBlock {
			m.nullBlock = rest
			rest.free = true
		} else {
			m.insertFreeBlock(rest)
		}
	} else if block == m.nullBlock {
		// Set up a new, empty null block
		m.nullBlock = m.allocateBlock()
		m.nullBlock.offset = block.offset + size
		m.nullBlock.prevPhysical = block
		m.nullBlock.free = true
		block.nextPhysical = m.nullBlock
	}

	block.free = false
	m.allocCount++
	m.taken.Put(block.offset, block)

	return block.offset, true
}

// mergePrev folds prev, which must directly precede block and be out of the free lists, into block
func (m *Linear) mergePrev(block *linearBlock, prev *linearBlock) {
	if block.prevPhysical != prev {
		panic("cannot merge separate physical regions")
	}

	block.offset = prev.offset
	block.size += prev.size
	block.prevPhysical = prev.prevPhysical
	if block.prevPhysical != nil {
		block.prevPhysical.nextPhysical = block
	}

	m.releaseBlock(prev)
}

func (m *Linear) free(offset int) bool {
	block, ok := m.taken.Get(offset)
	if !ok {
		return false
	}

	m.taken.Delete(offset)
	m.allocCount--

	prev := block.prevPhysical
	if prev != nil && prev.free {
		m.removeFreeBlock(prev)
		m.mergePrev(block, prev)
	}

	next := block.nextPhysical
	if next == m.nullBlock {
		m.mergePrev(m.nullBlock, block)
	} else if next.free {
		m.removeFreeBlock(next)
		m.mergePrev(next, block)
		m.insertFreeBlock(next)
	} else {
		m.insertFreeBlock(block)
	}

	return true
}

func (m *Linear) offsetToPoint(offset int) Point {
	return Point{X: offset % m.width, Y: offset / m.width}
}

func (m *Linear) areaToOffset(area Area) (int, bool) {
	if area.Is2D || !area.valid(m.width, m.height) {
		return 0, false
	}

	offset := area.P0.Y*m.width + area.P0.X
	block, ok := m.taken.Get(offset)
	if !ok || block.size != area.SlotCount(m.width) {
		return 0, false
	}

	return offset, true
}

func (m *Linear) Reserve2D(width, height, align int) (Area, error) {
	return Area{}, errors.Wrap(tilutils.NotPermittedError, "linear containers only hold 1D reservations")
}

func (m *Linear) Reserve1D(slots int) (Area, error) {
	if slots <= 0 || slots > m.size {
		return Area{}, errors.Wrapf(tilutils.InvalidArgumentError,
			"%d slots does not fit inside a %dx%d container", slots, m.width, m.height)
	}

	offset, ok := m.alloc(slots)
	if !ok {
		return Area{}, errors.Wrapf(tilutils.NoSpaceError, "no run of %d free slots", slots)
	}

	tilutils.DebugValidate(m)

	return Area{
		P0: m.offsetToPoint(offset),
		P1: m.offsetToPoint(offset + slots - 1),
	}, nil
}

func (m *Linear) Free(area Area) error {
	offset, ok := m.areaToOffset(area)
	if !ok || !m.free(offset) {
		return errors.Wrapf(tilutils.InvalidArgumentError, "area %s was not reserved from this container", area)
	}

	tilutils.DebugValidate(m)
	return nil
}

func (m *Linear) ForEachSlice(area Area, fn func(slice Area) error) error {
	if _, ok := m.areaToOffset(area); !ok {
		return errors.Wrapf(tilutils.InvalidArgumentError, "area %s was not reserved from this container", area)
	}

	return area.Slices(m.width, fn)
}

func (m *Linear) areas() []Area {
	areas := make([]Area, m.allocCount)

	i := m.allocCount
	for block := m.nullBlock.prevPhysical; block != nil; block = block.prevPhysical {
		if block.free {
			continue
		}

		i--
		areas[i] = Area{
			P0: m.offsetToPoint(block.offset),
			P1: m.offsetToPoint(block.offset + block.size - 1),
		}
	}

	if i != 0 {
		panic("the container's allocation count does not match the number of physical blocks")
	}

	return areas
}

func (m *Linear) Validate() error {
	if m.sumFreeSize() > m.size {
		return errors.New("invalid free size")
	}

	calculatedSize := m.nullBlock.size
	calculatedFreeSize := m.nullBlock.size
	var allocCount, freeCount, freeListCount int

	// Check integrity of free lists
	for listIndex := 0; listIndex < len(m.freeList); listIndex++ {
		block := m.freeList[listIndex]
		if block == nil {
			continue
		}

		if block.prevFree != nil {
			return errors.Newf("block at offset %d is the head of a free list but has a previous block", block.offset)
		}

		for ; block != nil; block = block.nextFree {
			if !block.free {
				return errors.Newf("block at offset %d is in the free list but is not free", block.offset)
			}
			if m.getListIndexFromSize(block.size) != listIndex {
				return errors.Newf("block at offset %d is in free list %d but its size belongs in another", block.offset, listIndex)
			}
			if block.nextFree != nil && block.nextFree.prevFree != block {
				return errors.Newf("block at offset %d lists the block at offset %d as its next block, but the reverse reference is broken", block.offset, block.nextFree.offset)
			}

			freeListCount++
		}
	}

	if m.nullBlock.nextPhysical != nil {
		return errors.New("null block must be the tail of its physical block chain")
	}

	nextOffset := m.nullBlock.offset
	nextFree := true

	for prev := m.nullBlock.prevPhysical; prev != nil; prev = prev.prevPhysical {
		if prev.offset+prev.size != nextOffset {
			return errors.Newf("physical block at offset %d does not end at the next block's start offset", prev.offset)
		}
		if prev.nextPhysical == nil || prev.nextPhysical.prevPhysical != prev {
			return errors.Newf("block at offset %d has a next physical block, but the reverse reference is broken", prev.offset)
		}

		nextOffset = prev.offset
		calculatedSize += prev.size

		if prev.free {
			if nextFree {
				return errors.Newf("free block at offset %d was not merged with its free neighbor", prev.offset)
			}
			freeCount++
			calculatedFreeSize += prev.size
		} else {
			allocCount++
			if block, ok := m.taken.Get(prev.offset); !ok || block != prev {
				return errors.Newf("taken block at offset %d is not registered", prev.offset)
			}
		}

		nextFree = prev.free
	}

	if freeListCount != freeCount {
		return errors.Newf("the number of free blocks in the physical list and the number of blocks in the free list do not match! free list size: %d, physical list free blocks: %d", freeListCount, freeCount)
	}

	if nextOffset != 0 {
		return errors.Newf("the first physical block should have an offset of 0, but instead it has an offset of %d", nextOffset)
	}

	if calculatedSize != m.size {
		return errors.Newf("the full size of the container is %d, but the blocks only added up to %d", m.size, calculatedSize)
	}

	if calculatedFreeSize != m.sumFreeSize() {
		return errors.Newf("the free size of the container is %d, but the free blocks only added up to %d", m.sumFreeSize(), calculatedFreeSize)
	}

	if allocCount != m.allocCount || allocCount != m.taken.Count() {
		return errors.Newf("the allocation count of the container is %d, but the taken blocks only added up to %d", m.allocCount, allocCount)
	}

	if freeCount != m.blocksFreeCount {
		return errors.Newf("the free block count of the container is %d, but there were only %d free blocks", m.blocksFreeCount, freeCount)
	}

	return nil
}

func (m *Linear) AddStatistics(stats *tilutils.Statistics) {
	stats.ContainerCount++
	stats.ContainerSlots += m.size
	stats.BlockCount += m.allocCount
	stats.BlockSlots += m.size - m.sumFreeSize()
}

func (m *Linear) ContainerJsonData(json *jwriter.ObjectState) {
	json.Name("Kind").String("Linear")
	json.Name("FreeRegions").Int(m.blocksFreeCount)
	containerJsonData(json, m, m.size-m.sumFreeSize(), m.allocCount, m.areas())
}
