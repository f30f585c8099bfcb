package tilutils

import "math"

// Statistics is a running total of container occupancy. Sizes are measured in slots.
type Statistics struct {
	ContainerCount int
	BlockCount     int
	ContainerSlots int
	BlockSlots     int
}

func (s *Statistics) Clear() {
	s.ContainerCount = 0
	s.BlockCount = 0
	s.ContainerSlots = 0
	s.BlockSlots = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.ContainerCount += other.ContainerCount
	s.BlockCount += other.BlockCount
	s.ContainerSlots += other.ContainerSlots
	s.BlockSlots += other.BlockSlots
}

// FreeSlots is the number of slots not covered by any block
func (s *Statistics) FreeSlots() int {
	return s.ContainerSlots - s.BlockSlots
}

type DetailedStatistics struct {
	Statistics
	PinnedBlockCount int
	BlockSlotsMin    int
	BlockSlotsMax    int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.PinnedBlockCount = 0
	s.BlockSlotsMin = math.MaxInt
	s.BlockSlotsMax = 0
}

func (s *DetailedStatistics) AddBlock(slots int, pinned bool) {
	s.BlockCount++
	s.BlockSlots += slots
	s.AddBlockDetails(slots, pinned)
}

// AddBlockDetails records a block's pin state and size range when its slots have already been counted
// through AddStatistics
func (s *DetailedStatistics) AddBlockDetails(slots int, pinned bool) {
	if pinned {
		s.PinnedBlockCount++
	}

	if slots < s.BlockSlotsMin {
		s.BlockSlotsMin = slots
	}

	if slots > s.BlockSlotsMax {
		s.BlockSlotsMax = slots
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.PinnedBlockCount += other.PinnedBlockCount

	if other.BlockSlotsMin < s.BlockSlotsMin {
		s.BlockSlotsMin = other.BlockSlotsMin
	}

	if other.BlockSlotsMax > s.BlockSlotsMax {
		s.BlockSlotsMax = other.BlockSlotsMax
	}
}
