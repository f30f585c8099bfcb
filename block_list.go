package tiler

import (
	"sync/atomic"

	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/tiler/internal/utils"
	"golang.org/x/exp/slices"
)

type blockList struct {
	mutex  utils.OptionalRWMutex
	blocks *swiss.Map[uint64, *Block]
	nextID atomic.Uint64
}

func (l *blockList) Init(useMutex bool) {
	l.mutex = utils.OptionalRWMutex{UseMutex: useMutex}
	l.blocks = swiss.NewMap[uint64, *Block](64)
}

func (l *blockList) Register(block *Block) {
	block.id = l.nextID.Add(1)

	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.blocks.Put(block.id, block)
}

func (l *blockList) Unregister(block *Block) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.blocks.Delete(block.id)
}

func (l *blockList) Count() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.blocks.Count()
}

// Snapshot returns every registered block in reservation order
func (l *blockList) Snapshot() []*Block {
	l.mutex.RLock()
	blocks := make([]*Block, 0, l.blocks.Count())
	l.blocks.Iter(func(id uint64, block *Block) bool {
		blocks = append(blocks, block)
		return false
	})
	l.mutex.RUnlock()

	slices.SortFunc(blocks, func(left, right *Block) int {
		switch {
		case left.id < right.id:
			return -1
		case left.id > right.id:
			return 1
		}
		return 0
	})
	return blocks
}
