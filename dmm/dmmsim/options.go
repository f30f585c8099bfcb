package dmmsim

import (
	"time"

	"github.com/vkngwrapper/tiler/tilutils"
)

// Flags toggles optional behavior of the simulator
type Flags uint32

var flagsMapping = tilutils.NewFlagStringMapping[Flags]()

func (f Flags) Register(str string) {
	flagsMapping.Register(f, str)
}
func (f Flags) String() string {
	return flagsMapping.FlagsToString(f)
}

const (
	// FlagIRQOnEveryDescriptor raises a descriptor-done interrupt for every descriptor of a chain instead of
	// only for the last one
	FlagIRQOnEveryDescriptor Flags = 1 << iota
	// FlagAsyncIRQ delivers interrupts from a separate goroutine even when IRQDelay is 0
	FlagAsyncIRQ
)

func init() {
	FlagIRQOnEveryDescriptor.Register("FlagIRQOnEveryDescriptor")
	FlagAsyncIRQ.Register("FlagAsyncIRQ")
}

// Options describes the simulated hardware. Zero values select an OMAP4-like part with two engines.
type Options struct {
	Flags Flags

	// Engines is the number of refill engines reported in PAT_HWINFO
	Engines int
	// LUTs is the number of lookup tables reported in PAT_HWINFO
	LUTs int
	// LUTWidth and LUTHeight are the lookup-table dimensions reported in PAT_GEOMETRY
	LUTWidth  int
	LUTHeight int

	// PhysBase is the physical address of the first DMA allocation
	PhysBase uint64
	// IRQDelay postpones every interrupt. 0 delivers interrupts as soon as the refill is applied.
	IRQDelay time.Duration
}

// OMAP4 is the topology of a part with one 256x128 lookup table holding one container
var OMAP4 = Options{Engines: 2, LUTs: 1, LUTWidth: 256, LUTHeight: 128}

// OMAP5 is the topology of a part with one 256x256 lookup table split into a 2D and a page-mode container
var OMAP5 = Options{Engines: 2, LUTs: 1, LUTWidth: 256, LUTHeight: 256}

func (o Options) withDefaults() Options {
	if o.Engines == 0 {
		o.Engines = OMAP4.Engines
	}
	if o.LUTs == 0 {
		o.LUTs = OMAP4.LUTs
	}
	if o.LUTWidth == 0 {
		o.LUTWidth = OMAP4.LUTWidth
	}
	if o.LUTHeight == 0 {
		o.LUTHeight = OMAP4.LUTHeight
	}
	if o.PhysBase == 0 {
		o.PhysBase = 0x9000_0000
	}
	return o
}
