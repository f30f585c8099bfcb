package dmm

import (
	"io"

	"github.com/vkngwrapper/tiler/tilutils"
)

// Register offsets inside the DMM register window
const (
	RegTilerOR0        uint32 = 0x220
	RegTilerOR1        uint32 = 0x224
	RegPATHWInfo       uint32 = 0x408
	RegPATGeometry     uint32 = 0x40C
	RegPATView0        uint32 = 0x420
	RegPATView1        uint32 = 0x424
	RegPATViewMap0     uint32 = 0x440
	RegPATViewMapBase  uint32 = 0x460
	RegPATIRQStatus    uint32 = 0x490
	RegPATIRQEnableSet uint32 = 0x4A0
	RegPATIRQEnableClr uint32 = 0x4B0

	regPATStatusBase uint32 = 0x4C0
	regPATDescrBase  uint32 = 0x500
)

// RegPATStatus is the status register of a refill engine
func RegPATStatus(engine int) uint32 {
	return regPATStatusBase + 4*uint32(engine)
}

// RegPATDescr is the descriptor pointer register of a refill engine. Writing the physical address of a
// descriptor chain starts a refill, and writing 0 cancels any stale one.
func RegPATDescr(engine int) uint32 {
	return regPATDescrBase + 0x10*uint32(engine)
}

// Values written at init
const (
	patViewInit       uint32 = 0x88888888
	patViewMapInit    uint32 = 0x80808080
	patViewMapBase    uint32 = 0x80000000
	tilerORInit       uint32 = 0x88888888
	irqEnableInit     uint32 = 0xfefefefe
	irqEnableTeardown uint32 = 0x7e7e7e7e
)

// HWInfo decodes the PAT_HWINFO register
type HWInfo uint32

func (i HWInfo) Engines() int { return int(i>>24) & 0x1F }
func (i HWInfo) LUTs() int    { return int(i>>16) & 0x1F }

// MakeHWInfo encodes engine and lookup-table counts the way PAT_HWINFO reports them
func MakeHWInfo(engines, luts int) HWInfo {
	return HWInfo(uint32(engines&0x1F)<<24 | uint32(luts&0x1F)<<16)
}

// Geometry decodes the PAT_GEOMETRY register
type Geometry uint32

func (g Geometry) LUTWidth() int  { return int((g>>16)&0xF) << 5 }
func (g Geometry) LUTHeight() int { return int((g>>24)&0xF) << 5 }

// MakeGeometry encodes lookup-table dimensions the way PAT_GEOMETRY reports them. Both must be
// multiples of 32.
func MakeGeometry(lutWidth, lutHeight int) Geometry {
	return Geometry(uint32((lutHeight>>5)&0xF)<<24 | uint32((lutWidth>>5)&0xF)<<16)
}

// IRQFlags is one engine's byte of the PAT_IRQSTATUS register
type IRQFlags uint32

var irqFlagsMapping = tilutils.NewFlagStringMapping[IRQFlags]()

func (f IRQFlags) Register(str string) {
	irqFlagsMapping.Register(f, str)
}
func (f IRQFlags) String() string {
	return irqFlagsMapping.FlagsToString(f)
}

const (
	// IRQDescriptorDone is raised as each descriptor in a chain is applied
	IRQDescriptorDone IRQFlags = 1 << iota
	// IRQLastDone is raised when the final descriptor of a chain is applied
	IRQLastDone
	IRQErrInvalidDescriptor
	IRQErrInvalidData
	IRQErrUpdateArea
	IRQErrUpdateControl
	IRQErrUpdateData
	IRQErrLUTMiss

	// IRQErrorMask covers every error bit
	IRQErrorMask = IRQErrInvalidDescriptor | IRQErrInvalidData | IRQErrUpdateArea |
		IRQErrUpdateControl | IRQErrUpdateData | IRQErrLUTMiss

	// IRQEngineShift is the number of PAT_IRQSTATUS bits given to each engine
	IRQEngineShift = 8
)

func init() {
	IRQDescriptorDone.Register("DescriptorDone")
	IRQLastDone.Register("LastDone")
	IRQErrInvalidDescriptor.Register("ErrInvalidDescriptor")
	IRQErrInvalidData.Register("ErrInvalidData")
	IRQErrUpdateArea.Register("ErrUpdateArea")
	IRQErrUpdateControl.Register("ErrUpdateControl")
	IRQErrUpdateData.Register("ErrUpdateData")
	IRQErrLUTMiss.Register("ErrLUTMiss")

	StatusReady.Register("Ready")
	StatusValid.Register("Valid")
	StatusRun.Register("Run")
	StatusDone.Register("Done")
	StatusLinked.Register("Linked")
	StatusBypassed.Register("Bypassed")
	StatusErrInvalidDescriptor.Register("ErrInvalidDescriptor")
	StatusErrInvalidData.Register("ErrInvalidData")
	StatusErrUpdateArea.Register("ErrUpdateArea")
	StatusErrUpdateControl.Register("ErrUpdateControl")
	StatusErrUpdateData.Register("ErrUpdateData")
	StatusErrAccess.Register("ErrAccess")
}

// EngineIRQ extracts the byte of PAT_IRQSTATUS that belongs to an engine
func EngineIRQ(status uint32, engine int) IRQFlags {
	return IRQFlags(status>>(IRQEngineShift*engine)) & 0xFF
}

// StatusFlags is the content of a refill engine's PAT_STATUS register
type StatusFlags uint32

var statusFlagsMapping = tilutils.NewFlagStringMapping[StatusFlags]()

func (f StatusFlags) Register(str string) {
	statusFlagsMapping.Register(f, str)
}
func (f StatusFlags) String() string {
	return statusFlagsMapping.FlagsToString(f)
}

const (
	StatusReady    StatusFlags = 1 << 0
	StatusValid    StatusFlags = 1 << 1
	StatusRun      StatusFlags = 1 << 2
	StatusDone     StatusFlags = 1 << 3
	StatusLinked   StatusFlags = 1 << 4
	StatusBypassed StatusFlags = 1 << 7

	StatusErrInvalidDescriptor StatusFlags = 1 << 10
	StatusErrInvalidData       StatusFlags = 1 << 11
	StatusErrUpdateArea        StatusFlags = 1 << 12
	StatusErrUpdateControl     StatusFlags = 1 << 13
	StatusErrUpdateData        StatusFlags = 1 << 14
	StatusErrAccess            StatusFlags = 1 << 15

	// StatusErrorMask covers every error bit
	StatusErrorMask = StatusErrInvalidDescriptor | StatusErrInvalidData | StatusErrUpdateArea |
		StatusErrUpdateControl | StatusErrUpdateData | StatusErrAccess
)

// Mem is a physically contiguous buffer visible to both the CPU and the DMM
type Mem interface {
	io.Closer
	// Bytes returns the CPU view of the buffer
	Bytes() []byte
	// PhysAddr returns the address the DMM uses to reach the buffer
	PhysAddr() uint64
}

// Hardware is the DMM as seen by the driver: a register window, a source of DMA-visible memory and an
// interrupt line
type Hardware interface {
	// Read32 reads the register at the provided byte offset
	Read32(offset uint32) uint32
	// Write32 writes the register at the provided byte offset
	Write32(offset uint32, value uint32)
	// AllocDMA allocates a physically contiguous buffer of at least size bytes
	AllocDMA(size int) (Mem, error)
	// ServeIRQ arranges for handler to be called every time the DMM raises its interrupt. Passing nil
	// stops delivery.
	ServeIRQ(handler func()) error
}
