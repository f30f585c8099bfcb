package dmm

import (
	"encoding/binary"
	"fmt"
)

// DescriptorSize is the size in bytes of one PAT descriptor
const DescriptorSize = 16

// DescriptorAlignment is the alignment every descriptor and data array must have inside a refill buffer
const DescriptorAlignment = 16

// Region is an inclusive rectangle of lookup-table entries
type Region struct {
	X0 int
	Y0 int
	X1 int
	Y1 int
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X0, r.Y0, r.X1, r.Y1)
}

func (r Region) Width() int  { return r.X1 - r.X0 + 1 }
func (r Region) Height() int { return r.Y1 - r.Y0 + 1 }

// Slots is the number of lookup-table entries in the region
func (r Region) Slots() int {
	return r.Width() * r.Height()
}

// PackArea encodes a region in the PAT area word layout: one byte each for x0, y0, x1 and y1
func PackArea(r Region) uint32 {
	return uint32(r.X0&0xFF) | uint32(r.Y0&0xFF)<<8 | uint32(r.X1&0xFF)<<16 | uint32(r.Y1&0xFF)<<24
}

// UnpackArea decodes a PAT area word
func UnpackArea(area uint32) Region {
	return Region{
		X0: int(area & 0xFF),
		Y0: int((area >> 8) & 0xFF),
		X1: int((area >> 16) & 0xFF),
		Y1: int((area >> 24) & 0xFF),
	}
}

// Control is the PAT control word: start:4 dir:4 lut_id:8 sync:12 ini:4
type Control uint32

// MakeControl builds the control word for a refill of the provided lookup table
func MakeControl(lut int) Control {
	return Control(1 | uint32(lut&0xFF)<<8)
}

func (c Control) Start() bool { return c&0xF != 0 }
func (c Control) LUT() int    { return int(c>>8) & 0xFF }

// Descriptor is one link of a PAT refill chain
type Descriptor struct {
	// Next is the physical address of the following descriptor, or 0 at the end of the chain
	Next uint32
	// Area is the packed rectangle this descriptor refills
	Area uint32
	// Control selects the lookup table and starts the refill
	Control Control
	// Data is the physical address of Area's slot count of little-endian page addresses, in row-major order
	Data uint32
}

// Encode writes the descriptor into buf, which must hold at least DescriptorSize bytes
func (d Descriptor) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], d.Next)
	binary.LittleEndian.PutUint32(buf[4:], d.Area)
	binary.LittleEndian.PutUint32(buf[8:], uint32(d.Control))
	binary.LittleEndian.PutUint32(buf[12:], d.Data)
}

// DecodeDescriptor reads a descriptor from buf, which must hold at least DescriptorSize bytes
func DecodeDescriptor(buf []byte) Descriptor {
	return Descriptor{
		Next:    binary.LittleEndian.Uint32(buf[0:]),
		Area:    binary.LittleEndian.Uint32(buf[4:]),
		Control: Control(binary.LittleEndian.Uint32(buf[8:])),
		Data:    binary.LittleEndian.Uint32(buf[12:]),
	}
}

func setNext(buf []byte, next uint32) {
	binary.LittleEndian.PutUint32(buf[0:], next)
}
