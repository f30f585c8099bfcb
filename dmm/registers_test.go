package dmm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHWInfoAndGeometry(t *testing.T) {
	info := HWInfo(0x04010000)
	require.Equal(t, 4, info.Engines())
	require.Equal(t, 1, info.LUTs())
	require.Equal(t, info, MakeHWInfo(4, 1))

	omap4 := Geometry(0x04080000)
	require.Equal(t, 256, omap4.LUTWidth())
	require.Equal(t, 128, omap4.LUTHeight())
	require.Equal(t, omap4, MakeGeometry(256, 128))

	omap5 := MakeGeometry(256, 256)
	require.Equal(t, 256, omap5.LUTHeight())
}

func TestRegisterOffsets(t *testing.T) {
	require.Equal(t, uint32(0x4C0), RegPATStatus(0))
	require.Equal(t, uint32(0x4CC), RegPATStatus(3))
	require.Equal(t, uint32(0x500), RegPATDescr(0))
	require.Equal(t, uint32(0x530), RegPATDescr(3))
}

func TestEngineIRQ(t *testing.T) {
	status := uint32(0x0000_0300 | 0x0004_0000)
	require.Equal(t, IRQFlags(0), EngineIRQ(status, 0))
	require.Equal(t, IRQDescriptorDone|IRQLastDone, EngineIRQ(status, 1))
	require.Equal(t, IRQErrInvalidDescriptor, EngineIRQ(status, 2))
	require.Equal(t, IRQFlags(0xFC), IRQErrorMask)
	require.Equal(t, StatusFlags(0xFC00), StatusErrorMask)
}

func TestFlagStrings(t *testing.T) {
	require.Equal(t, "Ready|Done", (StatusReady | StatusDone).String())
	require.Equal(t, "None", StatusFlags(0).String())
	require.Equal(t, "LastDone|ErrLUTMiss", (IRQLastDone | IRQErrLUTMiss).String())
}

func TestDescriptorEncoding(t *testing.T) {
	region := Region{X0: 1, Y0: 2, X1: 3, Y1: 4}
	require.Equal(t, uint32(0x04030201), PackArea(region))
	require.Equal(t, region, UnpackArea(PackArea(region)))
	require.Equal(t, 9, region.Slots())

	control := MakeControl(1)
	require.Equal(t, Control(0x101), control)
	require.True(t, control.Start())
	require.Equal(t, 1, control.LUT())

	descriptor := Descriptor{
		Next:    0x80001010,
		Area:    PackArea(region),
		Control: control,
		Data:    0x80001020,
	}

	buf := make([]byte, DescriptorSize)
	descriptor.Encode(buf)
	require.Equal(t, []byte{
		0x10, 0x10, 0x00, 0x80,
		0x01, 0x02, 0x03, 0x04,
		0x01, 0x01, 0x00, 0x00,
		0x20, 0x10, 0x00, 0x80,
	}, buf)
	require.Equal(t, descriptor, DecodeDescriptor(buf))

	setNext(buf, 0)
	require.Equal(t, uint32(0), DecodeDescriptor(buf).Next)
}
