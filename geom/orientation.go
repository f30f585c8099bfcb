package geom

import "strings"

// Orientation is a combination of mirror and transpose flags describing how a view walks the
// underlying tiled storage
type Orientation uint8

const (
	// OrientationMirrorX walks each row from right to left
	OrientationMirrorX Orientation = 1 << iota
	// OrientationMirrorY walks the rows from bottom to top
	OrientationMirrorY
	// OrientationSwapXY transposes the view, so that consecutive pixels in memory run down a column
	OrientationSwapXY

	// OrientationNatural is the unrotated, unmirrored orientation
	OrientationNatural Orientation = 0
	// OrientationMask covers all the valid orientation flags
	OrientationMask Orientation = OrientationMirrorX | OrientationMirrorY | OrientationSwapXY
)

var orientationMapping = map[Orientation]string{
	OrientationMirrorX: "OrientationMirrorX",
	OrientationMirrorY: "OrientationMirrorY",
	OrientationSwapXY:  "OrientationSwapXY",
}

func (o Orientation) String() string {
	if o == OrientationNatural {
		return "OrientationNatural"
	}

	var flags []string
	for i := 0; i < 8; i++ {
		flag := Orientation(1 << i)
		if o&flag == 0 {
			continue
		}

		str, ok := orientationMapping[flag]
		if !ok {
			str = "Unknown"
		}
		flags = append(flags, str)
	}

	return strings.Join(flags, "|")
}

const (
	addressMirrorX uint32 = 1 << 29
	addressMirrorY uint32 = 1 << 30
	addressSwapXY  uint32 = 1 << 31

	addressOrientationMask = addressMirrorX | addressMirrorY | addressSwapXY

	addressFormatShift        = 27
	addressFormatMask  uint32 = 3 << addressFormatShift
)

func (o Orientation) addressBits() uint32 {
	var bits uint32
	if o&OrientationMirrorX != 0 {
		bits |= addressMirrorX
	}
	if o&OrientationMirrorY != 0 {
		bits |= addressMirrorY
	}
	if o&OrientationSwapXY != 0 {
		bits |= addressSwapXY
	}
	return bits
}

func orientationFromAddressBits(bits uint32) Orientation {
	var o Orientation
	if bits&addressMirrorX != 0 {
		o |= OrientationMirrorX
	}
	if bits&addressMirrorY != 0 {
		o |= OrientationMirrorY
	}
	if bits&addressSwapXY != 0 {
		o |= OrientationSwapXY
	}
	return o
}
