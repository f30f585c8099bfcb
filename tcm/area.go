package tcm

import "fmt"

// Point is a slot coordinate inside a container
type Point struct {
	X int
	Y int
}

// Area is a region of a container handed out by a reservation. A 2D area is the rectangle spanned by
// P0 and P1. A 1D area is every slot from P0 to P1 in row-major order, which may wrap across rows.
type Area struct {
	Is2D bool
	P0   Point
	P1   Point
}

func (a Area) String() string {
	kind := "1D"
	if a.Is2D {
		kind = "2D"
	}
	return fmt.Sprintf("%s(%d,%d)-(%d,%d)", kind, a.P0.X, a.P0.Y, a.P1.X, a.P1.Y)
}

// Width is the number of columns spanned by the area's bounding rectangle
func (a Area) Width() int {
	return a.P1.X - a.P0.X + 1
}

// Height is the number of rows spanned by the area
func (a Area) Height() int {
	return a.P1.Y - a.P0.Y + 1
}

// SlotCount is the number of slots covered by the area in a container that is containerWidth slots wide
func (a Area) SlotCount(containerWidth int) int {
	if a.Is2D {
		return a.Width() * a.Height()
	}

	return a.Width() + (a.P1.Y-a.P0.Y)*containerWidth
}

// Contains returns true if the slot at p is covered by the area
func (a Area) Contains(p Point, containerWidth int) bool {
	if a.Is2D {
		return p.X >= a.P0.X && p.X <= a.P1.X && p.Y >= a.P0.Y && p.Y <= a.P1.Y
	}

	index := p.Y*containerWidth + p.X
	return index >= a.P0.Y*containerWidth+a.P0.X && index <= a.P1.Y*containerWidth+a.P1.X
}

// IsRectangle returns true if the area can be programmed as a single rectangle
func (a Area) IsRectangle(containerWidth int) bool {
	return a.Is2D || a.P0.Y == a.P1.Y || (a.P0.X == 0 && a.P1.X == containerWidth-1)
}

func (a Area) valid(width, height int) bool {
	if a.P0.X < 0 || a.P0.Y < 0 || a.P1.X < 0 || a.P0.X >= width || a.P1.X >= width || a.P1.Y >= height {
		return false
	}
	if a.P0.Y > a.P1.Y {
		return false
	}
	if a.Is2D || a.P0.Y == a.P1.Y {
		return a.P0.X <= a.P1.X
	}
	return true
}

// Slices breaks the area into rectangles in programming order. 2D areas and 1D areas that are already
// rectangular come back whole. A wrapping 1D area produces up to three slices: the partial first row,
// the run of full rows, and the partial last row. Iteration stops at the first error returned by fn.
func (a Area) Slices(containerWidth int, fn func(slice Area) error) error {
	rest := a

	for !rest.IsRectangle(containerWidth) {
		slice := rest
		slice.P1.X = containerWidth - 1
		if rest.P0.X != 0 {
			slice.P1.Y = rest.P0.Y
		} else {
			slice.P1.Y = rest.P1.Y - 1
		}

		rest.P0 = Point{X: 0, Y: slice.P1.Y + 1}

		if err := fn(slice); err != nil {
			return err
		}
	}

	return fn(rest)
}
