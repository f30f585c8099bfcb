package tcm

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/tiler/tilutils"
	"golang.org/x/exp/slices"
)

// Grid is a container that places 2D and 1D reservations into the same grid of slots. 2D rectangles are
// packed first-fit from the top-left corner and 1D runs are packed from the bottom-right corner backward,
// so the two kinds grow toward each other.
type Grid struct {
	width  int
	height int
	target Target

	occupied  []bool
	usedSlots int
	areas     *swiss.Map[Area, int]
}

var _ Container = &Grid{}

// NewGrid creates an empty width x height grid backed by the provided lookup-table region
func NewGrid(width, height int, target Target) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(tilutils.InvalidArgumentError, "container dimensions %dx%d must be positive", width, height)
	}

	return &Grid{
		width:    width,
		height:   height,
		target:   target,
		occupied: make([]bool, width*height),
		areas:    swiss.NewMap[Area, int](42),
	}, nil
}

func (g *Grid) Width() int     { return g.width }
func (g *Grid) Height() int    { return g.height }
func (g *Grid) Target() Target { return g.target }

// rectangleBlocker returns -1 if the width x height rectangle at (x, y) is free, or the rightmost occupied
// column inside it otherwise
func (g *Grid) rectangleBlocker(x, y, width, height int) int {
	for col := x + width - 1; col >= x; col-- {
		for row := y; row < y+height; row++ {
			if g.occupied[row*g.width+col] {
				return col
			}
		}
	}

	return -1
}

func (g *Grid) mark(area Area, value bool) {
	if area.Is2D {
		for row := area.P0.Y; row <= area.P1.Y; row++ {
			for col := area.P0.X; col <= area.P1.X; col++ {
				g.occupied[row*g.width+col] = value
			}
		}
		return
	}

	last := area.P1.Y*g.width + area.P1.X
	for index := area.P0.Y*g.width + area.P0.X; index <= last; index++ {
		g.occupied[index] = value
	}
}

func (g *Grid) register(area Area) Area {
	slots := area.SlotCount(g.width)
	g.mark(area, true)
	g.areas.Put(area, slots)
	g.usedSlots += slots

	tilutils.DebugValidate(g)
	return area
}

func (g *Grid) Reserve2D(width, height, align int) (Area, error) {
	if width <= 0 || height <= 0 || width > g.width || height > g.height {
		return Area{}, errors.Wrapf(tilutils.InvalidArgumentError,
			"%dx%d slots does not fit inside a %dx%d container", width, height, g.width, g.height)
	}
	if align <= 0 {
		return Area{}, errors.Wrapf(tilutils.InvalidArgumentError, "alignment of %d slots must be positive", align)
	}

	for y := 0; y+height <= g.height; y++ {
		for x := 0; x+width <= g.width; x += align {
			blocker := g.rectangleBlocker(x, y, width, height)
			if blocker < 0 {
				return g.register(Area{
					Is2D: true,
					P0:   Point{X: x, Y: y},
					P1:   Point{X: x + width - 1, Y: y + height - 1},
				}), nil
			}

			// Every aligned start up to the blocking column would overlap it too
			x = blocker / align * align
		}
	}

	return Area{}, errors.Wrapf(tilutils.NoSpaceError, "no room for %dx%d slots aligned to %d", width, height, align)
}

func (g *Grid) Reserve1D(slots int) (Area, error) {
	total := g.width * g.height
	if slots <= 0 || slots > total {
		return Area{}, errors.Wrapf(tilutils.InvalidArgumentError,
			"%d slots does not fit inside a %dx%d container", slots, g.width, g.height)
	}

	run := 0
	for index := total - 1; index >= 0; index-- {
		if g.occupied[index] {
			run = 0
			continue
		}

		run++
		if run == slots {
			end := index + slots - 1
			return g.register(Area{
				P0: Point{X: index % g.width, Y: index / g.width},
				P1: Point{X: end % g.width, Y: end / g.width},
			}), nil
		}
	}

	return Area{}, errors.Wrapf(tilutils.NoSpaceError, "no run of %d free slots", slots)
}

func (g *Grid) Free(area Area) error {
	slots, ok := g.areas.Get(area)
	if !ok {
		return errors.Wrapf(tilutils.InvalidArgumentError, "area %s was not reserved from this container", area)
	}

	g.mark(area, false)
	g.areas.Delete(area)
	g.usedSlots -= slots

	tilutils.DebugValidate(g)
	return nil
}

func (g *Grid) ForEachSlice(area Area, fn func(slice Area) error) error {
	if !g.areas.Has(area) {
		return errors.Wrapf(tilutils.InvalidArgumentError, "area %s was not reserved from this container", area)
	}

	return area.Slices(g.width, fn)
}

func (g *Grid) sortedAreas() []Area {
	areas := make([]Area, 0, g.areas.Count())
	g.areas.Iter(func(area Area, slots int) bool {
		areas = append(areas, area)
		return false
	})

	slices.SortFunc(areas, func(left, right Area) int {
		if left.P0.Y != right.P0.Y {
			return left.P0.Y - right.P0.Y
		}
		return left.P0.X - right.P0.X
	})
	return areas
}

func (g *Grid) Validate() error {
	if len(g.occupied) != g.width*g.height {
		return errors.Newf("occupancy map has %d entries but the container is %dx%d", len(g.occupied), g.width, g.height)
	}

	expected := make([]bool, len(g.occupied))
	var calculatedSlots int
	var validateErr error

	g.areas.Iter(func(area Area, slots int) bool {
		if !area.valid(g.width, g.height) {
			validateErr = errors.Newf("area %s lies outside the %dx%d container", area, g.width, g.height)
			return true
		}
		if slots != area.SlotCount(g.width) {
			validateErr = errors.Newf("area %s is recorded as %d slots but covers %d", area, slots, area.SlotCount(g.width))
			return true
		}

		for row := area.P0.Y; row <= area.P1.Y; row++ {
			for col := 0; col < g.width; col++ {
				point := Point{X: col, Y: row}
				if !area.Contains(point, g.width) {
					continue
				}

				if expected[row*g.width+col] {
					validateErr = errors.Newf("area %s overlaps another area at (%d, %d)", area, col, row)
					return true
				}
				expected[row*g.width+col] = true
			}
		}

		calculatedSlots += slots
		return false
	})
	if validateErr != nil {
		return validateErr
	}

	if calculatedSlots != g.usedSlots {
		return errors.Newf("the container records %d used slots, but its areas add up to %d", g.usedSlots, calculatedSlots)
	}

	for index, occupied := range g.occupied {
		if occupied != expected[index] {
			return errors.Newf("slot (%d, %d) has occupancy %t but no area agrees", index%g.width, index/g.width, occupied)
		}
	}

	return nil
}

func (g *Grid) AddStatistics(stats *tilutils.Statistics) {
	stats.ContainerCount++
	stats.ContainerSlots += g.width * g.height
	stats.BlockCount += g.areas.Count()
	stats.BlockSlots += g.usedSlots
}

func (g *Grid) ContainerJsonData(json *jwriter.ObjectState) {
	json.Name("Kind").String("Grid")
	containerJsonData(json, g, g.usedSlots, g.areas.Count(), g.sortedAreas())
}

func containerJsonData(json *jwriter.ObjectState, c Container, usedSlots, areaCount int, areas []Area) {
	target := c.Target()
	json.Name("Width").Int(c.Width())
	json.Name("Height").Int(c.Height())
	json.Name("LUT").Int(target.LUT)
	json.Name("YOffset").Int(target.YOffset)
	json.Name("TotalSlots").Int(c.Width() * c.Height())
	json.Name("UnusedSlots").Int(c.Width()*c.Height() - usedSlots)
	json.Name("Areas").Int(areaCount)

	arrayState := json.Name("Reservations").Array()
	defer arrayState.End()

	for _, area := range areas {
		obj := arrayState.Object()
		obj.Name("Area").String(area.String())
		obj.Name("Slots").Int(area.SlotCount(c.Width()))
		obj.End()
	}
}
