// Package tcm places reservations inside tiler containers. A container is a width x height grid of
// slots backed by one region of a hardware lookup table; this package decides where each reservation
// goes and how to break it into rectangles the refill engines can program. It knows nothing about
// the hardware itself.
package tcm

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/tiler/tilutils"
)

// Target identifies the region of hardware lookup table that backs a container
type Target struct {
	// LUT is the index of the lookup table
	LUT int
	// YOffset is added to every row before it is programmed into the lookup table
	YOffset int
}

// Container is a placement algorithm over one grid of slots
type Container interface {
	// Width returns the width of the container in slots
	Width() int
	// Height returns the height of the container in slots
	Height() int
	// Target returns the lookup-table region backing this container
	Target() Target

	// Reserve2D places a width x height rectangle whose left edge is a multiple of align slots.
	// It returns an error wrapping tilutils.NoSpaceError if no such rectangle is free.
	Reserve2D(width, height, align int) (Area, error)
	// Reserve1D places a run of slots in row-major order. It returns an error wrapping
	// tilutils.NoSpaceError if no such run is free.
	Reserve1D(slots int) (Area, error)
	// Free returns a previously reserved area to the container. Areas that the container did not
	// hand out produce an error wrapping tilutils.InvalidArgumentError.
	Free(area Area) error
	// ForEachSlice calls fn once for every rectangle of a reserved area, in programming order.
	// Iteration stops at the first error, which is returned.
	ForEachSlice(area Area, fn func(slice Area) error) error

	// Validate performs internal consistency checks. It should never fail.
	Validate() error
	// AddStatistics sums this container's occupancy into stats
	AddStatistics(stats *tilutils.Statistics)
	// ContainerJsonData populates a json object with information about this container
	ContainerJsonData(json *jwriter.ObjectState)
}
