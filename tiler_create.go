package tiler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/dmm"
	"github.com/vkngwrapper/tiler/geom"
	"github.com/vkngwrapper/tiler/internal/utils"
	"github.com/vkngwrapper/tiler/tcm"
	"github.com/vkngwrapper/tiler/tilutils"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific tiler behaviors to activate or deactivate
type CreateFlags uint32

var createFlagsMapping = tilutils.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	createFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return createFlagsMapping.FlagsToString(f)
}

const (
	// CreateExternallySynchronized ensures that the tiler's block registry and containers will not be
	// synchronized internally. The consumer must guarantee that reservations, releases and pins happen from
	// one goroutine at a time or are synchronized by some other mechanism. The refill engine pool is always
	// synchronized.
	CreateExternallySynchronized CreateFlags = 1 << iota
	// CreateSynchronousUnpin makes Unpin wait for the hardware to finish clearing a block before
	// returning, instead of handing the engine back from the interrupt handler
	CreateSynchronousUnpin
)

func init() {
	CreateExternallySynchronized.Register("CreateExternallySynchronized")
	CreateSynchronousUnpin.Register("CreateSynchronousUnpin")
}

// CreateOptions contains optional settings when creating a tiler
type CreateOptions struct {
	// Flags indicates specific tiler behaviors to activate or deactivate
	Flags CreateFlags
	// Device configures the refill engine pool and hardware polling. It is valid to leave all the
	// fields blank.
	Device dmm.Options
}

// New probes the DMM behind hw, programs it and builds the containers its lookup tables support
//
// logger - The logger that tiler activity and hardware errors are written to
//
// hw - The DMM register window, DMA memory source and interrupt line
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, hw dmm.Hardware, options CreateOptions) (*Tiler, error) {
	device, err := dmm.New(logger, hw, options.Device)
	if err != nil {
		return nil, err
	}

	tiler := &Tiler{
		logger:      logger,
		device:      device,
		createFlags: options.Flags,
	}
	tiler.blocks.Init(options.Flags&CreateExternallySynchronized == 0)
	tiler.containerMutex = utils.OptionalRWMutex{UseMutex: options.Flags&CreateExternallySynchronized == 0}

	targets := device.Targets()
	shared, err := tcm.NewGrid(geom.ContainerWidth, geom.ContainerHeight, tcm.Target(targets[0]))
	if err != nil {
		return nil, errors.CombineErrors(err, device.Close(context.Background()))
	}
	tiler.containers = append(tiler.containers, shared)

	if len(targets) > 1 && targets[1].YOffset != 0 {
		pages, err := tcm.NewLinear(geom.ContainerWidth, geom.ContainerHeight, tcm.Target(targets[1]))
		if err != nil {
			return nil, errors.CombineErrors(err, device.Close(context.Background()))
		}
		tiler.containers = append(tiler.containers, pages)
		tiler.formatContainers[geom.FormatPage] = 1
	}

	logger.Debug("Tiler::New",
		slog.Int("Containers", len(tiler.containers)),
		slog.Int("Engines", device.NumEngines()),
		slog.String("Flags", options.Flags.String()),
	)

	return tiler, nil
}
