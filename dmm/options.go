package dmm

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/tilutils"
)

const (
	// DefaultRefillBufferSize holds a full 256x128 container refill plus descriptors
	DefaultRefillBufferSize = 4*128*256 + 3*32*128
	// DefaultPollRetries is the number of PAT_STATUS reads before a poll gives up
	DefaultPollRetries = 1000
	// DefaultPollInterval is the delay between PAT_STATUS reads
	DefaultPollInterval = time.Microsecond
	// DefaultCompletionTimeout bounds the wait for a refill's completion interrupt
	DefaultCompletionTimeout = 100 * time.Millisecond

	// ContainerWidth and ContainerHeight are the dimensions of one container in lookup-table entries
	ContainerWidth  = 256
	ContainerHeight = 128
)

// Options configures a Device. Zero values select the defaults.
type Options struct {
	// RefillBufferSize is the size in bytes of each engine's DMA scratch buffer
	RefillBufferSize int
	// PollRetries is the number of PAT_STATUS reads before a poll gives up with a timeout
	PollRetries int
	// PollInterval is the delay between PAT_STATUS reads. A negative interval yields the processor
	// between reads instead of sleeping.
	PollInterval time.Duration
	// CompletionTimeout bounds the wait for a refill's completion interrupt
	CompletionTimeout time.Duration
	// MaxEngines caps the number of refill engines used. 0 uses every engine the hardware reports.
	MaxEngines int
	// SkipInitialClear leaves the lookup tables untouched at init instead of pointing every entry at the
	// dummy page
	SkipInitialClear bool
}

func (o Options) withDefaults() (Options, error) {
	if o.RefillBufferSize < 0 || o.PollRetries < 0 || o.CompletionTimeout < 0 || o.MaxEngines < 0 {
		return o, errors.Wrapf(tilutils.InvalidArgumentError, "device options may not be negative: %+v", o)
	}

	if o.RefillBufferSize == 0 {
		o.RefillBufferSize = DefaultRefillBufferSize
	}
	if o.RefillBufferSize < DescriptorSize+4 {
		return o, errors.Wrapf(tilutils.InvalidArgumentError, "refill buffer of %d bytes cannot hold a descriptor", o.RefillBufferSize)
	}
	if o.PollRetries == 0 {
		o.PollRetries = DefaultPollRetries
	}
	if o.PollInterval == 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.CompletionTimeout == 0 {
		o.CompletionTimeout = DefaultCompletionTimeout
	}

	return o, nil
}
