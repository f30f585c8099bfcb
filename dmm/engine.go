package dmm

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/tilutils"
	"golang.org/x/exp/slog"
)

type refillEngine struct {
	id     int
	mem    Mem
	arena  *arena
	device *Device

	// done receives one value per completion interrupt
	done       chan struct{}
	async      atomic.Bool
	checkedOut atomic.Bool
}

func newRefillEngine(device *Device, id int, mem Mem) (*refillEngine, error) {
	scratch, err := newArena(mem)
	if err != nil {
		return nil, err
	}

	return &refillEngine{
		id:     id,
		mem:    mem,
		arena:  scratch,
		device: device,
		done:   make(chan struct{}, 1),
	}, nil
}

func (e *refillEngine) resetCompletion() {
	select {
	case <-e.done:
	default:
	}
}

func (e *refillEngine) complete() {
	select {
	case e.done <- struct{}{}:
	default:
	}
}

func (e *refillEngine) pollDelay() {
	interval := e.device.options.PollInterval
	if interval < 0 {
		runtime.Gosched()
		return
	}
	time.Sleep(interval)
}

// waitStatus polls PAT_STATUS until every bit of mask is set. Error bits end the poll with a hardware
// fault and running out of retries ends it with a timeout.
func (e *refillEngine) waitStatus(ctx context.Context, mask StatusFlags) error {
	d := e.device

	for retries := d.options.PollRetries; ; {
		status := StatusFlags(d.hw.Read32(RegPATStatus(e.id)))

		if status&StatusErrorMask != 0 {
			d.logger.LogAttrs(ctx, slog.LevelError, "refill engine reported an error",
				slog.Int("engine", e.id),
				slog.String("status", status.String()),
			)
			return errors.Wrapf(tilutils.HardwareFaultError, "engine %d: PAT_STATUS %s", e.id, status)
		}

		if status&mask == mask {
			return nil
		}

		retries--
		if retries == 0 {
			d.logger.LogAttrs(ctx, slog.LevelError, "refill engine did not reach the expected state",
				slog.Int("engine", e.id),
				slog.String("status", status.String()),
				slog.String("expected", mask.String()),
			)
			return errors.Wrapf(tilutils.HardwareTimeoutError, "engine %d: PAT_STATUS %s never reached %s", e.id, status, mask)
		}

		e.pollDelay()
	}
}

// acquireEngine takes an idle engine from the pool, blocking until one is returned or ctx is done
func (d *Device) acquireEngine(ctx context.Context) (*refillEngine, error) {
	select {
	case engine := <-d.idle:
		if !engine.checkedOut.CompareAndSwap(false, true) {
			panic("refill engine was in the idle pool while checked out")
		}
		return engine, nil
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "waiting for an idle refill engine")
	}
}

// releaseEngine hands an engine back to the pool. Releasing an engine that is not checked out panics.
func (d *Device) releaseEngine(engine *refillEngine) {
	if !engine.checkedOut.CompareAndSwap(true, false) {
		panic("refill engine was released twice")
	}

	select {
	case d.idle <- engine:
	default:
		panic("refill engine pool overflowed")
	}
}
