package dmm

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/tilutils"
	"golang.org/x/exp/slog"
)

// Txn is a chain of refill descriptors being built in one engine's DMA buffer. A Txn holds its engine
// until Commit or Abort is called, and neither may be called twice.
type Txn struct {
	device *Device
	engine *refillEngine
	target Target

	firstPA        uint32
	lastDescriptor []byte
	descriptors    int
	updates        []mirrorUpdate
}

// Begin borrows an idle refill engine for a transaction against one container's lookup-table region.
// It blocks until an engine is free or ctx is done.
func (d *Device) Begin(ctx context.Context, target Target) (*Txn, error) {
	if d.closed.Load() {
		return nil, errors.Wrap(tilutils.NotPermittedError, "device is closed")
	}

	engine, err := d.acquireEngine(ctx)
	if err != nil {
		return nil, err
	}
	engine.arena.reset()

	return &Txn{
		device: d,
		engine: engine,
		target: target,
	}, nil
}

// Descriptors returns the number of descriptors appended so far
func (t *Txn) Descriptors() int {
	return t.descriptors
}

// Append adds a descriptor that refills region of the transaction's container. Entry i of the region, in
// row-major order, receives pages[(i+roll) mod len(pages)]. Nil pages, or a zero entry, map the
// dummy page instead.
func (t *Txn) Append(region Region, pages []uint32, roll int) error {
	if t.engine == nil {
		return errors.Wrap(tilutils.NotPermittedError, "transaction is already finished")
	}

	d := t.device
	lutRegion, err := d.lutRegion(t.target, region)
	if err != nil {
		return err
	}

	descriptorBuf, descriptorPA, err := t.engine.arena.alloc(DescriptorSize)
	if err != nil {
		return err
	}

	slots := lutRegion.Slots()
	dataBuf, dataPA, err := t.engine.arena.alloc(slots * 4)
	if err != nil {
		return err
	}

	values := make([]uint32, slots)
	for i := range values {
		value := uint32(0)
		if len(pages) > 0 {
			index := (i + roll) % len(pages)
			if index < 0 {
				index += len(pages)
			}
			value = pages[index]
		}
		if value == 0 {
			value = d.dummyPA
		}

		values[i] = value
		binary.LittleEndian.PutUint32(dataBuf[i*4:], value)
	}

	Descriptor{
		Area:    PackArea(lutRegion),
		Control: MakeControl(t.target.LUT),
		Data:    dataPA,
	}.Encode(descriptorBuf)

	if t.lastDescriptor == nil {
		t.firstPA = descriptorPA
	} else {
		setNext(t.lastDescriptor, descriptorPA)
	}
	t.lastDescriptor = descriptorBuf
	t.descriptors++

	t.updates = append(t.updates, mirrorUpdate{
		lut:    t.target.LUT,
		region: lutRegion,
		values: values,
	})

	return nil
}

// Abort drops every appended descriptor and returns the engine to the pool
func (t *Txn) Abort() {
	if t.engine == nil {
		return
	}
	t.finish(true)
}

func (t *Txn) finish(release bool) {
	engine := t.engine
	t.engine = nil
	t.lastDescriptor = nil
	t.updates = nil

	if release {
		t.device.releaseEngine(engine)
	}
}

// Commit starts the engine on the descriptor chain. The mirror is updated once the engine has reported
// ready, just before the chain is started.
//
// If wait is true, Commit blocks until the hardware signals completion and the engine reports that the
// refill is done, and the engine is returned to the pool before Commit returns. Otherwise the engine is
// returned to the pool by HandleIRQ when the final descriptor has been applied. The engine is returned on
// every error path.
func (t *Txn) Commit(ctx context.Context, wait bool) error {
	if t.engine == nil {
		return errors.Wrap(tilutils.NotPermittedError, "transaction is already finished")
	}

	d := t.device
	engine := t.engine

	if t.descriptors == 0 {
		t.finish(true)
		return errors.Wrap(tilutils.InvalidArgumentError, "cannot commit a transaction with no descriptors")
	}

	setNext(t.lastDescriptor, 0)

	d.hw.Write32(RegPATDescr(engine.id), 0)
	err := engine.waitStatus(ctx, StatusReady)
	if err != nil {
		t.finish(true)
		return err
	}

	d.applyMirror(t.updates)

	engine.async.Store(!wait)
	engine.resetCompletion()

	if !wait {
		firstPA := t.firstPA
		t.finish(false)
		// The engine may be back in the pool as soon as this write lands
		d.hw.Write32(RegPATDescr(engine.id), firstPA)
		return nil
	}

	d.hw.Write32(RegPATDescr(engine.id), t.firstPA)
	defer t.finish(true)

	timer := time.NewTimer(d.options.CompletionTimeout)
	defer timer.Stop()

	select {
	case <-engine.done:
	case <-timer.C:
		d.logger.LogAttrs(ctx, slog.LevelError, "timed out waiting for refill to complete",
			slog.Int("engine", engine.id),
			slog.Duration("timeout", d.options.CompletionTimeout),
		)
		return errors.Wrapf(tilutils.HardwareTimeoutError, "engine %d did not complete within %s", engine.id, d.options.CompletionTimeout)
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "waiting for engine %d to complete", engine.id)
	}

	return engine.waitStatus(ctx, StatusReady|StatusValid|StatusDone)
}
