//go:build linux

package hostdev

import (
	"context"
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
	"golang.org/x/sys/unix"
)

// pollTimeoutMillis bounds how long the reader can take to notice it has been stopped
const pollTimeoutMillis = 100

type irqLoop struct {
	fd      int
	handler func()
	logger  *slog.Logger

	quit chan struct{}
	done chan error
}

func startIRQLoop(logger *slog.Logger, path string, handler func()) (*irqLoop, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}

	loop := &irqLoop{
		fd:      fd,
		handler: handler,
		logger:  logger,
		quit:    make(chan struct{}),
		done:    make(chan error, 1),
	}

	err = loop.unmask()
	if err != nil {
		return nil, errors.CombineErrors(err, unix.Close(fd))
	}

	go func() {
		loop.done <- loop.run()
	}()

	return loop, nil
}

// unmask re-enables the interrupt line. UIO masks it again every time it fires.
func (l *irqLoop) unmask() error {
	var enable [4]byte
	binary.NativeEndian.PutUint32(enable[:], 1)

	_, err := unix.Write(l.fd, enable[:])
	return errors.Wrap(err, "could not unmask the DMM interrupt")
}

func (l *irqLoop) run() error {
	fds := []unix.PollFd{{Fd: int32(l.fd), Events: unix.POLLIN}}
	var count [4]byte

	for {
		select {
		case <-l.quit:
			return nil
		default:
		}

		ready, err := unix.Poll(fds, pollTimeoutMillis)
		if errors.Is(err, unix.EINTR) || ready == 0 {
			continue
		}
		if err != nil {
			return errors.Wrap(err, "polling for the DMM interrupt")
		}

		_, err = unix.Read(l.fd, count[:])
		if err != nil {
			return errors.Wrap(err, "reading the DMM interrupt count")
		}

		l.handler()

		err = l.unmask()
		if err != nil {
			l.logger.LogAttrs(context.Background(), slog.LevelError, "interrupt reader stopped", slog.Any("error", err))
			return err
		}
	}
}

func (l *irqLoop) stop() error {
	close(l.quit)
	err := <-l.done
	return errors.CombineErrors(err, unix.Close(l.fd))
}
