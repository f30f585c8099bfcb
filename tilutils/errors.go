package tilutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// InvalidArgumentError is wrapped by every error caused by a bad format, a zero or oversized dimension,
// an out-of-range coordinate, or a rotation that is not a multiple of 90 degrees. Nothing has been changed
// when it is returned.
var InvalidArgumentError error = errors.New("invalid argument")

// NotPermittedError is returned when an operation is not defined for the target, such as rotating or
// flipping a page-mode view
var NotPermittedError error = errors.New("operation not permitted")

// NoSpaceError is returned when a container has no room left for a reservation
var NoSpaceError error = errors.New("no space left in container")

// HardwareFaultError is wrapped by errors caused by an error bit in a refill engine's status register
var HardwareFaultError error = errors.New("hardware fault")

// HardwareTimeoutError is wrapped by errors caused by the hardware not reaching the expected state
// before a poll budget or completion timeout ran out. Callers may retry.
var HardwareTimeoutError error = errors.New("hardware timeout")

// CapacityExceededError is returned when a refill engine's scratch buffer cannot hold another
// descriptor or data array
var CapacityExceededError error = errors.New("refill buffer capacity exceeded")
