package tilutils

import (
	"fmt"
	"math/bits"
	"strings"

	"golang.org/x/exp/constraints"
)

// FlagStringMapping renders bitflag types as a pipe-separated list of registered names
type FlagStringMapping[T constraints.Unsigned] struct {
	names map[T]string
}

func NewFlagStringMapping[T constraints.Unsigned]() FlagStringMapping[T] {
	return FlagStringMapping[T]{names: make(map[T]string)}
}

func (m FlagStringMapping[T]) Register(flag T, str string) {
	m.names[flag] = str
}

// FlagsToString names every set bit of value, falling back to hex for bits with no registered name
func (m FlagStringMapping[T]) FlagsToString(value T) string {
	if value == 0 {
		return "None"
	}

	var names []string
	for remaining := uint64(value); remaining != 0; remaining &= remaining - 1 {
		flag := T(uint64(1) << bits.TrailingZeros64(remaining))

		str, ok := m.names[flag]
		if !ok {
			str = fmt.Sprintf("%#x", uint64(flag))
		}
		names = append(names, str)
	}

	return strings.Join(names, "|")
}
