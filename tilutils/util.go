package tilutils

import (
	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

func CheckPow2[T constraints.Integer](number T, name string) error {
	if number <= 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

func AlignDown(value int, alignment uint) int {
	return value & int(^(alignment - 1))
}

// RoundUp rounds value up to the next multiple of multiple, which does not need to be a power of two
func RoundUp[T constraints.Integer](value, multiple T) T {
	return CeilDiv(value, multiple) * multiple
}

// CeilDiv divides numerator by denominator, rounding up
func CeilDiv[T constraints.Integer](numerator, denominator T) T {
	return (numerator + denominator - 1) / denominator
}
