package domain

import (
	"errors"
	"fmt"
)

// ErrAmountOverflow is returned when a base-unit conversion does not fit in uint64.
var ErrAmountOverflow = errors.New("amount overflows base units")

// ToBaseUnits converts a whole-token amount into base units by multiplying
// with 10^decimals. Conversion always multiplies by a power of ten;
// exponentiating the amount itself is wrong base-unit scaling.
func ToBaseUnits(amount uint64, decimals uint8) (uint64, error) {
	scale := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		if scale > (1<<64-1)/10 {
			return 0, fmt.Errorf("%w: 10^%d", ErrAmountOverflow, decimals)
		}
		scale *= 10
	}

	if amount != 0 && scale > (1<<64-1)/amount {
		return 0, fmt.Errorf("%w: %d * 10^%d", ErrAmountOverflow, amount, decimals)
	}
	return amount * scale, nil
}

// FromBaseUnits converts base units back into whole tokens, truncating any
// fractional remainder. Like ToBaseUnits, the scale itself must fit in
// uint64, so decimals beyond 19 are rejected instead of wrapping.
func FromBaseUnits(baseUnits uint64, decimals uint8) (uint64, error) {
	scale := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		if scale > (1<<64-1)/10 {
			return 0, fmt.Errorf("%w: 10^%d", ErrAmountOverflow, decimals)
		}
		scale *= 10
	}
	return baseUnits / scale, nil
}
