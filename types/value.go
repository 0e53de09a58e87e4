package types

import (
	"fmt"
	"strconv"
)

// Value is an amount of pooled funds expressed in base units.
// One display unit equals 1e9 base units, so fractional amounts
// (such as the 1.5x insurance credit) stay exact integers.
type Value uint64

// OneUnit is the number of base units in a single display unit.
const OneUnit Value = 1e9

// Units builds a Value from a whole number of display units.
func Units(n uint64) Value {
	return Value(n) * OneUnit
}

// Units returns the whole display units of the value, truncating any
// fractional base units.
func (v Value) Units() uint64 {
	return uint64(v / OneUnit)
}

// String renders the value as display units with up to 9 decimals.
func (v Value) String() string {
	whole := uint64(v / OneUnit)
	frac := uint64(v % OneUnit)
	if frac == 0 {
		return strconv.FormatUint(whole, 10)
	}
	s := fmt.Sprintf("%d.%09d", whole, frac)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}
