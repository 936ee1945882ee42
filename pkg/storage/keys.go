package storage

import (
	"strconv"
	"strings"
)

// CompareKeys orders node identifiers ascending. Keys that parse as integers
// sort numerically and before all other keys; the rest sort lexically.
func CompareKeys(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		// "01" and "1" are distinct keys with equal numeric value
		return strings.Compare(a, b)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
