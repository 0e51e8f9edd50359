package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false on
// overflow or when either operand is negative.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// RecordsSize returns count*recordSize, failing on overflow or when the
// product exceeds limit (limit <= 0 disables the cap).
//
//	size, err := buf.RecordsSize(int(hdr.Count), st.Length, limits.MaxAllocation)
func RecordsSize(count, recordSize, limit int) (int, error) {
	total, ok := MulOverflowSafe(count, recordSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * size=%d", count, recordSize)
	}
	if limit > 0 && total > limit {
		return 0, fmt.Errorf("size %d exceeds limit %d", total, limit)
	}
	return total, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

// Align4 rounds n up to the next multiple of four.
func Align4(n int) int {
	return (n + 3) &^ 3
}
