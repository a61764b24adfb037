package validation

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// number parses a field as a float. Empty fields are never numbers.
func number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// integer parses a field holding a whole number.
func integer(s string) (int, bool) {
	f, ok := number(s)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// sameValue compares two non-empty fields numerically when both parse, and
// textually otherwise.
func sameValue(a, b string) bool {
	if a == b {
		return true
	}
	x, okA := number(a)
	y, okB := number(b)
	return okA && okB && x == y
}

// hexBitmap parses an EVENT_TAGGING_ENABLE value such as "0x8001".
func hexBitmap(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
