// Package utils provides small, generic helpers shared across layers. They
// are independent of transport and domain concerns so any package can use
// them without import cycles.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault converts s to an int, tolerating surrounding whitespace (query
// parameters arrive in whatever shape clients send them). Empty or
// unparseable input yields def.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ClampInt bounds n to the inclusive range [lo, hi]. It is the shared shape
// for list-endpoint limits: parse with AtoiDefault, then clamp.
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
