package resolver

import (
	"cmp"
	"strconv"
	"varconf/app/kb"
)

// holds applies op to the operands. Two numbers compare numerically,
// anything else compares as strings.
func holds(op kb.Operator, left, right string) bool {
	var c int

	l, lerr := strconv.ParseFloat(left, 64)
	r, rerr := strconv.ParseFloat(right, 64)
	if lerr == nil && rerr == nil {
		c = cmp.Compare(l, r)
	} else {
		c = cmp.Compare(left, right)
	}

	switch op {
	case kb.OpEqual:
		return c == 0
	case kb.OpNotEqual:
		return c != 0
	case kb.OpLessThan:
		return c < 0
	case kb.OpLessOrEqual:
		return c <= 0
	case kb.OpGreaterThan:
		return c > 0
	case kb.OpGreaterOrEqual:
		return c >= 0
	default:
		return false
	}
}
