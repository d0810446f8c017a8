package resolver

import (
	"varconf/app/model"
)

// outcome of following a context path. Higher values win when branches merge.
type outcome int

const (
	unmatched outcome = iota
	pending
	matched
)

func (o outcome) String() string {
	switch o {
	case matched:
		return "matched"
	case pending:
		return "pending"
	default:
		return "unmatched"
	}
}

func merge(a, b outcome) outcome {
	return max(a, b)
}

func (o outcome) invert() outcome {
	switch o {
	case matched:
		return unmatched
	case unmatched:
		return matched
	default:
		return o
	}
}

// walk follows path (variant, purpose, variant, ...) starting at e, whose
// variant must equal path[0]. Every entity reached by the final element is
// handed to leaf. A purpose still held by an open choice that offers the
// next variant yields pending, since the path may be realized later.
func walk(e *model.Entity, path []string, leaf func(*model.Entity) outcome) outcome {
	if len(path) == 0 || e.Variant != path[0] {
		return unmatched
	}
	if len(path) == 1 {
		return leaf(e)
	}
	if len(path) == 2 {
		// paths handed to walk always end on a variant
		return unmatched
	}

	purpose, next := path[1], path[2]
	result := unmatched

	for _, child := range e.Children {
		if child.Purpose == purpose && child.Variant == next {
			result = merge(result, walk(child, path[2:], leaf))
		}
	}

	for _, c := range e.PossibleVariants {
		if c.Purpose == purpose && c.Offers(next) {
			result = merge(result, pending)
		}
	}

	return result
}

// reach collects the entities at the end of path and reports whether some
// branch is still waiting on an open variant choice.
func reach(e *model.Entity, path []string) ([]*model.Entity, bool) {
	var found []*model.Entity

	// leaves report unmatched, so only an open branch can lift the result
	out := walk(e, path, func(end *model.Entity) outcome {
		found = append(found, end)
		return unmatched
	})

	return found, out == pending
}
