// Package choice implements the weighted-decision data model spec.md's
// data model calls ChoiceTree: a named, weighted set of alternatives where
// an alternative is a single value, a range sampled uniformly, or a nested
// sub-tree. It backs the externally tunable random decisions in the
// solver (reuse-mode selection, page-aliasing order).
package choice

import (
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

// Choice is one weighted alternative in a Tree. Exactly one of Value,
// Range, or Sub should be set; a Choice with none of the three is a leaf
// that always resolves to 0 (used for placeholder/disabled entries).
type Choice struct {
	Name   string
	Weight uint64
	Value  *uint64
	Range  *[2]uint64
	Sub    *Tree
}

func (c Choice) validate() error {
	if c.Name == "" {
		return forceerr.New(forceerr.ConstraintMalformed, "Choice.validate", "choice name must not be empty")
	}
	set := 0
	if c.Value != nil {
		set++
	}
	if c.Range != nil {
		if c.Range[0] > c.Range[1] {
			return forceerr.New(forceerr.ConstraintMalformed, "Choice.validate", "range lo > hi for choice "+c.Name)
		}
		set++
	}
	if c.Sub != nil {
		set++
	}
	if set > 1 {
		return forceerr.New(forceerr.ConstraintMalformed, "Choice.validate", "choice "+c.Name+" sets more than one of Value/Range/Sub")
	}
	return nil
}

func (c Choice) resolve(r *rand.Rand) (uint64, error) {
	switch {
	case c.Sub != nil:
		return c.Sub.Choose(r)
	case c.Range != nil:
		span := c.Range[1] - c.Range[0]
		if span == 0 {
			return c.Range[0], nil
		}
		return c.Range[0] + r.Uint64N(span+1), nil
	case c.Value != nil:
		return *c.Value, nil
	default:
		return 0, nil
	}
}
