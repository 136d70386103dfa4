package choice

import (
	"math/rand/v2"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

// Tree is an immutable-by-convention ordered list of Choices. Callers that
// need a scoped weight override use WithWeight, which path-copies only the
// top-level slice rather than deep-cloning the whole tree (spec.md §9
// flags clone-then-choose as a pattern to replace with a persistent,
// path-copy structure; this is that structure).
type Tree struct {
	choices []Choice
	total   uint64
}

// New builds a Tree from a list of Choices, validating each one.
func New(choices ...Choice) (*Tree, error) {
	var total uint64
	cs := append([]Choice(nil), choices...)
	for _, c := range cs {
		if err := c.validate(); err != nil {
			return nil, err
		}
		total += c.Weight
	}
	return &Tree{choices: cs, total: total}, nil
}

// Choices returns the tree's alternatives. The returned slice must not be
// mutated by the caller.
func (t *Tree) Choices() []Choice { return t.choices }

// TotalWeight returns the sum of this level's weights (not recursive into
// sub-trees, matching the semantics of a single weighted pick at this
// level).
func (t *Tree) TotalWeight() uint64 { return t.total }

// Find returns the named Choice and true, or the zero Choice and false.
func (t *Tree) Find(name string) (Choice, bool) {
	for _, c := range t.choices {
		if c.Name == name {
			return c, true
		}
	}
	return Choice{}, false
}

// Choose picks one alternative weighted by Weight, resolves it (sampling
// uniformly within a Range or recursing into a Sub tree), and returns the
// resolved value. Fails with EmptyConstraint if the tree has zero total
// weight.
func (t *Tree) Choose(r *rand.Rand) (uint64, error) {
	c, err := t.ChooseEntry(r)
	if err != nil {
		return 0, err
	}
	return c.resolve(r)
}

// ChooseEntry picks and returns the winning Choice itself without
// resolving it, for callers (e.g. reuse-mode selection) that need the
// name as well as the value.
func (t *Tree) ChooseEntry(r *rand.Rand) (Choice, error) {
	if t.total == 0 {
		return Choice{}, forceerr.New(forceerr.EmptyConstraint, "Tree.ChooseEntry", "choice tree has zero total weight")
	}
	target := r.Uint64N(t.total)
	var acc uint64
	for _, c := range t.choices {
		acc += c.Weight
		if target < acc {
			return c, nil
		}
	}
	// Unreachable given total == sum(Weight), but guards against a broken
	// invariant rather than silently returning the zero Choice.
	forceerr.Panic(forceerr.InvariantViolation, "Tree.ChooseEntry", "weight accumulation did not cover sampled target")
	panic("unreachable")
}

// WithWeight returns a new Tree identical to t except the named choice's
// Weight is replaced. It path-copies only the top-level slice; unrelated
// Choice values (including any Sub trees) are shared with t, not deep
// cloned. Returns UnknownName if no choice with that name exists.
func (t *Tree) WithWeight(name string, weight uint64) (*Tree, error) {
	idx := -1
	for i, c := range t.choices {
		if c.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, forceerr.New(forceerr.UnknownName, "Tree.WithWeight", "no such choice: "+name)
	}
	next := append([]Choice(nil), t.choices...)
	old := next[idx].Weight
	next[idx].Weight = weight
	return &Tree{choices: next, total: t.total - old + weight}, nil
}
