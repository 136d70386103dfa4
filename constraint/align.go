package constraint

import (
	"math/bits"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

// AlignWithPage replaces each interval with the range of page indices it
// touches under a page of size pageMask+1 (pageMask is the page's
// within-page offset mask, e.g. 0xfff for 4KiB pages). After alignment
// the set enumerates page indices rather than addresses (spec §4.1).
// Applying it twice is idempotent: the second call sees page indices,
// which are already page 0 under a mask of all set bits below the shift,
// so nothing further collapses.
func (s *Set) AlignWithPage(pageMask uint64) {
	shift := bits.TrailingZeros64(pageMask + 1)
	var out []Interval
	for _, iv := range s.intervals {
		lo := iv.Lo >> shift
		hi := iv.Hi >> shift
		if lo <= hi {
			out = append(out, Interval{Lo: lo, Hi: hi})
		}
	}
	s.setIntervals(normalizeList(out))
}

// AlignWithSize shrinks each interval to the points x that are aligned to
// alignMask (x & alignMask == x, i.e. x is a multiple of the stride
// implied by alignMask's cleared low bits) and for which the whole access
// window [x, x+size) still fits inside that same original interval.
func (s *Set) AlignWithSize(alignMask, size uint64) {
	if size == 0 {
		s.setIntervals(nil)
		return
	}
	stride := (^alignMask) + 1
	var out []Interval
	for _, iv := range s.intervals {
		if iv.Hi-iv.Lo+1 < size {
			continue
		}
		upper := iv.Hi - (size - 1)
		out = append(out, steppedRangeMod(iv.Lo, upper, stride, 0)...)
	}
	s.setIntervals(normalizeList(out))
}

// AlignMulDataWithSize keeps only points x such that x ≡ data (mod mul)
// and [x, x+size) fits inside the original interval containing x.
func (s *Set) AlignMulDataWithSize(mul, data, size uint64) error {
	if mul == 0 {
		return forceerr.New(forceerr.ConstraintMalformed, "Set.AlignMulDataWithSize", "mul must be nonzero")
	}
	if size == 0 {
		s.setIntervals(nil)
		return nil
	}
	var out []Interval
	for _, iv := range s.intervals {
		if iv.Hi-iv.Lo+1 < size {
			continue
		}
		upper := iv.Hi - (size - 1)
		out = append(out, steppedRangeMod(iv.Lo, upper, mul, data%mul)...)
	}
	s.setIntervals(normalizeList(out))
	return nil
}

// steppedRangeMod returns singleton intervals for every x in [lo, hi] with
// x % mul == data (mod mul), or one contiguous interval when mul <= 1.
func steppedRangeMod(lo, hi, mul, data uint64) []Interval {
	if lo > hi {
		return nil
	}
	if mul <= 1 {
		return []Interval{{Lo: lo, Hi: hi}}
	}

	rem := lo % mul
	target := data % mul
	diff := (target + mul - rem) % mul
	first := lo + diff
	if first < lo || first > hi {
		return nil
	}

	out := make([]Interval, 0, (hi-first)/mul+1)
	for v := first; ; v += mul {
		out = append(out, Interval{Lo: v, Hi: v})
		if hi-v < mul {
			break
		}
	}
	return out
}

// Translate maps x ↦ (x & pageMask) | pageFrame per element, splitting at
// page boundaries (multiples of pageMask+1) so the result stays a valid
// interval list even when the source spans more than one page.
func (s *Set) Translate(pageMask, pageFrame uint64) {
	var out []Interval
	for _, iv := range s.intervals {
		lo := iv.Lo
		for lo <= iv.Hi {
			segBase := lo &^ pageMask
			segEnd := segBase | pageMask
			hi := iv.Hi
			if segEnd < hi {
				hi = segEnd
			}
			shift := pageFrame - segBase
			out = append(out, Interval{Lo: lo + shift, Hi: hi + shift})
			if hi == ^uint64(0) {
				break
			}
			lo = hi + 1
		}
	}
	s.setIntervals(normalizeList(out))
}

// SubtractFromElements maps x ↦ x - c per element (uint64 wraparound
// arithmetic), splitting any interval that straddles the wrap point so the
// result remains a valid ascending interval list.
func (s *Set) SubtractFromElements(c uint64) {
	var out []Interval
	for _, iv := range s.intervals {
		switch {
		case iv.Hi < c || iv.Lo >= c:
			out = append(out, Interval{Lo: iv.Lo - c, Hi: iv.Hi - c})
		default: // iv.Lo < c <= iv.Hi: straddles the modular wrap point
			out = append(out, Interval{Lo: iv.Lo - c, Hi: ^uint64(0)})
			out = append(out, Interval{Lo: 0, Hi: iv.Hi - c})
		}
	}
	s.setIntervals(normalizeList(out))
}

// ShiftRight maps x ↦ x >> n per element. Right shift is order-preserving
// so the image of each interval is itself a contiguous interval.
func (s *Set) ShiftRight(n uint) {
	var out []Interval
	for _, iv := range s.intervals {
		out = append(out, Interval{Lo: iv.Lo >> n, Hi: iv.Hi >> n})
	}
	s.setIntervals(normalizeList(out))
}

// NotElements maps x ↦ ^x per element (bitwise complement). Complement is
// order-reversing, so each interval's image is [^hi, ^lo].
func (s *Set) NotElements() {
	var out []Interval
	for _, iv := range s.intervals {
		out = append(out, Interval{Lo: ^iv.Hi, Hi: ^iv.Lo})
	}
	s.setIntervals(normalizeList(out))
}

// DivideElementsWithFactorRangeUnionedWithZero keeps, for each element v
// evenly divisible by d, the quotient v/d restricted to [lo, hi], and
// additionally unions in the value 0: used by the data-processing
// strategies (spec §4.5) to enumerate candidate multiplier/multiplicand
// values for a MulAdd-shaped target constraint, where a multiplier of 0 is
// always a structurally valid (if degenerate) branch.
func (s *Set) DivideElementsWithFactorRangeUnionedWithZero(d, lo, hi uint64) error {
	if d == 0 {
		return forceerr.New(forceerr.ConstraintMalformed, "Set.DivideElementsWithFactorRangeUnionedWithZero", "d must be nonzero")
	}
	var out []Interval
	for _, iv := range s.intervals {
		loBound := iv.Lo
		if d*lo > loBound {
			loBound = d * lo
		}
		hiBound := iv.Hi
		hiCap := d*hi + (d - 1)
		if d != 0 && hi != 0 && hiCap/d != hi { // overflow guard
			hiCap = ^uint64(0)
		}
		if hiCap < hiBound {
			hiBound = hiCap
		}
		if loBound > hiBound {
			continue
		}
		firstMultiple := (loBound / d) * d
		if firstMultiple < loBound {
			firstMultiple += d
		}
		lastMultiple := (hiBound / d) * d
		if firstMultiple > lastMultiple {
			continue
		}
		out = append(out, Interval{Lo: firstMultiple / d, Hi: lastMultiple / d})
	}
	out = append(out, Interval{Lo: 0, Hi: 0})
	s.setIntervals(normalizeList(out))
	return nil
}
