package constraint

import "sort"

// normalizeList sorts an arbitrary (possibly overlapping, unordered)
// interval list by Lo and coalesces overlapping or adjacent intervals,
// producing a normalised list: sorted, disjoint, non-adjacent.
func normalizeList(ivs []Interval) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	all := append([]Interval(nil), ivs...)
	sort.Slice(all, func(i, j int) bool { return all[i].Lo < all[j].Lo })

	out := make([]Interval, 0, len(all))
	cur := all[0]
	for _, iv := range all[1:] {
		if cur.overlapsOrAdjacent(iv) {
			cur = cur.union(iv)
			continue
		}
		out = append(out, cur)
		cur = iv
	}
	out = append(out, cur)
	return out
}

// mergeLists returns the union of two already-normalised (sorted,
// disjoint, non-adjacent) interval lists as a new normalised list.
func mergeLists(a, b []Interval) []Interval {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	all := make([]Interval, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return normalizeList(all)
}

// subtractLists returns a \ b for two normalised interval lists.
func subtractLists(a, b []Interval) []Interval {
	if len(a) == 0 || len(b) == 0 {
		return append([]Interval(nil), a...)
	}

	out := make([]Interval, 0, len(a))
	bi := 0
	for _, ivA := range a {
		for bi < len(b) && b[bi].Hi < ivA.Lo {
			bi++
		}

		cur := ivA.Lo
		curValid := true
		idx := bi
		for idx < len(b) && b[idx].Lo <= ivA.Hi {
			if b[idx].Lo > cur {
				out = append(out, Interval{Lo: cur, Hi: b[idx].Lo - 1})
			}
			if b[idx].Hi >= ivA.Hi {
				curValid = false
				break
			}
			cur = b[idx].Hi + 1
			idx++
		}
		if curValid {
			out = append(out, Interval{Lo: cur, Hi: ivA.Hi})
		}
	}
	return out
}

// intersectLists returns a ∩ b for two normalised interval lists.
func intersectLists(a, b []Interval) []Interval {
	var out []Interval
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := a[i].Lo
		if b[j].Lo > lo {
			lo = b[j].Lo
		}
		hi := a[i].Hi
		if b[j].Hi < hi {
			hi = b[j].Hi
		}
		if lo <= hi {
			out = append(out, Interval{Lo: lo, Hi: hi})
		}
		if a[i].Hi < b[j].Hi {
			i++
		} else {
			j++
		}
	}
	return out
}

func sumSizes(ivs []Interval) uint64 {
	var total uint64
	for _, iv := range ivs {
		total += iv.Size()
	}
	return total
}
