package index

import (
	"sort"

	"github.com/lacunadb/lacuna/model"
)

// span is one filled interval: a lower and an upper bound over key-space.
type span struct {
	lo model.Bound // lower bound
	hi model.Bound // upper bound
}

func (s span) rangeKey() model.RangeKey {
	return model.RangeKey{Lower: s.lo, Upper: s.hi}
}

// intervalSet records which contiguous regions of key-space are filled.
// Spans are kept sorted, disjoint and non-adjoining: any two spans have at
// least one uncovered point between them, so merging on insert keeps the
// set canonical and miss computation a single sweep.
type intervalSet struct {
	ivs []span
}

// add marks [lo, hi] filled, absorbing every span it overlaps or adjoins.
func (s *intervalSet) add(lo, hi model.Bound) {
	if cmpLowerUpper(lo, hi) > 0 {
		return
	}
	merged := span{lo: lo, hi: hi}
	out := make([]span, 0, len(s.ivs)+1)
	inserted := false
	for _, iv := range s.ivs {
		switch {
		case separatedBefore(iv.hi, merged.lo):
			out = append(out, iv)
		case separatedBefore(merged.hi, iv.lo):
			if !inserted {
				out = append(out, merged)
				inserted = true
			}
			out = append(out, iv)
		default:
			if cmpLower(iv.lo, merged.lo) < 0 {
				merged.lo = iv.lo
			}
			if cmpUpper(iv.hi, merged.hi) > 0 {
				merged.hi = iv.hi
			}
		}
	}
	if !inserted {
		out = append(out, merged)
	}
	s.ivs = out
}

// setFull marks the whole key-space filled.
func (s *intervalSet) setFull() {
	s.ivs = []span{{lo: model.Unbounded(), hi: model.Unbounded()}}
}

// remove re-creates a hole over [lo, hi], splitting spans that extend past
// either end.
func (s *intervalSet) remove(lo, hi model.Bound) {
	if cmpLowerUpper(lo, hi) > 0 {
		return
	}
	out := make([]span, 0, len(s.ivs)+1)
	for _, iv := range s.ivs {
		if upperEndsBefore(iv.hi, lo) || upperEndsBefore(hi, iv.lo) {
			out = append(out, iv)
			continue
		}
		if cmpLower(iv.lo, lo) < 0 {
			out = append(out, span{lo: iv.lo, hi: complementLower(lo)})
		}
		if cmpUpper(iv.hi, hi) > 0 {
			out = append(out, span{lo: complementUpper(hi), hi: iv.hi})
		}
	}
	s.ivs = out
}

// missing returns the sub-ranges of [lo, hi] not covered by any span, in
// order. A nil result means the query range is fully covered.
func (s *intervalSet) missing(lo, hi model.Bound) []span {
	if cmpLowerUpper(lo, hi) > 0 {
		return nil
	}
	var out []span
	cur := lo
	for _, iv := range s.ivs {
		if upperEndsBefore(iv.hi, cur) {
			continue
		}
		if cmpLower(iv.lo, cur) > 0 {
			gapHi := complementLower(iv.lo)
			if cmpUpper(gapHi, hi) >= 0 {
				out = append(out, span{lo: cur, hi: hi})
				return out
			}
			out = append(out, span{lo: cur, hi: gapHi})
		}
		if iv.hi.Kind == model.BoundUnbounded {
			return out
		}
		cur = complementUpper(iv.hi)
		if cmpLowerUpper(cur, hi) > 0 {
			return out
		}
	}
	out = append(out, span{lo: cur, hi: hi})
	return out
}

// containsPoint reports whether key lies in a filled span.
func (s *intervalSet) containsPoint(key model.PointKey) bool {
	at := model.Included(key)
	// First span whose end is not strictly before the key.
	i := sort.Search(len(s.ivs), func(i int) bool {
		return !upperEndsBefore(s.ivs[i].hi, at)
	})
	return i < len(s.ivs) && s.ivs[i].rangeKey().Contains(key)
}

// covers reports whether [lo, hi] is fully covered.
func (s *intervalSet) covers(lo, hi model.Bound) bool {
	return len(s.missing(lo, hi)) == 0
}

func (s *intervalSet) clear() {
	s.ivs = nil
}

// Bound comparison helpers. A lower bound occupies coordinate (key, 0) when
// included and (key, +1) when excluded; an upper bound occupies (key, 0)
// when included and (key, -1) when excluded. Unbounded is -/+ infinity on
// its respective side. Distinct keys are treated as having points strictly
// between them.

// cmpLower orders two lower bounds by start coordinate.
func cmpLower(a, b model.Bound) int {
	au, bu := a.Kind == model.BoundUnbounded, b.Kind == model.BoundUnbounded
	switch {
	case au && bu:
		return 0
	case au:
		return -1
	case bu:
		return 1
	}
	if c := a.Key.Cmp(b.Key); c != 0 {
		return c
	}
	if a.Kind == b.Kind {
		return 0
	}
	if a.Kind == model.BoundIncluded {
		return -1
	}
	return 1
}

// cmpUpper orders two upper bounds by end coordinate.
func cmpUpper(a, b model.Bound) int {
	au, bu := a.Kind == model.BoundUnbounded, b.Kind == model.BoundUnbounded
	switch {
	case au && bu:
		return 0
	case au:
		return 1
	case bu:
		return -1
	}
	if c := a.Key.Cmp(b.Key); c != 0 {
		return c
	}
	if a.Kind == b.Kind {
		return 0
	}
	if a.Kind == model.BoundExcluded {
		return -1
	}
	return 1
}

// cmpLowerUpper compares a lower bound's start against an upper bound's
// end. A result > 0 means the pair spans no points (an empty range).
func cmpLowerUpper(lo, hi model.Bound) int {
	if lo.Kind == model.BoundUnbounded || hi.Kind == model.BoundUnbounded {
		return -1
	}
	if c := lo.Key.Cmp(hi.Key); c != 0 {
		return c
	}
	if lo.Kind == model.BoundIncluded && hi.Kind == model.BoundIncluded {
		return 0
	}
	return 1
}

// separatedBefore reports whether an interval ending at hi leaves a hole
// before one starting at lo. Adjoining bounds (same key, exactly one side
// open) are contiguous, not separated.
func separatedBefore(hi, lo model.Bound) bool {
	if hi.Kind == model.BoundUnbounded || lo.Kind == model.BoundUnbounded {
		return false
	}
	if c := hi.Key.Cmp(lo.Key); c != 0 {
		return c < 0
	}
	return hi.Kind == model.BoundExcluded && lo.Kind == model.BoundExcluded
}

// upperEndsBefore reports whether upper bound hi ends strictly before lower
// bound lo begins, i.e. the two share no point.
func upperEndsBefore(hi, lo model.Bound) bool {
	if hi.Kind == model.BoundUnbounded || lo.Kind == model.BoundUnbounded {
		return false
	}
	if c := hi.Key.Cmp(lo.Key); c != 0 {
		return c < 0
	}
	return hi.Kind == model.BoundExcluded || lo.Kind == model.BoundExcluded
}

// complementLower is the upper bound of the region immediately before a
// bounded lower bound.
func complementLower(lo model.Bound) model.Bound {
	if lo.Kind == model.BoundIncluded {
		return model.Excluded(lo.Key)
	}
	return model.Included(lo.Key)
}

// complementUpper is the lower bound of the region immediately after a
// bounded upper bound.
func complementUpper(hi model.Bound) model.Bound {
	if hi.Kind == model.BoundIncluded {
		return model.Excluded(hi.Key)
	}
	return model.Included(hi.Key)
}
