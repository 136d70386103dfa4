package constraint

import (
	"strconv"
	"strings"

	"github.com/openhwgroup/force-riscv-sub004/forceerr"
)

// Parse builds a Set from the textual form spec §3 describes:
// "0x10-0x1f,0x20,...", a comma-separated list of single values and
// lo-hi ranges, each in base 0 (so "0x" hex and plain decimal both work).
func Parse(text string) (*Set, error) {
	s := New()
	text = strings.TrimSpace(text)
	if text == "" {
		return s, nil
	}
	for _, field := range strings.Split(text, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(field, "-"); ok {
			loVal, err := parseUint(lo)
			if err != nil {
				return nil, err
			}
			hiVal, err := parseUint(hi)
			if err != nil {
				return nil, err
			}
			if err := s.AddRange(loVal, hiVal); err != nil {
				return nil, err
			}
			continue
		}
		v, err := parseUint(field)
		if err != nil {
			return nil, err
		}
		s.AddValue(v)
	}
	return s, nil
}

func parseUint(text string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(text), 0, 64)
	if err != nil {
		return 0, forceerr.Wrap(forceerr.ConstraintMalformed, "constraint.Parse", "invalid integer literal "+text, err)
	}
	return v, nil
}
