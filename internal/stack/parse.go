package stack

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSel reads one axis selection in slice notation: "3", "-1", "2:8",
// "::2", ":", "1,4,5" or "...". An empty string selects everything.
func ParseSel(expr string) (Sel, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "" || expr == ":":
		return All(), nil
	case expr == "...":
		return Rest(), nil
	case strings.Contains(expr, ":"):
		return parseSpan(expr)
	case strings.Contains(expr, ","):
		// Empty elements are skipped, so "3," is the one-element list [3].
		var ids []int
		for _, p := range strings.Split(expr, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			n, err := strconv.Atoi(p)
			if err != nil {
				return Sel{}, fmt.Errorf("stack: bad index list %q: %w", expr, err)
			}
			ids = append(ids, n)
		}
		if len(ids) == 0 {
			return Sel{}, fmt.Errorf("stack: empty index list %q", expr)
		}
		return List(ids...), nil
	}
	n, err := strconv.Atoi(expr)
	if err != nil {
		return Sel{}, fmt.Errorf("stack: bad index %q: %w", expr, err)
	}
	return At(n), nil
}

func parseSpan(expr string) (Sel, error) {
	parts := strings.Split(expr, ":")
	if len(parts) > 3 {
		return Sel{}, fmt.Errorf("stack: bad slice %q: too many colons", expr)
	}
	s := Sel{kind: selSpan, step: 1}
	field := func(i int) (int, bool, error) {
		if i >= len(parts) {
			return 0, false, nil
		}
		p := strings.TrimSpace(parts[i])
		if p == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, false, fmt.Errorf("stack: bad slice %q: %w", expr, err)
		}
		return n, true, nil
	}

	var err error
	if s.start, s.hasStart, err = field(0); err != nil {
		return Sel{}, err
	}
	if s.stop, s.hasStop, err = field(1); err != nil {
		return Sel{}, err
	}
	step, ok, err := field(2)
	if err != nil {
		return Sel{}, err
	}
	if ok {
		s.step = step
	}
	if !s.hasStart && !s.hasStop && s.step == 1 {
		return All(), nil
	}
	return s, nil
}
