// internal/filters/state.go
package filters

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// State maps a dimension to its selected values. A missing or empty
// selection leaves that dimension unrestricted.
type State map[Dimension][]string

// ActiveCount is the total number of selected values across dimensions.
func (s State) ActiveCount() int {
	n := 0
	for _, values := range s {
		n += len(values)
	}
	return n
}

// SelectedMonth returns the EMI month when exactly one is selected.
func (s State) SelectedMonth() string {
	if months := s[DimEmiMonth]; len(months) == 1 {
		return NormalizeEmiMonth(months[0])
	}
	return ""
}

// Validate rejects unknown dimensions, blank values and bounce values that
// are not one of BounceBuckets.
func (s State) Validate() error {
	for d, values := range s {
		if _, ok := ParseDimension(string(d)); !ok {
			return fmt.Errorf("unknown filter dimension %q", d)
		}
		for _, v := range values {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("empty value for filter dimension %q", d)
			}
			if d == DimLastMonthBounce && !IsBounceBucket(v) {
				return fmt.Errorf("unknown %s bucket %q", d, v)
			}
		}
	}
	return nil
}

// Normalize drops empty selections and duplicate values, keeping first-seen order.
func (s State) Normalize() State {
	out := make(State, len(s))
	for d, values := range s {
		seen := make(map[string]struct{}, len(values))
		kept := make([]string, 0, len(values))
		for _, v := range values {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			kept = append(kept, v)
		}
		if len(kept) > 0 {
			out[d] = kept
		}
	}
	return out
}

// FromQuery reads repeated dimension parameters (branch=A&branch=B).
// Parameters that are not dimensions are ignored.
func FromQuery(values url.Values) (State, error) {
	state := make(State)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		d, ok := ParseDimension(key)
		if !ok {
			continue
		}
		for _, v := range values[key] {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			state[d] = append(state[d], v)
		}
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state.Normalize(), nil
}

// AddTo writes the selections into values, one repeated key per dimension.
// It is the inverse of FromQuery.
func (s State) AddTo(values url.Values) {
	for d, selected := range s.Normalize() {
		for _, v := range selected {
			values.Add(string(d), v)
		}
	}
}
