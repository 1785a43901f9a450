package store

import (
	"fmt"
	"strings"

	"tasktracker/internal/service"
)

// Filter selects tasks by status.
type Filter string

const (
	FilterAll    Filter = "ALL"
	FilterOpen   Filter = "OPEN"
	FilterClosed Filter = "CLOSED"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterOpen, FilterClosed}

// ParseFilter parses a filter name case-insensitively. Empty means all.
func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterOpen, FilterClosed:
		return f, nil
	}
	return "", fmt.Errorf("invalid filter %q: must be one of all, open, closed", s)
}

// Next cycles to the following filter.
func (f Filter) Next() Filter {
	for i, g := range Filters {
		if g == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// FilterTasks returns the tasks matching f in their original order.
// items is never modified.
func FilterTasks(items []service.Task, f Filter) []service.Task {
	out := make([]service.Task, 0, len(items))
	for _, t := range items {
		if f == FilterAll || string(t.Status) == string(f) {
			out = append(out, t)
		}
	}
	return out
}
