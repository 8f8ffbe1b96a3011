package prefs

import (
	"slices"
	"strings"
)

// Autocompleter cycles through the items that start with a typed prefix.
// Repeating Complete with the previous suggestion moves to the next match and
// wraps around; input that matches nothing resets the search.
type Autocompleter struct {
	items  []string
	prefix string
	last   string
	index  int
	active bool
}

// NewAutocompleter builds a completer over a sorted, de-duplicated copy of items.
func NewAutocompleter(items []string) *Autocompleter {
	a := &Autocompleter{}
	a.SetItems(items)
	return a
}

// SetItems replaces the candidate list and resets the search.
func (a *Autocompleter) SetItems(items []string) {
	sorted := slices.Clone(items)
	slices.Sort(sorted)
	a.items = slices.Compact(sorted)
	a.Reset()
}

// Items returns the candidates in completion order.
func (a *Autocompleter) Items() []string {
	return slices.Clone(a.items)
}

// Reset forgets the current search.
func (a *Autocompleter) Reset() {
	a.prefix = ""
	a.last = ""
	a.index = -1
	a.active = false
}

// Complete returns the next candidate for input.
func (a *Autocompleter) Complete(input string) (string, bool) {
	if !a.active || input != a.last {
		a.prefix = input
		a.index = -1
	}
	for step := 1; step <= len(a.items); step++ {
		i := (a.index + step) % len(a.items)
		if strings.HasPrefix(a.items[i], a.prefix) {
			a.index = i
			a.last = a.items[i]
			a.active = true
			return a.last, true
		}
	}
	a.Reset()
	return "", false
}
