// Package matrix instantiates a manifest's build matrix and substitutes
// %NAME% variable references.
package matrix

import (
	"sort"

	"github.com/datawire/cirun/pkg/manifest"
)

// Entry is one build-matrix entry: the manifest's global bindings
// overlaid with one environment.matrix element, flattened to strings.
// Created at run start, read-only thereafter.
type Entry map[string]string

// Entries instantiates the manifest's build matrix, in declaration
// order.  A manifest with no environment.matrix still yields exactly one
// entry (the globals alone).
func Entries(m *manifest.Manifest) []Entry {
	sets := m.Environment.Matrix
	if len(sets) == 0 {
		sets = []manifest.Vars{nil}
	}
	ret := make([]Entry, 0, len(sets))
	for _, set := range sets {
		entry := make(Entry, len(m.Environment.Global)+len(set))
		for k, v := range m.Environment.Global {
			entry[k] = v.String()
		}
		for k, v := range set {
			entry[k] = v.String()
		}
		ret = append(ret, entry)
	}
	return ret
}

// Names returns the entry's variable names, sorted.
func (e Entry) Names() []string {
	ret := make([]string, 0, len(e))
	for name := range e {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Lookup is a LookupFunc over the entry alone.
func (e Entry) Lookup(name string) (string, bool) {
	val, ok := e[name]
	return val, ok
}
