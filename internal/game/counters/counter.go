package counters

import "sort"

// Counter is a named stack of counters on a game object.
type Counter struct {
	Name  string
	Count int
}

// Counters holds the counters placed on one game object. Zero value is not usable; call
// NewCounters.
type Counters struct {
	counters map[string]int
}

// NewCounters creates an empty counter collection.
func NewCounters() *Counters {
	return &Counters{counters: make(map[string]int)}
}

// Add places amount counters of the given type. Non-positive amounts are ignored.
func (cs *Counters) Add(name CounterType, amount int) {
	if amount <= 0 || name == "" {
		return
	}
	cs.counters[string(name)] += amount
}

// Remove takes up to amount counters of the given type off and returns how many were removed.
func (cs *Counters) Remove(name CounterType, amount int) int {
	if amount <= 0 {
		return 0
	}
	have := cs.counters[string(name)]
	if have == 0 {
		return 0
	}
	removed := min(have, amount)
	if have == removed {
		delete(cs.counters, string(name))
	} else {
		cs.counters[string(name)] = have - removed
	}
	return removed
}

// Count returns the number of counters of the given type.
func (cs *Counters) Count(name CounterType) int {
	return cs.counters[string(name)]
}

// Total returns the number of counters of all types.
func (cs *Counters) Total() int {
	total := 0
	for _, n := range cs.counters {
		total += n
	}
	return total
}

// List returns all counters sorted by name.
func (cs *Counters) List() []Counter {
	out := make([]Counter, 0, len(cs.counters))
	for name, n := range cs.counters {
		out = append(out, Counter{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Copy creates a deep copy of the collection.
func (cs *Counters) Copy() *Counters {
	cp := NewCounters()
	for name, n := range cs.counters {
		cp.counters[name] = n
	}
	return cp
}
