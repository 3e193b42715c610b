package engine

import (
	"sort"
	"strings"
)

// levels orders derived meters so every meter comes after the derived meters
// it depends on. deps maps a node to the nodes it reads; ids outside the
// node set are ignored. Meters within a level are independent and sorted by
// id. A cycle fails with ErrCyclicFormula naming the meters on it.
func levels(nodes []uint, deps map[uint][]uint, names map[uint]string) ([][]uint, error) {
	inSet := make(map[uint]bool, len(nodes))
	for _, n := range nodes {
		inSet[n] = true
	}

	indegree := make(map[uint]int, len(nodes))
	dependents := make(map[uint][]uint, len(nodes))
	for _, n := range nodes {
		seen := map[uint]bool{}
		for _, d := range deps[n] {
			if !inSet[d] || seen[d] {
				continue
			}
			seen[d] = true
			indegree[n]++
			dependents[d] = append(dependents[d], n)
		}
	}

	var ready []uint
	for _, n := range nodes {
		if indegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	var out [][]uint
	done := 0
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		out = append(out, ready)
		done += len(ready)

		var next []uint
		for _, n := range ready {
			for _, m := range dependents[n] {
				indegree[m]--
				if indegree[m] == 0 {
					next = append(next, m)
				}
			}
		}
		ready = next
	}

	if done != len(nodes) {
		cycle := findCycle(nodes, deps, inSet)
		if len(cycle) == 0 {
			for _, n := range nodes {
				if indegree[n] > 0 {
					cycle = append(cycle, n)
				}
			}
		}
		labels := make([]string, len(cycle))
		for i, id := range cycle {
			labels[i] = names[id]
		}
		return nil, &ConfigurationError{
			Reason:     ErrCyclicFormula,
			MeterID:    cycle[0],
			Identifier: names[cycle[0]],
			Detail:     strings.Join(labels, " -> "),
		}
	}
	return out, nil
}

// findCycle returns one dependency cycle, first node repeated at the end.
func findCycle(nodes []uint, deps map[uint][]uint, inSet map[uint]bool) []uint {
	const (
		white = iota
		grey
		black
	)
	color := make(map[uint]int, len(nodes))
	var stack []uint
	var cycle []uint

	var visit func(n uint) bool
	visit = func(n uint) bool {
		color[n] = grey
		stack = append(stack, n)
		next := append([]uint(nil), deps[n]...)
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		for _, d := range next {
			if !inSet[d] {
				continue
			}
			switch color[d] {
			case grey:
				for i, s := range stack {
					if s == d {
						cycle = append(append([]uint(nil), stack[i:]...), d)
						return true
					}
				}
			case white:
				if visit(d) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}

	sorted := append([]uint(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, n := range sorted {
		if color[n] == white && visit(n) {
			return cycle
		}
	}
	return nil
}
