package grammar

import "fmt"

// closePrecedence computes, for every terminal, the transitive closure of
// the terminals it excludes (§4.8 step 4): if A excludes B and B excludes C,
// then A also excludes C. It also detects cycles in the raw +Name/-Name
// graph, which would make the precedence relation ill-founded (§4.8 step 4:
// the precedence graph must be a DAG).
//
// This is a plain directed-graph reachability problem; a hand-rolled
// Tarjan-style SCC pass is the simplest thing that both detects a cycle and
// gives a closure in one walk, and nothing else in this module would share
// a graph-library dependency, so it stays on top of the standard library.
func closePrecedence(terms []*Terminal, byName map[string]TerminalID) (map[TerminalID]map[TerminalID]bool, error) {
	n := len(terms)
	adj := make([][]TerminalID, n)
	for _, t := range terms {
		for _, excluded := range t.Excludes {
			id, ok := byName[excluded]
			if !ok {
				return nil, fmt.Errorf("terminal %q excludes unknown terminal %q", t.Name, excluded)
			}
			adj[t.ID] = append(adj[t.ID], id)
		}
		for _, including := range t.Includes {
			// +Name on T means T specializes Name: T wins over Name, i.e.
			// Name excludes T from Name's perspective is backwards -- the
			// correct direction is "Name loses to T", recorded as an edge
			// from Name to T in the same exclusion graph.
			id, ok := byName[including]
			if !ok {
				return nil, fmt.Errorf("terminal %q includes unknown terminal %q", t.Name, including)
			}
			adj[id] = append(adj[id], t.ID)
		}
	}

	sccOf, err := tarjanSCC(adj)
	if err != nil {
		return nil, err
	}
	for i, comp := range sccOf {
		if len(comp) > 1 {
			return nil, fmt.Errorf("precedence graph has a cycle involving terminal %q", terms[i].Name)
		}
	}

	closure := make(map[TerminalID]map[TerminalID]bool, n)
	for i := range terms {
		id := TerminalID(i)
		reached := map[TerminalID]bool{}
		var walk func(TerminalID)
		walk = func(u TerminalID) {
			for _, v := range adj[u] {
				if !reached[v] {
					reached[v] = true
					walk(v)
				}
			}
		}
		walk(id)
		closure[id] = reached
	}
	return closure, nil
}

// tarjanSCC returns, for each node, the set of nodes in its strongly
// connected component (as a node-id set keyed by size only via len(comp) in
// the caller). A component of size >1 signals a cycle.
func tarjanSCC(adj [][]TerminalID) ([]map[TerminalID]bool, error) {
	n := len(adj)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []TerminalID
	next := 0
	comps := make([]map[TerminalID]bool, n)

	var strongconnect func(v TerminalID)
	strongconnect = func(v TerminalID) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if index[w] == -1 {
				strongconnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if index[w] < low[v] {
					low[v] = index[w]
				}
			}
		}

		if low[v] == index[v] {
			comp := map[TerminalID]bool{}
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp[w] = true
				if w == v {
					break
				}
			}
			for w := range comp {
				comps[w] = comp
			}
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongconnect(TerminalID(v))
		}
	}
	return comps, nil
}
