package regex

// Run simulates nfa over text starting at start, per §4.2: maintain a
// frontier of active states, consume one byte at a time, ε-close, and
// record an accept whenever any active state in the frontier is accepting.
// Longest match: keep going until the frontier empties; the last position
// at which an accept was recorded wins. Returns matched=false if the
// frontier never contained an accepting state.
//
// Run is deterministic and side-effect free: repeated calls with the same
// (nfa, text, start) return identical results, and nfa itself is never
// mutated, so one compiled NFA can be shared and run concurrently by many
// sessions (§5).
func Run(nfa *NFA, text []byte, start int) (matched bool, end int) {
	frontier := map[StateID]struct{}{}
	closure(nfa, nfa.start, frontier)

	pos := start
	if hasAccept(nfa, frontier) {
		matched = true
		end = pos
	}
	for pos < len(text) && len(frontier) > 0 {
		b := text[pos]
		next := map[StateID]struct{}{}
		for s := range frontier {
			for _, tr := range nfa.states[s].trans {
				if b >= tr.lo && b <= tr.hi {
					closure(nfa, tr.to, next)
				}
			}
		}
		frontier = next
		pos++
		if hasAccept(nfa, frontier) {
			matched = true
			end = pos
		}
	}
	return matched, end
}

func hasAccept(nfa *NFA, frontier map[StateID]struct{}) bool {
	for s := range frontier {
		if nfa.states[s].accept {
			return true
		}
	}
	return false
}

func closure(nfa *NFA, s StateID, into map[StateID]struct{}) {
	if _, ok := into[s]; ok {
		return
	}
	into[s] = struct{}{}
	for _, t := range nfa.states[s].eps {
		closure(nfa, t, into)
	}
}
