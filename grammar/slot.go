package grammar

// Slot identifies a dotted position within one alternative: the pair
// (non-terminal, alternative index) plus a dot offset into Symbols, interned
// to a single integer so the EPN driver's U/P/Y tables (§4.4 NEW) can use it
// as a plain map/slice key instead of a struct.
type Slot int

type slotKey struct {
	nt  NonTerminalID
	alt int
	dot int
}

// SlotTable interns every reachable dotted position across an IR's
// alternatives, built once alongside the IR and then shared read-only by
// every session's EPN driver.
type SlotTable struct {
	keys []slotKey
	ids  map[slotKey]Slot
}

func newSlotTable(ir *IR) *SlotTable {
	st := &SlotTable{ids: map[slotKey]Slot{}}
	for _, nt := range ir.NonTerminals {
		for _, alt := range nt.Alternatives {
			for dot := 0; dot <= len(alt.Symbols); dot++ {
				k := slotKey{nt: nt.ID, alt: alt.Index, dot: dot}
				st.keys = append(st.keys, k)
				st.ids[k] = Slot(len(st.keys) - 1)
			}
		}
	}
	return st
}

// Intern returns the Slot for (nt, alt, dot), interning it if unseen. Build
// pre-populates every slot an IR can reach, so lookups during parsing never
// need to intern; Intern exists mainly for tests and tooling.
func (st *SlotTable) Intern(nt NonTerminalID, alt, dot int) Slot {
	k := slotKey{nt: nt, alt: alt, dot: dot}
	if id, ok := st.ids[k]; ok {
		return id
	}
	st.keys = append(st.keys, k)
	id := Slot(len(st.keys) - 1)
	st.ids[k] = id
	return id
}

// NonTerminal, Alt, Dot decompose a Slot back to its constituent parts.
func (st *SlotTable) NonTerminal(s Slot) NonTerminalID { return st.keys[s].nt }
func (st *SlotTable) Alt(s Slot) int                   { return st.keys[s].alt }
func (st *SlotTable) Dot(s Slot) int                   { return st.keys[s].dot }

// AtEnd reports whether the slot's dot has reached the end of its
// alternative's symbol sequence (a completed item, §4.4).
func (st *SlotTable) AtEnd(ir *IR, s Slot) bool {
	k := st.keys[s]
	nt := ir.NonTerminals[k.nt]
	alt := nt.Alternatives[k.alt]
	return k.dot >= len(alt.Symbols)
}

// NextSymbol returns the symbol immediately after the dot, and false if the
// slot is already at the end.
func (st *SlotTable) NextSymbol(ir *IR, s Slot) (Symbol, bool) {
	k := st.keys[s]
	nt := ir.NonTerminals[k.nt]
	alt := nt.Alternatives[k.alt]
	if k.dot >= len(alt.Symbols) {
		return Symbol{}, false
	}
	return alt.Symbols[k.dot], true
}

// Advance returns the slot with the dot moved one position to the right.
func (st *SlotTable) Advance(s Slot) Slot {
	k := st.keys[s]
	return st.Intern(k.nt, k.alt, k.dot+1)
}
