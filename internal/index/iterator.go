package index

// ordered is the minimal surface an iterator needs over an index's
// sorted keys: a length and a key accessor by position. Both
// ReadableIndex and WritableIndex implement it so they can share one
// iterator state machine.
type ordered interface {
	Len() int
	KeyAt(pos int) []byte
}

// state is the iterator's position kind (spec.md §4.4 "Iterator state
// machine").
type state int

const (
	stateUnpositioned state = iota
	stateAt
	statePastEnd
	stateBeforeBegin
)

// Iter walks an ordered collection's keys in ascending or descending
// order, holding a strong reference to its source so the source outlives
// it (spec.md §4.4: "The iterator holds a strong reference to its index
// so the index outlives it").
type Iter struct {
	src   ordered
	state state
	pos   int
}

func newIter(src ordered) *Iter {
	return &Iter{src: src, state: stateUnpositioned}
}

// Valid reports whether the iterator is positioned at a real entry.
func (it *Iter) Valid() bool { return it.state == stateAt }

// Pos returns the current position. Valid only when Valid() is true.
func (it *Iter) Pos() int { return it.pos }

// Key returns the key at the current position. Valid only when Valid()
// is true.
func (it *Iter) Key() []byte { return it.src.KeyAt(it.pos) }

// Increment advances the iterator per spec.md §4.4's state table:
// unpositioned/before-begin move to the first entry (or past-end if
// empty); at(i) moves to at(i+1) or past-end; past-end stays put.
func (it *Iter) Increment() {
	switch it.state {
	case stateUnpositioned, stateBeforeBegin:
		if it.src.Len() > 0 {
			it.state, it.pos = stateAt, 0
		} else {
			it.state = statePastEnd
		}
	case stateAt:
		it.pos++
		if it.pos >= it.src.Len() {
			it.state = statePastEnd
		}
	case statePastEnd:
		// stays; per spec.md's table past-end's increment has no listed
		// transition other than "stay".
	}
}

// Decrement moves the iterator backward: unpositioned/past-end move to
// the last entry (or before-begin if empty); at(i) moves to at(i-1) or
// before-begin; before-begin stays put (the decrement-side mirror of
// past-end's increment behavior).
func (it *Iter) Decrement() {
	switch it.state {
	case stateUnpositioned, statePastEnd:
		if it.src.Len() > 0 {
			it.state, it.pos = stateAt, it.src.Len()-1
		} else {
			it.state = stateBeforeBegin
		}
	case stateAt:
		if it.pos == 0 {
			it.state = stateBeforeBegin
		} else {
			it.pos--
		}
	case stateBeforeBegin:
		// stays
	}
}

// SeekLowerBound repositions the iterator to the first entry whose key
// is >= key under cmp (binary search), or past-end if none exists
// (spec.md §4.4: "seekLowerBound(key) → at(lowerBound(k))"). It returns
// whether the entry at that position is an exact match.
func (it *Iter) SeekLowerBound(key []byte, cmp func(a, b []byte) int) bool {
	lo, hi := 0, it.src.Len()
	for lo < hi {
		mid := (lo + hi) / 2
		if cmp(it.src.KeyAt(mid), key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo >= it.src.Len() {
		it.state = statePastEnd
		return false
	}
	it.state, it.pos = stateAt, lo
	return cmp(it.src.KeyAt(lo), key) == 0
}

// SeekExact is an alias for SeekLowerBound: both probes reposition the
// iterator to the key's lower bound and report exact equality (spec.md
// §4.4: "Returned booleans indicate key equality; iterator position is
// updated regardless").
func (it *Iter) SeekExact(key []byte, cmp func(a, b []byte) int) bool {
	return it.SeekLowerBound(key, cmp)
}
