package neat

// connectionKey identifies a structural mutation by its endpoints.
type connectionKey struct {
	From int
	To   int
}

// InnovationTracker hands out historical markers for new connection genes.
//
// The counter is monotonic over a whole run. The memo of (from, to) pairs is
// cleared once per generation by NewGeneration, so identical edges discovered
// independently in the same generation share a number while the same edge found
// in a later generation may receive a fresh one.
//
// An InnovationTracker is not safe for concurrent use. The Evolver only touches
// it during reproduction, never while genomes are evaluated.
type InnovationTracker struct {
	next int
	memo map[connectionKey]int
}

// NewInnovationTracker creates a tracker whose first new innovation is next.
func NewInnovationTracker(next int) *InnovationTracker {
	return &InnovationTracker{
		next: next,
		memo: make(map[connectionKey]int),
	}
}

// Innovation looks up or creates the innovation number for a from->to edge
// introduced during the current generation.
func (t *InnovationTracker) Innovation(from, to int) int {
	key := connectionKey{From: from, To: to}
	if inn, ok := t.memo[key]; ok {
		return inn
	}
	inn := t.next
	t.next++
	t.memo[key] = inn
	return inn
}

// NewGeneration forgets the structural mutations memoised so far.
func (t *InnovationTracker) NewGeneration() {
	clear(t.memo)
}

// Next returns the innovation number the next new structure will receive.
func (t *InnovationTracker) Next() int {
	return t.next
}

// Len reports how many structures were registered in the current generation.
func (t *InnovationTracker) Len() int {
	return len(t.memo)
}
