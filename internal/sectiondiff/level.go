package sectiondiff

import (
	"fmt"
	"slices"
)

// indexed pairs a value with its position in its snapshot
type indexed[X comparable, T any] struct {
	index X
	value T
}

// candidate is an element whose position differs between the snapshots
type candidate[X, K comparable] struct {
	key    K
	from   X
	to     X
	impact int
	// redundant candidates reach their destination through the deletions and
	// insertions alone and are not reported
	redundant bool
	// latent candidates keep their index but the deletions and insertions
	// carry them away from it
	latent bool
}

// rawLevel is the unfiltered difference of one level
type rawLevel[X, K comparable] struct {
	insertions map[X]K
	deletions  map[X]K
	updates    map[K]Update[X]
	candidates []candidate[X, K]
	// targets holds the destination of every element present in both snapshots
	targets map[K]X
	// source lists every old element in source order
	source []simEntry[X, K]
}

// scanLevel pairs old and new elements by identity. It panics when a snapshot
// contains duplicate identifiers or when Diff breaks its contract.
func scanLevel[K comparable, T Element[K, T], X comparable](level string, sp indexSpace[X], old, new []indexed[X, T]) *rawLevel[X, K] {
	raw := &rawLevel[X, K]{
		insertions: make(map[X]K),
		deletions:  make(map[X]K),
		updates:    make(map[K]Update[X]),
		targets:    make(map[K]X),
	}

	byKey := make(map[K]int, len(new))
	for i, n := range new {
		k := n.value.Identifier()
		if _, dup := byKey[k]; dup {
			panic(fmt.Sprintf("sectiondiff: duplicate %s identifier %v in new snapshot", level, k))
		}
		byKey[k] = i
	}

	if len(old) == 0 {
		for _, n := range new {
			raw.insertions[n.index] = n.value.Identifier()
		}
		return raw
	}

	seen := make(map[K]struct{}, len(old))
	raw.source = make([]simEntry[X, K], 0, len(old))
	for _, o := range old {
		k := o.value.Identifier()
		if _, dup := seen[k]; dup {
			panic(fmt.Sprintf("sectiondiff: duplicate %s identifier %v in old snapshot", level, k))
		}
		seen[k] = struct{}{}
		raw.source = append(raw.source, simEntry[X, K]{key: k, origin: o.index, index: o.index})

		i, ok := byKey[k]
		if !ok {
			raw.deletions[o.index] = k
			continue
		}
		n := new[i]
		switch c := n.value.Diff(o.value); c {
		case NeedsUpdate:
			raw.updates[k] = Update[X]{From: o.index, To: n.index}
		case Unchanged:
		default:
			panic(fmt.Sprintf("sectiondiff: %s %v compared %s with its previous version", level, k, c))
		}
		raw.targets[k] = n.index
		if !settled(sp, o.index, n.index) {
			raw.candidates = append(raw.candidates, candidate[X, K]{key: k, from: o.index, to: n.index})
		}
	}

	for _, n := range new {
		k := n.value.Identifier()
		if _, ok := seen[k]; !ok {
			raw.insertions[n.index] = k
		}
	}
	return raw
}

// suppress turns moves touching suppressed positions into a deletion plus an insertion
func (raw *rawLevel[X, K]) suppress(s Suppression[X]) {
	if len(s.Sources) == 0 && len(s.Destinations) == 0 {
		return
	}
	raw.candidates = slices.DeleteFunc(raw.candidates, func(c candidate[X, K]) bool {
		if !s.matches(c.from, c.to) {
			return false
		}
		raw.deletions[c.from] = c.key
		raw.insertions[c.to] = c.key
		delete(raw.updates, c.key)
		delete(raw.targets, c.key)
		return true
	})
}

// assemble builds the final level difference from the filtered moves
func assemble[X, K comparable](sp indexSpace[X], raw *rawLevel[X, K], moves []candidate[X, K]) CollectionDifference[X] {
	var d CollectionDifference[X]
	for x := range raw.insertions {
		d.Insertions = append(d.Insertions, x)
	}
	slices.SortFunc(d.Insertions, sp.compare)
	for x := range raw.deletions {
		d.Deletions = append(d.Deletions, x)
	}
	slices.SortFunc(d.Deletions, sp.compare)

	moved := make(map[K]struct{}, len(moves))
	for _, m := range moves {
		_, updated := raw.updates[m.key]
		d.Moves = append(d.Moves, Move[X]{From: m.from, To: m.to, Updated: updated})
		moved[m.key] = struct{}{}
	}
	slices.SortFunc(d.Moves, func(a, b Move[X]) int {
		return sp.compare(a.From, b.From)
	})

	for k, u := range raw.updates {
		if _, ok := moved[k]; ok {
			continue
		}
		d.Updates = append(d.Updates, u)
	}
	slices.SortFunc(d.Updates, func(a, b Update[X]) int {
		return sp.compare(a.From, b.From)
	})
	return d
}
