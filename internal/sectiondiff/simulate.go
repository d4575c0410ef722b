package sectiondiff

import (
	"cmp"
	"slices"
)

// simEntry is one element of the simulated list
type simEntry[X, K comparable] struct {
	key    K
	origin X // source index, unset for inserted entries
	index  X // current position
	fresh  bool
}

// simulatedTableView replays deletions, insertions and moves on a working
// copy of the old list the way a table widget would. Indexes are positional:
// after every mutation each container is numbered 0..n-1 again.
type simulatedTableView[X, K comparable] struct {
	space   indexSpace[X]
	entries []simEntry[X, K]
	// positions caches key -> entries offset, nil when stale
	positions map[K]int

	// survivors are the old entries left after delete, in source order
	survivors []simEntry[X, K]
	targets   map[K]X
	inserted  map[X]K
}

// newSimulatedTableView projects the old entries into destination container
// space. Entries whose container vanishes are dropped.
func newSimulatedTableView[X, K comparable](sp indexSpace[X], source []simEntry[X, K], targets map[K]X) *simulatedTableView[X, K] {
	entries := make([]simEntry[X, K], 0, len(source))
	for _, e := range source {
		p, ok := sp.project(e.origin)
		if !ok {
			continue
		}
		e.index = p
		entries = append(entries, e)
	}
	slices.SortStableFunc(entries, func(a, b simEntry[X, K]) int {
		return sp.compare(a.index, b.index)
	})
	return &simulatedTableView[X, K]{
		space:   sp,
		entries: entries,
		targets: targets,
	}
}

// delete removes the entries whose source index is in origins
func (tv *simulatedTableView[X, K]) delete(origins map[X]K) {
	tv.entries = slices.DeleteFunc(tv.entries, func(e simEntry[X, K]) bool {
		if e.fresh {
			return false
		}
		_, ok := origins[e.origin]
		return ok
	})
	reindex(tv.space, tv.entries)
	tv.survivors = slices.Clone(tv.entries)
	tv.positions = nil
}

// insert merges new entries, keyed by destination index, in index order.
// Existing entries are shifted by a bumper in a single pass.
func (tv *simulatedTableView[X, K]) insert(items map[X]K) {
	tv.inserted = items
	if len(items) == 0 {
		return
	}
	fresh := make([]simEntry[X, K], 0, len(items))
	for x, k := range items {
		fresh = append(fresh, simEntry[X, K]{key: k, index: x, fresh: true})
	}
	slices.SortFunc(fresh, func(a, b simEntry[X, K]) int {
		return tv.space.compare(a.index, b.index)
	})

	b := newBumper(tv.space)
	merged := make([]simEntry[X, K], 0, len(tv.entries)+len(fresh))
	next := 0
	for _, e := range tv.entries {
		for next < len(fresh) && tv.space.compare(fresh[next].index, b.shift(e.index)) <= 0 {
			b.bump(fresh[next].index)
			merged = append(merged, fresh[next])
			next++
		}
		e.index = b.shift(e.index)
		merged = append(merged, e)
	}
	merged = append(merged, fresh[next:]...)

	// Insertions past the end of a container wait for rows that arrive by move
	reindex(tv.space, merged)
	tv.entries = merged
	tv.positions = nil
}

// position returns the current index of key
func (tv *simulatedTableView[X, K]) position(key K) (X, bool) {
	if tv.positions == nil {
		tv.positions = make(map[K]int, len(tv.entries))
		for i, e := range tv.entries {
			tv.positions[e.key] = i
		}
	}
	i, ok := tv.positions[key]
	if !ok {
		var zero X
		return zero, false
	}
	return tv.entries[i].index, true
}

// move takes key out of its current position and puts it at to
func (tv *simulatedTableView[X, K]) move(key K, to X) {
	if _, ok := tv.position(key); !ok {
		return
	}
	i := tv.positions[key]
	e := tv.entries[i]
	tv.entries = slices.Delete(tv.entries, i, i+1)
	reindex(tv.space, tv.entries)

	j, _ := slices.BinarySearchFunc(tv.entries, to, func(e simEntry[X, K], t X) int {
		return tv.space.compare(e.index, t)
	})
	e.index = to
	tv.entries = slices.Insert(tv.entries, j, e)
	reindex(tv.space, tv.entries)
	tv.positions = nil
}

// filteredMoves decides which candidates are still needed. Candidates are
// applied from the highest impact down so that smaller moves are checked
// against a state close to the final layout; a candidate already sitting at
// its destination is dropped, and so is one that deletions and insertions
// alone carry to its destination.
func (tv *simulatedTableView[X, K]) filteredMoves(candidates []candidate[X, K]) []candidate[X, K] {
	if len(candidates) == 0 {
		return nil
	}
	order := append(slices.Clone(candidates), tv.latent(candidates)...)
	for i := range order {
		order[i].impact = tv.space.impact(order[i].from, order[i].to)
		if at, ok := tv.position(order[i].key); ok && at == order[i].to {
			order[i].redundant = true
		}
	}
	slices.SortStableFunc(order, func(a, b candidate[X, K]) int {
		if c := cmp.Compare(b.impact, a.impact); c != 0 {
			return c
		}
		if c := tv.space.compare(a.from, b.from); c != 0 {
			return c
		}
		return tv.space.compare(a.to, b.to)
	})

	accepted := make([]bool, len(order))
	for i, c := range order {
		if c.redundant || c.latent {
			continue
		}
		if at, ok := tv.position(c.key); ok && at == c.to {
			continue
		}
		tv.move(c.key, c.to)
		accepted[i] = true
	}

	tv.settle(order, accepted)
	tv.prune(order, accepted)

	var moves []candidate[X, K]
	for i, c := range order {
		if accepted[i] {
			moves = append(moves, c)
		}
	}
	return moves
}

// latent returns the survivors that keep their index but are pushed off it
// by the deletions and insertions. They are never moved by the greedy pass;
// settle falls back on them when the layout cannot be reached otherwise.
func (tv *simulatedTableView[X, K]) latent(candidates []candidate[X, K]) []candidate[X, K] {
	listed := make(map[K]struct{}, len(candidates))
	for _, c := range candidates {
		listed[c.key] = struct{}{}
	}
	var out []candidate[X, K]
	for _, e := range tv.survivors {
		if _, ok := listed[e.key]; ok {
			continue
		}
		to, ok := tv.targets[e.key]
		if !ok {
			continue
		}
		if at, ok := tv.position(e.key); ok && at != to {
			out = append(out, candidate[X, K]{key: e.key, from: e.origin, to: to, latent: true})
		}
	}
	return out
}

// misplaced lays out the destination the way a batch update does: inserted
// and moved entries are pinned to their destination and every other survivor
// fills the free slots of its container in source order. It returns the
// survivors that do not land on their destination.
func (tv *simulatedTableView[X, K]) misplaced(order []candidate[X, K], accepted []bool) map[K]struct{} {
	pinned := make(map[X]struct{}, len(tv.inserted)+len(order))
	for x := range tv.inserted {
		pinned[x] = struct{}{}
	}
	moving := make(map[K]struct{})
	for i, c := range order {
		if accepted[i] {
			pinned[c.to] = struct{}{}
			moving[c.key] = struct{}{}
		}
	}

	wrong := make(map[K]struct{})
	next := make(map[int]int)
	for _, e := range tv.survivors {
		if _, ok := moving[e.key]; ok {
			continue
		}
		target, ok := tv.targets[e.key]
		if !ok {
			continue
		}
		c, _ := tv.space.locate(e.index)
		s := next[c]
		for {
			if _, taken := pinned[tv.space.at(c, s)]; !taken {
				break
			}
			s++
		}
		next[c] = s + 1
		if tv.space.at(c, s) != target {
			wrong[e.key] = struct{}{}
		}
	}
	return wrong
}

// settle accepts more candidates until the layout reaches the destination.
// Accepting every candidate that is not redundant always reaches it.
func (tv *simulatedTableView[X, K]) settle(order []candidate[X, K], accepted []bool) {
	for {
		wrong := tv.misplaced(order, accepted)
		if len(wrong) == 0 {
			return
		}
		i := nextPick(order, accepted, wrong)
		if i < 0 {
			return
		}
		accepted[i] = true
	}
}

// nextPick returns the first misplaced candidate in impact order, else the
// first one not yet accepted. Redundant candidates come last.
func nextPick[X, K comparable](order []candidate[X, K], accepted []bool, wrong map[K]struct{}) int {
	for _, redundant := range []bool{false, true} {
		fallback := -1
		for i, c := range order {
			if accepted[i] || c.redundant != redundant {
				continue
			}
			if _, ok := wrong[c.key]; ok {
				return i
			}
			if fallback < 0 {
				fallback = i
			}
		}
		if fallback >= 0 {
			return fallback
		}
	}
	return -1
}

// prune drops accepted moves the layout does not need: redundant ones
// first, then the rest from the smallest impact up
func (tv *simulatedTableView[X, K]) prune(order []candidate[X, K], accepted []bool) {
	for _, redundant := range []bool{true, false} {
		for i := len(order) - 1; i >= 0; i-- {
			if !accepted[i] || order[i].redundant != redundant {
				continue
			}
			accepted[i] = false
			if len(tv.misplaced(order, accepted)) > 0 {
				accepted[i] = true
			}
		}
	}
}

// filterMoves runs the move simulation of one level
func filterMoves[X, K comparable](sp indexSpace[X], raw *rawLevel[X, K]) []candidate[X, K] {
	if len(raw.candidates) == 0 {
		return nil
	}
	tv := newSimulatedTableView(sp, raw.source, raw.targets)
	tv.delete(raw.deletions)
	tv.insert(raw.insertions)
	return tv.filteredMoves(raw.candidates)
}
