package arbor

// pendingRemoval is a staged removal along with its resolved release decision.
type pendingRemoval[T comparable] struct {
	item    T
	release bool
}

// deferredList is an ordered collection whose structural changes are staged
// and applied only by collect. Iterating live while callbacks add or remove
// items never observes a half-applied mutation.
type deferredList[T comparable] struct {
	live    []T
	adds    []T
	removes []pendingRemoval[T]

	// order, when non-nil, positions merged items: a new item is inserted
	// before the first live item whose order exceeds its own, else appended.
	order func(T) int
}

func (l *deferredList[T]) indexLive(item T) int {
	for i, v := range l.live {
		if v == item {
			return i
		}
	}
	return -1
}

func (l *deferredList[T]) indexAdd(item T) int {
	for i, v := range l.adds {
		if v == item {
			return i
		}
	}
	return -1
}

func (l *deferredList[T]) indexRemove(item T) int {
	for i, r := range l.removes {
		if r.item == item {
			return i
		}
	}
	return -1
}

// add stages item for insertion. Returns false if item is already live or
// already staged. Adding an item that is staged for removal cancels the
// removal instead.
func (l *deferredList[T]) add(item T) bool {
	if i := l.indexRemove(item); i >= 0 {
		l.removes = append(l.removes[:i], l.removes[i+1:]...)
		return true
	}
	if l.indexLive(item) >= 0 || l.indexAdd(item) >= 0 {
		return false
	}
	l.adds = append(l.adds, item)
	return true
}

// remove stages item for removal with the given release decision. A staged
// add is dropped immediately; ok reports whether item was known at all and
// staged reports whether the removal still awaits collect.
func (l *deferredList[T]) remove(item T, release bool) (ok, staged bool) {
	if i := l.indexAdd(item); i >= 0 {
		l.adds = append(l.adds[:i], l.adds[i+1:]...)
		return true, false
	}
	if l.indexRemove(item) >= 0 || l.indexLive(item) < 0 {
		return false, false
	}
	l.removes = append(l.removes, pendingRemoval[T]{item: item, release: release})
	return true, true
}

// isLive reports whether item is in the live collection and not staged for
// removal.
func (l *deferredList[T]) isLive(item T) bool {
	return l.indexLive(item) >= 0 && l.indexRemove(item) < 0
}

// isPendingAdd reports whether item is staged for insertion.
func (l *deferredList[T]) isPendingAdd(item T) bool {
	return l.indexAdd(item) >= 0
}

// pending reports whether collect has work to do.
func (l *deferredList[T]) pending() bool {
	return len(l.adds) > 0 || len(l.removes) > 0
}

// collect merges staged adds into live, then erases staged removals.
// onAdd runs for each merged item, onRemove for each erased item with its
// release decision. Both callbacks may stage further changes; those are
// left for the next collect.
func (l *deferredList[T]) collect(onAdd func(T), onRemove func(T, bool)) bool {
	if !l.pending() {
		return false
	}
	adds := l.adds
	removes := l.removes
	l.adds = nil
	l.removes = nil

	for _, item := range adds {
		l.insertLive(item)
	}
	for _, r := range removes {
		if i := l.indexLive(r.item); i >= 0 {
			copy(l.live[i:], l.live[i+1:])
			var zero T
			l.live[len(l.live)-1] = zero
			l.live = l.live[:len(l.live)-1]
		}
	}

	if onAdd != nil {
		for _, item := range adds {
			onAdd(item)
		}
	}
	if onRemove != nil {
		for _, r := range removes {
			onRemove(r.item, r.release)
		}
	}
	return true
}

func (l *deferredList[T]) insertLive(item T) {
	if l.order == nil {
		l.live = append(l.live, item)
		return
	}
	o := l.order(item)
	for i, v := range l.live {
		if l.order(v) > o {
			var zero T
			l.live = append(l.live, zero)
			copy(l.live[i+1:], l.live[i:])
			l.live[i] = item
			return
		}
	}
	l.live = append(l.live, item)
}
