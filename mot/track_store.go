package mot

// trackStore keeps tracks keyed by identifier and remembers insertion order.
// Association visits tracks in that order, so results are reproducible.
type trackStore struct {
	objects map[int]*Track
	order   []int
}

func newTrackStore() *trackStore {
	return &trackStore{
		objects: make(map[int]*Track),
		order:   make([]int, 0, 16),
	}
}

func (store *trackStore) add(track *Track) {
	store.objects[track.ID] = track
	store.order = append(store.order, track.ID)
}

func (store *trackStore) get(id int) (*Track, bool) {
	track, ok := store.objects[id]
	return track, ok
}

func (store *trackStore) len() int {
	return len(store.order)
}

// each calls fn for every track in insertion order
func (store *trackStore) each(fn func(track *Track)) {
	for _, id := range store.order {
		fn(store.objects[id])
	}
}

// retain keeps tracks for which keep returns true and returns identifiers of removed ones.
// Surviving order is built as a new slice, the old one is never mutated while iterated.
func (store *trackStore) retain(keep func(track *Track) bool) []int {
	survivors := make([]int, 0, len(store.order))
	var removed []int
	for _, id := range store.order {
		if keep(store.objects[id]) {
			survivors = append(survivors, id)
			continue
		}
		removed = append(removed, id)
		delete(store.objects, id)
	}
	store.order = survivors
	return removed
}

func (store *trackStore) reset() {
	store.objects = make(map[int]*Track)
	store.order = store.order[:0]
}
