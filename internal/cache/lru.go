package cache

// recency orders keys from most to least recently used. It is a circular
// list threaded through a sentinel, so insertion and unlinking never
// special-case an empty list.
type recency[K comparable] struct {
	root slot[K]
	n    int
}

type slot[K comparable] struct {
	key          K
	newer, older *slot[K]
}

func newRecency[K comparable]() *recency[K] {
	r := &recency[K]{}
	r.reset()
	return r
}

func (r *recency[K]) reset() {
	r.root.newer = &r.root
	r.root.older = &r.root
	r.n = 0
}

// touch inserts key as the newest slot.
func (r *recency[K]) touch(key K) *slot[K] {
	s := &slot[K]{key: key}
	r.link(s)
	r.n++
	return s
}

// promote marks s as the newest slot.
func (r *recency[K]) promote(s *slot[K]) {
	if r.root.older == s {
		return
	}
	s.newer.older = s.older
	s.older.newer = s.newer
	r.link(s)
}

// drop unlinks s.
func (r *recency[K]) drop(s *slot[K]) {
	s.newer.older = s.older
	s.older.newer = s.newer
	s.newer, s.older = nil, nil
	r.n--
}

// stalest returns the least recently used slot, nil when empty.
func (r *recency[K]) stalest() *slot[K] {
	if r.n == 0 {
		return nil
	}
	return r.root.newer
}

// link places s between the root and the current newest slot.
func (r *recency[K]) link(s *slot[K]) {
	s.newer = &r.root
	s.older = r.root.older
	r.root.older.newer = s
	r.root.older = s
}
