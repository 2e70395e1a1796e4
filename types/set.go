package types

// Set is a generic hash set. The zero value is not usable; construct with
// NewSet.
type Set[T comparable] struct {
	hash map[T]struct{}
}

func NewSet[T comparable](items ...T) *Set[T] {
	set := &Set[T]{
		hash: make(map[T]struct{}),
	}
	set.Insert(items...)
	return set
}

func (s *Set[T]) Insert(items ...T) {
	for _, item := range items {
		s.hash[item] = struct{}{}
	}
}

// InsertOnce inserts item and reports whether it was absent before the call.
func (s *Set[T]) InsertOnce(item T) bool {
	if _, found := s.hash[item]; found {
		return false
	}
	s.hash[item] = struct{}{}
	return true
}

func (s *Set[T]) Exists(item T) bool {
	_, found := s.hash[item]
	return found
}

func (s *Set[T]) Remove(item T) {
	delete(s.hash, item)
}

func (s *Set[T]) Len() int {
	return len(s.hash)
}

func (s *Set[T]) Array() []T {
	items := make([]T, 0, len(s.hash))
	for item := range s.hash {
		items = append(items, item)
	}
	return items
}
