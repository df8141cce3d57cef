// Package dedupe holds the set of composite ids already present at the
// destination, used to filter uploads for idempotency.
package dedupe

// Set answers whether a composite id has already been uploaded. It is
// seeded once per run from the destination's paginated export and never
// mutated afterwards; the remote platform stays the system of record.
type Set interface {
	// Seen reports whether id already exists at the destination.
	Seen(id string) bool

	// Size returns the number of known ids.
	Size() int
}

type idSet struct {
	ids map[string]struct{}
}

// NewSet builds a Set from the ids collected by the dedup resolver.
// Duplicate and empty ids are tolerated.
func NewSet(ids []string) Set {
	s := &idSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id == "" {
			continue
		}
		s.ids[id] = struct{}{}
	}
	return s
}

func (s *idSet) Seen(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *idSet) Size() int {
	return len(s.ids)
}
