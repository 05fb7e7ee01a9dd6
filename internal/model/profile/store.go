package profile

// Store exposes profile retrieval for handlers and providers.
type Store interface {
	List() []Profile
	FindByID(id string) (Profile, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Profile
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied profiles.
func NewMemoryStore(items []Profile) *MemoryStore {
	return &MemoryStore{items: append([]Profile(nil), items...)}
}

// List returns every known profile.
func (s *MemoryStore) List() []Profile {
	return append([]Profile(nil), s.items...)
}

// FindByID looks up a profile by identifier.
func (s *MemoryStore) FindByID(id string) (Profile, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Profile{}, false
}

// Assistant returns the assistant profile, falling back to the seeded one.
func Assistant(s Store) Profile {
	if s != nil {
		if p, ok := s.FindByID(AssistantID); ok {
			return p
		}
	}
	for _, p := range Seed() {
		if p.ID == AssistantID {
			return p
		}
	}
	return Profile{}
}
