package room

import (
	"slices"
	"sync"
)

// Store maps room ids to rooms. Rooms are created on first use.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
	opts  Options
}

// NewStore returns an empty store. Every room it creates uses opts.
func NewStore(opts Options) *Store {
	return &Store{
		rooms: make(map[string]*Room),
		opts:  opts,
	}
}

// GetOrCreate returns the room with id, creating it if needed.
func (s *Store) GetOrCreate(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		r = NewRoom(id, s.opts)
		s.rooms[id] = r
	}
	return r
}

// Get returns the room with id, if it exists.
func (s *Store) Get(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete closes the room and forgets it.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	r, ok := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()
	if ok {
		r.Close()
	}
}

// DeleteIfEmpty removes the room when its last connection is gone.
func (s *Store) DeleteIfEmpty(id string) bool {
	s.mu.Lock()
	r, ok := s.rooms[id]
	if !ok || r.Len() > 0 {
		s.mu.Unlock()
		return false
	}
	delete(s.rooms, id)
	s.mu.Unlock()
	r.Close()
	return true
}

// List returns the ids of all rooms, sorted.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Close closes every room.
func (s *Store) Close() {
	s.mu.Lock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	s.rooms = make(map[string]*Room)
	s.mu.Unlock()
	for _, r := range rooms {
		r.Close()
	}
}
