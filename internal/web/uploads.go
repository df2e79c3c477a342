package web

import (
	"sync"

	"github.com/google/uuid"
)

// upload is the raw content of one accepted file. It is parsed again on every
// page run rather than caching the parsed table.
type upload struct {
	Name string
	Data []byte
}

// uploadStore keeps the latest upload of each browser session in memory.
// Once max entries are held the oldest is evicted.
type uploadStore struct {
	mu    sync.Mutex
	max   int
	items map[string]*upload
	order []string
}

func newUploadStore(max int) *uploadStore {
	if max <= 0 {
		max = 64
	}
	return &uploadStore{max: max, items: make(map[string]*upload)}
}

// Put stores data under a fresh id.
func (s *uploadStore) Put(name string, data []byte) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = &upload{Name: name, Data: data}
	s.order = append(s.order, id)
	for len(s.order) > s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
	return id
}

func (s *uploadStore) Get(id string) (*upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	return u, ok
}

func (s *uploadStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *uploadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
