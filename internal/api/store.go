package api

import "sync"

// VolumeStore keeps the most recent slice results so clients can fetch
// them again by id. The oldest entry is evicted once capacity is reached.
type VolumeStore struct {
	mu       sync.Mutex
	capacity int
	order    []string
	volumes  map[string]VolumeResp
}

func NewVolumeStore(capacity int) *VolumeStore {
	if capacity < 1 {
		capacity = 1
	}
	return &VolumeStore{
		capacity: capacity,
		volumes:  make(map[string]VolumeResp),
	}
}

func (s *VolumeStore) Put(v VolumeResp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.volumes[v.ID]; !ok {
		s.order = append(s.order, v.ID)
	}
	s.volumes[v.ID] = v
	for len(s.order) > s.capacity {
		delete(s.volumes, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *VolumeStore) Get(id string) (VolumeResp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.volumes[id]
	return v, ok
}

func (s *VolumeStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.volumes[id]; !ok {
		return false
	}
	delete(s.volumes, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *VolumeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.volumes)
}
