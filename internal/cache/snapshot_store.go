package cache

import (
	"sync"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"
)

// MemorySnapshotStore giữ snapshot dashboard trong bộ nhớ process.
// Các snapshot được lưu và trả về theo GIÁ TRỊ dưới mutex, nên Put thay thế
// nguyên khối và Get không bao giờ trả về bản ghi đang được ghi dở.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.DashboardSnapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{
		snapshots: make(map[string]domain.DashboardSnapshot),
	}
}

var _ repository.SnapshotStore = (*MemorySnapshotStore)(nil)

func (s *MemorySnapshotStore) Get(key string) (domain.DashboardSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[key]
	return snapshot, ok
}

func (s *MemorySnapshotStore) Put(key string, snapshot domain.DashboardSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = snapshot
}

func (s *MemorySnapshotStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
}

// DeleteOlderThan dọn các snapshot của những ngày trước cutoffDate.
// Khóa ngày dạng YYYY-MM-DD nên so sánh chuỗi là đủ.
func (s *MemorySnapshotStore) DeleteOlderThan(cutoffDate string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for key, snapshot := range s.snapshots {
		if snapshot.Date < cutoffDate {
			delete(s.snapshots, key)
			count++
		}
	}
	return count
}

// Len trả về số snapshot đang giữ, phục vụ log của job dọn dẹp.
func (s *MemorySnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
