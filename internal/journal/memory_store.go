package journal

import (
	"context"
	"sort"
	"sync"
	"time"

	xerrors "AssetGrid-Chain/internal/errors"
)

// MemoryStore 以内存方式保存动作记录，是默认的存储实现。
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	seq     map[string]uint64
	next    uint64
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		seq:     make(map[string]uint64),
	}
}

// Append 实现 Store 接口。
func (m *MemoryStore) Append(_ context.Context, entry *Entry) error {
	if entry == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "entry 不能为空")
	}
	if entry.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "记录 ID 不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; ok {
		return ErrEntryConflict
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}
	m.next++
	m.entries[entry.ID] = cloneEntry(entry)
	m.seq[entry.ID] = m.next
	return nil
}

// Get 返回指定记录。
func (m *MemoryStore) Get(_ context.Context, id string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return cloneEntry(entry), nil
}

// List 返回符合过滤条件的记录，相同时间戳按写入顺序排列。
func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts.applyDefaults()

	results := make([]*Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		if opts.matches(entry) {
			results = append(results, entry)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.CreatedAt == b.CreatedAt {
			if opts.Order == SortByCreatedAsc {
				return m.seq[a.ID] < m.seq[b.ID]
			}
			return m.seq[a.ID] > m.seq[b.ID]
		}
		if opts.Order == SortByCreatedAsc {
			return a.CreatedAt < b.CreatedAt
		}
		return a.CreatedAt > b.CreatedAt
	})

	if opts.Offset >= len(results) {
		return []*Entry{}, nil
	}
	results = results[opts.Offset:]
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	cloned := make([]*Entry, 0, len(results))
	for _, entry := range results {
		cloned = append(cloned, cloneEntry(entry))
	}
	return cloned, nil
}

// Stats 统计符合过滤条件的记录，分页参数不参与统计。
func (m *MemoryStore) Stats(_ context.Context, opts ListOptions) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts.applyDefaults()

	stats := newStats()
	for _, entry := range m.entries {
		if !opts.matches(entry) {
			continue
		}
		stats.Total++
		stats.ByComponent[entry.Component]++
		stats.ByAction[entry.Action]++
		if entry.CreatedAt > stats.NewestCreatedAt {
			stats.NewestCreatedAt = entry.CreatedAt
		}
		if stats.OldestCreatedAt == 0 || entry.CreatedAt < stats.OldestCreatedAt {
			stats.OldestCreatedAt = entry.CreatedAt
		}
	}
	return stats, nil
}

// Close 对内存存储无需操作。
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
