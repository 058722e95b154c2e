package journal

// Stats 聚合符合过滤条件的记录数量与时间范围。
type Stats struct {
	Total           int            `json:"total"`
	ByComponent     map[string]int `json:"by_component"`
	ByAction        map[string]int `json:"by_action"`
	OldestCreatedAt int64          `json:"oldest_created_at,omitempty"`
	NewestCreatedAt int64          `json:"newest_created_at,omitempty"`
}

func newStats() Stats {
	return Stats{ByComponent: map[string]int{}, ByAction: map[string]int{}}
}
