package journal

import "context"

// Store 抽象了动作记录的持久化接口。
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, opts ListOptions) ([]*Entry, error)
	Stats(ctx context.Context, opts ListOptions) (Stats, error)
	Close() error
}
