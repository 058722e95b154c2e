package journal

import "context"

// Handler 处理从队列取出的记录 ID。
type Handler func(ctx context.Context, entryID string) error

// Producer 负责把记录 ID 投递到队列。
type Producer interface {
	Publish(ctx context.Context, entryID string) error
	Close() error
}

// Consumer 负责从队列中消费记录 ID。
type Consumer interface {
	Consume(ctx context.Context, workerCount int, handler Handler) error
	Close() error
}

// Queue 同时具备生产者与消费者能力。
type Queue interface {
	Producer
	Consumer
}
