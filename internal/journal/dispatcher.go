package journal

import (
	"context"
	stdErrors "errors"
	"log/slog"

	xerrors "AssetGrid-Chain/internal/errors"
	"AssetGrid-Chain/pkg/logger"
)

// Observer 接收已分发记录的计数。
type Observer interface {
	ObserveComponentAction(component, action string)
}

// EntryHandler 对每条已分发的记录执行额外处理。
type EntryHandler func(ctx context.Context, entry *Entry) error

// Dispatcher 从队列消费记录 ID，写审计日志、累计指标并调用处理函数。
type Dispatcher struct {
	store       Store
	consumer    Consumer
	workerCount int
	logger      *slog.Logger
	observer    Observer
	handlers    []EntryHandler
}

// DispatcherOption 定义可选配置。
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger 指定日志输出。
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithWorkerCount 设置消费协程数量。
func WithWorkerCount(workers int) DispatcherOption {
	return func(d *Dispatcher) {
		if workers > 0 {
			d.workerCount = workers
		}
	}
}

// WithObserver 配置指标观察者。
func WithObserver(observer Observer) DispatcherOption {
	return func(d *Dispatcher) {
		d.observer = observer
	}
}

// WithEntryHandler 追加一个记录处理函数。
func WithEntryHandler(handler EntryHandler) DispatcherOption {
	return func(d *Dispatcher) {
		if handler != nil {
			d.handlers = append(d.handlers, handler)
		}
	}
}

// NewDispatcher 构造 Dispatcher。
func NewDispatcher(store Store, consumer Consumer, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:       store,
		consumer:    consumer,
		workerCount: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.logger == nil {
		d.logger = logger.Named("journal")
	}
	return d
}

// Start 阻塞消费队列直到 ctx 结束。
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.consumer == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "未配置动作记录消费者")
	}
	if d.store == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "未配置动作记录存储")
	}
	return d.consumer.Consume(ctx, d.workerCount, d.handle)
}

func (d *Dispatcher) handle(ctx context.Context, entryID string) error {
	entry, err := d.store.Get(ctx, entryID)
	if err != nil {
		if stdErrors.Is(err, ErrEntryNotFound) {
			d.logger.Debug("跳过不存在的记录", slog.String("entry_id", entryID))
			return nil
		}
		d.logger.Error("读取动作记录失败", slog.Any("error", err), slog.String("entry_id", entryID))
		return err
	}

	logger.Audit().Info("组件动作",
		slog.String("entry_id", entry.ID),
		slog.String("component", entry.Component),
		slog.String("action", entry.Action),
		slog.String("ref_id", entry.RefID),
		slog.Int64("created_at", entry.CreatedAt),
	)
	if d.observer != nil {
		d.observer.ObserveComponentAction(entry.Component, entry.Action)
	}
	for _, handler := range d.handlers {
		if err := handler(ctx, entry); err != nil {
			d.logger.Warn("记录处理函数执行失败",
				slog.Any("error", err),
				slog.String("entry_id", entry.ID),
				slog.String("component", entry.Component),
			)
		}
	}
	return nil
}
