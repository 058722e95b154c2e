package journal

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	xerrors "AssetGrid-Chain/internal/errors"
	"AssetGrid-Chain/internal/observability/alerting"
	"AssetGrid-Chain/pkg/logger"
)

// Recorder 把组件动作写入 Store，并在配置了 Producer 时投递记录 ID。
type Recorder struct {
	store    Store
	producer Producer
	alerter  alerting.Dispatcher
	now      func() time.Time
	logger   *slog.Logger
}

// RecorderOption 定义可选配置。
type RecorderOption func(*Recorder)

// WithProducer 配置记录投递的队列。
func WithProducer(producer Producer) RecorderOption {
	return func(r *Recorder) {
		r.producer = producer
	}
}

// WithAlertDispatcher 配置投递失败时的告警派发器。
func WithAlertDispatcher(dispatcher alerting.Dispatcher) RecorderOption {
	return func(r *Recorder) {
		r.alerter = dispatcher
	}
}

// WithRecorderLogger 指定日志输出。
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRecorderClock 替换时间来源。
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRecorder 构造 Recorder。
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.logger == nil {
		r.logger = logger.Named("journal")
	}
	return r
}

// Record 追加一条动作记录。payload 以 JSON 保存，投递失败时记录已经落库。
// 错误只返回给调用方，由调用方决定是否记录日志。
func (r *Recorder) Record(ctx context.Context, component, action, refID string, payload any) error {
	if r == nil || r.store == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "动作记录器未初始化")
	}
	if component == "" || action == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "component 与 action 不能为空")
	}

	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return xerrors.Wrap(CodeEncodeFailed, err, "编码动作记录失败",
				xerrors.WithMetadata("component", component),
				xerrors.WithMetadata("action", action))
		}
		raw = encoded
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		Component: component,
		Action:    action,
		RefID:     refID,
		Payload:   raw,
		CreatedAt: r.now().Unix(),
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return err
	}
	if r.producer == nil {
		return nil
	}
	if err := r.producer.Publish(ctx, entry.ID); err != nil {
		wrapped := xerrors.Wrap(CodePublishFailed, err, "发布动作记录到队列失败",
			xerrors.WithMetadata("entry_id", entry.ID))
		r.emitAlert(ctx, wrapped, entry)
		return wrapped
	}
	return nil
}

func (r *Recorder) emitAlert(ctx context.Context, err error, entry *Entry) {
	if r.alerter == nil || !xerrors.ShouldAlert(err) {
		return
	}
	event := alerting.EventFromError(err, entry.Component, entry.Action, entry.ID)
	if notifyErr := r.alerter.Notify(ctx, event); notifyErr != nil {
		r.logger.Error("告警通知失败", slog.Any("error", notifyErr), slog.String("entry_id", entry.ID))
	}
}

// Get 返回指定记录。
func (r *Recorder) Get(ctx context.Context, id string) (*Entry, error) {
	if r == nil || r.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "动作记录存储未初始化")
	}
	return r.store.Get(ctx, id)
}

// List 返回符合过滤条件的记录列表。
func (r *Recorder) List(ctx context.Context, opts ...ListOption) ([]*Entry, error) {
	if r == nil || r.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "动作记录存储未初始化")
	}
	return r.store.List(ctx, BuildListOptions(opts...))
}

// Stats 返回符合过滤条件的统计信息。
func (r *Recorder) Stats(ctx context.Context, opts ...ListOption) (Stats, error) {
	if r == nil || r.store == nil {
		return Stats{}, xerrors.New(xerrors.CodeInitializationFailure, "动作记录存储未初始化")
	}
	return r.store.Stats(ctx, BuildListOptions(opts...))
}

// Close 释放存储与队列。
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			return err
		}
	}
	if r.producer != nil {
		return r.producer.Close()
	}
	return nil
}
