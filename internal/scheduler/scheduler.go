// Package scheduler runs the periodic portfolio optimization and contract
// monitoring jobs configured under the automation section.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"AssetGrid-Chain/internal/config"
	"AssetGrid-Chain/internal/defi"
	xerrors "AssetGrid-Chain/internal/errors"
	"AssetGrid-Chain/pkg/logger"
)

// Automation 是定时任务驱动的 DeFi 能力。
type Automation interface {
	OptimizePortfolio(ctx context.Context) defi.OptimizationResult
	MonitorSmartContracts(ctx context.Context, addresses []string) defi.MonitoringResult
}

// 支持可选秒字段与 @every 等描述符。
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Runner 基于 cron 表达式调度自动化任务。
type Runner struct {
	cron      *cron.Cron
	agent     Automation
	addresses []string
	logger    *slog.Logger
	jobs      int
}

// Option 定义可选配置。
type Option func(*Runner)

// WithLogger 指定日志输出。
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New 按配置注册任务，表达式为空的任务不启用，表达式非法时返回错误。
func New(cfg config.AutomationConfig, agent Automation, opts ...Option) (*Runner, error) {
	if agent == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置自动化执行者")
	}
	r := &Runner{
		agent:     agent,
		addresses: append([]string(nil), cfg.WatchAddresses...),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.logger == nil {
		r.logger = logger.Named("scheduler")
	}

	cronLogger := slogAdapter{logger: r.logger}
	r.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if err := r.add("optimize_portfolio", cfg.OptimizeSchedule, r.optimize); err != nil {
		return nil, err
	}
	if err := r.add("monitor_contracts", cfg.MonitorSchedule, r.monitor); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) add(name, spec string, job func(context.Context)) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		r.logger.Debug("定时任务未启用", slog.String("job", name))
		return nil
	}
	schedule, err := parser.Parse(spec)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeConfigFailure, err, fmt.Sprintf("定时任务 %s 的表达式无效", name),
			xerrors.WithMetadata("spec", spec))
	}
	r.cron.Schedule(schedule, cron.FuncJob(func() {
		job(context.Background())
	}))
	r.jobs++
	r.logger.Info("定时任务已注册", slog.String("job", name), slog.String("spec", spec))
	return nil
}

// Jobs 返回已启用的任务数量。
func (r *Runner) Jobs() int {
	return r.jobs
}

// Start 启动调度并阻塞到 ctx 结束，返回前等待正在执行的任务完成。
func (r *Runner) Start(ctx context.Context) error {
	if r.jobs == 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	r.cron.Start()
	r.logger.Info("调度器已启动", slog.Int("jobs", r.jobs))
	<-ctx.Done()
	stopped := r.cron.Stop()
	<-stopped.Done()
	r.logger.Info("调度器已停止")
	return ctx.Err()
}

func (r *Runner) optimize(ctx context.Context) {
	result := r.agent.OptimizePortfolio(ctx)
	r.logger.Info("定时组合优化完成",
		slog.Int("strategies_analyzed", result.StrategiesAnalyzed),
		slog.String("revenue_impact", result.RevenueImpact.String()),
	)
}

func (r *Runner) monitor(ctx context.Context) {
	result := r.agent.MonitorSmartContracts(ctx, r.addresses)
	r.logger.Info("定时合约监控完成",
		slog.Int("contracts_monitored", result.ContractsMonitored),
		slog.Int("opportunities_found", result.OpportunitiesFound),
	)
}

// slogAdapter 让 cron 的内部日志输出到 slog。
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, append([]interface{}{slog.Any("error", err)}, keysAndValues...)...)
}
