package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"AssetGrid-Chain/internal/config"
	"AssetGrid-Chain/internal/defi"
	xerrors "AssetGrid-Chain/internal/errors"
)

type fakeAgent struct {
	mu        sync.Mutex
	optimized int
	monitored [][]string
}

func (f *fakeAgent) OptimizePortfolio(context.Context) defi.OptimizationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optimized++
	return defi.OptimizationResult{StrategiesAnalyzed: 1}
}

func (f *fakeAgent) MonitorSmartContracts(_ context.Context, addresses []string) defi.MonitoringResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monitored = append(f.monitored, addresses)
	return defi.MonitoringResult{ContractsMonitored: len(addresses)}
}

func (f *fakeAgent) optimizeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.optimized
}

func quietLogger() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewRejectsInvalidSchedule(t *testing.T) {
	_, err := New(config.AutomationConfig{OptimizeSchedule: "every tuesday"}, &fakeAgent{}, quietLogger())
	if xerrors.CodeOf(err) != xerrors.CodeConfigFailure {
		t.Fatalf("expected config failure, got %v", err)
	}
	if _, err := New(config.AutomationConfig{}, nil); err == nil {
		t.Fatalf("expected error without agent")
	}
}

func TestEmptySchedulesDisableJobs(t *testing.T) {
	runner, err := New(config.AutomationConfig{}, &fakeAgent{}, quietLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if runner.Jobs() != 0 {
		t.Fatalf("expected no jobs, got %d", runner.Jobs())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected start result: %v", err)
	}
}

func TestJobsCallAgent(t *testing.T) {
	agent := &fakeAgent{}
	runner, err := New(config.AutomationConfig{
		OptimizeSchedule: "@every 1h",
		MonitorSchedule:  "0 */5 * * * *",
		WatchAddresses:   []string{"0xabc", "0xdef"},
	}, agent, quietLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if runner.Jobs() != 2 {
		t.Fatalf("expected 2 jobs, got %d", runner.Jobs())
	}

	runner.optimize(context.Background())
	runner.monitor(context.Background())

	if agent.optimized != 1 {
		t.Fatalf("expected one optimization, got %d", agent.optimized)
	}
	if len(agent.monitored) != 1 || len(agent.monitored[0]) != 2 || agent.monitored[0][1] != "0xdef" {
		t.Fatalf("unexpected monitored addresses: %v", agent.monitored)
	}
}

func TestRunnerFiresScheduledJob(t *testing.T) {
	agent := &fakeAgent{}
	runner, err := New(config.AutomationConfig{OptimizeSchedule: "@every 1s"}, agent, quietLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Start(ctx) }()

	deadline := time.After(5 * time.Second)
	for agent.optimizeCount() == 0 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("scheduled job did not fire")
		case <-time.After(50 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected start result: %v", err)
	}
}
