package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"AssetGrid-Chain/internal/defi"
	"AssetGrid-Chain/pkg/logger"
)

func main() {
	if err := logger.Init(logger.Config{Level: "info", Format: "text", OutputPaths: []string{"stderr"}}); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	run(context.Background(), os.Stdout)
}

// run 按固定顺序部署策略、执行兑换并优化组合，然后输出业绩摘要。
func run(ctx context.Context, out io.Writer, opts ...defi.Option) {
	agent := defi.NewAgent(opts...)

	targetAPY := 12.5
	agent.DeployYieldStrategy(ctx, defi.StrategyConfig{
		Name:      "ETH Yield Optimizer",
		Protocol:  "aave",
		AssetPair: "ETH/USDC",
		Capital:   decimal.NewNullDecimal(decimal.NewFromInt(50000)),
		TargetAPY: &targetAPY,
	})
	agent.ExecuteDeFiOperation(ctx, "swap", map[string]any{
		"from_token": "USDC",
		"to_token":   "ETH",
		"amount":     10000,
	})
	agent.OptimizePortfolio(ctx)

	metrics := agent.PerformanceMetrics(ctx)
	p := message.NewPrinter(language.English)
	fmt.Fprintln(out, "\n📊 Performance Metrics:")
	p.Fprintf(out, "Total Yield Generated: $%.2f\n", metrics.TotalYieldGenerated)
	p.Fprintf(out, "Average APY: %v%%\n", metrics.AverageAPY)
	fmt.Fprintf(out, "Revenue Potential: %s\n", metrics.RevenuePotential)
}
