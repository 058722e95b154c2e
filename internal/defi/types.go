package defi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status 表示策略状态，目前只有 active。
type Status string

const StatusActive Status = "active"

// 结果状态，所有操作都会返回 success。
const ResultSuccess = "success"

// 默认策略参数。
const (
	DefaultStrategyName = "Unnamed Strategy"
	DefaultProtocol     = "uniswap"
	DefaultAssetPair    = "ETH/USDC"
	DefaultTargetAPY    = 12.0
)

// 模拟收益与展示用的固定数值。
var (
	DefaultCapital         = decimal.NewFromInt(10000)
	OperationGasFee        = decimal.RequireFromString("0.005") // ETH
	OperationRevenue       = decimal.NewFromInt(1000)
	OptimizationRevenue    = decimal.NewFromInt(2500)
	GasOptimizationSavings = decimal.NewFromInt(150)
)

const (
	ExpectedAPYIncrease = 3.5
	OpportunitiesFound  = 3
	RisksDetected       = 0
	AverageAPY          = 15.5
	RevenuePotential    = "$4M+ annually"
)

// ActiveProtocols 是指标快照中展示的协议列表。
var ActiveProtocols = []string{"uniswap", "aave", "compound", "curve"}

// StrategyConfig 描述部署策略时的可选参数，未填写的字段使用默认值。
type StrategyConfig struct {
	Name      string              `json:"name,omitempty"`
	Protocol  string              `json:"protocol,omitempty"`
	AssetPair string              `json:"asset_pair,omitempty"`
	Capital   decimal.NullDecimal `json:"capital"`
	TargetAPY *float64            `json:"target_apy,omitempty"`
}

// Strategy 是一个已部署的收益策略记录，部署后不再变更。
type Strategy struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Protocol       string          `json:"protocol"`
	AssetPair      string          `json:"asset_pair"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	TargetAPY      float64         `json:"target_apy"`
	Status         Status          `json:"status"`
	DeployedAt     time.Time       `json:"deployed_at"`
}

// OperationResult 描述一次 DeFi 操作（swap、stake 等）的结果。
type OperationResult struct {
	Operation     string          `json:"operation"`
	Status        string          `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
	Params        map[string]any  `json:"params"`
	GasFee        decimal.Decimal `json:"gas_fee"`
	RevenueImpact decimal.Decimal `json:"revenue_impact"`
}

// Recommendation 是组合优化给出的单条建议。
type Recommendation struct {
	Action     string `json:"action"`
	Protocol   string `json:"protocol"`
	Allocation string `json:"allocation"`
}

// OptimizationResult 是组合优化的结果。
type OptimizationResult struct {
	Timestamp           time.Time        `json:"timestamp"`
	StrategiesAnalyzed  int              `json:"strategies_analyzed"`
	Recommendations     []Recommendation `json:"recommendations"`
	ExpectedAPYIncrease float64          `json:"expected_apy_increase"`
	RevenueImpact       decimal.Decimal  `json:"revenue_impact"`
}

// MonitoringResult 是合约监控的结果。
type MonitoringResult struct {
	Timestamp              time.Time       `json:"timestamp"`
	ContractsMonitored     int             `json:"contracts_monitored"`
	OpportunitiesFound     int             `json:"opportunities_found"`
	RisksDetected          int             `json:"risks_detected"`
	GasOptimizationSavings decimal.Decimal `json:"gas_optimization_savings"`
	Alerts                 []string        `json:"alerts"`
}

// PerformanceMetrics 是 Agent 当前的绩效快照。
type PerformanceMetrics struct {
	TotalStrategies     int      `json:"total_strategies"`
	PortfolioValue      float64  `json:"portfolio_value"`
	TotalYieldGenerated float64  `json:"total_yield_generated"`
	AverageAPY          float64  `json:"average_apy"`
	ActiveProtocols     []string `json:"active_protocols"`
	RevenuePotential    string   `json:"revenue_potential"`
}

func defaultRecommendations() []Recommendation {
	return []Recommendation{
		{Action: "rebalance", Protocol: "aave", Allocation: "30%"},
		{Action: "stake", Protocol: "compound", Allocation: "25%"},
		{Action: "provide_liquidity", Protocol: "uniswap", Allocation: "45%"},
	}
}

func cloneParams(params map[string]any) map[string]any {
	cloned := make(map[string]any, len(params))
	for key, value := range params {
		cloned[key] = value
	}
	return cloned
}
