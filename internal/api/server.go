package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"AssetGrid-Chain/internal/contracts"
	"AssetGrid-Chain/internal/defi"
	xerrors "AssetGrid-Chain/internal/errors"
	"AssetGrid-Chain/internal/journal"
	"AssetGrid-Chain/internal/observability/metrics"
	"AssetGrid-Chain/pkg/logger"
)

// DeFiAgent 是 API 所需的 DeFi 自动化能力。
type DeFiAgent interface {
	DeployYieldStrategy(ctx context.Context, cfg defi.StrategyConfig) defi.Strategy
	ExecuteDeFiOperation(ctx context.Context, operation string, params map[string]any) defi.OperationResult
	OptimizePortfolio(ctx context.Context) defi.OptimizationResult
	MonitorSmartContracts(ctx context.Context, addresses []string) defi.MonitoringResult
	PerformanceMetrics(ctx context.Context) defi.PerformanceMetrics
	Strategies(ctx context.Context) []defi.Strategy
	Strategy(ctx context.Context, id string) (defi.Strategy, bool)
}

// ContractIntegration 是 API 所需的合约集成能力。
type ContractIntegration interface {
	DeployContract(ctx context.Context, cfg contracts.ContractConfig) contracts.Contract
	InteractWithContract(ctx context.Context, address, method string, params map[string]any) contracts.InteractionResult
	MonitorBlockchainEvents(ctx context.Context, filters map[string]any) []contracts.Event
	NetworkStatus(ctx context.Context) contracts.NetworkStatus
	Contracts(ctx context.Context) []contracts.Contract
	Contract(ctx context.Context, id string) (contracts.Contract, bool)
}

// JournalReader 提供动作记录的查询能力。
type JournalReader interface {
	Get(ctx context.Context, id string) (*journal.Entry, error)
	List(ctx context.Context, opts ...journal.ListOption) ([]*journal.Entry, error)
	Stats(ctx context.Context, opts ...journal.ListOption) (journal.Stats, error)
}

// Server 负责暴露 REST 接口。
type Server struct {
	addr            string
	defi            DeFiAgent
	contracts       ContractIntegration
	journal         JournalReader
	metrics         *metrics.Registry
	metricsPath     string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// Option 定义可选的 Server 配置。
type Option func(*Server)

// WithDeFiAgent 挂载 DeFi 路由。
func WithDeFiAgent(agent DeFiAgent) Option {
	return func(s *Server) {
		s.defi = agent
	}
}

// WithContracts 挂载合约路由。
func WithContracts(integration ContractIntegration) Option {
	return func(s *Server) {
		s.contracts = integration
	}
}

// WithJournal 挂载动作记录查询路由。
func WithJournal(reader JournalReader) Option {
	return func(s *Server) {
		s.journal = reader
	}
}

// WithMetrics 为每个路由记录请求指标，并在 path 上暴露指标。
func WithMetrics(registry *metrics.Registry, path string) Option {
	return func(s *Server) {
		s.metrics = registry
		if path != "" {
			s.metricsPath = path
		}
	}
}

// WithTimeouts 设置读写超时与优雅关闭的等待时间，非正值保持默认。
func WithTimeouts(read, write, shutdown time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.readTimeout = read
		}
		if write > 0 {
			s.writeTimeout = write
		}
		if shutdown > 0 {
			s.shutdownTimeout = shutdown
		}
	}
}

// WithLogger 指定日志输出。
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, opts ...Option) *Server {
	s := &Server{
		addr:            addr,
		metricsPath:     "/metrics",
		readTimeout:     15 * time.Second,
		writeTimeout:    15 * time.Second,
		shutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	return s
}

// Handler 返回注册了全部路由的处理器。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "/healthz", "healthz", s.handleHealth)

	if s.defi != nil {
		s.handle(mux, "/api/v1/defi/strategies", "defi_strategies", s.handleStrategies)
		s.handle(mux, "/api/v1/defi/strategies/", "defi_strategy_detail", s.handleStrategyDetail)
		s.handle(mux, "/api/v1/defi/operations", "defi_operations", s.handleOperations)
		s.handle(mux, "/api/v1/defi/optimize", "defi_optimize", s.handleOptimize)
		s.handle(mux, "/api/v1/defi/monitor", "defi_monitor", s.handleMonitor)
		s.handle(mux, "/api/v1/defi/metrics", "defi_metrics", s.handlePerformance)
	}
	if s.contracts != nil {
		s.handle(mux, "/api/v1/contracts", "contracts", s.handleContracts)
		s.handle(mux, "/api/v1/contracts/", "contract_detail", s.handleContractDetail)
		s.handle(mux, "/api/v1/contracts/interact", "contracts_interact", s.handleInteract)
		s.handle(mux, "/api/v1/contracts/events", "contracts_events", s.handleEvents)
		s.handle(mux, "/api/v1/contracts/network", "contracts_network", s.handleNetwork)
	}
	if s.journal != nil {
		s.handle(mux, "/api/v1/journal", "journal", s.handleJournal)
		s.handle(mux, "/api/v1/journal/stats", "journal_stats", s.handleJournalStats)
		s.handle(mux, "/api/v1/journal/", "journal_detail", s.handleJournalDetail)
	}
	if s.metrics != nil {
		mux.Handle(s.metricsPath, s.metrics.Handler())
	}
	return mux
}

func (s *Server) handle(mux *http.ServeMux, pattern, name string, fn http.HandlerFunc) {
	var h http.Handler = fn
	if s.metrics != nil {
		h = s.metrics.Instrument(name, h)
	}
	mux.Handle(pattern, h)
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("API 服务已启动", slog.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return xerrors.Wrap(xerrors.CodeInitializationFailure, err, "API 服务启动失败")
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// allowMethods 在请求方法不被支持时写入 405。
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, method := range methods {
		if r.Method == method {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{
		Code:    "METHOD_NOT_ALLOWED",
		Message: "仅支持 " + strings.Join(methods, "/"),
	})
	return false
}

// decodeBody 解析 JSON 请求体，空请求体视为零值。
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return xerrors.Wrap(xerrors.CodeInvalidArgument, err, "请求体解析失败")
	}
	return nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := xerrors.CodeOf(err)
	message := err.Error()
	if typed, ok := xerrors.From(err); ok {
		message = typed.Message()
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("请求处理失败", slog.Any("error", err), slog.String("code", string(code)))
	}
	writeJSON(w, status, errorBody{Code: string(code), Message: message})
}

// statusFor 将错误码映射为 HTTP 状态码。
func statusFor(err error) int {
	switch xerrors.CodeOf(err) {
	case xerrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case xerrors.CodeNotFound, journal.CodeEntryNotFound:
		return http.StatusNotFound
	case xerrors.CodeConflict, journal.CodeEntryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func pathID(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
