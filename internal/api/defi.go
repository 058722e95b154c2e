package api

import (
	"fmt"
	"net/http"
	"strings"

	"AssetGrid-Chain/internal/defi"
	xerrors "AssetGrid-Chain/internal/errors"
)

type operationRequest struct {
	Operation string         `json:"operation"`
	Params    map[string]any `json:"params"`
}

type monitorRequest struct {
	Addresses []string `json:"addresses"`
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var cfg defi.StrategyConfig
		if err := decodeBody(r, &cfg); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, s.defi.DeployYieldStrategy(r.Context(), cfg))
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.defi.Strategies(r.Context()))
	default:
		allowMethods(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleStrategyDetail(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	id := pathID(r.URL.Path, "/api/v1/defi/strategies/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, xerrors.New(xerrors.CodeInvalidArgument, "缺少策略 ID"))
		return
	}
	strategy, ok := s.defi.Strategy(r.Context(), id)
	if !ok {
		s.writeError(w, xerrors.New(xerrors.CodeNotFound, fmt.Sprintf("策略 %s 不存在", id)))
		return
	}
	writeJSON(w, http.StatusOK, strategy)
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req operationRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Operation) == "" {
		s.writeError(w, xerrors.New(xerrors.CodeInvalidArgument, "operation 不能为空"))
		return
	}
	writeJSON(w, http.StatusOK, s.defi.ExecuteDeFiOperation(r.Context(), req.Operation, req.Params))
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	writeJSON(w, http.StatusOK, s.defi.OptimizePortfolio(r.Context()))
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req monitorRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.defi.MonitorSmartContracts(r.Context(), req.Addresses))
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.defi.PerformanceMetrics(r.Context()))
}
