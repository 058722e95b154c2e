package api

import (
	"fmt"
	"net/http"
	"strings"

	"AssetGrid-Chain/internal/contracts"
	xerrors "AssetGrid-Chain/internal/errors"
)

type interactRequest struct {
	Address string         `json:"address"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type eventsRequest struct {
	Filters map[string]any `json:"filters"`
}

func (s *Server) handleContracts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var cfg contracts.ContractConfig
		if err := decodeBody(r, &cfg); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, s.contracts.DeployContract(r.Context(), cfg))
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.contracts.Contracts(r.Context()))
	default:
		allowMethods(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleContractDetail(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	id := pathID(r.URL.Path, "/api/v1/contracts/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, xerrors.New(xerrors.CodeInvalidArgument, "缺少合约 ID"))
		return
	}
	contract, ok := s.contracts.Contract(r.Context(), id)
	if !ok {
		s.writeError(w, xerrors.New(xerrors.CodeNotFound, fmt.Sprintf("合约 %s 不存在", id)))
		return
	}
	writeJSON(w, http.StatusOK, contract)
}

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req interactRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		s.writeError(w, xerrors.New(xerrors.CodeInvalidArgument, "method 不能为空"))
		return
	}
	writeJSON(w, http.StatusOK, s.contracts.InteractWithContract(r.Context(), req.Address, req.Method, req.Params))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req eventsRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.contracts.MonitorBlockchainEvents(r.Context(), req.Filters))
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.contracts.NetworkStatus(r.Context()))
}
