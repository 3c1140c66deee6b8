// Package handlers exposes the pathfinder over a JSON HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"pathfinder/internal/service"
	"pathfinder/internal/types"
	"pathfinder/pkg/apperror"
	"pathfinder/pkg/logger"
)

// maxRequestBody bounds the request body size.
const maxRequestBody = 1 << 20 // 1MB

// Pinger сигнализирует о готовности зависимостей (БД)
type Pinger interface {
	Ping(ctx context.Context) error
}

// FlowHandler обработчики API вычисления потока
type FlowHandler struct {
	svc *service.PathfinderService
	db  Pinger
}

// NewFlowHandler создаёт handler
func NewFlowHandler(svc *service.PathfinderService, db Pinger) *FlowHandler {
	return &FlowHandler{svc: svc, db: db}
}

// Register вешает маршруты на mux
func (h *FlowHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/flow/compute", h.Compute)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// ComputeRequest тело запроса вычисления потока
type ComputeRequest struct {
	Source string `json:"source"`
	Sink   string `json:"sink"`
}

// TransferDTO один перевод итогового расписания
type TransferDTO struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Token string `json:"token"`
	Value string `json:"value"`
}

// ComputeResponse ответ вычисления потока
type ComputeResponse struct {
	MaxFlow   string        `json:"max_flow"`
	Transfers []TransferDTO `json:"transfers"`
}

// Compute обрабатывает POST /api/v1/flow/compute
func (h *FlowHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	body := io.LimitReader(r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, apperror.New(apperror.CodeInvalidArgument, "malformed request body"))
		return
	}

	source, err := types.ParseAddress(req.Source)
	if err != nil {
		writeError(w, apperror.NewWithField(apperror.CodeInvalidAddress, err.Error(), "source"))
		return
	}
	sink, err := types.ParseAddress(req.Sink)
	if err != nil {
		writeError(w, apperror.NewWithField(apperror.CodeInvalidAddress, err.Error(), "sink"))
		return
	}

	result, err := h.svc.ComputeTransfer(r.Context(), source, sink)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := ComputeResponse{
		MaxFlow:   result.MaxFlow.Dec(),
		Transfers: make([]TransferDTO, 0, len(result.Transfers)),
	}
	for _, t := range result.Transfers {
		resp.Transfers = append(resp.Transfers, TransferDTO{
			From:  t.From.String(),
			To:    t.To.String(),
			Token: t.Token.String(),
			Value: t.Capacity.Dec(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Healthz liveness проба
func (h *FlowHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz readiness проба - проверяет зависимости
func (h *FlowHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": "database unreachable",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// =============================================================================
// Response helpers
// =============================================================================

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Log.Warn("failed to encode response", "error", err)
	}
}

// writeError мапит apperror на HTTP статус
func writeError(w http.ResponseWriter, err error) {
	appErr := apperror.As(err)
	if appErr == nil {
		appErr = apperror.Wrap(err, apperror.CodeInternal, "internal server error")
	}

	writeJSON(w, httpStatus(appErr.Code), errorBody{Error: errorDetail{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Field:   appErr.Field,
	}})
}

func httpStatus(code apperror.ErrorCode) int {
	switch code {
	case apperror.CodeInvalidAddress, apperror.CodeInvalidAmount, apperror.CodeInvalidTrust,
		apperror.CodeSelfTransfer, apperror.CodeGraphTooLarge, apperror.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperror.CodeNotFound, apperror.CodeSafeNotFound:
		return http.StatusNotFound
	case apperror.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperror.CodePermissionDenied:
		return http.StatusForbidden
	case apperror.CodeRateLimited:
		return http.StatusTooManyRequests
	case apperror.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
