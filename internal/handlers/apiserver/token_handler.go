package apiserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"locshare/internal/middleware"
	"locshare/internal/services"
)

// TokenHandler exposes the caller's token balance and top-ups.
type TokenHandler struct {
	tokenService services.TokenService
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(ts services.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: ts}
}

// TopUpPayload 充值请求体。Amount 用 json.Number 接收，非整数按输入无效处理。
type TopUpPayload struct {
	Amount json.Number `json:"amount"`
}

// BalanceResponse 余额响应。
type BalanceResponse struct {
	TokensBalance int64 `json:"tokensBalance"`
}

// BalanceHandler handles GET /api/v1/tokens
func (h *TokenHandler) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}

	balance, err := h.tokenService.Balance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, BalanceResponse{TokensBalance: balance})
}

// TopUpHandler handles POST /api/v1/tokens/topup
func (h *TokenHandler) TopUpHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}

	var payload TopUpPayload
	if !decodeJSONBody(w, r, &payload) {
		return
	}
	amount, err := strconv.ParseInt(payload.Amount.String(), 10, 64)
	if err != nil {
		writeServiceError(w, r, services.ErrInvalidAmount)
		return
	}

	result, err := h.tokenService.TopUp(r.Context(), userID, amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// HistoryHandler handles GET /api/v1/tokens/transactions?limit=
func (h *TokenHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, "limit 必须是整数", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.tokenService.History(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, entries)
}
