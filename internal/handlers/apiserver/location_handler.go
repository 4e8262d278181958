package apiserver

import (
	"encoding/json"
	"net/http"

	"locshare/internal/middleware"
	"locshare/internal/services"
)

// LocationHandler handles sending and reading encrypted location shares.
type LocationHandler struct {
	locationService services.LocationService
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(ls services.LocationService) *LocationHandler {
	return &LocationHandler{locationService: ls}
}

// SendLocationPayload 是发送位置的请求体。ciphertext、iv 与 meta 由客户端加密，服务端原样保存。
type SendLocationPayload struct {
	ReceiverUID string          `json:"receiverUid"`
	Ciphertext  string          `json:"ciphertext"`
	IV          *string         `json:"iv,omitempty"`
	Meta        json.RawMessage `json:"meta,omitempty"`
}

// SendLocationHandler handles POST /api/v1/location/send
func (h *LocationHandler) SendLocationHandler(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}

	var payload SendLocationPayload
	if !decodeJSONBody(w, r, &payload) {
		return
	}

	result, err := h.locationService.Send(r.Context(), senderID, services.SendLocationInput{
		ReceiverUID: payload.ReceiverUID,
		Ciphertext:  payload.Ciphertext,
		IV:          payload.IV,
		Meta:        payload.Meta,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// GetLocationHandler handles GET /api/v1/location/{id}
func (h *LocationHandler) GetLocationHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}
	shareID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.locationService.Show(r.Context(), userID, shareID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, view)
}
