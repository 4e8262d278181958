package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"locshare/internal/services"
)

// Response 是所有 API 响应的统一外壳。
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// writeJSONResponse 是一个辅助函数，用于发送成功的 JSON 响应。
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	writeEnvelope(w, statusCode, Response{Success: true, Data: data})
}

// writeJSONMessage 发送只带提示信息的成功响应。
func writeJSONMessage(w http.ResponseWriter, statusCode int, message string) {
	writeEnvelope(w, statusCode, Response{Success: true, Message: message})
}

// writeJSONError 是一个辅助函数，用于发送 JSON 格式的错误响应。
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeEnvelope(w, statusCode, Response{Success: false, Message: message})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false) // 密文按原样返回
	if err := enc.Encode(body); err != nil {
		// 头部已经发出，只能记录
		log.Printf("无法编码 JSON 响应: %v", err)
	}
}

// writeServiceError maps a service error to its HTTP status. Domain errors
// carry a message meant for the client; anything else is logged and hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", r.Method, r.URL.Path, err)
		writeJSONError(w, "服务器内部错误", status)
		return
	}
	writeJSONError(w, err.Error(), status)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidOperation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSONBody decodes the request body into dst and answers 400 on
// malformed input. It reports whether the handler should continue.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID 从路由变量中解析数字 ID。
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		writeJSONError(w, "请求路径中缺少 "+name, http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeJSONError(w, "无效的ID格式", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}
