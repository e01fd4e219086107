// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/careerconsult/internal/middleware"
	"github.com/hitoshi/careerconsult/internal/model"
)

// emptyResponse は成功時に返す空のJSONオブジェクト。
type emptyResponse struct{}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeOK は200 {}を書き込む。
func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, emptyResponse{})
}

// decodeBody はリクエストボディをJSONとして解析する。
// 失敗した場合は400を書き込みfalseを返す。
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestBodyError())
		return false
	}
	return true
}

// parsePositiveID はURLパラメータから正の整数IDを取得する。
// 数値でないか0以下の場合は400を書き込みfalseを返す。
func parsePositiveID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewNonPositiveIDError(0))
		return 0, false
	}
	if id <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewNonPositiveIDError(id))
		return 0, false
	}
	return id, true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
// 業務エラーはすべて400とし、クライアントはcodeで分岐する。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnexpected:
		return http.StatusInternalServerError
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}
