package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/careerconsult/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// クライアントはcodeで分岐し、messageは表示・デバッグ用。
type ErrorResponseBody struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、レスポンスにはコードだけを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{Code: model.ErrCodeUnexpected})
}

// WriteUnauthorized は未認証の統一レスポンスを書き込む。
func WriteUnauthorized(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{Code: model.ErrCodeUnauthorized})
}
