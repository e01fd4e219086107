// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError はクライアントに返却する業務エラーを表す。
// Codeはクライアントが分岐に使う安定した数値コードであり、変更してはならない。
type APIError struct {
	Code    int    // エラーコード
	Message string // エラーメッセージ（ログ・デバッグ用）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnexpected   = 1
	ErrCodeUnauthorized = 2
	ErrCodeRateLimited  = 3

	ErrCodeInvalidRequestBody = 10
	ErrCodeNonPositiveID      = 11
	ErrCodeInvalidReason      = 12

	ErrCodeRequestNotFound = 20

	ErrCodeSettlementNotFound             = 30
	ErrCodeAlreadySettled                 = 31
	ErrCodeCreditFacilitiesAlreadyExpired = 32
	ErrCodeExceedsRefundTimeLimit         = 33
	ErrCodePaymentRelatedErr              = 34
	ErrCodeInvalidPlatformFeeRate         = 35
	ErrCodeInvalidTransferFee             = 36

	ErrCodeInvalidPassCode          = 40
	ErrCodePassCodeDoesNotMatch     = 41
	ErrCodeInvalidRecoveryCode      = 42
	ErrCodeRecoveryCodeDoesNotMatch = 43
	ErrCodeMfaIsNotEnabled          = 44
	ErrCodeNoNeedToVerify           = 45

	ErrCodeEmailOrPasswordIncorrect = 50
	ErrCodeAccountDisabled          = 51
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{Code: ErrCodeUnauthorized, Message: "認証が必要です。"}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{Code: ErrCodeRateLimited, Message: "リクエストが多すぎます。しばらく待ってから再度お試しください。"}
}

// NewInvalidRequestBodyError はリクエストボディ解析失敗エラーを生成する。
func NewInvalidRequestBodyError() *APIError {
	return &APIError{Code: ErrCodeInvalidRequestBody, Message: "リクエストボディの解析に失敗しました。"}
}

// NewNonPositiveIDError は0以下のIDが指定された場合のエラーを生成する。
func NewNonPositiveIDError(id int64) *APIError {
	return &APIError{Code: ErrCodeNonPositiveID, Message: fmt.Sprintf("IDは正の整数で指定してください: %d", id)}
}

// NewInvalidReasonError は拒否理由の形式エラーを生成する。
func NewInvalidReasonError(reason string) *APIError {
	return &APIError{Code: ErrCodeInvalidReason, Message: fmt.Sprintf("理由の形式が不正です: %s", reason)}
}

// NewRequestNotFoundError は審査対象の申請が見つからない場合のエラーを生成する。
func NewRequestNotFoundError(requestID int64) *APIError {
	return &APIError{Code: ErrCodeRequestNotFound, Message: fmt.Sprintf("指定された申請が見つかりません: %d", requestID)}
}

// NewSettlementNotFoundError は精算対象のレコードが見つからない場合のエラーを生成する。
func NewSettlementNotFoundError(consultationID int64) *APIError {
	return &APIError{Code: ErrCodeSettlementNotFound, Message: fmt.Sprintf("指定された相談の精算レコードが見つかりません: %d", consultationID)}
}

// NewAlreadySettledError は精算済みの相談に再度操作した場合のエラーを生成する。
func NewAlreadySettledError(consultationID int64) *APIError {
	return &APIError{Code: ErrCodeAlreadySettled, Message: fmt.Sprintf("指定された相談は既に精算済みです: %d", consultationID)}
}

// NewCreditFacilitiesAlreadyExpiredError は与信枠の有効期限切れエラーを生成する。
func NewCreditFacilitiesAlreadyExpiredError(consultationID int64) *APIError {
	return &APIError{Code: ErrCodeCreditFacilitiesAlreadyExpired, Message: fmt.Sprintf("与信枠の有効期限が切れています: %d", consultationID)}
}

// NewExceedsRefundTimeLimitError は返金可能期間を超過した場合のエラーを生成する。
func NewExceedsRefundTimeLimitError(consultationID int64) *APIError {
	return &APIError{Code: ErrCodeExceedsRefundTimeLimit, Message: fmt.Sprintf("返金可能な期間を過ぎています: %d", consultationID)}
}

// NewPaymentRelatedError は決済サービスとの連携に失敗した場合のエラーを生成する。
// 原因の詳細はログにのみ記録する。
func NewPaymentRelatedError() *APIError {
	return &APIError{Code: ErrCodePaymentRelatedErr, Message: "決済サービスでの処理に失敗しました。"}
}

// NewInvalidPlatformFeeRateError はプラットフォーム手数料率が不正な場合のエラーを生成する。
func NewInvalidPlatformFeeRateError(rate string) *APIError {
	return &APIError{Code: ErrCodeInvalidPlatformFeeRate, Message: fmt.Sprintf("プラットフォーム手数料率が不正です: %s", rate)}
}

// NewInvalidTransferFeeError は振込手数料が不正な場合のエラーを生成する。
func NewInvalidTransferFeeError(fee int32) *APIError {
	return &APIError{Code: ErrCodeInvalidTransferFee, Message: fmt.Sprintf("振込手数料が不正です: %d", fee)}
}

// NewInvalidPassCodeError はパスコードの形式エラーを生成する。
func NewInvalidPassCodeError() *APIError {
	return &APIError{Code: ErrCodeInvalidPassCode, Message: "パスコードの形式が不正です。"}
}

// NewPassCodeDoesNotMatchError はパスコード不一致エラーを生成する。
func NewPassCodeDoesNotMatchError() *APIError {
	return &APIError{Code: ErrCodePassCodeDoesNotMatch, Message: "パスコードが一致しません。"}
}

// NewInvalidRecoveryCodeError はリカバリーコードの形式エラーを生成する。
func NewInvalidRecoveryCodeError() *APIError {
	return &APIError{Code: ErrCodeInvalidRecoveryCode, Message: "リカバリーコードの形式が不正です。"}
}

// NewRecoveryCodeDoesNotMatchError はリカバリーコード不一致エラーを生成する。
func NewRecoveryCodeDoesNotMatchError() *APIError {
	return &APIError{Code: ErrCodeRecoveryCodeDoesNotMatch, Message: "リカバリーコードが一致しません。"}
}

// NewMfaIsNotEnabledError は二段階認証が有効でない場合のエラーを生成する。
func NewMfaIsNotEnabledError() *APIError {
	return &APIError{Code: ErrCodeMfaIsNotEnabled, Message: "二段階認証が有効になっていません。"}
}

// NewNoNeedToVerifyError はログイン済みセッションで追加認証を要求された場合のエラーを生成する。
func NewNoNeedToVerifyError() *APIError {
	return &APIError{Code: ErrCodeNoNeedToVerify, Message: "追加の認証は不要です。"}
}

// NewEmailOrPasswordIncorrectError はログイン失敗エラーを生成する。
// メールアドレスとパスワードのどちらが誤っているかは区別しない。
func NewEmailOrPasswordIncorrectError() *APIError {
	return &APIError{Code: ErrCodeEmailOrPasswordIncorrect, Message: "メールアドレスまたはパスワードが誤っています。"}
}

// NewAccountDisabledError は無効化されたアカウントでのログインエラーを生成する。
func NewAccountDisabledError() *APIError {
	return &APIError{Code: ErrCodeAccountDisabled, Message: "アカウントが無効化されています。"}
}
