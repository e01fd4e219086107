// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ReasonValidator は管理者が入力する拒否理由・返金理由を検証する。
// 理由はメール本文や履歴テーブルにそのまま載るため、
// 制御文字とHTMLマークアップを含む入力を拒否する。
package security

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxReasonLength は理由の最大文字数（ルーン数）。
const MaxReasonLength = 1000

var (
	// ErrEmptyReason は理由が空の場合のエラー。
	ErrEmptyReason = errors.New("reason is empty")
	// ErrReasonTooLong は理由が最大文字数を超える場合のエラー。
	ErrReasonTooLong = fmt.Errorf("reason exceeds %d characters", MaxReasonLength)
	// ErrReasonHasControlChar は改行以外の制御文字を含む場合のエラー。
	ErrReasonHasControlChar = errors.New("reason contains control characters")
	// ErrReasonHasMarkup はHTMLマークアップを含む場合のエラー。
	ErrReasonHasMarkup = errors.New("reason contains html markup")
	// ErrReasonInvalidUTF8 はUTF-8として不正なバイト列の場合のエラー。
	ErrReasonInvalidUTF8 = errors.New("reason is not valid utf-8")
)

// ReasonValidator は理由文字列の検証インターフェース。
type ReasonValidator interface {
	// Validate は理由が妥当であればnilを返す。
	Validate(reason string) error
}

// reasonValidator はReasonValidatorの実装。
// bluemondayのStrictPolicyで全タグを除去した結果が元の文字列と一致するかで
// マークアップの有無を判定する。
type reasonValidator struct {
	policy *bluemonday.Policy
}

// NewReasonValidator はReasonValidatorの新しいインスタンスを生成する。
func NewReasonValidator() ReasonValidator {
	return &reasonValidator{
		policy: bluemonday.StrictPolicy(),
	}
}

// Validate は理由が妥当であればnilを返す。
//   - 1文字以上MaxReasonLength文字以下
//   - 改行（\n, \r）以外の制御文字を含まない
//   - HTMLタグを含まない
func (v *reasonValidator) Validate(reason string) error {
	if reason == "" {
		return ErrEmptyReason
	}
	if !utf8.ValidString(reason) {
		return ErrReasonInvalidUTF8
	}
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return ErrReasonTooLong
	}
	for _, r := range reason {
		if r == '\n' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return ErrReasonHasControlChar
		}
	}

	// StrictPolicyは文字参照を展開してから再エスケープするため、両辺とも展開して比較する。
	// "&lt;" のような文字参照の表記そのものはマークアップではない。
	if normalizeNewlines(html.UnescapeString(v.policy.Sanitize(reason))) != normalizeNewlines(html.UnescapeString(reason)) {
		return ErrReasonHasMarkup
	}
	return nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}
