package security

import (
	"errors"
	"strings"
	"testing"
)

func TestReasonValidator_Validate(t *testing.T) {
	v := NewReasonValidator()

	tests := []struct {
		name    string
		reason  string
		wantErr error
	}{
		{"通常の理由", "画像が不鮮明なため確認できませんでした。", nil},
		{"改行を含む", "画像が不鮮明です。\r\n再提出してください。", nil},
		{"アンパサンドと引用符", `氏名と"ふりがな" & 住所が一致しません`, nil},
		{"不等号", "年収 < 0 は不正です", nil},
		{"文字参照の表記", "A &lt; B の表記", nil},
		{"アンパサンドを含む単語", "R&D部署", nil},
		{"エスケープされたタグの表記", "&lt;b&gt;は使えません", nil},
		{"コメント", "理由<!-- 内部メモ -->です", ErrReasonHasMarkup},
		{"最大文字数ちょうど", strings.Repeat("あ", MaxReasonLength), nil},
		{"空文字", "", ErrEmptyReason},
		{"最大文字数超過", strings.Repeat("あ", MaxReasonLength+1), ErrReasonTooLong},
		{"タブ", "理由\tタブ", ErrReasonHasControlChar},
		{"NUL文字", "理由\x00", ErrReasonHasControlChar},
		{"scriptタグ", "<script>alert(1)</script>", ErrReasonHasMarkup},
		{"aタグ", `<a href="https://example.com">こちら</a>`, ErrReasonHasMarkup},
		{"不正なUTF-8", "\xff\xfe", ErrReasonInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.reason)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// 同じ入力に対して常に同じ結果を返すことを検証
func TestReasonValidator_Idempotent(t *testing.T) {
	v := NewReasonValidator()
	reason := "<b>太字</b>"
	first := v.Validate(reason)
	second := v.Validate(reason)
	if !errors.Is(first, second) {
		t.Errorf("expected the same result, got %v and %v", first, second)
	}
}
