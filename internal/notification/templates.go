package notification

import (
	"fmt"
	"strings"
)

// Templates は審査結果メールの件名。
type Templates struct {
	From                    string
	IdentityApprovalSubject string
	IdentityRejectSubject   string
	CareerApprovalSubject   string
	CareerRejectSubject     string
	BaseURL                 string
}

// IdentityApproved は本人確認の承認メールを組み立てる。
func (t Templates) IdentityApproved(to string) Mail {
	return Mail{
		From:    t.From,
		To:      to,
		Subject: t.IdentityApprovalSubject,
		Body:    t.body("本人確認が完了しました。", ""),
	}
}

// IdentityRejected は本人確認の拒否メールを組み立てる。
func (t Templates) IdentityRejected(to, reason string) Mail {
	return Mail{
		From:    t.From,
		To:      to,
		Subject: t.IdentityRejectSubject,
		Body:    t.body("本人確認の申請が承認されませんでした。", reason),
	}
}

// CareerApproved は職務経歴の承認メールを組み立てる。
func (t Templates) CareerApproved(to string) Mail {
	return Mail{
		From:    t.From,
		To:      to,
		Subject: t.CareerApprovalSubject,
		Body:    t.body("職務経歴の確認が完了しました。", ""),
	}
}

// CareerRejected は職務経歴の拒否メールを組み立てる。
func (t Templates) CareerRejected(to, reason string) Mail {
	return Mail{
		From:    t.From,
		To:      to,
		Subject: t.CareerRejectSubject,
		Body:    t.body("職務経歴の申請が承認されませんでした。", reason),
	}
}

func (t Templates) body(headline, reason string) string {
	var b strings.Builder
	b.WriteString(headline)
	b.WriteString("\n")
	if reason != "" {
		fmt.Fprintf(&b, "\n【理由】\n%s\n", reason)
	}
	fmt.Fprintf(&b, "\n詳しくは %s をご確認ください。\n", strings.TrimRight(t.BaseURL, "/"))
	return b.String()
}
