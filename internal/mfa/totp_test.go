package mfa

import (
	"testing"
	"time"
)

var rfcSecret = []byte("12345678901234567890")

func TestGeneratePassCode_RFC6238Vectors(t *testing.T) {
	// RFC 6238 Appendix B のSHA1テストベクトル（下6桁）
	cases := []struct {
		ts   int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}
	for _, tc := range cases {
		if got := GeneratePassCode(rfcSecret, time.Unix(tc.ts, 0)); got != tc.code {
			t.Errorf("t=%d: got %s, want %s", tc.ts, got, tc.code)
		}
	}
}

func TestMatchPassCode_Window(t *testing.T) {
	now := time.Unix(1234567890, 0)
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "現在のステップ", at: now, want: true},
		{name: "1つ前のステップ", at: now.Add(-PassCodePeriod), want: true},
		{name: "2つ前のステップ", at: now.Add(-2 * PassCodePeriod), want: false},
		{name: "次のステップ", at: now.Add(PassCodePeriod), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := GeneratePassCode(rfcSecret, tt.at)
			if got := matchPassCode(rfcSecret, code, now); got != tt.want {
				t.Errorf("matchPassCode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeSecret(t *testing.T) {
	encoded := EncodeSecret(rfcSecret)
	for _, in := range []string{encoded, encoded + "====", " " + encoded + " "} {
		got, err := DecodeSecret(in)
		if err != nil {
			t.Fatalf("DecodeSecret(%q): unexpected error: %v", in, err)
		}
		if string(got) != string(rfcSecret) {
			t.Errorf("DecodeSecret(%q) = %q", in, got)
		}
	}
	if _, err := DecodeSecret("!!!"); err == nil {
		t.Error("expected error for invalid base32")
	}
	if _, err := DecodeSecret(""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestIsPassCodeFormat(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"123456", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12345a", false},
		{"１２３４５６", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isPassCodeFormat(tt.code); got != tt.want {
			t.Errorf("isPassCodeFormat(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
