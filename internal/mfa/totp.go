package mfa

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const (
	// PassCodeDigits はパスコードの桁数。
	PassCodeDigits = 6
	// PassCodePeriod はパスコードが切り替わる間隔。
	PassCodePeriod = 30 * time.Second
)

// secretEncoding は秘密鍵のエンコーディング（RFC 4648 base32、パディングなし）。
var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// DecodeSecret はbase32エンコードされた秘密鍵をデコードする。パディングの有無は問わない。
func DecodeSecret(encoded string) ([]byte, error) {
	normalized := strings.TrimRight(strings.ToUpper(strings.TrimSpace(encoded)), "=")
	secret, err := secretEncoding.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to decode totp secret: %w", err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("totp secret is empty")
	}
	return secret, nil
}

// EncodeSecret は秘密鍵をbase32エンコードする。
func EncodeSecret(secret []byte) string {
	return secretEncoding.EncodeToString(secret)
}

// GeneratePassCode は時刻tにおけるパスコード（RFC 6238, HMAC-SHA1）を生成する。
func GeneratePassCode(secret []byte, t time.Time) string {
	return hotp(secret, counterAt(t))
}

// matchPassCode は現在のステップと1つ前のステップのパスコードのいずれかと一致するかを返す。
// 未来のステップは受け付けない。
func matchPassCode(secret []byte, code string, now time.Time) bool {
	current := counterAt(now)
	for _, counter := range []int64{current, current - 1} {
		if counter < 0 {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(hotp(secret, counter)), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

func counterAt(t time.Time) int64 {
	return t.Unix() / int64(PassCodePeriod/time.Second)
}

func hotp(secret []byte, counter int64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	return fmt.Sprintf("%0*d", PassCodeDigits, bin%1_000_000)
}

// isPassCodeFormat はcodeが6桁のASCII数字かを返す。
func isPassCodeFormat(code string) bool {
	if len(code) != PassCodeDigits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
