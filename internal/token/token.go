// Package token はアクセストークン（JWT）の期限判定を提供する。
//
// ここでの読み取りは「リフレッシュすべきかどうか」の判断にのみ使う。
// 署名検証は行わず、デコードしたクレームを認可判断に使ってはならない。
// 完全性の検証はバックエンドがAPI呼び出し時に行う。
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed はトークンがJWTとして解釈できない場合のエラー。
var ErrMalformed = errors.New("token: malformed")

// ErrNoExpiry はペイロードにexpクレームが存在しない場合のエラー。
var ErrNoExpiry = errors.New("token: missing exp claim")

var parser = jwt.NewParser()

// Claims は期限判定に必要なクレームのみを保持する。
type Claims struct {
	ExpiresAt time.Time
}

// Decode はJWTのペイロードを署名検証なしでデコードし、expを取り出す。
// ヘッダーと署名は読まない。exp以外のクレームの型も問わない。
// セグメント数の不一致、base64url/JSONとして解釈できないペイロード、
// expの欠落はいずれもエラーとして返す。
func Decode(raw string) (*Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var claims struct {
		Exp *jwt.NumericDate `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.Exp == nil {
		return nil, ErrNoExpiry
	}
	return &Claims{ExpiresAt: claims.Exp.Time}, nil
}

// IsExpired はトークンが期限切れかどうかを判定する。
// now >= exp - buffer の場合に期限切れとみなす。
// デコードできないトークンは常に期限切れとして扱う（fail closed）。
func IsExpired(raw string, now time.Time, buffer time.Duration) bool {
	claims, err := Decode(raw)
	if err != nil {
		return true
	}
	return !now.Before(claims.ExpiresAt.Add(-buffer))
}
