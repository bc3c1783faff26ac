// Package form はフォーム入力の検証を提供する。
// 検証ルールはgo-playground/validatorのタグで宣言し、
// エラーはformタグのフィールド名ごとのメッセージ一覧として返す。
package form

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages はフィールドごとのエラーメッセージ。
// キーは "field" または "field.tag"。"field.tag" が優先される。
type Messages map[string]string

// FieldErrors はフィールド名ごとのエラーメッセージ一覧。
type FieldErrors map[string][]string

// Validator はフォーム構造体を検証する。並行利用してよい。
type Validator struct {
	validate *validator.Validate
}

// NewValidator はValidatorを生成する。
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Check はsを検証し、違反があればフィールドごとのメッセージを返す。
// 違反がない場合はnilを返す。
// sが構造体でない場合など、検証自体が実行できない場合はエラーを返す。
func (v *Validator) Check(s any, msgs Messages) (FieldErrors, error) {
	err := v.validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("form validation: %w", err)
	}

	fields := make(FieldErrors)
	for _, fe := range verrs {
		name := fe.Field()
		fields[name] = append(fields[name], msgs.lookup(name, fe.Tag()))
	}
	return fields, nil
}

func (m Messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[field]; ok {
		return msg
	}
	return "Invalid value."
}

// Values はフォームの再表示用に、指定フィールドの送信値を返す。
// パスワードなど返すべきでないフィールドは指定しないこと。
func Values(r *http.Request, fields ...string) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f] = r.PostFormValue(f)
	}
	return values
}

// SplitTags はカンマ区切りのタグ文字列を分割する。
// 前後の空白を除去し、空の要素は捨てる。常に非nilのスライスを返す。
func SplitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
