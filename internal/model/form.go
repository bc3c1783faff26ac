// Package model はドメインモデルを定義する。
package model

// FormState はフォームアクションの結果を表す。
// 検証失敗時は入力値とフィールドごとのエラーを返し、フォームの再表示に使う。
type FormState struct {
	FormData map[string]string   `json:"formData"`
	Errors   map[string][]string `json:"errors"`
	Message  string              `json:"message,omitempty"`
}

// ActionResult はフォーム遷移を伴わないアクション（お気に入り等）の結果を表す。
type ActionResult struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}
