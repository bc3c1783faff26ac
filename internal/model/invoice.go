// Package model はドメインモデルを定義する。
package model

import "time"

// InvoiceStatus は請求書の支払い状態を表す。
type InvoiceStatus string

const (
	// InvoiceStatusPending は未払い状態。
	InvoiceStatusPending InvoiceStatus = "pending"
	// InvoiceStatusPaid は支払い済み状態。
	InvoiceStatusPaid InvoiceStatus = "paid"
)

// DefaultCustomerImage は画像未指定の顧客に割り当てる画像パス。
const DefaultCustomerImage = "/customers/evil-rabbit.png"

// Customer はダッシュボードの顧客を表す。
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Invoice は請求書を表す。金額はセント単位で保持する。
type Invoice struct {
	ID         string        `json:"id"`
	CustomerID string        `json:"customer_id"`
	Amount     int64         `json:"amount"`
	Status     InvoiceStatus `json:"status"`
	Date       string        `json:"date"` // YYYY-MM-DD
}

// InvoiceWithCustomer は請求書一覧の行を表す。customersテーブルとJOINして取得される。
type InvoiceWithCustomer struct {
	Invoice
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageURL string `json:"image_url"`
}
