// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/articlehub/internal/model"
)

// CustomerRepository は顧客データの永続化インターフェース。
type CustomerRepository interface {
	// FindByID は指定IDの顧客を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Customer, error)

	// List は名前またはメールアドレスがqueryに部分一致する顧客を名前順で返す。
	List(ctx context.Context, query string, limit, offset int) ([]model.Customer, error)

	// Count はqueryに一致する顧客の件数を返す。
	Count(ctx context.Context, query string) (int, error)

	// ListAll は請求書フォームの選択肢として全顧客を名前順で返す。
	ListAll(ctx context.Context) ([]model.Customer, error)

	// Create は顧客を作成する。IDが空の場合は採番する。
	Create(ctx context.Context, customer *model.Customer) error

	// Delete は指定IDの顧客を削除する。関連するinvoicesはCASCADE削除される。
	Delete(ctx context.Context, id string) error
}

// InvoiceRepository は請求書データの永続化インターフェース。
type InvoiceRepository interface {
	// FindByID は指定IDの請求書を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Invoice, error)

	// ListFiltered は顧客名・メールアドレス・金額・日付・状態がqueryに部分一致する請求書を
	// 日付の新しい順で返す。
	ListFiltered(ctx context.Context, query string, limit, offset int) ([]model.InvoiceWithCustomer, error)

	// CountFiltered はqueryに一致する請求書の件数を返す。
	CountFiltered(ctx context.Context, query string) (int, error)

	// Create は請求書を作成する。IDが空の場合は採番する。
	Create(ctx context.Context, invoice *model.Invoice) error

	// Update は顧客・金額・状態を更新する。日付は変更しない。
	Update(ctx context.Context, invoice *model.Invoice) error

	// Delete は指定IDの請求書を削除する。
	Delete(ctx context.Context, id string) error
}
