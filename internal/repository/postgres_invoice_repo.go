package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/articlehub/internal/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// invoiceFilter は請求書一覧の検索条件。ListFilteredとCountFilteredで共有する。
const invoiceFilter = `
	customers.name ILIKE $1 OR
	customers.email ILIKE $1 OR
	invoices.amount::text ILIKE $1 OR
	invoices.date::text ILIKE $1 OR
	invoices.status ILIKE $1`

// PostgresInvoiceRepo はPostgreSQLを使用した請求書リポジトリ。
type PostgresInvoiceRepo struct {
	db *sql.DB
}

// NewPostgresInvoiceRepo はPostgresInvoiceRepoを生成する。
func NewPostgresInvoiceRepo(db *sql.DB) *PostgresInvoiceRepo {
	return &PostgresInvoiceRepo{db: db}
}

// FindByID は指定IDの請求書を取得する。見つからない場合はnilを返す。
func (r *PostgresInvoiceRepo) FindByID(ctx context.Context, id string) (*model.Invoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	inv := &model.Invoice{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, amount, status, to_char(date, 'YYYY-MM-DD')
		 FROM invoices WHERE id = $1`,
		id,
	).Scan(&inv.ID, &inv.CustomerID, &inv.Amount, &inv.Status, &inv.Date)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("請求書の取得に失敗しました: %w", err)
	}
	return inv, nil
}

// ListFiltered はqueryに部分一致する請求書を顧客情報付きで日付の新しい順に返す。
func (r *PostgresInvoiceRepo) ListFiltered(ctx context.Context, query string, limit, offset int) ([]model.InvoiceWithCustomer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT invoices.id, invoices.customer_id, invoices.amount, invoices.status,
		        to_char(invoices.date, 'YYYY-MM-DD'),
		        customers.name, customers.email, customers.image_url
		 FROM invoices
		 JOIN customers ON invoices.customer_id = customers.id
		 WHERE `+invoiceFilter+`
		 ORDER BY invoices.date DESC, invoices.id
		 LIMIT $2 OFFSET $3`,
		likePattern(query), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("請求書一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	invoices := []model.InvoiceWithCustomer{}
	for rows.Next() {
		var inv model.InvoiceWithCustomer
		if err := rows.Scan(
			&inv.ID, &inv.CustomerID, &inv.Amount, &inv.Status, &inv.Date,
			&inv.Name, &inv.Email, &inv.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("請求書の読み取りに失敗しました: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("請求書一覧の走査に失敗しました: %w", err)
	}
	return invoices, nil
}

// CountFiltered はqueryに一致する請求書の件数を返す。
func (r *PostgresInvoiceRepo) CountFiltered(ctx context.Context, query string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*)
		 FROM invoices
		 JOIN customers ON invoices.customer_id = customers.id
		 WHERE `+invoiceFilter,
		likePattern(query),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("請求書件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Create は請求書を作成する。
func (r *PostgresInvoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (id, customer_id, amount, status, date)
		 VALUES ($1, $2, $3, $4, $5)`,
		inv.ID, inv.CustomerID, inv.Amount, inv.Status, inv.Date,
	)
	if err != nil {
		return fmt.Errorf("請求書の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は顧客・金額・状態を更新する。
func (r *PostgresInvoiceRepo) Update(ctx context.Context, inv *model.Invoice) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET customer_id = $2, amount = $3, status = $4 WHERE id = $1`,
		inv.ID, inv.CustomerID, inv.Amount, inv.Status,
	)
	if err != nil {
		return fmt.Errorf("請求書の更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの請求書を削除する。
func (r *PostgresInvoiceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return nil
		}
		return fmt.Errorf("請求書の削除に失敗しました: %w", err)
	}
	return nil
}
