package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/articlehub/internal/model"
)

// PostgresCustomerRepo はPostgreSQLを使用した顧客リポジトリ。
type PostgresCustomerRepo struct {
	db *sql.DB
}

// NewPostgresCustomerRepo はPostgresCustomerRepoを生成する。
func NewPostgresCustomerRepo(db *sql.DB) *PostgresCustomerRepo {
	return &PostgresCustomerRepo{db: db}
}

// FindByID は指定IDの顧客を取得する。見つからない場合はnilを返す。
// UUIDとして不正なIDも見つからない扱いとする。
func (r *PostgresCustomerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	c := &model.Customer{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, image_url, created_at FROM customers WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.ImageURL, &c.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("顧客の取得に失敗しました: %w", err)
	}
	return c, nil
}

// List は名前またはメールアドレスがqueryに部分一致する顧客を名前順で返す。
func (r *PostgresCustomerRepo) List(ctx context.Context, query string, limit, offset int) ([]model.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, image_url, created_at
		 FROM customers
		 WHERE name ILIKE $1 OR email ILIKE $1
		 ORDER BY name ASC
		 LIMIT $2 OFFSET $3`,
		likePattern(query), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("顧客一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanCustomers(rows)
}

// Count はqueryに一致する顧客の件数を返す。
func (r *PostgresCustomerRepo) Count(ctx context.Context, query string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM customers WHERE name ILIKE $1 OR email ILIKE $1`,
		likePattern(query),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("顧客件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// ListAll は全顧客を名前順で返す。
func (r *PostgresCustomerRepo) ListAll(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, image_url, created_at FROM customers ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("顧客一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanCustomers(rows)
}

// Create は顧客を作成する。
// IDが空の場合は採番し、ImageURLが空の場合はデフォルト画像を設定する。
func (r *PostgresCustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.ImageURL == "" {
		c.ImageURL = model.DefaultCustomerImage
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO customers (id, name, email, image_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		c.ID, c.Name, c.Email, c.ImageURL,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("顧客の作成に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDの顧客を削除する。
func (r *PostgresCustomerRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return nil
		}
		return fmt.Errorf("顧客の削除に失敗しました: %w", err)
	}
	return nil
}

func scanCustomers(rows *sql.Rows) ([]model.Customer, error) {
	customers := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.ImageURL, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("顧客の読み取りに失敗しました: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("顧客一覧の走査に失敗しました: %w", err)
	}
	return customers, nil
}

// likePattern は部分一致検索用のILIKEパターンを返す。
// ワイルドカード文字はエスケープする。
func likePattern(query string) string {
	escaped := likeEscaper.Replace(query)
	return "%" + escaped + "%"
}

// isInvalidUUID はPostgreSQLのUUID構文エラー（22P02）かどうかを判定する。
func isInvalidUUID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}
