package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inspection_server/server/domain"
)

type CompanyRepository struct {
	pool *pgxpool.Pool
}

func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

func (r *CompanyRepository) Create(ctx context.Context, name string, subName *string) (domain.Company, error) {
	company := domain.Company{Name: name, SubName: subName}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO companies(name, sub_name)
		VALUES($1, $2)
		RETURNING id
	`, name, subName).Scan(&company.ID)
	return company, err
}

func (r *CompanyRepository) List(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, sub_name FROM companies ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Company, 0)
	for rows.Next() {
		var item domain.Company
		if err := rows.Scan(&item.ID, &item.Name, &item.SubName); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *CompanyRepository) Get(ctx context.Context, id int64) (domain.Company, error) {
	var item domain.Company
	err := r.pool.QueryRow(ctx, `SELECT id, name, sub_name FROM companies WHERE id=$1`, id).
		Scan(&item.ID, &item.Name, &item.SubName)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, fmt.Errorf("%w: company %d", domain.ErrNotFound, id)
	}
	return item, err
}
