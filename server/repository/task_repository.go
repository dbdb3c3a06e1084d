package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"inspection_server/server/domain"
)

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `
	t.id, t.company_id, c.name, c.sub_name, t.task_type, t.signature_method,
	t.schedule_type, t.schedule_detail, t.contact_name, t.contact_phone,
	t.contact_email, t.detail_name, t.active, t.created_at`

func scanTask(row pgx.Row) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.CompanyID, &t.CompanyName, &t.CompanySubName, &t.Type,
		&t.SignatureMethod, &t.Schedule.Type, &t.Schedule.Detail,
		&t.ContactName, &t.ContactPhone, &t.ContactEmail, &t.DetailName,
		&t.Active, &t.CreatedAt,
	)
	return t, err
}

func (r *TaskRepository) Create(ctx context.Context, t domain.Task) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks(company_id, task_type, signature_method, schedule_type, schedule_detail,
			contact_name, contact_phone, contact_email, detail_name)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, t.CompanyID, t.Type, t.SignatureMethod, t.Schedule.Type, t.Schedule.Detail,
		t.ContactName, t.ContactPhone, t.ContactEmail, t.DetailName).Scan(&id)
	return id, err
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (domain.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		SELECT`+taskColumns+`
		FROM tasks t JOIN companies c ON t.company_id = c.id
		WHERE t.id=$1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	return t, err
}

func (r *TaskRepository) ListActive(ctx context.Context) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+taskColumns+`
		FROM tasks t JOIN companies c ON t.company_id = c.id
		WHERE t.active
		ORDER BY c.name, t.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *TaskRepository) ListAll(ctx context.Context) ([]domain.TaskSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+taskColumns+`,
			(
				SELECT COUNT(*)
				FROM checklist_completions cc
				JOIN checklist_items ci ON cc.item_id = ci.id
				WHERE ci.task_id = t.id AND cc.completed
			) AS completed_count
		FROM tasks t JOIN companies c ON t.company_id = c.id
		ORDER BY c.name, t.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.TaskSummary, 0)
	for rows.Next() {
		var s domain.TaskSummary
		if err := rows.Scan(
			&s.ID, &s.CompanyID, &s.CompanyName, &s.CompanySubName, &s.Type,
			&s.SignatureMethod, &s.Schedule.Type, &s.Schedule.Detail,
			&s.ContactName, &s.ContactPhone, &s.ContactEmail, &s.DetailName,
			&s.Active, &s.CreatedAt, &s.CompletedCount,
		); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, t domain.Task) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET company_id=$1, task_type=$2, signature_method=$3, schedule_type=$4, schedule_detail=$5,
			contact_name=$6, contact_phone=$7, contact_email=$8, detail_name=$9
		WHERE id=$10
	`, t.CompanyID, t.Type, t.SignatureMethod, t.Schedule.Type, t.Schedule.Detail,
		t.ContactName, t.ContactPhone, t.ContactEmail, t.DetailName, t.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: task %d", domain.ErrNotFound, t.ID)
	}
	return nil
}

// Delete removes a task together with its checklist items and completion
// records in one transaction.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM checklist_completions
		WHERE item_id IN (SELECT id FROM checklist_items WHERE task_id=$1)
	`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM checklist_items WHERE task_id=$1`, id); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	return tx.Commit(ctx)
}

func (r *TaskRepository) SetActive(ctx context.Context, ids []int64, active bool) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `UPDATE tasks SET active=$1 WHERE id = ANY($2)`, active, ids)
	return err
}
