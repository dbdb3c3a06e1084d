package service

import (
	"context"

	"inspection_server/server/domain"
)

// Store interfaces mirror the pgx repositories so services can be exercised
// without a database.

type CompanyStore interface {
	Create(ctx context.Context, name string, subName *string) (domain.Company, error)
	List(ctx context.Context) ([]domain.Company, error)
	Get(ctx context.Context, id int64) (domain.Company, error)
}

type TaskStore interface {
	Create(ctx context.Context, t domain.Task) (int64, error)
	Get(ctx context.Context, id int64) (domain.Task, error)
	ListActive(ctx context.Context) ([]domain.Task, error)
	ListAll(ctx context.Context) ([]domain.TaskSummary, error)
	Update(ctx context.Context, t domain.Task) error
	Delete(ctx context.Context, id int64) error
	SetActive(ctx context.Context, ids []int64, active bool) error
}

type ChecklistStore interface {
	InsertItem(ctx context.Context, item domain.ChecklistItem) (int64, error)
	ListItems(ctx context.Context, taskID int64) ([]domain.ChecklistItem, error)
	UpdateItem(ctx context.Context, id int64, description string, attachmentID *string, setAttachment bool) error
	DeleteItem(ctx context.Context, id int64) error
	Reorder(ctx context.Context, taskID int64) error
	MaxOrder(ctx context.Context, taskID int64) (int, error)
	EnsureCompletion(ctx context.Context, itemID int64, year, month int) (bool, error)
	ToggleCompletion(ctx context.Context, itemID int64, year, month int) (bool, error)
}
