package service

import (
	"context"
	"fmt"
	"strings"

	"inspection_server/server/domain"
)

type InspectionService struct {
	companies CompanyStore
	tasks     TaskStore
	items     ChecklistStore
	events    *Events
	stats     *StatsCache
}

func NewInspectionService(companies CompanyStore, tasks TaskStore, items ChecklistStore, events *Events, stats *StatsCache) *InspectionService {
	return &InspectionService{companies: companies, tasks: tasks, items: items, events: events, stats: stats}
}

func (s *InspectionService) CreateCompany(ctx context.Context, name string, subName *string) (domain.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Company{}, fmt.Errorf("%w: company name is required", domain.ErrValidation)
	}
	if subName != nil {
		trimmed := strings.TrimSpace(*subName)
		if trimmed == "" {
			subName = nil
		} else {
			subName = &trimmed
		}
	}
	return s.companies.Create(ctx, name, subName)
}

func (s *InspectionService) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	return s.companies.List(ctx)
}

type NewItemInput struct {
	Description  string  `json:"description"`
	AttachmentID *string `json:"attachment_id,omitempty"`
}

type NewTaskInput struct {
	CompanyID       int64                  `json:"company_id"`
	Type            domain.TaskType        `json:"task_type"`
	SignatureMethod domain.SignatureMethod `json:"signature_method"`
	ScheduleType    domain.ScheduleType    `json:"schedule_type"`
	ScheduleDetail  string                 `json:"schedule_detail"`
	ContactName     *string                `json:"contact_name,omitempty"`
	ContactPhone    *string                `json:"contact_phone,omitempty"`
	ContactEmail    *string                `json:"contact_email,omitempty"`
	DetailName      *string                `json:"detail_name,omitempty"`
	Items           []NewItemInput         `json:"items"`
}

// CreateTask stores a task and its checklist. Items with a blank
// description are skipped rather than rejected, keeping the remaining
// order dense.
func (s *InspectionService) CreateTask(ctx context.Context, input NewTaskInput) (domain.Task, error) {
	if !input.Type.Valid() {
		return domain.Task{}, fmt.Errorf("%w: task_type must be INHOUSE or ONSITE", domain.ErrValidation)
	}
	if !input.SignatureMethod.Valid() {
		return domain.Task{}, fmt.Errorf("%w: signature_method must be EMAIL or VISIT", domain.ErrValidation)
	}
	if !input.ScheduleType.Valid() {
		return domain.Task{}, fmt.Errorf("%w: schedule_type must be monthly, quarterly, or custom", domain.ErrValidation)
	}
	if input.ScheduleType != domain.ScheduleMonthly && len(domain.ParseMonthList(input.ScheduleDetail)) == 0 {
		return domain.Task{}, fmt.Errorf("%w: schedule_detail must list at least one month", domain.ErrValidation)
	}
	if _, err := s.companies.Get(ctx, input.CompanyID); err != nil {
		return domain.Task{}, err
	}

	id, err := s.tasks.Create(ctx, domain.Task{
		CompanyID:       input.CompanyID,
		Type:            input.Type,
		SignatureMethod: input.SignatureMethod,
		Schedule:        domain.Schedule{Type: input.ScheduleType, Detail: input.ScheduleDetail},
		ContactName:     normalized(input.ContactName),
		ContactPhone:    normalized(input.ContactPhone),
		ContactEmail:    normalized(input.ContactEmail),
		DetailName:      normalized(input.DetailName),
	})
	if err != nil {
		return domain.Task{}, err
	}

	order := 0
	for _, item := range input.Items {
		desc := strings.TrimSpace(item.Description)
		if desc == "" {
			continue
		}
		if _, err := s.items.InsertItem(ctx, domain.ChecklistItem{
			TaskID:       id,
			Description:  desc,
			AttachmentID: normalized(item.AttachmentID),
			OrderNum:     order,
		}); err != nil {
			return domain.Task{}, err
		}
		order++
	}

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	s.events.Emit(ctx, "task.created", task)
	s.stats.Invalidate(ctx)
	return task, nil
}

// GetTask returns the task with its checklist annotated by completion
// status for the given year and month.
func (s *InspectionService) GetTask(ctx context.Context, id int64, year, month int) (domain.DashboardTask, error) {
	if err := validateYearMonth(year, month); err != nil {
		return domain.DashboardTask{}, err
	}
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return domain.DashboardTask{}, err
	}
	return annotateTask(ctx, s.items, task, year, month)
}

type ItemEdit struct {
	ID           *int64  `json:"id,omitempty"`
	Description  string  `json:"description"`
	AttachmentID *string `json:"attachment_id,omitempty"`
	Delete       bool    `json:"delete,omitempty"`
}

type UpdateTaskInput struct {
	CompanyID       *int64                  `json:"company_id,omitempty"`
	Type            *domain.TaskType        `json:"task_type,omitempty"`
	SignatureMethod *domain.SignatureMethod `json:"signature_method,omitempty"`
	ScheduleType    *domain.ScheduleType    `json:"schedule_type,omitempty"`
	ScheduleDetail  *string                 `json:"schedule_detail,omitempty"`
	ContactName     *string                 `json:"contact_name,omitempty"`
	ContactPhone    *string                 `json:"contact_phone,omitempty"`
	ContactEmail    *string                 `json:"contact_email,omitempty"`
	DetailName      *string                 `json:"detail_name,omitempty"`
	Items           []ItemEdit              `json:"items,omitempty"`
}

// UpdateTask applies a partial update: absent fields keep their current
// values. Item edits reference existing items by id; entries without an id
// are appended. After edits the checklist order is renumbered densely.
func (s *InspectionService) UpdateTask(ctx context.Context, id int64, input UpdateTaskInput) (domain.Task, error) {
	existing, err := s.tasks.Get(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}

	if input.CompanyID != nil {
		if _, err := s.companies.Get(ctx, *input.CompanyID); err != nil {
			return domain.Task{}, err
		}
		existing.CompanyID = *input.CompanyID
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return domain.Task{}, fmt.Errorf("%w: task_type must be INHOUSE or ONSITE", domain.ErrValidation)
		}
		existing.Type = *input.Type
	}
	if input.SignatureMethod != nil {
		if !input.SignatureMethod.Valid() {
			return domain.Task{}, fmt.Errorf("%w: signature_method must be EMAIL or VISIT", domain.ErrValidation)
		}
		existing.SignatureMethod = *input.SignatureMethod
	}
	if input.ScheduleType != nil {
		if !input.ScheduleType.Valid() {
			return domain.Task{}, fmt.Errorf("%w: schedule_type must be monthly, quarterly, or custom", domain.ErrValidation)
		}
		existing.Schedule.Type = *input.ScheduleType
	}
	if input.ScheduleDetail != nil {
		existing.Schedule.Detail = strings.TrimSpace(*input.ScheduleDetail)
	}
	if input.ContactName != nil {
		existing.ContactName = normalized(input.ContactName)
	}
	if input.ContactPhone != nil {
		existing.ContactPhone = normalized(input.ContactPhone)
	}
	if input.ContactEmail != nil {
		existing.ContactEmail = normalized(input.ContactEmail)
	}
	if input.DetailName != nil {
		existing.DetailName = normalized(input.DetailName)
	}
	if existing.Schedule.Type != domain.ScheduleMonthly && len(domain.ParseMonthList(existing.Schedule.Detail)) == 0 {
		return domain.Task{}, fmt.Errorf("%w: schedule_detail must list at least one month", domain.ErrValidation)
	}

	if err := s.tasks.Update(ctx, existing); err != nil {
		return domain.Task{}, err
	}
	if err := s.applyItemEdits(ctx, id, input.Items); err != nil {
		return domain.Task{}, err
	}

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	s.events.Emit(ctx, "task.updated", task)
	s.stats.Invalidate(ctx)
	return task, nil
}

func (s *InspectionService) applyItemEdits(ctx context.Context, taskID int64, edits []ItemEdit) error {
	if len(edits) == 0 {
		return nil
	}
	current, err := s.items.ListItems(ctx, taskID)
	if err != nil {
		return err
	}
	byID := make(map[int64]domain.ChecklistItem, len(current))
	for _, item := range current {
		byID[item.ID] = item
	}

	nextOrder, err := s.items.MaxOrder(ctx, taskID)
	if err != nil {
		return err
	}
	nextOrder++

	for _, edit := range edits {
		if edit.ID == nil {
			desc := strings.TrimSpace(edit.Description)
			if desc == "" {
				continue
			}
			if _, err := s.items.InsertItem(ctx, domain.ChecklistItem{
				TaskID:       taskID,
				Description:  desc,
				AttachmentID: normalized(edit.AttachmentID),
				OrderNum:     nextOrder,
			}); err != nil {
				return err
			}
			nextOrder++
			continue
		}

		item, ok := byID[*edit.ID]
		if !ok {
			return fmt.Errorf("%w: checklist item %d does not belong to task %d", domain.ErrNotFound, *edit.ID, taskID)
		}
		if edit.Delete {
			if err := s.items.DeleteItem(ctx, item.ID); err != nil {
				return err
			}
			continue
		}
		desc := strings.TrimSpace(edit.Description)
		if desc == "" {
			desc = item.Description
		}
		// An absent attachment_id keeps the current reference; an empty
		// string clears it.
		setAttachment := edit.AttachmentID != nil
		if err := s.items.UpdateItem(ctx, item.ID, desc, normalized(edit.AttachmentID), setAttachment); err != nil {
			return err
		}
	}
	return s.items.Reorder(ctx, taskID)
}

func (s *InspectionService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Emit(ctx, "task.deleted", map[string]int64{"id": id})
	s.stats.Invalidate(ctx)
	return nil
}

func (s *InspectionService) ListTasks(ctx context.Context) ([]domain.TaskSummary, error) {
	return s.tasks.ListAll(ctx)
}

// SetTasksVisibility hides or shows tasks in bulk. Hidden tasks stay in the
// database but drop out of the dashboard and month statistics.
func (s *InspectionService) SetTasksVisibility(ctx context.Context, ids []int64, action string) error {
	var active bool
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "show":
		active = true
	case "hide":
		active = false
	default:
		return fmt.Errorf("%w: action must be hide or show", domain.ErrValidation)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.tasks.SetActive(ctx, ids, active); err != nil {
		return err
	}
	s.events.Emit(ctx, "task.updated", map[string]any{"ids": ids, "active": active})
	s.stats.Invalidate(ctx)
	return nil
}

// ToggleItem flips the completion flag of a checklist item for one
// (year, month) pair and returns the new status.
func (s *InspectionService) ToggleItem(ctx context.Context, taskID, itemID int64, year, month int) (bool, error) {
	if err := validateYearMonth(year, month); err != nil {
		return false, err
	}
	items, err := s.items.ListItems(ctx, taskID)
	if err != nil {
		return false, err
	}
	found := false
	for _, item := range items {
		if item.ID == itemID {
			found = true
			break
		}
	}
	if !found {
		return false, fmt.Errorf("%w: checklist item %d on task %d", domain.ErrNotFound, itemID, taskID)
	}

	completed, err := s.items.ToggleCompletion(ctx, itemID, year, month)
	if err != nil {
		return false, err
	}
	s.events.Emit(ctx, "item.toggled", map[string]any{
		"task_id": taskID, "item_id": itemID, "year": year, "month": month, "completed": completed,
	})
	s.stats.Invalidate(ctx)
	return completed, nil
}

func validateYearMonth(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", domain.ErrValidation)
	}
	if year < 1 {
		return fmt.Errorf("%w: year is required", domain.ErrValidation)
	}
	return nil
}

func normalized(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// annotateTask attaches per-month completion status to a task's checklist,
// creating missing completion records on first sight.
func annotateTask(ctx context.Context, store ChecklistStore, task domain.Task, year, month int) (domain.DashboardTask, error) {
	items, err := store.ListItems(ctx, task.ID)
	if err != nil {
		return domain.DashboardTask{}, err
	}
	annotated := domain.DashboardTask{Task: task, Items: make([]domain.ItemStatus, 0, len(items))}
	for _, item := range items {
		completed, err := store.EnsureCompletion(ctx, item.ID, year, month)
		if err != nil {
			return domain.DashboardTask{}, err
		}
		if !completed {
			annotated.IncompleteCount++
		}
		annotated.Items = append(annotated.Items, domain.ItemStatus{ChecklistItem: item, Completed: completed})
	}
	annotated.Overdue = annotated.IncompleteCount > 0
	return annotated, nil
}
