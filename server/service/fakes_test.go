package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"inspection_server/server/domain"
)

// memData is an in-memory stand-in for the database, shared by the fake
// stores below so the service layer can be exercised without Postgres.
type memData struct {
	mu          sync.Mutex
	nextID      int64
	companies   map[int64]domain.Company
	tasks       map[int64]domain.Task
	items       map[int64]domain.ChecklistItem
	completions map[completionID]bool
}

type completionID struct {
	item  int64
	year  int
	month int
}

func newMemData() *memData {
	return &memData{
		companies:   map[int64]domain.Company{},
		tasks:       map[int64]domain.Task{},
		items:       map[int64]domain.ChecklistItem{},
		completions: map[completionID]bool{},
	}
}

func (d *memData) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *memData) fillCompany(t *domain.Task) {
	if c, ok := d.companies[t.CompanyID]; ok {
		t.CompanyName = c.Name
		t.CompanySubName = c.SubName
	}
}

type fakeCompanyStore struct{ d *memData }

func (s fakeCompanyStore) Create(ctx context.Context, name string, subName *string) (domain.Company, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	c := domain.Company{ID: s.d.id(), Name: name, SubName: subName}
	s.d.companies[c.ID] = c
	return c, nil
}

func (s fakeCompanyStore) List(ctx context.Context) ([]domain.Company, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := make([]domain.Company, 0, len(s.d.companies))
	for _, c := range s.d.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s fakeCompanyStore) Get(ctx context.Context, id int64) (domain.Company, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	c, ok := s.d.companies[id]
	if !ok {
		return domain.Company{}, fmt.Errorf("%w: company %d", domain.ErrNotFound, id)
	}
	return c, nil
}

type fakeTaskStore struct{ d *memData }

func (s fakeTaskStore) Create(ctx context.Context, t domain.Task) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	t.ID = s.d.id()
	t.Active = true
	t.CreatedAt = time.Now()
	s.d.tasks[t.ID] = t
	return t.ID, nil
}

func (s fakeTaskStore) Get(ctx context.Context, id int64) (domain.Task, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	t, ok := s.d.tasks[id]
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	s.d.fillCompany(&t)
	return t, nil
}

func (s fakeTaskStore) ListActive(ctx context.Context) ([]domain.Task, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := make([]domain.Task, 0, len(s.d.tasks))
	for _, t := range s.d.tasks {
		if !t.Active {
			continue
		}
		s.d.fillCompany(&t)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s fakeTaskStore) ListAll(ctx context.Context) ([]domain.TaskSummary, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	out := make([]domain.TaskSummary, 0, len(s.d.tasks))
	for _, t := range s.d.tasks {
		s.d.fillCompany(&t)
		summary := domain.TaskSummary{Task: t}
		for _, item := range s.d.items {
			if item.TaskID != t.ID {
				continue
			}
			for key, done := range s.d.completions {
				if done && key.item == item.ID {
					summary.CompletedCount++
				}
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s fakeTaskStore) Update(ctx context.Context, t domain.Task) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	existing, ok := s.d.tasks[t.ID]
	if !ok {
		return fmt.Errorf("%w: task %d", domain.ErrNotFound, t.ID)
	}
	t.Active = existing.Active
	t.CreatedAt = existing.CreatedAt
	s.d.tasks[t.ID] = t
	return nil
}

func (s fakeTaskStore) Delete(ctx context.Context, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.tasks[id]; !ok {
		return fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	delete(s.d.tasks, id)
	for itemID, item := range s.d.items {
		if item.TaskID == id {
			delete(s.d.items, itemID)
		}
	}
	return nil
}

func (s fakeTaskStore) SetActive(ctx context.Context, ids []int64, active bool) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, id := range ids {
		if t, ok := s.d.tasks[id]; ok {
			t.Active = active
			s.d.tasks[id] = t
		}
	}
	return nil
}

type fakeChecklistStore struct{ d *memData }

func (s fakeChecklistStore) InsertItem(ctx context.Context, item domain.ChecklistItem) (int64, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	item.ID = s.d.id()
	s.d.items[item.ID] = item
	return item.ID, nil
}

func (s fakeChecklistStore) ListItems(ctx context.Context, taskID int64) ([]domain.ChecklistItem, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.listItemsLocked(taskID), nil
}

func (s fakeChecklistStore) listItemsLocked(taskID int64) []domain.ChecklistItem {
	out := make([]domain.ChecklistItem, 0)
	for _, item := range s.d.items {
		if item.TaskID == taskID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderNum != out[j].OrderNum {
			return out[i].OrderNum < out[j].OrderNum
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s fakeChecklistStore) UpdateItem(ctx context.Context, id int64, description string, attachmentID *string, setAttachment bool) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	item, ok := s.d.items[id]
	if !ok {
		return fmt.Errorf("%w: checklist item %d", domain.ErrNotFound, id)
	}
	item.Description = description
	if setAttachment {
		item.AttachmentID = attachmentID
	}
	s.d.items[id] = item
	return nil
}

func (s fakeChecklistStore) DeleteItem(ctx context.Context, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.items[id]; !ok {
		return fmt.Errorf("%w: checklist item %d", domain.ErrNotFound, id)
	}
	delete(s.d.items, id)
	return nil
}

func (s fakeChecklistStore) Reorder(ctx context.Context, taskID int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for i, item := range s.listItemsLocked(taskID) {
		item.OrderNum = i
		s.d.items[item.ID] = item
	}
	return nil
}

func (s fakeChecklistStore) MaxOrder(ctx context.Context, taskID int64) (int, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	max := -1
	for _, item := range s.d.items {
		if item.TaskID == taskID && item.OrderNum > max {
			max = item.OrderNum
		}
	}
	return max, nil
}

func (s fakeChecklistStore) EnsureCompletion(ctx context.Context, itemID int64, year, month int) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	key := completionID{item: itemID, year: year, month: month}
	if done, ok := s.d.completions[key]; ok {
		return done, nil
	}
	s.d.completions[key] = false
	return false, nil
}

func (s fakeChecklistStore) ToggleCompletion(ctx context.Context, itemID int64, year, month int) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	key := completionID{item: itemID, year: year, month: month}
	s.d.completions[key] = !s.d.completions[key]
	return s.d.completions[key], nil
}
