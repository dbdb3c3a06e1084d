package domain

import "time"

type TaskType string

const (
	TaskTypeInHouse TaskType = "INHOUSE"
	TaskTypeOnSite  TaskType = "ONSITE"
)

func (t TaskType) Valid() bool {
	return t == TaskTypeInHouse || t == TaskTypeOnSite
}

type SignatureMethod string

const (
	SignatureEmail SignatureMethod = "EMAIL"
	SignatureVisit SignatureMethod = "VISIT"
)

func (m SignatureMethod) Valid() bool {
	return m == SignatureEmail || m == SignatureVisit
}

// Attachment describes one stored file. The identifier is assigned at
// upload time and is immutable afterwards, as is the content it names.
type Attachment struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	HasThumbnail bool      `json:"has_thumbnail"`
	CreatedAt    time.Time `json:"created_at"`
}

type Company struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	SubName *string `json:"sub_name,omitempty"`
}

type Task struct {
	ID              int64           `json:"id"`
	CompanyID       int64           `json:"company_id"`
	CompanyName     string          `json:"company_name,omitempty"`
	CompanySubName  *string         `json:"company_sub_name,omitempty"`
	Type            TaskType        `json:"task_type"`
	SignatureMethod SignatureMethod `json:"signature_method"`
	Schedule        Schedule        `json:"schedule"`
	ContactName     *string         `json:"contact_name,omitempty"`
	ContactPhone    *string         `json:"contact_phone,omitempty"`
	ContactEmail    *string         `json:"contact_email,omitempty"`
	DetailName      *string         `json:"detail_name,omitempty"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TaskSummary is a task plus how many checklist completions it has
// accumulated across all years and months.
type TaskSummary struct {
	Task
	CompletedCount int `json:"completed_count"`
}

type ChecklistItem struct {
	ID           int64   `json:"id"`
	TaskID       int64   `json:"task_id"`
	Description  string  `json:"description"`
	AttachmentID *string `json:"attachment_id,omitempty"`
	OrderNum     int     `json:"order_num"`
}

// ItemStatus is a checklist item annotated with its completion state for
// one (year, month) pair.
type ItemStatus struct {
	ChecklistItem
	Completed bool `json:"completed"`
}

// DashboardTask is a task due in the selected month, annotated for display.
type DashboardTask struct {
	Task
	Items           []ItemStatus `json:"items"`
	IncompleteCount int          `json:"incomplete_count"`
	Overdue         bool         `json:"overdue"`
}

// MonthStat counts, for one month, how many due tasks are fully completed
// versus due in total.
type MonthStat struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Report is a composed monthly inspection summary for one company.
type Report struct {
	CompanyName string   `json:"company_name"`
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Recipients  []string `json:"recipients"`
	MailtoLink  string   `json:"mailto_link"`
}
