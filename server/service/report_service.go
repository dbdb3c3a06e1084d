package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"inspection_server/server/domain"
)

type ReportService struct {
	companies CompanyStore
	tasks     TaskStore
	items     ChecklistStore
}

func NewReportService(companies CompanyStore, tasks TaskStore, items ChecklistStore) *ReportService {
	return &ReportService{companies: companies, tasks: tasks, items: items}
}

// ComposeMonthly builds the inspection result summary for one company and
// month: a subject line, a checklist body with per-item completion marks,
// the deduplicated recipient list, and a prefilled mailto link.
func (s *ReportService) ComposeMonthly(ctx context.Context, companyID int64, year, month int) (domain.Report, error) {
	if err := validateYearMonth(year, month); err != nil {
		return domain.Report{}, err
	}
	company, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return domain.Report{}, err
	}

	active, err := s.tasks.ListActive(ctx)
	if err != nil {
		return domain.Report{}, err
	}

	recipients := map[string]struct{}{}
	var lines []string
	for _, task := range active {
		if task.CompanyID != companyID || !task.Schedule.DueInMonth(month) {
			continue
		}
		if task.ContactEmail != nil && *task.ContactEmail != "" {
			recipients[*task.ContactEmail] = struct{}{}
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", taskLabel(task), typeLabel(task.Type)))

		annotated, err := annotateTask(ctx, s.items, task, year, month)
		if err != nil {
			return domain.Report{}, err
		}
		for _, item := range annotated.Items {
			mark := "✘"
			if item.Completed {
				mark = "✔"
			}
			lines = append(lines, fmt.Sprintf("    %s %s", mark, item.Description))
		}
		lines = append(lines, "")
	}

	sorted := make([]string, 0, len(recipients))
	for email := range recipients {
		sorted = append(sorted, email)
	}
	sort.Strings(sorted)

	subject := fmt.Sprintf("%s %d-%02d regular inspection results", company.Name, year, month)
	body := fmt.Sprintf("Regular inspection checklist results for %s, %d-%02d.\n\n%s",
		company.Name, year, month, strings.Join(lines, "\n"))

	return domain.Report{
		CompanyName: company.Name,
		Year:        year,
		Month:       month,
		Subject:     subject,
		Body:        body,
		Recipients:  sorted,
		MailtoLink:  mailtoLink(sorted, subject, body),
	}, nil
}

func taskLabel(task domain.Task) string {
	if task.DetailName != nil && *task.DetailName != "" {
		return *task.DetailName
	}
	if task.CompanySubName != nil && *task.CompanySubName != "" {
		return *task.CompanySubName
	}
	return task.CompanyName
}

func typeLabel(t domain.TaskType) string {
	if t == domain.TaskTypeOnSite {
		return "on-site inspection"
	}
	return "in-house inspection"
}

func mailtoLink(recipients []string, subject, body string) string {
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s",
		percentEncode(strings.Join(recipients, ",")),
		percentEncode(subject),
		percentEncode(body))
}

// percentEncode escapes for mailto URLs, where spaces must be %20 rather
// than the '+' that QueryEscape produces.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
