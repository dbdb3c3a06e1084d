package domain

import (
	"strconv"
	"strings"
)

type ScheduleType string

const (
	ScheduleMonthly   ScheduleType = "monthly"
	ScheduleQuarterly ScheduleType = "quarterly"
	ScheduleCustom    ScheduleType = "custom"
)

func (t ScheduleType) Valid() bool {
	return t == ScheduleMonthly || t == ScheduleQuarterly || t == ScheduleCustom
}

// Schedule decides which months of the year a task is due. Monthly tasks
// are due every month; quarterly and custom tasks are due in the months
// listed in Detail as a comma-separated list, e.g. "1,4,7,10".
type Schedule struct {
	Type   ScheduleType `json:"type"`
	Detail string       `json:"detail,omitempty"`
}

func (s Schedule) DueInMonth(month int) bool {
	if month < 1 || month > 12 {
		return false
	}
	if s.Type == ScheduleMonthly {
		return true
	}
	for _, m := range ParseMonthList(s.Detail) {
		if m == month {
			return true
		}
	}
	return false
}

// ParseMonthList converts a comma-separated list of month numbers into a
// slice of ints. Entries that are not numbers or fall outside 1..12 are
// dropped rather than rejected.
func ParseMonthList(detail string) []int {
	if strings.TrimSpace(detail) == "" {
		return nil
	}
	parts := strings.Split(detail, ",")
	months := make([]int, 0, len(parts))
	for _, part := range parts {
		raw := strings.TrimSpace(part)
		if raw == "" {
			continue
		}
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			continue
		}
		months = append(months, m)
	}
	return months
}
