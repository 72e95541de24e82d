// Package retirement derives upcoming-retirement alerts from employee records.
package retirement

import (
	"math"
	"sort"
	"strings"
	"time"

	"commission/internal/employee/models"
	dErrors "commission/pkg/domain-errors"
)

// Priority classifies how soon an employee retires.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityWarning  Priority = "warning"
	PriorityNormal   Priority = "normal"
)

// Window thresholds in days, inclusive.
const (
	criticalDays = 30
	warningDays  = 90
	normalDays   = 180
)

// ParsePriority validates a priority from external input. Empty is allowed
// and means no filter.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PriorityCritical, PriorityWarning, PriorityNormal:
		return p, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid alert priority: "+s)
}

// Alert is one employee due to retire within the alert horizon.
type Alert struct {
	EmployeeID     string   `json:"employeeId"`
	Name           string   `json:"name"`
	Position       string   `json:"position"`
	Department     string   `json:"department"`
	RetirementDate string   `json:"retirementDate"`
	DaysRemaining  int      `json:"daysRemaining"`
	Priority       Priority `json:"priority"`
}

type Filter struct {
	Priority   Priority
	Department string
}

// Classify returns the priority for days remaining, or false when the date is
// past or beyond the horizon.
func Classify(days int) (Priority, bool) {
	switch {
	case days < 0:
		return "", false
	case days <= criticalDays:
		return PriorityCritical, true
	case days <= warningDays:
		return PriorityWarning, true
	case days <= normalDays:
		return PriorityNormal, true
	}
	return "", false
}

// DaysUntil rounds the remaining time up to whole days.
func DaysUntil(date, now time.Time) int {
	return int(math.Ceil(date.Sub(now).Hours() / 24))
}

// Alerts lists employees retiring within the horizon, soonest first.
func Alerts(employees []*models.Employee, now time.Time, filter Filter) []Alert {
	var out []Alert
	for _, e := range employees {
		date, ok := e.RetirementTime()
		if !ok {
			continue
		}
		days := DaysUntil(date, now)
		priority, ok := Classify(days)
		if !ok {
			continue
		}
		if filter.Priority != "" && priority != filter.Priority {
			continue
		}
		if filter.Department != "" && !strings.EqualFold(e.Department, filter.Department) {
			continue
		}
		out = append(out, Alert{
			EmployeeID:     e.ID,
			Name:           e.Name,
			Position:       e.Position,
			Department:     e.Department,
			RetirementDate: e.RetirementDate,
			DaysRemaining:  days,
			Priority:       priority,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysRemaining != out[j].DaysRemaining {
			return out[i].DaysRemaining < out[j].DaysRemaining
		}
		return out[i].Name < out[j].Name
	})
	return out
}
