package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/mo"
)

var (
	ErrInvalidPriority = errors.New("model: invalid work item priority")
	ErrInvalidDuration = errors.New("model: invalid work item duration")
)

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// ParsePriority is case-insensitive and maps the empty string to Medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "", "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

// WorkItem is an unscheduled task waiting for a time slot.
type WorkItem struct {
	ID              string
	Title           string
	DurationMinutes int
	Priority        Priority
	Deadline        mo.Option[Date]
}

func (w WorkItem) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return errors.New("model: work item id is required")
	}
	if w.DurationMinutes <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, w.DurationMinutes)
	}
	if !w.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, w.Priority)
	}
	return nil
}
