package storage

import "github.com/sandeepkv93/calplan/internal/model"

// Snapshot is everything the planner reads from a store in one pass.
type Snapshot struct {
	Templates []model.Template
	Events    []model.DatedEvent
	Items     []model.WorkItem
}

type TemplateListFilter struct {
	// Until keeps templates whose base date is on or before it. Later
	// templates cannot produce occurrences in a window ending at Until.
	Until  model.Date
	Limit  int
	Offset int
}

type FixedEventListFilter struct {
	From   model.Date
	To     model.Date
	Limit  int
	Offset int
}

type WorkItemListFilter struct {
	Priority model.Priority
	Limit    int
	Offset   int
}
