package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/calplan/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateTemplate(ctx context.Context, in model.Template) error
	GetTemplate(ctx context.Context, id string) (model.Template, error)
	UpdateTemplate(ctx context.Context, in model.Template) error
	DeleteTemplate(ctx context.Context, id string) error
	ListTemplates(ctx context.Context, filter TemplateListFilter) ([]model.Template, error)

	CreateFixedEvent(ctx context.Context, in model.DatedEvent) error
	GetFixedEvent(ctx context.Context, id string) (model.DatedEvent, error)
	DeleteFixedEvent(ctx context.Context, id string) error
	ListFixedEvents(ctx context.Context, filter FixedEventListFilter) ([]model.DatedEvent, error)

	CreateWorkItem(ctx context.Context, in model.WorkItem) error
	GetWorkItem(ctx context.Context, id string) (model.WorkItem, error)
	UpdateWorkItem(ctx context.Context, in model.WorkItem) error
	DeleteWorkItem(ctx context.Context, id string) error
	ListWorkItems(ctx context.Context, filter WorkItemListFilter) ([]model.WorkItem, error)

	Import(ctx context.Context, in Snapshot) error
	Snapshot(ctx context.Context) (Snapshot, error)
}
