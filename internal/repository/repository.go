package repository

import (
	"context"
	"database/sql"
	"memory_console/internal/models"
)

type MemoryRepo interface {
	Save(ctx context.Context, m models.IfMemory) error
	Get(ctx context.Context, id string) (models.IfMemory, error)
	List(ctx context.Context) ([]models.IfMemory, error)
	Delete(ctx context.Context, id string) error
	SetDisabled(ctx context.Context, id string, disabled bool) error
}

type CatalogRepo interface {
	SavePoint(ctx context.Context, p models.Point) error
	GetPoint(ctx context.Context, id string) (models.Point, error)
	ListPoints(ctx context.Context) ([]models.Point, error)
	DeletePoint(ctx context.Context, id string) error

	SaveVariable(ctx context.Context, v models.GlobalVariable) error
	GetVariable(ctx context.Context, name string) (models.GlobalVariable, error)
	ListVariables(ctx context.Context) ([]models.GlobalVariable, error)
	DeleteVariable(ctx context.Context, name string) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.MemoryEvent) error
	List(ctx context.Context, f EventFilter) ([]models.MemoryEvent, error)
}

type Repository struct {
	MemoryRepo  MemoryRepo
	CatalogRepo CatalogRepo
	EventRepo   EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		MemoryRepo:  NewMemorySQLite(db),
		CatalogRepo: NewCatalogSQLite(db),
		EventRepo:   NewEventSQLite(db),
	}
}
