package service

import (
	"context"
	"memory_console"
	"memory_console/internal/livestore"
	"memory_console/internal/logger"
	"memory_console/internal/metrics"
	"memory_console/internal/models"
	"memory_console/internal/repository"
)

// Memories manages IfMemory definitions and keeps the engine in sync with them.
type Memories interface {
	Create(ctx context.Context, m models.IfMemory) (models.IfMemory, error)
	Update(ctx context.Context, id string, m models.IfMemory) (models.IfMemory, error)
	Get(ctx context.Context, id string) (models.IfMemory, error)
	List(ctx context.Context) ([]models.IfMemory, error)
	Delete(ctx context.Context, id string) error
	SetEnabled(ctx context.Context, id string, enabled bool) (models.IfMemory, error)
	Check(ctx context.Context, m models.IfMemory) ValidationReport
}

// Catalog manages point and global variable declarations and their live values.
type Catalog interface {
	SavePoint(ctx context.Context, p models.Point) error
	ListPoints(ctx context.Context) ([]models.Point, error)
	DeletePoint(ctx context.Context, id string) error
	SaveVariable(ctx context.Context, v models.GlobalVariable) error
	ListVariables(ctx context.Context) ([]models.GlobalVariable, error)
	DeleteVariable(ctx context.Context, name string) error

	Sample(ctx context.Context, pointID string, v models.Scalar) error
	SetVariable(ctx context.Context, name string, v models.Scalar) error
	Values(ctx context.Context) []livestore.Value
	Load(ctx context.Context) error
}

// Monitoring exposes read-only runtime state of the instances.
type Monitoring interface {
	Statuses(ctx context.Context) []memory_console.InstanceStatus
	Status(ctx context.Context, id string) (memory_console.InstanceStatus, error)
}

// Tester runs dry evaluations that never commit.
type Tester interface {
	TestCondition(ctx context.Context, p TestParams) (memory_console.TestConditionResult, error)
	Preview(ctx context.Context, m models.IfMemory) (memory_console.PreviewResult, error)
	PreviewStored(ctx context.Context, id string) (memory_console.PreviewResult, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.MemoryEvent, error)
}

// Runtime loads persisted definitions into the engine and keeps it running
// until ctx is cancelled.
type Runtime interface {
	Run(ctx context.Context) error
}

type Service struct {
	Memories
	Catalog
	Monitoring
	Tester
	EventLog
	Runtime
}

// Deps carries the live side shared by the services.
type Deps struct {
	Engine  Engine
	Store   LiveStore
	Checker ConditionChecker
	Metrics *metrics.Metrics
	Log     *logger.Logger
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	catalog := NewCatalogService(repos.CatalogRepo, deps.Store, deps.Metrics)
	memories := NewMemoryService(repos.MemoryRepo, repos.EventRepo, deps.Engine, deps.Store, deps.Checker, deps.Log)
	return &Service{
		Memories:   memories,
		Catalog:    catalog,
		Monitoring: NewMonitoringService(deps.Engine),
		Tester:     NewTesterService(repos.MemoryRepo, deps.Engine),
		EventLog:   NewEventLogService(repos.EventRepo),
		Runtime:    NewRuntimeService(catalog, repos.MemoryRepo, deps.Engine, deps.Log),
	}
}
