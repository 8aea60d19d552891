package service

import (
	"context"
	"fmt"
	"memory_console/internal/livestore"
	"memory_console/internal/metrics"
	"memory_console/internal/models"
	"memory_console/internal/repository"
	"strings"
)

var (
	errPointID      = inputError("point id is required and must not contain ':'")
	errPointName    = inputError("point name is required")
	errPointKind    = inputError("point kind must be Digital or Analog")
	errVariableName = inputError("global variable name must be a valid identifier")
)

type CatalogService struct {
	repo    repository.CatalogRepo
	store   LiveStore
	metrics *metrics.Metrics
}

func NewCatalogService(repo repository.CatalogRepo, store LiveStore, m *metrics.Metrics) *CatalogService {
	return &CatalogService{repo: repo, store: store, metrics: m}
}

// SavePoint declares or updates a point; the live store picks it up immediately.
func (s *CatalogService) SavePoint(ctx context.Context, p models.Point) error {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.ID == "" || strings.Contains(p.ID, ":"):
		return errPointID
	case p.Name == "":
		return errPointName
	case p.Kind != models.PointDigital && p.Kind != models.PointAnalog:
		return errPointKind
	}
	if err := s.repo.SavePoint(ctx, p); err != nil {
		return err
	}
	s.store.DeclarePoint(p)
	return nil
}

func (s *CatalogService) ListPoints(ctx context.Context) ([]models.Point, error) {
	return s.repo.ListPoints(ctx)
}

func (s *CatalogService) DeletePoint(ctx context.Context, id string) error {
	if err := s.repo.DeletePoint(ctx, id); err != nil {
		return err
	}
	s.store.RemovePoint(id)
	return nil
}

func (s *CatalogService) SaveVariable(ctx context.Context, v models.GlobalVariable) error {
	v.Name = strings.TrimSpace(v.Name)
	if !models.ValidAlias(v.Name) {
		return errVariableName
	}
	v.InitialValue = v.InitialValue.Convert(v.Kind)
	if err := s.repo.SaveVariable(ctx, v); err != nil {
		return err
	}
	s.store.DeclareVariable(v)
	return nil
}

func (s *CatalogService) ListVariables(ctx context.Context) ([]models.GlobalVariable, error) {
	return s.repo.ListVariables(ctx)
}

func (s *CatalogService) DeleteVariable(ctx context.Context, name string) error {
	if err := s.repo.DeleteVariable(ctx, name); err != nil {
		return err
	}
	s.store.RemoveVariable(name)
	return nil
}

// Sample records a field reading for a declared point.
func (s *CatalogService) Sample(_ context.Context, pointID string, v models.Scalar) error {
	if err := s.store.Sample(pointID, v); err != nil {
		return err
	}
	s.metrics.PointSampled()
	return nil
}

// SetVariable overwrites the current value of a global variable, converted to its kind.
func (s *CatalogService) SetVariable(ctx context.Context, name string, v models.Scalar) error {
	ref := models.GlobalVariableRef(name)
	kind, err := s.store.Describe(ctx, ref)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, ref, v.Convert(kind))
}

func (s *CatalogService) Values(context.Context) []livestore.Value {
	return s.store.Values()
}

// Load declares every persisted point and variable in the live store.
func (s *CatalogService) Load(ctx context.Context) error {
	points, err := s.repo.ListPoints(ctx)
	if err != nil {
		return fmt.Errorf("load points: %w", err)
	}
	for _, p := range points {
		s.store.DeclarePoint(p)
	}
	vars, err := s.repo.ListVariables(ctx)
	if err != nil {
		return fmt.Errorf("load global variables: %w", err)
	}
	for _, v := range vars {
		s.store.DeclareVariable(v)
	}
	return nil
}
