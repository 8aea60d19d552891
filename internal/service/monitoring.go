package service

import (
	"context"
	"fmt"
	"memory_console"
	"memory_console/internal/models"
)

type MonitoringService struct {
	engine Engine
}

func NewMonitoringService(engine Engine) *MonitoringService {
	return &MonitoringService{engine: engine}
}

// Statuses returns the runtime status of every loaded instance, by name.
func (s *MonitoringService) Statuses(context.Context) []memory_console.InstanceStatus {
	return s.engine.Statuses()
}

func (s *MonitoringService) Status(_ context.Context, id string) (memory_console.InstanceStatus, error) {
	st, ok := s.engine.Status(id)
	if !ok {
		return memory_console.InstanceStatus{}, fmt.Errorf("instance %q: %w", id, models.ErrNotFound)
	}
	return st, nil
}
