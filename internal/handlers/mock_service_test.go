package handlers

import (
	"context"
	"sync"
	"time"

	"memory_console"
	"memory_console/internal/livestore"
	"memory_console/internal/models"
	"memory_console/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockMemories struct {
	list      []models.IfMemory
	got       models.IfMemory
	err       error
	report    service.ValidationReport
	lastID    string
	lastInput models.IfMemory
	enabled   *bool
	deleted   []string
}

func (m *mockMemories) Create(ctx context.Context, in models.IfMemory) (models.IfMemory, error) {
	m.lastInput = in
	if m.err != nil {
		return models.IfMemory{}, m.err
	}
	if in.ID == "" {
		in.ID = "generated"
	}
	return in, nil
}
func (m *mockMemories) Update(ctx context.Context, id string, in models.IfMemory) (models.IfMemory, error) {
	m.lastID, m.lastInput = id, in
	if m.err != nil {
		return models.IfMemory{}, m.err
	}
	in.ID = id
	return in, nil
}
func (m *mockMemories) Get(ctx context.Context, id string) (models.IfMemory, error) {
	m.lastID = id
	return m.got, m.err
}
func (m *mockMemories) List(ctx context.Context) ([]models.IfMemory, error) {
	return m.list, m.err
}
func (m *mockMemories) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}
func (m *mockMemories) SetEnabled(ctx context.Context, id string, enabled bool) (models.IfMemory, error) {
	m.lastID, m.enabled = id, &enabled
	out := m.got
	out.Disabled = !enabled
	return out, m.err
}
func (m *mockMemories) Check(ctx context.Context, in models.IfMemory) service.ValidationReport {
	m.lastInput = in
	return m.report
}

type mockCatalog struct {
	points    []models.Point
	variables []models.GlobalVariable
	values    []livestore.Value
	err       error

	savedPoint    models.Point
	savedVariable models.GlobalVariable
	sampledID     string
	sampled       models.Scalar
	setName       string
	setValue      models.Scalar
	deleted       []string
}

func (m *mockCatalog) SavePoint(ctx context.Context, p models.Point) error {
	m.savedPoint = p
	return m.err
}
func (m *mockCatalog) ListPoints(ctx context.Context) ([]models.Point, error) {
	return m.points, m.err
}
func (m *mockCatalog) DeletePoint(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}
func (m *mockCatalog) SaveVariable(ctx context.Context, v models.GlobalVariable) error {
	m.savedVariable = v
	return m.err
}
func (m *mockCatalog) ListVariables(ctx context.Context) ([]models.GlobalVariable, error) {
	return m.variables, m.err
}
func (m *mockCatalog) DeleteVariable(ctx context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	return m.err
}
func (m *mockCatalog) Sample(ctx context.Context, id string, v models.Scalar) error {
	m.sampledID, m.sampled = id, v
	return m.err
}
func (m *mockCatalog) SetVariable(ctx context.Context, name string, v models.Scalar) error {
	m.setName, m.setValue = name, v
	return m.err
}
func (m *mockCatalog) Values(ctx context.Context) []livestore.Value { return m.values }
func (m *mockCatalog) Load(ctx context.Context) error              { return m.err }

type mockMonitoring struct {
	mu       sync.Mutex
	statuses []memory_console.InstanceStatus
	err      error
	calls    int
}

func (m *mockMonitoring) Statuses(ctx context.Context) []memory_console.InstanceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.statuses
}
func (m *mockMonitoring) Status(ctx context.Context, id string) (memory_console.InstanceStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return memory_console.InstanceStatus{}, m.err
	}
	for _, st := range m.statuses {
		if st.ID == id {
			return st, nil
		}
	}
	return memory_console.InstanceStatus{}, models.ErrNotFound
}

type mockTester struct {
	result    memory_console.TestConditionResult
	preview   memory_console.PreviewResult
	err       error
	lastTest  service.TestParams
	lastID    string
	lastInput models.IfMemory
}

func (m *mockTester) TestCondition(ctx context.Context, p service.TestParams) (memory_console.TestConditionResult, error) {
	m.lastTest = p
	return m.result, m.err
}
func (m *mockTester) Preview(ctx context.Context, in models.IfMemory) (memory_console.PreviewResult, error) {
	m.lastInput = in
	return m.preview, m.err
}
func (m *mockTester) PreviewStored(ctx context.Context, id string) (memory_console.PreviewResult, error) {
	m.lastID = id
	return m.preview, m.err
}

type mockEventLog struct {
	resp   []models.MemoryEvent
	err    error
	filter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.MemoryEvent, error) {
	m.filter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func ptr[T any](v T) *T { return &v }

var testTime = time.Date(2025, 8, 27, 12, 0, 0, 0, time.UTC)
