package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"memory_console/internal/models"
	"memory_console/internal/service"
)

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const heaterJSON = `{
	"name": "heater",
	"branches": [{"condition": "[temp] < [sp]", "output_value": 1, "hysteresis": 2}],
	"bindings": [{"alias": "temp", "source": "P:ai-1"}, {"alias": "sp", "source": "GV:setpoint"}],
	"default_value": 0,
	"output_destination": "P:do-1",
	"output_type": "Digital",
	"interval": 1
}`

func TestMemoryHandlers_CreateDecodesDefinition(t *testing.T) {
	mem := &mockMemories{}
	r := newTestRouter(&service.Service{Memories: mem})

	w := doJSON(t, r, http.MethodPost, "/api/v1/memories", heaterJSON)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d, body=%s", w.Code, w.Body.String())
	}
	in := mem.lastInput
	if in.Name != "heater" || len(in.Branches) != 1 || in.Branches[0].Hysteresis != 2 {
		t.Fatalf("unexpected input: %+v", in)
	}
	if in.Bindings[1].Source != models.GlobalVariableRef("setpoint") {
		t.Fatalf("binding source not decoded: %+v", in.Bindings[1])
	}
	if in.OutputDestination != models.PointRef("do-1") || in.OutputType != models.OutputDigital {
		t.Fatalf("output not decoded: %+v %s", in.OutputDestination, in.OutputType)
	}
	var out models.IfMemory
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != "generated" {
		t.Fatalf("expected generated id, got %q", out.ID)
	}
}

func TestMemoryHandlers_BadBody(t *testing.T) {
	r := newTestRouter(&service.Service{Memories: &mockMemories{}})
	w := doJSON(t, r, http.MethodPost, "/api/v1/memories", `{"name": `)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestMemoryHandlers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.ValidationErrors{{Field: "interval", Message: "must be >= 1, got 0"}}, http.StatusBadRequest},
		{"invalid_input", fmt.Errorf("bindings[0]: %w", service.ErrInvalidInput), http.StatusBadRequest},
		{"not_found", fmt.Errorf("if-memory %q: %w", "x", models.ErrNotFound), http.StatusNotFound},
		{"exists", models.ErrAlreadyExists, http.StatusConflict},
		{"type_mismatch", models.ErrTypeMismatch, http.StatusUnprocessableEntity},
		{"not_writable", models.ErrNotWritable, http.StatusUnprocessableEntity},
		{"internal", fmt.Errorf("disk I/O error"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Memories: &mockMemories{err: tc.err}})
			w := doJSON(t, r, http.MethodPut, "/api/v1/memories/m-1", heaterJSON)
			if w.Code != tc.want {
				t.Fatalf("got %d, want %d; body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestMemoryHandlers_ValidationErrorsListed(t *testing.T) {
	verrs := models.ValidationErrors{
		{Field: "name", Message: "is required"},
		{Field: "interval", Message: "must be >= 1, got 0"},
	}
	r := newTestRouter(&service.Service{Memories: &mockMemories{err: verrs}})
	w := doJSON(t, r, http.MethodPost, "/api/v1/memories", heaterJSON)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var out struct {
		Errors []models.ValidationError `json:"errors"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if len(out.Errors) != 2 || out.Errors[1].Field != "interval" {
		t.Fatalf("unexpected errors: %+v", out.Errors)
	}
}

func TestMemoryHandlers_InternalErrorIsHidden(t *testing.T) {
	r := newTestRouter(&service.Service{Memories: &mockMemories{err: fmt.Errorf("database is locked")}})
	w := doJSON(t, r, http.MethodGet, "/api/v1/memories", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("locked")) {
		t.Fatalf("internal detail leaked: %s", w.Body.String())
	}
}

func TestMemoryHandlers_ListGetDelete(t *testing.T) {
	mem := &mockMemories{
		list: []models.IfMemory{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}},
		got:  models.IfMemory{ID: "a", Name: "a"},
	}
	r := newTestRouter(&service.Service{Memories: mem})

	w := doJSON(t, r, http.MethodGet, "/api/v1/memories", "")
	var list struct {
		Count    int               `json:"count"`
		Memories []models.IfMemory `json:"memories"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if w.Code != http.StatusOK || list.Count != 2 || len(list.Memories) != 2 {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/memories/a", "")
	if w.Code != http.StatusOK || mem.lastID != "a" {
		t.Fatalf("get status=%d, lastID=%q", w.Code, mem.lastID)
	}

	w = doJSON(t, r, http.MethodDelete, "/api/v1/memories/a", "")
	if w.Code != http.StatusOK || len(mem.deleted) != 1 || mem.deleted[0] != "a" {
		t.Fatalf("delete status=%d, deleted=%v", w.Code, mem.deleted)
	}
}

func TestMemoryHandlers_EnableDisable(t *testing.T) {
	mem := &mockMemories{got: models.IfMemory{ID: "a", Name: "a"}}
	r := newTestRouter(&service.Service{Memories: mem})

	w := doJSON(t, r, http.MethodPost, "/api/v1/memories/a/disable", "")
	if w.Code != http.StatusOK || mem.enabled == nil || *mem.enabled {
		t.Fatalf("disable status=%d enabled=%v", w.Code, mem.enabled)
	}
	var out models.IfMemory
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if !out.Disabled {
		t.Fatalf("expected disabled definition in response: %+v", out)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/memories/a/enable", "")
	if w.Code != http.StatusOK || !*mem.enabled {
		t.Fatalf("enable status=%d enabled=%v", w.Code, *mem.enabled)
	}
}

func TestMemoryHandlers_ValidateReturnsReport(t *testing.T) {
	mem := &mockMemories{report: service.ValidationReport{
		Valid:    false,
		Errors:   models.ValidationErrors{{Field: "output_destination", Message: "kind mismatch"}},
		Warnings: []string{"binding \"sp\" is not used by any condition"},
	}}
	r := newTestRouter(&service.Service{Memories: mem})

	w := doJSON(t, r, http.MethodPost, "/api/v1/memories/validate", heaterJSON)
	if w.Code != http.StatusOK {
		t.Fatalf("validate status=%d, body=%s", w.Code, w.Body.String())
	}
	var rep service.ValidationReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rep.Valid || len(rep.Errors) != 1 || len(rep.Warnings) != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if mem.lastInput.Name != "heater" {
		t.Fatalf("definition not passed to Check: %+v", mem.lastInput)
	}
}
