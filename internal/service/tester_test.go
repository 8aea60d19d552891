package service

import (
	"context"
	"errors"
	"testing"

	"memory_console"
	"memory_console/internal/models"
)

func TestTesterService_TestCondition_RejectsMalformed(t *testing.T) {
	t.Parallel()
	svc := NewTesterService(newFakeMemoryRepo(), &fakeEngine{})
	ctx := context.Background()

	cases := []TestParams{
		{Condition: " "},
		{Condition: "[a]", Bindings: []models.VariableBinding{{Alias: "1a", Source: models.PointRef("x")}}},
		{Condition: "[a]", Bindings: []models.VariableBinding{
			{Alias: "a", Source: models.PointRef("x")},
			{Alias: "a", Source: models.PointRef("y")},
		}},
		{Condition: "[a]", Bindings: []models.VariableBinding{{Alias: "a", Source: models.PointRef("")}}},
	}
	for i, p := range cases {
		if _, err := svc.TestCondition(ctx, p); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestTesterService_TestCondition_Delegates(t *testing.T) {
	t.Parallel()
	eng := &fakeEngine{testResult: memory_console.TestConditionResult{Valid: true, Result: true}}
	svc := NewTesterService(newFakeMemoryRepo(), eng)

	res, err := svc.TestCondition(context.Background(), TestParams{
		Condition: "[a]",
		Bindings:  []models.VariableBinding{{Alias: "a", Source: models.GlobalVariableRef("flag")}},
	})
	if err != nil {
		t.Fatalf("TestCondition: %v", err)
	}
	if !res.Valid || !res.Result {
		t.Fatalf("result = %+v", res)
	}
}

func TestTesterService_Preview(t *testing.T) {
	t.Parallel()
	stored := heaterDefinition()
	stored.ID = "mem-1"
	stored.Disabled = true
	eng := &fakeEngine{previewResult: memory_console.PreviewResult{Value: 1}}
	svc := NewTesterService(newFakeMemoryRepo(stored), eng)
	ctx := context.Background()

	invalid := heaterDefinition()
	invalid.OutputType = ""
	if _, err := svc.Preview(ctx, invalid); err == nil {
		t.Fatal("expected validation error")
	}

	res, err := svc.PreviewStored(ctx, "mem-1")
	if err != nil {
		t.Fatalf("PreviewStored: %v", err)
	}
	if res.Value != 1 || len(eng.previewed) != 1 || eng.previewed[0].ID != "mem-1" {
		t.Fatalf("preview = %+v, previewed = %d", res, len(eng.previewed))
	}

	if _, err := svc.PreviewStored(ctx, "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
