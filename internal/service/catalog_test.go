package service

import (
	"context"
	"errors"
	"testing"

	"memory_console/internal/livestore"
	"memory_console/internal/metrics"
	"memory_console/internal/models"
)

func TestCatalogService_SavePoint_Validation(t *testing.T) {
	t.Parallel()
	svc := NewCatalogService(newFakeCatalogRepo(), livestore.New(), nil)
	ctx := context.Background()

	cases := []struct {
		p    models.Point
		want error
	}{
		{models.Point{ID: "", Name: "x", Kind: models.PointAnalog}, errPointID},
		{models.Point{ID: "P:1", Name: "x", Kind: models.PointAnalog}, errPointID},
		{models.Point{ID: "p1", Name: " ", Kind: models.PointAnalog}, errPointName},
		{models.Point{ID: "p1", Name: "x", Kind: "Pulse"}, errPointKind},
	}
	for _, c := range cases {
		if err := svc.SavePoint(ctx, c.p); !errors.Is(err, c.want) {
			t.Errorf("SavePoint(%+v) = %v, want %v", c.p, err, c.want)
		}
	}
}

func TestCatalogService_PointLifecycle(t *testing.T) {
	t.Parallel()
	repo := newFakeCatalogRepo()
	store := livestore.New()
	m := metrics.New()
	svc := NewCatalogService(repo, store, m)
	ctx := context.Background()

	if err := svc.SavePoint(ctx, models.Point{ID: "ai-1", Name: "Temp", Kind: models.PointAnalog}); err != nil {
		t.Fatalf("SavePoint: %v", err)
	}
	if err := svc.Sample(ctx, "ai-1", models.Number(20.5)); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	v, err := store.Get(ctx, models.PointRef("ai-1"))
	if err != nil || v.AsNumber() != 20.5 {
		t.Fatalf("store value = %v, %v", v, err)
	}
	if vals := svc.Values(ctx); len(vals) != 1 || vals[0].Ref != "P:ai-1" {
		t.Fatalf("values = %+v", vals)
	}

	if err := svc.DeletePoint(ctx, "ai-1"); err != nil {
		t.Fatalf("DeletePoint: %v", err)
	}
	if err := svc.Sample(ctx, "ai-1", models.Number(1)); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("sample after delete: want ErrNotFound, got %v", err)
	}
}

func TestCatalogService_Variables(t *testing.T) {
	t.Parallel()
	store := livestore.New()
	svc := NewCatalogService(newFakeCatalogRepo(), store, nil)
	ctx := context.Background()

	if err := svc.SaveVariable(ctx, models.GlobalVariable{Name: "bad name"}); !errors.Is(err, errVariableName) {
		t.Fatalf("want errVariableName, got %v", err)
	}
	if err := svc.SaveVariable(ctx, models.GlobalVariable{Name: "mode", Kind: models.KindBool, InitialValue: models.Number(1)}); err != nil {
		t.Fatalf("SaveVariable: %v", err)
	}
	// numbers written to a bool variable are converted
	if err := svc.SetVariable(ctx, "mode", models.Number(0)); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}
	v, _ := store.Get(ctx, models.GlobalVariableRef("mode"))
	if v != models.Bool(false) {
		t.Fatalf("mode = %v", v)
	}
	if err := svc.SetVariable(ctx, "nope", models.Number(0)); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCatalogService_Load(t *testing.T) {
	t.Parallel()
	repo := newFakeCatalogRepo()
	repo.points["do-1"] = models.Point{ID: "do-1", Name: "Heater", Kind: models.PointDigital, Writable: true}
	repo.variables["sp"] = models.GlobalVariable{Name: "sp", Kind: models.KindNumber, InitialValue: models.Number(5)}
	store := livestore.New()
	svc := NewCatalogService(repo, store, nil)
	ctx := context.Background()

	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if k, err := store.Describe(ctx, models.PointRef("do-1")); err != nil || k != models.KindBool {
		t.Fatalf("do-1 = %v, %v", k, err)
	}
	if v, err := store.Get(ctx, models.GlobalVariableRef("sp")); err != nil || v.AsNumber() != 5 {
		t.Fatalf("sp = %v, %v", v, err)
	}

	repo.listErr = errors.New("db down")
	if err := svc.Load(ctx); err == nil {
		t.Fatal("expected error")
	}
}
