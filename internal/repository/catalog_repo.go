package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"memory_console/internal/models"
)

// CatalogSQLite persists point and global variable declarations.
// Live values are not stored here; they live in the live store.
type CatalogSQLite struct {
	db *sql.DB
}

func NewCatalogSQLite(db *sql.DB) *CatalogSQLite {
	return &CatalogSQLite{db: db}
}

var _ CatalogRepo = (*CatalogSQLite)(nil)

const (
	upsertPointSQL = `
		INSERT INTO points (id, name, kind, writable) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, kind=excluded.kind, writable=excluded.writable
	`
	selectPointsSQL = `SELECT id, name, kind, writable FROM points`
	deletePointSQL  = `DELETE FROM points WHERE id = ?`

	upsertVariableSQL = `
		INSERT INTO global_variables (name, kind, initial_value, description) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET kind=excluded.kind, initial_value=excluded.initial_value, description=excluded.description
	`
	selectVariablesSQL = `SELECT name, kind, initial_value, description FROM global_variables`
	deleteVariableSQL  = `DELETE FROM global_variables WHERE name = ?`
)

func (r *CatalogSQLite) SavePoint(ctx context.Context, p models.Point) error {
	if _, err := r.db.ExecContext(ctx, upsertPointSQL, p.ID, p.Name, string(p.Kind), p.Writable); err != nil {
		return fmt.Errorf("upsert point %q: %w", p.ID, err)
	}
	return nil
}

func (r *CatalogSQLite) GetPoint(ctx context.Context, id string) (models.Point, error) {
	p, err := scanPoint(r.db.QueryRowContext(ctx, selectPointsSQL+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Point{}, fmt.Errorf("point %q: %w", id, models.ErrNotFound)
	}
	return p, err
}

func (r *CatalogSQLite) ListPoints(ctx context.Context) ([]models.Point, error) {
	rows, err := r.db.QueryContext(ctx, selectPointsSQL+` ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Point, 0, 32)
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogSQLite) DeletePoint(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deletePointSQL, id)
	if err != nil {
		return fmt.Errorf("delete point %q: %w", id, err)
	}
	return expectOneRow(res, "point", id)
}

func (r *CatalogSQLite) SaveVariable(ctx context.Context, v models.GlobalVariable) error {
	if _, err := r.db.ExecContext(ctx, upsertVariableSQL,
		v.Name, v.Kind.String(), v.InitialValue.AsNumber(), v.Description,
	); err != nil {
		return fmt.Errorf("upsert global variable %q: %w", v.Name, err)
	}
	return nil
}

func (r *CatalogSQLite) GetVariable(ctx context.Context, name string) (models.GlobalVariable, error) {
	v, err := scanVariable(r.db.QueryRowContext(ctx, selectVariablesSQL+` WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.GlobalVariable{}, fmt.Errorf("global variable %q: %w", name, models.ErrNotFound)
	}
	return v, err
}

func (r *CatalogSQLite) ListVariables(ctx context.Context) ([]models.GlobalVariable, error) {
	rows, err := r.db.QueryContext(ctx, selectVariablesSQL+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.GlobalVariable, 0, 16)
	for rows.Next() {
		v, err := scanVariable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *CatalogSQLite) DeleteVariable(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, deleteVariableSQL, name)
	if err != nil {
		return fmt.Errorf("delete global variable %q: %w", name, err)
	}
	return expectOneRow(res, "global variable", name)
}

func scanPoint(row rowScanner) (models.Point, error) {
	var (
		p    models.Point
		kind string
	)
	if err := row.Scan(&p.ID, &p.Name, &kind, &p.Writable); err != nil {
		return models.Point{}, err
	}
	p.Kind = models.PointKind(kind)
	return p, nil
}

// scanVariable restores the initial value in the variable's own kind;
// it is stored as REAL (bools as 0/1).
func scanVariable(row rowScanner) (models.GlobalVariable, error) {
	var (
		v       models.GlobalVariable
		kind    string
		initial float64
		desc    sql.NullString
	)
	if err := row.Scan(&v.Name, &kind, &initial, &desc); err != nil {
		return models.GlobalVariable{}, err
	}
	if err := v.Kind.UnmarshalText([]byte(kind)); err != nil {
		return models.GlobalVariable{}, fmt.Errorf("global variable %q: %w", v.Name, err)
	}
	v.InitialValue = models.Number(initial).Convert(v.Kind)
	v.Description = desc.String
	return v, nil
}
