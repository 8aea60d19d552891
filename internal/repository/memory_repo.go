package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"memory_console/internal/models"
	"time"
)

type MemorySQLite struct {
	db *sql.DB
}

func NewMemorySQLite(db *sql.DB) *MemorySQLite {
	return &MemorySQLite{db: db}
}

var _ MemoryRepo = (*MemorySQLite)(nil)

const (
	upsertMemorySQL = `
		INSERT INTO if_memories (id, name, default_value, output_destination, output_type, interval, disabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			default_value=excluded.default_value,
			output_destination=excluded.output_destination,
			output_type=excluded.output_type,
			interval=excluded.interval,
			disabled=excluded.disabled,
			updated_at=excluded.updated_at
	`
	deleteBranchesSQL = `DELETE FROM if_memory_branches WHERE memory_id = ?`
	deleteBindingsSQL = `DELETE FROM if_memory_bindings WHERE memory_id = ?`
	insertBranchSQL   = `
		INSERT INTO if_memory_branches (memory_id, ord, id, name, condition, output_value, hysteresis)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	insertBindingSQL = `
		INSERT INTO if_memory_bindings (memory_id, position, alias, source)
		VALUES (?, ?, ?, ?)
	`

	selectMemoryColumns = `SELECT id, name, default_value, output_destination, output_type, interval, disabled, updated_at FROM if_memories`
	selectBranchesSQL   = `SELECT memory_id, id, name, condition, output_value, hysteresis FROM if_memory_branches`
	selectBindingsSQL   = `SELECT memory_id, alias, source FROM if_memory_bindings`

	deleteMemorySQL = `DELETE FROM if_memories WHERE id = ?`
	setDisabledSQL  = `UPDATE if_memories SET disabled = ?, updated_at = ? WHERE id = ?`
)

// Save writes the definition and replaces its branch and binding rows in one
// transaction, so readers never see a half-written rule set.
func (r *MemorySQLite) Save(ctx context.Context, m models.IfMemory) error {
	ts := m.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save %q: %w", m.ID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, upsertMemorySQL,
		m.ID,
		m.Name,
		m.DefaultValue,
		m.OutputDestination.Encode(),
		string(m.OutputType),
		m.Interval,
		m.Disabled,
		ts,
	); err != nil {
		return fmt.Errorf("upsert if-memory %q: %w", m.ID, err)
	}
	if _, err := tx.ExecContext(ctx, deleteBranchesSQL, m.ID); err != nil {
		return fmt.Errorf("clear branches of %q: %w", m.ID, err)
	}
	if _, err := tx.ExecContext(ctx, deleteBindingsSQL, m.ID); err != nil {
		return fmt.Errorf("clear bindings of %q: %w", m.ID, err)
	}
	for i, b := range m.Branches {
		if _, err := tx.ExecContext(ctx, insertBranchSQL,
			m.ID, i, b.ID, b.Name, b.Condition, b.OutputValue, b.Hysteresis,
		); err != nil {
			return fmt.Errorf("insert branch %d of %q: %w", i, m.ID, err)
		}
	}
	for i, b := range m.Bindings {
		if _, err := tx.ExecContext(ctx, insertBindingSQL,
			m.ID, i, b.Alias, b.Source.Encode(),
		); err != nil {
			return fmt.Errorf("insert binding %q of %q: %w", b.Alias, m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save %q: %w", m.ID, err)
	}
	return nil
}

// Get loads one definition with its branches and bindings.
// It returns models.ErrNotFound if the id is unknown.
func (r *MemorySQLite) Get(ctx context.Context, id string) (models.IfMemory, error) {
	m, err := scanMemory(r.db.QueryRowContext(ctx, selectMemoryColumns+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.IfMemory{}, fmt.Errorf("if-memory %q: %w", id, models.ErrNotFound)
		}
		return models.IfMemory{}, err
	}

	byID := map[string]*models.IfMemory{m.ID: &m}
	if err := r.loadBranches(ctx, byID, ` WHERE memory_id = ?`, id); err != nil {
		return models.IfMemory{}, err
	}
	if err := r.loadBindings(ctx, byID, ` WHERE memory_id = ?`, id); err != nil {
		return models.IfMemory{}, err
	}
	return m, nil
}

// List returns every definition ordered by name.
func (r *MemorySQLite) List(ctx context.Context) ([]models.IfMemory, error) {
	rows, err := r.db.QueryContext(ctx, selectMemoryColumns+` ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.IfMemory, 0, 16)
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	byID := make(map[string]*models.IfMemory, len(out))
	for i := range out {
		byID[out[i].ID] = &out[i]
	}
	if err := r.loadBranches(ctx, byID, ""); err != nil {
		return nil, err
	}
	if err := r.loadBindings(ctx, byID, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a definition; branches and bindings cascade.
func (r *MemorySQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteMemorySQL, id)
	if err != nil {
		return fmt.Errorf("delete if-memory %q: %w", id, err)
	}
	return expectOneRow(res, "if-memory", id)
}

func (r *MemorySQLite) SetDisabled(ctx context.Context, id string, disabled bool) error {
	res, err := r.db.ExecContext(ctx, setDisabledSQL, disabled, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update if-memory %q: %w", id, err)
	}
	return expectOneRow(res, "if-memory", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemory(row rowScanner) (models.IfMemory, error) {
	var (
		m       models.IfMemory
		dest    string
		outType string
	)
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.DefaultValue,
		&dest,
		&outType,
		&m.Interval,
		&m.Disabled,
		&m.UpdatedAt,
	); err != nil {
		return models.IfMemory{}, err
	}
	m.OutputDestination = models.DecodeSourceReference(dest)
	m.OutputType = models.OutputType(outType)
	m.UpdatedAt = m.UpdatedAt.UTC()
	m.Branches = []models.Branch{}
	m.Bindings = []models.VariableBinding{}
	return m, nil
}

func (r *MemorySQLite) loadBranches(ctx context.Context, byID map[string]*models.IfMemory, where string, args ...any) error {
	rows, err := r.db.QueryContext(ctx, selectBranchesSQL+where+` ORDER BY memory_id, ord ASC`, args...)
	if err != nil {
		return fmt.Errorf("select branches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			memoryID string
			name     sql.NullString
			b        models.Branch
		)
		if err := rows.Scan(&memoryID, &b.ID, &name, &b.Condition, &b.OutputValue, &b.Hysteresis); err != nil {
			return err
		}
		b.Name = name.String
		if m, ok := byID[memoryID]; ok {
			m.Branches = append(m.Branches, b)
		}
	}
	return rows.Err()
}

func (r *MemorySQLite) loadBindings(ctx context.Context, byID map[string]*models.IfMemory, where string, args ...any) error {
	rows, err := r.db.QueryContext(ctx, selectBindingsSQL+where+` ORDER BY memory_id, position ASC`, args...)
	if err != nil {
		return fmt.Errorf("select bindings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var memoryID, alias, source string
		if err := rows.Scan(&memoryID, &alias, &source); err != nil {
			return err
		}
		if m, ok := byID[memoryID]; ok {
			m.Bindings = append(m.Bindings, models.VariableBinding{
				Alias:  alias,
				Source: models.DecodeSourceReference(source),
			})
		}
	}
	return rows.Err()
}

func expectOneRow(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s %q: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", what, id, models.ErrNotFound)
	}
	return nil
}
