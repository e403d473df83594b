package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qchemtools/corrflux/internal/models"
)

// Tx is an explicit registry transaction. Nested transactions map onto
// SQLite savepoints: an inner rollback undoes only the inner work while the
// outer transaction stays usable.
type Tx struct {
	tx    *sql.Tx
	depth int
	done  bool
}

// Begin opens a root transaction.
func (r *Registry) Begin(ctx context.Context) (*Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Begin opens a nested transaction backed by a savepoint.
func (t *Tx) Begin(ctx context.Context) (*Tx, error) {
	if t.done {
		return nil, errors.New("transaction already finished")
	}
	depth := t.depth + 1
	if _, err := t.tx.ExecContext(ctx, fmt.Sprintf("SAVEPOINT sp_%d", depth)); err != nil {
		return nil, fmt.Errorf("savepoint: %w", err)
	}
	return &Tx{tx: t.tx, depth: depth}, nil
}

// Commit makes the transaction's work durable. For a nested transaction the
// savepoint is released into the parent.
func (t *Tx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	if t.depth == 0 {
		return t.tx.Commit()
	}
	if _, err := t.tx.Exec(fmt.Sprintf("RELEASE SAVEPOINT sp_%d", t.depth)); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

// Rollback undoes the transaction's work. Rolling back after Commit is a
// no-op, which keeps `defer tx.Rollback()` safe.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if t.depth == 0 {
		return t.tx.Rollback()
	}
	if _, err := t.tx.Exec(fmt.Sprintf("ROLLBACK TO SAVEPOINT sp_%d", t.depth)); err != nil {
		return fmt.Errorf("rollback savepoint: %w", err)
	}
	_, err := t.tx.Exec(fmt.Sprintf("RELEASE SAVEPOINT sp_%d", t.depth))
	return err
}

// WithTx runs fn inside a root transaction, committing on success.
func (r *Registry) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// WithNested runs fn inside a savepoint on the receiver.
func (t *Tx) WithNested(ctx context.Context, fn func(*Tx) error) error {
	inner, err := t.Begin(ctx)
	if err != nil {
		return err
	}
	defer inner.Rollback()
	if err := fn(inner); err != nil {
		return err
	}
	return inner.Commit()
}

func (t *Tx) findOrCreate(ctx context.Context, id models.CalculationID, spec models.CalculationSpec) (bool, *models.CalculationRecord, error) {
	rec, err := t.get(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		if err := t.insert(ctx, id, spec); err != nil {
			return false, nil, err
		}
		rec, err = t.get(ctx, id)
		if err != nil {
			return false, nil, err
		}
		return true, rec, nil
	case err != nil:
		return false, nil, err
	}

	// Known calculation: extend its property set with anything newly
	// requested.
	added := false
	for _, p := range spec.Properties {
		if !rec.HasProperty(p) {
			if err := t.addProperty(ctx, id, p); err != nil {
				return false, nil, err
			}
			added = true
		}
	}
	if added {
		rec, err = t.get(ctx, id)
		if err != nil {
			return false, nil, err
		}
	}

	// A completed calculation with incomplete properties gets reopened so
	// only the missing ones are computed.
	if rec.Status == models.StatusCompleted && len(rec.MissingProperties()) > 0 {
		if err := t.setStatus(ctx, id, models.StatusRunning, ""); err != nil {
			return false, nil, err
		}
		rec.Status = models.StatusRunning
	}
	return false, rec, nil
}

func (t *Tx) insert(ctx context.Context, id models.CalculationID, spec models.CalculationSpec) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO calculations (id, molecule, charge, multiplicity, omega,
			method, basis, config, grid, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(id), spec.Molecule.Name, spec.Molecule.Charge, spec.Molecule.Multiplicity,
		spec.Molecule.Omega, spec.Method.String(), spec.Basis, string(spec.Config),
		spec.Grid.Signature(), string(models.StatusPending), now().UTC())
	if err != nil {
		return fmt.Errorf("insert calculation %s: %w", id, err)
	}
	for _, p := range spec.Properties {
		if err := t.addProperty(ctx, id, p); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) addProperty(ctx context.Context, id models.CalculationID, name string) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO properties (calculation_id, property_name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(calculation_id, property_name) DO NOTHING`,
		string(id), name, now().UTC())
	if err != nil {
		return fmt.Errorf("add property %s/%s: %w", id, name, err)
	}
	return nil
}

func (t *Tx) completeProperty(ctx context.Context, id models.CalculationID, name, payload string) error {
	// The property row may not exist when a produced artifact was not
	// explicitly requested; record it anyway.
	if err := t.addProperty(ctx, id, name); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, `
		UPDATE properties SET completed = 1, payload = ?, updated_at = ?
		WHERE calculation_id = ? AND property_name = ?`,
		payload, now().UTC(), string(id), name)
	if err != nil {
		return fmt.Errorf("complete property %s/%s: %w", id, name, err)
	}
	return nil
}

func (t *Tx) setStatus(ctx context.Context, id models.CalculationID, status models.CalculationStatus, msg string) error {
	var res sql.Result
	var err error
	switch status {
	case models.StatusRunning:
		res, err = t.tx.ExecContext(ctx, `
			UPDATE calculations SET status = ?, error_message = '', started_at = ?
			WHERE id = ?`, string(status), now().UTC(), string(id))
	case models.StatusCompleted, models.StatusFailed:
		res, err = t.tx.ExecContext(ctx, `
			UPDATE calculations SET status = ?, error_message = ?, ended_at = ?
			WHERE id = ?`, string(status), msg, now().UTC(), string(id))
	default:
		res, err = t.tx.ExecContext(ctx, `
			UPDATE calculations SET status = ?, error_message = ? WHERE id = ?`,
			string(status), msg, string(id))
	}
	if err != nil {
		return fmt.Errorf("set status %s=%s: %w", id, status, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("set status %s: %w", id, ErrNotFound)
	}
	return nil
}

func (t *Tx) addTag(ctx context.Context, id models.CalculationID, tag string) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO tags (calculation_id, tag, created_at) VALUES (?, ?, ?)
		ON CONFLICT(calculation_id, tag) DO NOTHING`,
		string(id), tag, now().UTC())
	if err != nil {
		return fmt.Errorf("tag %s with %q: %w", id, tag, err)
	}
	return nil
}

// AddTag attaches a tag inside the transaction.
func (t *Tx) AddTag(ctx context.Context, id models.CalculationID, tag string) error {
	return t.addTag(ctx, id, tag)
}

func (t *Tx) get(ctx context.Context, id models.CalculationID) (*models.CalculationRecord, error) {
	rec := &models.CalculationRecord{ID: id}
	var started, ended sql.NullTime
	err := t.tx.QueryRowContext(ctx, `
		SELECT molecule, charge, multiplicity, omega, method, basis, config,
			status, error_message, created_at, started_at, ended_at
		FROM calculations WHERE id = ?`, string(id)).Scan(
		&rec.Molecule, &rec.Charge, &rec.Multiplicity, &rec.Omega,
		&rec.Method, &rec.Basis, &rec.Config,
		&rec.Status, &rec.ErrorMessage, &rec.CreatedAt, &started, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load calculation %s: %w", id, err)
	}
	if started.Valid {
		rec.StartedAt = &started.Time
	}
	if ended.Valid {
		rec.EndedAt = &ended.Time
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT property_name, completed, payload, updated_at
		FROM properties WHERE calculation_id = ? ORDER BY property_name`, string(id))
	if err != nil {
		return nil, fmt.Errorf("load properties %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var p models.PropertyRecord
		var completed int
		if err := rows.Scan(&p.Name, &completed, &p.Payload, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Completed = completed != 0
		rec.Properties = append(rec.Properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagRows, err := t.tx.QueryContext(ctx, `
		SELECT tag FROM tags WHERE calculation_id = ? ORDER BY created_at, id`, string(id))
	if err != nil {
		return nil, fmt.Errorf("load tags %s: %w", id, err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tag string
		if err := tagRows.Scan(&tag); err != nil {
			return nil, err
		}
		rec.Tags = append(rec.Tags, tag)
	}
	return rec, tagRows.Err()
}

// Get loads a record inside the transaction.
func (t *Tx) Get(ctx context.Context, id models.CalculationID) (*models.CalculationRecord, error) {
	return t.get(ctx, id)
}
