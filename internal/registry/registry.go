// Package registry is the content-addressed SQLite store of calculations.
// Every calculation is keyed by the hash of its physical parameters, so the
// same request never computes twice.
package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/qchemtools/corrflux/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - pre-migration
// 1 - initial calculations/properties/tags schema
const currentSchemaVersion = 1

// ErrNotFound is returned when a calculation id is not in the registry.
var ErrNotFound = errors.New("calculation not found")

// Registry stores calculation state in a local SQLite database. It is safe
// for concurrent use; SQLite serializes writers behind a single connection.
type Registry struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open creates or opens the registry database. WAL mode, NORMAL sync, a 5s
// busy timeout and foreign keys are applied; the connection pool is pinned
// to one writer to avoid SQLITE_BUSY under batch load.
func Open(path string, log zerolog.Logger) (*Registry, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect registry: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set user_version: %w", err)
	}

	return &Registry{db: db, log: log}, nil
}

// Close closes the database.
func (r *Registry) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// FindOrCreate resolves a spec to its calculation record, creating it when
// absent. When an existing completed record is missing some of the newly
// requested properties it is reopened to running so the missing ones get
// computed. The returned record reflects the post-call state.
func (r *Registry) FindOrCreate(ctx context.Context, spec models.CalculationSpec) (models.CalculationID, bool, *models.CalculationRecord, error) {
	id := Identify(spec)
	var (
		isNew bool
		rec   *models.CalculationRecord
	)
	err := r.WithTx(ctx, func(tx *Tx) error {
		var err error
		isNew, rec, err = tx.findOrCreate(ctx, id, spec)
		return err
	})
	if err != nil {
		return "", false, nil, err
	}
	return id, isNew, rec, nil
}

// Get loads a calculation record with its properties and tags.
func (r *Registry) Get(ctx context.Context, id models.CalculationID) (*models.CalculationRecord, error) {
	var rec *models.CalculationRecord
	err := r.WithTx(ctx, func(tx *Tx) error {
		var err error
		rec, err = tx.get(ctx, id)
		return err
	})
	return rec, err
}

// List returns all records, newest first.
func (r *Registry) List(ctx context.Context) ([]*models.CalculationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM calculations ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	defer rows.Close()

	var ids []models.CalculationID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, models.CalculationID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.CalculationRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// MarkRunning transitions a calculation to running and stamps started_at.
func (r *Registry) MarkRunning(ctx context.Context, id models.CalculationID) error {
	return r.WithTx(ctx, func(tx *Tx) error {
		return tx.setStatus(ctx, id, models.StatusRunning, "")
	})
}

// MarkCompleted stamps the produced properties and transitions the
// calculation to completed in one transaction, so a completed status always
// implies its produced properties are stamped.
func (r *Registry) MarkCompleted(ctx context.Context, id models.CalculationID, produced map[string]string) error {
	return r.WithTx(ctx, func(tx *Tx) error {
		for name, payload := range produced {
			if err := tx.completeProperty(ctx, id, name, payload); err != nil {
				return err
			}
		}
		return tx.setStatus(ctx, id, models.StatusCompleted, "")
	})
}

// MarkFailed transitions a calculation to failed with a diagnostic message.
func (r *Registry) MarkFailed(ctx context.Context, id models.CalculationID, msg string) error {
	return r.WithTx(ctx, func(tx *Tx) error {
		return tx.setStatus(ctx, id, models.StatusFailed, msg)
	})
}

// GetMissingProperties lists the requested-but-incomplete properties of a
// calculation.
func (r *Registry) GetMissingProperties(ctx context.Context, id models.CalculationID) ([]string, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.MissingProperties(), nil
}

// AddTag attaches a tag to a calculation. Re-adding is a no-op.
func (r *Registry) AddTag(ctx context.Context, id models.CalculationID, tag string) error {
	return r.WithTx(ctx, func(tx *Tx) error {
		return tx.addTag(ctx, id, tag)
	})
}

var now = time.Now
