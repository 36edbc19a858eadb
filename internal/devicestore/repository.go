package devicestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/tunnelz/tunnels/internal/control"
)

// Record is a stored device registration.
type Record struct {
	ID        string
	Spec      control.DeviceSpec
	CreatedAt time.Time
}

// Repository stores device registrations.
type Repository interface {
	// List returns every record, oldest first.
	List(ctx context.Context) ([]Record, error)

	// Save stores spec under a new ID.
	// Returns ErrExists if the port pair is already registered.
	Save(ctx context.Context, spec control.DeviceSpec) (Record, error)

	// Delete removes a record. Returns ErrNotFound if id is unknown.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository over the control_devices table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List returns every stored device ordered by creation time.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, device, input_port, output_port, created_at
		FROM control_devices
		ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var device, createdAt string
		if err := rows.Scan(&rec.ID, &device, &rec.Spec.InputPort, &rec.Spec.OutputPort, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		rec.Spec.Device, err = control.ParseDevice(device)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", rec.ID, err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Column default is RFC3339
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return records, nil
}

// Save validates and stores spec.
func (r *SQLiteRepository) Save(ctx context.Context, spec control.DeviceSpec) (Record, error) {
	if err := Validate(spec); err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.NewString(),
		Spec:      spec,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO control_devices (id, device, input_port, output_port, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, spec.Device.String(), spec.InputPort, spec.OutputPort,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return Record{}, fmt.Errorf("%w: %s -> %s", ErrExists, spec.InputPort, spec.OutputPort)
		}
		return Record{}, fmt.Errorf("inserting device: %w", err)
	}
	return rec, nil
}

// Delete removes the record with the given ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM control_devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Validate checks that spec names a known device and both ports.
func Validate(spec control.DeviceSpec) error {
	if _, err := control.ParseDevice(spec.Device.String()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if spec.InputPort == "" || spec.OutputPort == "" {
		return fmt.Errorf("%w: input and output port are required", ErrInvalid)
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// Merge combines configured and stored devices. Configured devices come
// first; a stored device whose port pair is already configured is skipped.
func Merge(configured []control.DeviceSpec, stored []Record) []control.DeviceSpec {
	type portPair struct{ in, out string }

	seen := make(map[portPair]bool, len(configured))
	merged := make([]control.DeviceSpec, 0, len(configured)+len(stored))
	for _, spec := range configured {
		seen[portPair{spec.InputPort, spec.OutputPort}] = true
		merged = append(merged, spec)
	}
	for _, rec := range stored {
		key := portPair{rec.Spec.InputPort, rec.Spec.OutputPort}
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, rec.Spec)
	}
	return merged
}
