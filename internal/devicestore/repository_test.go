package devicestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tunnelz/tunnels/internal/control"
	"github.com/tunnelz/tunnels/internal/infrastructure/config"
	"github.com/tunnelz/tunnels/internal/infrastructure/database"
	_ "github.com/tunnelz/tunnels/migrations"
)

// setupRepo opens a migrated database in a temporary directory.
func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "tunnels.db")})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestSQLiteRepository_SaveList(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	specs := []control.DeviceSpec{
		{Device: control.AkaiAPC40, InputPort: "APC40 in", OutputPort: "APC40 out"},
		{Device: control.TouchOSC, InputPort: "TouchOSC Bridge", OutputPort: "TouchOSC Bridge"},
	}
	var ids []string
	for _, spec := range specs {
		rec, err := repo.Save(ctx, spec)
		if err != nil {
			t.Fatalf("Save(%+v) error = %v", spec, err)
		}
		if rec.ID == "" || rec.CreatedAt.IsZero() {
			t.Errorf("Save() record = %+v, want ID and CreatedAt set", rec)
		}
		ids = append(ids, rec.ID)
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != len(specs) {
		t.Fatalf("List() returned %d records, want %d", len(got), len(specs))
	}
	for i, rec := range got {
		if rec.ID != ids[i] || rec.Spec != specs[i] {
			t.Errorf("List()[%d] = %+v, want id %s spec %+v", i, rec, ids[i], specs[i])
		}
	}
}

func TestSQLiteRepository_SaveDuplicatePorts(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	spec := control.DeviceSpec{Device: control.AkaiAPC20, InputPort: "in", OutputPort: "out"}
	if _, err := repo.Save(ctx, spec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	spec.Device = control.AkaiAPC40
	if _, err := repo.Save(ctx, spec); !errors.Is(err, ErrExists) {
		t.Errorf("second Save() error = %v, want ErrExists", err)
	}
}

func TestSQLiteRepository_SaveInvalid(t *testing.T) {
	repo := setupRepo(t)

	tests := []struct {
		name string
		spec control.DeviceSpec
	}{
		{name: "unknown device", spec: control.DeviceSpec{Device: control.Device(42), InputPort: "in", OutputPort: "out"}},
		{name: "missing input", spec: control.DeviceSpec{Device: control.AkaiAPC40, OutputPort: "out"}},
		{name: "missing output", spec: control.DeviceSpec{Device: control.AkaiAPC40, InputPort: "in"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.Save(context.Background(), tt.spec); !errors.Is(err, ErrInvalid) {
				t.Errorf("Save() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSQLiteRepository_Delete(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	rec, err := repo.Save(ctx, control.DeviceSpec{Device: control.TouchOSC, InputPort: "in", OutputPort: "out"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := repo.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got, _ := repo.List(ctx); len(got) != 0 {
		t.Errorf("List() after Delete = %+v", got)
	}
	if err := repo.Delete(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestMerge(t *testing.T) {
	configured := []control.DeviceSpec{
		{Device: control.AkaiAPC40, InputPort: "a", OutputPort: "a"},
	}
	stored := []Record{
		{ID: "1", Spec: control.DeviceSpec{Device: control.AkaiAPC20, InputPort: "a", OutputPort: "a"}},
		{ID: "2", Spec: control.DeviceSpec{Device: control.TouchOSC, InputPort: "b", OutputPort: "b"}},
		{ID: "3", Spec: control.DeviceSpec{Device: control.TouchOSC, InputPort: "b", OutputPort: "b"}},
	}

	got := Merge(configured, stored)
	want := []control.DeviceSpec{configured[0], stored[1].Spec}
	if len(got) != len(want) {
		t.Fatalf("Merge() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Merge()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if got := Merge(nil, nil); len(got) != 0 {
		t.Errorf("Merge(nil, nil) = %+v", got)
	}
}
