package reliability

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/aristath/satellite/internal/testing"
)

func TestMaintenanceJob_Run(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "maintenance")
	defer cleanup()

	tests := []struct {
		name    string
		free    uint64
		diskErr error
		wantErr string
	}{
		{name: "plenty of space", free: 50 * 1024 * 1024 * 1024},
		{name: "low but usable", free: 1024 * 1024 * 1024},
		{name: "critically low", free: 100 * 1024 * 1024, wantErr: "GB free"},
		{name: "probe failure", diskErr: errors.New("statfs"), wantErr: "failed to read disk usage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewMaintenanceJob(db, zerolog.Nop())
			job.SetDiskUsage(func(string) (uint64, error) { return tt.free, tt.diskErr })

			err := job.Run()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMaintenanceJob_ClosedDatabase(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "maintenance_closed")
	cleanup()

	job := NewMaintenanceJob(db, zerolog.Nop())
	job.SetDiskUsage(func(string) (uint64, error) { return 1 << 40, nil })

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integrity check failed")
	assert.Equal(t, "daily_maintenance", job.Name())
}
