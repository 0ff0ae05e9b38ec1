package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindweave-backend/application/ports"
	pkgerrors "mindweave-backend/pkg/errors"
)

func newTestJob(id string, status ports.JobStatus) *ports.ExpansionJob {
	now := time.Now()
	return &ports.ExpansionJob{
		ID:         id,
		OwnerID:    "user-1",
		ContextRef: "ctx-1",
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestJobStore_StoreAndGet(t *testing.T) {
	store := NewJobStore(0)
	defer store.Close()

	require.NoError(t, store.Store(context.Background(), newTestJob("job-1", ports.JobStatusQueued)))

	got, err := store.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", got.ID)
	assert.Equal(t, ports.JobStatusQueued, got.Status)
}

func TestJobStore_GetReturnsCopy(t *testing.T) {
	// Arrange
	store := NewJobStore(0)
	defer store.Close()
	require.NoError(t, store.Store(context.Background(), newTestJob("job-1", ports.JobStatusRunning)))

	// Act: mutate the returned record
	first, err := store.Get(context.Background(), "job-1")
	require.NoError(t, err)
	first.Status = ports.JobStatusFailed
	first.ErrorMessage = "mutated by caller"

	// Assert: the stored record is untouched
	second, err := store.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, ports.JobStatusRunning, second.Status)
	assert.Empty(t, second.ErrorMessage)
}

func TestJobStore_StoreCopiesInput(t *testing.T) {
	store := NewJobStore(0)
	defer store.Close()

	job := newTestJob("job-1", ports.JobStatusQueued)
	require.NoError(t, store.Store(context.Background(), job))
	job.Status = ports.JobStatusFailed

	got, err := store.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, ports.JobStatusQueued, got.Status)
}

func TestJobStore_UpdateUnknownJobFails(t *testing.T) {
	store := NewJobStore(0)
	defer store.Close()

	err := store.Update(context.Background(), newTestJob("missing", ports.JobStatusRunning))

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestJobStore_GetUnknownJobFails(t *testing.T) {
	store := NewJobStore(0)
	defer store.Close()

	_, err := store.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestJobStore_RejectsInvalidRecords(t *testing.T) {
	store := NewJobStore(0)
	defer store.Close()

	assert.Error(t, store.Store(context.Background(), nil))
	assert.Error(t, store.Store(context.Background(), &ports.ExpansionJob{}))
}

func TestJobStore_CleanupExpiredSkipsRunningJobs(t *testing.T) {
	// Arrange: one old terminal job and one old running job
	store := NewJobStore(0)
	defer store.Close()

	old := time.Now().Add(-2 * time.Hour)

	finished := newTestJob("finished", ports.JobStatusCompleted)
	finished.UpdatedAt = old
	require.NoError(t, store.Store(context.Background(), finished))

	running := newTestJob("running", ports.JobStatusRunning)
	running.UpdatedAt = old
	require.NoError(t, store.Store(context.Background(), running))

	// Act
	require.NoError(t, store.CleanupExpired(context.Background(), time.Hour))

	// Assert
	_, err := store.Get(context.Background(), "finished")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = store.Get(context.Background(), "running")
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestJobStore_Delete(t *testing.T) {
	store := NewJobStore(0)
	defer store.Close()

	require.NoError(t, store.Store(context.Background(), newTestJob("job-1", ports.JobStatusQueued)))
	require.NoError(t, store.Delete(context.Background(), "job-1"))

	_, err := store.Get(context.Background(), "job-1")
	assert.True(t, pkgerrors.IsNotFound(err))
}
