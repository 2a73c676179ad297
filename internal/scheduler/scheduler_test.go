package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	err   error
	panic bool
	runs  atomic.Int32
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run() error {
	j.runs.Add(1)
	if j.panic {
		panic("boom")
	}
	return j.err
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("0 0 5 * * *", &countingJob{name: "daily"}))
	require.NoError(t, s.AddJob("@every 30s", &countingJob{name: "frequent"}))
	assert.ElementsMatch(t, []string{"daily", "frequent"}, s.Jobs())

	err := s.AddJob("0 0 6 * * *", &countingJob{name: "daily"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestScheduler_AddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	// five-field expressions are rejected because seconds are required
	err := s.AddJob("0 5 * * *", &countingJob{name: "bad"})
	require.Error(t, err)
	assert.Empty(t, s.Jobs())
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "manual", err: errors.New("failed")}

	err := s.RunNow(job)
	assert.EqualError(t, err, "failed")
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestScheduler_RunsScheduledJobs(t *testing.T) {
	s := New(zerolog.Nop())
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("nope")}
	panicking := &countingJob{name: "panicking", panic: true}

	require.NoError(t, s.AddJob("* * * * * *", ok))
	require.NoError(t, s.AddJob("* * * * * *", failing))
	require.NoError(t, s.AddJob("* * * * * *", panicking))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return ok.runs.Load() >= 2 && failing.runs.Load() >= 2 && panicking.runs.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)
}
