package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name    string
	runs    atomic.Int32
	release chan struct{}
	started chan struct{}
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	if j.started != nil {
		j.started <- struct{}{}
	}
	if j.release != nil {
		<-j.release
	}
	return nil
}

func TestAddJob(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "cleanup"}
	require.Error(t, s.AddJob(job, "not a spec"))
	require.NoError(t, s.AddJob(job, "30 3 * * *"))
	require.Error(t, s.AddJob(job, "0 * * * *"))

	_, ok := s.Next("missing")
	require.False(t, ok)
	_, ok = s.Next("cleanup")
	require.True(t, ok)
}

func TestWrapSkipsOverlappingRuns(t *testing.T) {
	s := NewCronScheduler()
	job := &countingJob{name: "slow", release: make(chan struct{}), started: make(chan struct{}, 1)}
	run := s.wrap(job, "* * * * *")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	<-job.started
	run()
	require.EqualValues(t, 1, job.runs.Load())

	close(job.release)
	<-done
	job.release = nil
	job.started = nil
	run()
	require.EqualValues(t, 2, job.runs.Load())
}

func TestStartStop(t *testing.T) {
	s := NewCronScheduler()
	s.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
