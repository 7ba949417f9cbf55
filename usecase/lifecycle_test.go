package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interview-platform/domain"
)

func newLifecycleHarness(status domain.InterviewStatus) (*Lifecycle, *memoryInterviews, *memoryJobs, *recordingQueue) {
	interviews := newMemoryInterviews(&domain.Interview{
		ID:          testInterviewID,
		CandidateID: testCandidateID,
		PositionID:  testPositionID,
		Status:      status,
	})
	jobs := newMemoryJobs()
	queue := &recordingQueue{}
	pipeline := NewPipeline(PipelineDeps{
		Interviews: interviews,
		Jobs:       jobs,
		Queue:      queue,
		Log:        zap.NewNop(),
	})
	return NewLifecycle(interviews, pipeline, zap.NewNop()), interviews, jobs, queue
}

func TestLifecycle_Start(t *testing.T) {
	lc, interviews, _, _ := newLifecycleHarness(domain.StatusNotStarted)

	interview, err := lc.Start(context.Background(), testInterviewID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, interview.Status)
	assert.NotNil(t, interviews.snapshot(testInterviewID).StartedOn)

	again, err := lc.Start(context.Background(), testInterviewID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, again.Status)
}

func TestLifecycle_StartTerminalConflicts(t *testing.T) {
	for _, status := range []domain.InterviewStatus{domain.StatusCompleted, domain.StatusAborted} {
		lc, _, _, _ := newLifecycleHarness(status)
		_, err := lc.Start(context.Background(), testInterviewID)
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict, string(status))
	}
}

func TestLifecycle_FinishEnqueuesOnce(t *testing.T) {
	lc, interviews, jobs, queue := newLifecycleHarness(domain.StatusInProgress)

	jobID, err := lc.Finish(context.Background(), testInterviewID)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	again, err := lc.Finish(context.Background(), testInterviewID)
	require.NoError(t, err)
	assert.Equal(t, jobID, again)

	stored := interviews.snapshot(testInterviewID)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.EndedOn)
	assert.Equal(t, jobID, stored.ScoringJobID)

	require.Len(t, queue.messages(), 1)
	msg := queue.messages()[0]
	assert.Equal(t, jobID, msg.JobID)
	assert.Equal(t, testInterviewID, msg.InterviewID)
	assert.Equal(t, 1, msg.Attempt)
	assert.Zero(t, msg.Delay)

	job, err := jobs.Get(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobWaiting, job.Status)
	assert.Equal(t, domain.ScoringJobName, job.Name)
	assert.Equal(t, domain.ScoringQueue, job.Queue)
}

func TestLifecycle_FinishNotStartedStillScores(t *testing.T) {
	lc, interviews, _, queue := newLifecycleHarness(domain.StatusNotStarted)

	_, err := lc.Finish(context.Background(), testInterviewID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, interviews.snapshot(testInterviewID).Status)
	assert.Len(t, queue.messages(), 1)
}

func TestLifecycle_FinishAbortedConflicts(t *testing.T) {
	lc, _, _, queue := newLifecycleHarness(domain.StatusAborted)

	_, err := lc.Finish(context.Background(), testInterviewID)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Empty(t, queue.messages())
}

func TestLifecycle_FinishPublishFailure(t *testing.T) {
	lc, _, jobs, queue := newLifecycleHarness(domain.StatusInProgress)
	queue.err = errors.New("channel closed")

	_, err := lc.Finish(context.Background(), testInterviewID)
	var persistence *domain.PersistenceError
	require.ErrorAs(t, err, &persistence)

	failed, err := jobs.ListRecent(context.Background(), domain.JobFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	queue.err = nil
	jobID, err := lc.Finish(context.Background(), testInterviewID)
	require.NoError(t, err)
	assert.NotEqual(t, failed[0].ID, jobID)

	require.Len(t, queue.messages(), 1)
	assert.Equal(t, jobID, queue.messages()[0].JobID)

	again, err := lc.Finish(context.Background(), testInterviewID)
	require.NoError(t, err)
	assert.Equal(t, jobID, again)
	assert.Len(t, queue.messages(), 1)
}

func TestLifecycle_FinishWithoutRecordedJob(t *testing.T) {
	t.Run("just finished is a retryable conflict", func(t *testing.T) {
		lc, interviews, _, queue := newLifecycleHarness(domain.StatusCompleted)
		ended := time.Now()
		interviews.items[testInterviewID].EndedOn = &ended

		jobID, err := lc.Finish(context.Background(), testInterviewID)

		var conflict *domain.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.True(t, conflict.Retryable)
		assert.Empty(t, jobID)
		assert.Empty(t, queue.messages())
	})

	t.Run("finished long ago is queued again", func(t *testing.T) {
		lc, interviews, _, queue := newLifecycleHarness(domain.StatusCompleted)
		ended := time.Now().Add(-time.Hour)
		interviews.items[testInterviewID].EndedOn = &ended

		jobID, err := lc.Finish(context.Background(), testInterviewID)

		require.NoError(t, err)
		assert.NotEmpty(t, jobID)
		assert.Equal(t, jobID, interviews.snapshot(testInterviewID).ScoringJobID)
		assert.Len(t, queue.messages(), 1)
	})

	t.Run("scored interview keeps its job", func(t *testing.T) {
		lc, interviews, _, queue := newLifecycleHarness(domain.StatusCompleted)
		interviews.items[testInterviewID].ResultStatus = domain.ResultCompleted
		interviews.items[testInterviewID].ScoringJobID = "done-job"

		jobID, err := lc.Finish(context.Background(), testInterviewID)

		require.NoError(t, err)
		assert.Equal(t, "done-job", jobID)
		assert.Empty(t, queue.messages())
	})
}

func TestLifecycle_Abort(t *testing.T) {
	lc, interviews, _, queue := newLifecycleHarness(domain.StatusInProgress)

	require.NoError(t, lc.Abort(context.Background(), testInterviewID, "candidate left"))
	assert.Equal(t, domain.StatusAborted, interviews.snapshot(testInterviewID).Status)
	assert.Empty(t, queue.messages())

	require.NoError(t, lc.Abort(context.Background(), testInterviewID, "candidate left"))
}

func TestLifecycle_AbortCompletedConflicts(t *testing.T) {
	lc, _, _, _ := newLifecycleHarness(domain.StatusCompleted)

	err := lc.Abort(context.Background(), testInterviewID, "late")
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestLifecycle_ExpireStale(t *testing.T) {
	lc, interviews, _, _ := newLifecycleHarness(domain.StatusNotStarted)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	interviews.items[testInterviewID].ExpiryDate = &past

	freshID := "5d6e7f80-91a2-4b3c-8d4e-5f60718293a4"
	interviews.items[freshID] = &domain.Interview{ID: freshID, Status: domain.StatusInProgress, ExpiryDate: &future}

	n, err := lc.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusAborted, interviews.snapshot(testInterviewID).Status)
	assert.Equal(t, domain.StatusInProgress, interviews.snapshot(freshID).Status)
}

func TestLifecycle_Reprocess(t *testing.T) {
	t.Run("completed without result", func(t *testing.T) {
		lc, _, _, queue := newLifecycleHarness(domain.StatusCompleted)
		jobID, err := lc.Reprocess(context.Background(), testInterviewID)
		require.NoError(t, err)
		assert.NotEmpty(t, jobID)
		assert.Len(t, queue.messages(), 1)
	})

	t.Run("already scored", func(t *testing.T) {
		lc, interviews, _, _ := newLifecycleHarness(domain.StatusCompleted)
		interviews.items[testInterviewID].ResultStatus = domain.ResultCompleted
		_, err := lc.Reprocess(context.Background(), testInterviewID)
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("still running", func(t *testing.T) {
		lc, _, _, _ := newLifecycleHarness(domain.StatusInProgress)
		_, err := lc.Reprocess(context.Background(), testInterviewID)
		var conflict *domain.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}
