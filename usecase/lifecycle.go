package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"interview-platform/domain"
)

// Enqueuer schedules result scoring for a finished interview.
type Enqueuer interface {
	Enqueue(ctx context.Context, interviewID string) (*domain.ScoringJob, error)
	Job(ctx context.Context, jobID string) (*domain.ScoringJob, error)
}

const (
	expiredBatch = 100
	// enqueueGrace is how long after finishing a missing job id is taken to
	// mean the finishing request is still queueing it.
	enqueueGrace = 30 * time.Second
)

// Lifecycle moves interviews between statuses. Every transition is a
// conditional update, so concurrent callers agree on a single winner.
type Lifecycle struct {
	interviews domain.InterviewRepository
	scoring    Enqueuer
	now        func() time.Time
	log        *zap.Logger
}

func NewLifecycle(interviews domain.InterviewRepository, scoring Enqueuer, log *zap.Logger) *Lifecycle {
	return &Lifecycle{interviews: interviews, scoring: scoring, now: time.Now, log: log}
}

// Start moves a not started interview to in progress. Starting one that is
// already in progress succeeds without changes.
func (l *Lifecycle) Start(ctx context.Context, interviewID string) (*domain.Interview, error) {
	id, err := domain.ParseID("id", interviewID)
	if err != nil {
		return nil, err
	}

	changed, err := l.interviews.Transition(ctx, id, []domain.InterviewStatus{domain.StatusNotStarted}, domain.StatusInProgress, l.now())
	if err != nil {
		return nil, err
	}

	interview, err := l.interviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		l.log.Info("interview started", zap.String("interview_id", id))
		return interview, nil
	}
	if interview.Status == domain.StatusInProgress {
		return interview, nil
	}
	return nil, &domain.ConflictError{Message: "cannot start an interview that is " + string(interview.Status)}
}

// Finish completes the interview and enqueues its scoring job, returning the
// job id. Finishing an already completed interview returns the recorded job
// id, unless that job was never queued or has failed, in which case a new
// one is enqueued.
func (l *Lifecycle) Finish(ctx context.Context, interviewID string) (string, error) {
	id, err := domain.ParseID("id", interviewID)
	if err != nil {
		return "", err
	}

	changed, err := l.interviews.Transition(ctx, id,
		[]domain.InterviewStatus{domain.StatusNotStarted, domain.StatusInProgress},
		domain.StatusCompleted, l.now())
	if err != nil {
		return "", err
	}

	if !changed {
		interview, err := l.interviews.Get(ctx, id)
		if err != nil {
			return "", err
		}
		switch interview.Status {
		case domain.StatusCompleted:
			return l.resumeScoring(ctx, interview)
		case domain.StatusAborted:
			return "", &domain.ConflictError{Message: "cannot finish an aborted interview"}
		default:
			return "", &domain.ConflictError{Message: "interview status changed concurrently", Retryable: true}
		}
	}

	job, err := l.scoring.Enqueue(ctx, id)
	if err != nil {
		return "", err
	}
	l.log.Info("interview finished", zap.String("interview_id", id), zap.String("job_id", job.ID))
	return job.ID, nil
}

// resumeScoring returns the live scoring job of a completed interview, or
// enqueues a new one when the recorded job is missing or failed.
func (l *Lifecycle) resumeScoring(ctx context.Context, interview *domain.Interview) (string, error) {
	if interview.ResultStatus == domain.ResultCompleted {
		return interview.ScoringJobID, nil
	}

	if interview.ScoringJobID == "" {
		if interview.EndedOn != nil && l.now().Sub(*interview.EndedOn) < enqueueGrace {
			return "", &domain.ConflictError{Message: "scoring job is still being queued", Retryable: true}
		}
		return l.enqueue(ctx, interview.ID, "scoring job was never queued")
	}

	job, err := l.scoring.Job(ctx, interview.ScoringJobID)
	var notFound *domain.NotFoundError
	switch {
	case errors.As(err, &notFound):
		return l.enqueue(ctx, interview.ID, "scoring job row is gone")
	case err != nil:
		return "", err
	case job.Status == domain.JobFailed:
		return l.enqueue(ctx, interview.ID, "previous scoring job failed")
	}
	return job.ID, nil
}

func (l *Lifecycle) enqueue(ctx context.Context, interviewID, reason string) (string, error) {
	job, err := l.scoring.Enqueue(ctx, interviewID)
	if err != nil {
		return "", err
	}
	l.log.Info("interview requeued for scoring",
		zap.String("interview_id", interviewID),
		zap.String("job_id", job.ID),
		zap.String("reason", reason))
	return job.ID, nil
}

// Abort ends the interview without scoring it.
func (l *Lifecycle) Abort(ctx context.Context, interviewID, reason string) error {
	id, err := domain.ParseID("id", interviewID)
	if err != nil {
		return err
	}

	changed, err := l.interviews.Transition(ctx, id,
		[]domain.InterviewStatus{domain.StatusNotStarted, domain.StatusInProgress},
		domain.StatusAborted, l.now())
	if err != nil {
		return err
	}
	if changed {
		l.log.Info("interview aborted", zap.String("interview_id", id), zap.String("reason", reason))
		return nil
	}

	interview, err := l.interviews.Get(ctx, id)
	if err != nil {
		return err
	}
	if interview.Status == domain.StatusAborted {
		return nil
	}
	return &domain.ConflictError{Message: "cannot abort an interview that is " + string(interview.Status)}
}

// ExpireStale aborts open interviews past their expiry date and returns how
// many were aborted.
func (l *Lifecycle) ExpireStale(ctx context.Context) (int, error) {
	expired, err := l.interviews.ListExpired(ctx, l.now(), expiredBatch)
	if err != nil {
		return 0, err
	}

	aborted := 0
	for _, interview := range expired {
		if err := l.Abort(ctx, interview.ID, "expired"); err != nil {
			l.log.Warn("failed to expire interview", zap.String("interview_id", interview.ID), zap.Error(err))
			continue
		}
		aborted++
	}
	if aborted > 0 {
		l.log.Info("expired stale interviews", zap.Int("count", aborted))
	}
	return aborted, nil
}

// Reprocess enqueues a new scoring job for a completed interview that has no
// result yet.
func (l *Lifecycle) Reprocess(ctx context.Context, interviewID string) (string, error) {
	id, err := domain.ParseID("id", interviewID)
	if err != nil {
		return "", err
	}

	interview, err := l.interviews.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if interview.Status != domain.StatusCompleted {
		return "", &domain.ConflictError{Message: "only completed interviews can be scored"}
	}
	if interview.ResultStatus == domain.ResultCompleted {
		return "", &domain.ConflictError{Message: "result is already computed"}
	}

	return l.enqueue(ctx, id, "reprocess requested")
}
