package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"interview-platform/domain"
)

// Consumer feeds scoring messages to a handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, domain.ScoringMessage) error) error
}

type PipelineConfig struct {
	JobTimeout  time.Duration
	BackoffBase time.Duration
	MaxAttempts int
	Retention   int
}

// Pipeline enqueues and processes result scoring jobs.
type Pipeline struct {
	interviews domain.InterviewRepository
	candidates domain.CandidateRepository
	positions  domain.PositionRepository
	jobs       domain.ScoringJobRepository
	queue      domain.JobQueue
	scorer     domain.Scorer
	cfg        PipelineConfig
	log        *zap.Logger
}

type PipelineDeps struct {
	Interviews domain.InterviewRepository
	Candidates domain.CandidateRepository
	Positions  domain.PositionRepository
	Jobs       domain.ScoringJobRepository
	Queue      domain.JobQueue
	Scorer     domain.Scorer
	Config     PipelineConfig
	Log        *zap.Logger
}

func NewPipeline(d PipelineDeps) *Pipeline {
	cfg := d.Config
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = domain.ScoringMaxAttempts
	}
	if cfg.Retention <= 0 {
		cfg.Retention = domain.ScoringRetention
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	return &Pipeline{
		interviews: d.Interviews,
		candidates: d.Candidates,
		positions:  d.Positions,
		jobs:       d.Jobs,
		queue:      d.Queue,
		scorer:     d.Scorer,
		cfg:        cfg,
		log:        d.Log,
	}
}

// Enqueue records a waiting job for the interview and publishes it.
func (p *Pipeline) Enqueue(ctx context.Context, interviewID string) (*domain.ScoringJob, error) {
	job := &domain.ScoringJob{
		Name:        domain.ScoringJobName,
		Queue:       domain.ScoringQueue,
		InterviewID: interviewID,
		Status:      domain.JobWaiting,
		MaxAttempts: p.cfg.MaxAttempts,
	}
	if err := p.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	if err := p.interviews.SetScoringJob(ctx, interviewID, job.ID); err != nil {
		return nil, err
	}

	err := p.queue.Publish(ctx, domain.ScoringMessage{JobID: job.ID, InterviewID: interviewID, Attempt: 1})
	if err != nil {
		if uerr := p.jobs.UpdateStatus(ctx, job.ID, domain.JobFailed, 0, err.Error()); uerr != nil {
			p.log.Error("failed to mark unpublished job", zap.String("job_id", job.ID), zap.Error(uerr))
		}
		return nil, &domain.PersistenceError{Op: "publish scoring job", Cause: err}
	}

	p.log.Info("scoring job queued", zap.String("job_id", job.ID), zap.String("interview_id", interviewID))
	return job, nil
}

// Backoff is the delay before the given attempt is retried: the base delay,
// doubled for every earlier attempt.
func (p *Pipeline) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.cfg.BackoffBase * time.Duration(1<<uint(attempt-1))
}

// Run consumes the scoring queue until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, consumer Consumer) error {
	p.log.Info("scoring worker started", zap.String("queue", domain.ScoringQueue))
	return consumer.Consume(ctx, p.Handle)
}

// Handle processes one delivery. Scoring failures are retried through the
// queue or recorded on the job row; a returned error means the message
// itself could not be settled and should be redelivered.
func (p *Pipeline) Handle(ctx context.Context, msg domain.ScoringMessage) error {
	if msg.Attempt < 1 {
		msg.Attempt = 1
	}
	if err := p.track(ctx, &msg); err != nil {
		return err
	}

	log := p.log.With(
		zap.String("job_id", msg.JobID),
		zap.String("interview_id", msg.InterviewID),
		zap.Int("attempt", msg.Attempt))
	log.Info("job active")

	err := p.process(ctx, msg)
	if err == nil {
		if err := p.jobs.UpdateStatus(ctx, msg.JobID, domain.JobCompleted, msg.Attempt, ""); err != nil {
			return err
		}
		log.Info("job completed")
		p.prune(ctx)
		return nil
	}

	var notFound *domain.NotFoundError
	if msg.Attempt < p.cfg.MaxAttempts && !errors.As(err, &notFound) {
		delay := p.Backoff(msg.Attempt)
		if uerr := p.jobs.UpdateStatus(ctx, msg.JobID, domain.JobDelayed, msg.Attempt, err.Error()); uerr != nil {
			return uerr
		}
		retry := msg
		retry.Attempt++
		retry.Delay = delay
		if perr := p.queue.Publish(ctx, retry); perr != nil {
			return perr
		}
		log.Warn("job failed, retrying", zap.Duration("delay", delay), zap.Error(err))
		return nil
	}

	if uerr := p.jobs.UpdateStatus(ctx, msg.JobID, domain.JobFailed, msg.Attempt, err.Error()); uerr != nil {
		return uerr
	}
	if serr := p.interviews.SetResultStatus(ctx, msg.InterviewID, domain.ResultNotAttempted); serr != nil {
		log.Error("failed to reset result status", zap.Error(serr))
	}
	log.Error("job failed", zap.Error(err))
	p.prune(ctx)
	return nil
}

// track makes sure the delivery has a job row and marks it active. Messages
// published without a job id get a fresh row.
func (p *Pipeline) track(ctx context.Context, msg *domain.ScoringMessage) error {
	if msg.JobID != "" {
		err := p.jobs.UpdateStatus(ctx, msg.JobID, domain.JobActive, msg.Attempt, "")
		var notFound *domain.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	job := &domain.ScoringJob{
		ID:          msg.JobID,
		Name:        domain.ScoringJobName,
		Queue:       domain.ScoringQueue,
		InterviewID: msg.InterviewID,
		Status:      domain.JobActive,
		Attempts:    msg.Attempt,
		MaxAttempts: p.cfg.MaxAttempts,
	}
	if err := p.jobs.Create(ctx, job); err != nil {
		return err
	}
	msg.JobID = job.ID
	return nil
}

func (p *Pipeline) process(ctx context.Context, msg domain.ScoringMessage) error {
	interview, err := p.interviews.Get(ctx, msg.InterviewID)
	if err != nil {
		return err
	}
	if interview.ResultStatus == domain.ResultCompleted {
		p.log.Info("interview already scored", zap.String("interview_id", interview.ID))
		return nil
	}
	if err := p.interviews.SetResultStatus(ctx, interview.ID, domain.ResultInProgress); err != nil {
		return err
	}

	candidate, err := p.candidates.Get(ctx, interview.CandidateID)
	if err != nil {
		return err
	}
	position, err := p.positions.Get(ctx, interview.PositionID)
	if err != nil {
		return err
	}

	scoreCtx := ctx
	if p.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, p.cfg.JobTimeout)
		defer cancel()
	}

	result, err := p.scorer.Score(scoreCtx, domain.ScoringInput{
		InterviewContext: interviewContext(candidate, position),
		Conversation:     interview.Conversation,
	})
	if err != nil {
		return err
	}

	saved, err := p.interviews.SaveResult(ctx, interview.ID, result)
	if err != nil {
		return err
	}
	if !saved {
		p.log.Info("result already stored by another job", zap.String("interview_id", interview.ID))
	}
	return nil
}

func (p *Pipeline) prune(ctx context.Context) {
	if err := p.jobs.Prune(ctx, p.cfg.Retention); err != nil {
		p.log.Warn("failed to prune job history", zap.Error(err))
	}
}

// Job loads one scoring job row.
func (p *Pipeline) Job(ctx context.Context, jobID string) (*domain.ScoringJob, error) {
	return p.jobs.Get(ctx, jobID)
}

// Jobs lists recent scoring jobs, newest first. An empty status lists all.
func (p *Pipeline) Jobs(ctx context.Context, status domain.JobStatus, limit int) ([]domain.ScoringJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return p.jobs.ListRecent(ctx, status, limit)
}
