package domain

import (
	"context"
	"encoding/json"
	"time"
)

// InterviewFilter narrows an interview listing. Zero fields match everything.
type InterviewFilter struct {
	PositionID string
	Status     InterviewStatus
	Limit      int
}

type InterviewRepository interface {
	Create(ctx context.Context, interview *Interview) error
	Get(ctx context.Context, id string) (*Interview, error)
	List(ctx context.Context, filter InterviewFilter) ([]Interview, error)
	// SaveConversation replaces the transcript only if it still holds
	// expectedTurns entries. A lost race returns a *ConflictError.
	SaveConversation(ctx context.Context, id string, expectedTurns int, conversation Conversation) error
	// Transition moves the interview to status `to` when its current status
	// is one of from, stamping started_on or ended_on with at. It reports
	// whether a row changed.
	Transition(ctx context.Context, id string, from []InterviewStatus, to InterviewStatus, at time.Time) (bool, error)
	SetScoringJob(ctx context.Context, id, jobID string) error
	SetResultStatus(ctx context.Context, id string, status ResultStatus) error
	// SaveResult stores the result unless one is already completed. It
	// reports whether the result was written.
	SaveResult(ctx context.Context, id string, result Result) (bool, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]Interview, error)
}

type CandidateRepository interface {
	Create(ctx context.Context, candidate *Candidate) error
	Get(ctx context.Context, id string) (*Candidate, error)
	GetByEmail(ctx context.Context, email string) (*Candidate, error)
	UpdateResume(ctx context.Context, id, text string, object json.RawMessage) error
}

type PositionRepository interface {
	Create(ctx context.Context, position *Position) error
	Get(ctx context.Context, id string) (*Position, error)
	UpdateJobDescription(ctx context.Context, id, text string, object json.RawMessage) error
}

type ScoringJobRepository interface {
	Create(ctx context.Context, job *ScoringJob) error
	Get(ctx context.Context, id string) (*ScoringJob, error)
	UpdateStatus(ctx context.Context, id string, status JobStatus, attempts int, lastErr string) error
	// Prune keeps the newest keep completed and keep failed jobs.
	Prune(ctx context.Context, keep int) error
	ListRecent(ctx context.Context, status JobStatus, limit int) ([]ScoringJob, error)
}

// JobQueue delivers scoring messages to the worker.
type JobQueue interface {
	Publish(ctx context.Context, msg ScoringMessage) error
}

// Locker hands out short-lived exclusive tokens. Acquire returns ErrLockHeld
// when the key is taken and never blocks waiting for it.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// InterviewContext is the reference material every model call receives.
type InterviewContext struct {
	CandidateName      string
	JobDescription     string
	Resume             string
	IntroductionSpeech string
}

// AnswerInput is one round handed to the evaluator.
type AnswerInput struct {
	InterviewContext
	Conversation Conversation
	Question     string
	Answer       string
	Count        QuestionCount
}

// Evaluator generates interview questions and judges answers.
type Evaluator interface {
	OpeningQuestion(ctx context.Context, in InterviewContext) (NextTurn, error)
	EvaluateAnswer(ctx context.Context, in AnswerInput) (Assessment, error)
}

// ScoringInput is a finished interview handed to the scorer.
type ScoringInput struct {
	InterviewContext
	Conversation Conversation
}

// Scorer produces the final weighted evaluation of an interview.
type Scorer interface {
	Score(ctx context.Context, in ScoringInput) (Result, error)
}

// DocumentRefiner turns raw job description and resume text into structured JSON.
type DocumentRefiner interface {
	RefineJobDescription(ctx context.Context, text string) (json.RawMessage, error)
	RefineResume(ctx context.Context, text string) (json.RawMessage, error)
}
