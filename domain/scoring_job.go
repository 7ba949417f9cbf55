package domain

import "time"

const (
	// ScoringQueue receives one message per finished interview.
	ScoringQueue = "process-result"
	// ScoringJobName is the message type of a scoring request.
	ScoringJobName = "standard-submission"
	// ScoringMaxAttempts bounds deliveries of one job, the first included.
	ScoringMaxAttempts = 3
	// ScoringRetention is how many completed and how many failed jobs are kept.
	ScoringRetention = 10
)

type JobStatus string

const (
	JobWaiting   JobStatus = "waiting"
	JobActive    JobStatus = "active"
	JobDelayed   JobStatus = "delayed"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// ScoringJob is the history row of one scoring request.
type ScoringJob struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Name        string     `gorm:"size:64;not null" json:"name"`
	Queue       string     `gorm:"size:64;not null" json:"queue"`
	InterviewID string     `gorm:"size:36;index;not null" json:"interview_id"`
	Status      JobStatus  `gorm:"size:16;not null;index" json:"status"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts int        `gorm:"not null" json:"max_attempts"`
	LastError   string     `gorm:"type:text" json:"last_error,omitempty"`
	FinishedAt  *time.Time `gorm:"index" json:"finished_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ScoringPayload is the message body on the wire.
type ScoringPayload struct {
	InterviewID string `json:"interview_id"`
}

// ScoringMessage is a delivery of a scoring job. Attempt starts at 1.
// A positive Delay asks the queue to hold the message before delivery.
type ScoringMessage struct {
	JobID       string
	InterviewID string
	Attempt     int
	Delay       time.Duration
}
