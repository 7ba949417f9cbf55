package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type InterviewStatus string

const (
	StatusNotStarted InterviewStatus = "not_started"
	StatusInProgress InterviewStatus = "in_progress"
	StatusAborted    InterviewStatus = "aborted"
	StatusCompleted  InterviewStatus = "completed"
)

// Terminal reports whether no further transition is allowed.
func (s InterviewStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAborted
}

type ResultStatus string

const (
	ResultNotAttempted ResultStatus = "not_attempted_yet"
	ResultInProgress   ResultStatus = "in_progress"
	ResultCompleted    ResultStatus = "completed"
)

// Interview is one candidate's session for one position. TurnCount mirrors
// len(Conversation) and guards conversation writes.
type Interview struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	CandidateID    string          `gorm:"size:36;index;not null" json:"candidate_id"`
	PositionID     string          `gorm:"size:36;index;not null" json:"position_id"`
	OrganizationID int             `json:"organization_id"`
	Status         InterviewStatus `gorm:"size:20;not null;default:not_started;index" json:"status"`
	Conversation   Conversation    `json:"conversation"`
	TurnCount      int             `gorm:"not null;default:0" json:"turn_count"`
	ResultStatus   ResultStatus    `gorm:"size:20;not null;default:not_attempted_yet" json:"result_status"`
	Result         *Result         `json:"result,omitempty"`
	ScoringJobID   string          `gorm:"size:36" json:"scoring_job_id,omitempty"`
	Active         bool            `gorm:"not null;default:true" json:"active"`
	ExpiryDate     *time.Time      `gorm:"index" json:"expiry_date,omitempty"`
	StartedOn      *time.Time      `json:"started_on,omitempty"`
	EndedOn        *time.Time      `json:"ended_on,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// GormDataType stores the transcript as a JSON column.
func (Conversation) GormDataType() string {
	return "json"
}

// GormDataType stores the result as a JSON column.
func (Result) GormDataType() string {
	return "json"
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return uuid.NewString()
}

// ParseID validates an identifier supplied by a caller.
func ParseID(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Field: field, Message: "is required"}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &ValidationError{Field: field, Message: "invalid id format"}
	}
	return id.String(), nil
}
