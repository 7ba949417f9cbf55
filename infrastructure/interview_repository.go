package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"interview-platform/domain"
)

// InterviewRepository stores interviews with gorm.
type InterviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

func (r *InterviewRepository) Create(ctx context.Context, interview *domain.Interview) error {
	if interview.ID == "" {
		interview.ID = domain.NewID()
	}
	if interview.Status == "" {
		interview.Status = domain.StatusNotStarted
	}
	if interview.ResultStatus == "" {
		interview.ResultStatus = domain.ResultNotAttempted
	}
	if interview.Conversation == nil {
		interview.Conversation = domain.Conversation{}
	}
	interview.TurnCount = len(interview.Conversation)
	interview.Active = true

	if err := r.db.WithContext(ctx).Create(interview).Error; err != nil {
		return &domain.PersistenceError{Op: "create interview", Cause: err}
	}
	return nil
}

func (r *InterviewRepository) Get(ctx context.Context, id string) (*domain.Interview, error) {
	var interview domain.Interview
	err := r.db.WithContext(ctx).First(&interview, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.NotFoundError{Entity: "interview", ID: id}
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load interview", Cause: err}
	}
	return &interview, nil
}

func (r *InterviewRepository) List(ctx context.Context, filter domain.InterviewFilter) ([]domain.Interview, error) {
	q := r.db.WithContext(ctx).Model(&domain.Interview{}).Order("created_at DESC")
	if filter.PositionID != "" {
		q = q.Where("position_id = ?", filter.PositionID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var interviews []domain.Interview
	if err := q.Find(&interviews).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "list interviews", Cause: err}
	}
	return interviews, nil
}

func (r *InterviewRepository) SaveConversation(ctx context.Context, id string, expectedTurns int, conversation domain.Conversation) error {
	if err := conversation.Validate(); err != nil {
		return &domain.PersistenceError{Op: "save conversation", Cause: fmt.Errorf("invalid transcript: %w", err)}
	}

	res := r.db.WithContext(ctx).
		Model(&domain.Interview{}).
		Where("id = ? AND turn_count = ?", id, expectedTurns).
		Updates(map[string]interface{}{
			"conversation": conversation,
			"turn_count":   len(conversation),
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return &domain.PersistenceError{Op: "save conversation", Cause: res.Error}
	}
	if res.RowsAffected == 0 {
		return &domain.ConflictError{Message: "conversation changed concurrently", Retryable: true}
	}
	return nil
}

func (r *InterviewRepository) Transition(ctx context.Context, id string, from []domain.InterviewStatus, to domain.InterviewStatus, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	if to == domain.StatusInProgress {
		updates["started_on"] = at
	} else {
		updates["ended_on"] = at
	}
	if to.Terminal() {
		updates["active"] = false
	}

	res := r.db.WithContext(ctx).
		Model(&domain.Interview{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, &domain.PersistenceError{Op: "update interview status", Cause: res.Error}
	}
	return res.RowsAffected == 1, nil
}

func (r *InterviewRepository) SetScoringJob(ctx context.Context, id, jobID string) error {
	return r.update(ctx, "record scoring job", id, map[string]interface{}{"scoring_job_id": jobID})
}

func (r *InterviewRepository) SetResultStatus(ctx context.Context, id string, status domain.ResultStatus) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Interview{}).
		Where("id = ? AND result_status <> ?", id, domain.ResultCompleted).
		Updates(map[string]interface{}{"result_status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return &domain.PersistenceError{Op: "update result status", Cause: res.Error}
	}
	return nil
}

func (r *InterviewRepository) SaveResult(ctx context.Context, id string, result domain.Result) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Interview{}).
		Where("id = ? AND result_status <> ?", id, domain.ResultCompleted).
		Updates(map[string]interface{}{
			"result":        result,
			"result_status": domain.ResultCompleted,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return false, &domain.PersistenceError{Op: "save result", Cause: res.Error}
	}
	return res.RowsAffected == 1, nil
}

func (r *InterviewRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.Interview, error) {
	var interviews []domain.Interview
	err := r.db.WithContext(ctx).
		Where("status IN ? AND expiry_date IS NOT NULL AND expiry_date < ?",
			[]domain.InterviewStatus{domain.StatusNotStarted, domain.StatusInProgress}, now).
		Order("expiry_date").
		Limit(limit).
		Find(&interviews).Error
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list expired interviews", Cause: err}
	}
	return interviews, nil
}

func (r *InterviewRepository) update(ctx context.Context, op, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&domain.Interview{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return &domain.PersistenceError{Op: op, Cause: res.Error}
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "interview", ID: id}
	}
	return nil
}
