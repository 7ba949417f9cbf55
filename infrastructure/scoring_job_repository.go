package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"interview-platform/domain"
)

// ScoringJobRepository keeps the history of scoring jobs.
type ScoringJobRepository struct {
	db *gorm.DB
}

func NewScoringJobRepository(db *gorm.DB) *ScoringJobRepository {
	return &ScoringJobRepository{db: db}
}

func (r *ScoringJobRepository) Create(ctx context.Context, job *domain.ScoringJob) error {
	if job.ID == "" {
		job.ID = domain.NewID()
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return &domain.PersistenceError{Op: "create scoring job", Cause: err}
	}
	return nil
}

func (r *ScoringJobRepository) Get(ctx context.Context, id string) (*domain.ScoringJob, error) {
	var job domain.ScoringJob
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.NotFoundError{Entity: "scoring job", ID: id}
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load scoring job", Cause: err}
	}
	return &job, nil
}

func (r *ScoringJobRepository) UpdateStatus(ctx context.Context, id string, status domain.JobStatus, attempts int, lastErr string) error {
	now := time.Now()
	fields := map[string]interface{}{
		"status":     status,
		"attempts":   attempts,
		"last_error": lastErr,
		"updated_at": now,
	}
	if status == domain.JobCompleted || status == domain.JobFailed {
		fields["finished_at"] = now
	}

	res := r.db.WithContext(ctx).Model(&domain.ScoringJob{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return &domain.PersistenceError{Op: "update scoring job", Cause: res.Error}
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "scoring job", ID: id}
	}
	return nil
}

func (r *ScoringJobRepository) Prune(ctx context.Context, keep int) error {
	for _, status := range []domain.JobStatus{domain.JobCompleted, domain.JobFailed} {
		var stale []string
		err := r.db.WithContext(ctx).
			Model(&domain.ScoringJob{}).
			Where("status = ?", status).
			Order("finished_at DESC").
			Offset(keep).
			Limit(1000).
			Pluck("id", &stale).Error
		if err != nil {
			return &domain.PersistenceError{Op: "prune scoring jobs", Cause: err}
		}
		if len(stale) == 0 {
			continue
		}
		if err := r.db.WithContext(ctx).Where("id IN ?", stale).Delete(&domain.ScoringJob{}).Error; err != nil {
			return &domain.PersistenceError{Op: "prune scoring jobs", Cause: err}
		}
	}
	return nil
}

func (r *ScoringJobRepository) ListRecent(ctx context.Context, status domain.JobStatus, limit int) ([]domain.ScoringJob, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var jobs []domain.ScoringJob
	if err := q.Find(&jobs).Error; err != nil {
		return nil, &domain.PersistenceError{Op: "list scoring jobs", Cause: err}
	}
	return jobs, nil
}
