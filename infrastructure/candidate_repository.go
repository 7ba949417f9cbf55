package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"interview-platform/domain"
)

type CandidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

func (r *CandidateRepository) Create(ctx context.Context, candidate *domain.Candidate) error {
	if candidate.ID == "" {
		candidate.ID = domain.NewID()
	}
	err := r.db.WithContext(ctx).Create(candidate).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &domain.ConflictError{Message: "candidate with this email already exists"}
	}
	if err != nil {
		return &domain.PersistenceError{Op: "create candidate", Cause: err}
	}
	return nil
}

func (r *CandidateRepository) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *CandidateRepository) GetByEmail(ctx context.Context, email string) (*domain.Candidate, error) {
	return r.first(ctx, "email_address = ?", email)
}

func (r *CandidateRepository) UpdateResume(ctx context.Context, id, text string, object json.RawMessage) error {
	fields := map[string]interface{}{
		"resume_text": text,
		"updated_at":  time.Now(),
	}
	if len(object) > 0 {
		fields["resume_object"] = datatypes.JSON(object)
	}

	res := r.db.WithContext(ctx).Model(&domain.Candidate{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return &domain.PersistenceError{Op: "update resume", Cause: res.Error}
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "candidate", ID: id}
	}
	return nil
}

func (r *CandidateRepository) first(ctx context.Context, query string, arg string) (*domain.Candidate, error) {
	var candidate domain.Candidate
	err := r.db.WithContext(ctx).Where(query, arg).First(&candidate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.NotFoundError{Entity: "candidate", ID: arg}
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load candidate", Cause: err}
	}
	return &candidate, nil
}

type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) Create(ctx context.Context, position *domain.Position) error {
	if position.ID == "" {
		position.ID = domain.NewID()
	}
	err := r.db.WithContext(ctx).Create(position).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &domain.ConflictError{Message: "position with this name already exists"}
	}
	if err != nil {
		return &domain.PersistenceError{Op: "create position", Cause: err}
	}
	return nil
}

func (r *PositionRepository) Get(ctx context.Context, id string) (*domain.Position, error) {
	var position domain.Position
	err := r.db.WithContext(ctx).First(&position, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &domain.NotFoundError{Entity: "position", ID: id}
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "load position", Cause: err}
	}
	return &position, nil
}

func (r *PositionRepository) UpdateJobDescription(ctx context.Context, id, text string, object json.RawMessage) error {
	fields := map[string]interface{}{
		"jd_text":    text,
		"updated_at": time.Now(),
	}
	if len(object) > 0 {
		fields["jd_object"] = datatypes.JSON(object)
	}

	res := r.db.WithContext(ctx).Model(&domain.Position{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return &domain.PersistenceError{Op: "update job description", Cause: res.Error}
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "position", ID: id}
	}
	return nil
}
