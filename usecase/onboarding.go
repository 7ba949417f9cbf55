package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"interview-platform/domain"
)

// TextExtractor reads plain text out of an uploaded document.
type TextExtractor interface {
	Extract(ctx context.Context, r io.Reader, filename string) (string, error)
}

// NewCandidate is the invitee supplied when an interview is assigned.
type NewCandidate struct {
	Firstname     string `json:"firstname" binding:"required"`
	Lastname      string `json:"lastname"`
	EmailAddress  string `json:"email_address" binding:"required,email"`
	ContactNumber string `json:"contact_number"`
}

type NewPosition struct {
	Name               string `json:"name" binding:"required"`
	OrganizationID     int    `json:"organization_id"`
	JDText             string `json:"jd_text"`
	IntroductionSpeech string `json:"introduction_speech"`
}

// InterviewDetails bundles an interview with its candidate and position.
type InterviewDetails struct {
	Candidate *domain.Candidate `json:"candidate"`
	Position  *domain.Position  `json:"position"`
	Interview *domain.Interview `json:"interview"`
}

// Invitation is the outcome of one bulk invite entry.
type Invitation struct {
	EmailAddress string `json:"email_address"`
	InterviewID  string `json:"interview_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

type ResumeUpload struct {
	CandidateID  string          `json:"candidate_id"`
	ResumeText   string          `json:"resume_text"`
	ResumeObject json.RawMessage `json:"resume_object,omitempty"`
}

const inviteConcurrency = 4

// Onboarding manages candidates, positions and interview assignment.
type Onboarding struct {
	candidates domain.CandidateRepository
	positions  domain.PositionRepository
	interviews domain.InterviewRepository
	refiner    domain.DocumentRefiner
	extractor  TextExtractor
	ttl        time.Duration
	now        func() time.Time
	log        *zap.Logger
}

type OnboardingDeps struct {
	Candidates domain.CandidateRepository
	Positions  domain.PositionRepository
	Interviews domain.InterviewRepository
	Refiner    domain.DocumentRefiner
	Extractor  TextExtractor
	// TTL sets the expiry date of new interviews; zero means no expiry.
	TTL time.Duration
	Log *zap.Logger
}

func NewOnboarding(d OnboardingDeps) *Onboarding {
	return &Onboarding{
		candidates: d.Candidates,
		positions:  d.Positions,
		interviews: d.Interviews,
		refiner:    d.Refiner,
		extractor:  d.Extractor,
		ttl:        d.TTL,
		now:        time.Now,
		log:        d.Log,
	}
}

// AssignInterview creates an interview for the candidate, registering the
// candidate first unless one with the same email already exists.
func (s *Onboarding) AssignInterview(ctx context.Context, user NewCandidate, positionID string, organizationID int) (*InterviewDetails, error) {
	pid, err := domain.ParseID("position_id", positionID)
	if err != nil {
		return nil, err
	}
	position, err := s.positions.Get(ctx, pid)
	if err != nil {
		return nil, err
	}

	candidate, err := s.candidateFor(ctx, user)
	if err != nil {
		return nil, err
	}

	interview := &domain.Interview{
		CandidateID:    candidate.ID,
		PositionID:     position.ID,
		OrganizationID: organizationID,
	}
	if s.ttl > 0 {
		expiry := s.now().Add(s.ttl)
		interview.ExpiryDate = &expiry
	}
	if err := s.interviews.Create(ctx, interview); err != nil {
		return nil, err
	}

	s.log.Info("interview assigned",
		zap.String("interview_id", interview.ID),
		zap.String("candidate_id", candidate.ID),
		zap.String("position_id", position.ID))
	return &InterviewDetails{Candidate: candidate, Position: position, Interview: interview}, nil
}

func (s *Onboarding) candidateFor(ctx context.Context, user NewCandidate) (*domain.Candidate, error) {
	email := strings.ToLower(strings.TrimSpace(user.EmailAddress))
	if email == "" {
		return nil, &domain.ValidationError{Field: "email_address", Message: "is required"}
	}

	existing, err := s.candidates.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	candidate := &domain.Candidate{
		Firstname:     strings.TrimSpace(user.Firstname),
		Lastname:      strings.TrimSpace(user.Lastname),
		EmailAddress:  email,
		ContactNumber: strings.TrimSpace(user.ContactNumber),
	}
	if candidate.Firstname == "" {
		return nil, &domain.ValidationError{Field: "firstname", Message: "is required"}
	}
	if err := s.candidates.Create(ctx, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

// BulkInvite assigns interviews for many candidates. A failed entry is
// reported in its Invitation and does not stop the others.
func (s *Onboarding) BulkInvite(ctx context.Context, positionID string, organizationID int, users []NewCandidate) ([]Invitation, error) {
	if len(users) == 0 {
		return nil, &domain.ValidationError{Field: "candidates", Message: "at least one candidate is required"}
	}
	pid, err := domain.ParseID("position_id", positionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.positions.Get(ctx, pid); err != nil {
		return nil, err
	}

	invitations := make([]Invitation, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(inviteConcurrency)
	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			invitations[i].EmailAddress = user.EmailAddress
			details, err := s.AssignInterview(gctx, user, pid, organizationID)
			if err != nil {
				invitations[i].Error = err.Error()
				return nil
			}
			invitations[i].InterviewID = details.Interview.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return invitations, nil
}

func (s *Onboarding) GetInterview(ctx context.Context, interviewID string) (*InterviewDetails, error) {
	id, err := domain.ParseID("id", interviewID)
	if err != nil {
		return nil, err
	}
	interview, err := s.interviews.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	candidate, err := s.candidates.Get(ctx, interview.CandidateID)
	if err != nil {
		return nil, err
	}
	position, err := s.positions.Get(ctx, interview.PositionID)
	if err != nil {
		return nil, err
	}
	return &InterviewDetails{Candidate: candidate, Position: position, Interview: interview}, nil
}

// ListInterviews returns interviews matching the filter, newest first.
func (s *Onboarding) ListInterviews(ctx context.Context, filter domain.InterviewFilter) ([]domain.Interview, error) {
	if filter.PositionID != "" {
		pid, err := domain.ParseID("position_id", filter.PositionID)
		if err != nil {
			return nil, err
		}
		filter.PositionID = pid
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.interviews.List(ctx, filter)
}

func (s *Onboarding) CreatePosition(ctx context.Context, in NewPosition) (*domain.Position, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "is required"}
	}
	position := &domain.Position{
		Name:               name,
		OrganizationID:     in.OrganizationID,
		JDText:             strings.TrimSpace(in.JDText),
		IntroductionSpeech: strings.TrimSpace(in.IntroductionSpeech),
	}
	if err := s.positions.Create(ctx, position); err != nil {
		return nil, err
	}
	s.log.Info("position created", zap.String("position_id", position.ID), zap.String("name", name))
	return position, nil
}

func (s *Onboarding) GetPosition(ctx context.Context, positionID string) (*domain.Position, error) {
	id, err := domain.ParseID("id", positionID)
	if err != nil {
		return nil, err
	}
	return s.positions.Get(ctx, id)
}

// RefineJobDescription structures a job description and stores both forms on
// the position. An empty text refines the description already stored.
func (s *Onboarding) RefineJobDescription(ctx context.Context, positionID, text string) (json.RawMessage, error) {
	id, err := domain.ParseID("position_id", positionID)
	if err != nil {
		return nil, err
	}
	position, err := s.positions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = position.JDText
	}
	object, err := s.refiner.RefineJobDescription(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := s.positions.UpdateJobDescription(ctx, id, text, object); err != nil {
		return nil, err
	}
	return object, nil
}

// RefineResume structures resume text. With a candidate id the result is
// stored on the candidate, and an empty text refines the resume already
// stored there.
func (s *Onboarding) RefineResume(ctx context.Context, candidateID, text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if candidateID == "" {
		return s.refiner.RefineResume(ctx, text)
	}

	id, err := domain.ParseID("candidate_id", candidateID)
	if err != nil {
		return nil, err
	}
	candidate, err := s.candidates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if text == "" {
		text = candidate.ResumeText
	}
	object, err := s.refiner.RefineResume(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := s.candidates.UpdateResume(ctx, id, text, object); err != nil {
		return nil, err
	}
	return object, nil
}

// UploadResume extracts the resume text, structures it and stores both on
// the candidate.
func (s *Onboarding) UploadResume(ctx context.Context, candidateID string, r io.Reader, filename string) (*ResumeUpload, error) {
	id, err := domain.ParseID("candidate_id", candidateID)
	if err != nil {
		return nil, err
	}
	if _, err := s.candidates.Get(ctx, id); err != nil {
		return nil, err
	}

	text, err := s.extractor.Extract(ctx, r, filename)
	if err != nil {
		return nil, err
	}
	object, err := s.refiner.RefineResume(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := s.candidates.UpdateResume(ctx, id, text, object); err != nil {
		return nil, err
	}

	s.log.Info("resume stored", zap.String("candidate_id", id), zap.Int("chars", len(text)))
	return &ResumeUpload{CandidateID: id, ResumeText: text, ResumeObject: object}, nil
}
