package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"interview-platform/domain"
)

type memoryInterviews struct {
	mu         sync.Mutex
	items      map[string]*domain.Interview
	saveErr    error
	saves      int
	transition func(id string, to domain.InterviewStatus)
}

func newMemoryInterviews(items ...*domain.Interview) *memoryInterviews {
	m := &memoryInterviews{items: map[string]*domain.Interview{}}
	for _, it := range items {
		if it.ResultStatus == "" {
			it.ResultStatus = domain.ResultNotAttempted
		}
		it.TurnCount = len(it.Conversation)
		m.items[it.ID] = it
	}
	return m
}

func (m *memoryInterviews) Create(_ context.Context, interview *domain.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if interview.ID == "" {
		interview.ID = domain.NewID()
	}
	if interview.Status == "" {
		interview.Status = domain.StatusNotStarted
	}
	interview.ResultStatus = domain.ResultNotAttempted
	interview.Active = true
	copied := *interview
	m.items[interview.ID] = &copied
	return nil
}

func (m *memoryInterviews) Get(_ context.Context, id string) (*domain.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "interview", ID: id}
	}
	copied := *it
	copied.Conversation = it.Conversation.Clone()
	return &copied, nil
}

func (m *memoryInterviews) List(_ context.Context, filter domain.InterviewFilter) ([]domain.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Interview
	for _, it := range m.items {
		if filter.PositionID != "" && it.PositionID != filter.PositionID {
			continue
		}
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		out = append(out, *it)
	}
	return out, nil
}

func (m *memoryInterviews) SaveConversation(_ context.Context, id string, expectedTurns int, conv domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if err := conv.Validate(); err != nil {
		return &domain.PersistenceError{Op: "save conversation", Cause: err}
	}
	it, ok := m.items[id]
	if !ok || it.TurnCount != expectedTurns {
		return &domain.ConflictError{Message: "conversation changed concurrently", Retryable: true}
	}
	it.Conversation = conv.Clone()
	it.TurnCount = len(conv)
	m.saves++
	return nil
}

func (m *memoryInterviews) Transition(_ context.Context, id string, from []domain.InterviewStatus, to domain.InterviewStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if it.Status == s {
			it.Status = to
			if to == domain.StatusInProgress {
				it.StartedOn = &at
			} else {
				it.EndedOn = &at
			}
			if m.transition != nil {
				m.transition(id, to)
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryInterviews) SetScoringJob(_ context.Context, id, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return &domain.NotFoundError{Entity: "interview", ID: id}
	}
	it.ScoringJobID = jobID
	return nil
}

func (m *memoryInterviews) SetResultStatus(_ context.Context, id string, status domain.ResultStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[id]; ok && it.ResultStatus != domain.ResultCompleted {
		it.ResultStatus = status
	}
	return nil
}

func (m *memoryInterviews) SaveResult(_ context.Context, id string, result domain.Result) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok || it.ResultStatus == domain.ResultCompleted {
		return false, nil
	}
	it.Result = &result
	it.ResultStatus = domain.ResultCompleted
	return true, nil
}

func (m *memoryInterviews) ListExpired(_ context.Context, now time.Time, limit int) ([]domain.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Interview
	for _, it := range m.items {
		if !it.Status.Terminal() && it.ExpiryDate != nil && it.ExpiryDate.Before(now) {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *memoryInterviews) snapshot(id string) domain.Interview {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[id]
}

type memoryCandidates struct {
	mu    sync.Mutex
	items map[string]*domain.Candidate
}

func newMemoryCandidates(items ...*domain.Candidate) *memoryCandidates {
	m := &memoryCandidates{items: map[string]*domain.Candidate{}}
	for _, c := range items {
		m.items[c.ID] = c
	}
	return m
}

func (m *memoryCandidates) Create(_ context.Context, c *domain.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.EmailAddress == c.EmailAddress {
			return &domain.ConflictError{Message: "candidate with this email already exists"}
		}
	}
	if c.ID == "" {
		c.ID = domain.NewID()
	}
	m.items[c.ID] = c
	return nil
}

func (m *memoryCandidates) Get(_ context.Context, id string) (*domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.items[id]; ok {
		return c, nil
	}
	return nil, &domain.NotFoundError{Entity: "candidate", ID: id}
}

func (m *memoryCandidates) GetByEmail(_ context.Context, email string) (*domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.EmailAddress == email {
			return c, nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "candidate", ID: email}
}

func (m *memoryCandidates) UpdateResume(_ context.Context, id, text string, object json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return &domain.NotFoundError{Entity: "candidate", ID: id}
	}
	c.ResumeText = text
	c.ResumeObject = []byte(object)
	return nil
}

type memoryPositions struct {
	items map[string]*domain.Position
}

func newMemoryPositions(items ...*domain.Position) *memoryPositions {
	m := &memoryPositions{items: map[string]*domain.Position{}}
	for _, p := range items {
		m.items[p.ID] = p
	}
	return m
}

func (m *memoryPositions) Create(_ context.Context, p *domain.Position) error {
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	m.items[p.ID] = p
	return nil
}

func (m *memoryPositions) Get(_ context.Context, id string) (*domain.Position, error) {
	if p, ok := m.items[id]; ok {
		return p, nil
	}
	return nil, &domain.NotFoundError{Entity: "position", ID: id}
}

func (m *memoryPositions) UpdateJobDescription(_ context.Context, id, text string, object json.RawMessage) error {
	p, ok := m.items[id]
	if !ok {
		return &domain.NotFoundError{Entity: "position", ID: id}
	}
	p.JDText = text
	p.JDObject = []byte(object)
	return nil
}

type memoryJobs struct {
	mu     sync.Mutex
	items  map[string]*domain.ScoringJob
	pruned int
}

func newMemoryJobs() *memoryJobs {
	return &memoryJobs{items: map[string]*domain.ScoringJob{}}
}

func (m *memoryJobs) Create(_ context.Context, job *domain.ScoringJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == "" {
		job.ID = domain.NewID()
	}
	copied := *job
	m.items[job.ID] = &copied
	return nil
}

func (m *memoryJobs) Get(_ context.Context, id string) (*domain.ScoringJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.items[id]; ok {
		copied := *j
		return &copied, nil
	}
	return nil, &domain.NotFoundError{Entity: "scoring job", ID: id}
}

func (m *memoryJobs) UpdateStatus(_ context.Context, id string, status domain.JobStatus, attempts int, lastErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.items[id]
	if !ok {
		return &domain.NotFoundError{Entity: "scoring job", ID: id}
	}
	j.Status = status
	j.Attempts = attempts
	j.LastError = lastErr
	return nil
}

func (m *memoryJobs) Prune(_ context.Context, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned++
	return nil
}

func (m *memoryJobs) ListRecent(_ context.Context, status domain.JobStatus, _ int) ([]domain.ScoringJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ScoringJob
	for _, j := range m.items {
		if status == "" || j.Status == status {
			out = append(out, *j)
		}
	}
	return out, nil
}

type recordingQueue struct {
	mu        sync.Mutex
	published []domain.ScoringMessage
	err       error
}

func (q *recordingQueue) Publish(_ context.Context, msg domain.ScoringMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, msg)
	return nil
}

func (q *recordingQueue) messages() []domain.ScoringMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.ScoringMessage(nil), q.published...)
}

type fakeEvaluator struct {
	OpeningFunc  func(ctx context.Context, in domain.InterviewContext) (domain.NextTurn, error)
	EvaluateFunc func(ctx context.Context, in domain.AnswerInput) (domain.Assessment, error)
	calls        int
}

func (f *fakeEvaluator) OpeningQuestion(ctx context.Context, in domain.InterviewContext) (domain.NextTurn, error) {
	f.calls++
	return f.OpeningFunc(ctx, in)
}

func (f *fakeEvaluator) EvaluateAnswer(ctx context.Context, in domain.AnswerInput) (domain.Assessment, error) {
	f.calls++
	return f.EvaluateFunc(ctx, in)
}

type fakeScorer struct {
	ScoreFunc func(ctx context.Context, in domain.ScoringInput) (domain.Result, error)
}

func (f *fakeScorer) Score(ctx context.Context, in domain.ScoringInput) (domain.Result, error) {
	return f.ScoreFunc(ctx, in)
}

type fakeRefiner struct {
	JDFunc     func(ctx context.Context, text string) (json.RawMessage, error)
	ResumeFunc func(ctx context.Context, text string) (json.RawMessage, error)
}

func (f *fakeRefiner) RefineJobDescription(ctx context.Context, text string) (json.RawMessage, error) {
	return f.JDFunc(ctx, text)
}

func (f *fakeRefiner) RefineResume(ctx context.Context, text string) (json.RawMessage, error) {
	return f.ResumeFunc(ctx, text)
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) {
	return nil, domain.ErrLockHeld
}

type brokenLocker struct{}

func (brokenLocker) Acquire(context.Context, string) (func(), error) {
	return nil, errors.New("redis: connection refused")
}

type freeLocker struct{}

func (freeLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

type fakeFinisher struct {
	ids []string
	err error
}

func (f *fakeFinisher) Finish(_ context.Context, id string) (string, error) {
	f.ids = append(f.ids, id)
	return "job-1", f.err
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
