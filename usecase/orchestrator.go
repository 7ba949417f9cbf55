package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"interview-platform/domain"
)

// Finisher completes an interview once its conversation has closed.
type Finisher interface {
	Finish(ctx context.Context, interviewID string) (string, error)
}

// AdvanceResult is what the candidate sees after a round.
type AdvanceResult struct {
	Question          string `json:"question"`
	IsInterviewClosed bool   `json:"is_interview_closed"`
}

// Orchestrator drives the question and answer loop of an interview.
type Orchestrator struct {
	interviews domain.InterviewRepository
	candidates domain.CandidateRepository
	positions  domain.PositionRepository
	evaluator  domain.Evaluator
	locker     domain.Locker
	finisher   Finisher
	autoFinish bool
	now        func() time.Time
	log        *zap.Logger
}

type OrchestratorDeps struct {
	Interviews domain.InterviewRepository
	Candidates domain.CandidateRepository
	Positions  domain.PositionRepository
	Evaluator  domain.Evaluator
	Locker     domain.Locker
	// Finisher is called when a round closes the interview; nil disables it.
	Finisher   Finisher
	AutoFinish bool
	Log        *zap.Logger
}

func NewOrchestrator(d OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		interviews: d.Interviews,
		candidates: d.Candidates,
		positions:  d.Positions,
		evaluator:  d.Evaluator,
		locker:     d.Locker,
		finisher:   d.Finisher,
		autoFinish: d.AutoFinish && d.Finisher != nil,
		now:        time.Now,
		log:        d.Log,
	}
}

// Advance runs one round. Without an answer it returns the pending question,
// generating the opening question on an empty conversation. With an answer it
// evaluates it against the stored last question, appends the annotated
// turns and the next question, and stores everything in one write.
func (o *Orchestrator) Advance(ctx context.Context, interviewID string, question, answer *string) (AdvanceResult, error) {
	id, err := domain.ParseID("interview_id", interviewID)
	if err != nil {
		return AdvanceResult{}, err
	}

	release, err := o.locker.Acquire(ctx, id)
	if errors.Is(err, domain.ErrLockHeld) {
		return AdvanceResult{}, &domain.ConflictError{Message: "another answer for this interview is being processed", Retryable: true}
	}
	if err != nil {
		return AdvanceResult{}, &domain.PersistenceError{Op: "acquire interview lock", Cause: err}
	}
	defer release()

	interview, err := o.interviews.Get(ctx, id)
	if err != nil {
		return AdvanceResult{}, err
	}
	if interview.Status.Terminal() {
		return AdvanceResult{}, &domain.ConflictError{Message: "interview is " + string(interview.Status)}
	}
	if interview.Conversation.Closed() {
		return AdvanceResult{}, &domain.ConflictError{Message: "interview conversation is closed"}
	}

	if answer == nil {
		return o.open(ctx, interview)
	}
	return o.answer(ctx, interview, question, *answer)
}

func (o *Orchestrator) open(ctx context.Context, interview *domain.Interview) (AdvanceResult, error) {
	if last := interview.Conversation.LastSystem(); last != nil {
		// Already asked; hand the same question back.
		return AdvanceResult{Question: last.Question}, nil
	}

	ictx, err := o.loadContext(ctx, interview)
	if err != nil {
		return AdvanceResult{}, err
	}

	next, err := o.evaluator.OpeningQuestion(ctx, ictx)
	if err != nil {
		return AdvanceResult{}, asUnavailable("opening question", err)
	}

	count, category, _ := domain.QuestionCount{}.Next(domain.CategoryIntroduction, "")
	turn := &domain.SystemTurn{
		Question:      strings.TrimSpace(next.Question),
		Category:      category,
		QuestionCount: count,
		StrategyNote:  next.StrategyNote,
		AskedAt:       o.now(),
	}
	conv := domain.Conversation{{System: turn}}

	if err := o.interviews.SaveConversation(ctx, interview.ID, interview.TurnCount, conv); err != nil {
		return AdvanceResult{}, err
	}

	o.log.Info("opening question asked", zap.String("interview_id", interview.ID))
	return AdvanceResult{Question: turn.Question}, nil
}

func (o *Orchestrator) answer(ctx context.Context, interview *domain.Interview, question *string, answer string) (AdvanceResult, error) {
	last := interview.Conversation.LastSystem()
	if last == nil {
		return AdvanceResult{}, &domain.ValidationError{Field: "answer", Message: "no question has been asked yet"}
	}
	if question != nil && strings.TrimSpace(*question) != "" && strings.TrimSpace(*question) != last.Question {
		o.log.Warn("submitted question differs from the stored one, using stored",
			zap.String("interview_id", interview.ID),
			zap.String("submitted", truncate(*question)))
	}

	ictx, err := o.loadContext(ctx, interview)
	if err != nil {
		return AdvanceResult{}, err
	}

	assessment, err := o.evaluator.EvaluateAnswer(ctx, domain.AnswerInput{
		InterviewContext: ictx,
		Conversation:     interview.Conversation,
		Question:         last.Question,
		Answer:           answer,
		Count:            last.QuestionCount,
	})
	if err != nil {
		return AdvanceResult{}, asUnavailable("evaluate answer", err)
	}

	conv, next := applyRound(interview.Conversation, answer, assessment, o.now())
	if err := o.interviews.SaveConversation(ctx, interview.ID, interview.TurnCount, conv); err != nil {
		return AdvanceResult{}, err
	}

	o.log.Info("answer evaluated",
		zap.String("interview_id", interview.ID),
		zap.Bool("accepted", assessment.Evaluation.Status),
		zap.String("reason", assessment.Evaluation.Reason),
		zap.Int("total_questions", next.QuestionCount.Total),
		zap.Bool("closed", next.IsClosed))

	if next.IsClosed && o.autoFinish {
		if _, err := o.finisher.Finish(ctx, interview.ID); err != nil {
			o.log.Error("failed to finish closed interview", zap.String("interview_id", interview.ID), zap.Error(err))
		}
	}

	return AdvanceResult{Question: next.Question, IsInterviewClosed: next.IsClosed}, nil
}

func (o *Orchestrator) loadContext(ctx context.Context, interview *domain.Interview) (domain.InterviewContext, error) {
	candidate, err := o.candidates.Get(ctx, interview.CandidateID)
	if err != nil {
		return domain.InterviewContext{}, err
	}
	position, err := o.positions.Get(ctx, interview.PositionID)
	if err != nil {
		return domain.InterviewContext{}, err
	}
	return interviewContext(candidate, position), nil
}

func interviewContext(c *domain.Candidate, p *domain.Position) domain.InterviewContext {
	return domain.InterviewContext{
		CandidateName:      strings.TrimSpace(c.Firstname + " " + c.Lastname),
		JobDescription:     p.JobDescriptionContext(),
		Resume:             c.ResumeContext(),
		IntroductionSpeech: p.IntroductionSpeech,
	}
}

// applyRound returns a new transcript with the last system turn annotated,
// the user turn appended and the next system turn appended after it.
func applyRound(conv domain.Conversation, answer string, a domain.Assessment, now time.Time) (domain.Conversation, *domain.SystemTurn) {
	out := conv.Clone()
	last := out.LastSystem()
	verdict := a.Evaluation

	annotated := answer
	recorded := verdict
	last.Answer = &annotated
	last.Evaluation = &recorded

	out = append(out, domain.Turn{User: &domain.UserTurn{
		Question:   last.Question,
		Answer:     answer,
		Evaluation: verdict,
		AnsweredAt: now,
	}})

	count, category, exhausted := last.QuestionCount.Next(a.Next.Category, last.Category)
	reason := closeReason(out, verdict, a.Next, count, exhausted)

	next := &domain.SystemTurn{
		Question:      strings.TrimSpace(a.Next.Question),
		Category:      category,
		QuestionCount: count,
		StrategyNote:  a.Next.StrategyNote,
		IsClosed:      reason != "",
		AskedAt:       now,
	}

	switch {
	case a.Next.IsClosed:
		next.Question = firstNonEmpty(next.Question, verdict.ResponseText(), domain.DefaultClosingMessage)
	case reason != "":
		// Closed here rather than by the model: the proposed question will
		// never be answered, so book the turn as a closing message.
		next.QuestionCount, next.Category, _ = last.QuestionCount.Next(domain.CategoryClosing, last.Category)
		next.StrategyNote = "Ending interview: " + reason
		if verdict.Terminal() {
			next.Question = firstNonEmpty(verdict.ResponseText(), domain.DefaultClosingMessage)
		} else {
			next.Question = domain.DefaultClosingMessage
		}
	}

	return append(out, domain.Turn{System: next}), next
}

// closeReason explains why the next turn must close the interview, or
// returns "" when it may stay open.
func closeReason(conv domain.Conversation, verdict domain.Verdict, next domain.NextTurn, count domain.QuestionCount, exhausted bool) string {
	switch {
	case next.IsClosed:
		return "closed by interviewer"
	case verdict.Exit():
		return "candidate asked to exit"
	case verdict.Terminal():
		return "answer classified as " + verdict.Label()
	case conv.TrailingRejections() >= domain.MaxConsecutiveRejections:
		return "too many consecutive invalid answers"
	case count.Total >= domain.MaxQuestions:
		return "question budget reached"
	case exhausted:
		return "all categories covered"
	}
	return ""
}

func asUnavailable(op string, err error) error {
	var unavailable *domain.EvaluationUnavailable
	if errors.As(err, &unavailable) {
		return err
	}
	return &domain.EvaluationUnavailable{Message: op, Cause: err}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func truncate(s string) string {
	const limit = 200
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
