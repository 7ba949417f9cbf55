package infrastructure

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"interview-platform/domain"
)

const maxLoggedReply = 500

// LLMEvaluator implements the evaluator, scorer and document refiner on top
// of a Completer. Every reply passes fence stripping, schema validation and a
// typed decode; anything that fails becomes *domain.EvaluationUnavailable.
type LLMEvaluator struct {
	llm     Completer
	timeout time.Duration
	log     *zap.Logger
}

func NewLLMEvaluator(llm Completer, timeout time.Duration, log *zap.Logger) *LLMEvaluator {
	return &LLMEvaluator{llm: llm, timeout: timeout, log: log}
}

func (e *LLMEvaluator) OpeningQuestion(ctx context.Context, in domain.InterviewContext) (domain.NextTurn, error) {
	var out struct {
		Next domain.NextTurn `json:"next"`
	}
	if err := e.call(ctx, "opening question", openingPrompt, openingMessage(in), openingSchema, &out); err != nil {
		return domain.NextTurn{}, err
	}
	if strings.TrimSpace(out.Next.Question) == "" {
		return domain.NextTurn{}, &domain.EvaluationUnavailable{Message: "opening question is empty"}
	}
	out.Next.IsClosed = false
	return out.Next, nil
}

func (e *LLMEvaluator) EvaluateAnswer(ctx context.Context, in domain.AnswerInput) (domain.Assessment, error) {
	var out domain.Assessment
	if err := e.call(ctx, "evaluate answer", interviewerPrompt, answerMessage(in), assessmentSchema, &out); err != nil {
		return domain.Assessment{}, err
	}
	if !out.Next.IsClosed && strings.TrimSpace(out.Next.Question) == "" {
		return domain.Assessment{}, &domain.EvaluationUnavailable{Message: "next question is empty on an open turn"}
	}
	return out, nil
}

func (e *LLMEvaluator) Score(ctx context.Context, in domain.ScoringInput) (domain.Result, error) {
	var out domain.Result
	if err := e.call(ctx, "score interview", scoringPrompt, scoringMessage(in), resultSchema, &out); err != nil {
		return domain.Result{}, err
	}
	if err := out.Normalize(); err != nil {
		return domain.Result{}, &domain.EvaluationUnavailable{Message: "score interview: invalid result", Cause: err}
	}
	return out, nil
}

func (e *LLMEvaluator) RefineJobDescription(ctx context.Context, text string) (json.RawMessage, error) {
	return e.refine(ctx, "refine job description", jobDescriptionPrompt, text)
}

func (e *LLMEvaluator) RefineResume(ctx context.Context, text string) (json.RawMessage, error) {
	return e.refine(ctx, "refine resume", resumePrompt, text)
}

func (e *LLMEvaluator) refine(ctx context.Context, op, system, text string) (json.RawMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ValidationError{Field: "text", Message: "document is empty"}
	}
	var out json.RawMessage
	if err := e.call(ctx, op, system, text, documentSchema, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *LLMEvaluator) call(ctx context.Context, op, system, user string, schema *gojsonschema.Schema, out interface{}) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := e.llm.Complete(ctx, system, user)
	if err != nil {
		return &domain.EvaluationUnavailable{Message: op + " call failed", Cause: err}
	}
	e.log.Debug("model replied",
		zap.String("op", op),
		zap.Duration("took", time.Since(started)),
		zap.String("reply", TruncateForLog(raw, maxLoggedReply)))

	cleaned := cleanJSONResponse(raw)
	if cleaned == "" {
		return &domain.EvaluationUnavailable{Message: op + ": empty reply"}
	}
	if err := validateDocument(schema, cleaned); err != nil {
		e.log.Warn("model reply rejected",
			zap.String("op", op),
			zap.Error(err),
			zap.String("reply", TruncateForLog(raw, maxLoggedReply)))
		return &domain.EvaluationUnavailable{Message: op + ": malformed reply", Cause: err}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &domain.EvaluationUnavailable{Message: op + ": decode reply", Cause: err}
	}
	return nil
}
