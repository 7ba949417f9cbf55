package infrastructure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interview-platform/domain"
)

type fakeCompleter struct {
	reply string
	err   error

	system string
	user   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func (f *fakeCompleter) Close() error { return nil }

func newTestEvaluator(reply string) (*LLMEvaluator, *fakeCompleter) {
	llm := &fakeCompleter{reply: reply}
	return NewLLMEvaluator(llm, time.Second, zap.NewNop()), llm
}

func requireUnavailable(t *testing.T, err error) {
	t.Helper()
	var unavailable *domain.EvaluationUnavailable
	require.ErrorAs(t, err, &unavailable)
}

func TestLLMEvaluator_OpeningQuestion(t *testing.T) {
	e, llm := newTestEvaluator("```json\n{\"next\": {\"question\": \"Walk me through your last project.\", \"category\": \"Introduction\", \"isClosed\": true}}\n```")

	next, err := e.OpeningQuestion(context.Background(), domain.InterviewContext{
		CandidateName:  "Ada",
		JobDescription: "Backend Engineer",
	})

	require.NoError(t, err)
	assert.Equal(t, "Walk me through your last project.", next.Question)
	assert.False(t, next.IsClosed, "an opening question never closes the interview")
	assert.Contains(t, llm.user, "Ada")
	assert.Contains(t, llm.user, "Backend Engineer")
}

func TestLLMEvaluator_OpeningQuestionEmpty(t *testing.T) {
	e, _ := newTestEvaluator(`{"next": {"question": "  ", "isClosed": false}}`)

	_, err := e.OpeningQuestion(context.Background(), domain.InterviewContext{})

	requireUnavailable(t, err)
}

func TestLLMEvaluator_EvaluateAnswer(t *testing.T) {
	reply := `Here is my assessment:
{
  "evaluation": {"status": false, "reason": "vague", "ask_same_question": true, "exit_interview": null, "response": "Could you give a concrete example?"},
  "next": {"question": "Could you give a concrete example?", "category": "Experience & Achievements", "strategy_note": "probe", "isClosed": false}
}`
	e, _ := newTestEvaluator(reply)

	got, err := e.EvaluateAnswer(context.Background(), domain.AnswerInput{Question: "q", Answer: "a"})

	require.NoError(t, err)
	assert.False(t, got.Evaluation.Status)
	assert.Equal(t, "vague", got.Evaluation.Reason)
	assert.True(t, got.Evaluation.AskSameQuestion)
	assert.False(t, got.Evaluation.Exit())
	assert.Equal(t, "Could you give a concrete example?", got.Evaluation.ResponseText())
	assert.Equal(t, domain.CategoryExperience, got.Next.Category)
}

func TestLLMEvaluator_EvaluateAnswerRejectsBadReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{name: "call fails", err: errors.New("timeout")},
		{name: "empty reply", reply: "   "},
		{name: "not json", reply: "I cannot help with that."},
		{name: "truncated json", reply: `{"evaluation": {"status": true`},
		{name: "missing evaluation", reply: `{"next": {"question": "next?", "isClosed": false}}`},
		{name: "empty reason", reply: `{"evaluation": {"status": true, "reason": "", "ask_same_question": false}, "next": {"question": "next?", "isClosed": false}}`},
		{name: "open turn without question", reply: `{"evaluation": {"status": true, "reason": "relevant", "ask_same_question": false}, "next": {"question": "", "isClosed": false}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeCompleter{reply: tt.reply, err: tt.err}
			e := NewLLMEvaluator(llm, time.Second, zap.NewNop())

			_, err := e.EvaluateAnswer(context.Background(), domain.AnswerInput{})

			requireUnavailable(t, err)
		})
	}
}

func TestLLMEvaluator_ScoreNormalizesWeights(t *testing.T) {
	reply := `{
  "overall_relevance_score": 12,
  "recommendation": "Match",
  "criteria_scores": {
    "relevance_to_questions": 80,
    "experience_background_fit": 70,
    "role_specific_knowledge": 90,
    "communication_skills": 60,
    "emotional_intelligence": 50,
    "depth_precision": 100
  },
  "criteria_weights": {"relevance_to_questions": 1},
  "strengths": ["depth"],
  "weaknesses": ["brevity"],
  "confidence_level": 75
}`
	e, _ := newTestEvaluator(reply)

	got, err := e.Score(context.Background(), domain.ScoringInput{})

	require.NoError(t, err)
	// 80*.2 + 70*.2 + 90*.25 + 60*.15 + 50*.1 + 100*.1
	assert.InDelta(t, 76.5, got.OverallRelevanceScore, 0.001)
	assert.InDelta(t, 1.0, got.WeightSum(), 0.0001)
	assert.Equal(t, domain.CriteriaWeights, got.CriteriaWeights)
}

func TestLLMEvaluator_ScoreMissingCriterion(t *testing.T) {
	reply := `{
  "recommendation": "No Match",
  "criteria_scores": {"relevance_to_questions": 80},
  "strengths": [], "weaknesses": [], "confidence_level": 40
}`
	e, _ := newTestEvaluator(reply)

	_, err := e.Score(context.Background(), domain.ScoringInput{})

	requireUnavailable(t, err)
}

func TestLLMEvaluator_Refine(t *testing.T) {
	e, _ := newTestEvaluator(`{"role": "Backend Engineer", "skills": ["Go"]}`)

	out, err := e.RefineJobDescription(context.Background(), "We are hiring a Go engineer.")
	require.NoError(t, err)
	assert.JSONEq(t, `{"role": "Backend Engineer", "skills": ["Go"]}`, string(out))

	_, err = e.RefineResume(context.Background(), "  ")
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding prose", in: "Sure! {\"a\":{\"b\":2}} Hope this helps.", want: `{"a":{"b":2}}`},
		{name: "no object", in: "  nothing here ", want: "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSONResponse(tt.in))
		})
	}
}

func TestValidateDocumentListsFields(t *testing.T) {
	err := validateDocument(assessmentSchema, `{"evaluation": {"status": "yes"}}`)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.NotEmpty(t, schemaErr.Fields)
	assert.Contains(t, err.Error(), "schema validation failed")
}
