package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestReasonLabel(t *testing.T) {
	cases := map[string]string{
		"Abusive":                                       ReasonAbusive,
		"abusive":                                       ReasonAbusive,
		"The answer contains offensive language":        ReasonAbusive,
		"Emotional/Sensitive":                           ReasonEmotional,
		"candidate seems emotionally distressed":        ReasonEmotional,
		"Not Interested":                                ReasonNotInterested,
		"Irrelevant Domain":                             ReasonIrrelevantDomain,
		"answer is irrelevant to the question":          ReasonIrrelevantDomain,
		"Relevant":                                      ReasonRelevant,
		"Partially relevant, follow-up needed":          ReasonRelevant,
		"Personal Interest":                             ReasonPersonalInterest,
		"Confused/Unclear":                              ReasonConfused,
		"Relevant, shows strong emotional intelligence": ReasonRelevant,
		"Relevant; candidate handled a sensitive topic": ReasonRelevant,
		"Abusive language towards the interviewer":      ReasonAbusive,
		"Relevantly argued but offensive":               ReasonAbusive,
		"":                                              "",
		"banana":                                        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ReasonLabel(in), in)
	}
}

func TestVerdictTerminal(t *testing.T) {
	assert.True(t, Verdict{Reason: ReasonRelevant, ExitInterview: boolPtr(true)}.Terminal())
	assert.True(t, Verdict{Reason: ReasonAbusive}.Terminal())
	assert.True(t, Verdict{Reason: "emotional/sensitive"}.Terminal())
	assert.True(t, Verdict{Reason: ReasonNotInterested}.Terminal())

	assert.False(t, Verdict{Reason: ReasonRelevant, ExitInterview: boolPtr(false)}.Terminal())
	assert.False(t, Verdict{Reason: ReasonRandom}.Terminal())
	assert.False(t, Verdict{Reason: ReasonPersonalInterest}.Terminal())
}

func TestVerdictTerminalIgnoresAcceptedAnswers(t *testing.T) {
	assert.False(t, Verdict{Status: true, Reason: "Relevant, shows strong emotional intelligence"}.Terminal())
	assert.False(t, Verdict{Status: true, Reason: "Emotional/Sensitive"}.Terminal())
	assert.True(t, Verdict{Status: true, Reason: ReasonRelevant, ExitInterview: boolPtr(true)}.Terminal())
	assert.True(t, Verdict{Status: false, Reason: "Emotional/Sensitive"}.Terminal())
}

func TestVerdictResponseText(t *testing.T) {
	assert.Equal(t, "", Verdict{}.ResponseText())
	msg := "  please elaborate  "
	assert.Equal(t, "please elaborate", Verdict{Response: &msg}.ResponseText())
}
