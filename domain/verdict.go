package domain

import "strings"

// Answer classification labels produced by the evaluator.
const (
	ReasonEmpty            = "Empty"
	ReasonAbusive          = "Abusive"
	ReasonRandom           = "Random"
	ReasonAvoidance        = "Avoidance"
	ReasonNotInterested    = "Not Interested"
	ReasonEmotional        = "Emotional/Sensitive"
	ReasonPersonalInterest = "Personal Interest"
	ReasonIrrelevantDomain = "Irrelevant Domain"
	ReasonGenericChatter   = "Generic Chatter"
	ReasonConfused         = "Confused/Unclear"
	ReasonFake             = "Fake/Crafted"
	ReasonRelevant         = "Relevant"
)

// Reasons is the full answer taxonomy.
var Reasons = []string{
	ReasonEmpty,
	ReasonAbusive,
	ReasonRandom,
	ReasonAvoidance,
	ReasonNotInterested,
	ReasonEmotional,
	ReasonPersonalInterest,
	ReasonIrrelevantDomain,
	ReasonGenericChatter,
	ReasonConfused,
	ReasonFake,
	ReasonRelevant,
}

// MaxConsecutiveRejections is how many rejected answers in a row end the interview.
const MaxConsecutiveRejections = 3

// DefaultClosingMessage is shown when a closing turn carries no text of its own.
const DefaultClosingMessage = "Thank you for your time. This concludes the interview."

// Verdict is the evaluator's judgement of one answer.
type Verdict struct {
	Status          bool    `json:"status"`
	Reason          string  `json:"reason" validate:"required"`
	AskSameQuestion bool    `json:"ask_same_question"`
	ExitInterview   *bool   `json:"exit_interview"`
	Response        *string `json:"response"`
}

// Exit reports whether the evaluator asked for a hard stop.
func (v Verdict) Exit() bool {
	return v.ExitInterview != nil && *v.ExitInterview
}

// ResponseText returns the message for the candidate, or "".
func (v Verdict) ResponseText() string {
	if v.Response == nil {
		return ""
	}
	return strings.TrimSpace(*v.Response)
}

// Label maps the free-text reason onto the taxonomy. Models often answer with a
// sentence rather than the bare label, so matching is case-insensitive and
// accepts a few common spellings. Unmatched reasons return "".
func (v Verdict) Label() string {
	return ReasonLabel(v.Reason)
}

// ReasonLabel maps a reason string onto one of Reasons.
func ReasonLabel(reason string) string {
	r := strings.ToLower(strings.TrimSpace(reason))
	if r == "" {
		return ""
	}
	for _, label := range Reasons {
		if r == strings.ToLower(label) {
			return label
		}
	}
	// A reason that opens with a label, such as "Relevant, shows strong
	// emotional intelligence", is classified by that label alone.
	for _, label := range Reasons {
		if l := strings.ToLower(label); strings.HasPrefix(r, l) && !startsWord(r[len(l):]) {
			return label
		}
	}

	switch {
	case strings.Contains(r, "abusive"), strings.Contains(r, "offensive"), strings.Contains(r, "profan"):
		return ReasonAbusive
	case strings.Contains(r, "emotional"), strings.Contains(r, "sensitive"), strings.Contains(r, "distress"):
		return ReasonEmotional
	case strings.Contains(r, "not interested"), strings.Contains(r, "disinterest"), strings.Contains(r, "uninterested"):
		return ReasonNotInterested
	case strings.Contains(r, "empty"), strings.Contains(r, "no answer"):
		return ReasonEmpty
	case strings.Contains(r, "avoid"), strings.Contains(r, "evasive"):
		return ReasonAvoidance
	case strings.Contains(r, "personal"):
		return ReasonPersonalInterest
	case strings.Contains(r, "irrelevant"), strings.Contains(r, "off-topic"), strings.Contains(r, "off topic"):
		return ReasonIrrelevantDomain
	case strings.Contains(r, "chatter"), strings.Contains(r, "small talk"):
		return ReasonGenericChatter
	case strings.Contains(r, "confus"), strings.Contains(r, "unclear"):
		return ReasonConfused
	case strings.Contains(r, "fake"), strings.Contains(r, "crafted"), strings.Contains(r, "fabricat"):
		return ReasonFake
	case strings.Contains(r, "random"), strings.Contains(r, "gibberish"):
		return ReasonRandom
	case strings.Contains(r, "relevant"):
		return ReasonRelevant
	}
	return ""
}

// startsWord reports whether rest continues the word a label prefix ended in.
func startsWord(rest string) bool {
	if rest == "" {
		return false
	}
	c := rest[0]
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// Terminal reports whether the verdict alone ends the interview: an explicit
// exit, or a rejected answer labelled abusive, emotionally sensitive or
// disinterested. Accepted answers never end it through their label.
func (v Verdict) Terminal() bool {
	if v.Exit() {
		return true
	}
	if v.Status {
		return false
	}
	switch v.Label() {
	case ReasonAbusive, ReasonEmotional, ReasonNotInterested:
		return true
	}
	return false
}

// NextTurn is the question the evaluator proposes after a verdict.
type NextTurn struct {
	Question     string `json:"question"`
	Category     string `json:"category"`
	StrategyNote string `json:"strategy_note"`
	IsClosed     bool   `json:"isClosed"`
}

// Assessment is the evaluator's answer to one round: the verdict on the last
// answer and the proposed next question.
type Assessment struct {
	Evaluation Verdict  `json:"evaluation"`
	Next       NextTurn `json:"next"`
}
