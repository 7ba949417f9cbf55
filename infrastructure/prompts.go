package infrastructure

import (
	"encoding/json"
	"fmt"
	"strings"

	"interview-platform/domain"
)

var interviewerPrompt = fmt.Sprintf(`ROLE:
You are an AI interviewer running a structured professional job interview.
For every round you evaluate the candidate's latest answer, then decide whether to
rephrase the last question, ask a follow-up, move to a new question or end the interview.
Stay professional, empathetic and concise. Ask exactly one question at a time.

EVALUATION:
1. Special cases first:
   - Abusive language: status false, ask_same_question false, exit_interview true, response is a firm warning.
   - Emotional or sensitive situation (illness, bereavement, distress): status false, exit_interview true, response is an empathetic message.
   - Casual disinterest ("not in the mood", "don't want to do this now"): status false, exit_interview true, response is a polite exit message.
2. Multi-part questions: when the last question bundles several asks, split it and check each one.
   - All parts answered: fully relevant.
   - Some parts answered: status true, ask_same_question false, response names the missing parts,
     and the next question is a follow-up covering them. Never drop the unanswered parts.
   - Nothing answered: irrelevant.
3. Classify the answer with exactly one reason from: %s.
   - Empty, Irrelevant Domain, Random, Avoidance: status false, ask_same_question true, response asks for clarification.
   - Relevant: status true, ask_same_question false, response null.
   - Three or more invalid answers in a row: move to Closing.

INTERVIEW STRUCTURE:
Categories in order: %s.
- At most %d questions in total and at most %d per category.
- Ask at least 3 job-specific questions that the resume does not already answer.
- When every category is covered or the candidate has clearly shown their level, move to Closing.
- Set isClosed true on the final message of the interview.

OUTPUT:
Return ONLY one JSON object, no markdown and no code fences:
{
  "evaluation": {
    "status": true | false,
    "reason": "one of the reasons above",
    "ask_same_question": true | false,
    "exit_interview": true | null,
    "response": "string | null"
  },
  "next": {
    "question": "the next question, or the closing message when isClosed is true",
    "category": "one of the categories above",
    "strategy_note": "why this question was chosen",
    "isClosed": true | false
  }
}`,
	strings.Join(domain.Reasons, ", "),
	strings.Join(domain.Categories, ", "),
	domain.MaxQuestions,
	domain.MaxPerCategory,
)

var openingPrompt = fmt.Sprintf(`You are an AI interviewer opening a professional job interview.
Using the job description and the candidate's resume, write a warm, concise opening question
that invites the candidate to introduce themselves and relates to the role.
The question belongs to the %q category.

Return ONLY one JSON object, no markdown and no code fences:
{
  "next": {
    "question": "the opening question",
    "category": %q,
    "strategy_note": "why this opening was chosen",
    "isClosed": false
  }
}`, domain.CategoryIntroduction, domain.CategoryIntroduction)

const scoringPrompt = `Analyze the interview transcript to assess the overall relevance and quality of the
candidate's answers, using the resume and the job description as reference points.

Criteria, each scored 0-100:
1. relevance_to_questions: relevance to the questions asked (20%)
2. experience_background_fit: experience and background fit (20%)
3. role_specific_knowledge: role-specific and technical knowledge (25%)
4. communication_skills: communication skills (15%)
5. emotional_intelligence: emotional intelligence and professionalism (10%)
6. depth_precision: depth and precision (10%)

Also provide:
- overall_relevance_score: the weighted score (0-100)
- recommendation: "Match" or "No Match"
- factor_based_breakdown (0-100 each): influence_persuasion, achievement_drive,
  resilience_stress_tolerance, communication_skills, problem_solving_adaptability
- strengths and weaknesses as arrays of short strings
- comprehensive_explanation: a 40-50 word explanation
- confidence_level: your confidence in this assessment (0-100)

Return ONLY one JSON object, no markdown and no code fences:
{
  "overall_relevance_score": 0,
  "recommendation": "Match | No Match",
  "criteria_scores": {
    "relevance_to_questions": 0,
    "experience_background_fit": 0,
    "role_specific_knowledge": 0,
    "communication_skills": 0,
    "emotional_intelligence": 0,
    "depth_precision": 0
  },
  "criteria_weights": {
    "relevance_to_questions": 0.20,
    "experience_background_fit": 0.20,
    "role_specific_knowledge": 0.25,
    "communication_skills": 0.15,
    "emotional_intelligence": 0.10,
    "depth_precision": 0.10
  },
  "factor_based_breakdown": {
    "influence_persuasion": 0,
    "achievement_drive": 0,
    "resilience_stress_tolerance": 0,
    "communication_skills": 0,
    "problem_solving_adaptability": 0
  },
  "strengths": [],
  "weaknesses": [],
  "comprehensive_explanation": "",
  "confidence_level": 0
}`

const jobDescriptionPrompt = `You extract structured data from job descriptions.
Return ONLY a valid JSON object with exactly these keys. Use null for missing strings and numbers
and [] for missing arrays. No explanations, no markdown.
{
  "company": null,
  "job_title": null,
  "location": {"city": null, "country": null, "work_mode": null},
  "employment_type": null,
  "department": null,
  "about_role": null,
  "responsibilities": [],
  "requirements": {"education": null, "experience": null, "skills": []},
  "nice_to_have": [],
  "salary": {"min": null, "max": null, "currency": null, "type": null},
  "benefits": [],
  "application": {"email": null, "instructions": null}
}`

const resumePrompt = `You extract structured data from candidate resumes.
Return ONLY a valid JSON object with exactly these keys. Use null for missing strings and [] for
missing arrays. Keep the original wording of descriptions, summaries and achievements.
No explanations, no markdown.
{
  "personal_info": {
    "full_name": null, "email": null, "phone": null,
    "location": {"city": null, "country": null},
    "linkedin": null, "website": null, "github": null, "portfolio": null
  },
  "summary": null,
  "education": [{"degree": null, "field_of_study": null, "institution": null, "location": null, "start_date": null, "end_date": null, "grade": null}],
  "experience": [{"job_title": null, "company": null, "location": null, "start_date": null, "end_date": null, "description": null, "achievements": []}],
  "skills": {"technical": [], "soft": []},
  "certifications": [{"name": null, "issuer": null, "issue_date": null, "expiry_date": null}],
  "projects": [{"name": null, "description": null, "technologies": [], "link": null}],
  "languages": [],
  "awards": [{"title": null, "issuer": null, "date": null, "description": null}],
  "interests": []
}`

func writeContext(b *strings.Builder, in domain.InterviewContext) {
	if in.CandidateName != "" {
		fmt.Fprintf(b, "Candidate name: %s\n\n", in.CandidateName)
	}
	fmt.Fprintf(b, "Job description:\n%s\n\n", orNone(in.JobDescription))
	fmt.Fprintf(b, "Candidate resume:\n%s\n\n", orNone(in.Resume))
}

func openingMessage(in domain.InterviewContext) string {
	var b strings.Builder
	writeContext(&b, in)
	if in.IntroductionSpeech != "" {
		fmt.Fprintf(&b, "The candidate has just heard this introduction:\n%s\n", in.IntroductionSpeech)
	}
	return b.String()
}

func answerMessage(in domain.AnswerInput) string {
	var b strings.Builder
	writeContext(&b, in.InterviewContext)
	fmt.Fprintf(&b, "Conversation so far:\n%s\n", transcript(in.Conversation))

	count, _ := json.Marshal(in.Count)
	fmt.Fprintf(&b, "Question count so far: %s\n", count)
	fmt.Fprintf(&b, "Consecutive rejected answers before this one: %d\n\n", in.Conversation.TrailingRejections())
	fmt.Fprintf(&b, "Last asked question: %q\n", in.Question)
	fmt.Fprintf(&b, "Last answer: %q\n", in.Answer)
	return b.String()
}

func scoringMessage(in domain.ScoringInput) string {
	var b strings.Builder
	writeContext(&b, in.InterviewContext)
	fmt.Fprintf(&b, "Interview transcript:\n%s", transcript(in.Conversation))
	return b.String()
}

// transcript renders the conversation as alternating interviewer and
// candidate lines.
func transcript(conv domain.Conversation) string {
	if len(conv) == 0 {
		return "(empty)\n"
	}
	var b strings.Builder
	for _, t := range conv {
		switch {
		case t.System != nil:
			category := t.System.Category
			if category == "" {
				category = "-"
			}
			fmt.Fprintf(&b, "Interviewer [%s]: %s\n", category, t.System.Question)
		case t.User != nil:
			fmt.Fprintf(&b, "Candidate: %s\n", t.User.Answer)
			fmt.Fprintf(&b, "  (evaluation: status=%t reason=%s)\n", t.User.Evaluation.Status, t.User.Evaluation.Reason)
		}
	}
	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not provided)"
	}
	return s
}
