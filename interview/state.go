// Package interview conducts a multi-stage interview session on top of the
// graph engine: inputs are analyzed, a plan of topics is built, questions are
// asked one at a time with a pause for each answer, answers are scored by two
// independent evaluators, follow-up detours are inserted when an answer
// needs probing, and the session ends with a report and an updated
// personalization profile.
package interview

import (
	"strings"
	"time"
)

// Evaluation keys inside QuestionTurn.Evals.
const (
	EvalFast      = "fast_eval"
	EvalRubric    = "rubric_eval"
	EvalCanonical = "canonical"
)

// SessionState is the full state of one interview session. It is persisted
// in every checkpoint and therefore must stay JSON-serializable.
type SessionState struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`

	InitialResumeText         string `json:"initial_resume_text,omitempty"`
	InitialJobDescriptionText string `json:"initial_job_description_text,omitempty"`

	ResumeSummary          *ResumeSummary `json:"resume_summary,omitempty"`
	JobSummary             *JobSummary    `json:"job_summary,omitempty"`
	PersonalizationProfile *Profile       `json:"personalization_profile,omitempty"`

	// InterviewPlan is consumed from the front by the advance_plan node.
	InterviewPlan []string `json:"interview_plan"`
	CurrentTopic  string   `json:"current_topic,omitempty"`

	CurrentQuestion *QuestionTurn `json:"current_question,omitempty"`

	// FollowUpQuestion is set by the follow-up generator and consumed by
	// advance_plan within the same loop iteration.
	FollowUpQuestion string `json:"follow_up_question,omitempty"`
	FollowUpCount    int    `json:"follow_up_count"`

	QuestionHistory []QuestionTurn `json:"question_history"`
	FinalReport     *Report        `json:"final_report,omitempty"`
}

// QuestionTurn is one asked question together with its answer, scores and
// feedback. Turns in QuestionHistory are never modified.
type QuestionTurn struct {
	QuestionID         string                `json:"question_id,omitempty"`
	Topic              string                `json:"topic,omitempty"`
	ConversationalText string                `json:"conversational_text"`
	RawQuestionText    string                `json:"raw_question_text"`
	IdealAnswerSnippet string                `json:"ideal_answer_snippet,omitempty"`
	RubricID           string                `json:"rubric_id,omitempty"`
	AnswerText         *string               `json:"answer_text,omitempty"`
	Evals              map[string]Evaluation `json:"evals,omitempty"`
	Feedback           map[string]any        `json:"feedback,omitempty"`
	IsFollowUp         bool                  `json:"is_follow_up,omitempty"`
	Timestamp          time.Time             `json:"timestamp"`
	AnsweredAt         *time.Time            `json:"answered_at,omitempty"`
}

// Answered reports whether the turn carries an answer.
func (q *QuestionTurn) Answered() bool {
	return q != nil && q.AnswerText != nil
}

// Answer returns the answer text or "".
func (q *QuestionTurn) Answer() string {
	if q == nil || q.AnswerText == nil {
		return ""
	}
	return *q.AnswerText
}

// Eval returns the evaluation stored under key.
func (q *QuestionTurn) Eval(key string) (Evaluation, bool) {
	if q == nil {
		return Evaluation{}, false
	}
	ev, ok := q.Evals[key]
	return ev, ok
}

// Evaluation is a score on the 0..100 scale with an explanation.
type Evaluation struct {
	Score           float64        `json:"score"`
	Summary         string         `json:"summary,omitempty"`
	UserInputNeeded bool           `json:"user_input_needed,omitempty"`
	Details         map[string]any `json:"details,omitempty"`
}

// ResumeSummary is the structured analysis of a candidate's resume.
type ResumeSummary struct {
	Name       string    `json:"name,omitempty"`
	Summary    string    `json:"summary"`
	Skills     []string  `json:"skills,omitempty"`
	Projects   []Project `json:"projects,omitempty"`
	Experience []string  `json:"experience,omitempty"`
}

// FindProject returns the project whose title matches name, ignoring case.
func (r *ResumeSummary) FindProject(name string) (Project, bool) {
	if r == nil {
		return Project{}, false
	}
	for _, p := range r.Projects {
		if strings.EqualFold(strings.TrimSpace(p.Title), strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Project{}, false
}

// Project is one resume project.
type Project struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// JobSummary is the structured analysis of a job description.
type JobSummary struct {
	Title            string   `json:"title,omitempty"`
	Summary          string   `json:"summary"`
	RequiredSkills   []string `json:"required_skills,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
}

// Profile records what the system learned about a user across sessions.
type Profile struct {
	FocusAreas        []string  `json:"focus_areas,omitempty"`
	Strengths         []string  `json:"strengths,omitempty"`
	Weaknesses        []string  `json:"weaknesses,omitempty"`
	RecommendedTopics []string  `json:"recommended_topics,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	SessionsCompleted int       `json:"sessions_completed"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Report is the end-of-session report.
type Report struct {
	Summary             string   `json:"summary"`
	OverallScore        float64  `json:"overall_score"`
	QuestionsAnswered   int      `json:"questions_answered"`
	Strengths           []string `json:"strengths,omitempty"`
	AreasForImprovement []string `json:"areas_for_improvement,omitempty"`
}
