package interview

import (
	"context"
	"errors"

	"github.com/NishanthN27/Final-Year/graph"
)

// ResumeAnalyzer turns raw resume text into a ResumeSummary.
type ResumeAnalyzer interface {
	AnalyzeResume(ctx context.Context, text string) (*ResumeSummary, error)
}

// JobAnalyzer turns a raw job description into a JobSummary.
type JobAnalyzer interface {
	AnalyzeJob(ctx context.Context, text string) (*JobSummary, error)
}

// Planner builds the ordered list of topic tokens for a session. Any input
// may be nil.
type Planner interface {
	Plan(ctx context.Context, resume *ResumeSummary, job *JobSummary, profile *Profile) ([]string, error)
}

// Question is a question produced by retrieval or deep-dive generation.
type Question struct {
	QuestionID         string `json:"question_id,omitempty"`
	ConversationalText string `json:"conversational_text"`
	RawQuestionText    string `json:"raw_question_text"`
	IdealAnswerSnippet string `json:"ideal_answer_snippet,omitempty"`
	RubricID           string `json:"rubric_id,omitempty"`
}

// RetrievalContext is what a QuestionRetriever may use to pick a question.
type RetrievalContext struct {
	ResumeSummary *ResumeSummary
	JobSummary    *JobSummary
	Profile       *Profile
	History       []QuestionTurn
}

// AskedIDs returns the question ids already present in the history.
func (rc RetrievalContext) AskedIDs() map[string]bool {
	ids := make(map[string]bool, len(rc.History))
	for _, turn := range rc.History {
		if turn.QuestionID != "" {
			ids[turn.QuestionID] = true
		}
	}
	return ids
}

// QuestionRetriever selects a question for a stage topic.
type QuestionRetriever interface {
	RetrieveQuestion(ctx context.Context, topic string, rc RetrievalContext) (Question, error)
}

// ErrUnknownItem is returned by a DeepDiveGenerator asked about an item the
// resume does not contain.
var ErrUnknownItem = errors.New("item not found in resume")

// DeepDiveGenerator writes a question probing one resume item.
type DeepDiveGenerator interface {
	DeepDive(ctx context.Context, itemType, itemName string, resume *ResumeSummary) (Question, error)
}

// FastEvaluator scores an answer against the ideal answer snippet.
type FastEvaluator interface {
	FastEvaluate(ctx context.Context, question, idealAnswer, answer string) (Evaluation, error)
}

// RubricEvaluator scores an answer against a rubric. Its result decides
// whether a follow-up is needed via Evaluation.UserInputNeeded.
type RubricEvaluator interface {
	RubricEvaluate(ctx context.Context, question, answer, rubricID string) (Evaluation, error)
}

// FeedbackGenerator writes feedback for an evaluated answer.
type FeedbackGenerator interface {
	Feedback(ctx context.Context, turn QuestionTurn) (map[string]any, error)
}

// FollowUp is the decision of a FollowUpGenerator.
type FollowUp struct {
	Required bool   `json:"required"`
	Question string `json:"question,omitempty"`
}

// FollowUpGenerator decides whether an answer deserves a follow-up question.
type FollowUpGenerator interface {
	FollowUp(ctx context.Context, turn QuestionTurn) (FollowUp, error)
}

// ReportGenerator writes the end-of-session report.
type ReportGenerator interface {
	Report(ctx context.Context, history []QuestionTurn) (Report, error)
}

// PersonalizationGenerator updates a user's profile from a finished
// session. previous may be nil.
type PersonalizationGenerator interface {
	Personalize(ctx context.Context, history []QuestionTurn, previous *Profile) (Profile, error)
}

// ProfileStore persists personalization profiles by user id.
type ProfileStore interface {
	// LoadProfile returns nil and no error for an unknown user.
	LoadProfile(ctx context.Context, userID string) (*Profile, error)
	SaveProfile(ctx context.Context, userID string, p Profile) error
}

// CodeMissingCollaborator is the ConfigError code for an unset
// collaborator.
const CodeMissingCollaborator = "MISSING_COLLABORATOR"

// Collaborators groups the content-producing services an Interviewer calls.
// Every field is required.
type Collaborators struct {
	ResumeAnalyzer  ResumeAnalyzer
	JobAnalyzer     JobAnalyzer
	Planner         Planner
	Retriever       QuestionRetriever
	DeepDive        DeepDiveGenerator
	FastEvaluator   FastEvaluator
	RubricEvaluator RubricEvaluator
	Feedback        FeedbackGenerator
	FollowUp        FollowUpGenerator
	Reporter        ReportGenerator
	Personalizer    PersonalizationGenerator
}

// Validate reports the first missing collaborator.
func (c Collaborators) Validate() error {
	missing := func(name string) error {
		return &graph.ConfigError{Code: CodeMissingCollaborator, Subject: name, Message: "collaborator is required"}
	}
	switch {
	case c.ResumeAnalyzer == nil:
		return missing("resume analyzer")
	case c.JobAnalyzer == nil:
		return missing("job analyzer")
	case c.Planner == nil:
		return missing("planner")
	case c.Retriever == nil:
		return missing("question retriever")
	case c.DeepDive == nil:
		return missing("deep dive")
	case c.FastEvaluator == nil:
		return missing("fast evaluator")
	case c.RubricEvaluator == nil:
		return missing("rubric evaluator")
	case c.Feedback == nil:
		return missing("feedback")
	case c.FollowUp == nil:
		return missing("follow-up")
	case c.Reporter == nil:
		return missing("report")
	case c.Personalizer == nil:
		return missing("personalization")
	}
	return nil
}
