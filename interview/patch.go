package interview

import (
	"time"

	"github.com/NishanthN27/Final-Year/graph"
)

// Patch is the partial update returned by interview nodes and accepted by
// Resume. Every field is absent unless set. Slot fields distinguish "leave
// alone" from an explicit Clear.
type Patch struct {
	SessionID                 graph.Slot[string]
	UserID                    graph.Slot[string]
	InitialResumeText         graph.Slot[string]
	InitialJobDescriptionText graph.Slot[string]

	ResumeSummary          graph.Slot[*ResumeSummary]
	JobSummary             graph.Slot[*JobSummary]
	PersonalizationProfile graph.Slot[*Profile]

	InterviewPlan graph.Slot[[]string]
	CurrentTopic  graph.Slot[string]

	CurrentQuestion *QuestionPatch

	FollowUpQuestion graph.Slot[string]
	FollowUpCount    graph.Slot[int]

	// AppendHistory is appended to QuestionHistory in order.
	AppendHistory []QuestionTurn

	FinalReport graph.Slot[*Report]
}

// QuestionPatch updates the in-flight question. With Clear set the
// question is dropped and no other field may be set. With Replace set the
// existing question is discarded and Replace is installed before the
// remaining fields apply. Evals and Feedback merge key by key.
type QuestionPatch struct {
	Clear   bool
	Replace *QuestionTurn

	QuestionID         *string
	Topic              *string
	ConversationalText *string
	RawQuestionText    *string
	IdealAnswerSnippet *string
	RubricID           *string
	AnswerText         *string
	IsFollowUp         *bool
	Timestamp          *time.Time
	AnsweredAt         *time.Time

	Evals    map[string]Evaluation
	Feedback map[string]any
}

// hasFields reports whether any field besides Clear and Replace is set.
func (qp *QuestionPatch) hasFields() bool {
	return qp.QuestionID != nil || qp.Topic != nil || qp.ConversationalText != nil ||
		qp.RawQuestionText != nil || qp.IdealAnswerSnippet != nil || qp.RubricID != nil ||
		qp.AnswerText != nil || qp.IsFollowUp != nil || qp.Timestamp != nil ||
		qp.AnsweredAt != nil || len(qp.Evals) > 0 || len(qp.Feedback) > 0
}

// AnswerPatch is the input a caller passes to Resume to answer the question
// the session is paused on.
func AnswerPatch(answer string) Patch {
	return Patch{CurrentQuestion: &QuestionPatch{AnswerText: &answer}}
}

// evalPatch writes a single evaluation key on the current question.
func evalPatch(key string, ev Evaluation) Patch {
	return Patch{CurrentQuestion: &QuestionPatch{Evals: map[string]Evaluation{key: ev}}}
}

// feedbackPatch merges fb into the current question's feedback.
func feedbackPatch(fb map[string]any) Patch {
	return Patch{CurrentQuestion: &QuestionPatch{Feedback: fb}}
}

func ptr[T any](v T) *T { return &v }
