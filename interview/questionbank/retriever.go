package questionbank

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NishanthN27/Final-Year/interview"
)

// ErrNoQuestion is returned when the bank has no unused question for a
// topic.
var ErrNoQuestion = errors.New("no question available for topic")

// Difficulty adapts to the candidate: a strong last answer raises the
// target, a weak one lowers it.
const (
	strongAnswer = 75.0
	weakAnswer   = 40.0
)

// Retriever serves stage topics straight from a Bank.
type Retriever struct {
	Bank *Bank
}

// NewRetriever creates a Retriever over b.
func NewRetriever(b *Bank) *Retriever {
	return &Retriever{Bank: b}
}

// RetrieveQuestion implements interview.QuestionRetriever.
func (r *Retriever) RetrieveQuestion(_ context.Context, topic string, rc interview.RetrievalContext) (interview.Question, error) {
	q, ok := r.Bank.Pick(topic, TargetDifficulty(rc.History), rc.AskedIDs())
	if !ok {
		return interview.Question{}, fmt.Errorf("%w: %s", ErrNoQuestion, topic)
	}
	return ToInterview(q, fmt.Sprintf("Let's move on to %s. %s", humanTopic(topic), q.Text)), nil
}

// TargetDifficulty picks the difficulty for the next question from the
// canonical score of the last answered turn.
func TargetDifficulty(history []interview.QuestionTurn) int {
	target := DefaultDifficulty
	if len(history) == 0 {
		return target
	}
	last, ok := history[len(history)-1].Evals[interview.EvalCanonical]
	if !ok {
		return target
	}
	switch {
	case last.Score >= strongAnswer:
		return target + 2
	case last.Score < weakAnswer:
		return target - 2
	}
	return target
}

// ToInterview converts a bank question for the interview graph.
func ToInterview(q Question, conversational string) interview.Question {
	if conversational == "" {
		conversational = q.Text
	}
	return interview.Question{
		QuestionID:         q.ID,
		ConversationalText: conversational,
		RawQuestionText:    q.Text,
		IdealAnswerSnippet: q.IdealAnswerSnippet,
		RubricID:           q.RubricID,
	}
}

func humanTopic(topic string) string {
	return strings.ReplaceAll(strings.ReplaceAll(topic, "_", " "), "-", " ")
}
