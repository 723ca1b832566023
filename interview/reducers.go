package interview

import (
	"strings"

	"github.com/NishanthN27/Final-Year/graph"
)

// Score bounds for every Evaluation.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// NewReducers returns the per-key reducers for SessionState in the order
// they are applied.
func NewReducers() *graph.ReducerRegistry[SessionState, Patch] {
	r := graph.NewReducerRegistry[SessionState, Patch]()
	r.MustRegister("session_id", func(s *SessionState, p Patch) error {
		return immutable("session_id", &s.SessionID, p.SessionID)
	})
	r.MustRegister("user_id", func(s *SessionState, p Patch) error {
		return immutable("user_id", &s.UserID, p.UserID)
	})
	r.MustRegister("initial_resume_text", func(s *SessionState, p Patch) error {
		return immutable("initial_resume_text", &s.InitialResumeText, p.InitialResumeText)
	})
	r.MustRegister("initial_job_description_text", func(s *SessionState, p Patch) error {
		return immutable("initial_job_description_text", &s.InitialJobDescriptionText, p.InitialJobDescriptionText)
	})
	r.MustRegister("resume_summary", func(s *SessionState, p Patch) error {
		return writeOnce("resume_summary", &s.ResumeSummary, p.ResumeSummary)
	})
	r.MustRegister("job_summary", func(s *SessionState, p Patch) error {
		return writeOnce("job_summary", &s.JobSummary, p.JobSummary)
	})
	r.MustRegister("personalization_profile", func(s *SessionState, p Patch) error {
		graph.Overwrite(&s.PersonalizationProfile, p.PersonalizationProfile)
		return nil
	})
	r.MustRegister("interview_plan", reduceInterviewPlan)
	r.MustRegister("current_topic", func(s *SessionState, p Patch) error {
		graph.Overwrite(&s.CurrentTopic, p.CurrentTopic)
		return nil
	})
	r.MustRegister("current_question", reduceCurrentQuestion)
	r.MustRegister("follow_up_question", func(s *SessionState, p Patch) error {
		graph.Overwrite(&s.FollowUpQuestion, p.FollowUpQuestion)
		return nil
	})
	r.MustRegister("follow_up_count", func(s *SessionState, p Patch) error {
		if v, ok := p.FollowUpCount.Get(); ok && v < 0 {
			return graph.Invalid("follow-up count cannot be negative, got %d", v)
		}
		graph.Overwrite(&s.FollowUpCount, p.FollowUpCount)
		return nil
	})
	r.MustRegister("question_history", reduceHistory)
	r.MustRegister("final_report", func(s *SessionState, p Patch) error {
		return writeOnce("final_report", &s.FinalReport, p.FinalReport)
	})
	return r
}

// immutable accepts a value for an unset field or the same value again.
func immutable(key string, dst *string, s graph.Slot[string]) error {
	if !s.Present() {
		return nil
	}
	v, _ := s.Get()
	if *dst != "" && *dst != v {
		return graph.Invalid("%s is immutable once set", key)
	}
	*dst = v
	return nil
}

func writeOnce[T any](key string, dst **T, s graph.Slot[*T]) error {
	if !s.Present() {
		return nil
	}
	if *dst != nil {
		return graph.Invalid("%s has already been written", key)
	}
	v, _ := s.Get()
	*dst = v
	return nil
}

func reduceInterviewPlan(s *SessionState, p Patch) error {
	plan, ok := p.InterviewPlan.Get()
	if ok {
		for i, token := range plan {
			if strings.TrimSpace(token) == "" {
				return graph.Invalid("interview plan item %d is empty", i)
			}
		}
	}
	graph.Overwrite(&s.InterviewPlan, p.InterviewPlan)
	return nil
}

// reduceCurrentQuestion merges a QuestionPatch into the in-flight question.
// Evals and Feedback are unioned key by key so concurrent evaluators never
// overwrite each other's results.
func reduceCurrentQuestion(s *SessionState, p Patch) error {
	qp := p.CurrentQuestion
	if qp == nil {
		return nil
	}
	if qp.Clear {
		if qp.Replace != nil || qp.hasFields() {
			return graph.Invalid("a cleared question cannot carry other fields")
		}
		s.CurrentQuestion = nil
		return nil
	}
	for key, ev := range qp.Evals {
		if err := validateEvaluation(key, ev); err != nil {
			return err
		}
	}
	if qp.AnswerText != nil && strings.TrimSpace(*qp.AnswerText) == "" {
		return graph.Invalid("answer text cannot be empty")
	}

	var q QuestionTurn
	switch {
	case qp.Replace != nil:
		q = cloneTurn(*qp.Replace)
	case s.CurrentQuestion != nil:
		q = cloneTurn(*s.CurrentQuestion)
	default:
		if qp.ConversationalText == nil && qp.RawQuestionText == nil {
			return graph.Invalid("no question is in flight")
		}
	}

	setIf(&q.QuestionID, qp.QuestionID)
	setIf(&q.Topic, qp.Topic)
	setIf(&q.ConversationalText, qp.ConversationalText)
	setIf(&q.RawQuestionText, qp.RawQuestionText)
	setIf(&q.IdealAnswerSnippet, qp.IdealAnswerSnippet)
	setIf(&q.RubricID, qp.RubricID)
	setIf(&q.IsFollowUp, qp.IsFollowUp)
	setIf(&q.Timestamp, qp.Timestamp)
	if qp.AnswerText != nil {
		q.AnswerText = ptr(*qp.AnswerText)
	}
	if qp.AnsweredAt != nil {
		q.AnsweredAt = ptr(*qp.AnsweredAt)
	}
	if len(qp.Evals) > 0 {
		if q.Evals == nil {
			q.Evals = make(map[string]Evaluation, len(qp.Evals))
		}
		for k, v := range qp.Evals {
			q.Evals[k] = v
		}
	}
	if len(qp.Feedback) > 0 {
		if q.Feedback == nil {
			q.Feedback = make(map[string]any, len(qp.Feedback))
		}
		for k, v := range qp.Feedback {
			q.Feedback[k] = v
		}
	}

	if strings.TrimSpace(q.ConversationalText) == "" || strings.TrimSpace(q.RawQuestionText) == "" {
		return graph.Invalid("question requires conversational and raw text")
	}
	if len(q.Evals) > 0 && q.AnswerText == nil {
		return graph.Invalid("cannot evaluate an unanswered question")
	}
	s.CurrentQuestion = &q
	return nil
}

func reduceHistory(s *SessionState, p Patch) error {
	for i, turn := range p.AppendHistory {
		if !turn.Answered() {
			return graph.Invalid("history entry %d has no answer", i)
		}
		for key, ev := range turn.Evals {
			if err := validateEvaluation(key, ev); err != nil {
				return err
			}
		}
		s.QuestionHistory = append(s.QuestionHistory, cloneTurn(turn))
	}
	return nil
}

func validateEvaluation(key string, ev Evaluation) error {
	if ev.Score < MinScore || ev.Score > MaxScore {
		return graph.Invalid("evaluation %s score %.2f outside %.0f..%.0f", key, ev.Score, MinScore, MaxScore)
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// cloneTurn copies the maps and pointers of a turn so later merges never
// alias an archived entry.
func cloneTurn(q QuestionTurn) QuestionTurn {
	out := q
	if q.AnswerText != nil {
		out.AnswerText = ptr(*q.AnswerText)
	}
	if q.AnsweredAt != nil {
		out.AnsweredAt = ptr(*q.AnsweredAt)
	}
	if q.Evals != nil {
		out.Evals = make(map[string]Evaluation, len(q.Evals))
		for k, v := range q.Evals {
			out.Evals[k] = v
		}
	}
	if q.Feedback != nil {
		out.Feedback = make(map[string]any, len(q.Feedback))
		for k, v := range q.Feedback {
			out.Feedback[k] = v
		}
	}
	return out
}
