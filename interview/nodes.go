package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NishanthN27/Final-Year/graph"
)

// Node ids of the interview graph. Registration follows this order, which is
// also the order patches of one step are merged in.
const (
	NodeAnalyzeResume    = "analyze_resume"
	NodeAnalyzeJob       = "analyze_job"
	NodeCreatePlan       = "create_plan"
	NodeAdvancePlan      = "advance_plan"
	NodeSelectTopic      = "select_topic"
	NodeRetrieveQuestion = "retrieve_question"
	NodeDeepDiveQuestion = "deep_dive_question"
	NodeAwaitAnswer      = "await_answer"
	NodeFastEval         = "fast_eval"
	NodeRubricEval       = "rubric_eval"
	NodeSynthesize       = "synthesize"
	NodeGenerateFeedback = "generate_feedback"
	NodeGenerateFollowUp = "generate_follow_up"
	NodeFinalReporting   = "final_reporting"
	NodeGenerateReport   = "generate_report"
	NodeGenerateProfile  = "generate_profile"
	NodeSaveProfile      = "save_profile"
)

// FeedbackFollowUpKey is the feedback entry recording the follow-up asked
// after a turn.
const FeedbackFollowUpKey = "follow_up_question"

type result = graph.NodeResult[Patch]

func ok(p Patch) result { return result{Delta: p} }

func fail(err error) result { return graph.Fail[Patch](err) }

// nodes holds the dependencies shared by the node functions.
type nodes struct {
	c            Collaborators
	profiles     ProfileStore
	followUps    bool
	maxFollowUps int
	now          func() time.Time
}

func (n *nodes) analyzeResume(ctx context.Context, s SessionState) result {
	if s.ResumeSummary != nil || strings.TrimSpace(s.InitialResumeText) == "" {
		return ok(Patch{})
	}
	summary, err := n.c.ResumeAnalyzer.AnalyzeResume(ctx, s.InitialResumeText)
	if err != nil {
		return fail(fmt.Errorf("analyze resume: %w", err))
	}
	if summary == nil {
		return ok(Patch{})
	}
	return ok(Patch{ResumeSummary: graph.Put(summary)})
}

func (n *nodes) analyzeJob(ctx context.Context, s SessionState) result {
	if s.JobSummary != nil || strings.TrimSpace(s.InitialJobDescriptionText) == "" {
		return ok(Patch{})
	}
	summary, err := n.c.JobAnalyzer.AnalyzeJob(ctx, s.InitialJobDescriptionText)
	if err != nil {
		return fail(fmt.Errorf("analyze job description: %w", err))
	}
	if summary == nil {
		return ok(Patch{})
	}
	return ok(Patch{JobSummary: graph.Put(summary)})
}

func (n *nodes) createPlan(ctx context.Context, s SessionState) result {
	tokens, err := n.c.Planner.Plan(ctx, s.ResumeSummary, s.JobSummary, s.PersonalizationProfile)
	if err != nil {
		return fail(fmt.Errorf("create plan: %w", err))
	}
	plan := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			plan = append(plan, t)
		}
	}
	return ok(Patch{InterviewPlan: graph.Put(plan)})
}

// advancePlan archives the finished turn and either installs a pending
// follow-up or pops the plan head. It is the only node that shortens the
// plan.
func (n *nodes) advancePlan(_ context.Context, s SessionState) result {
	cq := s.CurrentQuestion
	if cq == nil {
		return ok(Patch{})
	}

	p := Patch{AppendHistory: []QuestionTurn{*cq}}
	if s.FollowUpQuestion != "" {
		count := s.FollowUpCount + 1
		p.CurrentQuestion = &QuestionPatch{Replace: &QuestionTurn{
			QuestionID:         followUpID(cq.QuestionID, count),
			Topic:              cq.Topic,
			ConversationalText: s.FollowUpQuestion,
			RawQuestionText:    s.FollowUpQuestion,
			IdealAnswerSnippet: cq.IdealAnswerSnippet,
			RubricID:           cq.RubricID,
			IsFollowUp:         true,
			Timestamp:          n.now(),
		}}
		p.FollowUpQuestion = graph.Clear[string]()
		p.FollowUpCount = graph.Put(count)
		return ok(p)
	}

	p.CurrentQuestion = &QuestionPatch{Clear: true}
	p.CurrentTopic = graph.Clear[string]()
	p.FollowUpCount = graph.Put(0)
	if len(s.InterviewPlan) > 0 {
		p.InterviewPlan = graph.Put(append([]string{}, s.InterviewPlan[1:]...))
	}
	return ok(p)
}

func followUpID(base string, n int) string {
	if base == "" {
		return ""
	}
	base, _, _ = strings.Cut(base, "#")
	return fmt.Sprintf("%s#follow-up-%d", base, n)
}

func (n *nodes) selectTopic(_ context.Context, s SessionState) result {
	if len(s.InterviewPlan) == 0 {
		return fail(graph.Invalid("interview plan is empty"))
	}
	topic, err := ParseTopic(s.InterviewPlan[0])
	if err != nil {
		return fail(err)
	}
	return ok(Patch{CurrentTopic: graph.Put(topic.Token)})
}

func (n *nodes) retrieveQuestion(ctx context.Context, s SessionState) result {
	q, err := n.c.Retriever.RetrieveQuestion(ctx, s.CurrentTopic, RetrievalContext{
		ResumeSummary: s.ResumeSummary,
		JobSummary:    s.JobSummary,
		Profile:       s.PersonalizationProfile,
		History:       s.QuestionHistory,
	})
	if err != nil {
		return fail(fmt.Errorf("retrieve question for %s: %w", s.CurrentTopic, err))
	}
	return ok(n.ask(q, s.CurrentTopic))
}

func (n *nodes) deepDiveQuestion(ctx context.Context, s SessionState) result {
	topic, err := ParseTopic(s.CurrentTopic)
	if err != nil {
		return fail(err)
	}
	q, err := n.c.DeepDive.DeepDive(ctx, topic.ItemType, topic.ItemName, s.ResumeSummary)
	if err != nil {
		return fail(fmt.Errorf("deep dive into %s %q: %w", topic.ItemType, topic.ItemName, err))
	}
	return ok(n.ask(q, topic.Token))
}

func (n *nodes) ask(q Question, topic string) Patch {
	raw := q.RawQuestionText
	if raw == "" {
		raw = q.ConversationalText
	}
	return Patch{CurrentQuestion: &QuestionPatch{Replace: &QuestionTurn{
		QuestionID:         q.QuestionID,
		Topic:              topic,
		ConversationalText: q.ConversationalText,
		RawQuestionText:    raw,
		IdealAnswerSnippet: q.IdealAnswerSnippet,
		RubricID:           q.RubricID,
		Timestamp:          n.now(),
	}}}
}

func awaitAnswer(context.Context, SessionState) result { return ok(Patch{}) }

func answered(s SessionState, what string) (*QuestionTurn, error) {
	if !s.CurrentQuestion.Answered() {
		return nil, graph.Invalid("%s requires an answered question", what)
	}
	return s.CurrentQuestion, nil
}

func (n *nodes) fastEval(ctx context.Context, s SessionState) result {
	cq, err := answered(s, "fast evaluation")
	if err != nil {
		return fail(err)
	}
	ev, err := n.c.FastEvaluator.FastEvaluate(ctx, cq.RawQuestionText, cq.IdealAnswerSnippet, cq.Answer())
	if err != nil {
		return fail(fmt.Errorf("fast evaluation: %w", err))
	}
	return ok(evalPatch(EvalFast, ev))
}

func (n *nodes) rubricEval(ctx context.Context, s SessionState) result {
	cq, err := answered(s, "rubric evaluation")
	if err != nil {
		return fail(err)
	}
	ev, err := n.c.RubricEvaluator.RubricEvaluate(ctx, cq.RawQuestionText, cq.Answer(), cq.RubricID)
	if err != nil {
		return fail(fmt.Errorf("rubric evaluation: %w", err))
	}
	return ok(evalPatch(EvalRubric, ev))
}

func synthesize(_ context.Context, s SessionState) result {
	cq, err := answered(s, "synthesis")
	if err != nil {
		return fail(err)
	}
	fast, okFast := cq.Eval(EvalFast)
	rubric, okRubric := cq.Eval(EvalRubric)
	if !okFast || !okRubric {
		return fail(graph.Invalid("synthesis requires both %s and %s", EvalFast, EvalRubric))
	}
	return ok(evalPatch(EvalCanonical, Synthesize(fast, rubric)))
}

func (n *nodes) generateFeedback(ctx context.Context, s SessionState) result {
	cq, err := answered(s, "feedback")
	if err != nil {
		return fail(err)
	}
	fb, err := n.c.Feedback.Feedback(ctx, *cq)
	if err != nil {
		return fail(fmt.Errorf("generate feedback: %w", err))
	}
	return ok(feedbackPatch(fb))
}

// generateFollowUp writes feedback for the turn and asks the collaborator
// for a follow-up, unless follow-ups are off or the plan item's cap is
// spent.
func (n *nodes) generateFollowUp(ctx context.Context, s SessionState) result {
	cq, err := answered(s, "follow-up generation")
	if err != nil {
		return fail(err)
	}
	fb, err := n.c.Feedback.Feedback(ctx, *cq)
	if err != nil {
		return fail(fmt.Errorf("generate feedback: %w", err))
	}
	merged := make(map[string]any, len(fb)+1)
	for k, v := range fb {
		merged[k] = v
	}
	p := feedbackPatch(merged)
	if !n.followUps || (n.maxFollowUps > 0 && s.FollowUpCount >= n.maxFollowUps) {
		return ok(p)
	}

	fu, err := n.c.FollowUp.FollowUp(ctx, *cq)
	if err != nil {
		return fail(fmt.Errorf("generate follow-up: %w", err))
	}
	question := strings.TrimSpace(fu.Question)
	if fu.Required && question != "" {
		merged[FeedbackFollowUpKey] = question
		p.FollowUpQuestion = graph.Put(question)
	}
	return ok(p)
}

func finalReporting(context.Context, SessionState) result { return ok(Patch{}) }

func (n *nodes) generateReport(ctx context.Context, s SessionState) result {
	report, err := n.c.Reporter.Report(ctx, s.QuestionHistory)
	if err != nil {
		return fail(fmt.Errorf("generate report: %w", err))
	}
	report.OverallScore, report.QuestionsAnswered = OverallScore(s.QuestionHistory)
	return ok(Patch{FinalReport: graph.Put(&report)})
}

func (n *nodes) generateProfile(ctx context.Context, s SessionState) result {
	profile, err := n.c.Personalizer.Personalize(ctx, s.QuestionHistory, s.PersonalizationProfile)
	if err != nil {
		return fail(fmt.Errorf("generate profile: %w", err))
	}
	profile.SessionsCompleted = 1
	if prev := s.PersonalizationProfile; prev != nil {
		profile.SessionsCompleted = prev.SessionsCompleted + 1
	}
	profile.UpdatedAt = n.now()
	return ok(Patch{PersonalizationProfile: graph.Put(&profile)})
}

func (n *nodes) saveProfile(ctx context.Context, s SessionState) result {
	if n.profiles == nil || s.UserID == "" || s.PersonalizationProfile == nil {
		return ok(Patch{})
	}
	if err := n.profiles.SaveProfile(ctx, s.UserID, *s.PersonalizationProfile); err != nil {
		return fail(fmt.Errorf("save profile for %s: %w", s.UserID, err))
	}
	return ok(Patch{})
}

// Router labels.
const (
	LabelFollowUp      = "follow_up"
	LabelNextTopic     = "next_topic"
	LabelFinished      = "finished"
	LabelStage         = string(TopicStage)
	LabelDeepDive      = string(TopicDeepDive)
	LabelNeedsFollowUp = "needs_follow_up"
	LabelComplete      = "complete"
)

func planRouter(s SessionState) string {
	switch {
	case s.CurrentQuestion != nil:
		return LabelFollowUp
	case len(s.InterviewPlan) > 0:
		return LabelNextTopic
	default:
		return LabelFinished
	}
}

func topicRouter(s SessionState) string {
	topic, err := ParseTopic(s.CurrentTopic)
	if err != nil {
		return ""
	}
	return string(topic.Kind)
}

func evaluationRouter(s SessionState) string {
	if ev, ok := s.CurrentQuestion.Eval(EvalCanonical); ok && ev.UserInputNeeded {
		return LabelNeedsFollowUp
	}
	return LabelComplete
}
