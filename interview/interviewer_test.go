package interview_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NishanthN27/Final-Year/graph"
	"github.com/NishanthN27/Final-Year/graph/emit"
	"github.com/NishanthN27/Final-Year/graph/store"
	"github.com/NishanthN27/Final-Year/interview"
	"github.com/NishanthN27/Final-Year/interview/profile"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// fakes implements every collaborator deterministically. Answers containing
// "vague" ask for a follow-up.
type fakes struct {
	plan []string

	mu           sync.Mutex
	calls        map[string]int
	planProfiles []*interview.Profile
}

func newFakes(plan ...string) *fakes {
	return &fakes{plan: plan, calls: map[string]int{}}
}

func (f *fakes) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakes) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakes) collaborators() interview.Collaborators {
	return interview.Collaborators{
		ResumeAnalyzer:  f,
		JobAnalyzer:     f,
		Planner:         f,
		Retriever:       f,
		DeepDive:        f,
		FastEvaluator:   f,
		RubricEvaluator: f,
		Feedback:        f,
		FollowUp:        f,
		Reporter:        f,
		Personalizer:    f,
	}
}

func (f *fakes) AnalyzeResume(context.Context, string) (*interview.ResumeSummary, error) {
	f.record("resume")
	return &interview.ResumeSummary{
		Name:     "Ada",
		Summary:  "Go engineer",
		Projects: []interview.Project{{Title: "Payments API"}},
	}, nil
}

func (f *fakes) AnalyzeJob(context.Context, string) (*interview.JobSummary, error) {
	f.record("job")
	return &interview.JobSummary{Title: "Backend Engineer", Summary: "Build services"}, nil
}

func (f *fakes) Plan(_ context.Context, _ *interview.ResumeSummary, _ *interview.JobSummary, p *interview.Profile) ([]string, error) {
	f.mu.Lock()
	f.calls["plan"]++
	f.planProfiles = append(f.planProfiles, p)
	f.mu.Unlock()
	return append([]string(nil), f.plan...), nil
}

func (f *fakes) RetrieveQuestion(_ context.Context, topic string, _ interview.RetrievalContext) (interview.Question, error) {
	f.record("retrieve")
	return interview.Question{
		QuestionID:         "q-" + topic,
		ConversationalText: "Tell me about " + topic + ".",
		RawQuestionText:    "Explain " + topic + ".",
		IdealAnswerSnippet: "ideal " + topic,
	}, nil
}

func (f *fakes) DeepDive(_ context.Context, itemType, itemName string, resume *interview.ResumeSummary) (interview.Question, error) {
	f.record("deep_dive")
	if itemType == "project" {
		if _, ok := resume.FindProject(itemName); !ok {
			return interview.Question{}, fmt.Errorf("project %q: %w", itemName, interview.ErrUnknownItem)
		}
	}
	return interview.Question{
		QuestionID:         "dd-" + itemName,
		ConversationalText: "Walk me through " + itemName + ".",
		RawQuestionText:    "Describe the design of " + itemName + ".",
	}, nil
}

func (f *fakes) FastEvaluate(context.Context, string, string, string) (interview.Evaluation, error) {
	f.record("fast")
	return interview.Evaluation{Score: 60, Summary: "fast"}, nil
}

func (f *fakes) RubricEvaluate(_ context.Context, _, answer, _ string) (interview.Evaluation, error) {
	f.record("rubric")
	return interview.Evaluation{
		Score:           80,
		Summary:         "rubric",
		UserInputNeeded: strings.Contains(answer, "vague"),
	}, nil
}

func (f *fakes) Feedback(context.Context, interview.QuestionTurn) (map[string]any, error) {
	f.record("feedback")
	return map[string]any{"tip": "be concrete"}, nil
}

func (f *fakes) FollowUp(context.Context, interview.QuestionTurn) (interview.FollowUp, error) {
	f.record("follow_up")
	return interview.FollowUp{Required: true, Question: "Can you give an example?"}, nil
}

func (f *fakes) Report(_ context.Context, history []interview.QuestionTurn) (interview.Report, error) {
	f.record("report")
	return interview.Report{Summary: fmt.Sprintf("%d turns", len(history)), Strengths: []string{"clarity"}}, nil
}

func (f *fakes) Personalize(context.Context, []interview.QuestionTurn, *interview.Profile) (interview.Profile, error) {
	f.record("personalize")
	return interview.Profile{FocusAreas: []string{"depth"}}, nil
}

func newInterviewer(t *testing.T, f *fakes, opts ...interview.Option) (*interview.Interviewer, *profile.MemoryStore) {
	t.Helper()
	profiles := profile.NewMemoryStore()
	opts = append([]interview.Option{
		interview.WithClock(fixedClock),
		interview.WithProfileStore(profiles),
	}, opts...)
	iv, err := interview.New(f.collaborators(), store.NewMemStore[interview.SessionState](), nil, opts...)
	require.NoError(t, err)
	return iv, profiles
}

func start(t *testing.T, iv *interview.Interviewer, id string) interview.Result {
	t.Helper()
	res, err := iv.Start(context.Background(), interview.StartRequest{
		SessionID:          id,
		UserID:             "ada",
		ResumeText:         "Ada Lovelace. Built the Payments API in Go.",
		JobDescriptionText: "Backend engineer",
	})
	require.NoError(t, err)
	return res
}

func answer(t *testing.T, iv *interview.Interviewer, id, text string) interview.Result {
	t.Helper()
	res, err := iv.Answer(context.Background(), id, text)
	require.NoError(t, err)
	return res
}

func TestInterviewRunsPlanToReport(t *testing.T) {
	f := newFakes("technical", "behavioral")
	iv, profiles := newInterviewer(t, f)
	ctx := context.Background()

	res := start(t, iv, "s-1")
	require.Equal(t, graph.StatusPaused, res.Status)
	assert.Equal(t, []string{interview.NodeAwaitAnswer}, res.Pending)
	s := res.State
	require.NotNil(t, s.ResumeSummary)
	require.NotNil(t, s.JobSummary)
	assert.Equal(t, []string{"technical", "behavioral"}, s.InterviewPlan)
	assert.Equal(t, "technical", s.CurrentTopic)
	require.NotNil(t, s.CurrentQuestion)
	assert.Equal(t, "Tell me about technical.", s.CurrentQuestion.ConversationalText)
	assert.Equal(t, fixedNow, s.CurrentQuestion.Timestamp)
	assert.False(t, s.CurrentQuestion.Answered())

	res = answer(t, iv, "s-1", "Goroutines and channels")
	require.Equal(t, graph.StatusPaused, res.Status)
	s = res.State
	assert.Equal(t, []string{"behavioral"}, s.InterviewPlan)
	assert.Equal(t, "Tell me about behavioral.", s.CurrentQuestion.ConversationalText)
	require.Len(t, s.QuestionHistory, 1)

	turn := s.QuestionHistory[0]
	assert.Equal(t, "Goroutines and channels", turn.Answer())
	require.NotNil(t, turn.AnsweredAt)
	assert.Equal(t, fixedNow, *turn.AnsweredAt)
	assert.Equal(t, 60.0, turn.Evals[interview.EvalFast].Score)
	assert.Equal(t, 80.0, turn.Evals[interview.EvalRubric].Score)
	assert.Equal(t, 74.0, turn.Evals[interview.EvalCanonical].Score)
	assert.Equal(t, "be concrete", turn.Feedback["tip"])
	assert.NotContains(t, turn.Feedback, interview.FeedbackFollowUpKey)

	res = answer(t, iv, "s-1", "I led an incident review")
	require.Equal(t, graph.StatusEnded, res.Status)
	s = res.State
	assert.Empty(t, s.InterviewPlan)
	assert.Nil(t, s.CurrentQuestion)
	require.Len(t, s.QuestionHistory, 2)
	require.NotNil(t, s.FinalReport)
	assert.Equal(t, 74.0, s.FinalReport.OverallScore)
	assert.Equal(t, 2, s.FinalReport.QuestionsAnswered)
	assert.Equal(t, "2 turns", s.FinalReport.Summary)

	saved, err := profiles.LoadProfile(ctx, "ada")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, []string{"depth"}, saved.FocusAreas)
	assert.Equal(t, 1, saved.SessionsCompleted)
	assert.True(t, saved.UpdatedAt.Equal(fixedNow))

	assert.Equal(t, 1, f.count("resume"))
	assert.Equal(t, 1, f.count("plan"))
	assert.Equal(t, 2, f.count("fast"))
	assert.Equal(t, 2, f.count("rubric"))
	assert.Zero(t, f.count("follow_up"))

	_, err = iv.Answer(ctx, "s-1", "one more")
	assert.ErrorIs(t, err, graph.ErrSessionEnded)
}

func TestFollowUpDetourIsCapped(t *testing.T) {
	f := newFakes("technical")
	iv, _ := newInterviewer(t, f, interview.WithMaxFollowUps(2))

	start(t, iv, "s-2")

	res := answer(t, iv, "s-2", "vague answer")
	require.Equal(t, graph.StatusPaused, res.Status)
	s := res.State
	assert.Equal(t, []string{"technical"}, s.InterviewPlan)
	require.NotNil(t, s.CurrentQuestion)
	assert.True(t, s.CurrentQuestion.IsFollowUp)
	assert.Equal(t, "q-technical#follow-up-1", s.CurrentQuestion.QuestionID)
	assert.Equal(t, "Can you give an example?", s.CurrentQuestion.ConversationalText)
	assert.Equal(t, "technical", s.CurrentQuestion.Topic)
	assert.Equal(t, 1, s.FollowUpCount)
	assert.Empty(t, s.FollowUpQuestion)
	require.Len(t, s.QuestionHistory, 1)
	assert.Equal(t, "Can you give an example?", s.QuestionHistory[0].Feedback[interview.FeedbackFollowUpKey])

	res = answer(t, iv, "s-2", "still vague")
	require.Equal(t, graph.StatusPaused, res.Status)
	assert.Equal(t, "q-technical#follow-up-2", res.State.CurrentQuestion.QuestionID)
	assert.Equal(t, 2, res.State.FollowUpCount)

	// The budget is spent: feedback only, then the plan moves on.
	res = answer(t, iv, "s-2", "vague again")
	require.Equal(t, graph.StatusEnded, res.Status)
	s = res.State
	require.Len(t, s.QuestionHistory, 3)
	assert.True(t, s.QuestionHistory[1].IsFollowUp)
	assert.True(t, s.QuestionHistory[2].IsFollowUp)
	assert.NotContains(t, s.QuestionHistory[2].Feedback, interview.FeedbackFollowUpKey)
	assert.Equal(t, "be concrete", s.QuestionHistory[2].Feedback["tip"])
	assert.Equal(t, 0, s.FollowUpCount)
	assert.Equal(t, 2, f.count("follow_up"))
	assert.Equal(t, 1, f.count("retrieve"))
	assert.Equal(t, 3, s.FinalReport.QuestionsAnswered)
}

func TestFollowUpKeepsPlanHeadUntilResolved(t *testing.T) {
	f := newFakes("technical", "behavioral")
	iv, _ := newInterviewer(t, f)

	start(t, iv, "s-16")
	for i := 1; i <= 3; i++ {
		res := answer(t, iv, "s-16", "vague answer")
		require.Equal(t, graph.StatusPaused, res.Status)
		s := res.State
		require.Len(t, s.QuestionHistory, i)
		last, ok := s.QuestionHistory[i-1].Eval(interview.EvalCanonical)
		require.True(t, ok)
		assert.True(t, last.UserInputNeeded)
		assert.Equal(t, []string{"technical", "behavioral"}, s.InterviewPlan, "answer %d", i)
		require.NotNil(t, s.CurrentQuestion)
		assert.True(t, s.CurrentQuestion.IsFollowUp)
		assert.Equal(t, "technical", s.CurrentQuestion.Topic)
		assert.Equal(t, i, s.FollowUpCount)
	}

	res := answer(t, iv, "s-16", "a concrete example")
	require.Equal(t, graph.StatusPaused, res.Status)
	s := res.State
	require.Len(t, s.QuestionHistory, 4)
	last, _ := s.QuestionHistory[3].Eval(interview.EvalCanonical)
	assert.False(t, last.UserInputNeeded)
	assert.Equal(t, []string{"behavioral"}, s.InterviewPlan)
	assert.Equal(t, "q-behavioral", s.CurrentQuestion.QuestionID)
	assert.Zero(t, s.FollowUpCount)
	assert.Equal(t, 3, f.count("follow_up"))
}

func TestFollowUpsDisabled(t *testing.T) {
	f := newFakes("technical")
	iv, _ := newInterviewer(t, f, interview.WithoutFollowUps())

	start(t, iv, "s-3")
	res := answer(t, iv, "s-3", "vague")
	assert.Equal(t, graph.StatusEnded, res.Status)
	assert.Zero(t, f.count("follow_up"))
	assert.Equal(t, 1, f.count("feedback"))
}

func TestDeepDiveTopic(t *testing.T) {
	f := newFakes(interview.DeepDiveToken("project", "payments api"))
	iv, _ := newInterviewer(t, f)

	res := start(t, iv, "s-4")
	require.Equal(t, graph.StatusPaused, res.Status)
	assert.Equal(t, "deep_dive:project:payments api", res.State.CurrentTopic)
	assert.Equal(t, "Walk me through payments api.", res.State.CurrentQuestion.ConversationalText)
	assert.Zero(t, f.count("retrieve"))
}

func TestDeepDiveUnknownProjectFails(t *testing.T) {
	f := newFakes("deep_dive:project:Compiler")
	iv, _ := newInterviewer(t, f)

	res, err := iv.Start(context.Background(), interview.StartRequest{SessionID: "s-5", ResumeText: "Ada"})
	require.Error(t, err)

	var nerr *graph.NodeError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, interview.NodeDeepDiveQuestion, nerr.NodeID)
	assert.ErrorIs(t, err, interview.ErrUnknownItem)
	assert.Equal(t, 1, f.count("deep_dive"), "unknown items are not retried")

	// The failed step left the last committed checkpoint in place.
	assert.Equal(t, graph.StatusRunning, res.Status)
	assert.Nil(t, res.State.CurrentQuestion)
	assert.Equal(t, "deep_dive:project:Compiler", res.State.CurrentTopic)
}

func TestMalformedTopicIsConfigError(t *testing.T) {
	f := newFakes("deep_dive:project")
	iv, _ := newInterviewer(t, f)

	_, err := iv.Start(context.Background(), interview.StartRequest{SessionID: "s-6", JobDescriptionText: "Backend"})
	require.Error(t, err)

	var cerr *graph.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, interview.CodeMalformedTopic, cerr.Code)
	assert.Equal(t, "deep_dive:project", cerr.Subject)

	var nerr *graph.NodeError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, interview.NodeSelectTopic, nerr.NodeID)
}

func TestEmptyInputsSkipAnalysis(t *testing.T) {
	f := newFakes("technical")
	iv, _ := newInterviewer(t, f)

	res, err := iv.Start(context.Background(), interview.StartRequest{SessionID: "s-7", JobDescriptionText: "Backend"})
	require.NoError(t, err)
	assert.Nil(t, res.State.ResumeSummary)
	assert.NotNil(t, res.State.JobSummary)
	assert.Zero(t, f.count("resume"))
	assert.Equal(t, 1, f.count("job"))
}

func TestEmptyPlanEndsImmediately(t *testing.T) {
	f := newFakes()
	iv, _ := newInterviewer(t, f)

	res := start(t, iv, "s-8")
	assert.Equal(t, graph.StatusEnded, res.Status)
	require.NotNil(t, res.State.FinalReport)
	assert.Zero(t, res.State.FinalReport.QuestionsAnswered)
}

func TestEmptyAnswerIsRejected(t *testing.T) {
	f := newFakes("technical")
	iv, _ := newInterviewer(t, f)
	ctx := context.Background()

	before := start(t, iv, "s-9")
	_, err := iv.Answer(ctx, "s-9", "   ")

	var verr *graph.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "current_question", verr.Key)

	after, err := iv.Snapshot(ctx, "s-9")
	require.NoError(t, err)
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, graph.StatusPaused, after.Status)
	assert.Zero(t, f.count("fast"))
}

func TestEmptyResumeReturnsStoredSession(t *testing.T) {
	f := newFakes("technical")
	iv, _ := newInterviewer(t, f)

	before := start(t, iv, "s-10")
	after, err := iv.Resume(context.Background(), "s-10", interview.Patch{})
	require.NoError(t, err)
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, graph.StatusPaused, after.Status)
	assert.Equal(t, 1, f.count("retrieve"))
}

func TestRunsAreDeterministic(t *testing.T) {
	run := func() interview.SessionState {
		iv, _ := newInterviewer(t, newFakes("technical", "deep_dive:project:Payments API"))
		start(t, iv, "same")
		answer(t, iv, "same", "vague first")
		answer(t, iv, "same", "an example")
		return answer(t, iv, "same", "the ledger design").State
	}
	first, second := run(), run()
	assert.Equal(t, first, second)
	require.NotNil(t, first.FinalReport)
	assert.Equal(t, 3, first.FinalReport.QuestionsAnswered)
}

func TestProfileCarriesAcrossSessions(t *testing.T) {
	f := newFakes("technical")
	iv, profiles := newInterviewer(t, f)
	ctx := context.Background()

	require.NoError(t, profiles.SaveProfile(ctx, "ada", interview.Profile{
		Weaknesses:        []string{"testing"},
		SessionsCompleted: 4,
	}))

	res := start(t, iv, "s-11")
	require.NotNil(t, res.State.PersonalizationProfile)
	assert.Equal(t, []string{"testing"}, res.State.PersonalizationProfile.Weaknesses)
	require.Len(t, f.planProfiles, 1)
	require.NotNil(t, f.planProfiles[0])
	assert.Equal(t, 4, f.planProfiles[0].SessionsCompleted)

	answer(t, iv, "s-11", "fine")
	saved, err := profiles.LoadProfile(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 5, saved.SessionsCompleted)
}

func TestStartGeneratesSessionID(t *testing.T) {
	iv, _ := newInterviewer(t, newFakes("technical"))
	res, err := iv.Start(context.Background(), interview.StartRequest{JobDescriptionText: "Backend"})
	require.NoError(t, err)
	assert.Len(t, res.State.SessionID, 36)

	_, err = iv.Start(context.Background(), interview.StartRequest{SessionID: res.State.SessionID, JobDescriptionText: "Backend"})
	assert.ErrorIs(t, err, graph.ErrSessionExists)
}

type failingRubric struct {
	*fakes
	failures int
}

func (r *failingRubric) RubricEvaluate(ctx context.Context, q, a, id string) (interview.Evaluation, error) {
	r.mu.Lock()
	r.failures--
	left := r.failures
	r.mu.Unlock()
	if left >= 0 {
		return interview.Evaluation{}, errors.New("model overloaded")
	}
	return r.fakes.RubricEvaluate(ctx, q, a, id)
}

func TestTransientFailuresAreRetried(t *testing.T) {
	f := newFakes("technical")
	c := f.collaborators()
	c.RubricEvaluator = &failingRubric{fakes: f, failures: 2}

	iv, err := interview.New(c, store.NewMemStore[interview.SessionState](), nil,
		interview.WithClock(fixedClock),
		interview.WithRetry(&graph.RetryPolicy{MaxAttempts: 3, Retryable: interview.Retryable}),
	)
	require.NoError(t, err)

	start(t, iv, "s-12")
	res := answer(t, iv, "s-12", "fine")
	assert.Equal(t, graph.StatusEnded, res.Status)
	assert.Equal(t, 74.0, res.State.QuestionHistory[0].Evals[interview.EvalCanonical].Score)
}

type flakyRetriever struct {
	*fakes
	failTopic string
	failed    bool
}

func (r *flakyRetriever) RetrieveQuestion(ctx context.Context, topic string, rc interview.RetrievalContext) (interview.Question, error) {
	r.mu.Lock()
	fail := topic == r.failTopic && !r.failed
	if fail {
		r.failed = true
	}
	r.mu.Unlock()
	if fail {
		return interview.Question{}, errors.New("question bank unavailable")
	}
	return r.fakes.RetrieveQuestion(ctx, topic, rc)
}

func TestFailedAnswerStepKeepsSessionPaused(t *testing.T) {
	f := newFakes("technical")
	c := f.collaborators()
	c.RubricEvaluator = &failingRubric{fakes: f, failures: 1}

	iv, err := interview.New(c, store.NewMemStore[interview.SessionState](), nil,
		interview.WithClock(fixedClock),
		interview.WithRetry(nil),
	)
	require.NoError(t, err)
	ctx := context.Background()

	before := start(t, iv, "s-13")
	res, err := iv.Answer(ctx, "s-13", "fine")
	require.Error(t, err)
	var nerr *graph.NodeError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, interview.NodeRubricEval, nerr.NodeID)

	// The answer was not committed; the same question is still open.
	assert.Equal(t, graph.StatusPaused, res.Status)
	assert.Equal(t, before.State, res.State)
	assert.False(t, res.State.CurrentQuestion.Answered())

	res = answer(t, iv, "s-13", "fine")
	assert.Equal(t, graph.StatusEnded, res.Status)
}

func TestRunningSessionRetriesFailedStep(t *testing.T) {
	f := newFakes("technical", "behavioral")
	c := f.collaborators()
	c.Retriever = &flakyRetriever{fakes: f, failTopic: "behavioral"}

	iv, err := interview.New(c, store.NewMemStore[interview.SessionState](), nil,
		interview.WithClock(fixedClock),
		interview.WithRetry(nil),
	)
	require.NoError(t, err)
	ctx := context.Background()

	start(t, iv, "s-14")
	res, err := iv.Answer(ctx, "s-14", "fine")
	require.Error(t, err)
	assert.Equal(t, graph.StatusRunning, res.Status)
	assert.Equal(t, []string{interview.NodeRetrieveQuestion}, res.Next)
	assert.Equal(t, "behavioral", res.State.CurrentTopic)
	assert.Nil(t, res.State.CurrentQuestion)
	assert.Len(t, res.State.QuestionHistory, 1)

	_, err = iv.Answer(ctx, "s-14", "too early")
	var verr *graph.ValidationError
	require.ErrorAs(t, err, &verr)

	res, err = iv.Resume(ctx, "s-14", interview.Patch{})
	require.NoError(t, err)
	assert.Equal(t, graph.StatusPaused, res.Status)
	assert.Equal(t, "Tell me about behavioral.", res.State.CurrentQuestion.ConversationalText)
}

func TestNewValidatesCollaborators(t *testing.T) {
	c := newFakes().collaborators()
	c.Planner = nil
	_, err := interview.New(c, store.NewMemStore[interview.SessionState](), nil)

	var cerr *graph.ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, interview.CodeMissingCollaborator, cerr.Code)
	assert.Equal(t, "planner", cerr.Subject)

	_, err = interview.New(newFakes().collaborators(), store.NewMemStore[interview.SessionState](), nil,
		interview.WithMaxFollowUps(-1))
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, graph.CodeInvalidOption, cerr.Code)
}

func TestEventsAreEmitted(t *testing.T) {
	events := emit.NewBufferedEmitter()
	iv, err := interview.New(newFakes("technical").collaborators(), store.NewMemStore[interview.SessionState](), events,
		interview.WithClock(fixedClock))
	require.NoError(t, err)

	start(t, iv, "s-15")
	history := events.GetHistoryWithFilter("s-15", emit.HistoryFilter{NodeID: interview.NodeRetrieveQuestion})
	require.NotEmpty(t, history)

	paused := events.GetHistoryWithFilter("s-15", emit.HistoryFilter{Msg: emit.MsgSessionPaused})
	assert.Len(t, paused, 1)
}

func TestMermaid(t *testing.T) {
	iv, _ := newInterviewer(t, newFakes())
	out := iv.Mermaid(interview.NodeAwaitAnswer)
	for _, id := range iv.Engine().Nodes() {
		assert.Contains(t, out, `"`+id+`"`)
	}
	assert.Contains(t, out, `synthesize -- "needs_follow_up" --> generate_follow_up`)
	assert.Contains(t, out, "class await_answer current;")
	assert.True(t, iv.Engine().IsPauseNode(interview.NodeAwaitAnswer))
}
