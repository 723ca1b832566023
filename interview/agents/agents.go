// Package agents implements the interview collaborators with a chat model:
// each operation renders a prompt, asks the model for a JSON object and
// decodes it into the interview types.
package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/NishanthN27/Final-Year/graph/model"
	"github.com/NishanthN27/Final-Year/interview"
	"github.com/NishanthN27/Final-Year/interview/questionbank"
)

// ErrUnparsable is returned when a model reply holds no usable JSON object.
var ErrUnparsable = errors.New("model reply is not a JSON object")

// DefaultStages are the stage topics offered to the planner when neither
// WithStages nor a question bank provides them.
var DefaultStages = []string{"technical", "behavioral", "system_design"}

// DefaultPlanLength is the number of topics requested from the planner.
const DefaultPlanLength = 5

// Agents implements every interview collaborator.
//
// Cheap, latency-sensitive operations (summaries, fast evaluation, feedback,
// follow-ups, rephrasing) use the fast model; planning, rubric grading,
// deep dives, reports and profiles use the pro model.
type Agents struct {
	fast model.ChatModel
	pro  model.ChatModel
	bank *questionbank.Bank

	planLength int
	stages     []string
}

// Option configures Agents.
type Option func(*Agents)

// WithQuestionBank serves stage topics from b before falling back to
// generated questions.
func WithQuestionBank(b *questionbank.Bank) Option {
	return func(a *Agents) { a.bank = b }
}

// WithPlanLength sets how many topics the planner is asked for.
func WithPlanLength(n int) Option {
	return func(a *Agents) {
		if n > 0 {
			a.planLength = n
		}
	}
}

// WithStages sets the stage topics the planner may use.
func WithStages(stages ...string) Option {
	return func(a *Agents) {
		if len(stages) > 0 {
			a.stages = append([]string(nil), stages...)
		}
	}
}

// New creates Agents. A nil pro model uses fast for everything.
func New(fast, pro model.ChatModel, opts ...Option) (*Agents, error) {
	if fast == nil {
		return nil, errors.New("agents: a chat model is required")
	}
	if pro == nil {
		pro = fast
	}
	a := &Agents{fast: fast, pro: pro, planLength: DefaultPlanLength}
	for _, opt := range opts {
		opt(a)
	}
	if a.stages == nil {
		a.stages = DefaultStages
		if a.bank != nil && a.bank.Len() > 0 {
			a.stages = a.bank.Domains()
		}
	}
	return a, nil
}

// Collaborators returns a with every collaborator role filled.
func (a *Agents) Collaborators() interview.Collaborators {
	return interview.Collaborators{
		ResumeAnalyzer:  a,
		JobAnalyzer:     a,
		Planner:         a,
		Retriever:       a,
		DeepDive:        a,
		FastEvaluator:   a,
		RubricEvaluator: a,
		Feedback:        a,
		FollowUp:        a,
		Reporter:        a,
		Personalizer:    a,
	}
}

// ask renders the named prompt, sends it to m and decodes the reply into out.
func ask(ctx context.Context, m model.ChatModel, prompt string, data, out any) error {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, prompt, data); err != nil {
		return fmt.Errorf("render %s prompt: %w", prompt, err)
	}
	reply, err := m.Chat(ctx, []model.Message{
		model.System(systemPrompt),
		model.User(strings.TrimSpace(buf.String())),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", prompt, err)
	}
	if err := decodeJSON(reply.Text, out); err != nil {
		return fmt.Errorf("%s: %w", prompt, err)
	}
	return nil
}

// decodeJSON decodes the outermost JSON object in text, ignoring any prose
// or code fences around it.
func decodeJSON(text string, out any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ErrUnparsable
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return nil
}

// AnalyzeResume implements interview.ResumeAnalyzer.
func (a *Agents) AnalyzeResume(ctx context.Context, text string) (*interview.ResumeSummary, error) {
	var out interview.ResumeSummary
	if err := ask(ctx, a.fast, "analyze_resume", text, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeJob implements interview.JobAnalyzer.
func (a *Agents) AnalyzeJob(ctx context.Context, text string) (*interview.JobSummary, error) {
	var out interview.JobSummary
	if err := ask(ctx, a.fast, "analyze_job", text, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Plan implements interview.Planner.
func (a *Agents) Plan(ctx context.Context, resume *interview.ResumeSummary, job *interview.JobSummary, profile *interview.Profile) ([]string, error) {
	var projects []string
	if resume != nil {
		for _, p := range resume.Projects {
			projects = append(projects, strings.ReplaceAll(p.Title, ":", " "))
		}
	}
	data := struct {
		Length   int
		Stages   []string
		Projects []string
		Resume   *interview.ResumeSummary
		Job      *interview.JobSummary
		Profile  *interview.Profile
	}{a.planLength, a.stages, projects, resume, job, profile}

	var out struct {
		Plan []string `json:"plan"`
	}
	if err := ask(ctx, a.pro, "plan", data, &out); err != nil {
		return nil, err
	}
	if len(out.Plan) == 0 {
		return nil, fmt.Errorf("plan: %w: empty plan", ErrUnparsable)
	}
	return out.Plan, nil
}

type generatedQuestion struct {
	ConversationalText string `json:"conversational_text"`
	RawQuestion        struct {
		Text               string `json:"text"`
		IdealAnswerSnippet string `json:"ideal_answer_snippet"`
		RubricID           string `json:"rubric_id"`
	} `json:"raw_question"`
}

func (g generatedQuestion) toQuestion() (interview.Question, error) {
	if strings.TrimSpace(g.RawQuestion.Text) == "" && strings.TrimSpace(g.ConversationalText) == "" {
		return interview.Question{}, fmt.Errorf("%w: question text missing", ErrUnparsable)
	}
	raw := g.RawQuestion.Text
	if raw == "" {
		raw = g.ConversationalText
	}
	conversational := g.ConversationalText
	if conversational == "" {
		conversational = raw
	}
	return interview.Question{
		QuestionID:         questionbank.TextID(raw),
		ConversationalText: conversational,
		RawQuestionText:    raw,
		IdealAnswerSnippet: g.RawQuestion.IdealAnswerSnippet,
		RubricID:           g.RawQuestion.RubricID,
	}, nil
}

// RetrieveQuestion implements interview.QuestionRetriever. A bank question
// is rephrased for the conversation; without one a new question is
// generated.
func (a *Agents) RetrieveQuestion(ctx context.Context, topic string, rc interview.RetrievalContext) (interview.Question, error) {
	if a.bank != nil {
		if q, ok := a.bank.Pick(topic, questionbank.TargetDifficulty(rc.History), rc.AskedIDs()); ok {
			var out struct {
				ConversationalText string `json:"conversational_text"`
			}
			data := struct {
				Topic    string
				Question string
				Resume   *interview.ResumeSummary
			}{topic, q.Text, rc.ResumeSummary}
			if err := ask(ctx, a.fast, "rephrase", data, &out); err != nil {
				return interview.Question{}, err
			}
			return questionbank.ToInterview(q, out.ConversationalText), nil
		}
	}

	asked := make([]string, 0, len(rc.History))
	for _, turn := range rc.History {
		asked = append(asked, turn.RawQuestionText)
	}
	data := struct {
		Topic string
		Asked []string
		Job   *interview.JobSummary
	}{topic, asked, rc.JobSummary}
	var out generatedQuestion
	if err := ask(ctx, a.pro, "generate_question", data, &out); err != nil {
		return interview.Question{}, err
	}
	return out.toQuestion()
}

// DeepDive implements interview.DeepDiveGenerator. Projects must exist in
// the resume summary; other item types are asked about by name.
func (a *Agents) DeepDive(ctx context.Context, itemType, itemName string, resume *interview.ResumeSummary) (interview.Question, error) {
	data := struct {
		ItemType string
		ItemName string
		Project  *interview.Project
	}{ItemType: itemType, ItemName: itemName}

	if itemType == "project" {
		p, ok := resume.FindProject(itemName)
		if !ok {
			return interview.Question{}, fmt.Errorf("project %q: %w", itemName, interview.ErrUnknownItem)
		}
		data.Project = &p
	}

	var out generatedQuestion
	if err := ask(ctx, a.pro, "deep_dive", data, &out); err != nil {
		return interview.Question{}, err
	}
	return out.toQuestion()
}

// FastEvaluate implements interview.FastEvaluator.
func (a *Agents) FastEvaluate(ctx context.Context, question, idealAnswer, answer string) (interview.Evaluation, error) {
	data := struct{ Question, Ideal, Answer string }{question, idealAnswer, answer}
	var out struct {
		Score   float64 `json:"score"`
		Summary string  `json:"summary"`
	}
	if err := ask(ctx, a.fast, "fast_eval", data, &out); err != nil {
		return interview.Evaluation{}, err
	}
	return interview.Evaluation{Score: clampScore(out.Score), Summary: out.Summary}, nil
}

// RubricEvaluate implements interview.RubricEvaluator.
func (a *Agents) RubricEvaluate(ctx context.Context, question, answer, rubricID string) (interview.Evaluation, error) {
	if rubricID == "" {
		rubricID = "general"
	}
	data := struct{ Question, Answer, RubricID string }{question, answer, rubricID}
	var out struct {
		AggregateScore  float64          `json:"aggregate_score"`
		Summary         string           `json:"summary"`
		UserInputNeeded bool             `json:"user_input_needed"`
		Criteria        []map[string]any `json:"criteria"`
	}
	if err := ask(ctx, a.pro, "rubric_eval", data, &out); err != nil {
		return interview.Evaluation{}, err
	}
	ev := interview.Evaluation{
		Score:           clampScore(out.AggregateScore),
		Summary:         out.Summary,
		UserInputNeeded: out.UserInputNeeded,
	}
	if len(out.Criteria) > 0 {
		criteria := make([]any, len(out.Criteria))
		for i, c := range out.Criteria {
			criteria[i] = c
		}
		ev.Details = map[string]any{"rubric_id": rubricID, "criteria": criteria}
	}
	return ev, nil
}

// Feedback implements interview.FeedbackGenerator.
func (a *Agents) Feedback(ctx context.Context, turn interview.QuestionTurn) (map[string]any, error) {
	out := map[string]any{}
	if err := ask(ctx, a.fast, "feedback", &turn, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FollowUp implements interview.FollowUpGenerator.
func (a *Agents) FollowUp(ctx context.Context, turn interview.QuestionTurn) (interview.FollowUp, error) {
	var out interview.FollowUp
	if err := ask(ctx, a.fast, "follow_up", &turn, &out); err != nil {
		return interview.FollowUp{}, err
	}
	return out, nil
}

// Report implements interview.ReportGenerator.
func (a *Agents) Report(ctx context.Context, history []interview.QuestionTurn) (interview.Report, error) {
	var out interview.Report
	if err := ask(ctx, a.pro, "report", history, &out); err != nil {
		return interview.Report{}, err
	}
	return out, nil
}

// Personalize implements interview.PersonalizationGenerator.
func (a *Agents) Personalize(ctx context.Context, history []interview.QuestionTurn, previous *interview.Profile) (interview.Profile, error) {
	data := struct {
		History  []interview.QuestionTurn
		Previous *interview.Profile
	}{history, previous}
	var out interview.Profile
	if err := ask(ctx, a.pro, "personalize", data, &out); err != nil {
		return interview.Profile{}, err
	}
	return out, nil
}

// clampScore bounds a model score to 0..100.
func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return interview.MinScore
	}
	return math.Max(interview.MinScore, math.Min(interview.MaxScore, v))
}

