package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NishanthN27/Final-Year/graph/model"
	"github.com/NishanthN27/Final-Year/internal/config"
)

// reply satisfies every agent prompt: one stage topic, a generated question,
// scores of 80 (fast) and 90 (rubric) and no follow-up.
const reply = `{
  "name": "Ada",
  "summary": "Solid answer",
  "skills": ["go"],
  "title": "Backend Engineer",
  "plan": ["technical"],
  "conversational_text": "Tell me about Go channels.",
  "raw_question": {"text": "Explain Go channels.", "ideal_answer_snippet": "typed conduits"},
  "score": 80,
  "aggregate_score": 90,
  "user_input_needed": false,
  "required": false,
  "strengths": ["clarity"],
  "areas_for_improvement": ["depth"],
  "focus_areas": ["concurrency"]
}`

func mockModels(context.Context, config.LLMConfig) (model.ChatModel, model.ChatModel, []func() error, error) {
	return &model.MockChatModel{Responses: []model.ChatOut{{Text: reply}}}, nil, nil, nil
}

// scriptedPrompter replays answers and choices in order.
type scriptedPrompter struct {
	answers []string
	choices []string
	errs    map[int]error
	asked   int
}

func (p *scriptedPrompter) Ask(string) (string, error) {
	i := p.asked
	p.asked++
	if err := p.errs[i]; err != nil {
		return "", err
	}
	if i >= len(p.answers) {
		return "", errQuit
	}
	return p.answers[i], nil
}

func (p *scriptedPrompter) Choose(string, []string) (string, error) {
	if len(p.choices) == 0 {
		return PromptSaveAndQuit, nil
	}
	c := p.choices[0]
	p.choices = p.choices[1:]
	return c, nil
}

func execute(t *testing.T, prompter Prompter, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(Deps{Models: mockModels, Prompter: prompter})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestGraphCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, nil, "graph")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `await_answer[/"await_answer"/]`)
	assert.Contains(t, out, `advance_plan -- "follow_up" --> await_answer`)
	assert.NotContains(t, out, "classDef current")
}

func TestStartRequiresInput(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, nil, "start", "--store", "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--resume")
}

func TestStartPrintsFirstQuestion(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	resume := writeFile(t, dir, "resume.txt", "Ada Lovelace, Go engineer")

	out, err := execute(t, nil, "start", "--store", "memory", "--resume", resume, "--session", "s-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Session s-1  [PAUSED")
	assert.Contains(t, out, "Topic: technical")
	assert.Contains(t, out, "Question: Tell me about Go channels.")
}

func TestStartAndAnswerAcrossInvocations(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	resume := writeFile(t, dir, "resume.txt", "Ada Lovelace, Go engineer")
	db := filepath.Join(dir, "sessions.db")

	_, err := execute(t, nil, "start", "--store", "sqlite", "--dsn", db, "--resume", resume, "--session", "s-2", "--user", "ada")
	require.NoError(t, err)

	out, err := execute(t, nil, "sessions", "--store", "sqlite", "--dsn", db)
	require.NoError(t, err)
	assert.Equal(t, "s-2\n", out)

	out, err = execute(t, nil, "answer", "--store", "sqlite", "--dsn", db, "s-2", "Channels are typed conduits.")
	require.NoError(t, err)
	assert.Contains(t, out, "[ENDED")
	assert.Contains(t, out, "Last answer scored 87.0: Solid answer")
	assert.Contains(t, out, "Final report: 87.0 overall across 1 answers")
	assert.Contains(t, out, "[87.0] Explain Go channels.")

	_, err = execute(t, nil, "answer", "--store", "sqlite", "--dsn", db, "s-2", "again")
	require.Error(t, err)

	out, err = execute(t, nil, "graph", "--store", "sqlite", "--dsn", db, "--session", "s-2")
	require.NoError(t, err)
	assert.NotContains(t, out, "class ")

	_, err = execute(t, nil, "delete", "--store", "sqlite", "--dsn", db, "s-2")
	require.NoError(t, err)
	_, err = execute(t, nil, "show", "--store", "sqlite", "--dsn", db, "s-2")
	require.Error(t, err)
}

func TestShowJSON(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	job := writeFile(t, dir, "job.txt", "Backend engineer, Go")
	db := filepath.Join(dir, "sessions.db")

	_, err := execute(t, nil, "start", "--store", "sqlite", "--dsn", db, "--job", job, "--session", "s-3")
	require.NoError(t, err)

	out, err := execute(t, nil, "show", "--store", "sqlite", "--dsn", db, "-o", "json", "s-3")
	require.NoError(t, err)
	assert.Contains(t, out, `"Status": "PAUSED"`)
	assert.Contains(t, out, `"session_id": "s-3"`)

	out, err = execute(t, nil, "graph", "--store", "sqlite", "--dsn", db, "--session", "s-3")
	require.NoError(t, err)
	assert.Contains(t, out, "class await_answer current;")
}

func TestInteractiveCompletesSession(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	resume := writeFile(t, dir, "resume.txt", "Ada Lovelace, Go engineer")
	prompter := &scriptedPrompter{
		answers: []string{"  ", "Channels are typed conduits."},
		choices: []string{PromptAnswerAgain},
	}

	out, err := execute(t, prompter, "interactive", "--store", "memory", "--resume", resume)
	require.NoError(t, err)
	assert.Equal(t, 2, prompter.asked)
	assert.Contains(t, out, "Question: Tell me about Go channels.")
	assert.Contains(t, out, "Final report: 87.0 overall across 1 answers")
	assert.Contains(t, out, "  - clarity")
}

func TestInteractiveTrace(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	resume := writeFile(t, dir, "resume.txt", "Ada Lovelace, Go engineer")
	prompter := &scriptedPrompter{answers: []string{"Channels are typed conduits."}}

	out, err := execute(t, prompter, "interactive", "--trace", "--store", "memory", "--resume", resume)
	require.NoError(t, err)
	assert.Contains(t, out, "Trace:")
	assert.Regexp(t, `step \d+\s+fast_eval`, out)
	assert.Regexp(t, `step \d+\s+synthesize`, out)
}

func TestInteractiveQuitLeavesSessionPaused(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	resume := writeFile(t, dir, "resume.txt", "Ada Lovelace, Go engineer")
	db := filepath.Join(dir, "sessions.db")

	out, err := execute(t, &scriptedPrompter{}, "interactive", "--store", "sqlite", "--dsn", db, "--resume", resume)
	require.NoError(t, err)
	id := regexp.MustCompile(`Session (\S+) saved`).FindStringSubmatch(out)
	require.Len(t, id, 2, out)

	out, err = execute(t, nil, "show", "--store", "sqlite", "--dsn", db, id[1])
	require.NoError(t, err)
	assert.Contains(t, out, "[PAUSED")
}

func TestInteractiveSkip(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	resume := writeFile(t, dir, "resume.txt", "Ada Lovelace, Go engineer")
	prompter := &scriptedPrompter{answers: []string{""}, choices: []string{PromptSkip}}

	out, err := execute(t, prompter, "interactive", "--store", "memory", "--resume", resume)
	require.NoError(t, err)
	assert.Contains(t, out, "[ENDED")
}

func TestConfigFileFlag(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := writeFile(t, dir, "custom.yaml", "store:\n  driver: postgres\n")

	_, err := execute(t, nil, "graph", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}
