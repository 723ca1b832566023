package agents

import (
	"encoding/json"
	"strings"
	"text/template"

	"github.com/NishanthN27/Final-Year/interview"
)

const systemPrompt = `You are an experienced technical interviewer. You always reply with a single JSON object and nothing else.`

const promptText = `
{{define "analyze_resume"}}
Summarize the resume below.
Reply with JSON: {"name": string, "summary": string, "skills": [string], "projects": [{"title": string, "description": string, "technologies": [string]}], "experience": [string]}

Resume:
{{.}}
{{end}}

{{define "analyze_job"}}
Summarize the job description below.
Reply with JSON: {"title": string, "summary": string, "required_skills": [string], "responsibilities": [string]}

Job description:
{{.}}
{{end}}

{{define "plan"}}
Plan an interview of {{.Length}} topics for this candidate.
Each topic is either one of the stage topics {{join .Stages ", "}}
or a deep dive into one resume item written as deep_dive:<item_type>:<item_name>,
for example deep_dive:project:{{if .Projects}}{{index .Projects 0}}{{else}}Payments API{{end}}.
Item names must not contain colons.
{{- if .Projects}}
Resume projects: {{join .Projects ", "}}
{{- end}}
{{- with .Resume}}
Candidate summary: {{.Summary}}
Skills: {{join .Skills ", "}}
{{- end}}
{{- with .Job}}
Role: {{.Title}}. {{.Summary}}
Required skills: {{join .RequiredSkills ", "}}
{{- end}}
{{- with .Profile}}
Previous sessions showed weaknesses in: {{join .Weaknesses ", "}}
Recommended topics: {{join .RecommendedTopics ", "}}
{{- end}}
Reply with JSON: {"plan": [string]}
{{end}}

{{define "rephrase"}}
Rephrase this interview question so it sounds natural in a conversation about {{.Topic}}.
Keep its meaning.
Question: {{.Question}}
{{- with .Resume}}
Candidate summary: {{.Summary}}
{{- end}}
Reply with JSON: {"conversational_text": string}
{{end}}

{{define "generate_question"}}
Write one interview question about {{.Topic}}.
Do not repeat any of these questions:
{{- range .Asked}}
- {{.}}
{{- end}}
{{- with .Job}}
Role: {{.Title}}. {{.Summary}}
{{- end}}
Reply with JSON: {"conversational_text": string, "raw_question": {"text": string, "ideal_answer_snippet": string, "rubric_id": string}}
{{end}}

{{define "deep_dive"}}
Ask one deep-dive question about the candidate's {{.ItemType}} "{{.ItemName}}" and present it conversationally.
{{- with .Project}}
Project description: {{.Description}}
Technologies: {{join .Technologies ", "}}
{{- end}}
Reply with JSON: {"conversational_text": string, "raw_question": {"text": string, "ideal_answer_snippet": string, "rubric_id": string}}
{{end}}

{{define "fast_eval"}}
Score the answer from 0 to 100 by how well it matches the ideal answer.
Question: {{.Question}}
Ideal answer: {{.Ideal}}
Answer: {{.Answer}}
Reply with JSON: {"score": number, "summary": string}
{{end}}

{{define "rubric_eval"}}
Grade the answer against the rubric "{{.RubricID}}" on a 0 to 100 scale.
Set user_input_needed to true when the answer is vague or incomplete enough to deserve a follow-up question.
Question: {{.Question}}
Answer: {{.Answer}}
Reply with JSON: {"aggregate_score": number, "summary": string, "user_input_needed": boolean, "criteria": [{"name": string, "score": number, "comment": string}]}
{{end}}

{{define "feedback"}}
Give the candidate short, constructive feedback on their answer.
Question: {{.RawQuestionText}}
Answer: {{.Answer}}
{{- with eval .Evals "canonical"}}
Score: {{.Score}} ({{.Summary}})
{{- end}}
Reply with JSON: {"summary": string, "strengths": [string], "improvements": [string]}
{{end}}

{{define "follow_up"}}
Decide whether the answer needs a follow-up question that digs into what is missing.
Question: {{.RawQuestionText}}
Answer: {{.Answer}}
{{- with eval .Evals "rubric_eval"}}
Rubric summary: {{.Summary}}
{{- end}}
Reply with JSON: {"required": boolean, "question": string}
{{end}}

{{define "report"}}
Write the final report of this interview.
{{- range $i, $turn := .}}
{{inc $i}}. Q: {{$turn.RawQuestionText}}
   A: {{$turn.Answer}}
{{- with eval $turn.Evals "canonical"}}
   Score: {{.Score}}
{{- end}}
{{- end}}
Reply with JSON: {"summary": string, "strengths": [string], "areas_for_improvement": [string]}
{{end}}

{{define "personalize"}}
Update the candidate's learning profile after this interview.
{{- with .Previous}}
Previous profile: {{toJSON .}}
{{- end}}
{{- range .History}}
- {{.Topic}}: {{with eval .Evals "canonical"}}{{.Score}}{{else}}unscored{{end}}
{{- end}}
Reply with JSON: {"focus_areas": [string], "strengths": [string], "weaknesses": [string], "recommended_topics": [string], "notes": string}
{{end}}
`

var prompts = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
	"eval": func(evals map[string]interview.Evaluation, key string) *interview.Evaluation {
		if ev, ok := evals[key]; ok {
			return &ev
		}
		return nil
	},
	"toJSON": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}).Parse(promptText))
