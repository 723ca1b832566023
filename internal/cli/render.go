package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/NishanthN27/Final-Year/graph"
	"github.com/NishanthN27/Final-Year/graph/emit"
	"github.com/NishanthN27/Final-Year/interview"
)

// writeResult prints res as text or JSON.
func writeResult(w io.Writer, res interview.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "", "text":
		writeText(w, res)
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

func writeText(w io.Writer, res interview.Result) {
	s := res.State
	fmt.Fprintf(w, "Session %s  [%s, step %d]\n", s.SessionID, res.Status, res.Step)

	if last := lastTurn(s.QuestionHistory); last != nil {
		writeEvaluation(w, last)
	}

	switch res.Status {
	case graph.StatusPaused:
		q := s.CurrentQuestion
		if q == nil {
			return
		}
		label := "Question"
		if q.IsFollowUp {
			label = "Follow-up"
		}
		if s.CurrentTopic != "" {
			fmt.Fprintf(w, "\nTopic: %s\n", s.CurrentTopic)
		}
		fmt.Fprintf(w, "%s: %s\n", label, q.ConversationalText)
		if len(s.InterviewPlan) > 0 {
			fmt.Fprintf(w, "Remaining topics: %s\n", strings.Join(s.InterviewPlan, ", "))
		}
	case graph.StatusEnded:
		writeReport(w, s)
	}
}

func lastTurn(history []interview.QuestionTurn) *interview.QuestionTurn {
	if len(history) == 0 {
		return nil
	}
	return &history[len(history)-1]
}

func writeEvaluation(w io.Writer, turn *interview.QuestionTurn) {
	ev, ok := turn.Eval(interview.EvalCanonical)
	if !ok {
		return
	}
	fmt.Fprintf(w, "\nLast answer scored %.1f", ev.Score)
	if ev.Summary != "" {
		fmt.Fprintf(w, ": %s", ev.Summary)
	}
	fmt.Fprintln(w)
	keys := make([]string, 0, len(turn.Feedback))
	for k := range turn.Feedback {
		if k != interview.FeedbackFollowUpKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %v\n", k, turn.Feedback[k])
	}
}

func writeReport(w io.Writer, s interview.SessionState) {
	r := s.FinalReport
	if r == nil {
		return
	}
	fmt.Fprintf(w, "\nFinal report: %.1f overall across %d answers\n", r.OverallScore, r.QuestionsAnswered)
	if r.Summary != "" {
		fmt.Fprintln(w, r.Summary)
	}
	writeList(w, "Strengths", r.Strengths)
	writeList(w, "Areas for improvement", r.AreasForImprovement)

	fmt.Fprintln(w, "\nQuestions:")
	for i := range s.QuestionHistory {
		turn := &s.QuestionHistory[i]
		score := "-"
		if ev, ok := turn.Eval(interview.EvalCanonical); ok {
			score = fmt.Sprintf("%.1f", ev.Score)
		}
		fmt.Fprintf(w, "  %2d. [%s] %s\n", i+1, score, turn.RawQuestionText)
	}
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

// writeTrace lists finished nodes with their step and duration.
func writeTrace(w io.Writer, events []emit.Event) {
	if len(events) == 0 {
		return
	}
	fmt.Fprintln(w, "Trace:")
	for _, ev := range events {
		fmt.Fprintf(w, "  step %-3d %-20s %vms\n", ev.Step, ev.NodeID, ev.Meta["duration_ms"])
	}
}
