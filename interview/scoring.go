package interview

import "math"

// Synthesis weights for the canonical score.
const (
	RubricWeight = 0.7
	FastWeight   = 0.3
)

// Synthesize combines the fast and rubric evaluations into the canonical
// one. The follow-up decision is taken from the rubric evaluation.
func Synthesize(fast, rubric Evaluation) Evaluation {
	score := round2(RubricWeight*rubric.Score + FastWeight*fast.Score)
	return Evaluation{
		Score:           math.Max(MinScore, math.Min(MaxScore, score)),
		Summary:         rubric.Summary,
		UserInputNeeded: rubric.UserInputNeeded,
		Details: map[string]any{
			EvalFast:   fast.Score,
			EvalRubric: rubric.Score,
		},
	}
}

// OverallScore is the mean canonical score of the answered turns, rounded
// to two decimals. Turns without a canonical evaluation are skipped.
func OverallScore(history []QuestionTurn) (float64, int) {
	var sum float64
	n := 0
	for _, turn := range history {
		ev, ok := turn.Evals[EvalCanonical]
		if !ok {
			continue
		}
		sum += ev.Score
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return round2(sum / float64(n)), n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
