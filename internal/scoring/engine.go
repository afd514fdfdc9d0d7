// Package scoring converts a finished attempt plus the answer key into a
// total score and one detail record per question, under four marking modes:
// straight positive/negative, relative-grading tables, proportional MULTI
// partial credit, and the disqualification override.
package scoring

import (
	"exam-service/internal/flatten"
	"exam-service/internal/models"
)

// DisqualifiedScore replaces the computed total when an attempt is
// disqualified by the external proctoring signal.
const DisqualifiedScore = -10

// Input is everything the engine consumes. Disqualified is an explicit flag
// supplied by the caller, never inferred from attempt state.
type Input struct {
	Units        []flatten.Unit
	Answers      map[int]interface{}
	TimeSpent    map[int]int
	Disqualified bool
}

// Outcome is the scored attempt: the (possibly overridden) total, the result
// status and the per-question detail in flat order.
type Outcome struct {
	Score   float64
	Status  models.ResultStatus
	Details []models.QuestionDetail
}

// Evaluate scores every question and sums the marks. The total is unclamped
// and may be negative. Per-question detail is computed even for disqualified
// attempts; only the total is overridden.
func Evaluate(in Input) Outcome {
	details := make([]models.QuestionDetail, len(in.Units))
	total := 0.0
	for i := range in.Units {
		u := &in.Units[i]
		ans := in.Answers[i]
		marks, correct := scoreOne(u, ans)
		details[i] = models.QuestionDetail{
			UserAnswer:    ans,
			CorrectAnswer: u.Correct,
			IsCorrect:     correct,
			Marks:         marks,
			TimeSpent:     in.TimeSpent[i],
		}
		total += marks
	}

	out := Outcome{Score: total, Status: models.ResultCompleted, Details: details}
	if in.Disqualified {
		out.Score = DisqualifiedScore
		out.Status = models.ResultDisqualified
	}
	return out
}

// IsAnswerCorrect reports whether ans earns positive credit on u, under the
// same rules Evaluate applies. Used by the analysis aggregator.
func IsAnswerCorrect(u *flatten.Unit, ans interface{}) bool {
	_, correct := scoreOne(u, ans)
	return correct
}

// scoreOne applies the marking rules in priority order: unanswered, relative
// grading table, MULTI set comparison, defensive passage placeholder, then
// canonicalized equality with straight positive/negative marks.
func scoreOne(u *flatten.Unit, ans interface{}) (float64, bool) {
	if !u.Answerable() {
		return 0, false
	}
	if IsEmpty(ans) {
		return 0, false
	}

	if len(u.RelativeGrading) > 0 {
		marks := u.RelativeGrading[CanonicalKey(ans)]
		return marks, marks > 0
	}

	if u.Type == models.TypeMulti {
		if correct, ok := CanonicalSet(u.Correct); ok {
			return scoreMulti(u, ans, correct)
		}
	}

	if u.Type == models.TypePassage {
		// Flattening removes passage parents; a stray one scores nothing.
		return 0, false
	}

	if u.Type == models.TypeMatrix {
		chosen, okChosen := CanonicalPairs(ans)
		correct, okCorrect := CanonicalPairs(u.Correct)
		if okChosen && okCorrect {
			if equalStrings(chosen, correct) {
				return u.PositiveMarks, true
			}
			return -u.NegativeMarks, false
		}
	}

	if Canonical(ans) == Canonical(u.Correct) {
		return u.PositiveMarks, true
	}
	return -u.NegativeMarks, false
}

// scoreMulti compares the chosen option set to the correct one: exact match
// earns full marks, a strict subset with no wrong option earns proportional
// partial credit, and any wrong option earns the negative marks.
func scoreMulti(u *flatten.Unit, ans interface{}, correct []string) (float64, bool) {
	chosen, ok := CanonicalSet(ans)
	if !ok || len(chosen) == 0 {
		return 0, false
	}
	if equalStrings(chosen, correct) {
		return u.PositiveMarks, true
	}
	if subsetOf(chosen, correct) {
		return u.PositiveMarks * float64(len(chosen)) / float64(len(correct)), false
	}
	return -u.NegativeMarks, false
}
