// Package analysis derives rank, accuracy and per-question aggregate
// statistics from the full set of results of an exam. It never scores
// against a missing answer key: before release, or when any question lacks a
// key, it reports the under-evaluation state instead.
package analysis

import (
	"math"
	"sort"
	"strconv"

	"exam-service/internal/flatten"
	"exam-service/internal/models"
	"exam-service/internal/scoring"
)

// QuestionStat aggregates one flattened question across all results.
type QuestionStat struct {
	Index              int            `json:"index"`
	Attempts           int            `json:"attempts"`
	Correct            int            `json:"correct"`
	CorrectRate        float64        `json:"correctRate"`
	OptionDistribution map[string]int `json:"optionDistribution"`
}

type Performer struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Report is the exam-wide aggregate view.
type Report struct {
	UnderEvaluation bool           `json:"underEvaluation"`
	ExamID          string         `json:"examId"`
	Title           string         `json:"title"`
	TotalAttempts   int            `json:"totalAttempts"`
	AverageScore    float64        `json:"averageScore"`
	TopPerformers   []Performer    `json:"topPerformers,omitempty"`
	Questions       []QuestionStat `json:"questions,omitempty"`
}

// Standing is one attempt's position within its exam's result set.
type Standing struct {
	Attempted      bool                `json:"attempted"`
	Rank           int                 `json:"rank,omitempty"`
	Score          float64             `json:"score"`
	Accuracy       int                 `json:"accuracy"`
	TotalTimeSpent int                 `json:"totalTimeSpent"`
	Status         models.ResultStatus `json:"status"`
}

// SortResults orders results for ranking: score descending, then total time
// spent ascending (faster completion wins ties), then timestamp ascending
// for determinism.
func SortResults(results []models.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TotalTimeSpent != b.TotalTimeSpent {
			return a.TotalTimeSpent < b.TotalTimeSpent
		}
		return a.Timestamp.Before(b.Timestamp)
	})
}

// Rank locates target inside its exam's result set and returns its 1-based
// position. Attempts are matched by attempt id when present, falling back to
// (userId, exact timestamp) for documents that predate the field. The second
// return is false when the target is absent ("not attempted").
func Rank(target *models.Result, results []models.Result) (int, bool) {
	sorted := make([]models.Result, len(results))
	copy(sorted, results)
	SortResults(sorted)

	for i := range sorted {
		if sameAttempt(target, &sorted[i]) {
			return i + 1, true
		}
	}
	return 0, false
}

func sameAttempt(a, b *models.Result) bool {
	if a.AttemptID != "" && b.AttemptID != "" {
		return a.AttemptID == b.AttemptID
	}
	return a.UserID == b.UserID && a.Timestamp.Equal(b.Timestamp)
}

// Accuracy is round(100 * correct / attempted) over the recorded answers,
// zero when nothing was attempted.
func Accuracy(r *models.Result, units []flatten.Unit) int {
	attempted, correct := 0, 0
	if len(r.PerQuestionDetail) > 0 {
		for i := range r.PerQuestionDetail {
			d := &r.PerQuestionDetail[i]
			if scoring.IsEmpty(d.UserAnswer) {
				continue
			}
			attempted++
			if d.IsCorrect {
				correct++
			}
		}
	} else {
		// Legacy documents carry only the raw answer map.
		answers := NormalizeAnswers(r.Answers)
		for i := range units {
			ans, ok := answers[i]
			if !ok || scoring.IsEmpty(ans) {
				continue
			}
			attempted++
			if scoring.IsAnswerCorrect(&units[i], ans) {
				correct++
			}
		}
	}
	if attempted == 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(attempted)))
}

// NormalizeAnswers converts a persisted answer map, whose numeric indices
// may have round-tripped as string keys, back to flat-index keys. Non-numeric
// keys are dropped.
func NormalizeAnswers(raw map[string]interface{}) map[int]interface{} {
	out := make(map[int]interface{}, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[idx] = v
	}
	return out
}

// StandingFor computes the target attempt's rank and accuracy within the
// result set.
func StandingFor(target *models.Result, results []models.Result, units []flatten.Unit) Standing {
	st := Standing{
		Score:          target.Score,
		Accuracy:       Accuracy(target, units),
		TotalTimeSpent: target.TotalTimeSpent,
		Status:         target.Status,
	}
	if rank, ok := Rank(target, results); ok {
		st.Attempted = true
		st.Rank = rank
	}
	return st
}

// Aggregate builds the exam-wide report. When results are not released, or
// any answerable question lacks a defined answer key, it returns the
// under-evaluation state without touching the statistics.
func Aggregate(exam *models.ExamDefinition, units []flatten.Unit, results []models.Result) Report {
	report := Report{ExamID: exam.ID, Title: exam.Title}

	if UnderEvaluation(exam, units) {
		report.UnderEvaluation = true
		return report
	}

	sorted := make([]models.Result, len(results))
	copy(sorted, results)
	SortResults(sorted)

	report.TotalAttempts = len(sorted)
	var sum float64
	for i := range sorted {
		sum += sorted[i].Score
	}
	if len(sorted) > 0 {
		report.AverageScore = math.Round(sum / float64(len(sorted)))
	}

	top := len(sorted)
	if top > 5 {
		top = 5
	}
	for i := 0; i < top; i++ {
		name := sorted[i].Name
		if name == "" {
			name = sorted[i].Email
		}
		report.TopPerformers = append(report.TopPerformers, Performer{Name: name, Score: sorted[i].Score})
	}

	report.Questions = questionStats(units, sorted)
	return report
}

// UnderEvaluation reports whether aggregate statistics may be computed yet:
// results must be released and every answerable question must carry a
// defined answer key or relative-grading table.
func UnderEvaluation(exam *models.ExamDefinition, units []flatten.Unit) bool {
	return !exam.ResultsReleased || missingKey(units)
}

func missingKey(units []flatten.Unit) bool {
	for i := range units {
		u := &units[i]
		if !u.Answerable() {
			continue
		}
		if u.Correct == nil && len(u.RelativeGrading) == 0 {
			return true
		}
	}
	return false
}

func questionStats(units []flatten.Unit, results []models.Result) []QuestionStat {
	stats := make([]QuestionStat, len(units))
	for i := range stats {
		stats[i] = QuestionStat{Index: i, OptionDistribution: make(map[string]int)}
	}

	for ri := range results {
		answers := NormalizeAnswers(results[ri].Answers)
		for i := range units {
			ans, ok := answers[i]
			if !ok || scoring.IsEmpty(ans) {
				continue
			}
			stats[i].Attempts++
			stats[i].OptionDistribution[distributionKey(ans)]++
			if scoring.IsAnswerCorrect(&units[i], ans) {
				stats[i].Correct++
			}
		}
	}

	for i := range stats {
		if stats[i].Attempts > 0 {
			stats[i].CorrectRate = float64(stats[i].Correct) / float64(stats[i].Attempts)
		}
	}
	return stats
}

// distributionKey canonicalizes a chosen value into the bucket label of the
// option distribution. Set and matrix answers collapse to a stable joined
// form so identical selections count together.
func distributionKey(ans interface{}) string {
	return scoring.CanonicalKey(ans)
}
